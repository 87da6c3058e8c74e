// sessions.go — обработчики сессий редакторов.
// Сессия открывается для нового файла или файла из реестра, принимает
// правки в состоянии editing и сохраняется через запрос имени.
package handlers

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	apierrors "github.com/DavidsonLima-ui/Compose-Suite/internal/api/errors"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/api/routes"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/editor"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/completion"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/session"
)

// HeaderSessionState — состояние сессии после выгрузки артефакта.
const HeaderSessionState = "X-Session-State"

type createSessionRequest struct {
	FileID string `json:"file_id"`
	Kind   string `json:"kind"`
}

type saveIntentRequest struct {
	Target string `json:"target"`
}

type confirmRequest struct {
	Name   string `json:"name"`
	Format string `json:"format"`
}

type contentRequest struct {
	Content string `json:"content"`
}

type cellRequest struct {
	Row   int    `json:"row"`
	Col   int    `json:"col"`
	Value string `json:"value"`
}

type formatRequest struct {
	Command string `json:"command"`
	Value   string `json:"value"`
}

type topicRequest struct {
	Topic string `json:"topic"`
}

type instructionRequest struct {
	Instruction string `json:"instruction"`
}

// confirmResponse — ответ на подтверждение сохранения в реестр.
type confirmResponse struct {
	State editor.State      `json:"state"`
	File  *model.FileRecord `json:"file"`
}

// backResponse — ответ на выход из редактора.
type backResponse struct {
	Autosaved *model.FileRecord `json:"autosaved,omitempty"`
}

// seedResponse — ответ на заполнение таблицы.
type seedResponse struct {
	Data        []completion.DataPoint `json:"data"`
	RowsWritten int                    `json:"rows_written"`
	Session     session.View           `json:"session"`
}

// textResponse — сгенерированный текст.
type textResponse struct {
	Text string `json:"text"`
}

// session находит открытую сессию. При ошибке пишет ответ и возвращает nil.
func (h *APIHandler) session(w http.ResponseWriter, id routes.SessionID) *session.Session {
	s, err := h.sessions.Get(id.String())
	if err != nil {
		h.writeDomainError(w, err, "get_session")
		return nil
	}
	return s
}

// CreateSession обрабатывает POST /api/v1/sessions.
// Ровно одно из полей: file_id (открыть сохранённый) или kind (новый файл).
func (h *APIHandler) CreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	var (
		s   *session.Session
		err error
	)
	switch {
	case req.FileID != "" && req.Kind != "":
		apierrors.ValidationError(w, "Укажите либо file_id, либо kind")
		return
	case req.FileID != "":
		s, err = h.sessions.Open(req.FileID)
	case req.Kind != "":
		kind, perr := model.ParseKind(req.Kind)
		if perr != nil {
			apierrors.ValidationError(w, perr.Error())
			return
		}
		s, err = h.sessions.New(kind)
	default:
		apierrors.ValidationError(w, "Поле file_id или kind обязательно")
		return
	}
	if err != nil {
		h.writeDomainError(w, err, "create_session")
		return
	}

	writeJSON(w, http.StatusCreated, s.View())
}

// GetSession обрабатывает GET /api/v1/sessions/{session_id}.
func (h *APIHandler) GetSession(w http.ResponseWriter, _ *http.Request, sessionID routes.SessionID) {
	if s := h.session(w, sessionID); s != nil {
		writeJSON(w, http.StatusOK, s.View())
	}
}

// CloseSession обрабатывает DELETE /api/v1/sessions/{session_id}.
// Рабочая копия отбрасывается без сохранения.
func (h *APIHandler) CloseSession(w http.ResponseWriter, _ *http.Request, sessionID routes.SessionID) {
	h.sessions.Close(sessionID.String())
	w.WriteHeader(http.StatusNoContent)
}

// SaveIntent обрабатывает POST /api/v1/sessions/{session_id}/save-intent.
func (h *APIHandler) SaveIntent(w http.ResponseWriter, r *http.Request, sessionID routes.SessionID) {
	var req saveIntentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	target, err := editor.ParseTarget(req.Target)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}

	s := h.session(w, sessionID)
	if s == nil {
		return
	}
	if err := s.SaveIntent(target); err != nil {
		h.writeDomainError(w, err, "save_intent")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// ConfirmSave обрабатывает POST /api/v1/sessions/{session_id}/confirm.
// Для цели persist отвечает JSON с сохранённой записью, для цели
// export — самим артефактом.
func (h *APIHandler) ConfirmSave(w http.ResponseWriter, r *http.Request, sessionID routes.SessionID) {
	var req confirmRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	format, err := parseOptionalFormat(req.Format)
	if err != nil {
		apierrors.UnsupportedFormat(w, err.Error())
		return
	}

	sink := newDownload(w, http.Header{HeaderSessionState: {string(editor.StateEditing)}})
	res, err := h.sessions.Confirm(r.Context(), sessionID.String(), req.Name, sink, format)
	if err != nil {
		if sink.sent {
			h.logger.Warn("Ошибка отправки артефакта",
				slog.String("session_id", sessionID.String()),
				slog.String("error", err.Error()),
			)
			return
		}
		h.writeDomainError(w, err, "confirm")
		return
	}

	if res.State == editor.StatePersisted {
		h.refreshFileMetrics()
		writeJSON(w, http.StatusOK, confirmResponse{State: res.State, File: res.File})
	}
	// Цель export: артефакт уже записан в ответ
}

// CancelSave обрабатывает POST /api/v1/sessions/{session_id}/cancel.
func (h *APIHandler) CancelSave(w http.ResponseWriter, _ *http.Request, sessionID routes.SessionID) {
	s := h.session(w, sessionID)
	if s == nil {
		return
	}
	if err := s.Cancel(); err != nil {
		h.writeDomainError(w, err, "cancel")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// BackSession обрабатывает POST /api/v1/sessions/{session_id}/back.
// Сессия закрывается; новый непустой документ может быть сохранён
// автоматически (CS_AUTOSAVE_ON_BACK).
func (h *APIHandler) BackSession(w http.ResponseWriter, _ *http.Request, sessionID routes.SessionID) {
	saved, err := h.sessions.Back(sessionID.String())
	if err != nil {
		h.writeDomainError(w, err, "back")
		return
	}
	if saved != nil {
		h.refreshFileMetrics()
	}
	writeJSON(w, http.StatusOK, backResponse{Autosaved: saved})
}

// SetContent обрабатывает PUT /api/v1/sessions/{session_id}/content.
func (h *APIHandler) SetContent(w http.ResponseWriter, r *http.Request, sessionID routes.SessionID) {
	var req contentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := h.session(w, sessionID)
	if s == nil {
		return
	}
	if err := s.SetContent(req.Content); err != nil {
		h.writeDomainError(w, err, "set_content")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// InsertImage обрабатывает POST /api/v1/sessions/{session_id}/images.
// Multipart form: file (обязательно, изображение не больше CS_MAX_IMAGE_SIZE).
func (h *APIHandler) InsertImage(w http.ResponseWriter, r *http.Request, sessionID routes.SessionID) {
	s := h.session(w, sessionID)
	if s == nil {
		return
	}

	// Запас на заголовки multipart
	r.Body = http.MaxBytesReader(w, r.Body, h.maxImageSize+1<<20)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			apierrors.PayloadTooLarge(w, fmt.Sprintf("Изображение больше %d байт", h.maxImageSize))
			return
		}
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка парсинга multipart: %s", err.Error()))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		apierrors.ValidationError(w, "Поле 'file' обязательно")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, h.maxImageSize+1))
	if err != nil {
		apierrors.ValidationError(w, fmt.Sprintf("Ошибка чтения файла: %s", err.Error()))
		return
	}
	if int64(len(data)) > h.maxImageSize {
		apierrors.PayloadTooLarge(w, fmt.Sprintf("Изображение больше %d байт", h.maxImageSize))
		return
	}

	contentType := header.Header.Get("Content-Type")
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = http.DetectContentType(data)
	}
	if !strings.HasPrefix(contentType, "image/") {
		apierrors.ValidationError(w, fmt.Sprintf("Файл не является изображением: %s", contentType))
		return
	}

	if err := s.InsertImage(contentType, data); err != nil {
		h.writeDomainError(w, err, "insert_image")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// SelectCell обрабатывает POST /api/v1/sessions/{session_id}/select.
func (h *APIHandler) SelectCell(w http.ResponseWriter, r *http.Request, sessionID routes.SessionID) {
	var req cellRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := h.session(w, sessionID)
	if s == nil {
		return
	}
	if err := s.SelectCell(req.Row, req.Col); err != nil {
		h.writeDomainError(w, err, "select_cell")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// SetCell обрабатывает PUT /api/v1/sessions/{session_id}/cells.
func (h *APIHandler) SetCell(w http.ResponseWriter, r *http.Request, sessionID routes.SessionID) {
	var req cellRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := h.session(w, sessionID)
	if s == nil {
		return
	}
	if err := s.SetCell(req.Row, req.Col, req.Value); err != nil {
		h.writeDomainError(w, err, "set_cell")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// FormatCell обрабатывает POST /api/v1/sessions/{session_id}/format.
func (h *APIHandler) FormatCell(w http.ResponseWriter, r *http.Request, sessionID routes.SessionID) {
	var req formatRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := h.session(w, sessionID)
	if s == nil {
		return
	}
	if err := s.Format(editor.FormatCommand(req.Command), req.Value); err != nil {
		h.writeDomainError(w, err, "format")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// AppendSlide обрабатывает POST /api/v1/sessions/{session_id}/slides.
func (h *APIHandler) AppendSlide(w http.ResponseWriter, _ *http.Request, sessionID routes.SessionID) {
	s := h.session(w, sessionID)
	if s == nil {
		return
	}
	if _, err := s.AppendSlide(); err != nil {
		h.writeDomainError(w, err, "append_slide")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// DeleteSlide обрабатывает DELETE /api/v1/sessions/{session_id}/slides/{index}.
// Удаление единственного слайда ничего не меняет.
func (h *APIHandler) DeleteSlide(w http.ResponseWriter, _ *http.Request, sessionID routes.SessionID, index routes.SlideIndex) {
	s := h.session(w, sessionID)
	if s == nil {
		return
	}
	if _, err := s.DeleteSlide(index); err != nil {
		h.writeDomainError(w, err, "delete_slide")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// SelectSlide обрабатывает POST /api/v1/sessions/{session_id}/slides/{index}/select.
func (h *APIHandler) SelectSlide(w http.ResponseWriter, _ *http.Request, sessionID routes.SessionID, index routes.SlideIndex) {
	s := h.session(w, sessionID)
	if s == nil {
		return
	}
	if err := s.SelectSlide(index); err != nil {
		h.writeDomainError(w, err, "select_slide")
		return
	}
	writeJSON(w, http.StatusOK, s.View())
}

// SeedSheet обрабатывает POST /api/v1/sessions/{session_id}/seed.
func (h *APIHandler) SeedSheet(w http.ResponseWriter, r *http.Request, sessionID routes.SessionID) {
	var req topicRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Topic) == "" {
		apierrors.ValidationError(w, "Поле topic обязательно")
		return
	}
	s := h.session(w, sessionID)
	if s == nil {
		return
	}

	points, written, err := s.Seed(r.Context(), req.Topic)
	if err != nil {
		h.writeDomainError(w, err, "seed")
		return
	}
	writeJSON(w, http.StatusOK, seedResponse{Data: points, RowsWritten: written, Session: s.View()})
}

// AssistSession обрабатывает POST /api/v1/sessions/{session_id}/assist.
// Рабочая копия не меняется, клиент сам решает, применить ли предложение.
func (h *APIHandler) AssistSession(w http.ResponseWriter, r *http.Request, sessionID routes.SessionID) {
	var req instructionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	s := h.session(w, sessionID)
	if s == nil {
		return
	}

	text, err := s.Assist(r.Context(), req.Instruction)
	if err != nil {
		h.writeDomainError(w, err, "assist")
		return
	}
	writeJSON(w, http.StatusOK, textResponse{Text: text})
}
