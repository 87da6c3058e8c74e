// export.go — выгрузка артефактов: по id сохранённого файла и без сохранения.
package handlers

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"strconv"

	apierrors "github.com/DavidsonLima-ui/Compose-Suite/internal/api/errors"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/api/routes"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/cache"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/export"
)

// exportRequest — тело POST /api/v1/export.
type exportRequest struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"`
	Content string `json:"content"`
	Format  string `json:"format"`
}

// download — получатель артефакта, отдающий его клиенту как вложение.
// sent становится true, как только начата запись ответа: после этого
// ошибку уже нельзя вернуть JSON-ом.
type download struct {
	w     http.ResponseWriter
	extra http.Header
	sent  bool
}

func newDownload(w http.ResponseWriter, extra http.Header) *download {
	return &download{w: w, extra: extra}
}

// Save реализует export.Sink.
func (d *download) Save(_ context.Context, a *export.Artifact) error {
	h := d.w.Header()
	for k, v := range d.extra {
		h[k] = v
	}
	h.Set("Content-Type", a.ContentType)
	h.Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": a.Filename}))
	h.Set("Content-Length", strconv.Itoa(len(a.Data)))

	d.sent = true
	d.w.WriteHeader(http.StatusOK)
	_, err := d.w.Write(a.Data)
	return err
}

// parseOptionalFormat разбирает необязательный формат. Пустая строка означает формат по умолчанию.
func parseOptionalFormat(s string) (export.Format, error) {
	if s == "" {
		return "", nil
	}
	return export.ParseFormat(s)
}

// ExportFile обрабатывает GET /api/v1/files/{file_id}/export.
// Готовые артефакты кэшируются по id, времени изменения и формату.
func (h *APIHandler) ExportFile(w http.ResponseWriter, r *http.Request, fileID routes.FileID, params routes.ExportFileParams) {
	rec, err := h.files.Get(fileID.String())
	if err != nil {
		h.writeDomainError(w, err, "export_file")
		return
	}

	var format export.Format
	if params.Format != nil {
		format, err = parseOptionalFormat(*params.Format)
		if err != nil {
			apierrors.UnsupportedFormat(w, err.Error())
			return
		}
	}
	if format == "" {
		format, err = export.DefaultFormat(rec.Kind)
		if err != nil {
			h.writeDomainError(w, err, "export_file")
			return
		}
	}

	sink := newDownload(w, nil)

	var key string
	if h.artifacts != nil {
		key = cache.Key(rec.ID, rec.ModifiedAt, format)
		if artifact, ok := h.artifacts.Get(key); ok {
			h.sendArtifact(r, sink, artifact, rec.ID)
			return
		}
	}

	artifact, err := h.pipeline.Render(rec.Name, rec.Kind, rec.Content, format)
	if err != nil {
		h.writeDomainError(w, err, "export_file")
		return
	}
	if h.artifacts != nil {
		h.artifacts.Set(key, artifact)
	}
	h.sendArtifact(r, sink, artifact, rec.ID)
}

// sendArtifact отдаёт артефакт клиенту. Заголовки к этому моменту уже
// отправлены, поэтому ошибка записи только логируется.
func (h *APIHandler) sendArtifact(r *http.Request, sink *download, artifact *export.Artifact, fileID string) {
	if err := sink.Save(r.Context(), artifact); err != nil {
		h.logger.Warn("Ошибка отправки артефакта",
			slog.String("file_id", fileID),
			slog.String("filename", artifact.Filename),
			slog.String("error", err.Error()),
		)
	}
}

// ExportContent обрабатывает POST /api/v1/export.
// Содержимое передаётся в теле запроса и в реестр не сохраняется.
func (h *APIHandler) ExportContent(w http.ResponseWriter, r *http.Request) {
	var req exportRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	kind, err := model.ParseKind(req.Kind)
	if err != nil {
		apierrors.ValidationError(w, err.Error())
		return
	}
	format, err := parseOptionalFormat(req.Format)
	if err != nil {
		apierrors.UnsupportedFormat(w, err.Error())
		return
	}

	name := req.Name
	if name == "" {
		name = kind.DefaultName()
	}

	sink := newDownload(w, nil)
	if _, err := h.pipeline.Deliver(r.Context(), sink, name, kind, req.Content, format); err != nil {
		if sink.sent {
			h.logger.Warn("Ошибка отправки артефакта", slog.String("error", err.Error()))
			return
		}
		h.writeDomainError(w, err, "export_content")
	}
}
