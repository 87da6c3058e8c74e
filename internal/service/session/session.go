// Пакет session — открытые сессии редакторов Compose Suite.
//
// Session держит рабочую копию содержимого одного файла и проводит её через
// автомат editor.StateMachine: правки → запрос имени → сохранение в реестр
// или выгрузка через конвейер экспорта. Manager открывает сессии (новые или
// из реестра) и хранит их в LRU со сроком жизни.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"sync"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/editor"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/completion"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/export"
)

var (
	// ErrNotEditing — правка вне состояния editing.
	ErrNotEditing = errors.New("правки доступны только в режиме редактирования")
	// ErrWrongKind — операция не поддерживается редактором этого типа.
	ErrWrongKind = errors.New("операция недоступна для данного типа файла")
	// ErrSlideOutOfRange — индекс слайда вне диапазона.
	ErrSlideOutOfRange = errors.New("слайд вне диапазона")
)

// Registry — реестр файлов с точки зрения редактора.
type Registry interface {
	Upsert(existingID, name string, kind model.Kind, content string) (*model.FileRecord, error)
}

// Exporter — конвейер экспорта.
type Exporter interface {
	Deliver(ctx context.Context, sink export.Sink, name string, kind model.Kind, content string, format export.Format) (*export.Artifact, error)
}

// Assistant — внешний сервис генерации текста.
type Assistant interface {
	Enhance(ctx context.Context, text, instruction string) string
	GenerateData(ctx context.Context, topic string) []completion.DataPoint
}

// Session — сессия редактора одного файла.
// Ровно одно из полей doc, sheet, deck заполнено в соответствии с kind.
type Session struct {
	mu sync.Mutex

	id          string
	kind        model.Kind
	fileID      string // пусто до первого сохранения
	name        string
	pendingName string
	target      editor.Target
	sm          *editor.StateMachine

	doc   *model.Document
	sheet *editor.Sheet
	deck  *model.Deck

	registry  Registry
	exporter  Exporter
	assistant Assistant
	logger    *slog.Logger
}

// View — снимок состояния сессии для API.
type View struct {
	ID           string                    `json:"id"`
	Kind         model.Kind                `json:"kind"`
	FileID       string                    `json:"file_id,omitempty"`
	Name         string                    `json:"name"`
	State        editor.State              `json:"state"`
	PendingName  string                    `json:"pending_name,omitempty"`
	Target       editor.Target             `json:"target,omitempty"`
	Content      string                    `json:"content,omitempty"`
	Grid         model.Grid                `json:"grid,omitempty"`
	Selected     *editor.Cell              `json:"selected,omitempty"`
	Slides       []string                  `json:"slides,omitempty"`
	CurrentSlide *int                      `json:"current_slide,omitempty"`
	History      []editor.TransitionRecord `json:"history"`
}

// ConfirmResult — результат подтверждения имени.
type ConfirmResult struct {
	State    editor.State
	File     *model.FileRecord // для persist
	Artifact *export.Artifact  // для export
}

// ID возвращает идентификатор сессии.
func (s *Session) ID() string {
	return s.id
}

// Kind возвращает тип файла сессии.
func (s *Session) Kind() model.Kind {
	return s.kind
}

// State возвращает текущее состояние автомата.
func (s *Session) State() editor.State {
	return s.sm.Current()
}

// View возвращает снимок состояния.
func (s *Session) View() View {
	s.mu.Lock()
	defer s.mu.Unlock()

	v := View{
		ID:      s.id,
		Kind:    s.kind,
		FileID:  s.fileID,
		Name:    s.name,
		State:   s.sm.Current(),
		History: s.sm.History(),
	}
	if v.State == editor.StateNamePrompt {
		v.PendingName = s.pendingName
		v.Target = s.target
	}

	switch s.kind {
	case model.KindDocument:
		v.Content = s.doc.Snapshot()
	case model.KindSpreadsheet:
		v.Grid = s.sheet.Grid()
		v.Selected = s.sheet.Selected()
	case model.KindSlideDeck:
		v.Slides = s.deck.Slides()
		cur := s.deck.Current()
		v.CurrentSlide = &cur
	}
	return v
}

// --- Сохранение ---

// SaveIntent открывает запрос имени, предзаполненный текущим именем.
func (s *Session) SaveIntent(target editor.Target) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sm.TransitionTo(editor.StateNamePrompt, "save-intent:"+string(target)); err != nil {
		return err
	}
	s.target = target
	s.pendingName = s.name
	return nil
}

// Cancel закрывает запрос имени. Содержимое не меняется.
func (s *Session) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.sm.TransitionTo(editor.StateEditing, "cancel"); err != nil {
		return err
	}
	s.pendingName = ""
	return nil
}

// Confirm подтверждает имя и выполняет сохранение по выбранной цели.
//
// persist: рабочая копия сохраняется в реестр, сессия переходит в
// persisted и больше не принимает правок.
// export: артефакт передаётся в sink ровно один раз, сессия возвращается
// в editing.
//
// Пустое имя оставляет предзаполненное. При ошибке сохранения сессия
// остаётся в name_prompt.
func (s *Session) Confirm(ctx context.Context, name string, sink export.Sink, format export.Format) (*ConfirmResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.sm.Current() != editor.StateNamePrompt {
		return nil, &editor.TransitionError{
			Code:    editor.CodeInvalidTransition,
			Message: fmt.Sprintf("confirm: нет открытого запроса имени (состояние %s)", s.sm.Current()),
		}
	}
	if name == "" {
		name = s.pendingName
	}

	content, err := s.serializeLocked()
	if err != nil {
		return nil, err
	}

	switch s.target {
	case editor.TargetPersist:
		rec, err := s.registry.Upsert(s.fileID, name, s.kind, content)
		if err != nil {
			return nil, fmt.Errorf("сохранение в реестр: %w", err)
		}
		if err := s.sm.TransitionTo(editor.StatePersisted, "confirm"); err != nil {
			return nil, err
		}
		s.fileID = rec.ID
		s.name = rec.Name

		s.logger.Info("Файл сохранён",
			slog.String("session_id", s.id),
			slog.String("file_id", rec.ID),
		)
		return &ConfirmResult{State: editor.StatePersisted, File: rec}, nil

	case editor.TargetExport:
		if sink == nil {
			return nil, errors.New("не задан получатель артефакта")
		}
		artifact, err := s.exporter.Deliver(ctx, sink, name, s.kind, content, format)
		if err != nil {
			return nil, fmt.Errorf("экспорт: %w", err)
		}
		if err := s.sm.TransitionTo(editor.StateExported, "confirm"); err != nil {
			return nil, err
		}
		if err := s.sm.TransitionTo(editor.StateEditing, "exported"); err != nil {
			return nil, err
		}
		s.name = name
		s.pendingName = ""
		return &ConfirmResult{State: editor.StateEditing, Artifact: artifact}, nil

	default:
		return nil, fmt.Errorf("неизвестная цель сохранения %q", s.target)
	}
}

// autosave сохраняет новый непустой документ при выходе из редактора.
// Возвращает nil, если сохранять нечего.
func (s *Session) autosave() (*model.FileRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.fileID != "" || s.kind != model.KindDocument || s.doc.IsBlank() {
		return nil, nil
	}
	if s.sm.Current() == editor.StatePersisted {
		return nil, nil
	}

	rec, err := s.registry.Upsert("", s.name, s.kind, s.doc.Snapshot())
	if err != nil {
		return nil, fmt.Errorf("автосохранение: %w", err)
	}
	s.fileID = rec.ID
	return rec, nil
}

// serializeLocked кодирует рабочую копию в формат хранения.
func (s *Session) serializeLocked() (string, error) {
	switch s.kind {
	case model.KindDocument:
		return s.doc.Snapshot(), nil
	case model.KindSpreadsheet:
		return s.sheet.Serialize()
	case model.KindSlideDeck:
		return s.deck.Serialize()
	default:
		return "", fmt.Errorf("%w: %s", ErrWrongKind, s.kind)
	}
}

// --- Правки ---

// editable проверяет, что сессия в editing и тип входит в allowed.
func (s *Session) editable(allowed ...model.Kind) error {
	if st := s.sm.Current(); st != editor.StateEditing {
		return fmt.Errorf("%w (состояние %s)", ErrNotEditing, st)
	}
	for _, k := range allowed {
		if s.kind == k {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrWrongKind, s.kind)
}

// SetContent заменяет разметку документа или текущего слайда
// (снимок при потере фокуса).
func (s *Session) SetContent(markup string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(model.KindDocument, model.KindSlideDeck); err != nil {
		return err
	}
	if s.kind == model.KindDocument {
		s.doc.Replace(markup)
	} else {
		s.deck.SetCurrent(markup)
	}
	return nil
}

// InsertImage встраивает изображение как data URL: в конец документа,
// в конец текущего слайда или фоном выбранной ячейки таблицы.
func (s *Session) InsertImage(mimeType string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(model.KindDocument, model.KindSpreadsheet, model.KindSlideDeck); err != nil {
		return err
	}

	dataURL := model.DataURL(mimeType, data)
	switch s.kind {
	case model.KindDocument:
		s.doc.AppendImage(dataURL)
	case model.KindSlideDeck:
		cur, _ := s.deck.Slide(s.deck.Current())
		s.deck.SetCurrent(cur + model.ImageTag(dataURL))
	case model.KindSpreadsheet:
		return s.sheet.SetBackgroundImage(dataURL)
	}
	return nil
}

// SelectCell выбирает ячейку таблицы.
func (s *Session) SelectCell(row, col int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(model.KindSpreadsheet); err != nil {
		return err
	}
	return s.sheet.Select(row, col)
}

// SetCell записывает значение ячейки.
func (s *Session) SetCell(row, col int, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(model.KindSpreadsheet); err != nil {
		return err
	}
	return s.sheet.SetValue(row, col, value)
}

// Format применяет команду оформления к выбранной ячейке.
func (s *Session) Format(cmd editor.FormatCommand, arg string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(model.KindSpreadsheet); err != nil {
		return err
	}
	return s.sheet.Format(cmd, arg)
}

// AppendSlide добавляет пустой слайд в конец. Возвращает его индекс.
func (s *Session) AppendSlide() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(model.KindSlideDeck); err != nil {
		return 0, err
	}
	return s.deck.Append(), nil
}

// DeleteSlide удаляет слайд. Удаление единственного слайда — no-op.
// Возвращает true, если слайд был удалён.
func (s *Session) DeleteSlide(index int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(model.KindSlideDeck); err != nil {
		return false, err
	}
	if index < 0 || index >= s.deck.Len() {
		return false, fmt.Errorf("%w: %d", ErrSlideOutOfRange, index)
	}
	return s.deck.Delete(index), nil
}

// SelectSlide делает слайд текущим.
func (s *Session) SelectSlide(index int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.editable(model.KindSlideDeck); err != nil {
		return err
	}
	if err := s.deck.Select(index); err != nil {
		return fmt.Errorf("%w: %d", ErrSlideOutOfRange, index)
	}
	return nil
}

// --- Генерация ---

// Seed заполняет таблицу данными по теме из внешнего сервиса.
// Возвращает полученные данные и количество записанных строк.
func (s *Session) Seed(ctx context.Context, topic string) ([]completion.DataPoint, int, error) {
	s.mu.Lock()
	if err := s.editable(model.KindSpreadsheet); err != nil {
		s.mu.Unlock()
		return nil, 0, err
	}
	s.mu.Unlock()

	// Внешний вызов выполняется без блокировки сессии
	points := s.assistant.GenerateData(ctx, topic)

	labels := make([]string, len(points))
	values := make([]string, len(points))
	for i, p := range points {
		labels[i] = p.Label
		values[i] = strconv.FormatFloat(p.Value, 'f', -1, 64)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.editable(model.KindSpreadsheet); err != nil {
		return nil, 0, err
	}
	return points, s.sheet.Fill(labels, values), nil
}

// Assist возвращает предложение внешнего сервиса для документа
// или текущего слайда. Рабочая копия не меняется.
func (s *Session) Assist(ctx context.Context, instruction string) (string, error) {
	s.mu.Lock()
	if err := s.editable(model.KindDocument, model.KindSlideDeck); err != nil {
		s.mu.Unlock()
		return "", err
	}
	var text string
	if s.kind == model.KindDocument {
		text = s.doc.Snapshot()
	} else {
		text, _ = s.deck.Slide(s.deck.Current())
	}
	s.mu.Unlock()

	return s.assistant.Enhance(ctx, text, instruction), nil
}
