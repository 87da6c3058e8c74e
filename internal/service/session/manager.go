package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/editor"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/export"
)

var (
	// ErrUnsupportedKind — у типа файла нет редактора.
	ErrUnsupportedKind = errors.New("This file type is not supported yet.") //nolint:staticcheck // текст показывается пользователю как есть
	// ErrSessionNotFound — сессия не открыта или вытеснена по простою.
	ErrSessionNotFound = errors.New("сессия редактора не найдена")
)

// FileStore — реестр файлов: сохранение и чтение.
type FileStore interface {
	Registry
	Get(id string) (*model.FileRecord, error)
}

// Config — параметры менеджера сессий.
type Config struct {
	// Rows, Cols — размер сетки таблиц
	Rows int
	Cols int
	// AutosaveOnBack — сохранять новый непустой документ при выходе
	// из редактора без явного сохранения
	AutosaveOnBack bool
	// MaxSessions — максимальное количество открытых сессий
	MaxSessions int
	// IdleTTL — время простоя, после которого сессия закрывается
	IdleTTL time.Duration
}

// Manager — открытие и учёт сессий редакторов.
type Manager struct {
	cfg       Config
	files     FileStore
	exporter  Exporter
	assistant Assistant
	store     *Store
	logger    *slog.Logger
}

// NewManager создаёт менеджер сессий.
func NewManager(cfg Config, files FileStore, exporter Exporter, assistant Assistant, logger *slog.Logger) *Manager {
	logger = logger.With(slog.String("component", "sessions"))
	return &Manager{
		cfg:       cfg,
		files:     files,
		exporter:  exporter,
		assistant: assistant,
		store:     NewStore(cfg.MaxSessions, cfg.IdleTTL, logger),
		logger:    logger,
	}
}

// New открывает редактор нового файла указанного типа.
func (m *Manager) New(kind model.Kind) (*Session, error) {
	s, err := m.newSession(kind, "", kind.DefaultName())
	if err != nil {
		return nil, err
	}

	switch kind {
	case model.KindDocument:
		s.doc = model.NewDocument("")
	case model.KindSpreadsheet:
		s.sheet = editor.NewSheet(model.NewGrid(m.cfg.Rows, m.cfg.Cols))
	case model.KindSlideDeck:
		s.deck = model.NewDeck()
	}

	m.store.Put(s)
	return s, nil
}

// Open открывает сохранённый файл в редакторе его типа.
// Некорректное содержимое таблицы или презентации заменяется пустым
// документом нужной формы; ошибка при этом не возвращается.
func (m *Manager) Open(fileID string) (*Session, error) {
	rec, err := m.files.Get(fileID)
	if err != nil {
		return nil, err
	}

	s, err := m.newSession(rec.Kind, rec.ID, rec.Name)
	if err != nil {
		return nil, err
	}

	switch rec.Kind {
	case model.KindDocument:
		s.doc = model.NewDocument(rec.Content)

	case model.KindSpreadsheet:
		grid, perr := model.ParseGrid(rec.Content, m.cfg.Rows, m.cfg.Cols)
		if perr != nil {
			m.logger.Warn("Некорректное содержимое таблицы, открывается пустая сетка",
				slog.String("file_id", rec.ID),
				slog.String("error", perr.Error()),
			)
			grid = model.NewGrid(m.cfg.Rows, m.cfg.Cols)
		}
		s.sheet = editor.NewSheet(grid)

	case model.KindSlideDeck:
		deck, perr := model.ParseDeck(rec.Content)
		if perr != nil {
			m.logger.Warn("Некорректное содержимое презентации, открывается пустой слайд",
				slog.String("file_id", rec.ID),
				slog.String("error", perr.Error()),
			)
			deck = model.NewDeck()
		}
		s.deck = deck
	}

	m.store.Put(s)
	return s, nil
}

// newSession создаёт каркас сессии. Типы без редактора отклоняются.
func (m *Manager) newSession(kind model.Kind, fileID, name string) (*Session, error) {
	if !kind.Editable() {
		return nil, ErrUnsupportedKind
	}
	return &Session{
		id:        uuid.NewString(),
		kind:      kind,
		fileID:    fileID,
		name:      name,
		sm:        editor.NewStateMachine(),
		registry:  m.files,
		exporter:  m.exporter,
		assistant: m.assistant,
		logger:    m.logger,
	}, nil
}

// Get возвращает открытую сессию.
func (m *Manager) Get(id string) (*Session, error) {
	s, ok := m.store.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

// Confirm подтверждает сохранение. Сессия, сохранённая в реестр,
// закрывается (выход из редактора).
func (m *Manager) Confirm(ctx context.Context, id, name string, sink export.Sink, format export.Format) (*ConfirmResult, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}
	res, err := s.Confirm(ctx, name, sink, format)
	if err != nil {
		return nil, err
	}
	if res.State == editor.StatePersisted {
		m.store.Remove(id)
	}
	return res, nil
}

// Back закрывает редактор без явного сохранения. При включённом
// AutosaveOnBack новый непустой документ сохраняется в реестр;
// возвращается сохранённая запись или nil.
func (m *Manager) Back(id string) (*model.FileRecord, error) {
	s, err := m.Get(id)
	if err != nil {
		return nil, err
	}

	var saved *model.FileRecord
	if m.cfg.AutosaveOnBack {
		saved, err = s.autosave()
		if err != nil {
			return nil, err
		}
		if saved != nil {
			m.logger.Info("Документ автоматически сохранён при выходе",
				slog.String("session_id", id),
				slog.String("file_id", saved.ID),
			)
		}
	}

	m.store.Remove(id)
	return saved, nil
}

// Close закрывает сессию без сохранения.
func (m *Manager) Close(id string) bool {
	return m.store.Remove(id)
}

// OpenCount возвращает количество открытых сессий.
func (m *Manager) OpenCount() int {
	return m.store.Len()
}
