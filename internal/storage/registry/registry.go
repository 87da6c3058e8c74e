// Пакет registry — потокобезопасный in-memory реестр файлов Compose Suite.
//
// Реестр владеет каноническим содержимым сохранённых файлов и обновляется
// синхронно при сохранении из редактора (Upsert) и удалении (Remove).
// Список отдаётся в порядке последних сохранений (новые первые).
//
// Не персистентный: при рестарте процесса реестр пуст.
package registry

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/model"
)

var (
	// ErrNotFound — запись с указанным id отсутствует.
	ErrNotFound = errors.New("файл не найден")
	// ErrKindMismatch — попытка сохранить запись с другим типом.
	ErrKindMismatch = errors.New("тип файла не совпадает с сохранённым")
	// ErrUnsupportedKind — тип не сохраняется через редактор.
	ErrUnsupportedKind = errors.New("тип файла не поддерживается")
)

// entry — запись реестра и порядковый номер последнего сохранения.
type entry struct {
	record model.FileRecord
	seq    uint64
}

// Registry — потокобезопасный in-memory реестр файлов.
// Все записи хранятся копиями: вызывающий код не получает ссылок
// на внутреннее состояние.
type Registry struct {
	mu     sync.RWMutex
	files  map[string]*entry // id → запись
	seq    uint64            // счётчик сохранений, задаёт порядок списка
	now    func() time.Time
	newID  func() string
	logger *slog.Logger
}

// Option — опция конструктора реестра.
type Option func(*Registry)

// WithClock задаёт источник времени (для тестов).
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithIDGenerator задаёт генератор идентификаторов (для тестов).
func WithIDGenerator(gen func() string) Option {
	return func(r *Registry) { r.newID = gen }
}

// New создаёт пустой реестр.
func New(logger *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		files:  make(map[string]*entry),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  uuid.NewString,
		logger: logger.With(slog.String("component", "registry")),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Upsert сохраняет файл.
//
// Если existingID указывает на существующую запись, у неё заменяются имя,
// содержимое и время изменения; id сохраняется. Иначе создаётся новая
// запись со свежим id. В обоих случаях запись становится первой в списке.
//
// Ошибки:
//   - ErrUnsupportedKind — тип без редактора (folder) или неизвестный
//   - ErrKindMismatch — existingID указывает на запись другого типа
func (r *Registry) Upsert(existingID, name string, kind model.Kind, content string) (*model.FileRecord, error) {
	if !kind.Editable() {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
	if name == "" {
		name = kind.DefaultName()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.seq++

	if e, ok := r.files[existingID]; ok && existingID != "" {
		if e.record.Kind != kind {
			r.seq--
			return nil, fmt.Errorf("%w: %s сохранён как %s", ErrKindMismatch, existingID, e.record.Kind)
		}
		e.record.Name = name
		e.record.Content = content
		e.record.ModifiedAt = r.now()
		e.seq = r.seq

		r.logger.Debug("Файл обновлён",
			slog.String("file_id", existingID),
			slog.String("kind", string(kind)),
		)

		copied := e.record
		return &copied, nil
	}

	rec := model.FileRecord{
		ID:         r.newID(),
		Name:       name,
		Kind:       kind,
		ModifiedAt: r.now(),
		Shared:     false,
		ColorTag:   kind.ColorTag(),
		Content:    content,
	}
	r.files[rec.ID] = &entry{record: rec, seq: r.seq}

	r.logger.Debug("Файл создан",
		slog.String("file_id", rec.ID),
		slog.String("kind", string(kind)),
	)

	return &rec, nil
}

// Remove удаляет запись по id. Отсутствие записи ошибкой не считается.
// Возвращает true, если запись была найдена и удалена.
func (r *Registry) Remove(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.files[id]; !ok {
		return false
	}
	delete(r.files, id)
	return true
}

// Get возвращает копию записи по id.
func (r *Registry) Get(id string) (*model.FileRecord, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.files[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	copied := e.record
	return &copied, nil
}

// List возвращает все записи, последние сохранённые первыми.
func (r *Registry) List() []*model.FileRecord {
	items, _ := r.Page(0, 0, "")
	return items
}

// Page возвращает страницу списка с опциональной фильтрацией по типу.
// Параметры:
//   - limit: максимальное количество элементов (0 = все)
//   - offset: смещение от начала списка
//   - kindFilter: фильтр по типу ("" = без фильтра)
//
// Возвращает срез записей и общее количество с учётом фильтра.
func (r *Registry) Page(limit, offset int, kindFilter model.Kind) ([]*model.FileRecord, int) {
	r.mu.RLock()
	filtered := make([]*entry, 0, len(r.files))
	for _, e := range r.files {
		if kindFilter != "" && e.record.Kind != kindFilter {
			continue
		}
		copied := *e
		filtered = append(filtered, &copied)
	}
	r.mu.RUnlock()

	sort.Slice(filtered, func(i, j int) bool {
		return filtered[i].seq > filtered[j].seq
	})

	total := len(filtered)
	if offset >= total {
		return nil, total
	}

	end := total
	if limit > 0 && offset+limit < total {
		end = offset + limit
	}

	result := make([]*model.FileRecord, 0, end-offset)
	for _, e := range filtered[offset:end] {
		rec := e.record
		result = append(result, &rec)
	}
	return result, total
}

// Count возвращает общее количество записей.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.files)
}

// CountByKind возвращает количество записей по каждому типу.
func (r *Registry) CountByKind() map[model.Kind]int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	counts := make(map[model.Kind]int, len(model.Kinds))
	for _, k := range model.Kinds {
		counts[k] = 0
	}
	for _, e := range r.files {
		counts[e.record.Kind]++
	}
	return counts
}
