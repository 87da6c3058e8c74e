// handler.go — основной обработчик API, реализующий routes.ServerInterface.
// Объединяет health, реестр файлов, экспорт, сессии редакторов и генерацию.
package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	apierrors "github.com/DavidsonLima-ui/Compose-Suite/internal/api/errors"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/api/routes"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/domain/editor"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/cache"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/completion"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/export"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/session"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/storage/registry"
)

// maxJSONBody — ограничение размера JSON-тела запроса.
// Содержимое файлов со встроенными изображениями может быть большим.
const maxJSONBody = 64 << 20

// APIHandler — основной обработчик API Compose Suite.
// Реализует routes.ServerInterface, делегируя запросы в сервисный слой.
type APIHandler struct {
	health       *HealthHandler
	files        *registry.Registry
	pipeline     *export.Pipeline
	artifacts    *cache.ArtifactCache
	sessions     *session.Manager
	assistant    *completion.Service
	spec         []byte
	maxImageSize int64
	logger       *slog.Logger
}

var _ routes.ServerInterface = (*APIHandler)(nil)

// NewAPIHandler создаёт основной обработчик API.
// artifacts может быть nil, тогда экспорт по id выполняется без кэша.
func NewAPIHandler(
	health *HealthHandler,
	files *registry.Registry,
	pipeline *export.Pipeline,
	artifacts *cache.ArtifactCache,
	sessions *session.Manager,
	assistant *completion.Service,
	spec []byte,
	maxImageSize int64,
	logger *slog.Logger,
) *APIHandler {
	h := &APIHandler{
		health:       health,
		files:        files,
		pipeline:     pipeline,
		artifacts:    artifacts,
		sessions:     sessions,
		assistant:    assistant,
		spec:         spec,
		maxImageSize: maxImageSize,
		logger:       logger.With(slog.String("component", "api_handler")),
	}
	h.refreshFileMetrics()
	return h
}

// --- Health endpoints (делегируются в HealthHandler) ---

// HealthLive — liveness probe.
func (h *APIHandler) HealthLive(w http.ResponseWriter, r *http.Request) {
	h.health.HealthLive(w, r)
}

// HealthReady — readiness probe.
func (h *APIHandler) HealthReady(w http.ResponseWriter, r *http.Request) {
	h.health.HealthReady(w, r)
}

// GetMetrics — Prometheus метрики.
func (h *APIHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.health.GetMetrics(w, r)
}

// GetOpenAPISpec отдаёт встроенный OpenAPI-контракт.
func (h *APIHandler) GetOpenAPISpec(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/yaml")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(h.spec)
}

// --- Вспомогательные функции ---

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst. При ошибке пишет 400 и возвращает false.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			apierrors.PayloadTooLarge(w, fmt.Sprintf("Тело запроса больше %d байт", tooLarge.Limit))
			return false
		}
		apierrors.ValidationError(w, fmt.Sprintf("Некорректный JSON: %s", err.Error()))
		return false
	}
	return true
}

// paginationDefaults нормализует параметры пагинации.
// Возвращает корректные limit и offset.
func paginationDefaults(limit, offset *int) (limitVal, offsetVal int) {
	l := 100
	o := 0

	if limit != nil {
		l = *limit
		if l < 1 {
			l = 1
		}
		if l > 1000 {
			l = 1000
		}
	}

	if offset != nil {
		o = *offset
		if o < 0 {
			o = 0
		}
	}

	return l, o
}

// writeDomainError преобразует ошибку сервисного слоя в HTTP-ответ.
// Неизвестные ошибки логируются и возвращаются как 500.
func (h *APIHandler) writeDomainError(w http.ResponseWriter, err error, op string) {
	var transErr *editor.TransitionError
	switch {
	case errors.As(err, &transErr):
		apierrors.Conflict(w, transErr.Code, transErr.Message)

	case errors.Is(err, session.ErrSessionNotFound):
		apierrors.NotFound(w, "Сессия редактора не найдена")
	case errors.Is(err, registry.ErrNotFound):
		apierrors.NotFound(w, "Файл не найден")

	case errors.Is(err, session.ErrUnsupportedKind):
		apierrors.UnsupportedKind(w, session.ErrUnsupportedKind.Error())
	case errors.Is(err, registry.ErrUnsupportedKind):
		apierrors.UnsupportedKind(w, err.Error())
	case errors.Is(err, export.ErrUnsupportedFormat):
		apierrors.UnsupportedFormat(w, err.Error())

	case errors.Is(err, registry.ErrKindMismatch):
		apierrors.Conflict(w, apierrors.CodeKindMismatch, err.Error())
	case errors.Is(err, session.ErrNotEditing):
		apierrors.Conflict(w, apierrors.CodeNotEditing, err.Error())
	case errors.Is(err, session.ErrWrongKind):
		apierrors.Conflict(w, apierrors.CodeWrongKind, err.Error())

	case errors.Is(err, session.ErrSlideOutOfRange),
		errors.Is(err, editor.ErrOutOfRange),
		errors.Is(err, editor.ErrNoSelection),
		errors.Is(err, editor.ErrUnknownCommand):
		apierrors.ValidationError(w, err.Error())

	default:
		h.logger.Error("Ошибка выполнения операции",
			slog.String("operation", op),
			slog.String("error", err.Error()),
		)
		apierrors.InternalError(w, "Внутренняя ошибка сервера")
	}
}
