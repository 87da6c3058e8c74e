// logging.go — журнал запросов к API Compose Suite через slog.
// Помимо статуса и длительности в запись попадают шаблон маршрута,
// идентификаторы файла и сессии редактора, номер слайда и состояние
// сессии после ответа, чтобы действия пользователя можно было
// проследить по одной сессии.
package middleware

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
)

// headerSessionState дублирует handlers.HeaderSessionState, чтобы не
// создавать зависимость middleware от обработчиков.
const headerSessionState = "X-Session-State"

// routeParams — параметры пути, которые попадают в журнал.
var routeParams = []string{"file_id", "session_id", "index"}

// responseWriter — обёртка для перехвата статус-кода и размера ответа.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Unwrap позволяет http.ResponseController получить доступ к оригинальному ResponseWriter.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}

// RequestLogger возвращает middleware, логирующий каждый HTTP-запрос.
// Уровень зависит от статус-кода: INFO (1xx-3xx), WARN (4xx), ERROR (5xx).
// Health-пробы и /metrics логируются на DEBUG.
func RequestLogger(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			wrapped := newResponseWriter(w)

			next.ServeHTTP(wrapped, r)

			level := slog.LevelInfo
			switch {
			case wrapped.statusCode >= 500:
				level = slog.LevelError
			case wrapped.statusCode >= 400:
				level = slog.LevelWarn
			case isProbe(r.URL.Path):
				level = slog.LevelDebug
			}

			attrs := []slog.Attr{
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.Int("status", wrapped.statusCode),
				slog.Duration("duration", time.Since(start)),
				slog.Int64("bytes", wrapped.written),
				slog.String("remote_addr", r.RemoteAddr),
			}
			attrs = append(attrs, requestAttrs(r, wrapped.Header())...)

			logger.LogAttrs(r.Context(), level, "HTTP запрос", attrs...)
		})
	}
}

// requestAttrs собирает атрибуты маршрута. Вызывается после обработки:
// параметры пути chi заполняет во время маршрутизации.
func requestAttrs(r *http.Request, respHeader http.Header) []slog.Attr {
	var attrs []slog.Attr

	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if pattern := rctx.RoutePattern(); pattern != "" {
			attrs = append(attrs, slog.String("route", pattern))
		}
		for _, name := range routeParams {
			if v := rctx.URLParam(name); v != "" {
				attrs = append(attrs, slog.String(name, v))
			}
		}
	}
	if state := respHeader.Get(headerSessionState); state != "" {
		attrs = append(attrs, slog.String("session_state", state))
	}

	return attrs
}

func isProbe(path string) bool {
	return path == "/health/live" || path == "/health/ready" || path == "/metrics"
}
