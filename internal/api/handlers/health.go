// health.go — обработчики health endpoints Compose Suite.
// /health/live — liveness probe (процесс жив)
// /health/ready — readiness probe (реестр файлов и сервис генерации)
// /metrics — Prometheus метрики
package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/DavidsonLima-ui/Compose-Suite/internal/config"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/storage/registry"
)

// serviceName — имя сервиса в ответах health.
const serviceName = "compose-suite"

// ReadinessChecker — интерфейс проверки готовности зависимости.
type ReadinessChecker interface {
	// CheckReady возвращает статус ("ok", "degraded", "fail") и сообщение.
	CheckReady() (status, message string)
}

// HealthHandler — обработчик health endpoints.
type HealthHandler struct {
	registryChecker   ReadinessChecker
	completionChecker ReadinessChecker
	promHandler       http.Handler
}

// NewHealthHandler создаёт обработчик health endpoints.
// Любой checker может быть nil: реестр без checker считается fail,
// а сервис генерации считается ok, он необязателен.
func NewHealthHandler(registryChecker, completionChecker ReadinessChecker) *HealthHandler {
	return &HealthHandler{
		registryChecker:   registryChecker,
		completionChecker: completionChecker,
		promHandler:       promhttp.Handler(),
	}
}

// healthCheckResult — результат проверки одной зависимости.
type healthCheckResult struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// healthLiveResponse — ответ liveness probe.
type healthLiveResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
}

// healthReadyResponse — ответ readiness probe.
type healthReadyResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
	Service   string `json:"service"`
	Checks    struct {
		Registry   healthCheckResult `json:"registry"`
		Completion healthCheckResult `json:"completion"`
	} `json:"checks"`
}

// HealthLive — liveness probe. Возвращает 200 если процесс жив.
func (h *HealthHandler) HealthLive(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthLiveResponse{
		Status:    statusOK,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	})
}

// HealthReady — readiness probe.
// Возвращает 200 (ok/degraded) или 503 (fail).
func (h *HealthHandler) HealthReady(w http.ResponseWriter, _ *http.Request) {
	resp := healthReadyResponse{
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Version:   config.Version,
		Service:   serviceName,
	}

	if h.registryChecker != nil {
		st, msg := h.registryChecker.CheckReady()
		resp.Checks.Registry = healthCheckResult{Status: st, Message: msg}
	} else {
		resp.Checks.Registry = healthCheckResult{Status: statusFail, Message: "не инициализирован"}
	}

	if h.completionChecker != nil {
		st, msg := h.completionChecker.CheckReady()
		resp.Checks.Completion = healthCheckResult{Status: st, Message: msg}
	} else {
		resp.Checks.Completion = healthCheckResult{Status: statusOK, Message: "не настроен"}
	}

	resp.Status = overallStatus(resp.Checks.Registry.Status, resp.Checks.Completion.Status)

	status := http.StatusOK
	if resp.Status == statusFail {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, resp)
}

// GetMetrics — Prometheus метрики.
func (h *HealthHandler) GetMetrics(w http.ResponseWriter, r *http.Request) {
	h.promHandler.ServeHTTP(w, r)
}

// Константы статусов health check.
const (
	statusOK       = "ok"
	statusDegraded = "degraded"
	statusFail     = "fail"
)

// overallStatus определяет итоговый статус из статусов зависимостей.
// Если хотя бы одна зависимость fail — итог fail.
// Если хотя бы одна degraded — итог degraded.
// Иначе — ok.
func overallStatus(statuses ...string) string {
	hasDegraded := false
	for _, s := range statuses {
		if s == statusFail {
			return statusFail
		}
		if s == statusDegraded {
			hasDegraded = true
		}
	}
	if hasDegraded {
		return statusDegraded
	}
	return statusOK
}

// RegistryChecker — проверка готовности реестра файлов.
type RegistryChecker struct {
	files *registry.Registry
}

// NewRegistryChecker создаёт проверку реестра.
func NewRegistryChecker(files *registry.Registry) *RegistryChecker {
	return &RegistryChecker{files: files}
}

// CheckReady — реестр в памяти готов, как только создан.
func (c *RegistryChecker) CheckReady() (status, message string) {
	if c.files == nil {
		return statusFail, "не инициализирован"
	}
	return statusOK, fmt.Sprintf("файлов: %d", c.files.Count())
}
