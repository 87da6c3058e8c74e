// dephealth.go — мониторинг внешнего сервиса генерации текста через topologymetrics.
//
// Compose Suite работает и без сервиса генерации (ответы заменяются
// заглушками), поэтому зависимость некритичная: её отказ переводит
// readiness в degraded, но не в fail.
//
// Метрики доступны на /metrics вместе с остальными:
//   - app_dependency_health — состояние зависимости (1 = ok, 0 = fail)
//   - app_dependency_latency_seconds — задержка проверки
package monitor

import (
	"context"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/BigKAA/topologymetrics/sdk-go/dephealth"
	_ "github.com/BigKAA/topologymetrics/sdk-go/dephealth/checks/httpcheck" // регистрация HTTP checker factory
	"github.com/prometheus/client_golang/prometheus"
)

// CompletionDependency — имя зависимости в метриках.
const CompletionDependency = "completion"

// Статусы readiness.
const (
	StatusOK       = "ok"
	StatusDegraded = "degraded"
)

// DephealthService — мониторинг сервиса генерации текста.
type DephealthService struct {
	dh     *dephealth.DepHealth
	logger *slog.Logger
}

// NewDephealthService создаёт мониторинг. Метрики регистрируются
// в глобальном Prometheus registry.
//
//   - serviceID — имя вершины графа текущего приложения
//   - group — имя группы в метриках (CS_DEPHEALTH_GROUP)
//   - baseURL, healthPath — адрес сервиса генерации и путь проверки
func NewDephealthService(
	serviceID string,
	group string,
	baseURL string,
	healthPath string,
	checkInterval time.Duration,
	logger *slog.Logger,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, baseURL, healthPath, checkInterval, logger)
}

// NewDephealthServiceWithRegisterer создаёт мониторинг с указанным registerer.
// Используется в тестах для изоляции метрик.
func NewDephealthServiceWithRegisterer(
	serviceID string,
	group string,
	baseURL string,
	healthPath string,
	checkInterval time.Duration,
	logger *slog.Logger,
	registerer prometheus.Registerer,
) (*DephealthService, error) {
	return newDephealthService(serviceID, group, baseURL, healthPath, checkInterval,
		logger, dephealth.WithRegisterer(registerer))
}

func newDephealthService(
	serviceID string,
	group string,
	baseURL string,
	healthPath string,
	checkInterval time.Duration,
	logger *slog.Logger,
	extraOpts ...dephealth.Option,
) (*DephealthService, error) {
	depOpts := []dephealth.DependencyOption{
		dephealth.FromURL(baseURL),
		dephealth.CheckInterval(checkInterval),
		dephealth.Critical(false),
	}
	if healthPath != "" {
		depOpts = append(depOpts, dephealth.WithHTTPHealthPath(healthPath))
	}
	if parsed, err := url.Parse(baseURL); err == nil && strings.EqualFold(parsed.Scheme, "https") {
		depOpts = append(depOpts, dephealth.WithHTTPTLSSkipVerify(false))
	}

	opts := make([]dephealth.Option, 0, 2+len(extraOpts))
	opts = append(opts,
		dephealth.WithLogger(logger),
		dephealth.HTTP(CompletionDependency, depOpts...),
	)
	opts = append(opts, extraOpts...)

	dh, err := dephealth.New(serviceID, group, opts...)
	if err != nil {
		return nil, err
	}

	return &DephealthService{
		dh:     dh,
		logger: logger.With(slog.String("component", "dephealth")),
	}, nil
}

// Start запускает периодическую проверку.
func (ds *DephealthService) Start(ctx context.Context) error {
	ds.logger.Info("Мониторинг сервиса генерации запущен")
	return ds.dh.Start(ctx)
}

// Stop останавливает проверку.
func (ds *DephealthService) Stop() {
	ds.dh.Stop()
	ds.logger.Info("Мониторинг сервиса генерации остановлен")
}

// Health возвращает состояние зависимостей: имя → true, если ok.
func (ds *DephealthService) Health() map[string]bool {
	return ds.dh.Health()
}

// CompletionChecker — проверка готовности сервиса генерации для /health/ready.
type CompletionChecker struct {
	// configured — задан ли ключ доступа
	configured bool
	// health — источник состояния; nil, если мониторинг не запущен
	health func() map[string]bool
}

// NewCompletionChecker создаёт проверку. ds может быть nil.
func NewCompletionChecker(configured bool, ds *DephealthService) *CompletionChecker {
	c := &CompletionChecker{configured: configured}
	if ds != nil {
		c.health = ds.Health
	}
	return c
}

// CheckReady возвращает статус и сообщение.
// Сервис без ключа работает на заглушках, это штатный режим.
func (c *CompletionChecker) CheckReady() (status, message string) {
	if !c.configured {
		return StatusOK, "ключ не задан, используются заглушки"
	}
	if c.health == nil {
		return StatusOK, "мониторинг не запущен"
	}
	ok, checked := dependencyHealth(c.health(), CompletionDependency)
	switch {
	case !checked:
		return StatusOK, "проверка ещё не выполнялась"
	case !ok:
		return StatusDegraded, "сервис генерации недоступен, используются заглушки"
	default:
		return StatusOK, ""
	}
}

// dependencyHealth ищет состояние зависимости по имени.
// Health() из topologymetrics SDK возвращает ключи формата "dependency:host:port",
// поэтому сравнивается префикс имя + ":". Если ключей несколько, зависимость
// здорова только когда здоровы все. found = false, пока проверок не было.
func dependencyHealth(health map[string]bool, name string) (healthy, found bool) {
	healthy = true
	for key, ok := range health {
		if key != name && !strings.HasPrefix(key, name+":") {
			continue
		}
		found = true
		if !ok {
			healthy = false
		}
	}
	return healthy && found, found
}
