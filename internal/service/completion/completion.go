// Пакет completion — клиент внешнего сервиса генерации текста (Gemini).
//
// Контракт деградации:
//   - ключ API не задан → детерминированный ответ-заглушка, не ошибка
//   - ошибка сети или разбора → запись в лог и фиксированное сообщение
//     для пользователя (или пустой список), ошибка наружу не передаётся
package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Фиксированные ответы.
const (
	// SimulatedResponse — ответ при отсутствии ключа API.
	SimulatedResponse = "Simulation: API Key missing. This is a simulated AI response."
	// FailureMessage — ответ при ошибке внешнего сервиса.
	FailureMessage = "Sorry, I couldn't process that request right now."
)

// DefaultModel — модель по умолчанию.
const DefaultModel = "gemini-2.5-flash"

// Исходы запросов для метрик.
const (
	outcomeOK       = "ok"
	outcomeFallback = "fallback"
	outcomeError    = "error"
)

var requestsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Name: "cs_completion_requests_total",
		Help: "Запросы к сервису генерации текста по операции и исходу",
	},
	[]string{"operation", "outcome"},
)

// DataPoint — пара подпись/значение для заполнения таблицы.
type DataPoint struct {
	Label string  `json:"label"`
	Value float64 `json:"value"`
}

// FallbackData — данные-заглушка при отсутствии ключа API.
func FallbackData() []DataPoint {
	return []DataPoint{
		{Label: "Q1", Value: 4000},
		{Label: "Q2", Value: 3000},
		{Label: "Q3", Value: 2000},
		{Label: "Q4", Value: 2780},
	}
}

// Generator — транспорт к модели. structured = true запрашивает JSON-массив
// объектов {label, value}.
type Generator interface {
	Generate(ctx context.Context, prompt string, structured bool) (string, error)
}

// Service — сервис генерации текста с деградацией до заглушек.
type Service struct {
	gen    Generator // nil — ключ API не задан
	logger *slog.Logger
}

// NewService создаёт сервис. gen == nil включает режим заглушек.
func NewService(gen Generator, logger *slog.Logger) *Service {
	return &Service{
		gen:    gen,
		logger: logger.With(slog.String("component", "completion")),
	}
}

// Available возвращает true, если настроен внешний сервис.
func (s *Service) Available() bool {
	return s.gen != nil
}

// Enhance улучшает или дописывает текст по инструкции пользователя.
func (s *Service) Enhance(ctx context.Context, text, instruction string) string {
	if s.gen == nil {
		s.logger.Warn("Ключ API не задан, возвращается ответ-заглушка")
		requestsTotal.WithLabelValues("enhance", outcomeFallback).Inc()
		return SimulatedResponse
	}

	out, err := s.gen.Generate(ctx, enhancePrompt(text, instruction), false)
	if err != nil {
		s.logger.Error("Ошибка генерации текста", slog.String("error", err.Error()))
		requestsTotal.WithLabelValues("enhance", outcomeError).Inc()
		return FailureMessage
	}

	requestsTotal.WithLabelValues("enhance", outcomeOK).Inc()
	return out
}

// GenerateData генерирует набор пар подпись/значение по теме.
func (s *Service) GenerateData(ctx context.Context, topic string) []DataPoint {
	if s.gen == nil {
		requestsTotal.WithLabelValues("data", outcomeFallback).Inc()
		return FallbackData()
	}

	out, err := s.gen.Generate(ctx, dataPrompt(topic), true)
	if err != nil {
		s.logger.Error("Ошибка генерации данных", slog.String("error", err.Error()))
		requestsTotal.WithLabelValues("data", outcomeError).Inc()
		return []DataPoint{}
	}

	points, err := parseDataPoints(out)
	if err != nil {
		s.logger.Error("Некорректный ответ модели", slog.String("error", err.Error()))
		requestsTotal.WithLabelValues("data", outcomeError).Inc()
		return []DataPoint{}
	}

	requestsTotal.WithLabelValues("data", outcomeOK).Inc()
	return points
}

// parseDataPoints разбирает JSON-ответ модели. Пустой ответ — пустой список.
func parseDataPoints(raw string) ([]DataPoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return []DataPoint{}, nil
	}
	var points []DataPoint
	if err := json.Unmarshal([]byte(raw), &points); err != nil {
		return nil, fmt.Errorf("разбор JSON: %w", err)
	}
	if points == nil {
		points = []DataPoint{}
	}
	return points, nil
}

func enhancePrompt(text, instruction string) string {
	return fmt.Sprintf(`You are an intelligent writing assistant in a productivity app called "Compose".

Context text: %q

User Instruction: %q

Return ONLY the enhanced or generated text. Do not add conversational filler.`, text, instruction)
}

func dataPrompt(topic string) string {
	return fmt.Sprintf("Generate spreadsheet data for the topic: %q.", topic)
}
