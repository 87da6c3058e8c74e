// Пакет config — загрузка и валидация конфигурации Compose Suite
// из переменных окружения (опционально дополненных файлом .env).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Версия приложения, задаётся при сборке через -ldflags.
var Version = "dev"

// Config содержит все параметры конфигурации Compose Suite.
type Config struct {
	// --- Сервер ---

	// Порт HTTP-сервера
	Port int
	// Уровень логирования (debug, info, warn, error)
	LogLevel slog.Level
	// Формат логов (json, text)
	LogFormat string
	// Проверять запросы по OpenAPI-контракту
	ValidateRequests bool

	// --- HTTP Server Timeouts ---

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration

	// --- Graceful shutdown ---

	ShutdownTimeout time.Duration

	// --- Редакторы ---

	// Размер сетки таблиц (строки × столбцы)
	GridRows int
	GridCols int
	// Сохранять новый непустой документ при выходе из редактора
	AutosaveOnBack bool
	// Лимит открытых сессий и время простоя до закрытия
	SessionMax     int
	SessionIdleTTL time.Duration
	// Максимальный размер загружаемого изображения в байтах
	MaxImageSize int64

	// --- Кэш экспорта ---

	ExportCacheSize int
	ExportCacheTTL  time.Duration

	// --- Генерация текста ---

	// Ключ Gemini API. Пустой — режим заглушек
	GeminiAPIKey string
	// Модель Gemini
	GeminiModel string

	// --- Dephealth ---

	// URL сервиса генерации для мониторинга доступности
	CompletionHealthURL string
	// Путь health-проверки сервиса генерации
	CompletionHealthPath string
	// Группа в метриках зависимостей
	DephealthGroup string
	// Интервал проверки зависимостей
	DephealthCheckInterval time.Duration
}

// Load загружает конфигурацию из переменных окружения.
// Если задан CS_ENV_FILE, переменные сначала читаются из него;
// иначе читается .env в рабочем каталоге, если он есть.
// Уже заданные переменные окружения файлом не перезаписываются.
func Load() (*Config, error) {
	if err := loadEnvFile(); err != nil {
		return nil, err
	}

	cfg := &Config{}
	var err error

	// --- Сервер ---

	// CS_PORT — порт HTTP-сервера (по умолчанию 8040)
	cfg.Port, err = getEnvInt("CS_PORT", 8040)
	if err != nil {
		return nil, fmt.Errorf("CS_PORT: %w", err)
	}
	if cfg.Port < 1 || cfg.Port > 65535 {
		return nil, fmt.Errorf("CS_PORT: значение %d вне диапазона 1-65535", cfg.Port)
	}

	// CS_LOG_LEVEL — уровень логирования (по умолчанию info)
	cfg.LogLevel, err = parseLogLevel(getEnvDefault("CS_LOG_LEVEL", "info"))
	if err != nil {
		return nil, fmt.Errorf("CS_LOG_LEVEL: %w", err)
	}

	// CS_LOG_FORMAT — формат логов (по умолчанию json)
	cfg.LogFormat = getEnvDefault("CS_LOG_FORMAT", "json")
	if cfg.LogFormat != "json" && cfg.LogFormat != "text" {
		return nil, fmt.Errorf("CS_LOG_FORMAT: недопустимый формат %q, допустимые: json, text", cfg.LogFormat)
	}

	// CS_VALIDATE_REQUESTS — проверка запросов по OpenAPI (по умолчанию true)
	cfg.ValidateRequests, err = getEnvBool("CS_VALIDATE_REQUESTS", true)
	if err != nil {
		return nil, fmt.Errorf("CS_VALIDATE_REQUESTS: %w", err)
	}

	// --- HTTP Server Timeouts ---

	cfg.HTTPReadTimeout, err = getEnvDuration("CS_HTTP_READ_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_HTTP_READ_TIMEOUT: %w", err)
	}
	cfg.HTTPWriteTimeout, err = getEnvDuration("CS_HTTP_WRITE_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_HTTP_WRITE_TIMEOUT: %w", err)
	}
	cfg.HTTPIdleTimeout, err = getEnvDuration("CS_HTTP_IDLE_TIMEOUT", 120*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_HTTP_IDLE_TIMEOUT: %w", err)
	}

	// CS_SHUTDOWN_TIMEOUT — таймаут graceful shutdown (по умолчанию 5s)
	cfg.ShutdownTimeout, err = getEnvDuration("CS_SHUTDOWN_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_SHUTDOWN_TIMEOUT: %w", err)
	}

	// --- Редакторы ---

	// CS_GRID_ROWS, CS_GRID_COLS — размер сетки таблиц (по умолчанию 30 × 10)
	cfg.GridRows, err = getEnvPositiveInt("CS_GRID_ROWS", 30)
	if err != nil {
		return nil, fmt.Errorf("CS_GRID_ROWS: %w", err)
	}
	cfg.GridCols, err = getEnvPositiveInt("CS_GRID_COLS", 10)
	if err != nil {
		return nil, fmt.Errorf("CS_GRID_COLS: %w", err)
	}

	// CS_AUTOSAVE_ON_BACK — автосохранение нового документа при выходе (по умолчанию false)
	cfg.AutosaveOnBack, err = getEnvBool("CS_AUTOSAVE_ON_BACK", false)
	if err != nil {
		return nil, fmt.Errorf("CS_AUTOSAVE_ON_BACK: %w", err)
	}

	cfg.SessionMax, err = getEnvPositiveInt("CS_SESSION_MAX", 1024)
	if err != nil {
		return nil, fmt.Errorf("CS_SESSION_MAX: %w", err)
	}
	cfg.SessionIdleTTL, err = getEnvDuration("CS_SESSION_IDLE_TTL", 30*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CS_SESSION_IDLE_TTL: %w", err)
	}

	// CS_MAX_IMAGE_SIZE — лимит загружаемого изображения (по умолчанию 10 МБ)
	maxImage, err := getEnvPositiveInt("CS_MAX_IMAGE_SIZE", 10<<20)
	if err != nil {
		return nil, fmt.Errorf("CS_MAX_IMAGE_SIZE: %w", err)
	}
	cfg.MaxImageSize = int64(maxImage)

	// --- Кэш экспорта ---

	cfg.ExportCacheSize, err = getEnvPositiveInt("CS_EXPORT_CACHE_SIZE", 256)
	if err != nil {
		return nil, fmt.Errorf("CS_EXPORT_CACHE_SIZE: %w", err)
	}
	cfg.ExportCacheTTL, err = getEnvDuration("CS_EXPORT_CACHE_TTL", 10*time.Minute)
	if err != nil {
		return nil, fmt.Errorf("CS_EXPORT_CACHE_TTL: %w", err)
	}

	// --- Генерация текста ---

	// CS_GEMINI_API_KEY, с откатом на API_KEY
	cfg.GeminiAPIKey = getEnvDefault("CS_GEMINI_API_KEY", os.Getenv("API_KEY"))
	cfg.GeminiModel = getEnvDefault("CS_GEMINI_MODEL", "gemini-2.5-flash")

	// --- Dephealth ---

	cfg.CompletionHealthURL = getEnvDefault("CS_COMPLETION_HEALTH_URL", "https://generativelanguage.googleapis.com")
	cfg.CompletionHealthPath = getEnvDefault("CS_COMPLETION_HEALTH_PATH", "/$discovery/rest?version=v1beta")
	cfg.DephealthGroup = getEnvDefault("CS_DEPHEALTH_GROUP", "compose-suite")
	cfg.DephealthCheckInterval, err = getEnvDuration("CS_DEPHEALTH_CHECK_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, fmt.Errorf("CS_DEPHEALTH_CHECK_INTERVAL: %w", err)
	}

	return cfg, nil
}

// SetupLogger настраивает глобальный slog-логгер на основе конфигурации.
func SetupLogger(cfg *Config) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}

	var handler slog.Handler
	if cfg.LogFormat == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// --- Вспомогательные функции ---

// loadEnvFile читает переменные из CS_ENV_FILE или ./.env.
// Отсутствие ./.env ошибкой не считается; отсутствие явно указанного файла — ошибка.
func loadEnvFile() error {
	if path := os.Getenv("CS_ENV_FILE"); path != "" {
		if err := godotenv.Load(path); err != nil {
			return fmt.Errorf("CS_ENV_FILE: %w", err)
		}
		return nil
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf(".env: %w", err)
	}
	return nil
}

// getEnvDefault возвращает значение переменной окружения или значение по умолчанию.
func getEnvDefault(key, defaultVal string) string {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal
	}
	return val
}

// getEnvInt возвращает целочисленное значение переменной окружения или значение по умолчанию.
func getEnvInt(key string, defaultVal int) (int, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return 0, fmt.Errorf("некорректное целое число: %q", val)
	}
	return n, nil
}

// getEnvPositiveInt — getEnvInt с проверкой > 0.
func getEnvPositiveInt(key string, defaultVal int) (int, error) {
	n, err := getEnvInt(key, defaultVal)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0, получено %d", n)
	}
	return n, nil
}

// getEnvDuration возвращает time.Duration из переменной окружения или значение по умолчанию.
func getEnvDuration(key string, defaultVal time.Duration) (time.Duration, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	d, err := time.ParseDuration(val)
	if err != nil {
		return 0, fmt.Errorf("некорректная длительность: %q (используйте формат Go: 30s, 1h, 15m)", val)
	}
	if d <= 0 {
		return 0, fmt.Errorf("значение должно быть > 0")
	}
	return d, nil
}

// getEnvBool возвращает булево значение переменной окружения или значение по умолчанию.
func getEnvBool(key string, defaultVal bool) (bool, error) {
	val := os.Getenv(key)
	if val == "" {
		return defaultVal, nil
	}
	b, err := strconv.ParseBool(val)
	if err != nil {
		return false, fmt.Errorf("некорректное булево значение: %q (допустимые: true, false, 1, 0)", val)
	}
	return b, nil
}

// parseLogLevel преобразует строку уровня логирования в slog.Level.
func parseLogLevel(level string) (slog.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("недопустимый уровень %q, допустимые: debug, info, warn, error", level)
	}
}
