package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/spf13/cobra"

	"github.com/DavidsonLima-ui/Compose-Suite/api"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/api/handlers"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/api/middleware"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/config"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/server"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/cache"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/completion"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/export"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/monitor"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/service/session"
	"github.com/DavidsonLima-ui/Compose-Suite/internal/storage/registry"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Запустить HTTP-сервис",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, _ []string) error {
	// 1. Загрузка конфигурации из переменных окружения
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("загрузка конфигурации: %w", err)
	}

	// 2. Настройка логгера
	logger := config.SetupLogger(cfg)
	logger.Info("Compose Suite запускается",
		slog.String("version", config.Version),
		slog.Int("port", cfg.Port),
	)

	ctx, cancel := context.WithCancel(cmd.Context())
	defer cancel()

	// 3. Реестр файлов и конвейер экспорта
	files := registry.New(logger)
	pipeline := export.NewPipeline(cfg.GridRows, cfg.GridCols, logger)
	artifacts := cache.NewArtifactCache(cfg.ExportCacheSize, cfg.ExportCacheTTL)

	// 4. Сервис генерации текста (без ключа — заглушки)
	var gen completion.Generator
	if cfg.GeminiAPIKey != "" {
		g, genErr := completion.NewGeminiGenerator(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if genErr != nil {
			logger.Warn("Клиент Gemini недоступен, используются заглушки",
				slog.String("error", genErr.Error()),
			)
		} else {
			gen = g
		}
	}
	assistant := completion.NewService(gen, logger)

	// 5. Сессии редакторов
	sessions := session.NewManager(session.Config{
		Rows:           cfg.GridRows,
		Cols:           cfg.GridCols,
		AutosaveOnBack: cfg.AutosaveOnBack,
		MaxSessions:    cfg.SessionMax,
		IdleTTL:        cfg.SessionIdleTTL,
	}, files, pipeline, assistant, logger)

	// 6. topologymetrics — мониторинг сервиса генерации
	var dephealthSvc *monitor.DephealthService
	if assistant.Available() {
		svc, dhErr := monitor.NewDephealthService(
			"compose-suite",
			cfg.DephealthGroup,
			cfg.CompletionHealthURL,
			cfg.CompletionHealthPath,
			cfg.DephealthCheckInterval,
			logger,
		)
		if dhErr != nil {
			logger.Warn("topologymetrics недоступен, запуск без мониторинга зависимостей",
				slog.String("error", dhErr.Error()),
			)
		} else if startErr := svc.Start(ctx); startErr != nil {
			logger.Warn("Ошибка запуска topologymetrics",
				slog.String("error", startErr.Error()),
			)
		} else {
			dephealthSvc = svc
			defer dephealthSvc.Stop()
		}
	}

	// 7. Обработчики API
	healthHandler := handlers.NewHealthHandler(
		handlers.NewRegistryChecker(files),
		monitor.NewCompletionChecker(assistant.Available(), dephealthSvc),
	)
	apiHandler := handlers.NewAPIHandler(healthHandler, files, pipeline, artifacts, sessions, assistant,
		api.Spec, cfg.MaxImageSize, logger)

	// 8. Middleware: метрики, логирование, проверка контракта
	middlewares := []func(http.Handler) http.Handler{
		middleware.MetricsMiddleware(),
		middleware.RequestLogger(logger),
	}
	if cfg.ValidateRequests {
		validator, vErr := middleware.NewRequestValidator(api.Spec, logger)
		if vErr != nil {
			return fmt.Errorf("OpenAPI-контракт: %w", vErr)
		}
		middlewares = append(middlewares, validator.Middleware())
	}

	// 9. HTTP-сервер (блокирующий вызов с graceful shutdown)
	srv := server.New(cfg, logger, apiHandler, middlewares...)
	if err := srv.Run(ctx); err != nil {
		logger.Error("Ошибка сервера", slog.String("error", err.Error()))
		return err
	}

	logger.Info("Compose Suite остановлен")
	return nil
}
