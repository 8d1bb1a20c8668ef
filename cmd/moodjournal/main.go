package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/moodjournal/moodjournal/internal/app"
	"github.com/moodjournal/moodjournal/internal/export"
	"github.com/moodjournal/moodjournal/internal/journal"
	journalhttp "github.com/moodjournal/moodjournal/internal/journal/http"
	"github.com/moodjournal/moodjournal/internal/observability"
	"github.com/moodjournal/moodjournal/internal/view"
	"github.com/moodjournal/moodjournal/internal/weather"
	"github.com/moodjournal/moodjournal/report"
)

func main() {
	if app.InTestMode() {
		slog.Default().Info("test mode detected, skipping runtime startup")
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		slog.Default().Error("load config", slog.Any("error", err))
		os.Exit(1)
	}

	logger := app.NewLogger(cfg)
	slog.SetDefault(logger)

	backend, closeStorage, err := app.OpenStorage(ctx, cfg, logger)
	if err != nil {
		logger.Error("open storage", slog.String("backend", cfg.StorageBackend), slog.Any("error", err))
		os.Exit(1)
	}
	defer closeStorage()

	store, err := journal.NewStore(ctx, backend)
	if err != nil {
		logger.Error("load journal", slog.Any("error", err))
		os.Exit(1)
	}

	metrics := observability.NewMetrics()

	var fetcher journal.WeatherFetcher
	if cfg.WeatherAPIKey != "" {
		fetcher = weather.NewClient(cfg.WeatherBaseURL, cfg.WeatherAPIKey, cfg.WeatherTimeout)
	} else {
		logger.Warn("OPENWEATHERMAP_API_KEY not set, entries are saved without weather")
	}

	service := journal.NewService(store, fetcher, journal.ServiceConfig{
		Fallback:       cfg.FallbackLocationConfig(),
		WeatherTimeout: cfg.WeatherTimeout,
	}, logger, metrics)

	templates, err := view.NewEngine()
	if err != nil {
		logger.Error("parse templates", slog.Any("error", err))
		os.Exit(1)
	}

	gotenberg := report.NewClient(cfg.GotenbergURL)
	pingCtx, cancelPing := context.WithTimeout(ctx, 3*time.Second)
	if err := gotenberg.Ping(pingCtx); err != nil {
		logger.Warn("gotenberg unreachable, visual exports will fail", slog.Any("error", err))
	}
	cancelPing()

	journalHandler, err := journalhttp.NewHandler(journalhttp.Options{
		Logger:    logger,
		Service:   service,
		Themes:    journal.NewThemeStore(backend),
		Templates: templates,
		Visual:    export.NewVisualExporter(gotenberg, 0),
		Metrics:   metrics,
	})
	if err != nil {
		logger.Error("build journal handler", slog.Any("error", err))
		os.Exit(1)
	}

	router := app.NewRouter(app.RouterParams{
		Logger:         logger,
		Config:         cfg,
		JournalHandler: journalHandler,
		ReportHandler:  report.NewHandler(gotenberg, logger),
		Metrics:        metrics,
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	go func() {
		logger.Info("starting http server",
			slog.String("addr", cfg.AppAddr),
			slog.String("storage", cfg.StorageBackend),
			slog.Int("entries", store.Len()))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("http server", slog.Any("error", err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown", slog.Any("error", err))
	}
}
