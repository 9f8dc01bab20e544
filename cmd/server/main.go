package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/bobby-s-dev/weather-plus/internal/accessory"
	"github.com/bobby-s-dev/weather-plus/internal/api"
	"github.com/bobby-s-dev/weather-plus/internal/config"
	"github.com/bobby-s-dev/weather-plus/internal/history"
	"github.com/bobby-s-dev/weather-plus/internal/scheduler"
	"github.com/bobby-s-dev/weather-plus/internal/services"
	"github.com/bobby-s-dev/weather-plus/pkg/client"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	configPath := flag.String("config", os.Getenv("WEATHER_CONFIG"), "path to a YAML or JSON config file")
	flag.Parse()

	// Initialize logger
	logger, _ := zap.NewProduction()
	zap.ReplaceGlobals(logger)

	// Load configuration
	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		logger.Fatal("Failed to load configuration", zap.Error(err))
	}

	logger = newLogger(cfg.Server.LogLevel, logger)
	defer logger.Sync()
	zap.ReplaceGlobals(logger)
	logger.Info("Starting Weather Plus service")

	// Provider selection is the only fatal configuration error
	provider, err := services.NewProvider(cfg.Weather.Service, services.ProviderOptions{
		Key:      cfg.Weather.Key,
		Location: cfg.Weather.Location,
		Language: cfg.Weather.Language,
		Client: client.ClientConfig{
			Timeout:        cfg.HTTP.Timeout,
			MaxRetries:     cfg.Retry.MaxRetries,
			RetryDelay:     cfg.Retry.Delay,
			Multiplier:     cfg.Retry.Multiplier,
			Threshold:      cfg.CircuitBreaker.Threshold,
			BreakerTimeout: cfg.CircuitBreaker.Timeout,
		},
	}, logger)
	if err != nil {
		logger.Fatal("Failed to initialize weather provider", zap.Error(err))
	}

	store, err := openHistory(cfg, logger)
	if err != nil {
		logger.Fatal("Failed to open history log", zap.Error(err))
	}
	defer store.Close()

	writer := accessory.NewWriter(accessory.DefaultCustomCharacteristics())
	registry, err := accessory.NewRegistry(cfg.Weather.Forecast, provider, accessory.RegistryOptions{
		Location: cfg.Weather.Location,
		Writer:   writer,
		History:  store,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("Failed to create accessories", zap.Error(err))
	}

	updater := services.NewUpdater(provider, registry, writer, logger)
	updateScheduler := scheduler.NewScheduler(updater, cfg.UpdateInterval(), logger)
	historyScheduler := scheduler.NewHistoryScheduler(
		services.NewHistorySampler(registry, writer, logger),
		scheduler.HistoryPeriod,
		scheduler.FirstSampleDelay,
		logger,
	)

	// Create Fiber app
	app := fiber.New(fiber.Config{
		ReadTimeout:           cfg.Server.ReadTimeout,
		WriteTimeout:          cfg.Server.WriteTimeout,
		ErrorHandler:          api.ErrorHandler,
		DisableStartupMessage: true,
	})

	handler := api.NewHandler(api.Dependencies{
		Registry:         registry,
		Updater:          updater,
		History:          store,
		Scheduler:        updateScheduler,
		HistoryScheduler: historyScheduler,
	}, logger)
	api.SetupRoutes(app, handler)

	updateScheduler.Start()
	historyScheduler.Start()

	// Start server in goroutine
	go func() {
		addr := ":" + cfg.Server.Port
		logger.Info("Starting server", zap.String("address", addr))

		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	updateScheduler.Stop()
	historyScheduler.Stop()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error("Server shutdown failed", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func newLogger(level string, fallback *zap.Logger) *zap.Logger {
	atomicLevel, err := zap.ParseAtomicLevel(level)
	if err != nil {
		fallback.Warn("Invalid log level, using info", zap.String("level", level))
		return fallback
	}

	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = atomicLevel
	logger, err := zapConfig.Build()
	if err != nil {
		return fallback
	}
	return logger
}

func openHistory(cfg *config.Config, logger *zap.Logger) (history.Store, error) {
	if cfg.History.Path == "" {
		logger.Info("History path not set, keeping history in memory")
		return history.NewMemoryLog(cfg.History.MaxEntries, cfg.History.MaxAge), nil
	}
	return history.OpenFileLog(cfg.History.Path, cfg.History.MaxEntries, cfg.History.MaxAge, logger)
}
