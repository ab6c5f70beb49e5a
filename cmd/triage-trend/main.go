package main

import (
	"context"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	httpapi "github.com/i474232898/triage-trend/internal/api/http"
	"github.com/i474232898/triage-trend/internal/calendar"
	"github.com/i474232898/triage-trend/internal/config"
	"github.com/i474232898/triage-trend/internal/features"
	"github.com/i474232898/triage-trend/internal/logging"
	"github.com/i474232898/triage-trend/internal/metrics"
	"github.com/i474232898/triage-trend/internal/model"
	"github.com/i474232898/triage-trend/internal/predict"
	"github.com/i474232898/triage-trend/internal/scheduler"
	"github.com/i474232898/triage-trend/internal/store"
	"github.com/i474232898/triage-trend/internal/weather"
	"github.com/i474232898/triage-trend/internal/weather/providers"
)

const serviceName = "triage-trend"

func main() {
	// Load configuration.
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	sugar, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer sugar.Sync() //nolint:errcheck

	cal, err := calendar.Load(cfg.CalendarPath)
	if err != nil {
		sugar.Fatalw("failed to load calendar", "path", cfg.CalendarPath, "error", err)
	}
	registry, err := features.NewRegistry(cal.VacationRegions(), cal.HolidayRegions())
	if err != nil {
		sugar.Fatalw("failed to build feature registry", "error", err)
	}

	pipeline, err := model.Load(cfg.ModelPath)
	if err != nil {
		sugar.Fatalw("failed to load model", "path", cfg.ModelPath, "error", err)
	}
	if err := features.CheckSchema(pipeline.FeatureNames, features.Vector{Names: registry.Names()}); err != nil {
		// Requests will fail with a schema mismatch until the model is retrained.
		sugar.Errorw("model does not match the configured calendar", "error", err)
	}
	sugar.Infow("model loaded",
		"run_id", pipeline.RunID,
		"trained_at", pipeline.TrainedAt,
		"features", len(pipeline.FeatureNames),
		"r2", pipeline.Metrics.R2,
	)

	m := metrics.New()
	m.ModelInfo.WithLabelValues(pipeline.RunID).Set(pipeline.Metrics.R2)

	// Shared HTTP client for outbound forecast calls.
	httpClient := &http.Client{
		Timeout: cfg.ForecastTimeout,
	}

	// Last-known daily weather, the first forecast fallback.
	memStore := store.NewMemoryStore(cfg.StoreMaxDays, cfg.StoreMaxAge)

	// Providers are single-attempt behind a circuit breaker.
	provs := []weather.Provider{
		providers.NewOpenMeteoProvider(httpClient, cfg.ForecastURL),
	}
	if cfg.OpenWeatherAPIKey != "" {
		provs = append(provs, providers.NewOpenWeatherProvider(httpClient, cfg.OpenWeatherAPIKey))
	}
	if cfg.WeatherAPIKey != "" {
		provs = append(provs, providers.NewWeatherAPIProvider(httpClient, cfg.WeatherAPIKey))
	}
	weatherSvc := weather.NewService(memStore, provs, weather.ServiceConfig{
		Locations:      cfg.Locations,
		Timeout:        cfg.ForecastTimeout,
		Climatology:    weather.DefaultClimatology(),
		UseClimatology: cfg.UseClimatology,
		OnFallback:     m.Fallback,
	}, sugar.Named("weather"))

	// Keeps the fallback cache warm for the rolling window and the forecast horizon.
	sched := scheduler.New(weatherSvc, cfg.FetchInterval, features.RollingWindow, cfg.ForecastDays, 2*cfg.ForecastTimeout, sugar.Named("scheduler"))
	sched.OnRun(m.Refreshed)
	if err := sched.Start(); err != nil {
		sugar.Fatalw("failed to start scheduler", "error", err)
	}
	defer sched.Stop()

	predictor, err := predict.NewService(registry, cal, weatherSvc, pipeline, m, sugar.Named("predict"))
	if err != nil {
		sugar.Fatalw("failed to build prediction service", "error", err)
	}

	app := fiber.New(fiber.Config{
		AppName:               serviceName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler:          httpapi.ErrorHandler,
	})

	// Global middleware
	app.Use(logger.New())
	app.Use(recover.New())

	httpapi.RegisterRoutes(app, predictor, m, httpapi.Info{Service: serviceName, ModelID: pipeline.RunID})

	go func() {
		sugar.Infow("listening", "port", cfg.Port)
		if err := app.Listen(":" + cfg.Port); err != nil {
			sugar.Errorw("fiber server stopped", "error", err)
		}
	}()

	// Wait for termination signal
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		sugar.Errorw("error during shutdown", "error", err)
	}
}
