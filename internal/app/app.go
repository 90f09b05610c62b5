package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"covidcli/internal/config"
	"covidcli/internal/dataprocessing"
	"covidcli/internal/infrastructure"
	customMiddleware "covidcli/internal/middleware"
	"covidcli/internal/services"
	handlers "covidcli/internal/transport/http"
	"covidcli/pkg/contracts/domain"
)

const (
	VERSION = "v1.0.0"
	AppName = "COVID Pulse - Global COVID-19 Tracker"
)

// Application represents the main application container. The dataset is
// loaded once during construction; if no usable data can be ingested the
// constructor fails and the process never starts serving.
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	DataService   *services.DataService
	HealthService *services.HealthService
}

// NewApplication creates a new application instance with dependency injection
func NewApplication() (*Application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", VERSION))

	otelProviders, err := infrastructure.InitializeOTel(infrastructure.DefaultOTelConfig(), logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(); err != nil {
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices loads the dataset and builds the service layer.
func (a *Application) initializeServices() error {
	ctx := context.Background()

	dataset, err := a.loadDataset(ctx)
	if err != nil {
		return err
	}

	dataService, err := services.NewDataService(dataset, a.Logger, a.OTelProviders)
	if err != nil {
		return fmt.Errorf("failed to initialize data service: %w", err)
	}
	a.DataService = dataService

	a.HealthService = services.NewHealthService(VERSION, dataset.Stats, a.Logger)

	return nil
}

// loadDataset runs the ingestion pipeline once. ErrNoUsableData propagates
// as a fatal startup error: serving queries without a dataset is worse than
// refusing to start.
func (a *Application) loadDataset(ctx context.Context) (*domain.Dataset, error) {
	loader := dataprocessing.NewLoader(a.Logger)

	var (
		rows    []domain.RawSnapshot
		skipped int
		err     error
	)
	if a.Config.Data.File != "" {
		rows, skipped, err = loader.LoadFile(ctx, a.Config.Data.File)
	} else {
		rows, skipped, err = loader.LoadDir(ctx, a.Config.Data.Dir)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot ingestion failed: %w", err)
	}
	if skipped > 0 {
		a.Logger.WarnContext(ctx, "malformed rows skipped during ingestion",
			slog.Int("skipped", skipped))
	}

	pipeline, err := dataprocessing.NewPipeline(a.Logger, a.OTelProviders.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize pipeline: %w", err)
	}

	dataset, err := pipeline.BuildDataset(ctx, rows)
	if err != nil {
		return nil, err
	}

	return dataset, nil
}

// setupRouter configures the HTTP router with all routes
func (a *Application) setupRouter() {
	r := chi.NewRouter()

	// Middleware ordering: RequestID, RealIP, Compress, Logger, Recoverer,
	// SecurityHeaders, CORS, RateLimit.
	r.Use(customMiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Compress(5))
	r.Use(customMiddleware.StructuredLogger(a.Logger))
	r.Use(customMiddleware.Recoverer(a.Logger))
	r.Use(customMiddleware.SecurityHeaders)

	if a.Config.Security.EnableCORS {
		r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
			AllowedOrigins: a.Config.Security.AllowedOrigins,
		}))
	}

	if a.Config.Security.RateLimit.Enabled {
		r.Use(customMiddleware.NewRateLimiter(
			a.Config.Security.RateLimit.RPS,
			a.Config.Security.RateLimit.Burst,
			a.Logger,
		).Handler)
	}

	dataHandler := handlers.NewDataHandler(a.DataService, a.Logger)
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	metricsHandler := handlers.NewMetricsHandler(a.OTelProviders.PrometheusHTTP)

	r.Route("/api", func(r chi.Router) {
		dataHandler.RegisterRoutes(r)
		healthHandler.RegisterRoutes(r)
	})
	r.Get("/metrics", metricsHandler.Metrics)

	a.Router = r
}

// createServer creates the HTTP server
func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.Config.Server.Port),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run starts the HTTP server and blocks until shutdown completes.
func (a *Application) Run() error {
	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("HTTP server listening",
			slog.Int("port", a.Config.Server.Port))
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info("Shutdown signal received", slog.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), a.Config.Server.ShutdownTimeout)
	defer cancel()

	if err := a.Server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := a.OTelProviders.Shutdown(ctx); err != nil {
		a.Logger.Warn("OpenTelemetry shutdown failed", slog.String("error", err.Error()))
	}

	a.Logger.Info("Application stopped")
	return nil
}
