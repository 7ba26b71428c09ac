package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"golang.org/x/sync/errgroup"

	"vahanpulse/internal/config"
	"vahanpulse/internal/dataprocessing"
	apierrors "vahanpulse/internal/errors"
	"vahanpulse/internal/exporter"
	"vahanpulse/internal/infrastructure"
	customMiddleware "vahanpulse/internal/middleware"
	"vahanpulse/internal/pipeline"
	"vahanpulse/internal/services"
	"vahanpulse/internal/sources"
	handlers "vahanpulse/internal/transport/http"
	ws "vahanpulse/internal/websocket"
)

const AppName = "VahanPulse"

// Build metadata, set with -ldflags "-X vahanpulse/internal/app.Version=...".
var (
	Version   = "dev"
	Commit    = ""
	BuildTime = ""
)

// Application represents the main application container
type Application struct {
	Config        *config.Config
	Router        *chi.Mux
	Server        *http.Server
	Logger        *slog.Logger
	OTelProviders *infrastructure.OTelProviders
	WebSocketHub  *ws.Hub
	Runner        *pipeline.Runner
	Dataset       *services.DatasetService
	HealthService *services.HealthService

	httpMetrics *infrastructure.HTTPMetrics
}

// NewApplication wires every component for cfg. The returned application
// owns its telemetry providers; Run shuts them down.
func NewApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Application, error) {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}

	logger.Info("Application starting",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("source", cfg.Source.Kind))

	if err := cfg.Paths.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("failed to ensure directories: %w", err)
	}

	otelProviders, err := infrastructure.InitializeOTel(cfg.Telemetry, Version, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize OpenTelemetry: %w", err)
	}

	app := &Application{
		Config:        cfg,
		Logger:        logger,
		OTelProviders: otelProviders,
	}

	if err := app.initializeServices(ctx); err != nil {
		_ = otelProviders.Shutdown(context.Background())
		return nil, fmt.Errorf("failed to initialize services: %w", err)
	}

	app.setupRouter()
	app.createServer()

	return app, nil
}

// initializeServices initializes all application services
func (a *Application) initializeServices(ctx context.Context) error {
	meter := a.OTelProviders.Meter

	hubMetrics, err := ws.NewHubMetrics(meter)
	if err != nil {
		return fmt.Errorf("websocket metrics: %w", err)
	}
	a.WebSocketHub = ws.NewHub(a.Logger, ws.WithHubMetrics(hubMetrics))

	pipelineMetrics, err := infrastructure.NewPipelineMetrics(meter)
	if err != nil {
		return fmt.Errorf("pipeline metrics: %w", err)
	}

	a.httpMetrics, err = infrastructure.NewHTTPMetrics(meter)
	if err != nil {
		return fmt.Errorf("http metrics: %w", err)
	}

	runner, store, err := NewPipeline(ctx, a.Config, a.Logger,
		pipeline.WithEventSink(a.WebSocketHub),
		pipeline.WithTracer(a.OTelProviders.Tracer),
		pipeline.WithMetrics(pipelineMetrics),
	)
	if err != nil {
		return err
	}
	a.Runner = runner

	a.Dataset = services.NewDatasetService(runner,
		services.WithCleanedFile(store, a.Config.Paths.CleanedPath),
		services.WithDatasetLogger(a.Logger),
	)
	a.HealthService = services.NewHealthService(Version, Commit, BuildTime, a.Dataset, a.WebSocketHub, a.Logger)

	a.Logger.Info("Services initialized",
		slog.String("cleaned_path", a.Config.Paths.CleanedPath),
		slog.Bool("save_raw", a.Config.Paths.SaveRaw))
	return nil
}

// NewPipeline builds the configured source, normalizer and exporter into a
// runner that persists to the cleaned path. The exporter is returned so
// callers can read the cleaned file back.
func NewPipeline(ctx context.Context, cfg *config.Config, logger *slog.Logger, opts ...pipeline.Option) (*pipeline.Runner, *exporter.Exporter, error) {
	loader, err := sources.NewLoaderFromConfig(ctx, cfg, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create source: %w", err)
	}

	exp := exporter.New(logger)
	normalizer := dataprocessing.NewNormalizer(
		dataprocessing.WithRules(cfg.Schema.Rules),
		dataprocessing.WithCollisionPolicy(cfg.CollisionPolicy()),
		dataprocessing.WithLogger(logger),
	)

	opts = append([]pipeline.Option{
		pipeline.WithPersister(exp, cfg.Paths.CleanedPath),
		pipeline.WithLogger(logger),
	}, opts...)
	return pipeline.NewRunner(loader, normalizer, opts...), exp, nil
}

// setupRouter configures the HTTP router
func (a *Application) setupRouter() {
	r := chi.NewRouter()
	errorHandler := apierrors.NewErrorHandler(a.Logger, a.Config.Logging.Development)

	r.Use(customMiddleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(errorHandler.RecoveryMiddleware)

	r.NotFound(errorHandler.NotFound)
	r.MethodNotAllowed(errorHandler.MethodNotAllowed)

	// The upgrader needs the raw ResponseWriter, so /ws sits outside the
	// wrapping middleware below.
	wsHandler := ws.NewHandler(a.WebSocketHub, ws.HandlerConfig{
		ReadBufferSize:  a.Config.WebSocket.ReadBufferSize,
		WriteBufferSize: a.Config.WebSocket.WriteBufferSize,
		AllowedOrigins:  a.Config.Server.AllowedOrigins,
		Timing: ws.Timing{
			PingPeriod: a.Config.WebSocket.PingPeriod,
			PongWait:   a.Config.WebSocket.PongWait,
		},
	}, a.Logger)
	r.Get("/ws", wsHandler.ServeHTTP)

	r.Group(func(r chi.Router) {
		r.Use(customMiddleware.Telemetry(a.OTelProviders.Tracer, a.httpMetrics))
		r.Use(customMiddleware.StructuredLogger(a.Logger))
		r.Use(customMiddleware.SecurityHeaders)

		if a.Config.Server.EnableCORS {
			r.Use(customMiddleware.CORS(customMiddleware.CORSConfig{
				AllowedOrigins: a.Config.Server.AllowedOrigins,
			}))
		}

		if a.Config.RateLimit.Enabled {
			r.Use(customMiddleware.NewRateLimiter(
				a.Config.RateLimit.RPS,
				a.Config.RateLimit.Burst,
				a.Logger,
			).Handler)
		}

		if a.OTelProviders.PrometheusHTTP != nil {
			r.Handle("/metrics", a.OTelProviders.PrometheusHTTP)
		}

		a.setupAPIRoutes(r, errorHandler)
	})

	a.Router = r
}

func (a *Application) setupAPIRoutes(r chi.Router, errorHandler *apierrors.ErrorHandler) {
	healthHandler := handlers.NewHealthHandler(a.HealthService, a.Logger)
	dashboardHandler := handlers.NewDashboardHandler(a.Dataset, a.Logger, errorHandler)

	r.Route("/api", func(r chi.Router) {
		r.Use(render.SetContentType(render.ContentTypeJSON))
		r.Use(customMiddleware.Timeout(a.Config.Server.RequestTimeout, a.Logger))

		r.Get("/health", healthHandler.HealthCheck)
		r.Get("/health/ready", healthHandler.ReadinessCheck)
		r.Get("/health/live", healthHandler.LivenessCheck)
		r.Get("/version", healthHandler.Version)

		r.Mount("/dashboard", dashboardHandler.Routes())

		r.Route("/dataset", func(r chi.Router) {
			r.Get("/status", dashboardHandler.GetDatasetStatus)
			r.Post("/reload", dashboardHandler.ReloadDataset)
		})
	})
}

func (a *Application) createServer() {
	a.Server = &http.Server{
		Addr:         a.Config.Server.Addr(),
		Handler:      a.Router,
		ReadTimeout:  a.Config.Server.ReadTimeout,
		WriteTimeout: a.Config.Server.WriteTimeout,
		IdleTimeout:  a.Config.Server.IdleTimeout,
	}
}

// Run serves until ctx is cancelled or the server fails, then shuts down
// gracefully. The dataset is warmed in the background so the first
// dashboard request does not pay for the pipeline.
func (a *Application) Run(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Starting application",
		slog.String("name", AppName),
		slog.String("version", Version),
		slog.String("address", a.Server.Addr),
		slog.String("level", a.Config.Logging.Level))

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return a.WebSocketHub.Run(gctx)
	})

	g.Go(func() error {
		if err := a.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		return a.Stop(context.WithoutCancel(ctx))
	})

	go a.warmDataset(gctx)

	err := g.Wait()
	if err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func (a *Application) warmDataset(ctx context.Context) {
	ds, err := a.Dataset.Dataset(ctx)
	if err != nil {
		if ctx.Err() == nil {
			a.Logger.WarnContext(ctx, "Dataset warm-up failed",
				slog.String("error", err.Error()))
		}
		return
	}
	a.Logger.InfoContext(ctx, "Dataset ready",
		slog.String("origin", ds.Origin),
		slog.Int("records", len(ds.Records)),
		slog.Bool("fell_back", ds.FellBack))
}

// Stop gracefully stops the HTTP server and flushes telemetry.
func (a *Application) Stop(ctx context.Context) error {
	a.Logger.InfoContext(ctx, "Shutting down application")

	shutdownCtx, cancel := context.WithTimeout(ctx, a.shutdownTimeout())
	defer cancel()

	var errs []error
	if err := a.Server.Shutdown(shutdownCtx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown error: %w", err))
	}

	if a.OTelProviders != nil {
		if err := a.OTelProviders.Shutdown(shutdownCtx); err != nil {
			a.Logger.ErrorContext(ctx, "Error shutting down OpenTelemetry",
				slog.String("error", err.Error()))
		}
	}

	a.Logger.InfoContext(ctx, "Application shutdown complete")
	return errors.Join(errs...)
}

func (a *Application) shutdownTimeout() time.Duration {
	if a.Config.Server.ShutdownTimeout > 0 {
		return a.Config.Server.ShutdownTimeout
	}
	return 15 * time.Second
}
