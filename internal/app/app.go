package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vadim/igdm-console/internal/config"
	httpcontroller "github.com/vadim/igdm-console/internal/controller/http"
	"github.com/vadim/igdm-console/internal/database"
	accountservice "github.com/vadim/igdm-console/internal/domain/account/service"
	automationservice "github.com/vadim/igdm-console/internal/domain/automation/service"
	directservice "github.com/vadim/igdm-console/internal/domain/direct/service"
	"github.com/vadim/igdm-console/internal/domain/session"
	"github.com/vadim/igdm-console/internal/httpx/response"
	"github.com/vadim/igdm-console/internal/httpx/upstream/backend"
	"github.com/vadim/igdm-console/internal/observability"
	"github.com/vadim/igdm-console/internal/storage"
	"github.com/vadim/igdm-console/internal/storage/tokenstore"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	// Infrastructure
	pool     *pgxpool.Pool
	tokens   tokenstore.Store
	exporter *storage.S3Storage
	metrics  *observability.Metrics

	// Domain
	backend *backend.Client
	session *session.Session
	console *httpcontroller.Console
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	return newApp(ctx, cfg, logger)
}

func newApp(ctx context.Context, cfg config.Config, logger *slog.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	app := &App{
		cfg:     cfg,
		logger:  logger,
		metrics: observability.NewMetrics(),
	}

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(app.metrics.Middleware)
	r.Use(middleware.Timeout(30 * time.Second))
	app.router = r

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	if err := app.initDomains(); err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("initializing domains: %w", err)
	}

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return app, nil
}

// initInfrastructure opens the token store and the optional export bucket
func (a *App) initInfrastructure(ctx context.Context) error {
	switch a.cfg.Session.Driver {
	case tokenstore.DriverPostgres:
		pool, err := database.NewPostgresPool(ctx, a.cfg.Database.Pool())
		if err != nil {
			return fmt.Errorf("connecting to postgres: %w", err)
		}
		a.pool = pool

		store := tokenstore.NewPostgres(pool, a.cfg.Session.Key)
		if err := store.EnsureSchema(ctx); err != nil {
			pool.Close()
			return err
		}
		a.tokens = store
	case tokenstore.DriverMemory:
		a.tokens = tokenstore.NewMemory()
	default:
		a.tokens = tokenstore.NewFile(a.cfg.Session.Path, a.cfg.Session.Key)
	}
	a.logger.Info("token store ready", "driver", a.cfg.Session.Driver)

	if a.cfg.Export.Enabled {
		exporter, err := storage.NewS3Storage(storage.S3Config{
			Endpoint:        a.cfg.Export.Endpoint,
			AccessKeyID:     a.cfg.Export.AccessKeyID,
			SecretAccessKey: a.cfg.Export.SecretAccessKey,
			Bucket:          a.cfg.Export.Bucket,
			Region:          a.cfg.Export.Region,
			PublicURL:       a.cfg.Export.PublicURL,
		})
		if err != nil {
			a.closeInfrastructure()
			return fmt.Errorf("creating s3 storage: %w", err)
		}
		a.exporter = exporter
	}

	return nil
}

// initDomains wires the backend client, session, services and pages
func (a *App) initDomains() error {
	a.backend = backend.New(
		backend.WithBaseURL(a.cfg.Backend.BaseURL),
		backend.WithHTTPClient(&http.Client{Timeout: a.cfg.Backend.Timeout}),
		backend.WithTokenSource(a.tokens),
		backend.WithObserver(a.metrics),
	)

	a.session = session.New(a.tokens, a.backend, a.logger)

	views, err := httpcontroller.NewRenderer()
	if err != nil {
		return fmt.Errorf("parsing templates: %w", err)
	}
	presenter := httpcontroller.NewPresenter(views, httpcontroller.NewNotices(), a.session, a.logger)

	// A nil *S3Storage must not become a non-nil Exporter
	var exporter automationservice.Exporter
	if a.exporter != nil {
		exporter = a.exporter
	}

	accounts := accountservice.New(a.backend, a.logger)
	inbox := directservice.New(a.backend, a.logger)
	rules := automationservice.New(a.backend, exporter, a.logger)

	a.console = &httpcontroller.Console{
		Session:    a.session,
		Auth:       httpcontroller.NewAuthHandler(presenter, a.session, a.backend),
		Accounts:   httpcontroller.NewAccountHandler(presenter, accounts),
		Direct:     httpcontroller.NewDirectHandler(presenter, inbox),
		Automation: httpcontroller.NewAutomationHandler(presenter, rules, accounts),
	}

	return nil
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)
	a.router.Handle("/metrics", a.metrics.Handler())

	a.router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		response.NotFound(w, "page not found")
	})
	a.router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		response.MethodNotAllowed(w, "method not allowed")
	})

	a.console.RegisterRoutes(a.router)
}

// Handler returns the root HTTP handler
func (a *App) Handler() http.Handler {
	return a.router
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	response.OK(w, map[string]string{"status": "ok"})
}

// readyHandler reports ready once the stored session was restored and the
// token database, if any, answers
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	if a.session.Loading() {
		response.ServiceUnavailable(w, "session is still loading")
		return
	}
	if a.pool != nil {
		if err := a.pool.Ping(r.Context()); err != nil {
			response.ServiceUnavailable(w, "database unavailable")
			return
		}
	}
	response.OK(w, map[string]string{
		"status":  "ready",
		"session": string(a.session.State()),
	})
}

// Init restores a stored login. It runs before the listener starts.
func (a *App) Init(ctx context.Context) {
	if err := a.session.Init(ctx); err != nil {
		a.logger.Error("failed to restore session", "error", err)
	}
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	a.Init(ctx)

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address(), "backend", a.backend.BaseURL())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		a.closeInfrastructure()
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	a.closeInfrastructure()

	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure() {
	if a.pool != nil {
		a.pool.Close()
		a.pool = nil
	}
}
