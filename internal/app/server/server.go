package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"workforce/internal/domain/assignment"
	"workforce/internal/domain/audit"
	"workforce/internal/domain/core"
	"workforce/internal/domain/employee"
	"workforce/internal/domain/project"
	"workforce/internal/domain/reports"
	"workforce/internal/platform/config"
	cryptoutil "workforce/internal/platform/crypto"
	"workforce/internal/platform/db"
	"workforce/internal/platform/jobs"
	"workforce/internal/platform/metrics"
	audithandler "workforce/internal/transport/http/handlers/audit"
	employeehandler "workforce/internal/transport/http/handlers/employees"
	projecthandler "workforce/internal/transport/http/handlers/projects"
	"workforce/internal/transport/http/middleware"
)

// App is the assembled service: store, domain services and the HTTP router.
type App struct {
	Config  config.Config
	Logger  *zap.Logger
	Store   core.StoreAPI
	Metrics *metrics.Collector
	Jobs    *jobs.Service
	Router  http.Handler

	pool *pgxpool.Pool
}

// New wires the application for cfg. With the postgres driver it connects and, unless disabled,
// applies pending migrations before returning.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	app := &App{Config: cfg, Logger: logger, Jobs: jobs.New(logger.Named("jobs"), 64)}
	if cfg.MetricsEnabled {
		app.Metrics = metrics.New()
	}

	var recorder interface {
		audit.Recorder
		audit.Lister
	}
	switch cfg.StoreDriver {
	case config.DriverMemory:
		logger.Warn("using in-memory store; data is lost on exit")
		app.Store = core.NewMemStore()
		recorder = audit.NewMemory()
	default:
		crypto, err := cryptoutil.New(cfg.DataEncryptionKey)
		if err != nil {
			return nil, fmt.Errorf("encryption key: %w", err)
		}
		pool, err := db.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("db connect: %w", err)
		}
		app.pool = pool
		if cfg.RunMigrations {
			if err := migrate(ctx, pool, logger); err != nil {
				pool.Close()
				return nil, err
			}
		}
		app.Store = core.NewStore(pool, crypto)
		recorder = audit.New(pool)
	}

	employees := employee.NewService(app.Store, recorder, app.Metrics, logger.Named("employee"))
	projects := project.NewService(app.Store, recorder, app.Metrics, logger.Named("project"))
	assignments := assignment.NewService(app.Store, recorder, app.Metrics, logger.Named("assignment"))
	rosters := reports.NewService(projects, assignments, cfg.ReportsDir, logger.Named("reports"))

	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.SecureHeaders(cfg.Environment == config.Production))
	router.Use(middleware.Auth(cfg.JWTSecret))
	router.Use(middleware.Logger(logger.Named("http"), app.Metrics))
	router.Use(chimw.Recoverer)
	router.Use(middleware.BodyLimit(cfg.MaxBodyBytes))

	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	router.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := app.Store.Ping(ctx); err != nil {
			http.Error(w, "store not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ready"))
	})
	if app.Metrics != nil {
		router.Method(http.MethodGet, "/metrics", app.Metrics.Handler())
	}

	router.Route("/api/v1", func(r chi.Router) {
		employeehandler.NewHandler(employees, assignments).RegisterRoutes(r)
		projecthandler.NewHandler(projects, assignments, rosters, app.Jobs, logger.Named("http")).RegisterRoutes(r)
		audithandler.NewHandler(recorder, logger.Named("http")).RegisterRoutes(r)
	})

	app.Router = router
	return app, nil
}

func migrate(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	migrator, err := db.NewMigrator(pool, logger)
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	defer migrator.Close()
	if err := migrator.Up(ctx); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

// Pool exposes the database pool for CLI subcommands; nil with the memory driver.
func (a *App) Pool() *pgxpool.Pool {
	return a.pool
}

func (a *App) Close() {
	if a.pool != nil {
		a.pool.Close()
	}
}

// Serve runs the HTTP server until ctx is cancelled, then drains in-flight requests.
func (a *App) Serve(ctx context.Context) error {
	srv := &http.Server{
		Addr:              a.Config.Addr,
		Handler:           a.Router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	jobCtx, stopJobs := context.WithCancel(context.Background())
	a.Jobs.Start(jobCtx)
	defer func() {
		stopJobs()
		a.Jobs.Wait()
	}()

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info("workforce server listening", zap.String("addr", a.Config.Addr), zap.String("driver", a.Config.StoreDriver))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	a.Logger.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
