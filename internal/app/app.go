// Package app provides application initialization and lifecycle management.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"github.com/bissquit/mediconnect-console/internal/auth"
	"github.com/bissquit/mediconnect-console/internal/backend"
	"github.com/bissquit/mediconnect-console/internal/config"
	"github.com/bissquit/mediconnect-console/internal/console"
	"github.com/bissquit/mediconnect-console/internal/forms"
	"github.com/bissquit/mediconnect-console/internal/navigation"
	"github.com/bissquit/mediconnect-console/internal/pkg/ctxlog"
	"github.com/bissquit/mediconnect-console/internal/pkg/httputil"
	"github.com/bissquit/mediconnect-console/internal/session"
	"github.com/bissquit/mediconnect-console/internal/version"
	"github.com/bissquit/mediconnect-console/internal/wizard"
)

// App represents the application instance.
type App struct {
	config        *config.Config
	logger        *slog.Logger
	sessions      *session.Manager
	redis         *redis.Client
	server        *http.Server
	metricsServer *http.Server
	workersCancel context.CancelFunc
	workers       sync.WaitGroup
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	logger := initLogger(cfg.Log)
	slog.SetDefault(logger)

	workersCtx, workersCancel := context.WithCancel(context.Background())

	app := &App{
		config:        cfg,
		logger:        logger,
		workersCancel: workersCancel,
	}

	store, err := app.setupStore(workersCtx)
	if err != nil {
		workersCancel()
		return nil, fmt.Errorf("setup session store: %w", err)
	}

	router, err := app.setupRouter(workersCtx, store)
	if err != nil {
		app.closeStore()
		workersCancel()
		return nil, fmt.Errorf("setup router: %w", err)
	}

	app.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.Port),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}

	// Metrics server on separate port
	metricsRouter := chi.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	app.metricsServer = &http.Server{
		Addr:              fmt.Sprintf("%s:%s", cfg.Server.Host, cfg.Server.MetricsPort),
		Handler:           metricsRouter,
		ReadTimeout:       5 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	return app, nil
}

// Run starts the HTTP servers.
func (a *App) Run() error {
	go func() {
		a.logger.Info("starting metrics server",
			"host", a.config.Server.Host,
			"port", a.config.Server.MetricsPort,
		)
		if err := a.metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server error", "error", err)
		}
	}()

	a.logger.Info("starting server",
		"host", a.config.Server.Host,
		"port", a.config.Server.Port,
		"backend", a.config.Backend.BaseURL,
		"session_store", a.config.Session.Store,
	)

	if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("server error: %w", err)
	}

	return nil
}

// Shutdown gracefully shuts down the application.
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down servers")

	a.workersCancel()

	var wg sync.WaitGroup
	var errs []error
	var mu sync.Mutex

	wg.Add(2)

	go func() {
		defer wg.Done()
		if err := a.server.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown server: %w", err))
			mu.Unlock()
		}
	}()

	go func() {
		defer wg.Done()
		if err := a.metricsServer.Shutdown(ctx); err != nil {
			mu.Lock()
			errs = append(errs, fmt.Errorf("shutdown metrics server: %w", err))
			mu.Unlock()
		}
	}()

	wg.Wait()
	a.workers.Wait()

	if err := a.closeStore(); err != nil {
		errs = append(errs, err)
	}

	return errors.Join(errs...)
}

// Router returns the HTTP handler for testing.
func (a *App) Router() http.Handler {
	return a.server.Handler
}

func (a *App) setupStore(ctx context.Context) (session.Store, error) {
	switch a.config.Session.Store {
	case config.StoreRedis:
		a.redis = redis.NewClient(&redis.Options{
			Addr:     a.config.Redis.Addr,
			Password: a.config.Redis.Password,
			DB:       a.config.Redis.DB,
		})

		pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := a.redis.Ping(pingCtx).Err(); err != nil {
			_ = a.redis.Close()
			a.redis = nil
			return nil, fmt.Errorf("connect to redis %s: %w", a.config.Redis.Addr, err)
		}
		return session.NewRedisStore(a.redis), nil

	default:
		store := session.NewMemoryStore()
		a.goWorker(func() { store.RunJanitor(ctx, a.config.Session.SweepInterval) })
		return store, nil
	}
}

func (a *App) closeStore() error {
	if a.redis == nil {
		return nil
	}
	if err := a.redis.Close(); err != nil {
		return fmt.Errorf("close redis: %w", err)
	}
	return nil
}

func (a *App) goWorker(fn func()) {
	a.workers.Add(1)
	go func() {
		defer a.workers.Done()
		fn()
	}()
}

func (a *App) setupRouter(ctx context.Context, store session.Store) (*chi.Mux, error) {
	r := chi.NewRouter()

	// Metrics middleware must be first to measure full request time
	r.Use(httputil.MetricsMiddleware)
	r.Use(middleware.RequestID)
	r.Use(httputil.RequestLoggerMiddleware(a.logger))
	if a.config.Server.TrustProxy {
		r.Use(middleware.RealIP)
	}
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", a.healthzHandler)
	r.Get("/readyz", a.readyzHandler)
	r.Get("/version", a.versionHandler)

	client, err := backend.NewClient(backend.Config{
		BaseURL: a.config.Backend.BaseURL,
		Timeout: a.config.Backend.Timeout,
		Breaker: backend.BreakerConfig{
			MaxFailures:      a.config.Backend.Breaker.MaxFailures,
			OpenTimeout:      a.config.Backend.Breaker.OpenTimeout,
			HalfOpenRequests: a.config.Backend.Breaker.HalfOpenRequests,
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create backend client: %w", err)
	}

	codec, err := session.NewCookieCodec(a.config.Session.SecretKey, a.config.Session.TTL)
	if err != nil {
		return nil, fmt.Errorf("create session codec: %w", err)
	}

	a.sessions = session.NewManager(store, codec, session.NewResolver(client), session.Config{
		CookieName:      a.config.Session.CookieName,
		TTL:             a.config.Session.TTL,
		ResolveInterval: a.config.Session.ResolveInterval,
		Secure:          a.config.Cookie.Secure,
		Domain:          a.config.Cookie.Domain,
	})

	var limiter *auth.Limiter
	if a.config.Login.RateLimit > 0 {
		limiter = auth.NewLimiter(a.config.Login.RateLimit, a.config.Login.Burst)
		a.goWorker(func() { limiter.Run(ctx, 10*time.Minute) })
	} else {
		slog.Warn("login rate limiting is disabled")
	}

	validator := forms.NewValidator()
	consoleHandler, err := console.NewHandler(
		a.sessions,
		navigation.DefaultTable(),
		auth.NewService(client, validator, limiter),
		wizard.NewService(client, validator),
	)
	if err != nil {
		return nil, fmt.Errorf("create console handler: %w", err)
	}

	consoleHandler.RegisterRoutes(r)

	return r, nil
}

func (a *App) healthzHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) readyzHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := a.sessions.Ping(ctx); err != nil {
		ctxlog.FromContext(r.Context()).Error("readiness check failed", "error", err)
		httputil.Text(w, http.StatusServiceUnavailable, "Session store unavailable")
		return
	}

	httputil.Text(w, http.StatusOK, "OK")
}

func (a *App) versionHandler(w http.ResponseWriter, _ *http.Request) {
	httputil.JSON(w, http.StatusOK, map[string]string{
		"version":    version.Version,
		"commit":     version.GitCommit,
		"build_date": version.BuildDate,
	})
}

func initLogger(cfg config.LogConfig) *slog.Logger {
	var level slog.Level
	switch cfg.Level {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	var handler slog.Handler
	opts := &slog.HandlerOptions{Level: level}

	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
