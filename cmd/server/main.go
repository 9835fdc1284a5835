package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lakala-sdk/internal/api"
	"lakala-sdk/internal/config"
	"lakala-sdk/internal/db"
	"lakala-sdk/internal/lakala"
	"lakala-sdk/internal/logger"
	"lakala-sdk/internal/metrics"
	"lakala-sdk/internal/middleware"
	"lakala-sdk/internal/notify"
	"lakala-sdk/internal/utils"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

const shutdownTimeout = 10 * time.Second

// replaced in tests
var (
	initDBFunc      = db.NewDatabase
	startServerFunc = func(srv *http.Server) error { return srv.ListenAndServe() }
)

func main() {
	if err := run(); err != nil {
		logger.L().Fatal("Server exited", zap.Error(err))
	}
}

func run() error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return err
	}

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	svc, err := lakala.New(cfg.Service, cfg.Lakala, lakala.WithObserver(m))
	if err != nil {
		return err
	}

	database, err := initDBFunc(cfg)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	limiter := middleware.NewLimiter()
	go limiter.Run(ctx)

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           newServer(cfg, database, svc, reg, m, limiter),
		ReadHeaderTimeout: 10 * time.Second,
	}

	log.Info("Server starting",
		zap.String("addr", srv.Addr),
		zap.String("service", string(svc.Name())),
		zap.String("gateway", svc.BaseURL()),
	)

	errCh := make(chan error, 1)
	go func() { errCh <- startServerFunc(srv) }()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		log.Info("Shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func newServer(
	cfg *config.Config,
	database *sql.DB,
	svc lakala.Service,
	gatherer prometheus.Gatherer,
	m *metrics.Metrics,
	limiter *middleware.Limiter,
) http.Handler {
	store := notify.NewRepository(database)
	notifications := notify.NewHandler(svc, store, nil, m)

	return setupRouter(
		notifications,
		api.ForService(svc, store),
		promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}),
		[]byte(cfg.JWTSecret),
		cfg.TrustedProxies,
		limiter,
	)
}

func setupRouter(
	notifications http.Handler,
	ops *api.API,
	metricsHandler http.Handler,
	jwtSecret []byte,
	trusted utils.TrustedProxies,
	limiter *middleware.Limiter,
) chi.Router {
	r := chi.NewRouter()
	r.Use(logger.RequestIDMiddleware, middleware.RealIP(trusted), logger.LoggingMiddleware)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	r.Method(http.MethodGet, "/metrics", metricsHandler)

	r.With(limiter.Middleware).Method(http.MethodPost, "/notify/lakala", notifications)

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.RequireAuth(jwtSecret), limiter.Middleware)
		ops.AppendRoutes(r)
	})

	return r
}
