package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	gfshutdown "github.com/gelmium/graceful-shutdown"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/auditlog"
	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/handler"
	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/metrics"
	"github.com/wadjakorntonsri/go-shortlink/pkg/adapters/repository/memory"
	"github.com/wadjakorntonsri/go-shortlink/pkg/config"
	"github.com/wadjakorntonsri/go-shortlink/pkg/core/services"
	"github.com/wadjakorntonsri/go-shortlink/pkg/ports"
)

// app holds the wired components that need lifecycle management.
type app struct {
	handler http.Handler
	store   *memory.Repository
	audit   ports.AuditLogger
	sweeper *services.Sweeper
}

func newLogger(cfg *config.Config) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func newApp(cfg *config.Config, reg *prometheus.Registry, logger *slog.Logger) *app {
	m := metrics.New(reg)

	// Initialize Repository
	store := memory.NewRepository(
		memory.WithHistoryLimit(cfg.ClickHistoryLimit),
		memory.WithCollisionCheck(cfg.RejectCodeCollisions),
	)
	metrics.RegisterStoreSize(reg, store.Len)

	var audit ports.AuditLogger
	if cfg.Audit.Enabled() {
		audit = auditlog.NewClient(auditlog.Config{
			AuthURL: cfg.Audit.AuthURL,
			LogURL:  cfg.Audit.LogURL,
			Credentials: auditlog.Credentials{
				Email:        cfg.Audit.Email,
				Name:         cfg.Audit.Name,
				RollNo:       cfg.Audit.RollNo,
				AccessCode:   cfg.Audit.AccessCode,
				ClientID:     cfg.Audit.ClientID,
				ClientSecret: cfg.Audit.ClientSecret,
			},
			Timeout:   cfg.Audit.Timeout,
			QueueSize: cfg.Audit.QueueSize,
			TokenTTL:  cfg.Audit.TokenTTL,
		}, m, logger)
	} else {
		logger.Info("remote audit log disabled, AUTH_URL or LOG_API_URL not set")
		audit = auditlog.NewLocal(logger)
	}

	// Initialize Service
	service := services.NewLinkService(store, services.NewCodeGenerator(cfg.CodeLength), audit, m, cfg.DefaultValidity)

	var sweeper *services.Sweeper
	if cfg.SweepInterval > 0 {
		sweeper = services.NewSweeper(store, audit, m, cfg.SweepInterval)
	}

	return &app{
		handler: handler.NewRouter(cfg, service, audit, m, reg),
		store:   store,
		audit:   audit,
		sweeper: sweeper,
	}
}

// shutdown drains in-flight requests before closing the audit log so their
// entries are still delivered. gfshutdown runs operations concurrently, so the
// ordering lives here.
func (a *app) shutdown(ctx context.Context, server *http.Server, stopSweep func()) error {
	err := server.Shutdown(ctx)
	stopSweep()
	return errors.Join(err, a.audit.Close(ctx))
}

func main() {
	cfg := config.Load()
	logger := newLogger(cfg)
	slog.SetDefault(logger)

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	a := newApp(cfg, reg, logger)

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	if a.sweeper != nil {
		go a.sweeper.Run(sweepCtx)
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      a.handler,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.Port, "base_url", cfg.BaseURL, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	wait := gfshutdown.GracefulShutdown(
		context.Background(),
		cfg.ShutdownTimeout,
		map[string]gfshutdown.Operation{
			"http-server": func(ctx context.Context) error {
				logger.Info("graceful shutdown initiated")
				return a.shutdown(ctx, server, stopSweep)
			},
		},
	)

	exitCode := <-wait
	logger.Info("application exited", "code", exitCode, "links_in_memory", a.store.Len())
	os.Exit(exitCode)
}
