package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"CrowdPulse/pkg/config"
	xhttp "CrowdPulse/pkg/http"
	"CrowdPulse/pkg/logger"
	"CrowdPulse/pkg/queue"
)

// Publisher is the optional outbound signal bus the app must flush on
// shutdown.
type Publisher interface {
	Close() error
}

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	sched      *queue.Scheduler
	pub        Publisher
	log        *logger.Logger
	httpServer *xhttp.Server
}

// New creates a new App instance with all dependencies. sched and pub may be
// nil when the respective subsystems are disabled.
func New(cfg *config.Config, handler xhttp.Handler, sched *queue.Scheduler, pub Publisher, log *logger.Logger) *App {
	return &App{
		cfg:     cfg,
		handler: handler,
		sched:   sched,
		pub:     pub,
		log:     log,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	opts := []xhttp.ServerOption{
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	}
	if a.cfg.Metrics.Path != "" {
		opts = append(opts, xhttp.WithMetricsPath(a.cfg.Metrics.Path))
	}
	a.httpServer = xhttp.NewServer(a.handler, opts...)

	if a.sched != nil {
		a.sched.Start(ctx)
		a.log.Info("scheduler started",
			logger.Duration("interval", a.cfg.Scheduler.Interval))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", logger.Error(err))
		return err
	}
	a.log.Info("server started",
		logger.Int("port", a.cfg.Server.Port),
		logger.String("mode", a.cfg.Pipeline.Mode))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.log.Error("http shutdown error", logger.Error(err))
	}

	if a.sched != nil {
		if err := a.sched.Stop(); err != nil {
			a.log.Warn("scheduler stop error", logger.Error(err))
		}
	}

	if a.pub != nil {
		if err := a.pub.Close(); err != nil {
			a.log.Warn("publisher close error", logger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
