// Package app wires the dashboard components together and runs them until
// shutdown.
package app

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/chrissnell/pm10dash/internal/controllers/restserver"
	"github.com/chrissnell/pm10dash/internal/dataset"
	"github.com/chrissnell/pm10dash/internal/log"
	"github.com/chrissnell/pm10dash/internal/metrics"
	"github.com/chrissnell/pm10dash/internal/session"
	"github.com/chrissnell/pm10dash/pkg/config"
)

// App represents the main application
type App struct {
	cfg    *config.ConfigData
	logger *zap.SugaredLogger
}

// New creates a new application instance
func New(cfg *config.ConfigData, logger *zap.SugaredLogger) *App {
	return &App{
		cfg:    cfg,
		logger: logger,
	}
}

// dataDir resolves where the dataset file is looked up
func (a *App) dataDir() (string, error) {
	if a.cfg.Dashboard.DataDir != "" {
		return a.cfg.Dashboard.DataDir, nil
	}
	return dataset.ExecutableDir()
}

// Run starts the application and blocks until shutdown
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dir, err := a.dataDir()
	if err != nil {
		return fmt.Errorf("error resolving data directory: %w", err)
	}

	m := metrics.New()
	loader := dataset.NewLoader(dir, a.logger)
	loader.SetObserver(m.ObserveLoad)
	sessions := session.NewStore(a.cfg.Session.TTL, a.logger)

	// Forget the memoized table and every visitor session on the way out
	defer func() {
		loader.Reset()
		sessions.Close()
	}()

	rest, err := restserver.NewController(a.cfg, loader, sessions, m, a.logger)
	if err != nil {
		return fmt.Errorf("error creating REST server: %w", err)
	}

	log.Infof("Looking for %s in %s", a.cfg.Dashboard.DataFile, dir)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return rest.StartController(gctx)
	})

	log.Info("Application started successfully")

	<-gctx.Done()
	if ctx.Err() != nil {
		log.Info("shutdown signal received, initiating graceful shutdown...")
	}

	// Wait for all workers to terminate
	log.Info("waiting for all workers to terminate...")
	err = g.Wait()
	log.Info("shutdown complete")

	return err
}
