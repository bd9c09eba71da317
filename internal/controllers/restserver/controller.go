package restserver

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/chrissnell/pm10dash/internal/dashboard"
	"github.com/chrissnell/pm10dash/internal/dataset"
	"github.com/chrissnell/pm10dash/internal/log"
	"github.com/chrissnell/pm10dash/internal/metrics"
	"github.com/chrissnell/pm10dash/internal/session"
	"github.com/chrissnell/pm10dash/pkg/config"
)

// Controller represents the REST server controller
type Controller struct {
	cfg      *config.ConfigData
	Server   http.Server
	FS       fs.FS
	loader   *dataset.Loader
	builder  *dashboard.Builder
	sessions *session.Store
	metrics  *metrics.Metrics
	views    *views
	logger   *zap.SugaredLogger
	handlers *Handlers
}

// NewController creates a new REST server controller
func NewController(cfg *config.ConfigData, loader *dataset.Loader, sessions *session.Store, m *metrics.Metrics, logger *zap.SugaredLogger) (*Controller, error) {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}

	ctrl := &Controller{
		cfg:      cfg,
		loader:   loader,
		sessions: sessions,
		metrics:  m,
		logger:   logger,
	}

	ctrl.builder = dashboard.NewBuilder(dashboard.Options{
		Station:       cfg.Dashboard.Station,
		Period:        cfg.Dashboard.Period,
		PreferredYear: cfg.Dashboard.PreferredYear,
		PreviewRows:   cfg.Dashboard.PreviewRows,
	}, logger)
	if m != nil {
		ctrl.builder.SetObserver(func(section string, _ error) {
			m.SectionFailed(section)
		})
	}

	assets, err := GetAssets(cfg.Server.AssetsDir)
	if err != nil {
		return nil, fmt.Errorf("error loading assets: %w", err)
	}
	ctrl.FS = assets

	ctrl.views, err = loadViews(assets)
	if err != nil {
		return nil, err
	}

	// Create handlers
	ctrl.handlers = NewHandlers(ctrl)

	// Set up router
	ctrl.Server.Addr = cfg.Server.ListenAddr
	ctrl.Server.Handler = ctrl.setupRouter()
	ctrl.Server.ReadTimeout = cfg.Server.ReadTimeout
	ctrl.Server.WriteTimeout = cfg.Server.WriteTimeout

	return ctrl, nil
}

// Handler returns the fully wired router
func (c *Controller) Handler() http.Handler {
	return c.Server.Handler
}

// StartController runs the REST server until ctx is cancelled, then shuts it
// down gracefully.
func (c *Controller) StartController(ctx context.Context) error {
	log.Infof("Starting REST server on %s...", c.Server.Addr)

	errs := make(chan error, 1)
	go func() {
		var err error
		if c.cfg.Server.Cert != "" && c.cfg.Server.Key != "" {
			err = c.Server.ListenAndServeTLS(c.cfg.Server.Cert, c.cfg.Server.Key)
		} else {
			err = c.Server.ListenAndServe()
		}
		if !errors.Is(err, http.ErrServerClosed) {
			errs <- fmt.Errorf("REST server error: %w", err)
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	log.Info("Shutting down the REST server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.shutdownTimeout())
	defer cancel()
	if err := c.Server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("error shutting down REST server: %w", err)
	}
	return nil
}

func (c *Controller) shutdownTimeout() time.Duration {
	if c.cfg.Server.ShutdownTimeout > 0 {
		return c.cfg.Server.ShutdownTimeout
	}
	return 10 * time.Second
}

// setupRouter configures the HTTP router with all endpoints
func (c *Controller) setupRouter() *mux.Router {
	router := mux.NewRouter()

	router.Use(log.HTTPLogger(c.logger, c.observeRequest))

	// Dashboard page
	router.HandleFunc("/", c.handlers.ServeDashboard).Methods(http.MethodGet, http.MethodHead)
	router.HandleFunc("/year", c.handlers.SelectYear).Methods(http.MethodPost)

	// API endpoints
	api := router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/years", c.handlers.GetYears).Methods(http.MethodGet)
	api.HandleFunc("/hourly", c.handlers.GetHourly).Methods(http.MethodGet)
	api.HandleFunc("/peak", c.handlers.GetPeak).Methods(http.MethodGet)
	api.HandleFunc("/monthly/{year}", c.handlers.GetMonthly).Methods(http.MethodGet)

	// Downloads
	router.HandleFunc("/export/aggregates.xlsx", c.handlers.ExportAggregates).Methods(http.MethodGet)
	router.HandleFunc("/export/preview.csv", c.handlers.ExportPreview).Methods(http.MethodGet)

	// Operations
	router.HandleFunc("/reload", c.handlers.Reload).Methods(http.MethodPost)
	router.HandleFunc("/healthz", c.handlers.Healthz).Methods(http.MethodGet)
	if c.metrics != nil {
		router.Handle("/metrics", c.metrics.Handler()).Methods(http.MethodGet)
	}

	// Static file serving
	if static, err := fs.Sub(c.FS, "static"); err == nil {
		router.PathPrefix("/static/").Handler(http.StripPrefix("/static/", http.FileServer(http.FS(static))))
	}

	return router
}

// observeRequest feeds finished requests into the request metrics
func (c *Controller) observeRequest(req *http.Request, entry log.HTTPLogEntry) {
	if c.metrics == nil {
		return
	}
	route := ""
	if r := mux.CurrentRoute(req); r != nil {
		route, _ = r.GetPathTemplate()
	}
	c.metrics.ObserveRequest(route, entry.Method, entry.Status, entry.Duration)
}

// table returns the memoized dataset, loading it on first use
func (c *Controller) table() (*dataset.Table, error) {
	t, err := c.loader.Load(c.cfg.Dashboard.DataFile)
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.SetRows(t.Len())
	}
	return t, nil
}
