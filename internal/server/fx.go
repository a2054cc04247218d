// Package server provides the core application server and dependency wiring.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"cloud.google.com/go/storage"
	"go.uber.org/zap"

	"github.com/JakeFAU/render-gateway/internal/api"
	"github.com/JakeFAU/render-gateway/internal/clock/system"
	"github.com/JakeFAU/render-gateway/internal/config"
	"github.com/JakeFAU/render-gateway/internal/events"
	memorypublisher "github.com/JakeFAU/render-gateway/internal/events/memory"
	gcppublisher "github.com/JakeFAU/render-gateway/internal/events/pubsub"
	"github.com/JakeFAU/render-gateway/internal/gateway"
	"github.com/JakeFAU/render-gateway/internal/id/uuid"
	"github.com/JakeFAU/render-gateway/internal/logging"
	"github.com/JakeFAU/render-gateway/internal/origin"
	collyfetcher "github.com/JakeFAU/render-gateway/internal/origin/colly"
	gcsfetcher "github.com/JakeFAU/render-gateway/internal/origin/gcs"
	"github.com/JakeFAU/render-gateway/internal/product"
	"github.com/JakeFAU/render-gateway/internal/product/firestore"
	pgsource "github.com/JakeFAU/render-gateway/internal/product/postgres"
	"github.com/JakeFAU/render-gateway/internal/render"
	"github.com/JakeFAU/render-gateway/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// App contains the application's dependencies.
type App struct {
	cfg            *config.Config
	logger         *zap.Logger
	apiServer      *api.Server
	gateway        *gateway.Handler
	emitter        *events.Emitter
	storage        *storage.Client
	postgres       *pgsource.Source
	pubsubClose    func() error
	tracerShutdown func(context.Context) error
	checks         map[string]api.ReadinessCheck
}

// Options carries process-level values that do not come from config.
type Options struct {
	Version string
	// Logger overrides the logger built from config.
	Logger *zap.Logger
}

// Gateway exposes the request handler, e.g. for one-off previews.
func (a *App) Gateway() *gateway.Handler {
	return a.gateway
}

// Run starts the HTTP server and blocks until the context is canceled or a
// termination signal arrives.
func (a *App) Run(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:           a.apiServer.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		a.logger.Info("http server started",
			zap.Int("port", a.cfg.Server.Port),
			zap.String("origin", a.cfg.Origin.URL),
			zap.String("admin_prefix", a.cfg.Server.AdminPrefix),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server error", zap.Error(err))
			serveErr <- err
			stop()
		}
	}()

	<-ctx.Done()
	a.logger.Info("shutdown initiated")
	a.apiServer.SetDraining()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("server shutdown error", zap.Error(err))
	}
	closeErr := a.Close(shutdownCtx)

	select {
	case err := <-serveErr:
		return fmt.Errorf("serve http: %w", err)
	default:
		return closeErr
	}
}

// Close flushes pending events and releases clients.
func (a *App) Close(ctx context.Context) error {
	if err := a.emitter.Wait(ctx); err != nil {
		a.logger.Warn("render events still in flight at shutdown", zap.Error(err))
	}
	a.closeInfrastructure()
	a.closeObservability(ctx)
	a.logger.Info("shutdown complete")
	return nil
}

func (a *App) closeInfrastructure() {
	if a.pubsubClose != nil {
		if err := a.pubsubClose(); err != nil {
			a.logger.Warn("pubsub close failed", zap.Error(err))
		}
	}
	if a.storage != nil {
		if err := a.storage.Close(); err != nil {
			a.logger.Warn("gcs client close failed", zap.Error(err))
		}
	}
	if a.postgres != nil {
		a.postgres.Close()
	}
}

func (a *App) closeObservability(ctx context.Context) {
	if a.tracerShutdown != nil {
		if err := a.tracerShutdown(ctx); err != nil {
			a.logger.Warn("tracer shutdown failed", zap.Error(err))
		}
	}
	// Syncing stderr fails on some platforms; nothing useful to do about it.
	_ = a.logger.Sync()
}

// Build creates the application's dependencies.
func Build(ctx context.Context, cfg *config.Config, opts Options) (*App, error) {
	logger := opts.Logger
	if logger == nil {
		var err error
		logger, err = logging.New(logging.Options{
			Development: cfg.Logging.Development,
			Level:       cfg.Logging.Level,
		})
		if err != nil {
			return nil, fmt.Errorf("logger init failed: %w", err)
		}
		zap.ReplaceGlobals(logger)
	}

	app := &App{
		cfg:    cfg,
		logger: logger,
		checks: map[string]api.ReadinessCheck{},
	}
	app.logger.Info("building application dependencies",
		zap.String("origin_backend", cfg.Origin.Backend),
		zap.String("docstore_backend", cfg.DocStore.Backend),
		zap.String("events_backend", cfg.Events.Backend),
	)

	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:     cfg.Tracing.Enabled,
		ProjectID:   cfg.Tracing.ProjectID,
		ServiceName: cfg.Tracing.ServiceName,
		Version:     opts.Version,
	})
	if err != nil {
		return nil, fmt.Errorf("telemetry init failed: %w", err)
	}
	app.tracerShutdown = shutdown

	products, err := setupProducts(ctx, app)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	fetcher, err := setupOrigin(ctx, app)
	if err != nil {
		app.closeInfrastructure()
		return nil, err
	}
	if err := setupEvents(ctx, app); err != nil {
		app.closeInfrastructure()
		return nil, err
	}

	app.gateway, err = gateway.New(gateway.Options{
		OriginURL:             cfg.Origin.URL,
		CanonicalBaseURL:      cfg.Storefront.BaseURL,
		ProductPrefix:         cfg.Routes.ProductPrefix,
		Products:              products,
		Origin:                fetcher,
		Transformer:           render.New(renderOptions(cfg)),
		Emitter:               app.emitter,
		ProductTimeout:        cfg.DocStore.Timeout,
		OriginTimeout:         cfg.Origin.Timeout,
		ForceVisibleAllRoutes: cfg.Gateway.ForceVisibleAllRoutes,
		Logger:                logger,
	})
	if err != nil {
		app.closeInfrastructure()
		return nil, fmt.Errorf("gateway init failed: %w", err)
	}

	app.apiServer = api.NewServer(app.gateway, cfg.Server.AdminPrefix, app.checks, logger)
	return app, nil
}

func renderOptions(cfg *config.Config) render.Options {
	return render.Options{
		SiteName:         cfg.Storefront.Name,
		Currency:         cfg.Storefront.Currency,
		CurrencySymbol:   cfg.Storefront.CurrencySymbol,
		Locale:           cfg.Storefront.Locale,
		ThemeColor:       cfg.Storefront.ThemeColor,
		TwitterSite:      cfg.Storefront.TwitterSite,
		StripMarkers:     cfg.Render.StripMarkers,
		RootSelector:     cfg.Render.RootSelector,
		LoadingSelectors: cfg.Render.LoadingSelectors,
	}
}

// setupProducts returns a nil Source when credentials are missing; the
// gateway then passes product routes through.
func setupProducts(ctx context.Context, app *App) (product.Source, error) {
	cfg := app.cfg.DocStore
	if !app.cfg.ProductSourceConfigured() {
		app.logger.Warn("document store credentials missing; running in passthrough-only mode",
			zap.String("backend", cfg.Backend))
		return nil, nil
	}
	switch cfg.Backend {
	case "postgres":
		src, err := pgsource.New(ctx, pgsource.Config{
			DSN:     cfg.Postgres.DSN,
			Table:   cfg.Postgres.Table,
			Timeout: cfg.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("postgres product source init failed: %w", err)
		}
		app.postgres = src
		app.checks["postgres"] = src.Ping
		app.logger.Info("using postgres product source", zap.String("table", cfg.Postgres.Table))
		return src, nil
	default:
		src, err := firestore.New(firestore.Config{
			ProjectID:  cfg.ProjectID,
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Collection: cfg.Collection,
			Timeout:    cfg.Timeout,
		}, nil)
		if err != nil {
			return nil, fmt.Errorf("firestore product source init failed: %w", err)
		}
		app.logger.Info("using firestore product source",
			zap.String("project", cfg.ProjectID),
			zap.String("collection", cfg.Collection),
		)
		return src, nil
	}
}

func setupOrigin(ctx context.Context, app *App) (origin.Fetcher, error) {
	cfg := app.cfg.Origin
	switch cfg.Backend {
	case "gcs":
		var err error
		app.storage, err = storage.NewClient(ctx)
		if err != nil {
			return nil, fmt.Errorf("gcs client init failed: %w", err)
		}
		fetcher, err := gcsfetcher.New(app.storage, gcsfetcher.Config{
			Bucket:       cfg.GCS.Bucket,
			Object:       cfg.GCS.Object,
			Timeout:      cfg.Timeout,
			MaxBodyBytes: cfg.MaxBodyBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("gcs origin init failed: %w", err)
		}
		app.logger.Info("using GCS shell origin",
			zap.String("bucket", cfg.GCS.Bucket),
			zap.String("object", cfg.GCS.Object),
		)
		return fetcher, nil
	default:
		fetcher, err := collyfetcher.New(collyfetcher.Config{
			BaseURL:      cfg.URL,
			UserAgent:    cfg.UserAgent,
			Timeout:      cfg.Timeout,
			MaxBodyBytes: cfg.MaxBodyBytes,
		})
		if err != nil {
			return nil, fmt.Errorf("origin fetcher init failed: %w", err)
		}
		app.logger.Info("using colly shell fetcher", zap.String("user_agent", cfg.UserAgent))
		return fetcher, nil
	}
}

func setupEvents(ctx context.Context, app *App) error {
	cfg := app.cfg.Events
	var publisher events.Publisher
	switch cfg.Backend {
	case "pubsub":
		pub, closeFn, err := gcppublisher.Dial(ctx, cfg.ProjectID, cfg.Topic)
		if err != nil {
			return fmt.Errorf("pubsub publisher init failed: %w", err)
		}
		app.pubsubClose = closeFn
		publisher = pub
		app.logger.Info("Pub/Sub render events enabled",
			zap.String("project", cfg.ProjectID),
			zap.String("topic", cfg.Topic),
		)
	case "memory":
		publisher = memorypublisher.New()
		app.logger.Info("in-memory render events enabled",
			zap.Int("retained", memorypublisher.DefaultLimit))
	default:
		app.logger.Debug("render events disabled")
		return nil
	}
	app.emitter = events.NewEmitter(publisher, cfg.Topic, cfg.Timeout, uuid.New(), system.New(), app.logger)
	return nil
}
