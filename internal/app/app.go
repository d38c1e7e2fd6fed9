// Package app provides application-level orchestration and dependency injection.
// This package wires together all components and manages the application lifecycle.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/siraymusic/siray/internal/adapter/bridge"
	"github.com/siraymusic/siray/internal/adapter/caption"
	"github.com/siraymusic/siray/internal/adapter/catalog"
	"github.com/siraymusic/siray/internal/adapter/eventbus"
	"github.com/siraymusic/siray/internal/adapter/media/simulated"
	"github.com/siraymusic/siray/internal/domain"
	"github.com/siraymusic/siray/internal/logger"
	"github.com/siraymusic/siray/internal/ports"
	"github.com/siraymusic/siray/internal/service"
)

// Application is the root application structure that holds all dependencies.
// It follows the Dependency Injection pattern with constructor-based injection.
//
// The Application struct is responsible for:
// - Creating and wiring all dependencies
// - Managing the application lifecycle (startup, shutdown)
// - Providing the wired services to the command layer
type Application struct {
	config Config
	logger *slog.Logger

	// Infrastructure
	eventBus  *eventbus.SyncEventBus
	library   *catalog.Library
	importer  *catalog.Importer
	captions  ports.CaptionService
	transport ports.MediaTransport

	// Services
	annotator  *service.CaptionAnnotator
	session    *service.SessionController
	driver     *service.PlaybackDriver
	dispatcher *service.Dispatcher

	startOnce    sync.Once
	shutdownOnce sync.Once
	shutdownErr  error
}

// NewApplication creates a new application with all dependencies wired.
// Nothing runs until Start.
func NewApplication(config Config) (*Application, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	app := &Application{config: config}

	// Step 1: Logger
	app.logger = config.Logger
	if app.logger == nil {
		app.logger = logger.NewLogger(config.loggerConfig())
	}
	app.logger.Info("initializing application", slog.String("version", GetVersionInfo().String()))

	// Step 2: Event bus
	app.eventBus = eventbus.NewSyncEventBus(app.logger)

	// Step 3: Catalog and local import
	app.library = catalog.NewSampleLibrary()
	app.importer = catalog.NewImporter(app.logger, config.Library.Extensions...)

	// Step 4: Caption service chain
	captions, err := newCaptionService(config.Caption)
	if err != nil {
		return nil, fmt.Errorf("failed to create caption service: %w", err)
	}
	app.captions = captions
	app.logger.Info("caption service ready",
		slog.Bool("remote", config.Caption.Endpoint != ""),
		slog.Int("cache_size", config.Caption.CacheSize))

	// Step 5: Media transport
	app.transport = simulated.NewTransport(app.logger)

	// Step 6: Services
	app.annotator = service.NewCaptionAnnotator(app.logger, app.captions, app.eventBus, config.captionTimeout())
	app.session = service.NewSessionController(app.logger, app.eventBus, app.library, app.annotator)
	app.session.SetHistoryLimit(config.Playback.HistoryLimit)
	app.driver = service.NewPlaybackDriver(app.logger, app.eventBus, app.transport, app.session, config.tickInterval())
	app.dispatcher = service.NewDispatcher(app.logger, app.session, app.importer)

	return app, nil
}

// newCaptionService builds the HTTP client when an endpoint is configured and
// the offline templates otherwise, behind an LRU cache unless disabled.
func newCaptionService(cfg CaptionConfig) (ports.CaptionService, error) {
	var svc ports.CaptionService = caption.NewTemplateService()
	if cfg.Endpoint != "" {
		svc = caption.NewHTTPService(cfg.Endpoint, cfg.APIKey, 0)
	}
	if cfg.CacheSize == 0 {
		return svc, nil
	}
	return caption.NewCachedService(svc, cfg.CacheSize)
}

// Start imports the configured watch directory, starts the playback ticker
// and announces the initial track. It is safe to call more than once.
func (a *Application) Start(ctx context.Context) error {
	var err error
	a.startOnce.Do(func() {
		if dir := a.config.Library.WatchDir; dir != "" {
			tracks, importErr := a.importer.ImportDir(ctx, dir)
			if importErr != nil {
				err = fmt.Errorf("failed to import %s: %w", dir, importErr)
				return
			}
			if len(tracks) > 0 {
				// local files go to the library without interrupting the default session
				added := a.library.AddLocal(tracks...)
				a.logger.Info("imported local library", slog.String("dir", dir), slog.Int("tracks", len(added)))
			}
		}

		a.driver.Start()
		a.session.Start()
		a.logger.Info("application started")
	})
	return err
}

// Watcher returns a folder watcher feeding new files into the session, or nil
// when no watch directory is configured.
func (a *Application) Watcher() *catalog.Watcher {
	if a.config.Library.WatchDir == "" {
		return nil
	}
	return catalog.NewWatcher(a.config.Library.WatchDir, a.importer, a.ingest, a.config.settle(), a.logger)
}

func (a *Application) ingest(tracks []domain.Track) {
	added := a.session.IngestLocalTracks(tracks)
	a.logger.Info("ingested watched files", slog.Int("tracks", len(added)))
}

// NewHub creates a websocket hub bound to this application's session.
func (a *Application) NewHub() *bridge.Hub {
	return bridge.NewHub(a.logger, a.eventBus, a.dispatcher, a.session,
		bridge.WithAllowedOrigins(a.config.Server.AllowedOrigins...))
}

// Config returns the configuration the application was built with.
func (a *Application) Config() Config { return a.config }

// Logger returns the application logger.
func (a *Application) Logger() *slog.Logger { return a.logger }

// EventBus returns the application event bus.
func (a *Application) EventBus() ports.EventBus { return a.eventBus }

// Session returns the session controller.
func (a *Application) Session() *service.SessionController { return a.session }

// Dispatcher returns the intent dispatcher.
func (a *Application) Dispatcher() *service.Dispatcher { return a.dispatcher }

// Library returns the track catalog.
func (a *Application) Library() *catalog.Library { return a.library }

// Importer returns the local file importer.
func (a *Application) Importer() *catalog.Importer { return a.importer }

// Shutdown gracefully shuts down the application, in reverse order of creation.
// Later calls return the first call's result.
func (a *Application) Shutdown() error {
	a.shutdownOnce.Do(func() {
		a.logger.Info("shutting down application")

		var errs []error
		a.driver.Stop()
		a.annotator.Shutdown()
		a.session.Shutdown()

		if err := a.transport.Close(); err != nil && !errors.Is(err, domain.ErrClosed) {
			errs = append(errs, fmt.Errorf("close transport: %w", err))
		}
		if err := a.eventBus.Close(); err != nil && !errors.Is(err, eventbus.ErrBusClosed) {
			errs = append(errs, fmt.Errorf("close event bus: %w", err))
		}

		a.shutdownErr = errors.Join(errs...)
		a.logger.Info("application shutdown complete")
	})
	return a.shutdownErr
}
