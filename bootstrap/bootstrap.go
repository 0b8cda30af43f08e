// Package bootstrap wires all dependencies and starts the application:
// configuration watcher, resolver, delegate invoker, hit log and the
// HTTP server.
package bootstrap

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/artpar/hopgate/adapters/clock"
	"github.com/artpar/hopgate/adapters/delegate"
	hophttp "github.com/artpar/hopgate/adapters/http"
	"github.com/artpar/hopgate/adapters/idgen"
	"github.com/artpar/hopgate/adapters/metrics"
	"github.com/artpar/hopgate/adapters/sqlite"
	"github.com/artpar/hopgate/app"
	"github.com/artpar/hopgate/config"
	"github.com/artpar/hopgate/domain/hop"
	"github.com/artpar/hopgate/ports"
	"github.com/artpar/hopgate/web"
)

// App represents the running application.
type App struct {
	Logger     zerolog.Logger
	Watcher    *config.Watcher
	Resolver   *app.Resolver
	DB         *sqlite.DB
	HTTPServer *http.Server
	Metrics    *metrics.Collector

	hitRecorder ports.HitRecorder
	hotReload   bool
	watchCancel context.CancelFunc
}

// Options configures application construction.
type Options struct {
	ConfigPath string
	HotReload  bool   // watch the config file for changes
	Version    string // reported by the /version endpoint
}

// New creates and initializes the application. The configuration must
// load and its route table must compile, otherwise startup fails.
func New(opts Options) (*App, error) {
	bootCfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger := newLogger(bootCfg.Logging)
	logger.Info().Str("config", opts.ConfigPath).Msg("initializing hopgate")

	// With metrics disabled the collector still counts into a private
	// registry; only the /metrics endpoint disappears.
	var collector *metrics.Collector
	if bootCfg.Metrics.Enabled {
		collector = metrics.New()
		logger.Info().Msg("prometheus metrics enabled")
	} else {
		collector = metrics.NewWithRegistry(prometheus.NewRegistry())
	}

	watcher, err := config.NewWatcher(opts.ConfigPath, logger, collector)
	if err != nil {
		return nil, err
	}
	cfg := watcher.Config()

	table, err := cfg.CompileTable()
	if err != nil {
		return nil, fmt.Errorf("compile route table: %w", err)
	}

	a := &App{
		Logger:    logger,
		Watcher:   watcher,
		Metrics:   collector,
		hotReload: opts.HotReload,
	}

	// Hit log (optional)
	var hitStore *sqlite.HitStore
	recorder := ports.HitRecorder(noopHitRecorder{})
	if cfg.Database.Enabled {
		db, err := sqlite.Open(cfg.Database.Path)
		if err != nil {
			return nil, fmt.Errorf("open hit database: %w", err)
		}
		if err := db.Migrate(); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrate hit database: %w", err)
		}
		a.DB = db
		hitStore = sqlite.NewHitStore(db)
		recorder = NewLocalHitRecorder(hitStore, collector, logger, cfg.Database.BatchSize, cfg.Database.FlushInterval)
		logger.Info().Str("path", cfg.Database.Path).Msg("hit log enabled")
	}
	a.hitRecorder = recorder

	invoker := delegate.NewInvoker(cfg.Delegate.Timeout, collector, logger)

	resolver := app.NewResolver(app.ResolverDeps{
		Invoker: invoker,
		Hits:    recorder,
		Clock:   clock.Real{},
		IDGen:   idgen.UUID{},
		Metrics: collector,
		Logger:  logger,
	})
	resolver.Publish(table)
	collector.RoutesActive.Set(float64(table.Len()))
	a.Resolver = resolver

	watcher.OnApply(func(_ *config.Config, t *hop.Table) {
		resolver.Publish(t)
	})

	webDeps := web.Deps{
		Tables:        resolver,
		PublicAddress: func() string { return watcher.Config().PublicAddress },
		Logger:        logger,
	}
	if hitStore != nil {
		webDeps.Hits = hitStore
	}
	pages, err := web.NewHandler(webDeps)
	if err != nil {
		return nil, fmt.Errorf("build web handler: %w", err)
	}

	routerCfg := hophttp.RouterConfig{
		Pages:   pages.Router(),
		Version: opts.Version,
	}
	if cfg.Metrics.Enabled {
		routerCfg.Metrics = collector
	}

	router := hophttp.NewRouter(
		hophttp.NewHopHandler(resolver, logger),
		hophttp.NewHealthHandler(resolver),
		logger,
		routerCfg,
	)

	a.HTTPServer = &http.Server{
		Addr:         cfg.BindAddress,
		Handler:      router,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	logger.Info().
		Str("addr", cfg.BindAddress).
		Int("routes", table.Len()).
		Str("default_route", cfg.DefaultRoute).
		Msg("http server configured")

	return a, nil
}

// Run starts the HTTP server and blocks until shutdown.
func (a *App) Run() error {
	watchCtx, cancel := context.WithCancel(context.Background())
	a.watchCancel = cancel

	// SIGHUP reloads work even when the file watch is off or broken
	a.Watcher.WatchSignals()

	if a.hotReload {
		if err := a.Watcher.Start(watchCtx); err != nil {
			a.Logger.Warn().Err(err).Msg("config watch unavailable, continuing without hot reload")
		}
	}

	errCh := make(chan error, 1)
	go func() {
		a.Logger.Info().Str("addr", a.HTTPServer.Addr).Msg("starting http server")
		if err := a.HTTPServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.Logger.Info().Str("signal", sig.String()).Msg("shutting down")
	}

	return a.Shutdown()
}

// Shutdown gracefully stops the application and flushes the hit log.
func (a *App) Shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if a.watchCancel != nil {
		a.watchCancel()
	}
	if a.Watcher != nil {
		a.Watcher.Stop()
	}

	if a.HTTPServer != nil {
		if err := a.HTTPServer.Shutdown(ctx); err != nil {
			a.Logger.Error().Err(err).Msg("http server shutdown error")
		}
	}

	if a.hitRecorder != nil {
		if err := a.hitRecorder.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("hit recorder close error")
		}
	}

	if a.DB != nil {
		if err := a.DB.Close(); err != nil {
			a.Logger.Error().Err(err).Msg("database close error")
		}
	}

	a.Logger.Info().Msg("shutdown complete")
	return nil
}

// newLogger builds the process logger from the logging section.
func newLogger(cfg config.LoggingConfig) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "console" {
		output := zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
		return zerolog.New(output).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stdout).With().Timestamp().Logger()
}
