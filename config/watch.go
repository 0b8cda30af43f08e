package config

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/fsnotify/fsnotify"
	"github.com/rs/zerolog"

	"github.com/artpar/hopgate/adapters/metrics"
	"github.com/artpar/hopgate/domain/hop"
)

// Watcher observes the configuration file and republishes the compiled
// route table on change. Filesystem events are debounced so rapid
// successive writes coalesce into a single reload; SIGHUP forces an
// immediate reload. A reload that fails to parse or compile is rejected
// and the previously published table stays in service.
type Watcher struct {
	mu     sync.RWMutex
	config *Config

	path     string
	debounce time.Duration
	logger   zerolog.Logger
	metrics  *metrics.Collector

	watcher  *fsnotify.Watcher
	onApply  []func(*Config, *hop.Table)
	reloadMu sync.Mutex
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewWatcher loads the initial configuration and prepares a watcher for it.
// A load failure here is the caller's startup failure; nothing is retained.
func NewWatcher(path string, logger zerolog.Logger, collector *metrics.Collector) (*Watcher, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("absolute path: %w", err)
	}

	return &Watcher{
		config:   cfg,
		path:     absPath,
		debounce: cfg.Watch.Debounce,
		logger:   logger,
		metrics:  collector,
		stopCh:   make(chan struct{}),
	}, nil
}

// Config returns the current configuration (thread-safe).
func (w *Watcher) Config() *Config {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.config
}

// OnApply registers a callback invoked with every successfully compiled
// configuration and route table. Callbacks run on the reload goroutine.
func (w *Watcher) OnApply(fn func(*Config, *hop.Table)) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.onApply = append(w.onApply, fn)
}

// Reload re-reads and re-compiles the configuration from disk, then
// notifies listeners. On any failure the previous configuration and table
// remain in service and the error is returned. Concurrent calls are
// serialized; at most one reload is in progress at a time.
func (w *Watcher) Reload() error {
	w.reloadMu.Lock()
	defer w.reloadMu.Unlock()

	w.logger.Info().Str("path", w.path).Msg("reloading configuration")

	newCfg, err := Load(w.path)
	if err != nil {
		w.metrics.ConfigReloadErrors.Inc()
		w.logger.Error().Err(err).Msg("config reload rejected, keeping last-known-good table")
		return fmt.Errorf("reload config: %w", err)
	}

	table, err := newCfg.CompileTable()
	if err != nil {
		w.metrics.ConfigReloadErrors.Inc()
		w.logger.Error().Err(err).Msg("config reload rejected, keeping last-known-good table")
		return fmt.Errorf("compile routes: %w", err)
	}

	w.mu.Lock()
	w.config = newCfg
	listeners := make([]func(*Config, *hop.Table), len(w.onApply))
	copy(listeners, w.onApply)
	w.mu.Unlock()

	for _, fn := range listeners {
		fn(newCfg, table)
	}

	w.metrics.ConfigReloads.Inc()
	w.metrics.ConfigLastReload.SetToCurrentTime()
	w.metrics.RoutesActive.Set(float64(table.Len()))

	w.logger.Info().
		Int("groups", len(newCfg.Groups)).
		Int("routes", table.Len()).
		Str("default_route", newCfg.DefaultRoute).
		Msg("configuration reloaded")
	return nil
}

// Start establishes the filesystem watch and begins reacting to changes.
// The watch targets the config file's parent directory, which is more
// reliable for editors that save via a temp-file rename; a rename-swap
// that the platform still does not report is a known gap, covered by
// SIGHUP. Establishing the watch is retried with exponential backoff.
func (w *Watcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)

	fsw, err := backoff.Retry(ctx, func() (*fsnotify.Watcher, error) {
		fsw, err := fsnotify.NewWatcher()
		if err != nil {
			return nil, fmt.Errorf("create watcher: %w", err)
		}
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		return fsw, nil
	},
		backoff.WithBackOff(backoff.NewExponentialBackOff()),
		backoff.WithMaxTries(5),
	)
	if err != nil {
		return err
	}

	w.watcher = fsw
	go w.watchLoop()

	w.logger.Info().
		Str("path", w.path).
		Dur("debounce", w.debounce).
		Msg("watching config file for changes")
	return nil
}

// WatchSignals starts listening for SIGHUP to trigger an immediate reload,
// bypassing the debounce interval.
func (w *Watcher) WatchSignals() {
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGHUP)

	go func() {
		for {
			select {
			case <-sigCh:
				w.logger.Info().Msg("received SIGHUP, reloading config")
				if err := w.Reload(); err != nil {
					w.logger.Error().Err(err).Msg("SIGHUP reload failed")
				}
			case <-w.stopCh:
				signal.Stop(sigCh)
				return
			}
		}
	}()
}

// Stop stops watching for file changes and signals.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.watcher != nil {
			w.watcher.Close()
		}
	})
}

func (w *Watcher) watchLoop() {
	filename := filepath.Base(w.path)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)

	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}

			// Only react to our config file.
			if filepath.Base(event.Name) != filename {
				continue
			}

			// Atomic saves surface as create or rename rather than write.
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			w.logger.Debug().
				Str("event", event.Op.String()).
				Str("file", event.Name).
				Msg("config file changed, debouncing")

			if timer == nil {
				timer = time.NewTimer(w.debounce)
				pending = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-pending:
			timer = nil
			pending = nil
			if err := w.Reload(); err != nil {
				w.logger.Error().Err(err).Msg("file watch reload failed")
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Error().Err(err).Msg("file watcher error")

		case <-w.stopCh:
			if timer != nil {
				timer.Stop()
			}
			return
		}
	}
}
