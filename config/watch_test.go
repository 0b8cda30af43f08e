package config_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/artpar/hopgate/adapters/metrics"
	"github.com/artpar/hopgate/config"
	"github.com/artpar/hopgate/domain/hop"
)

func newTestCollector() *metrics.Collector {
	return metrics.NewWithRegistry(prometheus.NewRegistry())
}

func TestWatcher_InitialConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	w, err := config.NewWatcher(path, zerolog.Nop(), newTestCollector())
	if err != nil {
		t.Fatalf("NewWatcher error: %v", err)
	}
	defer w.Stop()

	cfg := w.Config()
	if cfg == nil {
		t.Fatal("Config returned nil")
	}
	if cfg.DefaultRoute != "g" {
		t.Errorf("DefaultRoute = %s, want g", cfg.DefaultRoute)
	}
}

func TestWatcher_InitialLoadError(t *testing.T) {
	path := writeConfig(t, "groups: {not: a sequence}\n")

	_, err := config.NewWatcher(path, zerolog.Nop(), newTestCollector())
	if err == nil {
		t.Fatal("expected error for malformed config")
	}
}

func TestWatcher_Reload(t *testing.T) {
	path := writeConfig(t, validConfig())

	w, err := config.NewWatcher(path, zerolog.Nop(), newTestCollector())
	if err != nil {
		t.Fatalf("NewWatcher error: %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	var gotTable *hop.Table

	w.OnApply(func(cfg *config.Config, table *hop.Table) {
		mu.Lock()
		gotTable = table
		mu.Unlock()
	})

	newContent := `
groups:
  - name: "search"
    routes:
      ddg: "https://duckduckgo.com/?q={{query}}"
`
	if err := os.WriteFile(path, []byte(newContent), 0644); err != nil {
		t.Fatalf("write new config: %v", err)
	}

	if err := w.Reload(); err != nil {
		t.Fatalf("Reload error: %v", err)
	}

	if w.Config().DefaultRoute != "" {
		t.Errorf("DefaultRoute = %q, want empty after reload", w.Config().DefaultRoute)
	}

	mu.Lock()
	defer mu.Unlock()
	if gotTable == nil {
		t.Fatal("OnApply was not called")
	}
	if _, ok := gotTable.Lookup("ddg"); !ok {
		t.Error("reloaded table is missing keyword ddg")
	}
	if _, ok := gotTable.Lookup("g"); ok {
		t.Error("reloaded table still contains the old keyword g")
	}
}

func TestWatcher_RejectedReloadKeepsOldConfig(t *testing.T) {
	path := writeConfig(t, validConfig())

	w, err := config.NewWatcher(path, zerolog.Nop(), newTestCollector())
	if err != nil {
		t.Fatalf("NewWatcher error: %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	applied := 0
	w.OnApply(func(cfg *config.Config, table *hop.Table) {
		mu.Lock()
		applied++
		mu.Unlock()
	})

	// Parseable but semantically invalid: the default route dangles.
	badContent := `
default_route: "zz"
groups:
  - name: "search"
    routes:
      g: "https://google.com/search?q={{query}}"
`
	if err := os.WriteFile(path, []byte(badContent), 0644); err != nil {
		t.Fatalf("write bad config: %v", err)
	}

	if err := w.Reload(); err == nil {
		t.Fatal("Reload should fail for a dangling default route")
	}

	mu.Lock()
	if applied != 0 {
		t.Errorf("OnApply ran %d times for a rejected reload", applied)
	}
	mu.Unlock()

	if w.Config().DefaultRoute != "g" {
		t.Errorf("DefaultRoute = %q, want the retained g", w.Config().DefaultRoute)
	}

	// The retained configuration still compiles and serves.
	table, err := w.Config().CompileTable()
	if err != nil {
		t.Fatalf("retained config no longer compiles: %v", err)
	}
	if _, ok := table.Resolve("g hello"); !ok {
		t.Error("retained table no longer resolves keyword g")
	}
}

func TestWatcher_FileWatchDebounce(t *testing.T) {
	path := writeConfig(t, `
watch:
  debounce: 200ms
groups:
  - name: "search"
    routes:
      g: "https://google.com/search?q={{query}}"
`)

	w, err := config.NewWatcher(path, zerolog.Nop(), newTestCollector())
	if err != nil {
		t.Fatalf("NewWatcher error: %v", err)
	}
	defer w.Stop()

	var mu sync.Mutex
	applied := 0
	w.OnApply(func(cfg *config.Config, table *hop.Table) {
		mu.Lock()
		applied++
		mu.Unlock()
	})

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	// Rapid successive writes must coalesce into one reload.
	for i := 0; i < 3; i++ {
		content := `
watch:
  debounce: 200ms
groups:
  - name: "search"
    routes:
      ddg: "https://duckduckgo.com/?q={{query}}"
`
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("write config: %v", err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	time.Sleep(700 * time.Millisecond)

	mu.Lock()
	if applied != 1 {
		t.Errorf("reload ran %d times, want 1 (debounced)", applied)
	}
	mu.Unlock()

	cfg := w.Config()
	if len(cfg.Groups) == 0 || len(cfg.Groups[0].Routes) == 0 || cfg.Groups[0].Routes[0].Keyword != "ddg" {
		t.Error("config was not updated by the file watch")
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	path := writeConfig(t, validConfig())

	w, err := config.NewWatcher(path, zerolog.Nop(), newTestCollector())
	if err != nil {
		t.Fatalf("NewWatcher error: %v", err)
	}
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start error: %v", err)
	}

	w.Stop()
	w.Stop()
}

func TestWatcher_ConcurrentConfigAccess(t *testing.T) {
	path := writeConfig(t, validConfig())

	w, err := config.NewWatcher(path, zerolog.Nop(), newTestCollector())
	if err != nil {
		t.Fatalf("NewWatcher error: %v", err)
	}
	defer w.Stop()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				if w.Config() == nil {
					t.Error("concurrent Config returned nil")
				}
			}
		}()
	}

	for i := 0; i < 10; i++ {
		if err := w.Reload(); err != nil {
			t.Errorf("Reload error: %v", err)
		}
	}

	wg.Wait()
}
