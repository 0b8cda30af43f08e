package sqlite_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/artpar/hopgate/adapters/sqlite"
	"github.com/artpar/hopgate/domain/hit"
)

func setupTestDB(t *testing.T) *sqlite.DB {
	t.Helper()

	db, err := sqlite.Open(filepath.Join(t.TempDir(), "hits.db"))
	if err != nil {
		t.Fatalf("open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func event(id, keyword string, at time.Time) hit.Event {
	return hit.Event{
		ID:      id,
		Keyword: keyword,
		Group:   "search",
		Kind:    "template",
		At:      at,
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	db := setupTestDB(t)

	if err := db.Migrate(); err != nil {
		t.Fatalf("second migrate: %v", err)
	}
}

func TestHitStore_RecordBatchAndCount(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewHitStore(db)
	ctx := context.Background()

	now := time.Now()
	events := []hit.Event{
		event("h-1", "g", now),
		event("h-2", "g", now),
		event("h-3", "w", now),
	}
	if err := store.RecordBatch(ctx, events); err != nil {
		t.Fatalf("RecordBatch() error = %v", err)
	}

	counts, err := store.CountByKeyword(ctx)
	if err != nil {
		t.Fatalf("CountByKeyword() error = %v", err)
	}
	if counts["g"] != 2 {
		t.Errorf("counts[g] = %d, want 2", counts["g"])
	}
	if counts["w"] != 1 {
		t.Errorf("counts[w] = %d, want 1", counts["w"])
	}
}

func TestHitStore_RecordBatch_Empty(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewHitStore(db)

	if err := store.RecordBatch(context.Background(), nil); err != nil {
		t.Fatalf("RecordBatch(nil) error = %v", err)
	}
}

func TestHitStore_TopKeywords(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewHitStore(db)
	ctx := context.Background()

	now := time.Now()
	var events []hit.Event
	for i, kw := range []string{"g", "g", "g", "w", "w", "jira"} {
		events = append(events, event("h-"+string(rune('a'+i)), kw, now))
	}
	if err := store.RecordBatch(ctx, events); err != nil {
		t.Fatalf("RecordBatch() error = %v", err)
	}

	top, err := store.TopKeywords(ctx, 2)
	if err != nil {
		t.Fatalf("TopKeywords() error = %v", err)
	}
	if len(top) != 2 {
		t.Fatalf("len(top) = %d, want 2", len(top))
	}
	if top[0].Keyword != "g" || top[0].Count != 3 {
		t.Errorf("top[0] = %+v, want {g 3}", top[0])
	}
	if top[1].Keyword != "w" || top[1].Count != 2 {
		t.Errorf("top[1] = %+v, want {w 2}", top[1])
	}
}

func TestHitStore_TopKeywords_TiesBreakAlphabetically(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewHitStore(db)
	ctx := context.Background()

	now := time.Now()
	events := []hit.Event{
		event("h-1", "zz", now),
		event("h-2", "aa", now),
	}
	if err := store.RecordBatch(ctx, events); err != nil {
		t.Fatalf("RecordBatch() error = %v", err)
	}

	top, err := store.TopKeywords(ctx, 10)
	if err != nil {
		t.Fatalf("TopKeywords() error = %v", err)
	}
	if len(top) != 2 || top[0].Keyword != "aa" || top[1].Keyword != "zz" {
		t.Errorf("top = %+v, want aa before zz", top)
	}
}

func TestHitStore_DuplicateIDRejected(t *testing.T) {
	db := setupTestDB(t)
	store := sqlite.NewHitStore(db)
	ctx := context.Background()

	now := time.Now()
	if err := store.RecordBatch(ctx, []hit.Event{event("h-1", "g", now)}); err != nil {
		t.Fatalf("first RecordBatch() error = %v", err)
	}
	if err := store.RecordBatch(ctx, []hit.Event{event("h-1", "g", now)}); err == nil {
		t.Error("expected primary key violation for duplicate ID")
	}
}
