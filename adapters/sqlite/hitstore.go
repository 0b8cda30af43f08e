package sqlite

import (
	"context"

	"github.com/artpar/hopgate/domain/hit"
	"github.com/artpar/hopgate/ports"
)

// HitStore implements ports.HitStore using SQLite.
type HitStore struct {
	db *DB
}

// NewHitStore creates a new SQLite hit store.
func NewHitStore(db *DB) *HitStore {
	return &HitStore{db: db}
}

// RecordBatch stores multiple hit events in one transaction.
func (s *HitStore) RecordBatch(ctx context.Context, events []hit.Event) error {
	if len(events) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO hits (id, keyword, group_name, kind, fallback, at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, e := range events {
		// Store timestamps in UTC for consistent querying
		_, err := stmt.ExecContext(ctx, e.ID, e.Keyword, e.Group, e.Kind, e.Fallback, e.At.UTC())
		if err != nil {
			return err
		}
	}

	return tx.Commit()
}

// TopKeywords returns the most-resolved keywords, highest count first.
// Ties break alphabetically so results are stable.
func (s *HitStore) TopKeywords(ctx context.Context, limit int) ([]hit.KeywordCount, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT keyword, COUNT(*) AS hits
		FROM hits
		GROUP BY keyword
		ORDER BY hits DESC, keyword ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var counts []hit.KeywordCount
	for rows.Next() {
		var kc hit.KeywordCount
		if err := rows.Scan(&kc.Keyword, &kc.Count); err != nil {
			return nil, err
		}
		counts = append(counts, kc)
	}

	return counts, rows.Err()
}

// CountByKeyword returns the total number of hits per keyword.
func (s *HitStore) CountByKeyword(ctx context.Context) (map[string]int64, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT keyword, COUNT(*)
		FROM hits
		GROUP BY keyword
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[string]int64)
	for rows.Next() {
		var keyword string
		var n int64
		if err := rows.Scan(&keyword, &n); err != nil {
			return nil, err
		}
		counts[keyword] = n
	}

	return counts, rows.Err()
}

// Close closes the underlying database.
func (s *HitStore) Close() error {
	return s.db.Close()
}

// Ensure interface compliance.
var _ ports.HitStore = (*HitStore)(nil)
