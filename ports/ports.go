// Package ports defines interfaces (contracts) between layers.
// These interfaces enable dependency injection and testability.
// Implementations live in adapters/.
package ports

import (
	"context"
	"time"

	"github.com/artpar/hopgate/domain/hit"
	"github.com/artpar/hopgate/domain/hop"
)

// -----------------------------------------------------------------------------
// Infrastructure Ports
// -----------------------------------------------------------------------------

// Clock abstracts time for testability.
type Clock interface {
	Now() time.Time
}

// IDGenerator generates unique identifiers.
type IDGenerator interface {
	New() string
}

// -----------------------------------------------------------------------------
// Resolution Ports
// -----------------------------------------------------------------------------

// Invoker runs a delegate program with the given argument words and
// returns its validated response. Implementations enforce a wall-clock
// timeout and kill the process when it elapses.
type Invoker interface {
	Invoke(ctx context.Context, path string, args []string) (hop.Action, error)
}

// -----------------------------------------------------------------------------
// Hit Log Ports
// -----------------------------------------------------------------------------

// HitStore persists resolution hit events.
type HitStore interface {
	// RecordBatch stores a batch of events.
	RecordBatch(ctx context.Context, events []hit.Event) error

	// TopKeywords returns the most-resolved keywords, highest first.
	TopKeywords(ctx context.Context, limit int) ([]hit.KeywordCount, error)

	// CountByKeyword returns total hits per keyword.
	CountByKeyword(ctx context.Context) (map[string]int64, error)

	// Close releases the underlying resources.
	Close() error
}

// HitRecorder queues hit events for asynchronous persistence.
// Recording must never block or fail a resolution.
type HitRecorder interface {
	Record(e hit.Event)
	Flush(ctx context.Context) error
	Close() error
}
