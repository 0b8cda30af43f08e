package bootstrap

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/hopgate/adapters/metrics"
	"github.com/artpar/hopgate/domain/hit"
	"github.com/artpar/hopgate/ports"
)

// LocalHitRecorder buffers hit events and writes them in batches to the
// store. Recording never blocks the resolution path; batch writes happen
// in the background and failures only surface as metrics and log lines.
type LocalHitRecorder struct {
	store         ports.HitStore
	metrics       *metrics.Collector
	logger        zerolog.Logger
	buffer        []hit.Event
	mu            sync.Mutex
	batchSize     int
	flushInterval time.Duration
	stopCh        chan struct{}
	wg            sync.WaitGroup
	closeOnce     sync.Once
}

// NewLocalHitRecorder creates a new local hit recorder.
func NewLocalHitRecorder(store ports.HitStore, collector *metrics.Collector, logger zerolog.Logger, batchSize int, flushInterval time.Duration) *LocalHitRecorder {
	if batchSize <= 0 {
		batchSize = 64
	}
	if flushInterval <= 0 {
		flushInterval = 10 * time.Second
	}

	r := &LocalHitRecorder{
		store:         store,
		metrics:       collector,
		logger:        logger,
		buffer:        make([]hit.Event, 0, batchSize),
		batchSize:     batchSize,
		flushInterval: flushInterval,
		stopCh:        make(chan struct{}),
	}

	r.wg.Add(1)
	go r.flushLoop()

	return r
}

// Record queues a hit event for persistence.
func (r *LocalHitRecorder) Record(e hit.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.buffer = append(r.buffer, e)

	if len(r.buffer) >= r.batchSize {
		r.flushLocked()
	}
}

// Flush forces immediate processing of queued events.
func (r *LocalHitRecorder) Flush(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.flushLocked()
	return nil
}

func (r *LocalHitRecorder) flushLocked() {
	if len(r.buffer) == 0 {
		return
	}

	events := make([]hit.Event, len(r.buffer))
	copy(events, r.buffer)
	r.buffer = r.buffer[:0]

	// Write in background to not block the caller
	go r.write(events)
}

func (r *LocalHitRecorder) write(events []hit.Event) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := r.store.RecordBatch(ctx, events); err != nil {
		r.metrics.HitFlushErrors.Inc()
		r.logger.Error().Err(err).Int("events", len(events)).Msg("hit batch write failed")
		return
	}
	r.metrics.HitsRecorded.Add(float64(len(events)))
}

func (r *LocalHitRecorder) flushLoop() {
	defer r.wg.Done()
	ticker := time.NewTicker(r.flushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.Flush(context.Background())
		case <-r.stopCh:
			return
		}
	}
}

// Close stops the recorder and flushes remaining events synchronously.
func (r *LocalHitRecorder) Close() error {
	var err error
	r.closeOnce.Do(func() {
		close(r.stopCh)
		r.wg.Wait()

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		r.mu.Lock()
		defer r.mu.Unlock()

		if len(r.buffer) > 0 {
			err = r.store.RecordBatch(ctx, r.buffer)
			if err == nil {
				r.metrics.HitsRecorded.Add(float64(len(r.buffer)))
			} else {
				r.metrics.HitFlushErrors.Inc()
			}
			r.buffer = r.buffer[:0]
		}
	})
	return err
}

// noopHitRecorder discards hit events; wired when the hit log is disabled.
type noopHitRecorder struct{}

func (noopHitRecorder) Record(hit.Event) {}

func (noopHitRecorder) Flush(context.Context) error { return nil }

func (noopHitRecorder) Close() error { return nil }

// Ensure interface compliance.
var (
	_ ports.HitRecorder = (*LocalHitRecorder)(nil)
	_ ports.HitRecorder = noopHitRecorder{}
)
