// Package app provides application services that orchestrate domain logic.
package app

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/artpar/hopgate/adapters/metrics"
	"github.com/artpar/hopgate/domain/hit"
	"github.com/artpar/hopgate/domain/hop"
	"github.com/artpar/hopgate/ports"
)

// ErrNoMatch reports that neither a route nor the default route could
// serve the query.
var ErrNoMatch = errors.New("no route matches the query")

// Resolver turns raw query strings into actions using the currently
// published route table. Tables are swapped atomically, so resolutions
// started before a publish finish against the table they started with.
type Resolver struct {
	invoker ports.Invoker
	hits    ports.HitRecorder
	clock   ports.Clock
	idGen   ports.IDGenerator
	metrics *metrics.Collector
	logger  zerolog.Logger

	table atomic.Pointer[hop.Table]
}

// ResolverDeps contains dependencies for Resolver.
type ResolverDeps struct {
	Invoker ports.Invoker
	Hits    ports.HitRecorder // optional; nil disables hit recording
	Clock   ports.Clock
	IDGen   ports.IDGenerator
	Metrics *metrics.Collector
	Logger  zerolog.Logger
}

// NewResolver creates a resolver. No table is published yet; call
// Publish before serving queries.
func NewResolver(deps ResolverDeps) *Resolver {
	return &Resolver{
		invoker: deps.Invoker,
		hits:    deps.Hits,
		clock:   deps.Clock,
		idGen:   deps.IDGen,
		metrics: deps.Metrics,
		logger:  deps.Logger.With().Str("service", "resolver").Logger(),
	}
}

// Publish swaps in a new route table. Safe to call while Resolve runs.
func (s *Resolver) Publish(table *hop.Table) {
	s.table.Store(table)
}

// Current returns the published route table, or nil before the first
// Publish.
func (s *Resolver) Current() *hop.Table {
	return s.table.Load()
}

// Resolve maps a query to an action. Template routes expand immediately;
// exec routes invoke their delegate program. Returns ErrNoMatch when the
// table has no answer for the query.
func (s *Resolver) Resolve(ctx context.Context, query string) (hop.Action, error) {
	start := time.Now()

	table := s.table.Load()
	if table == nil {
		s.metrics.ResolutionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return hop.Action{}, errors.New("no route table published")
	}

	h, ok := table.Resolve(query)
	if !ok {
		s.metrics.ResolutionsTotal.WithLabelValues(metrics.OutcomeUnmatched).Inc()
		s.logger.Debug().Str("query", query).Msg("query matched no route")
		return hop.Action{}, ErrNoMatch
	}

	var (
		action hop.Action
		err    error
	)
	switch h.Route.Kind {
	case hop.KindExec:
		action, err = s.invoker.Invoke(ctx, h.Route.Exec, h.Args)
	default:
		action = hop.RedirectAction(hop.Expand(h.Route.Template, h.Args))
	}
	s.metrics.ResolveDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.metrics.ResolutionsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return hop.Action{}, fmt.Errorf("route %q: %w", h.Route.Keyword, err)
	}

	outcome := metrics.OutcomeMatched
	if h.Fallback {
		outcome = metrics.OutcomeDefault
	}
	s.metrics.ResolutionsTotal.WithLabelValues(outcome).Inc()

	s.logger.Debug().
		Str("keyword", h.Route.Keyword).
		Str("kind", string(h.Route.Kind)).
		Bool("fallback", h.Fallback).
		Msg("query resolved")

	s.recordHit(h)
	return action, nil
}

// recordHit queues the resolution for the hit log. Never blocks.
func (s *Resolver) recordHit(h hop.Hit) {
	if s.hits == nil {
		return
	}
	s.hits.Record(hit.Event{
		ID:       s.idGen.New(),
		Keyword:  h.Route.Keyword,
		Group:    h.Route.Group,
		Kind:     string(h.Route.Kind),
		Fallback: h.Fallback,
		At:       s.clock.Now(),
	})
}
