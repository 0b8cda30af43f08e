// Package http provides the HTTP surface of the redirector.
package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/artpar/hopgate/adapters/metrics"
	"github.com/artpar/hopgate/app"
	"github.com/artpar/hopgate/domain/hop"
)

// TableSource exposes the currently published route table.
type TableSource interface {
	Current() *hop.Table
}

// HopHandler serves query resolution.
type HopHandler struct {
	resolver *app.Resolver
	logger   zerolog.Logger
}

// NewHopHandler creates the resolution handler.
func NewHopHandler(resolver *app.Resolver, logger zerolog.Logger) *HopHandler {
	return &HopHandler{resolver: resolver, logger: logger}
}

// Hop resolves the "to" query parameter. Redirect actions answer with
// 302 + Location, body actions with the content itself. An unmatched
// query is a plain 404; a delegate failure is a generic 500 so delegate
// internals never leak to the caller.
func (h *HopHandler) Hop(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("to")

	action, err := h.resolver.Resolve(r.Context(), query)
	switch {
	case errors.Is(err, app.ErrNoMatch):
		http.Error(w, "not found", http.StatusNotFound)
	case err != nil:
		h.logger.Error().
			Err(err).
			Str("query", query).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("resolution failed")
		http.Error(w, "something went wrong", http.StatusInternalServerError)
	case action.Kind == hop.ActionBody:
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.Write([]byte(action.Value))
	default:
		http.Redirect(w, r, action.Value, http.StatusFound)
	}
}

// HealthHandler provides health check endpoints.
type HealthHandler struct {
	tables TableSource
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(tables TableSource) *HealthHandler {
	return &HealthHandler{tables: tables}
}

// Liveness returns a simple liveness check.
func (h *HealthHandler) Liveness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// Readiness reports whether a route table has been published yet;
// before that the service cannot answer queries.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.tables == nil || h.tables.Current() == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"status": "unhealthy",
			"error":  "no route table published",
		})
		return
	}

	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// VersionResponse is the version endpoint payload.
type VersionResponse struct {
	Version string `json:"version"`
	Service string `json:"service"`
}

func versionHandler(version string) http.HandlerFunc {
	if version == "" {
		version = "dev"
	}
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(VersionResponse{
			Version: version,
			Service: "hopgate",
		})
	}
}

// RouterConfig holds optional configuration for the router.
type RouterConfig struct {
	Metrics *metrics.Collector // nil disables the /metrics endpoint
	Pages   http.Handler       // index, listing and OpenSearch pages
	Version string             // reported by /version; "dev" when empty
}

// NewRouter creates the main HTTP router.
func NewRouter(hops *HopHandler, health *HealthHandler, logger zerolog.Logger, cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(NewLoggingMiddleware(logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	// Health endpoints
	r.Get("/health", health.Liveness)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	// Metrics endpoint
	if cfg.Metrics != nil {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Get("/version", versionHandler(cfg.Version))

	// Resolution endpoint
	r.Get("/hop", hops.Hop)

	// Browser-facing pages
	if cfg.Pages != nil {
		pages := cfg.Pages
		r.Get("/", pages.ServeHTTP)
		r.Get("/ls", pages.ServeHTTP)
		r.Get("/opensearch.xml", pages.ServeHTTP)
	}

	return r
}

// NewLoggingMiddleware creates a request logging middleware.
func NewLoggingMiddleware(logger zerolog.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			// Skip logging for health checks and metrics
			if strings.HasPrefix(r.URL.Path, "/health") || r.URL.Path == "/metrics" {
				return
			}

			logger.Debug().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("http request")
		})
	}
}
