// Package web provides the browser-facing pages: the landing page with
// search-engine setup instructions, the route listing and the OpenSearch
// description document. All templates are embedded in the binary.
package web

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/artpar/hopgate/domain/hop"
)

//go:embed templates/*
var assets embed.FS

// TableSource exposes the currently published route table.
type TableSource interface {
	Current() *hop.Table
}

// HitCounter reports accumulated hit totals per keyword.
type HitCounter interface {
	CountByKeyword(ctx context.Context) (map[string]int64, error)
}

// Handler provides the page endpoints.
type Handler struct {
	tables        TableSource
	hits          HitCounter
	publicAddress func() string
	pages         *template.Template
	opensearch    *texttemplate.Template
	logger        zerolog.Logger
}

// Deps contains dependencies for the web handler.
type Deps struct {
	Tables        TableSource
	Hits          HitCounter    // optional; nil hides hit counts on the listing
	PublicAddress func() string // current public address, re-read per request
	Logger        zerolog.Logger
}

// NewHandler creates a new page handler.
func NewHandler(deps Deps) (*Handler, error) {
	pages, err := template.ParseFS(assets, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse page templates: %w", err)
	}

	// The OpenSearch descriptor is XML, outside html/template's contexts.
	// Its only input is the operator-configured public address.
	opensearch, err := texttemplate.ParseFS(assets, "templates/opensearch.xml")
	if err != nil {
		return nil, fmt.Errorf("parse opensearch template: %w", err)
	}

	return &Handler{
		tables:        deps.Tables,
		hits:          deps.Hits,
		publicAddress: deps.PublicAddress,
		pages:         pages,
		opensearch:    opensearch,
		logger:        deps.Logger,
	}, nil
}

// Router returns the page router.
func (h *Handler) Router() chi.Router {
	r := chi.NewRouter()
	r.Get("/", h.Index)
	r.Get("/ls", h.List)
	r.Get("/opensearch.xml", h.OpenSearch)
	return r
}

type indexData struct {
	BaseURL string
}

// Index serves the landing page with setup instructions.
func (h *Handler) Index(w http.ResponseWriter, r *http.Request) {
	h.render(w, "index.html", indexData{BaseURL: h.baseURL()})
}

type routeView struct {
	Keyword     string
	Description string
	Destination string
	Args        string
	Hits        int64
}

type groupView struct {
	Name        string
	Description string
	Routes      []routeView
}

type listData struct {
	Groups   []groupView
	ShowHits bool
}

// List serves the route listing over the current table snapshot.
// Hidden groups and routes are omitted.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	table := h.tables.Current()
	if table == nil {
		http.Error(w, "no routes loaded", http.StatusServiceUnavailable)
		return
	}

	counts := h.hitCounts(r.Context())
	data := listData{ShowHits: counts != nil}

	for _, g := range table.Groups() {
		if g.Hidden {
			continue
		}
		gv := groupView{Name: g.Name, Description: g.Description}
		for _, rt := range g.Routes {
			if rt.Hidden {
				continue
			}
			rv := routeView{
				Keyword:     rt.Keyword,
				Description: rt.Description,
				Destination: rt.Destination(),
				Args:        rt.ArgRange(),
			}
			if counts != nil {
				rv.Hits = counts[rt.Keyword]
			}
			gv.Routes = append(gv.Routes, rv)
		}
		if len(gv.Routes) == 0 {
			continue
		}
		data.Groups = append(data.Groups, gv)
	}

	h.render(w, "list.html", data)
}

// OpenSearch serves the search-engine description document.
func (h *Handler) OpenSearch(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/opensearchdescription+xml")
	if err := h.opensearch.ExecuteTemplate(w, "opensearch.xml", indexData{BaseURL: h.baseURL()}); err != nil {
		h.logger.Error().Err(err).Msg("opensearch render error")
	}
}

// hitCounts loads per-keyword totals; a missing or failing hit log just
// means the listing shows no counts.
func (h *Handler) hitCounts(ctx context.Context) map[string]int64 {
	if h.hits == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	counts, err := h.hits.CountByKeyword(ctx)
	if err != nil {
		h.logger.Warn().Err(err).Msg("hit counts unavailable")
		return nil
	}
	return counts
}

// baseURL derives an absolute base from the configured public address.
func (h *Handler) baseURL() string {
	addr := h.publicAddress()
	if strings.Contains(addr, "://") {
		return strings.TrimSuffix(addr, "/")
	}
	return "https://" + addr
}

func (h *Handler) render(w http.ResponseWriter, name string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.pages.ExecuteTemplate(w, name, data); err != nil {
		h.logger.Error().Err(err).Str("template", name).Msg("template render error")
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
	}
}
