package search

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/parkside-crm/searchd/pkg/contextkeys"
	"github.com/parkside-crm/searchd/pkg/httputil"
	"github.com/parkside-crm/searchd/pkg/observability"
	"github.com/parkside-crm/searchd/pkg/rel"
)

// Searcher is the slice of the query service the HTTP layer depends on.
// It is satisfied by *QueryService and by *SwappableService.
type Searcher interface {
	Search(ctx context.Context, entity EntityKey, collection *rel.Collection, rawQuery string, sctx Context, limit int) (*rel.Collection, error)
	Parse(rawQuery string) (*ParsedQuery, error)
}

// Handlers serves the HTTP search surface. It resolves the tenant context
// placed on the request by middleware, compiles the search through the
// query service, executes it, and records history for suggestions.
type Handlers struct {
	db          rel.Queryer
	service     Searcher
	suggestions *SuggestionService
	logger      *observability.Logger
}

// NewHandlers creates the search HTTP handlers. suggestions may be nil,
// disabling history recording and the suggestions endpoint data source.
func NewHandlers(db rel.Queryer, service Searcher, suggestions *SuggestionService, logger *observability.Logger) *Handlers {
	return &Handlers{
		db:          db,
		service:     service,
		suggestions: suggestions,
		logger:      logger,
	}
}

// RegisterRoutes attaches the search endpoints to the router.
func (h *Handlers) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/v1/search/suggestions", h.HandleSuggestions).Methods(http.MethodGet)
	router.HandleFunc("/api/v1/{entity}/search", h.HandleSearch).Methods(http.MethodGet)
}

// searchResponse is the wire shape of a search result page.
type searchResponse struct {
	Entity string   `json:"entity"`
	IDs    []string `json:"ids"`
	Count  int      `json:"count"`
}

// HandleSearch handles GET /api/v1/{entity}/search?q=...&limit=...
func (h *Handlers) HandleSearch(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	entity := EntityKey(mux.Vars(r)["entity"])
	rawQuery := httputil.QueryParam(r, "q", "")
	limit := httputil.QueryParamInt(r, "limit", 0)

	sctx := tenantContext(r)

	collection, err := BaseCollection(entity, sctx)
	if err != nil {
		httputil.WriteNotFoundError(w, err.Error())
		return
	}

	start := time.Now()

	result, err := h.service.Search(ctx, entity, collection, rawQuery, sctx, limit)
	if err != nil {
		h.writeSearchError(w, r, err)
		return
	}

	rows, err := result.Query(ctx, h.db, result.Table()+".id")
	if err != nil {
		h.logger.FromContext(ctx).WithError(err).Error("search query failed")
		httputil.WriteInternalError(w, errors.New("search failed"))
		return
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			h.logger.FromContext(ctx).WithError(err).Error("scanning search result")
			httputil.WriteInternalError(w, errors.New("search failed"))
			return
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		h.logger.FromContext(ctx).WithError(err).Error("reading search results")
		httputil.WriteInternalError(w, errors.New("search failed"))
		return
	}

	h.recordHistory(r, entity, rawQuery, len(ids), time.Since(start))

	httputil.WriteSuccess(w, searchResponse{
		Entity: string(entity),
		IDs:    ids,
		Count:  len(ids),
	})
}

// HandleSuggestions handles GET /api/v1/search/suggestions?q=...&limit=...
func (h *Handlers) HandleSuggestions(w http.ResponseWriter, r *http.Request) {
	if h.suggestions == nil {
		httputil.WriteSuccess(w, map[string]interface{}{"suggestions": []string{}})
		return
	}

	prefix := httputil.QueryParam(r, "q", "")
	limit := httputil.QueryParamInt(r, "limit", 0)

	suggestions, err := h.suggestions.Suggestions(r.Context(), prefix, limit)
	if err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Error("suggestion lookup failed")
		httputil.WriteInternalError(w, errors.New("suggestions unavailable"))
		return
	}

	httputil.WriteSuccess(w, map[string]interface{}{"suggestions": suggestions})
}

func (h *Handlers) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	var tooLong *QueryTooLongError
	var unknownEntity *UnknownEntityError
	var unknownProvider *UnknownProviderError

	switch {
	case errors.As(err, &tooLong):
		httputil.WriteValidationError(w, err.Error())
	case errors.As(err, &unknownEntity):
		httputil.WriteNotFoundError(w, err.Error())
	case errors.As(err, &unknownProvider):
		h.logger.FromContext(r.Context()).WithError(err).Error("search misconfigured")
		httputil.WriteInternalError(w, errors.New("search misconfigured"))
	default:
		h.logger.FromContext(r.Context()).WithError(err).Error("search failed")
		httputil.WriteInternalError(w, errors.New("search failed"))
	}
}

// recordHistory stores the masked query for suggestion ranking. Failures
// are logged and swallowed; history must never break a search response.
func (h *Handlers) recordHistory(r *http.Request, entity EntityKey, rawQuery string, resultCount int, duration time.Duration) {
	if h.suggestions == nil {
		return
	}

	parsed, err := h.service.Parse(rawQuery)
	if err != nil || parsed == nil {
		return
	}

	if err := h.suggestions.Record(r.Context(), entity, parsed.Masked, resultCount, duration); err != nil {
		h.logger.FromContext(r.Context()).WithError(err).Warn("recording search history failed")
	}
}

// tenantContext extracts the search context installed by the tenant
// middleware, falling back to an empty context for unscoped requests.
func tenantContext(r *http.Request) Context {
	if sctx, ok := contextkeys.GetTenant(r.Context()).(Context); ok {
		return sctx
	}
	return Context{}
}
