package search

import (
	"context"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/parkside-crm/searchd/pkg/observability"
	"github.com/parkside-crm/searchd/pkg/rel"
)

var tracer = otel.Tracer("searchd/search")

// Config holds the query-time search settings, passed explicitly at
// construction rather than read from ambient state.
type Config struct {
	// Provider names the active predicate backend.
	Provider string

	// QueryMaxLength bounds the normalized query; non-positive disables the
	// check.
	QueryMaxLength int

	// MaxResults caps any per-call limit; non-positive disables the cap.
	MaxResults int
}

// QueryService is the facade other subsystems call to apply a search. It
// validates input, resolves the entity definition and configured provider,
// delegates compilation, applies the optional result cap, and emits one
// PII-safe audit line per applied search.
type QueryService struct {
	cfg       Config
	registry  *Registry
	providers map[string]Provider
	parser    *Parser
	logger    *observability.Logger
	metrics   *observability.Metrics
}

// NewQueryService creates a query service. metrics may be nil.
func NewQueryService(cfg Config, registry *Registry, logger *observability.Logger, metrics *observability.Metrics) *QueryService {
	trigram := NewTrigramProvider()
	return &QueryService{
		cfg:      cfg,
		registry: registry,
		providers: map[string]Provider{
			"postgres":         trigram,
			"postgres_trigram": trigram,
			"postgres_fts":     NewFTSProvider(),
		},
		parser:  NewParser(cfg.QueryMaxLength),
		logger:  logger,
		metrics: metrics,
	}
}

// Search narrows the collection to rows matching the raw query under the
// entity's definition. A blank query returns the collection unchanged.
// limit caps the result size when positive (clamped to the configured
// maximum); zero or negative applies no cap.
//
// The collection comes back unexecuted. Search performs no I/O itself and
// is side-effect-free except for the audit log emission.
func (s *QueryService) Search(ctx context.Context, entity EntityKey, collection *rel.Collection, rawQuery string, sctx Context, limit int) (*rel.Collection, error) {
	_, span := tracer.Start(ctx, "Search",
		trace.WithAttributes(
			attribute.String("search.entity", string(entity)),
			attribute.Int("search.limit", limit),
		),
	)
	defer span.End()

	start := time.Now()

	parsed, err := s.parser.Parse(rawQuery)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "query rejected")
		s.countError("query_too_long")
		return nil, err
	}
	if parsed == nil {
		// Empty query means "apply no search filter"
		span.SetStatus(codes.Ok, "blank query")
		return collection, nil
	}

	// Only the masked form may reach logs and traces
	span.SetAttributes(attribute.String("search.query_masked", parsed.Masked))
	s.logAudit(ctx, entity, sctx, parsed.Masked)

	def, err := s.registry.DefinitionFor(entity)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown entity")
		s.countError("unknown_entity")
		return nil, err
	}

	provider, err := s.providerFor()
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unknown provider")
		s.countError("unknown_provider")
		return nil, err
	}

	result := provider.Apply(collection, def, parsed.Query, sctx)
	result = s.applyLimit(result, limit)

	if s.metrics != nil {
		s.metrics.SearchesTotal.WithLabelValues(string(entity), s.cfg.Provider).Inc()
		s.metrics.SearchDuration.WithLabelValues(string(entity)).Observe(time.Since(start).Seconds())
	}
	span.SetStatus(codes.Ok, "search applied")

	return result, nil
}

// Parse exposes query normalization for callers that need the masked form
// without applying a search (history recording, request validation).
func (s *QueryService) Parse(rawQuery string) (*ParsedQuery, error) {
	return s.parser.Parse(rawQuery)
}

// providerFor resolves the provider named by the configuration.
func (s *QueryService) providerFor() (Provider, error) {
	provider, ok := s.providers[s.cfg.Provider]
	if !ok {
		return nil, &UnknownProviderError{Name: s.cfg.Provider}
	}
	return provider, nil
}

// applyLimit caps the result size. Non-positive limits are ignored;
// positive limits are clamped to the configured maximum.
func (s *QueryService) applyLimit(c *rel.Collection, limit int) *rel.Collection {
	if limit <= 0 {
		return c
	}
	if s.cfg.MaxResults > 0 && limit > s.cfg.MaxResults {
		limit = s.cfg.MaxResults
		if s.metrics != nil {
			s.metrics.SearchResultsCapped.Inc()
		}
	}
	return c.Limit(limit)
}

// SwappableService holds the active query service behind an atomic
// pointer so configuration reloads can replace it without restarting or
// locking the request path.
type SwappableService struct {
	current atomic.Pointer[QueryService]
}

// NewSwappableService wraps an initial query service.
func NewSwappableService(initial *QueryService) *SwappableService {
	s := &SwappableService{}
	s.current.Store(initial)
	return s
}

// Swap replaces the active query service. In-flight requests finish on the
// service they started with.
func (s *SwappableService) Swap(next *QueryService) {
	s.current.Store(next)
}

// Search delegates to the active query service.
func (s *SwappableService) Search(ctx context.Context, entity EntityKey, collection *rel.Collection, rawQuery string, sctx Context, limit int) (*rel.Collection, error) {
	return s.current.Load().Search(ctx, entity, collection, rawQuery, sctx, limit)
}

// Parse delegates to the active query service.
func (s *SwappableService) Parse(rawQuery string) (*ParsedQuery, error) {
	return s.current.Load().Parse(rawQuery)
}

func (s *QueryService) countError(reason string) {
	if s.metrics != nil {
		s.metrics.SearchErrorsTotal.WithLabelValues(reason).Inc()
	}
}

// logAudit emits the one audit line per applied search. The raw and
// normalized query never appear here, only the masked form.
func (s *QueryService) logAudit(ctx context.Context, entity EntityKey, sctx Context, masked string) {
	s.logger.FromContext(ctx).WithFields(map[string]interface{}{
		"entity":    string(entity),
		"tenant_id": sctx.TenantID(),
		"q":         masked,
	}).Info("search applied")
}
