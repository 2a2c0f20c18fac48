package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/parkside-crm/searchd/pkg/observability"
)

const (
	suggestionCacheSize = 512
	suggestionCacheTTL  = 5 * time.Minute

	suggestionMinLimit = 1
	suggestionMaxLimit = 20
	suggestionDefault  = 5
)

// SuggestionService records executed searches and serves prefix-based query
// suggestions ranked by popularity. Lookups go through two cache tiers, an
// in-process LRU and an optional Redis layer, before hitting the
// search_suggestions materialized view.
//
// Only masked queries may be recorded; the caller is responsible for
// masking before Record.
type SuggestionService struct {
	db      *sql.DB
	redis   *redis.Client
	local   *lru.Cache[string, []string]
	logger  *observability.Logger
	metrics *observability.Metrics
}

// NewSuggestionService creates a suggestion service. redisClient and
// metrics may be nil; the local LRU tier is always active.
func NewSuggestionService(db *sql.DB, redisClient *redis.Client, logger *observability.Logger, metrics *observability.Metrics) (*SuggestionService, error) {
	local, err := lru.New[string, []string](suggestionCacheSize)
	if err != nil {
		return nil, fmt.Errorf("creating suggestion cache: %w", err)
	}

	return &SuggestionService{
		db:      db,
		redis:   redisClient,
		local:   local,
		logger:  logger,
		metrics: metrics,
	}, nil
}

// Record appends one row of search history. History feeds the suggestion
// view; failures here must never fail the search itself, so callers treat
// the returned error as advisory.
func (s *SuggestionService) Record(ctx context.Context, entity EntityKey, maskedQuery string, resultCount int, duration time.Duration) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO search_history (entity, query, result_count, search_duration_ms, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		string(entity), maskedQuery, resultCount, duration.Milliseconds(), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("recording search history: %w", err)
	}
	return nil
}

// Suggestions returns up to limit popular past queries starting with
// prefix, most-searched first. limit is clamped to [1, 20]; zero or
// negative falls back to the default of 5.
func (s *SuggestionService) Suggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	if limit <= 0 {
		limit = suggestionDefault
	}
	if limit < suggestionMinLimit {
		limit = suggestionMinLimit
	}
	if limit > suggestionMaxLimit {
		limit = suggestionMaxLimit
	}

	key := fmt.Sprintf("suggest:%s:%d", prefix, limit)

	if cached, ok := s.local.Get(key); ok {
		s.countCacheHit("l1")
		return cached, nil
	}

	if s.redis != nil {
		raw, err := s.redis.Get(ctx, key).Result()
		if err == nil {
			var suggestions []string
			if err := json.Unmarshal([]byte(raw), &suggestions); err == nil {
				s.countCacheHit("l2")
				s.local.Add(key, suggestions)
				return suggestions, nil
			}
		} else if err != redis.Nil {
			s.logger.WithError(err).Warn("suggestion cache read failed")
		}
	}

	s.countCacheMiss()

	suggestions, err := s.querySuggestions(ctx, prefix, limit)
	if err != nil {
		return nil, err
	}

	s.local.Add(key, suggestions)
	if s.redis != nil {
		if payload, err := json.Marshal(suggestions); err == nil {
			if err := s.redis.Set(ctx, key, payload, suggestionCacheTTL).Err(); err != nil {
				s.logger.WithError(err).Warn("suggestion cache write failed")
			}
		}
	}

	return suggestions, nil
}

func (s *SuggestionService) querySuggestions(ctx context.Context, prefix string, limit int) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT query FROM search_suggestions
		 WHERE query LIKE $1
		 ORDER BY search_count DESC, last_searched_at DESC
		 LIMIT $2`,
		escapeLike(prefix)+"%", limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying suggestions: %w", err)
	}
	defer rows.Close()

	suggestions := make([]string, 0, limit)
	for rows.Next() {
		var query string
		if err := rows.Scan(&query); err != nil {
			return nil, fmt.Errorf("scanning suggestion: %w", err)
		}
		suggestions = append(suggestions, query)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading suggestions: %w", err)
	}

	return suggestions, nil
}

// Refresh rebuilds the search_suggestions materialized view from the
// accumulated history and drops the local cache tier. Intended to run on a
// schedule; CONCURRENTLY keeps lookups readable during the rebuild.
func (s *SuggestionService) Refresh(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `REFRESH MATERIALIZED VIEW CONCURRENTLY search_suggestions`); err != nil {
		return fmt.Errorf("refreshing suggestions: %w", err)
	}

	s.local.Purge()
	s.logger.Info("search suggestions refreshed")
	return nil
}

func (s *SuggestionService) countCacheHit(tier string) {
	if s.metrics != nil {
		s.metrics.SuggestionCacheHitsTotal.WithLabelValues(tier).Inc()
	}
}

func (s *SuggestionService) countCacheMiss() {
	if s.metrics != nil {
		s.metrics.SuggestionCacheMissesTotal.Inc()
	}
}
