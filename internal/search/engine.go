package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"mixmate/internal/cache"
	"mixmate/internal/config"
	"mixmate/internal/models"
	"mixmate/internal/normalize"
)

// DefaultSourceTimeout bounds a single source call when none is configured
const DefaultSourceTimeout = 8 * time.Second

// Engine fans a query out to every enabled source, then merges and ranks
// what comes back
type Engine struct {
	sources       []Source
	cache         cache.Cache
	sourceTimeout time.Duration
	matching      func() *config.MatchingConfig
}

// NewEngine creates a search engine. Sources are queried and merged in the
// order given. The cache may be nil.
func NewEngine(c cache.Cache, sourceTimeout time.Duration, sources ...Source) *Engine {
	if sourceTimeout <= 0 {
		sourceTimeout = DefaultSourceTimeout
	}
	return &Engine{
		sources:       sources,
		cache:         c,
		sourceTimeout: sourceTimeout,
		matching:      config.GetMatchingConfig,
	}
}

// SearchSongs returns unified songs for query. A source that fails or times
// out is logged and left out; the search itself only fails on a cancelled
// context.
func (e *Engine) SearchSongs(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	start := time.Now()
	query = strings.TrimSpace(query)
	if query == "" {
		return emptyResponse(query), nil
	}
	limit = EffectiveLimit(limit)

	key := CacheKey(query, limit)
	if resp, ok := e.cached(ctx, key); ok {
		slog.Debug("Search cache hit", "query", query, "results", len(resp.Songs))
		resp.FromCache = true
		resp.Duration = time.Since(start).String()
		return resp, nil
	}

	candidates, failed, err := e.fanOut(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	cfg := e.matching()
	ranked := NewRanker(cfg.SourcePreference).Rank(MergeAll(candidates), query)

	resp := &SearchResponse{
		Songs:   ranked,
		Total:   len(ranked),
		HasMore: len(ranked) > limit,
		Query:   query,
	}
	if resp.HasMore {
		resp.Songs = ranked[:limit]
	}
	if resp.Total == 0 {
		slog.Info("Search returned no songs", "query", query, "error", models.ErrNoResults)
	}

	// a partial answer is only good for this call
	if failed == 0 {
		e.store(ctx, key, resp)
	}
	resp.Duration = time.Since(start).String()
	return resp, nil
}

// fanOut queries every enabled source concurrently and reports how many of
// them failed. Each source writes its own slot so results are concatenated
// in registration order.
func (e *Engine) fanOut(ctx context.Context, query string, limit int) ([]models.CandidateSong, int, error) {
	sources := e.EnabledSources()
	if len(sources) == 0 {
		return nil, 0, nil
	}

	suffixes := e.matching().QuerySuffix
	perSource := perSourceLimit(limit, len(sources))
	results := make([][]models.CandidateSong, len(sources))
	failures := make([]bool, len(sources))

	var g errgroup.Group
	for i, src := range sources {
		g.Go(func() error {
			sctx, cancel := context.WithTimeout(ctx, e.sourceTimeout)
			defer cancel()

			found, err := src.Search(sctx, query+suffixes[string(src.Name())], perSource)
			if err != nil {
				slog.Warn("Source search failed",
					"source", src.Name(),
					"query", query,
					"error", fmt.Errorf("%w: %s: %w", models.ErrSourceUnavailable, src.Name(), err))
				failures[i] = true
				return nil
			}
			slog.Debug("Source search completed", "source", src.Name(), "results", len(found), "query", query)
			results[i] = found
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	var all []models.CandidateSong
	failed := 0
	for i, r := range results {
		all = append(all, r...)
		if failures[i] {
			failed++
		}
	}
	return all, failed, nil
}

// EnabledSources returns the enabled sources in registration order
func (e *Engine) EnabledSources() []Source {
	enabled := make([]Source, 0, len(e.sources))
	for _, s := range e.sources {
		if s.IsEnabled() {
			enabled = append(enabled, s)
		}
	}
	return enabled
}

// Source returns the registered source for a platform
func (e *Engine) Source(platform models.Source) (Source, bool) {
	for _, s := range e.sources {
		if s.Name() == platform {
			return s, true
		}
	}
	return nil, false
}

// InvalidateCache drops the cached response for a query
func (e *Engine) InvalidateCache(ctx context.Context, query string, limit int) error {
	if e.cache == nil {
		return nil
	}
	return e.cache.Delete(ctx, CacheKey(strings.TrimSpace(query), EffectiveLimit(limit)))
}

// CacheKey is the cache key of a search response
func CacheKey(query string, limit int) string {
	return fmt.Sprintf("search:%s:%d", normalize.Text(query), limit)
}

func (e *Engine) cached(ctx context.Context, key string) (*SearchResponse, bool) {
	if e.cache == nil {
		return nil, false
	}
	data, err := e.cache.Get(ctx, key)
	if err != nil || data == nil {
		return nil, false
	}
	var resp SearchResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		slog.Warn("Discarding unreadable cached search", "key", key, "error", err)
		return nil, false
	}
	return &resp, true
}

func (e *Engine) store(ctx context.Context, key string, resp *SearchResponse) {
	if e.cache == nil {
		return
	}
	data, err := json.Marshal(resp)
	if err != nil {
		slog.Warn("Failed to encode search response", "key", key, "error", err)
		return
	}
	ttl := searchCacheTTL
	if resp.Total == 0 {
		ttl = emptySearchCacheTTL
	}
	if err := e.cache.Set(ctx, key, data, ttl); err != nil {
		slog.Warn("Failed to cache search results", "key", key, "error", err)
	}
}
