package search

import (
	"time"

	"mixmate/internal/models"
)

const (
	// DefaultLimit is used when a search does not ask for a limit
	DefaultLimit = 20

	// MaxLimit caps how many unified songs one search returns
	MaxLimit = 50
)

// Cache TTLs for aggregated search responses
const (
	searchCacheTTL      = 5 * time.Minute
	emptySearchCacheTTL = 1 * time.Minute
)

// SearchResponse is the aggregated, merged and ranked result of a query
type SearchResponse struct {
	Songs     []models.UnifiedSong `json:"songs"`
	Total     int                  `json:"total"`
	HasMore   bool                 `json:"has_more"`
	Query     string               `json:"query"`
	FromCache bool                 `json:"from_cache"`
	Duration  string               `json:"duration"`
}

// EffectiveLimit returns limit with the default and the cap applied
func EffectiveLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}

// perSourceLimit splits limit across n sources, rounding up
func perSourceLimit(limit, n int) int {
	if n <= 1 {
		return limit
	}
	return (limit + n - 1) / n
}

func emptyResponse(query string) *SearchResponse {
	return &SearchResponse{
		Songs: []models.UnifiedSong{},
		Query: query,
	}
}
