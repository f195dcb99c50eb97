// Package resolver finds a song's counterpart on another platform
package resolver

import (
	"context"
	"fmt"
	"log/slog"

	"mixmate/internal/config"
	"mixmate/internal/models"
	"mixmate/internal/scoring"
)

const (
	defaultLimit = 5
	maxLimit     = 10
)

// Searcher is the part of a search source the resolver needs
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.CandidateSong, error)
}

// Options tune a single resolution
type Options struct {
	// A candidate must score strictly above Threshold to match
	Threshold float64
	Weights   scoring.Weights
	// Candidates to inspect, bounded to 1..10
	Limit int
}

// DefaultOptions returns the stock threshold, weights and limit
func DefaultOptions() Options {
	return OptionsFrom(config.DefaultMatchingConfig())
}

// OptionsFrom reads the resolver options from the matching config
func OptionsFrom(cfg *config.MatchingConfig) Options {
	return Options{
		Threshold: cfg.Threshold,
		Weights: scoring.Weights{
			Title:  cfg.Weights.Title,
			Artist: cfg.Weights.Artist,
			Album:  cfg.Weights.Album,
		},
		Limit: cfg.ResolveLimit,
	}
}

func (o Options) limit() int {
	switch {
	case o.Limit <= 0:
		return defaultLimit
	case o.Limit > maxLimit:
		return maxLimit
	}
	return o.Limit
}

// Resolve searches the target catalog for song and picks the best scoring
// candidate. The first candidate wins ties. A search failure is reported as
// an unmatched result, not an error.
func Resolve(ctx context.Context, song models.CandidateSong, searcher Searcher, opts Options) models.MatchResult {
	if !opts.Weights.Valid() {
		opts.Weights = scoring.DefaultWeights()
	}

	query := fmt.Sprintf("%s %s", song.Title, song.Artist)
	candidates, err := searcher.Search(ctx, query, opts.limit())
	if err != nil {
		slog.Warn("Resolver search failed", "query", query, "error", err)
		return models.MatchResult{Reason: models.ReasonSearchFailed}
	}
	if len(candidates) == 0 {
		return models.MatchResult{Reason: models.ReasonNoCandidates}
	}

	best := -1
	bestScore := 0.0
	for i, c := range candidates {
		score := scoring.Confidence(song, c, opts.Weights)
		if best < 0 || score > bestScore {
			best, bestScore = i, score
		}
	}

	if bestScore <= opts.Threshold {
		return models.MatchResult{
			Confidence: bestScore,
			Reason:     models.ReasonBelowThreshold,
		}
	}

	match := candidates[best]
	return models.MatchResult{
		Matched:          true,
		TargetPlatformID: match.SourceID,
		Confidence:       bestScore,
		Candidate:        &match,
	}
}
