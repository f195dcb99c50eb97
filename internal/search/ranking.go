package search

import (
	"math"
	"slices"
	"sort"
	"strings"

	"mixmate/internal/config"
	"mixmate/internal/models"
)

// Ranker orders unified songs for display
type Ranker struct {
	preference map[models.Source]int
}

// NewRanker creates a ranker with the given source preference, lower first.
// A nil map falls back to the default preference.
func NewRanker(preference map[string]int) *Ranker {
	if preference == nil {
		preference = config.DefaultMatchingConfig().SourcePreference
	}
	pref := make(map[models.Source]int, len(preference))
	for k, v := range preference {
		pref[models.Source(k)] = v
	}
	return &Ranker{preference: pref}
}

// Rank returns a stably sorted copy of songs. Titles containing the query
// come first, then higher popularity, then the preferred source. Full ties
// keep their incoming order.
func (r *Ranker) Rank(songs []models.UnifiedSong, query string) []models.UnifiedSong {
	ranked := slices.Clone(songs)
	q := strings.ToLower(strings.TrimSpace(query))

	sort.SliceStable(ranked, func(i, j int) bool {
		ti := strings.Contains(strings.ToLower(ranked[i].Title), q)
		tj := strings.Contains(strings.ToLower(ranked[j].Title), q)
		if ti != tj {
			return ti
		}

		pi, pj := popularity(ranked[i]), popularity(ranked[j])
		if pi != pj {
			return pi > pj
		}

		return r.sourceRank(ranked[i].Source) < r.sourceRank(ranked[j].Source)
	})

	return ranked
}

func (r *Ranker) sourceRank(source models.Source) int {
	if rank, ok := r.preference[source]; ok {
		return rank
	}
	return math.MaxInt
}

func popularity(s models.UnifiedSong) int {
	if s.Popularity == nil {
		return 0
	}
	return *s.Popularity
}
