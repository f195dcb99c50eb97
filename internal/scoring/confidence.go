package scoring

import (
	"mixmate/internal/models"
)

// Weights controls how much each field contributes to a confidence score.
// The three weights are expected to sum to 1.
type Weights struct {
	Title  float64 `toml:"title"`
	Artist float64 `toml:"artist"`
	Album  float64 `toml:"album"`
}

// DefaultWeights returns the starting title/artist/album weights
func DefaultWeights() Weights {
	return Weights{Title: 0.4, Artist: 0.4, Album: 0.2}
}

// Valid reports whether the weights are non-negative and not all zero
func (w Weights) Valid() bool {
	if w.Title < 0 || w.Artist < 0 || w.Album < 0 {
		return false
	}
	return w.Title+w.Artist+w.Album > 0
}

// Confidence scores how well candidate matches song.
// The album term only compares when both sides carry an album; otherwise it
// contributes its full weight so missing album data is not penalized.
func Confidence(song, candidate models.CandidateSong, w Weights) float64 {
	score := w.Title*Similarity(song.Title, candidate.Title) +
		w.Artist*Similarity(song.Artist, candidate.Artist)

	if song.Album != nil && candidate.Album != nil {
		score += w.Album * Similarity(*song.Album, *candidate.Album)
	} else {
		score += w.Album
	}

	return clamp(score)
}

func clamp(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
