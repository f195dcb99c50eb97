package models

import (
	"errors"
	"strings"
)

// Source identifies the catalog a record came from
type Source string

const (
	SourceSpotify    Source = "spotify"
	SourceYouTube    Source = "youtube"
	SourceAppleMusic Source = "apple_music"
	SourceTidal      Source = "tidal"

	// SourceCombined marks a unified song built from two or more sources
	SourceCombined Source = "combined"
)

// DisplayName returns the human-readable platform name used in messages
func (s Source) DisplayName() string {
	switch s {
	case SourceSpotify:
		return "Spotify"
	case SourceYouTube:
		return "YouTube"
	case SourceAppleMusic:
		return "Apple Music"
	case SourceTidal:
		return "Tidal"
	case SourceCombined:
		return "Combined"
	}
	return string(s)
}

// ErrInvalidCandidate is returned by Validate for records missing required fields
var ErrInvalidCandidate = errors.New("invalid candidate song")

// CandidateSong is a single-source search result after normalization.
// Optional fields are pointers; nil means the source did not provide the value.
type CandidateSong struct {
	SourceID    string   `json:"source_id"`
	Source      Source   `json:"source"`
	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Album       *string  `json:"album,omitempty"`
	DurationMs  *int     `json:"duration_ms,omitempty"`
	Popularity  *int     `json:"popularity,omitempty"` // 0-100
	ImageURL    *string  `json:"image_url,omitempty"`
	PreviewURL  *string  `json:"preview_url,omitempty"`
	ExternalURL *string  `json:"external_url,omitempty"`
	ISRC        *string  `json:"isrc,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	Genres      []string `json:"genres"`
}

// Validate checks the fields every normalized candidate must carry
func (c *CandidateSong) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return errors.Join(ErrInvalidCandidate, errors.New("title is empty"))
	}
	if strings.TrimSpace(c.Artist) == "" {
		return errors.Join(ErrInvalidCandidate, errors.New("artist is empty"))
	}
	if c.DurationMs != nil && *c.DurationMs < 0 {
		return errors.Join(ErrInvalidCandidate, errors.New("duration is negative"))
	}
	return nil
}

// PlatformLink is one platform-specific identifier carried by a unified song
type PlatformLink struct {
	Platform   Source `json:"platform" bson:"platform"`
	ExternalID string `json:"external_id" bson:"external_id"`
	URL        string `json:"url,omitempty" bson:"url,omitempty"`
}

// UnifiedSong is one logical recording merged from every source that returned it
type UnifiedSong struct {
	// ID is the merge key; stable for the same recording within one search
	ID     string `json:"id"`
	Source Source `json:"source"`

	Title       string   `json:"title"`
	Artist      string   `json:"artist"`
	Album       *string  `json:"album,omitempty"`
	DurationMs  *int     `json:"duration_ms,omitempty"`
	Popularity  *int     `json:"popularity,omitempty"`
	ImageURL    *string  `json:"image_url,omitempty"`
	PreviewURL  *string  `json:"preview_url,omitempty"`
	ISRC        *string  `json:"isrc,omitempty"`
	ReleaseDate *string  `json:"release_date,omitempty"`
	Genres      []string `json:"genres"`

	PlatformLinks []PlatformLink `json:"platform_links"`
}

// AddPlatformLink adds or replaces the link for a platform
func (s *UnifiedSong) AddPlatformLink(platform Source, externalID, url string) {
	for i, link := range s.PlatformLinks {
		if link.Platform == platform {
			s.PlatformLinks[i].ExternalID = externalID
			s.PlatformLinks[i].URL = url
			return
		}
	}
	s.PlatformLinks = append(s.PlatformLinks, PlatformLink{
		Platform:   platform,
		ExternalID: externalID,
		URL:        url,
	})
}

// GetPlatformLink returns the link for a platform or nil
func (s *UnifiedSong) GetPlatformLink(platform Source) *PlatformLink {
	for _, link := range s.PlatformLinks {
		if link.Platform == platform {
			return &link
		}
	}
	return nil
}

// HasPlatform reports whether the song carries an identifier for platform
func (s *UnifiedSong) HasPlatform(platform Source) bool {
	return s.GetPlatformLink(platform) != nil
}

// Platforms returns the platforms linked to the song in link order
func (s *UnifiedSong) Platforms() []Source {
	platforms := make([]Source, 0, len(s.PlatformLinks))
	for _, link := range s.PlatformLinks {
		platforms = append(platforms, link.Platform)
	}
	return platforms
}

// MatchResult is the outcome of resolving a song onto a target platform
type MatchResult struct {
	Matched          bool           `json:"matched"`
	TargetPlatformID string         `json:"target_platform_id,omitempty"`
	Confidence       float64        `json:"confidence"`
	Reason           string         `json:"reason,omitempty"`
	Candidate        *CandidateSong `json:"candidate,omitempty"`
	Cached           bool           `json:"cached,omitempty"`
}

// Reasons reported for unmatched results
const (
	ReasonNoCandidates   = "no candidates"
	ReasonBelowThreshold = "below threshold"
	ReasonSearchFailed   = "search failed"
)

// StringPtr returns a pointer to s, or nil when s is blank
func StringPtr(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// IntPtr returns a pointer to n
func IntPtr(n int) *int {
	return &n
}

// Deref returns the pointed-to string or ""
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
