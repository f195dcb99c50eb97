package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"

	"mixmate/internal/config"
	"mixmate/internal/models"
)

// PlatformService is the part every catalog adapter has in common. Search
// methods differ per platform because each returns its own raw record type;
// the normalize package turns those into candidates.
type PlatformService interface {
	// Platform returns the source this adapter talks to
	Platform() models.Source

	// BuildURL constructs a public link from a platform id
	BuildURL(id string) string

	// Health checks if the platform can currently be reached
	Health(ctx context.Context) error
}

// newRestyClient builds the shared HTTP client with the retry policy every
// adapter uses
func newRestyClient(cfg *config.PlatformConfig) *resty.Client {
	return resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.TimeoutDuration()).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second)
}

// URLPattern maps a platform link format to the capture group holding its id
type URLPattern struct {
	Regex        *regexp.Regexp
	Platform     models.Source
	TrackIDIndex int
	Description  string
	Examples     []string
}

// URLPatternRegistry holds the link formats ParsePlatformURL understands
type URLPatternRegistry struct {
	patterns []URLPattern
	mu       sync.RWMutex
}

var patternRegistry = &URLPatternRegistry{
	patterns: []URLPattern{
		{
			Regex:        regexp.MustCompile(`(?:https?://)?(?:open\.)?spotify\.com/(?:intl-[a-z]{2}/)?track/([a-zA-Z0-9]+)`),
			Platform:     models.SourceSpotify,
			TrackIDIndex: 1,
			Description:  "Spotify track URLs",
			Examples: []string{
				"https://open.spotify.com/track/4iV5W9uYEdYUVa79Axb7Rh",
				"https://open.spotify.com/intl-de/track/4iV5W9uYEdYUVa79Axb7Rh",
			},
		},
		{
			Regex:        regexp.MustCompile(`(?:https?://)?music\.apple\.com/[a-z]{2}/album/[^?]+\?(?:.*&)?i=(\d+)`),
			Platform:     models.SourceAppleMusic,
			TrackIDIndex: 1,
			Description:  "Apple Music album URLs pointing at a track",
			Examples: []string{
				"https://music.apple.com/us/album/imagine/1440853776?i=1440853777",
			},
		},
		{
			Regex:        regexp.MustCompile(`(?:https?://)?music\.apple\.com/[a-z]{2}/song/(?:[^/]+/)?(\d+)`),
			Platform:     models.SourceAppleMusic,
			TrackIDIndex: 1,
			Description:  "Apple Music song URLs",
			Examples: []string{
				"https://music.apple.com/us/song/imagine/1440853777",
				"music.apple.com/us/song/1440853777",
			},
		},
		{
			Regex:        regexp.MustCompile(`(?:https?://)?(?:www\.|listen\.)?tidal\.com/(?:browse/)?track/(\d+)`),
			Platform:     models.SourceTidal,
			TrackIDIndex: 1,
			Description:  "Tidal track URLs",
			Examples: []string{
				"https://tidal.com/browse/track/77646168",
				"https://listen.tidal.com/track/77646168",
			},
		},
		{
			Regex:        regexp.MustCompile(`(?:https?://)?(?:www\.|m\.|music\.)?youtube\.com/watch\?(?:.*&)?v=([A-Za-z0-9_-]{11})`),
			Platform:     models.SourceYouTube,
			TrackIDIndex: 1,
			Description:  "YouTube and YouTube Music watch URLs",
			Examples: []string{
				"https://www.youtube.com/watch?v=YkgkThdzX-8",
				"https://music.youtube.com/watch?v=YkgkThdzX-8&feature=share",
			},
		},
		{
			Regex:        regexp.MustCompile(`(?:https?://)?youtu\.be/([A-Za-z0-9_-]{11})`),
			Platform:     models.SourceYouTube,
			TrackIDIndex: 1,
			Description:  "YouTube short links",
			Examples: []string{
				"https://youtu.be/YkgkThdzX-8",
			},
		},
	},
}

// Register adds a pattern. Patterns are tried in registration order.
func (r *URLPatternRegistry) Register(pattern URLPattern) error {
	if pattern.Regex == nil {
		return fmt.Errorf("regex cannot be nil")
	}
	if pattern.Platform == "" {
		return fmt.Errorf("platform name cannot be empty")
	}
	if pattern.TrackIDIndex < 1 {
		return fmt.Errorf("trackIDIndex must be >= 1 (capture group index)")
	}
	if err := pattern.validate(); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.patterns = append(r.patterns, pattern)
	return nil
}

// Patterns returns a copy of all registered patterns
func (r *URLPatternRegistry) Patterns() []URLPattern {
	r.mu.RLock()
	defer r.mu.RUnlock()

	patterns := make([]URLPattern, len(r.patterns))
	copy(patterns, r.patterns)
	return patterns
}

// SupportedPlatforms lists each platform with at least one pattern, once
func (r *URLPatternRegistry) SupportedPlatforms() []models.Source {
	seen := make(map[models.Source]bool)
	var platforms []models.Source
	for _, p := range r.Patterns() {
		if !seen[p.Platform] {
			seen[p.Platform] = true
			platforms = append(platforms, p.Platform)
		}
	}
	return platforms
}

// validate checks the pattern against its own examples
func (p URLPattern) validate() error {
	for _, example := range p.Examples {
		matches := p.Regex.FindStringSubmatch(example)
		if len(matches) <= p.TrackIDIndex || matches[p.TrackIDIndex] == "" {
			return fmt.Errorf("pattern failed to match example URL: %s", example)
		}
	}
	return nil
}

// RegisterURLPattern compiles and registers a pattern in the default registry
func RegisterURLPattern(platform models.Source, regexPattern string, trackIDIndex int, description string, examples []string) error {
	regex, err := regexp.Compile(regexPattern)
	if err != nil {
		return fmt.Errorf("invalid regex pattern: %w", err)
	}

	return patternRegistry.Register(URLPattern{
		Regex:        regex,
		Platform:     platform,
		TrackIDIndex: trackIDIndex,
		Description:  description,
		Examples:     examples,
	})
}

// ParsePlatformURL works out which platform a link belongs to and the id it
// points at
func ParsePlatformURL(url string) (models.Source, string, error) {
	for _, pattern := range patternRegistry.Patterns() {
		matches := pattern.Regex.FindStringSubmatch(url)
		if len(matches) > pattern.TrackIDIndex && matches[pattern.TrackIDIndex] != "" {
			return pattern.Platform, matches[pattern.TrackIDIndex], nil
		}
	}

	return "", "", &PlatformError{
		Platform:  "unknown",
		Operation: "parse_url",
		Message:   "unsupported platform URL",
		URL:       url,
	}
}

// SupportedURLPlatforms returns the platforms ParsePlatformURL recognizes
func SupportedURLPlatforms() []models.Source {
	return patternRegistry.SupportedPlatforms()
}

// PlatformError represents an error from a platform service
type PlatformError struct {
	Platform  string
	Operation string
	Message   string
	URL       string
	Err       error
}

func (e *PlatformError) Error() string {
	msg := e.Platform + " " + e.Operation + " failed"
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.URL != "" {
		msg += " (URL: " + e.URL + ")"
	}
	if e.Err != nil {
		msg += " - " + e.Err.Error()
	}
	return msg
}

func (e *PlatformError) Unwrap() error {
	return e.Err
}

// statusError builds the PlatformError for an unexpected HTTP status
func statusError(platform models.Source, operation string, status int) *PlatformError {
	return &PlatformError{
		Platform:  string(platform),
		Operation: operation,
		Message:   fmt.Sprintf("API returned status %d", status),
	}
}

// ErrNotFound is wrapped by adapters when a lookup by id or ISRC has no hit
var ErrNotFound = errors.New("track not found")
