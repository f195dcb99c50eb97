package resolver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"mixmate/internal/config"
	"mixmate/internal/models"
	"mixmate/internal/search"
	"mixmate/internal/services"
)

// Source is a catalog the service can resolve onto
type Source interface {
	Name() models.Source
	Searcher
}

// ISRCLookup is implemented by sources with an exact ISRC lookup
type ISRCLookup interface {
	LookupISRC(ctx context.Context, isrc string) (*models.CandidateSong, error)
}

// TrackLookup is implemented by sources that can fetch a track by id
type TrackLookup interface {
	LookupTrack(ctx context.Context, id string) (*models.CandidateSong, error)
	BuildURL(id string) string
}

// MappingStore persists resolved ids. FindMapping returns nil, nil on a miss.
type MappingStore interface {
	FindMapping(ctx context.Context, key string, platform models.Source) (*models.SongMapping, error)
	SaveMapping(ctx context.Context, mapping *models.SongMapping) error
}

// Service resolves songs onto registered platforms, consulting the mapping
// store first and the target's ISRC lookup second
type Service struct {
	sources map[models.Source]Source
	order   []models.Source
	store   MappingStore
	options func() Options
}

// NewService creates a resolution service. The store may be nil.
func NewService(store MappingStore, sources ...Source) *Service {
	s := &Service{
		sources: make(map[models.Source]Source, len(sources)),
		store:   store,
		options: func() Options { return OptionsFrom(config.GetMatchingConfig()) },
	}
	for _, src := range sources {
		if _, dup := s.sources[src.Name()]; !dup {
			s.order = append(s.order, src.Name())
		}
		s.sources[src.Name()] = src
	}
	return s
}

// Platforms returns the registered platforms in registration order
func (s *Service) Platforms() []models.Source {
	return append([]models.Source(nil), s.order...)
}

// ResolveOn finds song on the target platform. An unmatched song is a
// normal result; errors are reserved for unknown platforms and cancelled
// contexts.
func (s *Service) ResolveOn(ctx context.Context, song models.CandidateSong, target models.Source) (models.MatchResult, error) {
	src, ok := s.sources[target]
	if !ok {
		return models.MatchResult{}, fmt.Errorf("%w: %s", models.ErrUnknownPlatform, target)
	}

	if song.Source == target && song.SourceID != "" {
		c := song
		return models.MatchResult{Matched: true, TargetPlatformID: song.SourceID, Confidence: 1.0, Candidate: &c}, nil
	}

	key := search.MergeKey(song)
	if result, ok := s.fromStore(ctx, key, target); ok {
		return result, nil
	}

	result := s.byISRC(ctx, song, src)
	if !result.Matched {
		result = Resolve(ctx, song, src, s.options())
	}
	if err := ctx.Err(); err != nil {
		return models.MatchResult{}, err
	}

	if result.Matched {
		s.save(ctx, key, target, result)
	} else {
		slog.Debug("Song not resolved",
			"title", song.Title,
			"artist", song.Artist,
			"target", target,
			"reason", result.Reason,
			"error", models.ErrUnresolvedMatch)
	}
	return result, nil
}

// Lookup parses a platform link, fetches the track and resolves it onto
// every other registered platform
func (s *Service) Lookup(ctx context.Context, rawURL string) (*models.UnifiedSong, error) {
	platform, id, err := services.ParsePlatformURL(rawURL)
	if err != nil {
		return nil, err
	}

	lookup, ok := s.sources[platform].(TrackLookup)
	if !ok {
		return nil, fmt.Errorf("%w: %s", models.ErrUnknownPlatform, platform)
	}

	track, err := lookup.LookupTrack(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("lookup %s track %s: %w", platform, id, err)
	}

	merged := search.MergeAll([]models.CandidateSong{*track})
	if len(merged) == 0 {
		return nil, fmt.Errorf("lookup %s track %s: %w", platform, id, models.ErrInvalidCandidate)
	}
	song := merged[0]
	if link := song.GetPlatformLink(platform); link != nil && link.URL == "" {
		song.AddPlatformLink(platform, id, lookup.BuildURL(id))
	}

	for _, target := range s.order {
		if target == platform {
			continue
		}
		result, err := s.ResolveOn(ctx, *track, target)
		if err != nil {
			return nil, err
		}
		if !result.Matched {
			continue
		}
		song.AddPlatformLink(target, result.TargetPlatformID, s.linkURL(target, result))
		song.Source = models.SourceCombined
	}

	return &song, nil
}

func (s *Service) byISRC(ctx context.Context, song models.CandidateSong, src Source) models.MatchResult {
	lookup, ok := src.(ISRCLookup)
	if !ok || song.ISRC == nil || *song.ISRC == "" {
		return models.MatchResult{}
	}

	found, err := lookup.LookupISRC(ctx, *song.ISRC)
	if err != nil {
		if !errors.Is(err, services.ErrNotFound) {
			slog.Warn("ISRC lookup failed", "isrc", *song.ISRC, "target", src.Name(), "error", err)
		}
		return models.MatchResult{}
	}
	if found == nil || found.SourceID == "" {
		return models.MatchResult{}
	}

	slog.Info("Found song on platform via ISRC", "target", src.Name(), "isrc", *song.ISRC)
	return models.MatchResult{
		Matched:          true,
		TargetPlatformID: found.SourceID,
		Confidence:       1.0,
		Candidate:        found,
	}
}

func (s *Service) fromStore(ctx context.Context, key string, target models.Source) (models.MatchResult, bool) {
	if s.store == nil {
		return models.MatchResult{}, false
	}
	mapping, err := s.store.FindMapping(ctx, key, target)
	if err != nil {
		slog.Warn("Mapping lookup failed", "key", key, "target", target, "error", err)
		return models.MatchResult{}, false
	}
	if mapping == nil || mapping.PlatformID == "" {
		return models.MatchResult{}, false
	}

	return models.MatchResult{
		Matched:          true,
		TargetPlatformID: mapping.PlatformID,
		Confidence:       mapping.Confidence,
		Cached:           true,
		Candidate: &models.CandidateSong{
			SourceID:    mapping.PlatformID,
			Source:      target,
			ExternalURL: models.StringPtr(mapping.URL),
		},
	}, true
}

func (s *Service) save(ctx context.Context, key string, target models.Source, result models.MatchResult) {
	if s.store == nil {
		return
	}
	now := time.Now()
	mapping := &models.SongMapping{
		Key:        key,
		Platform:   target,
		PlatformID: result.TargetPlatformID,
		URL:        s.linkURL(target, result),
		Confidence: result.Confidence,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.store.SaveMapping(ctx, mapping); err != nil {
		slog.Error("Failed to save song mapping", "key", key, "target", target, "error", err)
	}
}

func (s *Service) linkURL(target models.Source, result models.MatchResult) string {
	if result.Candidate != nil && result.Candidate.ExternalURL != nil {
		return *result.Candidate.ExternalURL
	}
	if lookup, ok := s.sources[target].(TrackLookup); ok {
		return lookup.BuildURL(result.TargetPlatformID)
	}
	return ""
}
