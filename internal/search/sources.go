package search

import (
	"context"
	"fmt"
	"log/slog"

	"mixmate/internal/models"
	"mixmate/internal/normalize"
	"mixmate/internal/services"
)

// Source is one catalog the engine can query
type Source interface {
	Name() models.Source
	IsEnabled() bool
	Search(ctx context.Context, query string, limit int) ([]models.CandidateSong, error)
}

// TrackLookup is implemented by sources that can fetch a track by its id
type TrackLookup interface {
	LookupTrack(ctx context.Context, id string) (*models.CandidateSong, error)
	BuildURL(id string) string
}

// ISRCLookup is implemented by sources with an exact ISRC lookup
type ISRCLookup interface {
	LookupISRC(ctx context.Context, isrc string) (*models.CandidateSong, error)
}

type spotifyAPI interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]services.SpotifyTrack, error)
	GetTrackByID(ctx context.Context, id string) (*services.SpotifyTrack, error)
	GetTrackByISRC(ctx context.Context, isrc string) (*services.SpotifyTrack, error)
	BuildURL(id string) string
}

type youtubeAPI interface {
	SearchVideos(ctx context.Context, query string, limit int) ([]services.YouTubeVideo, error)
	GetVideoByID(ctx context.Context, id string) (*services.YouTubeVideo, error)
	BuildURL(id string) string
}

type appleMusicAPI interface {
	SearchSongs(ctx context.Context, query string, limit int) ([]services.AppleMusicSong, error)
	GetSongByID(ctx context.Context, id string) (*services.AppleMusicSong, error)
	GetSongByISRC(ctx context.Context, isrc string) (*services.AppleMusicSong, error)
	BuildURL(id string) string
}

type tidalAPI interface {
	SearchTracks(ctx context.Context, query string, limit int) ([]*services.TidalTrack, error)
	GetTrackByID(ctx context.Context, id string) (*services.TidalTrack, error)
	GetTrackByISRC(ctx context.Context, isrc string) (*services.TidalTrack, error)
	BuildURL(id string) string
}

// normalizeAll maps raw records, dropping the ones the normalizer rejects
func normalizeAll[T any](source models.Source, records []T, fn func(T) (models.CandidateSong, error)) []models.CandidateSong {
	candidates := make([]models.CandidateSong, 0, len(records))
	for _, r := range records {
		c, err := fn(r)
		if err != nil {
			slog.Debug("Skipping malformed record", "source", source, "error", err)
			continue
		}
		candidates = append(candidates, c)
	}
	return candidates
}

func normalizeOne[T any](record T, fn func(T) (models.CandidateSong, error)) (*models.CandidateSong, error) {
	c, err := fn(record)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// SpotifySource searches the Spotify catalog
type SpotifySource struct {
	api spotifyAPI
}

// NewSpotifySource creates a Spotify search source
func NewSpotifySource(api spotifyAPI) *SpotifySource {
	return &SpotifySource{api: api}
}

func (s *SpotifySource) Name() models.Source { return models.SourceSpotify }

func (s *SpotifySource) IsEnabled() bool { return s.api != nil }

func (s *SpotifySource) Search(ctx context.Context, query string, limit int) ([]models.CandidateSong, error) {
	tracks, err := s.api.SearchTracks(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("spotify search: %w", err)
	}
	return normalizeAll(s.Name(), tracks, normalize.FromSpotify), nil
}

func (s *SpotifySource) LookupTrack(ctx context.Context, id string) (*models.CandidateSong, error) {
	track, err := s.api.GetTrackByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return normalizeOne(*track, normalize.FromSpotify)
}

func (s *SpotifySource) LookupISRC(ctx context.Context, isrc string) (*models.CandidateSong, error) {
	track, err := s.api.GetTrackByISRC(ctx, isrc)
	if err != nil {
		return nil, err
	}
	return normalizeOne(*track, normalize.FromSpotify)
}

func (s *SpotifySource) BuildURL(id string) string { return s.api.BuildURL(id) }

// YouTubeSource searches music videos. YouTube has no ISRC lookup.
type YouTubeSource struct {
	api youtubeAPI
}

// NewYouTubeSource creates a YouTube search source
func NewYouTubeSource(api youtubeAPI) *YouTubeSource {
	return &YouTubeSource{api: api}
}

func (s *YouTubeSource) Name() models.Source { return models.SourceYouTube }

func (s *YouTubeSource) IsEnabled() bool { return s.api != nil }

func (s *YouTubeSource) Search(ctx context.Context, query string, limit int) ([]models.CandidateSong, error) {
	videos, err := s.api.SearchVideos(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("youtube search: %w", err)
	}
	return normalizeAll(s.Name(), videos, normalize.FromYouTube), nil
}

func (s *YouTubeSource) LookupTrack(ctx context.Context, id string) (*models.CandidateSong, error) {
	video, err := s.api.GetVideoByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return normalizeOne(*video, normalize.FromYouTube)
}

func (s *YouTubeSource) BuildURL(id string) string { return s.api.BuildURL(id) }

// AppleMusicSource searches the Apple Music catalog
type AppleMusicSource struct {
	api appleMusicAPI
}

// NewAppleMusicSource creates an Apple Music search source
func NewAppleMusicSource(api appleMusicAPI) *AppleMusicSource {
	return &AppleMusicSource{api: api}
}

func (s *AppleMusicSource) Name() models.Source { return models.SourceAppleMusic }

func (s *AppleMusicSource) IsEnabled() bool { return s.api != nil }

func (s *AppleMusicSource) Search(ctx context.Context, query string, limit int) ([]models.CandidateSong, error) {
	songs, err := s.api.SearchSongs(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("apple music search: %w", err)
	}
	return normalizeAll(s.Name(), songs, normalize.FromAppleMusic), nil
}

func (s *AppleMusicSource) LookupTrack(ctx context.Context, id string) (*models.CandidateSong, error) {
	song, err := s.api.GetSongByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return normalizeOne(*song, normalize.FromAppleMusic)
}

func (s *AppleMusicSource) LookupISRC(ctx context.Context, isrc string) (*models.CandidateSong, error) {
	song, err := s.api.GetSongByISRC(ctx, isrc)
	if err != nil {
		return nil, err
	}
	return normalizeOne(*song, normalize.FromAppleMusic)
}

func (s *AppleMusicSource) BuildURL(id string) string { return s.api.BuildURL(id) }

// TidalSource searches the Tidal catalog
type TidalSource struct {
	api tidalAPI
}

// NewTidalSource creates a Tidal search source
func NewTidalSource(api tidalAPI) *TidalSource {
	return &TidalSource{api: api}
}

func (s *TidalSource) Name() models.Source { return models.SourceTidal }

func (s *TidalSource) IsEnabled() bool { return s.api != nil }

func (s *TidalSource) Search(ctx context.Context, query string, limit int) ([]models.CandidateSong, error) {
	tracks, err := s.api.SearchTracks(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("tidal search: %w", err)
	}
	return normalizeAll(s.Name(), tracks, normalize.FromTidal), nil
}

func (s *TidalSource) LookupTrack(ctx context.Context, id string) (*models.CandidateSong, error) {
	track, err := s.api.GetTrackByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return normalizeOne(track, normalize.FromTidal)
}

func (s *TidalSource) LookupISRC(ctx context.Context, isrc string) (*models.CandidateSong, error) {
	track, err := s.api.GetTrackByISRC(ctx, isrc)
	if err != nil {
		return nil, err
	}
	return normalizeOne(track, normalize.FromTidal)
}

func (s *TidalSource) BuildURL(id string) string { return s.api.BuildURL(id) }
