package services

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"golang.org/x/oauth2/clientcredentials"

	"mixmate/internal/config"
	"mixmate/internal/models"
)

// spotifyMaxBatch is the most tracks one add-items request accepts
const spotifyMaxBatch = 100

// SpotifyService talks to the Spotify Web API. Catalog calls use an app token
// from the client credentials flow; playlist calls take the user's token.
type SpotifyService struct {
	client      *resty.Client
	tokenSource *clientcredentials.Config
	accessToken string
	tokenExpiry time.Time
	mu          sync.RWMutex
}

// NewSpotifyService creates a new Spotify service
func NewSpotifyService(cfg *config.PlatformConfig) (*SpotifyService, error) {
	if cfg == nil || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: spotify client id and secret", models.ErrFatalConfig)
	}

	return &SpotifyService{
		client: newRestyClient(cfg),
		tokenSource: &clientcredentials.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			TokenURL:     cfg.TokenURL,
		},
	}, nil
}

// Platform returns the platform name
func (s *SpotifyService) Platform() models.Source {
	return models.SourceSpotify
}

// MaxBatchSize is the chunk size the exporter should use
func (s *SpotifyService) MaxBatchSize() int {
	return spotifyMaxBatch
}

// SearchTracks runs a free-text track search
func (s *SpotifyService) SearchTracks(ctx context.Context, query string, limit int) ([]SpotifyTrack, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	token, err := s.appToken(ctx)
	if err != nil {
		return nil, err
	}

	var result SpotifySearchResult
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetQueryParams(map[string]string{
			"q":     query,
			"type":  "track",
			"limit": fmt.Sprintf("%d", limit),
		}).
		SetResult(&result).
		Get("/search")
	if err != nil {
		return nil, &PlatformError{Platform: "spotify", Operation: "search", Message: "request failed", Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(models.SourceSpotify, "search", resp.StatusCode())
	}

	return result.Tracks.Items, nil
}

// GetTrackByID fetches one track
func (s *SpotifyService) GetTrackByID(ctx context.Context, trackID string) (*SpotifyTrack, error) {
	token, err := s.appToken(ctx)
	if err != nil {
		return nil, err
	}

	var track SpotifyTrack
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("id", trackID).
		SetResult(&track).
		Get("/tracks/{id}")
	if err != nil {
		return nil, &PlatformError{Platform: "spotify", Operation: "get_track", Message: "request failed", Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, &PlatformError{Platform: "spotify", Operation: "get_track", Message: trackID, Err: ErrNotFound}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(models.SourceSpotify, "get_track", resp.StatusCode())
	}

	return &track, nil
}

// GetTrackByISRC finds a track through the isrc: search filter
func (s *SpotifyService) GetTrackByISRC(ctx context.Context, isrc string) (*SpotifyTrack, error) {
	tracks, err := s.SearchTracks(ctx, "isrc:"+isrc, 1)
	if err != nil {
		return nil, err
	}
	if len(tracks) == 0 {
		return nil, &PlatformError{Platform: "spotify", Operation: "get_by_isrc", Message: isrc, Err: ErrNotFound}
	}
	return &tracks[0], nil
}

// CreatePlaylist creates a private playlist owned by the token's user
func (s *SpotifyService) CreatePlaylist(ctx context.Context, userToken, name, description string) (*models.CreatedPlaylist, error) {
	var me struct {
		ID string `json:"id"`
	}
	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(userToken).
		SetResult(&me).
		Get("/me")
	if err != nil {
		return nil, &PlatformError{Platform: "spotify", Operation: "get_user", Message: "request failed", Err: err}
	}
	if resp.StatusCode() != http.StatusOK || me.ID == "" {
		return nil, statusError(models.SourceSpotify, "get_user", resp.StatusCode())
	}

	var created SpotifyPlaylist
	resp, err = s.client.R().
		SetContext(ctx).
		SetAuthToken(userToken).
		SetPathParam("user", me.ID).
		SetBody(map[string]any{
			"name":        name,
			"description": description,
			"public":      false,
		}).
		SetResult(&created).
		Post("/users/{user}/playlists")
	if err != nil {
		return nil, &PlatformError{Platform: "spotify", Operation: "create_playlist", Message: "request failed", Err: err}
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return nil, statusError(models.SourceSpotify, "create_playlist", resp.StatusCode())
	}

	url := created.ExternalURLs.Spotify
	if url == "" {
		url = "https://open.spotify.com/playlist/" + created.ID
	}
	return &models.CreatedPlaylist{ID: created.ID, URL: url}, nil
}

// AddTracks appends track ids to a playlist in a single request
func (s *SpotifyService) AddTracks(ctx context.Context, userToken, playlistID string, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return nil
	}
	if len(trackIDs) > spotifyMaxBatch {
		return fmt.Errorf("spotify accepts at most %d tracks per request, got %d", spotifyMaxBatch, len(trackIDs))
	}

	uris := make([]string, len(trackIDs))
	for i, id := range trackIDs {
		uris[i] = "spotify:track:" + id
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(userToken).
		SetPathParam("id", playlistID).
		SetBody(map[string]any{"uris": uris}).
		Post("/playlists/{id}/tracks")
	if err != nil {
		return &PlatformError{Platform: "spotify", Operation: "add_tracks", Message: "request failed", Err: err}
	}
	if resp.StatusCode() != http.StatusOK && resp.StatusCode() != http.StatusCreated {
		return statusError(models.SourceSpotify, "add_tracks", resp.StatusCode())
	}
	return nil
}

// BuildURL constructs a Spotify URL from a track id
func (s *SpotifyService) BuildURL(trackID string) string {
	return "https://open.spotify.com/track/" + trackID
}

// Health checks that an app token can be obtained
func (s *SpotifyService) Health(ctx context.Context) error {
	_, err := s.appToken(ctx)
	return err
}

// appToken returns a cached client credentials token, refreshing it when expired
func (s *SpotifyService) appToken(ctx context.Context) (string, error) {
	s.mu.RLock()
	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		token := s.accessToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.accessToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.accessToken, nil
	}

	token, err := s.tokenSource.Token(ctx)
	if err != nil {
		return "", &PlatformError{Platform: "spotify", Operation: "auth", Message: "failed to get access token", Err: err}
	}

	s.accessToken = token.AccessToken
	s.tokenExpiry = token.Expiry
	if s.tokenExpiry.IsZero() {
		s.tokenExpiry = time.Now().Add(time.Hour)
	}
	slog.Debug("Spotify access token refreshed", "expires_at", s.tokenExpiry)

	return s.accessToken, nil
}

// ArtistNames joins the credited artist names
func (t SpotifyTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// Spotify API response structures
type SpotifyTrack struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	Artists      []SpotifyArtist     `json:"artists"`
	Album        SpotifyAlbum        `json:"album"`
	DurationMs   int                 `json:"duration_ms"`
	Explicit     bool                `json:"explicit"`
	Popularity   *int                `json:"popularity"`
	PreviewURL   *string             `json:"preview_url"`
	ExternalIDs  SpotifyExternalIDs  `json:"external_ids"`
	ExternalURLs SpotifyExternalURLs `json:"external_urls"`
}

type SpotifyArtist struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type SpotifyAlbum struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	ReleaseDate string         `json:"release_date"`
	Images      []SpotifyImage `json:"images"`
}

type SpotifyImage struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}

type SpotifyExternalIDs struct {
	ISRC string `json:"isrc"`
}

type SpotifyExternalURLs struct {
	Spotify string `json:"spotify"`
}

type SpotifySearchResult struct {
	Tracks SpotifyTracksPaging `json:"tracks"`
}

type SpotifyTracksPaging struct {
	Items []SpotifyTrack `json:"items"`
	Total int            `json:"total"`
}

type SpotifyPlaylist struct {
	ID           string              `json:"id"`
	Name         string              `json:"name"`
	ExternalURLs SpotifyExternalURLs `json:"external_urls"`
}
