package services

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"reflect"

	"github.com/go-resty/resty/v2"
	"github.com/google/jsonapi"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"mixmate/internal/config"
	"mixmate/internal/models"
)

const (
	tidalCountryCode = "US"
	tidalMediaType   = "application/vnd.api+json"
)

// TidalService queries the Tidal catalog (openapi v2, JSON:API payloads)
type TidalService struct {
	client *resty.Client
	tokens oauth2.TokenSource
}

// NewTidalService creates a new Tidal service instance
func NewTidalService(cfg *config.PlatformConfig) (*TidalService, error) {
	if cfg == nil || cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, fmt.Errorf("%w: tidal client id and secret", models.ErrFatalConfig)
	}
	if cfg.AuthMethod != "" && cfg.AuthMethod != config.AuthMethodOAuth2 {
		return nil, fmt.Errorf("tidal requires OAuth2 authentication, got %s", cfg.AuthMethod)
	}

	cc := &clientcredentials.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		TokenURL:     cfg.TokenURL,
		AuthStyle:    oauth2.AuthStyleInParams,
	}

	return &TidalService{
		client: newRestyClient(cfg).SetHeader("Accept", tidalMediaType),
		tokens: cc.TokenSource(context.Background()),
	}, nil
}

// Platform returns the platform name
func (t *TidalService) Platform() models.Source {
	return models.SourceTidal
}

// BuildURL constructs a Tidal URL from track ID
func (t *TidalService) BuildURL(trackID string) string {
	return buildTidalURL(trackID)
}

// SearchTracks returns the tracks of a search, with artists and albums resolved
func (t *TidalService) SearchTracks(ctx context.Context, query string, limit int) ([]*TidalTrack, error) {
	if query == "" {
		return nil, &PlatformError{Platform: "tidal", Operation: "search", Message: "empty search query"}
	}

	body, err := t.get(ctx, "search", "/searchResults/"+url.PathEscape(query), map[string]string{
		"include": "tracks,tracks.artists,tracks.albums",
	})
	if err != nil {
		return nil, err
	}

	var result TidalSearchResult
	if err := jsonapi.UnmarshalPayload(bytes.NewReader(body), &result); err != nil {
		return nil, &PlatformError{Platform: "tidal", Operation: "search", Message: "failed to decode response", Err: err}
	}

	tracks := make([]*TidalTrack, 0, len(result.Tracks))
	for _, track := range result.Tracks {
		if track != nil {
			tracks = append(tracks, track)
		}
	}
	if limit > 0 && len(tracks) > limit {
		tracks = tracks[:limit]
	}
	return tracks, nil
}

// GetTrackByID fetches a track with its artists and albums
func (t *TidalService) GetTrackByID(ctx context.Context, trackID string) (*TidalTrack, error) {
	body, err := t.get(ctx, "get_track", "/tracks/"+url.PathEscape(trackID), map[string]string{
		"include": "artists,albums",
	})
	if err != nil {
		return nil, err
	}

	var track TidalTrack
	if err := jsonapi.UnmarshalPayload(bytes.NewReader(body), &track); err != nil {
		return nil, &PlatformError{Platform: "tidal", Operation: "get_track", Message: "failed to decode response", Err: err}
	}
	return &track, nil
}

// GetTrackByISRC uses the tracks collection's isrc filter
func (t *TidalService) GetTrackByISRC(ctx context.Context, isrc string) (*TidalTrack, error) {
	if isrc == "" {
		return nil, &PlatformError{Platform: "tidal", Operation: "get_by_isrc", Message: "ISRC cannot be empty"}
	}

	body, err := t.get(ctx, "get_by_isrc", "/tracks", map[string]string{
		"filter[isrc]": isrc,
		"include":      "artists,albums",
	})
	if err != nil {
		return nil, err
	}

	items, err := jsonapi.UnmarshalManyPayload(bytes.NewReader(body), reflect.TypeOf(new(TidalTrack)))
	if err != nil {
		return nil, &PlatformError{Platform: "tidal", Operation: "get_by_isrc", Message: "failed to decode response", Err: err}
	}
	for _, item := range items {
		if track, ok := item.(*TidalTrack); ok {
			return track, nil
		}
	}
	return nil, &PlatformError{Platform: "tidal", Operation: "get_by_isrc", Message: isrc, Err: ErrNotFound}
}

// Health checks that a client credentials token can be obtained
func (t *TidalService) Health(ctx context.Context) error {
	if _, err := t.tokens.Token(); err != nil {
		return &PlatformError{Platform: "tidal", Operation: "health_check", Message: "token request failed", Err: err}
	}
	return nil
}

// get performs an authenticated GET and returns the raw JSON:API document
func (t *TidalService) get(ctx context.Context, operation, path string, params map[string]string) ([]byte, error) {
	token, err := t.tokens.Token()
	if err != nil {
		return nil, &PlatformError{Platform: "tidal", Operation: "auth", Message: "failed to get access token", Err: err}
	}

	resp, err := t.client.R().
		SetContext(ctx).
		SetAuthToken(token.AccessToken).
		SetQueryParam("countryCode", tidalCountryCode).
		SetQueryParams(params).
		Get(path)
	if err != nil {
		return nil, &PlatformError{Platform: "tidal", Operation: operation, Message: "request failed", Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return nil, &PlatformError{Platform: "tidal", Operation: operation, Err: ErrNotFound}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, statusError(models.SourceTidal, operation, resp.StatusCode())
	}
	return resp.Body(), nil
}
