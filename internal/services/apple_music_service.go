package services

import (
	"context"
	"crypto/ecdsa"
	"crypto/x509"
	"encoding/json"
	"encoding/pem"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"

	"mixmate/internal/cache"
	"mixmate/internal/config"
	"mixmate/internal/models"
)

// Cache TTLs for Apple Music API responses
const (
	appleMusicTrackCacheTTL  = 4 * time.Hour
	appleMusicSearchCacheTTL = 2 * time.Hour
	appleMusicISRCCacheTTL   = 24 * time.Hour
)

const appleMusicStorefront = "us"

// AppleMusicService queries the Apple Music catalog with a developer token
type AppleMusicService struct {
	client      *resty.Client
	keyID       string
	teamID      string
	privateKey  *ecdsa.PrivateKey
	jwtToken    string
	tokenExpiry time.Time
	cache       cache.Cache
	mu          sync.RWMutex
}

// NewAppleMusicService loads the signing key and creates the client
func NewAppleMusicService(cfg *config.PlatformConfig, c cache.Cache) (*AppleMusicService, error) {
	if cfg == nil || cfg.KeyID == "" || cfg.TeamID == "" {
		return nil, fmt.Errorf("%w: apple music key id and team id", models.ErrFatalConfig)
	}

	key, err := loadPrivateKey(cfg.KeyFile)
	if err != nil {
		return nil, &PlatformError{Platform: "apple_music", Operation: "init", Message: "failed to load private key", Err: err}
	}

	return &AppleMusicService{
		client:     newRestyClient(cfg),
		keyID:      cfg.KeyID,
		teamID:     cfg.TeamID,
		privateKey: key,
		cache:      c,
	}, nil
}

// Platform returns the platform name
func (s *AppleMusicService) Platform() models.Source {
	return models.SourceAppleMusic
}

// SearchSongs runs a catalog search for songs
func (s *AppleMusicService) SearchSongs(ctx context.Context, query string, limit int) ([]AppleMusicSong, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 25 {
		limit = 25
	}

	cacheKey := fmt.Sprintf("api:apple_music:search:%s:limit:%d", query, limit)
	var songs []AppleMusicSong
	if s.cached(ctx, cacheKey, &songs) {
		return songs, nil
	}

	var result AppleMusicSearchResult
	if err := s.get(ctx, "search", "/catalog/{storefront}/search", map[string]string{
		"term":  query,
		"types": "songs",
		"limit": fmt.Sprintf("%d", limit),
	}, &result); err != nil {
		return nil, err
	}

	songs = result.Results.Songs.Data
	s.store(ctx, cacheKey, songs, appleMusicSearchCacheTTL)
	return songs, nil
}

// GetSongByID fetches a catalog song
func (s *AppleMusicService) GetSongByID(ctx context.Context, id string) (*AppleMusicSong, error) {
	cacheKey := "api:apple_music:track:" + id
	var song AppleMusicSong
	if s.cached(ctx, cacheKey, &song) {
		return &song, nil
	}

	var result AppleMusicSongsResponse
	if err := s.get(ctx, "get_track", "/catalog/{storefront}/songs/"+id, nil, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, &PlatformError{Platform: "apple_music", Operation: "get_track", Message: id, Err: ErrNotFound}
	}

	s.store(ctx, cacheKey, result.Data[0], appleMusicTrackCacheTTL)
	return &result.Data[0], nil
}

// GetSongByISRC uses the catalog's isrc filter
func (s *AppleMusicService) GetSongByISRC(ctx context.Context, isrc string) (*AppleMusicSong, error) {
	cacheKey := "api:apple_music:isrc:" + isrc
	var song AppleMusicSong
	if s.cached(ctx, cacheKey, &song) {
		return &song, nil
	}

	var result AppleMusicSongsResponse
	if err := s.get(ctx, "get_by_isrc", "/catalog/{storefront}/songs", map[string]string{
		"filter[isrc]": isrc,
	}, &result); err != nil {
		return nil, err
	}
	if len(result.Data) == 0 {
		return nil, &PlatformError{Platform: "apple_music", Operation: "get_by_isrc", Message: isrc, Err: ErrNotFound}
	}

	s.store(ctx, cacheKey, result.Data[0], appleMusicISRCCacheTTL)
	return &result.Data[0], nil
}

// BuildURL constructs an Apple Music URL from a song id
func (s *AppleMusicService) BuildURL(id string) string {
	return fmt.Sprintf("https://music.apple.com/%s/song/%s", appleMusicStorefront, id)
}

// Health checks that a developer token can be signed
func (s *AppleMusicService) Health(ctx context.Context) error {
	_, err := s.developerToken()
	return err
}

func (s *AppleMusicService) get(ctx context.Context, operation, path string, params map[string]string, result any) error {
	token, err := s.developerToken()
	if err != nil {
		return err
	}

	resp, err := s.client.R().
		SetContext(ctx).
		SetAuthToken(token).
		SetPathParam("storefront", appleMusicStorefront).
		SetQueryParams(params).
		SetResult(result).
		Get(path)
	if err != nil {
		return &PlatformError{Platform: "apple_music", Operation: operation, Message: "request failed", Err: err}
	}
	if resp.StatusCode() == http.StatusNotFound {
		return &PlatformError{Platform: "apple_music", Operation: operation, Err: ErrNotFound}
	}
	if resp.StatusCode() != http.StatusOK {
		return statusError(models.SourceAppleMusic, operation, resp.StatusCode())
	}
	return nil
}

func (s *AppleMusicService) cached(ctx context.Context, key string, target any) bool {
	if s.cache == nil {
		return false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil || data == nil {
		return false
	}
	return json.Unmarshal(data, target) == nil
}

func (s *AppleMusicService) store(ctx context.Context, key string, value any, ttl time.Duration) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(value)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, ttl); err != nil {
		slog.Warn("Failed to cache Apple Music response", "key", key, "error", err)
	}
}

// developerToken returns the cached ES256 token, signing a new one when stale
func (s *AppleMusicService) developerToken() (string, error) {
	s.mu.RLock()
	if s.jwtToken != "" && time.Now().Before(s.tokenExpiry) {
		token := s.jwtToken
		s.mu.RUnlock()
		return token, nil
	}
	s.mu.RUnlock()

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.jwtToken != "" && time.Now().Before(s.tokenExpiry) {
		return s.jwtToken, nil
	}

	now := time.Now()
	claims := jwt.MapClaims{
		"iss": s.teamID,
		"iat": now.Unix(),
		"exp": now.Add(60 * time.Minute).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodES256, claims)
	token.Header["kid"] = s.keyID

	signed, err := token.SignedString(s.privateKey)
	if err != nil {
		return "", &PlatformError{Platform: "apple_music", Operation: "auth", Message: "failed to sign developer token", Err: err}
	}

	// refresh five minutes before the token lapses
	s.jwtToken = signed
	s.tokenExpiry = now.Add(55 * time.Minute)
	slog.Debug("Apple Music developer token refreshed", "expires_at", s.tokenExpiry)

	return signed, nil
}

func loadPrivateKey(path string) (*ecdsa.PrivateKey, error) {
	keyData, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read private key file: %w", err)
	}

	block, _ := pem.Decode(keyData)
	if block == nil {
		return nil, fmt.Errorf("failed to decode PEM block from private key")
	}

	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse private key: %w", err)
	}

	ecdsaKey, ok := key.(*ecdsa.PrivateKey)
	if !ok {
		return nil, fmt.Errorf("private key is not ECDSA")
	}
	return ecdsaKey, nil
}

// ArtworkURL fills the size template of the artwork link
func (s AppleMusicSong) ArtworkURL(size int) string {
	u := s.Attributes.Artwork.URL
	if u == "" {
		return ""
	}
	dim := fmt.Sprintf("%d", size)
	return strings.NewReplacer("{w}", dim, "{h}", dim).Replace(u)
}

// Apple Music API response structures
type AppleMusicSongsResponse struct {
	Data []AppleMusicSong `json:"data"`
}

type AppleMusicSearchResult struct {
	Results struct {
		Songs AppleMusicSongsResponse `json:"songs"`
	} `json:"results"`
}

type AppleMusicSong struct {
	ID         string                   `json:"id"`
	Type       string                   `json:"type"`
	Attributes AppleMusicSongAttributes `json:"attributes"`
}

type AppleMusicSongAttributes struct {
	Name             string            `json:"name"`
	ArtistName       string            `json:"artistName"`
	AlbumName        string            `json:"albumName"`
	ISRC             string            `json:"isrc"`
	DurationInMillis int               `json:"durationInMillis"`
	ReleaseDate      string            `json:"releaseDate"`
	GenreNames       []string          `json:"genreNames"`
	URL              string            `json:"url"`
	ContentRating    string            `json:"contentRating,omitempty"`
	Artwork          AppleMusicArtwork `json:"artwork"`
	Previews         []struct {
		URL string `json:"url"`
	} `json:"previews"`
}

type AppleMusicArtwork struct {
	URL    string `json:"url"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
}
