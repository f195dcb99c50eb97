package testutil

import (
	"context"
	"sync"
	"time"

	"github.com/stretchr/testify/mock"

	"mixmate/internal/cache"
	"mixmate/internal/models"
)

// MockSource is a mock search source
type MockSource struct {
	mock.Mock
	SourceName models.Source
	Disabled   bool
}

// NewMockSource creates an enabled mock source
func NewMockSource(name models.Source) *MockSource {
	return &MockSource{SourceName: name}
}

func (m *MockSource) Name() models.Source {
	return m.SourceName
}

func (m *MockSource) IsEnabled() bool {
	return !m.Disabled
}

func (m *MockSource) Search(ctx context.Context, query string, limit int) ([]models.CandidateSong, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CandidateSong), args.Error(1)
}

// MockLookupSource is a mock source that can also look tracks up by id and ISRC
type MockLookupSource struct {
	MockSource
}

// NewMockLookupSource creates an enabled mock source with lookups
func NewMockLookupSource(name models.Source) *MockLookupSource {
	return &MockLookupSource{MockSource: MockSource{SourceName: name}}
}

func (m *MockLookupSource) LookupISRC(ctx context.Context, isrc string) (*models.CandidateSong, error) {
	args := m.Called(ctx, isrc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CandidateSong), args.Error(1)
}

func (m *MockLookupSource) LookupTrack(ctx context.Context, id string) (*models.CandidateSong, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CandidateSong), args.Error(1)
}

func (m *MockLookupSource) BuildURL(id string) string {
	return "https://" + string(m.SourceName) + ".example/track/" + id
}

// MockPlaylistRepository is a mock playlist store
type MockPlaylistRepository struct {
	mock.Mock
}

func (m *MockPlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	args := m.Called(ctx, playlist)
	return args.Error(0)
}

func (m *MockPlaylistRepository) GetByID(ctx context.Context, id string) (*models.Playlist, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Playlist), args.Error(1)
}

func (m *MockPlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	args := m.Called(ctx, playlist)
	return args.Error(0)
}

func (m *MockPlaylistRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockPlaylistRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Playlist, error) {
	args := m.Called(ctx, ownerID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Playlist), args.Error(1)
}

func (m *MockPlaylistRepository) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Playlist, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.Playlist), args.Error(1)
}

func (m *MockPlaylistRepository) AddSong(ctx context.Context, playlistID string, song models.PlaylistSong) (*models.PlaylistSong, error) {
	args := m.Called(ctx, playlistID, song)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.PlaylistSong), args.Error(1)
}

func (m *MockPlaylistRepository) RemoveSong(ctx context.Context, playlistID, songID string) error {
	args := m.Called(ctx, playlistID, songID)
	return args.Error(0)
}

func (m *MockPlaylistRepository) SetSongPlatformID(ctx context.Context, playlistID, songID string, platform models.Source, platformID string) error {
	args := m.Called(ctx, playlistID, songID, platform, platformID)
	return args.Error(0)
}

func (m *MockPlaylistRepository) LikeSong(ctx context.Context, playlistID, songID string, delta int) error {
	args := m.Called(ctx, playlistID, songID, delta)
	return args.Error(0)
}

func (m *MockPlaylistRepository) ForEachMissing(ctx context.Context, platform models.Source, fn func(*models.Playlist) error) error {
	args := m.Called(ctx, platform, fn)
	if playlists, ok := args.Get(0).([]*models.Playlist); ok {
		for _, p := range playlists {
			if err := fn(p); err != nil {
				return err
			}
		}
	}
	return args.Error(1)
}

func (m *MockPlaylistRepository) Watch(ctx context.Context, playlistID string) (<-chan models.PlaylistChange, error) {
	args := m.Called(ctx, playlistID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(<-chan models.PlaylistChange), args.Error(1)
}

func (m *MockPlaylistRepository) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

// MockMappingRepository is a mock resolution cache
type MockMappingRepository struct {
	mock.Mock
}

func (m *MockMappingRepository) FindMapping(ctx context.Context, key string, platform models.Source) (*models.SongMapping, error) {
	args := m.Called(ctx, key, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SongMapping), args.Error(1)
}

func (m *MockMappingRepository) SaveMapping(ctx context.Context, mapping *models.SongMapping) error {
	args := m.Called(ctx, mapping)
	return args.Error(0)
}

// MockPlaylistWriter is a mock export target
type MockPlaylistWriter struct {
	mock.Mock
}

func (m *MockPlaylistWriter) CreatePlaylist(ctx context.Context, userToken, name, description string) (*models.CreatedPlaylist, error) {
	args := m.Called(ctx, userToken, name, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CreatedPlaylist), args.Error(1)
}

func (m *MockPlaylistWriter) AddTracks(ctx context.Context, userToken, playlistID string, ids []string) error {
	args := m.Called(ctx, userToken, playlistID, ids)
	return args.Error(0)
}

// MockCache is a mock cache.Cache
type MockCache struct {
	mock.Mock
}

func (m *MockCache) Get(ctx context.Context, key string) ([]byte, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

func (m *MockCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	args := m.Called(ctx, key, value, expiration)
	return args.Error(0)
}

func (m *MockCache) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockCache) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockCache) Close() error {
	args := m.Called()
	return args.Error(0)
}

func (m *MockCache) Health(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

var _ cache.Cache = (*MemoryCache)(nil)

// MemoryCache is an in-process cache.Cache for tests that care about
// behaviour rather than calls. Expiration is ignored and a miss is nil, nil.
type MemoryCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

// NewMemoryCache creates an empty memory cache
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{data: make(map[string][]byte)}
}

func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.data[key], nil
}

func (c *MemoryCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = append([]byte(nil), value...)
	return nil
}

func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.data, key)
	return nil
}

func (c *MemoryCache) Exists(ctx context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, ok := c.data[key]
	return ok, nil
}

func (c *MemoryCache) Close() error { return nil }

func (c *MemoryCache) Health(ctx context.Context) error { return nil }

// Keys returns the stored keys
func (c *MemoryCache) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	keys := make([]string, 0, len(c.data))
	for k := range c.data {
		keys = append(keys, k)
	}
	return keys
}
