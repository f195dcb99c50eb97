package handlers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/mock"
	"golang.org/x/oauth2"

	"mixmate/internal/export"
	"mixmate/internal/models"
	"mixmate/internal/search"
	"mixmate/internal/testutil"
)

type mockSearcher struct {
	mock.Mock
}

func (m *mockSearcher) SearchSongs(ctx context.Context, query string, limit int) (*search.SearchResponse, error) {
	args := m.Called(ctx, query, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*search.SearchResponse), args.Error(1)
}

type mockResolver struct {
	mock.Mock
}

func (m *mockResolver) ResolveOn(ctx context.Context, song models.CandidateSong, target models.Source) (models.MatchResult, error) {
	args := m.Called(ctx, song, target)
	return args.Get(0).(models.MatchResult), args.Error(1)
}

func (m *mockResolver) Lookup(ctx context.Context, rawURL string) (*models.UnifiedSong, error) {
	args := m.Called(ctx, rawURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.UnifiedSong), args.Error(1)
}

type mockExporter struct {
	mock.Mock
}

func (m *mockExporter) ExportPlaylist(ctx context.Context, req export.Request) (*export.Result, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*export.Result), args.Error(1)
}

type mockExchanger struct {
	mock.Mock
}

func (m *mockExchanger) Exchange(ctx context.Context, platform models.Source, code, redirectURL string) (*oauth2.Token, error) {
	args := m.Called(ctx, platform, code, redirectURL)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*oauth2.Token), args.Error(1)
}

type healthFunc func(ctx context.Context) error

func (f healthFunc) Health(ctx context.Context) error { return f(ctx) }

type testDeps struct {
	searcher  *mockSearcher
	resolver  *mockResolver
	exporter  *mockExporter
	exchanger *mockExchanger
	playlists *testutil.MockPlaylistRepository
	checks    map[string]HealthChecker
}

func newTestDeps() *testDeps {
	return &testDeps{
		searcher:  &mockSearcher{},
		resolver:  &mockResolver{},
		exporter:  &mockExporter{},
		exchanger: &mockExchanger{},
		playlists: &testutil.MockPlaylistRepository{},
		checks:    map[string]HealthChecker{},
	}
}

// setupTestRouter wires every handler onto the production router
func setupTestRouter(t *testing.T, d *testDeps) *testutil.HTTPTestHelper {
	helper := testutil.NewHTTPTestHelper(t)
	helper.SetRouter(NewRouter(Handlers{
		Health:    NewHealthHandler(d.checks),
		Search:    NewSearchHandler(d.searcher),
		Songs:     NewSongHandler(d.resolver),
		Export:    NewExportHandler(d.exporter, d.playlists),
		Playlists: NewPlaylistHandler(d.playlists),
		Auth: NewAuthHandler(d.exchanger, func(platform string) string {
			return "https://mixmate.example/callback/" + platform
		}),
	}))
	return helper
}
