package handlers

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"mixmate/internal/models"
	"mixmate/internal/search"
	"mixmate/internal/testutil"
)

func TestSearchHandler_SearchSongs(t *testing.T) {
	d := newTestDeps()
	helper := setupTestRouter(t, d)

	song := search.MergeAll([]models.CandidateSong{testutil.ImagineOnSpotify()})[0]
	d.searcher.On("SearchSongs", mock.Anything, "Imagine John Lennon", 5).Return(&search.SearchResponse{
		Songs: []models.UnifiedSong{song},
		Total: 1,
		Query: "Imagine John Lennon",
	}, nil)

	recorder := helper.GetJSON("/api/v1/search?q=Imagine+John+Lennon&limit=5")

	var resp search.SearchResponse
	helper.AssertJSONResponse(recorder, http.StatusOK, &resp)
	assert.Equal(t, 1, resp.Total)
	assert.Equal(t, "Imagine", resp.Songs[0].Title)
	assert.True(t, resp.Songs[0].HasPlatform(models.SourceSpotify))
	d.searcher.AssertExpectations(t)
}

func TestSearchHandler_DefaultLimit(t *testing.T) {
	d := newTestDeps()
	helper := setupTestRouter(t, d)

	d.searcher.On("SearchSongs", mock.Anything, "hello", 0).Return(&search.SearchResponse{Songs: []models.UnifiedSong{}}, nil)

	recorder := helper.GetJSON("/api/v1/search?q=%20hello%20")
	assert.Equal(t, http.StatusOK, recorder.Code)
	d.searcher.AssertExpectations(t)
}

func TestSearchHandler_BadInput(t *testing.T) {
	tests := []struct {
		name string
		url  string
		want string
	}{
		{"missing query", "/api/v1/search", "q is required"},
		{"blank query", "/api/v1/search?q=%20", "q is required"},
		{"non numeric limit", "/api/v1/search?q=x&limit=ten", "Invalid limit"},
		{"negative limit", "/api/v1/search?q=x&limit=-1", "Invalid limit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := newTestDeps()
			helper := setupTestRouter(t, d)

			helper.AssertErrorResponse(helper.GetJSON(tt.url), http.StatusBadRequest, tt.want)
			d.searcher.AssertNotCalled(t, "SearchSongs", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestSearchHandler_SearchFailure(t *testing.T) {
	d := newTestDeps()
	helper := setupTestRouter(t, d)

	d.searcher.On("SearchSongs", mock.Anything, "x", 0).Return(nil, fmt.Errorf("search: %w", context.Canceled))

	helper.AssertErrorResponse(helper.GetJSON("/api/v1/search?q=x"), http.StatusInternalServerError, "Search failed")
}
