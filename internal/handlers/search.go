package handlers

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mixmate/internal/handlers/render"
	"mixmate/internal/search"
)

// Searcher runs an aggregated search across the configured platforms
type Searcher interface {
	SearchSongs(ctx context.Context, query string, limit int) (*search.SearchResponse, error)
}

// SearchHandler handles aggregated song search
type SearchHandler struct {
	searcher Searcher
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searcher Searcher) *SearchHandler {
	return &SearchHandler{searcher: searcher}
}

// SearchSongs handles GET /api/v1/search?q=&limit=
func (h *SearchHandler) SearchSongs(c *gin.Context) {
	query := strings.TrimSpace(c.Query("q"))
	if query == "" {
		render.BadRequest(c, "Query parameter q is required", nil)
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			render.BadRequest(c, "Invalid limit", err)
			return
		}
		limit = n
	}

	resp, err := h.searcher.SearchSongs(c.Request.Context(), query, limit)
	if err != nil {
		render.FromError(c, "Search failed", err)
		return
	}

	c.JSON(http.StatusOK, resp)
}
