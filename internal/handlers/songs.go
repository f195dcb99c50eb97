package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"mixmate/internal/handlers/render"
	"mixmate/internal/models"
)

// SongResolver resolves songs across platforms
type SongResolver interface {
	ResolveOn(ctx context.Context, song models.CandidateSong, target models.Source) (models.MatchResult, error)
	Lookup(ctx context.Context, rawURL string) (*models.UnifiedSong, error)
}

// ResolveRequest asks for one song on a target platform
type ResolveRequest struct {
	Song   models.CandidateSong `json:"song"`
	Target models.Source        `json:"target" binding:"required"`
}

// LookupRequest represents the request to resolve a song from a platform URL
type LookupRequest struct {
	URL string `json:"url" binding:"required"`
}

// SongHandler handles song resolution requests
type SongHandler struct {
	resolver SongResolver
}

// NewSongHandler creates a new song handler
func NewSongHandler(resolver SongResolver) *SongHandler {
	return &SongHandler{resolver: resolver}
}

// Resolve handles POST /api/v1/resolve
func (h *SongHandler) Resolve(c *gin.Context) {
	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.BadRequest(c, "Invalid request body", err)
		return
	}
	if err := req.Song.Validate(); err != nil {
		render.BadRequest(c, "Invalid song", err)
		return
	}
	if req.Song.Genres == nil {
		req.Song.Genres = []string{}
	}

	result, err := h.resolver.ResolveOn(c.Request.Context(), req.Song, req.Target)
	if err != nil {
		render.FromError(c, "Failed to resolve song", err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// Lookup handles POST /api/v1/songs/lookup
func (h *SongHandler) Lookup(c *gin.Context) {
	var req LookupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.BadRequest(c, "Invalid request body", err)
		return
	}

	song, err := h.resolver.Lookup(c.Request.Context(), req.URL)
	if err != nil {
		render.FromError(c, "Failed to resolve song from URL", err)
		return
	}

	c.JSON(http.StatusOK, song)
}
