package handlers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"mixmate/internal/handlers/render"
	"mixmate/internal/models"
	"mixmate/internal/repositories"
)

// CreatePlaylistRequest represents the request to create a playlist
type CreatePlaylistRequest struct {
	Name          string   `json:"name" binding:"required"`
	Description   string   `json:"description"`
	OwnerID       string   `json:"owner_id" binding:"required"`
	Collaborators []string `json:"collaborators"`
}

// UpdatePlaylistRequest changes playlist metadata. Omitted fields are kept.
type UpdatePlaylistRequest struct {
	Name          *string   `json:"name"`
	Description   *string   `json:"description"`
	Collaborators *[]string `json:"collaborators"`
}

// AddSongRequest is a song snapshot added to a playlist
type AddSongRequest struct {
	Title       string            `json:"title" binding:"required"`
	Artist      string            `json:"artist" binding:"required"`
	Album       string            `json:"album"`
	ISRC        string            `json:"isrc"`
	Platform    models.Source     `json:"platform" binding:"required"`
	PlatformIDs map[string]string `json:"platform_ids"`
	AddedBy     string            `json:"added_by"`
}

// PlaylistHandler handles collaborative playlist requests
type PlaylistHandler struct {
	repo repositories.PlaylistRepository
}

// NewPlaylistHandler creates a new playlist handler
func NewPlaylistHandler(repo repositories.PlaylistRepository) *PlaylistHandler {
	return &PlaylistHandler{repo: repo}
}

// Create handles POST /api/v1/playlists
func (h *PlaylistHandler) Create(c *gin.Context) {
	var req CreatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.BadRequest(c, "Invalid request body", err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		render.BadRequest(c, "Playlist name is required", nil)
		return
	}

	playlist := models.NewPlaylist(strings.TrimSpace(req.Name), req.Description, req.OwnerID)
	if req.Collaborators != nil {
		playlist.Collaborators = req.Collaborators
	}

	if err := h.repo.Create(c.Request.Context(), playlist); err != nil {
		render.FromError(c, "Failed to create playlist", err)
		return
	}

	c.JSON(http.StatusCreated, playlist)
}

// List handles GET /api/v1/playlists?owner=&user=&limit=. With user the
// result also holds playlists the user collaborates on.
func (h *PlaylistHandler) List(c *gin.Context) {
	owner, user := c.Query("owner"), c.Query("user")
	if owner == "" && user == "" {
		render.BadRequest(c, "Query parameter owner or user is required", nil)
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "0"))
	if err != nil || limit < 0 {
		render.BadRequest(c, "Invalid limit", err)
		return
	}

	var playlists []*models.Playlist
	if user != "" {
		playlists, err = h.repo.ListForUser(c.Request.Context(), user, limit)
	} else {
		playlists, err = h.repo.ListByOwner(c.Request.Context(), owner, limit)
	}
	if err != nil {
		render.FromError(c, "Failed to list playlists", err)
		return
	}
	if playlists == nil {
		playlists = []*models.Playlist{}
	}

	c.JSON(http.StatusOK, gin.H{"playlists": playlists, "total": len(playlists)})
}

// Get handles GET /api/v1/playlists/:id
func (h *PlaylistHandler) Get(c *gin.Context) {
	playlist, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		render.FromError(c, "Failed to load playlist", err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// Update handles PATCH /api/v1/playlists/:id
func (h *PlaylistHandler) Update(c *gin.Context) {
	var req UpdatePlaylistRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.BadRequest(c, "Invalid request body", err)
		return
	}
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		render.BadRequest(c, "Playlist name is required", nil)
		return
	}

	playlist, err := h.repo.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		render.FromError(c, "Failed to load playlist", err)
		return
	}

	if req.Name != nil {
		playlist.Name = strings.TrimSpace(*req.Name)
	}
	if req.Description != nil {
		playlist.Description = *req.Description
	}
	if req.Collaborators != nil {
		playlist.Collaborators = *req.Collaborators
	}

	if err := h.repo.Update(c.Request.Context(), playlist); err != nil {
		render.FromError(c, "Failed to update playlist", err)
		return
	}
	c.JSON(http.StatusOK, playlist)
}

// Delete handles DELETE /api/v1/playlists/:id
func (h *PlaylistHandler) Delete(c *gin.Context) {
	if err := h.repo.Delete(c.Request.Context(), c.Param("id")); err != nil {
		render.FromError(c, "Failed to delete playlist", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// AddSong handles POST /api/v1/playlists/:id/songs
func (h *PlaylistHandler) AddSong(c *gin.Context) {
	var req AddSongRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.BadRequest(c, "Invalid request body", err)
		return
	}

	song, err := h.repo.AddSong(c.Request.Context(), c.Param("id"), models.PlaylistSong{
		Title:       strings.TrimSpace(req.Title),
		Artist:      strings.TrimSpace(req.Artist),
		Album:       req.Album,
		ISRC:        req.ISRC,
		Platform:    req.Platform,
		PlatformIDs: req.PlatformIDs,
		AddedBy:     req.AddedBy,
	})
	if err != nil {
		render.FromError(c, "Failed to add song", err)
		return
	}

	c.JSON(http.StatusCreated, song)
}

// RemoveSong handles DELETE /api/v1/playlists/:id/songs/:songId
func (h *PlaylistHandler) RemoveSong(c *gin.Context) {
	if err := h.repo.RemoveSong(c.Request.Context(), c.Param("id"), c.Param("songId")); err != nil {
		render.FromError(c, "Failed to remove song", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// LikeSong handles POST and DELETE /api/v1/playlists/:id/songs/:songId/like
func (h *PlaylistHandler) LikeSong(c *gin.Context) {
	delta := 1
	if c.Request.Method == http.MethodDelete {
		delta = -1
	}
	if err := h.repo.LikeSong(c.Request.Context(), c.Param("id"), c.Param("songId"), delta); err != nil {
		render.FromError(c, "Failed to like song", err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Events handles GET /api/v1/playlists/:id/events, streaming playlist
// changes as server-sent events until the client goes away
func (h *PlaylistHandler) Events(c *gin.Context) {
	id := c.Param("id")
	if _, err := h.repo.GetByID(c.Request.Context(), id); err != nil {
		render.FromError(c, "Failed to load playlist", err)
		return
	}

	changes, err := h.repo.Watch(c.Request.Context(), id)
	if err != nil {
		render.FromError(c, "Failed to watch playlist", err)
		return
	}

	slog.Debug("Playlist watch started", "playlist_id", id)
	defer slog.Debug("Playlist watch ended", "playlist_id", id)

	ctx := c.Request.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case change, ok := <-changes:
			if !ok {
				return
			}
			c.SSEvent(change.Operation, change)
			c.Writer.Flush()
			if change.Operation == "delete" {
				return
			}
		}
	}
}
