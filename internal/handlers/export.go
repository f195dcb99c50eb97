package handlers

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"mixmate/internal/export"
	"mixmate/internal/handlers/render"
	"mixmate/internal/models"
)

// PlaylistExporter creates playlists on a streaming platform
type PlaylistExporter interface {
	ExportPlaylist(ctx context.Context, req export.Request) (*export.Result, error)
}

// PlaylistGetter loads stored playlists
type PlaylistGetter interface {
	GetByID(ctx context.Context, id string) (*models.Playlist, error)
}

// ExportRequest is the body of an ad-hoc export
type ExportRequest struct {
	Name        string                `json:"name" binding:"required"`
	Description string                `json:"description"`
	Target      models.Source         `json:"target" binding:"required"`
	Songs       []models.PlaylistSong `json:"songs"`
}

// ExportStoredRequest is the body of a stored playlist export. Name
// overrides the stored playlist name when set.
type ExportStoredRequest struct {
	Target models.Source `json:"target" binding:"required"`
	Name   string        `json:"name"`
}

// ExportHandler handles playlist exports
type ExportHandler struct {
	exporter  PlaylistExporter
	playlists PlaylistGetter
}

// NewExportHandler creates a new export handler
func NewExportHandler(exporter PlaylistExporter, playlists PlaylistGetter) *ExportHandler {
	return &ExportHandler{exporter: exporter, playlists: playlists}
}

// Export handles POST /api/v1/export
func (h *ExportHandler) Export(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		render.Error(c, http.StatusUnauthorized, "Authorization: Bearer <token> is required", nil)
		return
	}

	var req ExportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.BadRequest(c, "Invalid request body", err)
		return
	}

	h.run(c, export.Request{
		Name:        req.Name,
		Description: req.Description,
		Target:      req.Target,
		Songs:       req.Songs,
		UserToken:   token,
	})
}

// ExportStored handles POST /api/v1/playlists/:id/export. Resolved ids are
// written back to the stored playlist.
func (h *ExportHandler) ExportStored(c *gin.Context) {
	token, ok := bearerToken(c)
	if !ok {
		render.Error(c, http.StatusUnauthorized, "Authorization: Bearer <token> is required", nil)
		return
	}

	var req ExportStoredRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		render.BadRequest(c, "Invalid request body", err)
		return
	}

	playlist, err := h.playlists.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		render.FromError(c, "Failed to load playlist", err)
		return
	}

	name := req.Name
	if name == "" {
		name = playlist.Name
	}

	h.run(c, export.Request{
		Name:        name,
		Description: playlist.Description,
		Target:      req.Target,
		Songs:       playlist.Songs,
		UserToken:   token,
		PlaylistID:  playlist.ID.Hex(),
	})
}

func (h *ExportHandler) run(c *gin.Context, req export.Request) {
	result, err := h.exporter.ExportPlaylist(c.Request.Context(), req)
	if err != nil {
		render.FromError(c, "Export failed", err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}
