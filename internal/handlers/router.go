package handlers

import (
	"github.com/gin-gonic/gin"
)

// Handlers groups everything the router serves
type Handlers struct {
	Health    *HealthHandler
	Search    *SearchHandler
	Songs     *SongHandler
	Export    *ExportHandler
	Playlists *PlaylistHandler
	Auth      *AuthHandler
}

// NewRouter builds the gin engine with every API route registered.
// Request logging is only enabled in debug mode.
func NewRouter(h Handlers) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if gin.Mode() == gin.DebugMode {
		router.Use(gin.Logger())
	}

	router.GET("/health", h.Health.Health)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/search", h.Search.SearchSongs)
		v1.POST("/resolve", h.Songs.Resolve)
		v1.POST("/songs/lookup", h.Songs.Lookup)
		v1.POST("/export", h.Export.Export)

		playlists := v1.Group("/playlists")
		playlists.POST("", h.Playlists.Create)
		playlists.GET("", h.Playlists.List)
		playlists.GET("/:id", h.Playlists.Get)
		playlists.PATCH("/:id", h.Playlists.Update)
		playlists.DELETE("/:id", h.Playlists.Delete)
		playlists.GET("/:id/events", h.Playlists.Events)
		playlists.POST("/:id/songs", h.Playlists.AddSong)
		playlists.DELETE("/:id/songs/:songId", h.Playlists.RemoveSong)
		playlists.POST("/:id/songs/:songId/like", h.Playlists.LikeSong)
		playlists.DELETE("/:id/songs/:songId/like", h.Playlists.LikeSong)
		playlists.POST("/:id/export", h.Export.ExportStored)

		v1.POST("/auth/:platform/token", h.Auth.ExchangeToken)
	}

	return router
}
