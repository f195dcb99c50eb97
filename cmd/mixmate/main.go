package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"mixmate/internal/cache"
	"mixmate/internal/config"
	"mixmate/internal/export"
	"mixmate/internal/handlers"
	"mixmate/internal/models"
	"mixmate/internal/repositories"
	"mixmate/internal/resolver"
	"mixmate/internal/search"
	"mixmate/internal/services"
)

const (
	l1CacheItems          = 1000
	matchingWatchInterval = 30 * time.Second
	shutdownTimeout       = 10 * time.Second
)

func main() {
	// Load .env file for local development
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}
	setupLogging(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		slog.Error("Server stopped with error", "error", err)
		os.Exit(1)
	}
}

func setupLogging(level string) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})))
}

func run(ctx context.Context, cfg *config.Config) error {
	go config.StartMatchingConfigWatcher(ctx, matchingWatchInterval)

	db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDatabase)
	if err != nil {
		return err
	}
	defer db.Close(context.Background())

	if err := db.CreateIndexes(ctx); err != nil {
		slog.Warn("Failed to create indexes", "error", err)
	}

	valkey, err := cache.NewValkeyCache(ctx, cfg.ValkeyURL)
	if err != nil {
		return err
	}
	appCache := cache.NewMultiLevelCache(valkey, l1CacheItems, cache.DefaultL1TTL)
	defer appCache.Close()

	platforms, err := newPlatforms(ctx, cfg, appCache)
	if err != nil {
		return err
	}

	engine := search.NewEngine(appCache, cfg.SourceTimeout, platforms.searchSources()...)
	playlists := repositories.NewMongoPlaylistRepository(db)
	mappings := repositories.NewCachedMappingRepository(repositories.NewMongoMappingRepository(db), appCache)
	resolution := resolver.NewService(mappings, platforms.resolverSources()...)

	exporter := export.NewExporter(resolution, playlists, export.Options{
		Concurrency:   cfg.ExportConcurrency,
		RatePerSecond: cfg.ExportRatePerSecond,
		ChunkSize:     export.DefaultChunkSize,
	})
	if platforms.spotify != nil {
		exporter.RegisterWriter(models.SourceSpotify, platforms.spotify)
	}
	if platforms.youtube != nil {
		exporter.RegisterWriter(models.SourceYouTube, platforms.youtube)
	}

	gin.SetMode(cfg.GinMode)
	router := handlers.NewRouter(handlers.Handlers{
		Health: handlers.NewHealthHandler(map[string]handlers.HealthChecker{
			"mongodb": db,
			"valkey":  appCache,
		}),
		Search:    handlers.NewSearchHandler(engine),
		Songs:     handlers.NewSongHandler(resolution),
		Export:    handlers.NewExportHandler(exporter, playlists),
		Playlists: handlers.NewPlaylistHandler(playlists),
		Auth:      handlers.NewAuthHandler(services.NewOAuthExchanger(cfg), cfg.RedirectURL),
	})

	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("Starting server", "port", cfg.Port, "platforms", resolution.Platforms())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("Shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
