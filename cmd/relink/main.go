package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"mixmate/internal/cache"
	"mixmate/internal/config"
	"mixmate/internal/models"
	"mixmate/internal/repositories"
	"mixmate/internal/resolver"
	"mixmate/internal/search"
	"mixmate/internal/services"
)

func main() {
	target := flag.String("target", string(models.SourceYouTube), "platform to fill missing ids for")
	perSecond := flag.Float64("rate", 2, "resolutions per second")
	dryRun := flag.Bool("dry-run", false, "resolve without writing ids back")
	flag.Parse()

	// Load .env file for local development
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := models.NewDatabase(ctx, cfg.MongodbURL, cfg.MongodbDatabase)
	if err != nil {
		slog.Error("Failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close(context.Background())

	valkey, err := cache.NewValkeyCache(ctx, cfg.ValkeyURL)
	if err != nil {
		slog.Error("Failed to initialize cache", "error", err)
		os.Exit(1)
	}
	defer valkey.Close()

	source, err := targetSource(ctx, cfg, models.Source(*target), valkey)
	if err != nil {
		slog.Error("Target platform unavailable", "target", *target, "error", err)
		os.Exit(1)
	}

	mappings := repositories.NewCachedMappingRepository(repositories.NewMongoMappingRepository(db), valkey)
	r := &relinker{
		resolver: resolver.NewService(mappings, source),
		store:    repositories.NewMongoPlaylistRepository(db),
		target:   models.Source(*target),
		limiter:  rate.NewLimiter(rate.Limit(*perSecond), 1),
		dryRun:   *dryRun,
	}

	slog.Info("Starting relink", "target", *target, "rate", *perSecond, "dryRun", *dryRun)

	stats, err := r.run(ctx)
	if err != nil {
		slog.Error("Relink stopped early", "error", err)
	}

	slog.Info("Relink completed",
		"playlists", stats.Playlists,
		"checked", stats.Checked,
		"linked", stats.Linked,
		"unmatched", stats.Unmatched,
		"failed", stats.Failed)

	fmt.Println("Relink process completed!")
	fmt.Printf("Checked: %d songs\n", stats.Checked)
	fmt.Printf("Linked: %d songs\n", stats.Linked)

	if err != nil {
		os.Exit(1)
	}
}

// targetSource builds the search adapter for the platform ids are filled for
func targetSource(ctx context.Context, cfg *config.Config, target models.Source, c cache.Cache) (resolver.Source, error) {
	pc, ok := cfg.GetPlatformConfig(string(target))
	if !ok || !cfg.IsEnabled(string(target)) {
		return nil, fmt.Errorf("%w: %s is not configured", models.ErrFatalConfig, target)
	}

	switch target {
	case models.SourceSpotify:
		svc, err := services.NewSpotifyService(pc)
		if err != nil {
			return nil, err
		}
		return search.NewSpotifySource(svc), nil
	case models.SourceYouTube:
		svc, err := services.NewYouTubeService(ctx, pc)
		if err != nil {
			return nil, err
		}
		return search.NewYouTubeSource(svc), nil
	case models.SourceAppleMusic:
		svc, err := services.NewAppleMusicService(pc, c)
		if err != nil {
			return nil, err
		}
		return search.NewAppleMusicSource(svc), nil
	case models.SourceTidal:
		svc, err := services.NewTidalService(pc)
		if err != nil {
			return nil, err
		}
		return search.NewTidalSource(svc), nil
	}
	return nil, fmt.Errorf("%w: %s", models.ErrUnknownPlatform, target)
}
