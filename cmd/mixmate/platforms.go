package main

import (
	"context"
	"fmt"

	"mixmate/internal/cache"
	"mixmate/internal/config"
	"mixmate/internal/resolver"
	"mixmate/internal/search"
	"mixmate/internal/services"
)

// platforms holds one adapter per configured platform; unconfigured ones are nil
type platforms struct {
	spotify    *services.SpotifyService
	youtube    *services.YouTubeService
	appleMusic *services.AppleMusicService
	tidal      *services.TidalService
}

func newPlatforms(ctx context.Context, cfg *config.Config, c cache.Cache) (*platforms, error) {
	p := &platforms{}
	var err error

	if pc, ok := cfg.GetPlatformConfig("spotify"); ok && cfg.IsEnabled("spotify") {
		if p.spotify, err = services.NewSpotifyService(pc); err != nil {
			return nil, fmt.Errorf("spotify: %w", err)
		}
	}
	if pc, ok := cfg.GetPlatformConfig("youtube"); ok && cfg.IsEnabled("youtube") {
		if p.youtube, err = services.NewYouTubeService(ctx, pc); err != nil {
			return nil, fmt.Errorf("youtube: %w", err)
		}
	}
	if pc, ok := cfg.GetPlatformConfig("apple_music"); ok && cfg.IsEnabled("apple_music") {
		if p.appleMusic, err = services.NewAppleMusicService(pc, c); err != nil {
			return nil, fmt.Errorf("apple music: %w", err)
		}
	}
	if pc, ok := cfg.GetPlatformConfig("tidal"); ok && cfg.IsEnabled("tidal") {
		if p.tidal, err = services.NewTidalService(pc); err != nil {
			return nil, fmt.Errorf("tidal: %w", err)
		}
	}
	return p, nil
}

// searchSources returns the search adapters in preference order: Spotify
// first, then YouTube, Apple Music and Tidal
func (p *platforms) searchSources() []search.Source {
	var out []search.Source
	if p.spotify != nil {
		out = append(out, search.NewSpotifySource(p.spotify))
	}
	if p.youtube != nil {
		out = append(out, search.NewYouTubeSource(p.youtube))
	}
	if p.appleMusic != nil {
		out = append(out, search.NewAppleMusicSource(p.appleMusic))
	}
	if p.tidal != nil {
		out = append(out, search.NewTidalSource(p.tidal))
	}
	return out
}

func (p *platforms) resolverSources() []resolver.Source {
	var out []resolver.Source
	for _, s := range p.searchSources() {
		out = append(out, s)
	}
	return out
}
