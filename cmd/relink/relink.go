package main

import (
	"context"
	"log/slog"

	"golang.org/x/time/rate"

	"mixmate/internal/models"
)

type songResolver interface {
	ResolveOn(ctx context.Context, song models.CandidateSong, target models.Source) (models.MatchResult, error)
}

type playlistStore interface {
	ForEachMissing(ctx context.Context, platform models.Source, fn func(*models.Playlist) error) error
	SetSongPlatformID(ctx context.Context, playlistID, songID string, platform models.Source, platformID string) error
}

// relinker fills missing target platform ids on stored playlists
type relinker struct {
	resolver songResolver
	store    playlistStore
	target   models.Source
	limiter  *rate.Limiter
	dryRun   bool
}

type relinkStats struct {
	Playlists int
	Checked   int
	Linked    int
	Unmatched int
	Failed    int
}

func (r *relinker) run(ctx context.Context) (relinkStats, error) {
	var stats relinkStats

	err := r.store.ForEachMissing(ctx, r.target, func(p *models.Playlist) error {
		stats.Playlists++
		for _, song := range p.Songs {
			if _, ok := song.PlatformID(r.target); ok {
				continue
			}
			if err := r.limiter.Wait(ctx); err != nil {
				return err
			}
			stats.Checked++

			if err := r.relinkSong(ctx, p, song, &stats); err != nil {
				return err
			}
		}
		return nil
	})
	return stats, err
}

// relinkSong only returns an error when the run has to stop
func (r *relinker) relinkSong(ctx context.Context, p *models.Playlist, song models.PlaylistSong, stats *relinkStats) error {
	result, err := r.resolver.ResolveOn(ctx, song.Candidate(), r.target)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		slog.Warn("Failed to resolve song",
			"playlistID", p.ID.Hex(),
			"songID", song.ID,
			"error", err)
		stats.Failed++
		return nil
	}

	if !result.Matched {
		slog.Debug("No match for song",
			"playlistID", p.ID.Hex(),
			"title", song.Title,
			"artist", song.Artist,
			"reason", result.Reason)
		stats.Unmatched++
		return nil
	}

	if !r.dryRun {
		if err := r.store.SetSongPlatformID(ctx, p.ID.Hex(), song.ID, r.target, result.TargetPlatformID); err != nil {
			slog.Error("Failed to store platform id",
				"playlistID", p.ID.Hex(),
				"songID", song.ID,
				"error", err)
			stats.Failed++
			return nil
		}
	}

	slog.Info("Linked song",
		"playlistID", p.ID.Hex(),
		"title", song.Title,
		"artist", song.Artist,
		"platform", r.target,
		"platformID", result.TargetPlatformID,
		"confidence", result.Confidence,
		"dryRun", r.dryRun)
	stats.Linked++
	return nil
}
