// Package export writes collaborative playlists out to a user's account on
// a streaming platform
package export

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"mixmate/internal/models"
)

const (
	DefaultConcurrency   = 4
	DefaultRatePerSecond = 5.0
	DefaultChunkSize     = 100

	playlistSuffix     = " (MixMate)"
	defaultDescription = "Collaborative playlist from MixMate"
)

// ErrInvalidRequest is returned for requests that cannot be exported as given
var ErrInvalidRequest = errors.New("invalid export request")

// PlaylistWriter creates playlists on a platform with a user's token
type PlaylistWriter interface {
	CreatePlaylist(ctx context.Context, userToken, name, description string) (*models.CreatedPlaylist, error)
	AddTracks(ctx context.Context, userToken, playlistID string, ids []string) error
}

// batchSizer is implemented by writers whose add call takes fewer tracks
// than the exporter's chunk size
type batchSizer interface {
	MaxBatchSize() int
}

// Resolver finds a song on the target platform
type Resolver interface {
	ResolveOn(ctx context.Context, song models.CandidateSong, target models.Source) (models.MatchResult, error)
}

// PlaylistStore receives ids resolved during an export
type PlaylistStore interface {
	SetSongPlatformID(ctx context.Context, playlistID, songID string, platform models.Source, platformID string) error
}

// Options bound the work an export does
type Options struct {
	// Songs resolved at the same time
	Concurrency int
	// Resolutions started per second; zero or less means unpaced
	RatePerSecond float64
	// Tracks per add call
	ChunkSize int
}

// DefaultOptions returns the stock export limits
func DefaultOptions() Options {
	return Options{
		Concurrency:   DefaultConcurrency,
		RatePerSecond: DefaultRatePerSecond,
		ChunkSize:     DefaultChunkSize,
	}
}

// Request describes one export
type Request struct {
	Name        string
	Description string
	Target      models.Source
	Songs       []models.PlaylistSong
	UserToken   string
	// When set, resolved ids are written back to this stored playlist
	PlaylistID string
}

// Result summarizes an export. Success means the playlist was created.
type Result struct {
	Success        bool     `json:"success"`
	PlaylistID     string   `json:"playlist_id,omitempty"`
	PlaylistURL    string   `json:"playlist_url,omitempty"`
	Message        string   `json:"message"`
	Exported       int      `json:"exported"`
	Unmatched      int      `json:"unmatched"`
	Failed         int      `json:"failed"`
	UnmatchedSongs []string `json:"unmatched_songs"`
	ChunkErrors    []error  `json:"-"`
}

// Exporter resolves playlist songs onto a target platform and writes them
// into a new playlist there
type Exporter struct {
	resolver Resolver
	store    PlaylistStore
	opts     Options

	mu      sync.RWMutex
	writers map[models.Source]PlaylistWriter
}

// NewExporter creates an exporter. The store may be nil.
func NewExporter(resolver Resolver, store PlaylistStore, opts Options) *Exporter {
	if opts.Concurrency <= 0 {
		opts.Concurrency = DefaultConcurrency
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	return &Exporter{
		resolver: resolver,
		store:    store,
		opts:     opts,
		writers:  make(map[models.Source]PlaylistWriter),
	}
}

// RegisterWriter makes platform available as an export target
func (e *Exporter) RegisterWriter(platform models.Source, w PlaylistWriter) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.writers[platform] = w
}

func (e *Exporter) writer(platform models.Source) (PlaylistWriter, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	w, ok := e.writers[platform]
	return w, ok
}

// ExportPlaylist creates the playlist on the target platform and adds every
// song that has or can be resolved to a native id. Songs that cannot be
// resolved and chunks that fail to add are counted, not fatal.
func (e *Exporter) ExportPlaylist(ctx context.Context, req Request) (*Result, error) {
	w, ok := e.writer(req.Target)
	if !ok {
		return nil, fmt.Errorf("%w: no playlist writer for %s", models.ErrFatalConfig, req.Target)
	}
	if req.UserToken == "" {
		return nil, fmt.Errorf("%w: %s user token is required", models.ErrFatalConfig, req.Target)
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, fmt.Errorf("%w: playlist name is required", ErrInvalidRequest)
	}

	description := req.Description
	if description == "" {
		description = defaultDescription
	}

	slog.Info("Exporting playlist", "name", name, "target", req.Target, "songs", len(req.Songs))

	created, err := w.CreatePlaylist(ctx, req.UserToken, name+playlistSuffix, description)
	if err != nil {
		return nil, fmt.Errorf("create %s playlist: %w", req.Target, err)
	}

	ids, err := e.resolveAll(ctx, req)
	if err != nil {
		return nil, err
	}

	result := &Result{
		Success:        true,
		PlaylistID:     created.ID,
		PlaylistURL:    created.URL,
		UnmatchedSongs: []string{},
	}

	var trackIDs []string
	for i, id := range ids {
		if id == "" {
			result.Unmatched++
			result.UnmatchedSongs = append(result.UnmatchedSongs,
				fmt.Sprintf("%s - %s", req.Songs[i].Title, req.Songs[i].Artist))
			continue
		}
		trackIDs = append(trackIDs, id)
	}

	e.addInChunks(ctx, w, req, created.ID, trackIDs, result)
	result.Message = summary(result, req.Target)

	slog.Info("Playlist exported",
		"target", req.Target,
		"playlist_id", created.ID,
		"exported", result.Exported,
		"unmatched", result.Unmatched,
		"failed", result.Failed)

	return result, nil
}

// resolveAll returns one id per song, "" for songs that did not resolve.
// The slice follows playlist order regardless of completion order.
func (e *Exporter) resolveAll(ctx context.Context, req Request) ([]string, error) {
	ids := make([]string, len(req.Songs))

	limit := rate.Inf
	if e.opts.RatePerSecond > 0 {
		limit = rate.Limit(e.opts.RatePerSecond)
	}
	limiter := rate.NewLimiter(limit, 1)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)

	for i := range req.Songs {
		song := req.Songs[i]
		if id, ok := song.PlatformID(req.Target); ok {
			ids[i] = id
			continue
		}

		g.Go(func() error {
			if err := limiter.Wait(gctx); err != nil {
				return err
			}

			result, err := e.resolver.ResolveOn(gctx, song.Candidate(), req.Target)
			if err != nil {
				if ctxErr := gctx.Err(); ctxErr != nil {
					return ctxErr
				}
				slog.Warn("Export resolution failed", "song", song.Title, "target", req.Target, "error", err)
				return nil
			}
			if !result.Matched {
				return nil
			}

			ids[i] = result.TargetPlatformID
			e.writeBack(gctx, req, song, result.TargetPlatformID)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("resolve songs for %s: %w", req.Target, err)
	}
	return ids, nil
}

func (e *Exporter) writeBack(ctx context.Context, req Request, song models.PlaylistSong, platformID string) {
	if e.store == nil || req.PlaylistID == "" || song.ID == "" {
		return
	}
	if err := e.store.SetSongPlatformID(ctx, req.PlaylistID, song.ID, req.Target, platformID); err != nil {
		slog.Error("Failed to store resolved platform id",
			"playlist_id", req.PlaylistID,
			"song_id", song.ID,
			"target", req.Target,
			"error", err)
	}
}

func (e *Exporter) addInChunks(ctx context.Context, w PlaylistWriter, req Request, playlistID string, trackIDs []string, result *Result) {
	size := e.opts.ChunkSize
	if bs, ok := w.(batchSizer); ok && bs.MaxBatchSize() > 0 && bs.MaxBatchSize() < size {
		size = bs.MaxBatchSize()
	}

	for start := 0; start < len(trackIDs); start += size {
		end := min(start+size, len(trackIDs))
		chunk := trackIDs[start:end]

		err := w.AddTracks(ctx, req.UserToken, playlistID, chunk)
		if err == nil {
			result.Exported += len(chunk)
			continue
		}

		added := 0
		var addErr *models.AddTracksError
		if errors.As(err, &addErr) {
			added = min(max(addErr.Added, 0), len(chunk))
		}
		result.Exported += added
		result.Failed += len(chunk) - added

		chunkErr := fmt.Errorf("%w: tracks %d-%d: %w", models.ErrExportPartialFailure, start, end-1, err)
		result.ChunkErrors = append(result.ChunkErrors, chunkErr)
		slog.Error("Failed to add tracks", "target", req.Target, "playlist_id", playlistID, "error", chunkErr)
	}
}

func summary(r *Result, target models.Source) string {
	msg := fmt.Sprintf("Successfully exported %s to %s!", songs(r.Exported), target.DisplayName())
	if r.Unmatched > 0 {
		msg += fmt.Sprintf(" %s could not be found.", songs(r.Unmatched))
	}
	if r.Failed > 0 {
		msg += fmt.Sprintf(" %s failed to add.", songs(r.Failed))
	}
	return msg
}

func songs(n int) string {
	if n == 1 {
		return "1 song"
	}
	return fmt.Sprintf("%d songs", n)
}
