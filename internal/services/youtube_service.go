package services

import (
	"context"
	"fmt"
	"strconv"

	"golang.org/x/oauth2"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"mixmate/internal/config"
	"mixmate/internal/models"
)

const (
	// YouTube's category id for Music
	youtubeMusicCategory = "10"

	// playlistItems.insert takes a single video, so the exporter keeps batches small
	youtubeMaxBatch = 50
)

// YouTubeVideo is the subset of a video resource the normalizer needs
type YouTubeVideo struct {
	ID           string
	Title        string
	ChannelTitle string
	ThumbnailURL string
	PublishedAt  string
	DurationMs   *int
	ViewCount    *uint64
}

// YouTubeService wraps the YouTube Data API v3. Catalog calls authenticate
// with the API key; playlist writes use the user's OAuth token.
type YouTubeService struct {
	api        *youtube.Service
	clientOpts []option.ClientOption
	apiKey     string
}

// NewYouTubeService creates a YouTube client. Extra options are applied to
// every client the service builds, which lets tests point it at a fake server.
func NewYouTubeService(ctx context.Context, cfg *config.PlatformConfig, opts ...option.ClientOption) (*YouTubeService, error) {
	if cfg == nil || cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: youtube api key", models.ErrFatalConfig)
	}

	var clientOpts []option.ClientOption
	if cfg.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithEndpoint(cfg.BaseURL))
	}
	clientOpts = append(clientOpts, opts...)

	api, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithAPIKey(cfg.APIKey)}, clientOpts...)...)
	if err != nil {
		return nil, &PlatformError{Platform: "youtube", Operation: "init", Message: "failed to create client", Err: err}
	}

	return &YouTubeService{api: api, clientOpts: clientOpts, apiKey: cfg.APIKey}, nil
}

// Platform returns the platform name
func (s *YouTubeService) Platform() models.Source {
	return models.SourceYouTube
}

// MaxBatchSize is the chunk size the exporter should use
func (s *YouTubeService) MaxBatchSize() int {
	return youtubeMaxBatch
}

// SearchVideos searches music videos
func (s *YouTubeService) SearchVideos(ctx context.Context, query string, limit int) ([]YouTubeVideo, error) {
	if limit <= 0 {
		limit = 10
	}
	if limit > 50 {
		limit = 50
	}

	resp, err := s.api.Search.List([]string{"snippet"}).
		Q(query).
		Type("video").
		VideoCategoryId(youtubeMusicCategory).
		MaxResults(int64(limit)).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &PlatformError{Platform: "youtube", Operation: "search", Message: "request failed", Err: err}
	}

	videos := make([]YouTubeVideo, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.Id == nil || item.Id.VideoId == "" || item.Snippet == nil {
			continue
		}
		videos = append(videos, YouTubeVideo{
			ID:           item.Id.VideoId,
			Title:        item.Snippet.Title,
			ChannelTitle: item.Snippet.ChannelTitle,
			ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
			PublishedAt:  item.Snippet.PublishedAt,
		})
	}
	return videos, nil
}

// GetVideoByID fetches a video with its duration and view count
func (s *YouTubeService) GetVideoByID(ctx context.Context, videoID string) (*YouTubeVideo, error) {
	resp, err := s.api.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
		Id(videoID).
		Context(ctx).
		Do()
	if err != nil {
		return nil, &PlatformError{Platform: "youtube", Operation: "get_video", Message: "request failed", Err: err}
	}
	if len(resp.Items) == 0 || resp.Items[0].Snippet == nil {
		return nil, &PlatformError{Platform: "youtube", Operation: "get_video", Message: videoID, Err: ErrNotFound}
	}

	item := resp.Items[0]
	video := &YouTubeVideo{
		ID:           item.Id,
		Title:        item.Snippet.Title,
		ChannelTitle: item.Snippet.ChannelTitle,
		ThumbnailURL: bestThumbnail(item.Snippet.Thumbnails),
		PublishedAt:  item.Snippet.PublishedAt,
	}
	if item.ContentDetails != nil {
		if ms, err := parseISODuration(item.ContentDetails.Duration); err == nil {
			video.DurationMs = &ms
		}
	}
	if item.Statistics != nil {
		views := item.Statistics.ViewCount
		video.ViewCount = &views
	}
	return video, nil
}

// CreatePlaylist creates a private playlist on the token owner's channel
func (s *YouTubeService) CreatePlaylist(ctx context.Context, userToken, name, description string) (*models.CreatedPlaylist, error) {
	api, err := s.userClient(ctx, userToken)
	if err != nil {
		return nil, err
	}

	playlist, err := api.Playlists.Insert([]string{"snippet", "status"}, &youtube.Playlist{
		Snippet: &youtube.PlaylistSnippet{
			Title:       name,
			Description: description,
		},
		Status: &youtube.PlaylistStatus{PrivacyStatus: "private"},
	}).Context(ctx).Do()
	if err != nil {
		return nil, &PlatformError{Platform: "youtube", Operation: "create_playlist", Message: "request failed", Err: err}
	}

	return &models.CreatedPlaylist{
		ID:  playlist.Id,
		URL: "https://music.youtube.com/playlist?list=" + playlist.Id,
	}, nil
}

// AddTracks inserts videos one at a time; on failure the returned
// AddTracksError says how many made it in
func (s *YouTubeService) AddTracks(ctx context.Context, userToken, playlistID string, videoIDs []string) error {
	api, err := s.userClient(ctx, userToken)
	if err != nil {
		return err
	}

	for i, id := range videoIDs {
		_, err := api.PlaylistItems.Insert([]string{"snippet"}, &youtube.PlaylistItem{
			Snippet: &youtube.PlaylistItemSnippet{
				PlaylistId: playlistID,
				ResourceId: &youtube.ResourceId{Kind: "youtube#video", VideoId: id},
			},
		}).Context(ctx).Do()
		if err != nil {
			return &models.AddTracksError{
				Platform: models.SourceYouTube,
				Added:    i,
				Err:      &PlatformError{Platform: "youtube", Operation: "add_tracks", Message: "video " + strconv.Quote(id), Err: err},
			}
		}
	}
	return nil
}

// BuildURL constructs a YouTube Music link from a video id
func (s *YouTubeService) BuildURL(videoID string) string {
	return "https://music.youtube.com/watch?v=" + videoID
}

// Health reports whether the service has credentials; the API has no free ping
func (s *YouTubeService) Health(ctx context.Context) error {
	if s.apiKey == "" {
		return &PlatformError{Platform: "youtube", Operation: "health", Message: "missing API key"}
	}
	return nil
}

func (s *YouTubeService) userClient(ctx context.Context, userToken string) (*youtube.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: userToken, TokenType: "Bearer"})
	api, err := youtube.NewService(ctx, append([]option.ClientOption{option.WithTokenSource(ts)}, s.clientOpts...)...)
	if err != nil {
		return nil, &PlatformError{Platform: "youtube", Operation: "init", Message: "failed to create user client", Err: err}
	}
	return api, nil
}

func bestThumbnail(t *youtube.ThumbnailDetails) string {
	if t == nil {
		return ""
	}
	for _, th := range []*youtube.Thumbnail{t.High, t.Medium, t.Default} {
		if th != nil && th.Url != "" {
			return th.Url
		}
	}
	return ""
}
