package testutil

import (
	"mixmate/internal/models"
)

// Test data constants
const (
	// Imagine, John Lennon
	TestISRC1 = "GBUM71029602"
	// Bohemian Rhapsody, Queen
	TestISRC2 = "GBUM71029604"
	TestISRC3 = "USUM71703861"

	SpotifyTrackID1 = "7pKfPomDEeI4TPT6EOYjn9"
	SpotifyTrackID2 = "4u7EnebtmKWzUH433cf5Qv"

	YouTubeVideoID1 = "YkgkThdzX-8"
	YouTubeVideoID2 = "fJ9rUzIMcZQ"

	AppleMusicTrackID1 = "1440853777"
	TidalTrackID1      = "77646168"

	SpotifyURL1 = "https://open.spotify.com/track/" + SpotifyTrackID1
	YouTubeURL1 = "https://music.youtube.com/watch?v=" + YouTubeVideoID1
)

// CandidateBuilder provides a fluent interface for building test candidates
type CandidateBuilder struct {
	c models.CandidateSong
}

// NewCandidateBuilder starts a Spotify candidate for Imagine
func NewCandidateBuilder() *CandidateBuilder {
	return &CandidateBuilder{c: models.CandidateSong{
		SourceID: SpotifyTrackID1,
		Source:   models.SourceSpotify,
		Title:    "Imagine",
		Artist:   "John Lennon",
		Genres:   []string{},
	}}
}

func (b *CandidateBuilder) WithSource(source models.Source, id string) *CandidateBuilder {
	b.c.Source = source
	b.c.SourceID = id
	return b
}

func (b *CandidateBuilder) WithTitle(title string) *CandidateBuilder {
	b.c.Title = title
	return b
}

func (b *CandidateBuilder) WithArtist(artist string) *CandidateBuilder {
	b.c.Artist = artist
	return b
}

func (b *CandidateBuilder) WithAlbum(album string) *CandidateBuilder {
	b.c.Album = &album
	return b
}

func (b *CandidateBuilder) WithISRC(isrc string) *CandidateBuilder {
	b.c.ISRC = &isrc
	return b
}

func (b *CandidateBuilder) WithDuration(durationMs int) *CandidateBuilder {
	b.c.DurationMs = &durationMs
	return b
}

func (b *CandidateBuilder) WithPopularity(popularity int) *CandidateBuilder {
	b.c.Popularity = &popularity
	return b
}

func (b *CandidateBuilder) WithImageURL(url string) *CandidateBuilder {
	b.c.ImageURL = &url
	return b
}

func (b *CandidateBuilder) WithPreviewURL(url string) *CandidateBuilder {
	b.c.PreviewURL = &url
	return b
}

func (b *CandidateBuilder) WithExternalURL(url string) *CandidateBuilder {
	b.c.ExternalURL = &url
	return b
}

func (b *CandidateBuilder) WithGenres(genres ...string) *CandidateBuilder {
	b.c.Genres = genres
	return b
}

func (b *CandidateBuilder) Build() models.CandidateSong {
	c := b.c
	c.Genres = append([]string{}, b.c.Genres...)
	return c
}

// ImagineOnSpotify is the Spotify side of the Imagine fixture
func ImagineOnSpotify() models.CandidateSong {
	return NewCandidateBuilder().
		WithAlbum("Imagine").
		WithISRC(TestISRC1).
		WithDuration(187000).
		WithPopularity(80).
		WithExternalURL(SpotifyURL1).
		Build()
}

// ImagineOnYouTube is the YouTube side of the Imagine fixture
func ImagineOnYouTube() models.CandidateSong {
	return NewCandidateBuilder().
		WithSource(models.SourceYouTube, YouTubeVideoID1).
		WithTitle("Imagine (Remastered)").
		WithISRC(TestISRC1).
		WithImageURL("https://i.ytimg.com/vi/" + YouTubeVideoID1 + "/hqdefault.jpg").
		WithExternalURL(YouTubeURL1).
		Build()
}

// PlaylistSongFixture creates a stored playlist song
func PlaylistSongFixture(id, title, artist string, platformIDs map[string]string) models.PlaylistSong {
	return models.PlaylistSong{
		ID:          id,
		Title:       title,
		Artist:      artist,
		Platform:    models.SourceSpotify,
		PlatformIDs: platformIDs,
	}
}
