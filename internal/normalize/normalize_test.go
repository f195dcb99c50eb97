package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mixmate/internal/models"
	"mixmate/internal/services"
	"mixmate/internal/testutil"
)

func TestCleanVideoTitle(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Imagine (Official Video)", "Imagine"},
		{"Imagine (official music video)", "Imagine"},
		{"Imagine [Official Audio]", "Imagine"},
		{"Imagine (Lyric Video) [HD]", "Imagine"},
		{"Imagine (Official Lyric Video)", "Imagine"},
		{"Imagine ( Lyrics )", "Imagine"},
		{"Imagine (4K)  (Visualizer)", "Imagine"},
		{"Imagine (Audio)", "Imagine"},
		{"Imagine (Remastered 2010)", "Imagine (Remastered 2010)"},
		{"  Imagine   -   Live  ", "Imagine - Live"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, CleanVideoTitle(tt.in))
		})
	}
}

func TestSplitArtistTitle(t *testing.T) {
	tests := []struct {
		name       string
		cleaned    string
		channel    string
		wantArtist string
		wantTitle  string
	}{
		{"separator", "John Lennon - Imagine", "Some Uploader", "John Lennon", "Imagine"},
		{"only first separator splits", "Queen - Bohemian Rhapsody - Remastered", "x", "Queen", "Bohemian Rhapsody - Remastered"},
		{"topic channel", "Imagine", "John Lennon - Topic", "John Lennon", "Imagine"},
		{"plain channel", "Imagine", "JohnLennonVEVO", "JohnLennonVEVO", "Imagine"},
		{"empty side falls back to channel", " - Imagine", "John Lennon", "John Lennon", "- Imagine"},
		{"hyphen without spaces", "Jay-Z", "JAY-Z - Topic", "JAY-Z", "Jay-Z"},
		{"en dash", "John Lennon \u2013 Imagine", "Channel", "John Lennon", "Imagine"},
		{"em dash", "John Lennon \u2014 Imagine", "Channel", "John Lennon", "Imagine"},
		{"earliest separator wins", "Queen \u2013 Bohemian Rhapsody - Live", "x", "Queen", "Bohemian Rhapsody - Live"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			artist, title := SplitArtistTitle(tt.cleaned, tt.channel)
			assert.Equal(t, tt.wantArtist, artist)
			assert.Equal(t, tt.wantTitle, title)
		})
	}
}

func TestText(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Imagine", "imagine"},
		{"  Beyoncé  ", "beyonce"},
		{"Sigur Rós", "sigur ros"},
		{"Don't Stop Me Now!", "dont stop me now"},
		{"AC/DC", "acdc"},
		{"Hello,   World", "hello world"},
		{"", ""},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Text(tt.in))
		})
	}
}

func TestFromSpotify(t *testing.T) {
	popularity := 80
	preview := "https://p.scdn.co/mp3-preview/x"
	track := services.SpotifyTrack{
		ID:          testutil.SpotifyTrackID1,
		Name:        " Imagine ",
		Artists:     []services.SpotifyArtist{{Name: "John Lennon"}, {Name: "Plastic Ono Band"}},
		Album:       services.SpotifyAlbum{Name: "Imagine", ReleaseDate: "1971-09-09", Images: []services.SpotifyImage{{URL: "https://i.scdn.co/640.jpg"}}},
		DurationMs:  187000,
		Popularity:  &popularity,
		PreviewURL:  &preview,
		ExternalIDs: services.SpotifyExternalIDs{ISRC: testutil.TestISRC1},
	}

	c, err := FromSpotify(track)
	require.NoError(t, err)
	assert.Equal(t, models.SourceSpotify, c.Source)
	assert.Equal(t, testutil.SpotifyTrackID1, c.SourceID)
	assert.Equal(t, "Imagine", c.Title)
	assert.Equal(t, "John Lennon, Plastic Ono Band", c.Artist)
	assert.Equal(t, "Imagine", *c.Album)
	assert.Equal(t, 187000, *c.DurationMs)
	assert.Equal(t, 80, *c.Popularity)
	assert.Equal(t, testutil.TestISRC1, *c.ISRC)
	assert.Equal(t, "https://i.scdn.co/640.jpg", *c.ImageURL)
	assert.Equal(t, preview, *c.PreviewURL)
	assert.Equal(t, testutil.SpotifyURL1, *c.ExternalURL)
	assert.Equal(t, "1971-09-09", *c.ReleaseDate)
	assert.Empty(t, c.Genres)

	again, err := FromSpotify(track)
	require.NoError(t, err)
	assert.Equal(t, c, again, "normalization is deterministic")
}

func TestFromSpotify_AbsentFieldsStayNil(t *testing.T) {
	c, err := FromSpotify(services.SpotifyTrack{
		ID:      "x",
		Name:    "Song",
		Artists: []services.SpotifyArtist{{Name: "Artist"}},
	})
	require.NoError(t, err)
	assert.Nil(t, c.Album)
	assert.Nil(t, c.DurationMs)
	assert.Nil(t, c.Popularity)
	assert.Nil(t, c.ISRC)
	assert.Nil(t, c.PreviewURL)
	assert.Nil(t, c.ImageURL)
	assert.Nil(t, c.ReleaseDate)
}

func TestFromSpotify_Malformed(t *testing.T) {
	_, err := FromSpotify(services.SpotifyTrack{ID: "x", Name: "Song"})
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = FromSpotify(services.SpotifyTrack{ID: "x", Artists: []services.SpotifyArtist{{Name: "A"}}})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestFromYouTube(t *testing.T) {
	ms := 187000
	tests := []struct {
		name       string
		video      services.YouTubeVideo
		wantTitle  string
		wantArtist string
	}{
		{
			name:       "artist in title",
			video:      services.YouTubeVideo{ID: "v1", Title: "John Lennon - Imagine (Official Video)", ChannelTitle: "JohnLennonVEVO"},
			wantTitle:  "Imagine",
			wantArtist: "John Lennon",
		},
		{
			name:       "topic channel",
			video:      services.YouTubeVideo{ID: "v2", Title: "Imagine (Remastered 2010)", ChannelTitle: "John Lennon - Topic"},
			wantTitle:  "Imagine (Remastered 2010)",
			wantArtist: "John Lennon",
		},
		{
			name:       "html entities are unescaped",
			video:      services.YouTubeVideo{ID: "v3", Title: "Guns N&#39; Roses - Don&#39;t Cry [HD]", ChannelTitle: "GNR"},
			wantTitle:  "Don't Cry",
			wantArtist: "Guns N' Roses",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.video.DurationMs = &ms
			c, err := FromYouTube(tt.video)
			require.NoError(t, err)
			assert.Equal(t, models.SourceYouTube, c.Source)
			assert.Equal(t, tt.wantTitle, c.Title)
			assert.Equal(t, tt.wantArtist, c.Artist)
			assert.Equal(t, "https://music.youtube.com/watch?v="+tt.video.ID, *c.ExternalURL)
			assert.Equal(t, ms, *c.DurationMs)
			assert.Nil(t, c.Popularity)
			assert.Nil(t, c.ISRC)
			assert.Nil(t, c.Album)
		})
	}
}

func TestFromYouTube_Malformed(t *testing.T) {
	_, err := FromYouTube(services.YouTubeVideo{ID: "v", Title: "(Official Video)", ChannelTitle: "Someone"})
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = FromYouTube(services.YouTubeVideo{ID: "v", Title: "Imagine"})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}

func TestFromAppleMusic(t *testing.T) {
	song := services.AppleMusicSong{
		ID: testutil.AppleMusicTrackID1,
		Attributes: services.AppleMusicSongAttributes{
			Name:             "Imagine",
			ArtistName:       "John Lennon",
			AlbumName:        "Imagine",
			ISRC:             testutil.TestISRC1,
			DurationInMillis: 183000,
			ReleaseDate:      "1971-09-09",
			GenreNames:       []string{"Rock", "Music"},
			URL:              "https://music.apple.com/us/song/1440853777",
			Artwork:          services.AppleMusicArtwork{URL: "https://is1.mzstatic.com/{w}x{h}bb.jpg"},
		},
	}

	c, err := FromAppleMusic(song)
	require.NoError(t, err)
	assert.Equal(t, models.SourceAppleMusic, c.Source)
	assert.Equal(t, "Imagine", c.Title)
	assert.Equal(t, 183000, *c.DurationMs)
	assert.Equal(t, testutil.TestISRC1, *c.ISRC)
	assert.Equal(t, []string{"Rock"}, c.Genres)
	assert.Equal(t, "https://is1.mzstatic.com/640x640bb.jpg", *c.ImageURL)
	assert.Nil(t, c.PreviewURL)
	assert.Nil(t, c.Popularity)
}

func TestFromTidal(t *testing.T) {
	track := &services.TidalTrack{
		ID:         testutil.TidalTrackID1,
		Title:      "Imagine",
		Version:    "Remastered 2010",
		ISRC:       testutil.TestISRC1,
		Duration:   "PT3M3S",
		Popularity: 0.826,
		Artists:    []*services.TidalArtist{{ID: "a", Name: "John Lennon"}},
		Albums:     []*services.TidalAlbum{{ID: "b", Title: "Imagine", ReleaseDate: "1971-09-09"}},
	}

	c, err := FromTidal(track)
	require.NoError(t, err)
	assert.Equal(t, models.SourceTidal, c.Source)
	assert.Equal(t, "Imagine (Remastered 2010)", c.Title)
	assert.Equal(t, "John Lennon", c.Artist)
	assert.Equal(t, 183000, *c.DurationMs)
	assert.Equal(t, 83, *c.Popularity)
	assert.Equal(t, "Imagine", *c.Album)
	assert.Equal(t, "1971-09-09", *c.ReleaseDate)
	assert.Equal(t, "https://tidal.com/browse/track/"+testutil.TidalTrackID1, *c.ExternalURL)

	_, err = FromTidal(nil)
	assert.ErrorIs(t, err, ErrMalformedRecord)

	_, err = FromTidal(&services.TidalTrack{ID: "x", Title: "No artist"})
	assert.ErrorIs(t, err, ErrMalformedRecord)
}
