package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCandidateSong_Validate(t *testing.T) {
	tests := []struct {
		name    string
		song    CandidateSong
		wantErr bool
	}{
		{
			name: "valid",
			song: CandidateSong{Title: "Imagine", Artist: "John Lennon"},
		},
		{
			name:    "empty title",
			song:    CandidateSong{Title: "  ", Artist: "John Lennon"},
			wantErr: true,
		},
		{
			name:    "empty artist",
			song:    CandidateSong{Title: "Imagine"},
			wantErr: true,
		},
		{
			name:    "negative duration",
			song:    CandidateSong{Title: "Imagine", Artist: "John Lennon", DurationMs: IntPtr(-1)},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.song.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidCandidate)
				return
			}
			assert.NoError(t, err)
		})
	}
}

func TestUnifiedSong_AddPlatformLink(t *testing.T) {
	song := &UnifiedSong{Title: "Test Song", Artist: "Test Artist"}

	song.AddPlatformLink(SourceSpotify, "track123", "https://open.spotify.com/track/track123")
	song.AddPlatformLink(SourceYouTube, "vid1", "https://www.youtube.com/watch?v=vid1")

	require.Len(t, song.PlatformLinks, 2)
	assert.Equal(t, []Source{SourceSpotify, SourceYouTube}, song.Platforms())

	link := song.GetPlatformLink(SourceYouTube)
	require.NotNil(t, link)
	assert.Equal(t, "vid1", link.ExternalID)
}

func TestUnifiedSong_AddPlatformLink_UpdateExisting(t *testing.T) {
	song := &UnifiedSong{}

	song.AddPlatformLink(SourceSpotify, "track123", "")
	song.AddPlatformLink(SourceSpotify, "track456", "https://open.spotify.com/track/track456")

	require.Len(t, song.PlatformLinks, 1)
	assert.Equal(t, "track456", song.PlatformLinks[0].ExternalID)
	assert.Equal(t, "https://open.spotify.com/track/track456", song.PlatformLinks[0].URL)
}

func TestUnifiedSong_HasPlatform(t *testing.T) {
	song := &UnifiedSong{}
	song.AddPlatformLink(SourceSpotify, "track123", "")

	assert.True(t, song.HasPlatform(SourceSpotify))
	assert.False(t, song.HasPlatform(SourceAppleMusic))
	assert.Nil(t, song.GetPlatformLink(SourceYouTube))
}

func TestSource_DisplayName(t *testing.T) {
	assert.Equal(t, "Spotify", SourceSpotify.DisplayName())
	assert.Equal(t, "Apple Music", SourceAppleMusic.DisplayName())
	assert.Equal(t, "deezer", Source("deezer").DisplayName())
}

func TestStringPtr(t *testing.T) {
	assert.Nil(t, StringPtr(""))
	assert.Nil(t, StringPtr("   "))

	p := StringPtr("Abbey Road")
	require.NotNil(t, p)
	assert.Equal(t, "Abbey Road", *p)
	assert.Equal(t, "Abbey Road", Deref(p))
	assert.Equal(t, "", Deref(nil))
}

func TestNewPlaylist(t *testing.T) {
	playlist := NewPlaylist("Road Trip", "songs for the drive", "user-1")

	assert.Equal(t, CurrentSchemaVersion, playlist.SchemaVersion)
	assert.Equal(t, "Road Trip", playlist.Name)
	assert.Equal(t, "user-1", playlist.OwnerID)
	assert.Empty(t, playlist.Songs)
	assert.NotZero(t, playlist.CreatedAt)
	assert.Equal(t, playlist.CreatedAt, playlist.UpdatedAt)
}

func TestPlaylist_AddAndRemoveSong(t *testing.T) {
	playlist := NewPlaylist("Road Trip", "", "user-1")
	originalUpdatedAt := playlist.UpdatedAt

	time.Sleep(1 * time.Millisecond)

	added := playlist.AddSong(PlaylistSong{Title: "Imagine", Artist: "John Lennon", Platform: SourceSpotify})
	require.Len(t, playlist.Songs, 1)
	assert.NotEmpty(t, added.ID)
	assert.NotZero(t, added.AddedAt)
	assert.True(t, playlist.UpdatedAt.After(originalUpdatedAt))

	assert.False(t, playlist.RemoveSong("missing"))
	assert.True(t, playlist.RemoveSong(added.ID))
	assert.Empty(t, playlist.Songs)
}

func TestPlaylistSong_PlatformID(t *testing.T) {
	song := PlaylistSong{Title: "Imagine", Artist: "John Lennon", Platform: SourceSpotify}

	_, ok := song.PlatformID(SourceSpotify)
	assert.False(t, ok)

	song.SetPlatformID(SourceSpotify, "sp1")
	song.SetPlatformID(SourceYouTube, "")

	id, ok := song.PlatformID(SourceSpotify)
	assert.True(t, ok)
	assert.Equal(t, "sp1", id)

	_, ok = song.PlatformID(SourceYouTube)
	assert.False(t, ok, "empty ids count as missing")
}

func TestPlaylistSong_Candidate(t *testing.T) {
	song := PlaylistSong{
		Title:       " Imagine ",
		Artist:      "John Lennon",
		ISRC:        "GBUM71029602",
		Platform:    SourceSpotify,
		PlatformIDs: map[string]string{"spotify": "sp1"},
	}

	c := song.Candidate()
	assert.Equal(t, "Imagine", c.Title)
	assert.Equal(t, "sp1", c.SourceID)
	assert.Nil(t, c.Album, "missing album stays unset")
	require.NotNil(t, c.ISRC)
	assert.Equal(t, "GBUM71029602", *c.ISRC)
}
