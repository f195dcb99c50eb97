// Package normalize turns raw platform records into CandidateSongs and holds
// the text folding used for merge keys.
package normalize

import (
	"errors"
	"fmt"
	"html"
	"math"
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"mixmate/internal/models"
	"mixmate/internal/services"
)

// ErrMalformedRecord is returned when a raw record has no usable title or artist
var ErrMalformedRecord = errors.New("malformed record")

var (
	// Parenthesized or bracketed upload noise on video titles
	videoNoiseRegex = regexp.MustCompile(`(?i)\s*[\(\[]\s*(official music video|official lyric video|official video|official audio|lyric video|visualizer|lyrics|audio|hd|4k)\s*[\)\]]`)

	// Anything that is not a letter, digit or whitespace
	punctuationRegex = regexp.MustCompile(`[^\p{L}\p{N}\s]+`)

	whitespaceRegex = regexp.MustCompile(`\s+`)
)

// CleanVideoTitle strips upload noise such as "(Official Video)" or "[HD]"
func CleanVideoTitle(title string) string {
	title = videoNoiseRegex.ReplaceAllString(title, " ")
	return collapse(title)
}

// Hyphen, en dash and em dash, each surrounded by spaces
var titleSeparators = []string{" - ", " \u2013 ", " \u2014 "}

// SplitArtistTitle splits "<artist> - <title>" on the first dash separator.
// When the title has no such separator the channel is the artist, minus an
// auto-generated " - Topic".
func SplitArtistTitle(cleaned, channel string) (artist, title string) {
	if left, right, ok := cutFirstSeparator(cleaned); ok {
		left, right = strings.TrimSpace(left), strings.TrimSpace(right)
		if left != "" && right != "" {
			return left, right
		}
	}
	return strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(channel), " - Topic")), strings.TrimSpace(cleaned)
}

func cutFirstSeparator(s string) (before, after string, found bool) {
	at, width := -1, 0
	for _, sep := range titleSeparators {
		if i := strings.Index(s, sep); i >= 0 && (at < 0 || i < at) {
			at, width = i, len(sep)
		}
	}
	if at < 0 {
		return s, "", false
	}
	return s[:at], s[at+width:], true
}

// Text folds s for comparison: diacritics removed, lower-cased, punctuation
// dropped and whitespace collapsed
func Text(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = punctuationRegex.ReplaceAllString(folded, "")
	return collapse(folded)
}

// FromSpotify maps a Spotify track
func FromSpotify(t services.SpotifyTrack) (models.CandidateSong, error) {
	c := models.CandidateSong{
		SourceID:    t.ID,
		Source:      models.SourceSpotify,
		Title:       strings.TrimSpace(t.Name),
		Artist:      strings.TrimSpace(t.ArtistNames()),
		Album:       models.StringPtr(t.Album.Name),
		ISRC:        models.StringPtr(t.ExternalIDs.ISRC),
		ReleaseDate: models.StringPtr(t.Album.ReleaseDate),
		Genres:      []string{},
	}
	if t.DurationMs > 0 {
		c.DurationMs = models.IntPtr(t.DurationMs)
	}
	if t.Popularity != nil {
		c.Popularity = models.IntPtr(*t.Popularity)
	}
	if len(t.Album.Images) > 0 {
		c.ImageURL = models.StringPtr(t.Album.Images[0].URL)
	}
	if t.PreviewURL != nil {
		c.PreviewURL = models.StringPtr(*t.PreviewURL)
	}
	if t.ExternalURLs.Spotify != "" {
		c.ExternalURL = models.StringPtr(t.ExternalURLs.Spotify)
	} else if t.ID != "" {
		c.ExternalURL = models.StringPtr("https://open.spotify.com/track/" + t.ID)
	}
	return checked(c)
}

// FromYouTube maps a video, deriving artist and title from the video title
// and channel name
func FromYouTube(v services.YouTubeVideo) (models.CandidateSong, error) {
	cleaned := CleanVideoTitle(html.UnescapeString(v.Title))
	artist, title := SplitArtistTitle(cleaned, html.UnescapeString(v.ChannelTitle))

	c := models.CandidateSong{
		SourceID:    v.ID,
		Source:      models.SourceYouTube,
		Title:       title,
		Artist:      artist,
		ImageURL:    models.StringPtr(v.ThumbnailURL),
		ReleaseDate: models.StringPtr(v.PublishedAt),
		Genres:      []string{},
	}
	if v.DurationMs != nil {
		c.DurationMs = models.IntPtr(*v.DurationMs)
	}
	if v.ID != "" {
		c.ExternalURL = models.StringPtr("https://music.youtube.com/watch?v=" + v.ID)
	}
	return checked(c)
}

// FromAppleMusic maps an Apple Music catalog song
func FromAppleMusic(s services.AppleMusicSong) (models.CandidateSong, error) {
	a := s.Attributes
	c := models.CandidateSong{
		SourceID:    s.ID,
		Source:      models.SourceAppleMusic,
		Title:       strings.TrimSpace(a.Name),
		Artist:      strings.TrimSpace(a.ArtistName),
		Album:       models.StringPtr(a.AlbumName),
		ImageURL:    models.StringPtr(s.ArtworkURL(640)),
		ExternalURL: models.StringPtr(a.URL),
		ISRC:        models.StringPtr(a.ISRC),
		ReleaseDate: models.StringPtr(a.ReleaseDate),
		Genres:      genres(a.GenreNames),
	}
	if a.DurationInMillis > 0 {
		c.DurationMs = models.IntPtr(a.DurationInMillis)
	}
	if len(a.Previews) > 0 {
		c.PreviewURL = models.StringPtr(a.Previews[0].URL)
	}
	return checked(c)
}

// FromTidal maps a Tidal track. Tidal popularity is a 0..1 fraction.
func FromTidal(t *services.TidalTrack) (models.CandidateSong, error) {
	if t == nil {
		return models.CandidateSong{}, fmt.Errorf("%w: nil tidal track", ErrMalformedRecord)
	}

	title := strings.TrimSpace(t.Title)
	if v := strings.TrimSpace(t.Version); v != "" {
		title = fmt.Sprintf("%s (%s)", title, v)
	}

	c := models.CandidateSong{
		SourceID: t.ID,
		Source:   models.SourceTidal,
		Title:    title,
		Artist:   strings.TrimSpace(t.ArtistNames()),
		ISRC:     models.StringPtr(t.ISRC),
		Genres:   []string{},
	}
	if album := t.Album(); album != nil {
		c.Album = models.StringPtr(album.Title)
		c.ReleaseDate = models.StringPtr(album.ReleaseDate)
	}
	if ms, ok := t.DurationMs(); ok {
		c.DurationMs = models.IntPtr(ms)
	}
	if t.Popularity > 0 {
		c.Popularity = models.IntPtr(int(math.Round(math.Min(t.Popularity, 1) * 100)))
	}
	if t.ID != "" {
		c.ExternalURL = models.StringPtr("https://tidal.com/browse/track/" + t.ID)
	}
	return checked(c)
}

func checked(c models.CandidateSong) (models.CandidateSong, error) {
	if err := c.Validate(); err != nil {
		return models.CandidateSong{}, fmt.Errorf("%w: %s %s: %v", ErrMalformedRecord, c.Source, c.SourceID, err)
	}
	return c, nil
}

func genres(in []string) []string {
	out := make([]string, 0, len(in))
	for _, g := range in {
		// Apple tags every song with the catch-all "Music" genre
		if g = strings.TrimSpace(g); g != "" && g != "Music" {
			out = append(out, g)
		}
	}
	return out
}

func collapse(s string) string {
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}
