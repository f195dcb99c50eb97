package services

import (
	"strings"
)

// TidalTrack represents a Tidal track resource in JSON:API format
type TidalTrack struct {
	ID string `jsonapi:"primary,tracks"`

	Title      string  `jsonapi:"attr,title"`
	Version    string  `jsonapi:"attr,version"`
	ISRC       string  `jsonapi:"attr,isrc"`
	Duration   string  `jsonapi:"attr,duration"` // ISO-8601, e.g. PT3M7S
	Explicit   bool    `jsonapi:"attr,explicit"`
	Popularity float64 `jsonapi:"attr,popularity"` // 0..1

	Artists []*TidalArtist `jsonapi:"relation,artists"`
	Albums  []*TidalAlbum  `jsonapi:"relation,albums"`
}

// TidalArtist represents a Tidal artist resource
type TidalArtist struct {
	ID   string `jsonapi:"primary,artists"`
	Name string `jsonapi:"attr,name"`
}

// TidalAlbum represents a Tidal album resource. The release date is kept as
// the raw YYYY-MM-DD string.
type TidalAlbum struct {
	ID          string `jsonapi:"primary,albums"`
	Title       string `jsonapi:"attr,title"`
	ReleaseDate string `jsonapi:"attr,releaseDate"`
}

// TidalSearchResult is the searchResults resource; only its tracks are used
type TidalSearchResult struct {
	ID     string        `jsonapi:"primary,searchResults"`
	Tracks []*TidalTrack `jsonapi:"relation,tracks"`
}

// ArtistNames joins the credited artist names
func (t *TidalTrack) ArtistNames() string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		if a != nil && a.Name != "" {
			names = append(names, a.Name)
		}
	}
	return strings.Join(names, ", ")
}

// Album returns the first album the track appears on
func (t *TidalTrack) Album() *TidalAlbum {
	for _, a := range t.Albums {
		if a != nil {
			return a
		}
	}
	return nil
}

// DurationMs converts the ISO-8601 duration; ok is false when it is missing or malformed
func (t *TidalTrack) DurationMs() (int, bool) {
	if t.Duration == "" {
		return 0, false
	}
	ms, err := parseISODuration(t.Duration)
	return ms, err == nil
}

// buildTidalURL constructs a Tidal URL from a track ID
func buildTidalURL(trackID string) string {
	return "https://tidal.com/browse/track/" + trackID
}
