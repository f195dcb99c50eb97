package search

import (
	"mixmate/internal/models"
	"mixmate/internal/normalize"
)

// MergeKey identifies the recording a candidate belongs to: its ISRC when
// known, otherwise its folded title and artist
func MergeKey(c models.CandidateSong) string {
	if c.ISRC != nil && *c.ISRC != "" {
		return "isrc:" + *c.ISRC
	}
	return "text:" + normalize.Text(c.Title) + "|" + normalize.Text(c.Artist)
}

// MergeAll groups candidates by merge key and folds every group into one
// unified song. Groups keep the order in which their first member appeared;
// within a group the first member wins every scalar it has. Candidates that
// fail validation are skipped. The input is not modified.
func MergeAll(candidates []models.CandidateSong) []models.UnifiedSong {
	var order []string
	groups := make(map[string]*models.UnifiedSong)

	for _, c := range candidates {
		if err := c.Validate(); err != nil {
			continue
		}

		key := MergeKey(c)
		song, ok := groups[key]
		if !ok {
			song = newUnified(key, c)
			groups[key] = song
			order = append(order, key)
			continue
		}
		mergeInto(song, c)
	}

	merged := make([]models.UnifiedSong, 0, len(order))
	for _, key := range order {
		merged = append(merged, *groups[key])
	}
	return merged
}

func newUnified(key string, c models.CandidateSong) *models.UnifiedSong {
	song := &models.UnifiedSong{
		ID:          key,
		Source:      c.Source,
		Title:       c.Title,
		Artist:      c.Artist,
		Album:       cloneString(c.Album),
		DurationMs:  cloneInt(c.DurationMs),
		Popularity:  cloneInt(c.Popularity),
		ImageURL:    cloneString(c.ImageURL),
		PreviewURL:  cloneString(c.PreviewURL),
		ISRC:        cloneString(c.ISRC),
		ReleaseDate: cloneString(c.ReleaseDate),
		Genres:      append([]string{}, c.Genres...),
	}
	song.AddPlatformLink(c.Source, c.SourceID, models.Deref(c.ExternalURL))
	return song
}

func mergeInto(song *models.UnifiedSong, c models.CandidateSong) {
	if !song.HasPlatform(c.Source) {
		song.AddPlatformLink(c.Source, c.SourceID, models.Deref(c.ExternalURL))
	}
	if c.Source != song.Source {
		song.Source = models.SourceCombined
	}

	song.Album = firstString(song.Album, c.Album)
	song.DurationMs = firstInt(song.DurationMs, c.DurationMs)
	song.Popularity = firstInt(song.Popularity, c.Popularity)
	song.ImageURL = firstString(song.ImageURL, c.ImageURL)
	song.PreviewURL = firstString(song.PreviewURL, c.PreviewURL)
	song.ISRC = firstString(song.ISRC, c.ISRC)
	song.ReleaseDate = firstString(song.ReleaseDate, c.ReleaseDate)

	if len(song.Genres) == 0 && len(c.Genres) > 0 {
		song.Genres = append([]string{}, c.Genres...)
	}
}

func firstString(have, next *string) *string {
	if have != nil && *have != "" {
		return have
	}
	if next != nil && *next != "" {
		return cloneString(next)
	}
	return have
}

func firstInt(have, next *int) *int {
	if have != nil {
		return have
	}
	return cloneInt(next)
}

func cloneString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func cloneInt(n *int) *int {
	if n == nil {
		return nil
	}
	v := *n
	return &v
}
