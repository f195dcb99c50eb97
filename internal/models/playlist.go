package models

import (
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

const CurrentSchemaVersion = 1

// Playlist is a collaborative playlist document
type Playlist struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	SchemaVersion int                `bson:"schema_version" json:"schema_version"`

	Name          string   `bson:"name" json:"name"`
	Description   string   `bson:"description,omitempty" json:"description,omitempty"`
	OwnerID       string   `bson:"owner_id" json:"owner_id"`
	Collaborators []string `bson:"collaborators" json:"collaborators"`

	Songs []PlaylistSong `bson:"songs" json:"songs"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// PlaylistSong is a denormalized snapshot of a song chosen for a playlist.
// PlatformIDs holds the native id per platform, including ids resolved on export.
type PlaylistSong struct {
	ID          string            `bson:"id" json:"id"`
	Title       string            `bson:"title" json:"title"`
	Artist      string            `bson:"artist" json:"artist"`
	Album       string            `bson:"album,omitempty" json:"album,omitempty"`
	ISRC        string            `bson:"isrc,omitempty" json:"isrc,omitempty"`
	Platform    Source            `bson:"platform" json:"platform"`
	PlatformIDs map[string]string `bson:"platform_ids,omitempty" json:"platform_ids,omitempty"`
	AddedBy     string            `bson:"added_by,omitempty" json:"added_by,omitempty"`
	AddedAt     time.Time         `bson:"added_at" json:"added_at"`
	Likes       int               `bson:"likes" json:"likes"`
}

// NewPlaylist creates a playlist owned by ownerID
func NewPlaylist(name, description, ownerID string) *Playlist {
	now := time.Now()
	return &Playlist{
		SchemaVersion: CurrentSchemaVersion,
		Name:          name,
		Description:   description,
		OwnerID:       ownerID,
		Collaborators: make([]string, 0),
		Songs:         make([]PlaylistSong, 0),
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// AddSong appends a song snapshot, assigning an id and timestamp when missing
func (p *Playlist) AddSong(song PlaylistSong) PlaylistSong {
	now := time.Now()
	if song.ID == "" {
		song.ID = primitive.NewObjectID().Hex()
	}
	if song.AddedAt.IsZero() {
		song.AddedAt = now
	}
	p.Songs = append(p.Songs, song)
	p.UpdatedAt = now
	return song
}

// RemoveSong removes the song with songID and reports whether it was present
func (p *Playlist) RemoveSong(songID string) bool {
	for i, song := range p.Songs {
		if song.ID == songID {
			p.Songs = append(p.Songs[:i], p.Songs[i+1:]...)
			p.UpdatedAt = time.Now()
			return true
		}
	}
	return false
}

// PlatformID returns the native id of the song on platform, if known
func (s *PlaylistSong) PlatformID(platform Source) (string, bool) {
	id, ok := s.PlatformIDs[string(platform)]
	return id, ok && id != ""
}

// SetPlatformID records a native id for platform
func (s *PlaylistSong) SetPlatformID(platform Source, id string) {
	if s.PlatformIDs == nil {
		s.PlatformIDs = make(map[string]string)
	}
	s.PlatformIDs[string(platform)] = id
}

// Candidate converts the snapshot into resolver input
func (s *PlaylistSong) Candidate() CandidateSong {
	c := CandidateSong{
		SourceID: s.PlatformIDs[string(s.Platform)],
		Source:   s.Platform,
		Title:    strings.TrimSpace(s.Title),
		Artist:   strings.TrimSpace(s.Artist),
		Album:    StringPtr(s.Album),
		ISRC:     StringPtr(s.ISRC),
		Genres:   []string{},
	}
	return c
}

// SongMapping caches a resolved identifier for a recording on one platform
type SongMapping struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Key        string             `bson:"key" json:"key"`
	Platform   Source             `bson:"platform" json:"platform"`
	PlatformID string             `bson:"platform_id" json:"platform_id"`
	URL        string             `bson:"url,omitempty" json:"url,omitempty"`
	Confidence float64            `bson:"confidence" json:"confidence"`
	CreatedAt  time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt  time.Time          `bson:"updated_at" json:"updated_at"`
}

// CreatedPlaylist is the handle a platform returns for a newly created playlist
type CreatedPlaylist struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// PlaylistChange is one event from a playlist change stream
type PlaylistChange struct {
	Operation  string    `json:"operation"` // insert, update, replace, delete
	PlaylistID string    `json:"playlist_id"`
	Playlist   *Playlist `json:"playlist,omitempty"`
}
