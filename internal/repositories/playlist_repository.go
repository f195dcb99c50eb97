package repositories

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mixmate/internal/models"
)

var (
	ErrPlaylistNotFound = errors.New("playlist not found")
	ErrSongNotFound     = errors.New("song not found in playlist")
)

// PlaylistRepository defines the playlist document operations
type PlaylistRepository interface {
	Create(ctx context.Context, playlist *models.Playlist) error
	GetByID(ctx context.Context, id string) (*models.Playlist, error)
	Update(ctx context.Context, playlist *models.Playlist) error
	Delete(ctx context.Context, id string) error
	ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Playlist, error)
	// ListForUser returns playlists the user owns or collaborates on
	ListForUser(ctx context.Context, userID string, limit int) ([]*models.Playlist, error)

	// Song snapshots
	AddSong(ctx context.Context, playlistID string, song models.PlaylistSong) (*models.PlaylistSong, error)
	RemoveSong(ctx context.Context, playlistID, songID string) error
	SetSongPlatformID(ctx context.Context, playlistID, songID string, platform models.Source, platformID string) error
	// LikeSong moves a song's like count by delta, never below zero
	LikeSong(ctx context.Context, playlistID, songID string, delta int) error

	// ForEachMissing calls fn for every playlist holding at least one song
	// without an id on platform
	ForEachMissing(ctx context.Context, platform models.Source, fn func(*models.Playlist) error) error

	// Watch streams changes to one playlist until ctx is done
	Watch(ctx context.Context, playlistID string) (<-chan models.PlaylistChange, error)

	Health(ctx context.Context) error
}

type mongoPlaylistRepository struct {
	collection *mongo.Collection
}

// NewMongoPlaylistRepository creates a MongoDB-backed playlist repository
func NewMongoPlaylistRepository(db *models.Database) PlaylistRepository {
	return newMongoPlaylistRepository(db.DB.Collection(models.PlaylistsCollection))
}

func newMongoPlaylistRepository(collection *mongo.Collection) *mongoPlaylistRepository {
	return &mongoPlaylistRepository{collection: collection}
}

func (r *mongoPlaylistRepository) Create(ctx context.Context, playlist *models.Playlist) error {
	now := time.Now()
	playlist.SchemaVersion = models.CurrentSchemaVersion
	if playlist.CreatedAt.IsZero() {
		playlist.CreatedAt = now
	}
	playlist.UpdatedAt = now
	if playlist.Songs == nil {
		playlist.Songs = []models.PlaylistSong{}
	}
	if playlist.Collaborators == nil {
		playlist.Collaborators = []string{}
	}

	result, err := r.collection.InsertOne(ctx, playlist)
	if err != nil {
		return fmt.Errorf("failed to insert playlist: %w", err)
	}
	if id, ok := result.InsertedID.(primitive.ObjectID); ok {
		playlist.ID = id
	}
	return nil
}

func (r *mongoPlaylistRepository) GetByID(ctx context.Context, id string) (*models.Playlist, error) {
	oid, err := playlistObjectID(id)
	if err != nil {
		return nil, err
	}

	var playlist models.Playlist
	if err := r.collection.FindOne(ctx, bson.M{"_id": oid}).Decode(&playlist); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fmt.Errorf("%w: %s", ErrPlaylistNotFound, id)
		}
		return nil, fmt.Errorf("failed to find playlist: %w", err)
	}

	upgradeSchema(&playlist)
	return &playlist, nil
}

// Update writes the playlist metadata. Songs are only changed through the
// song operations so concurrent adds are not overwritten.
func (r *mongoPlaylistRepository) Update(ctx context.Context, playlist *models.Playlist) error {
	if playlist.ID.IsZero() {
		return fmt.Errorf("playlist ID is required for update")
	}
	if playlist.Collaborators == nil {
		playlist.Collaborators = []string{}
	}

	playlist.SchemaVersion = models.CurrentSchemaVersion
	playlist.UpdatedAt = time.Now()

	update := bson.M{"$set": bson.M{
		"name":           playlist.Name,
		"description":    playlist.Description,
		"collaborators":  playlist.Collaborators,
		"schema_version": playlist.SchemaVersion,
		"updated_at":     playlist.UpdatedAt,
	}}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": playlist.ID}, update)
	if err != nil {
		return fmt.Errorf("failed to update playlist: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrPlaylistNotFound, playlist.ID.Hex())
	}
	return nil
}

func (r *mongoPlaylistRepository) Delete(ctx context.Context, id string) error {
	oid, err := playlistObjectID(id)
	if err != nil {
		return err
	}

	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("failed to delete playlist: %w", err)
	}
	if result.DeletedCount == 0 {
		return fmt.Errorf("%w: %s", ErrPlaylistNotFound, id)
	}
	return nil
}

func (r *mongoPlaylistRepository) ListByOwner(ctx context.Context, ownerID string, limit int) ([]*models.Playlist, error) {
	return r.list(ctx, bson.M{"owner_id": ownerID}, limit)
}

func (r *mongoPlaylistRepository) ListForUser(ctx context.Context, userID string, limit int) ([]*models.Playlist, error) {
	return r.list(ctx, bson.M{"$or": bson.A{
		bson.M{"owner_id": userID},
		bson.M{"collaborators": userID},
	}}, limit)
}

func (r *mongoPlaylistRepository) list(ctx context.Context, filter bson.M, limit int) ([]*models.Playlist, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	opts := options.Find().
		SetSort(bson.D{{Key: "updated_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list playlists: %w", err)
	}
	defer cursor.Close(ctx)

	playlists := []*models.Playlist{}
	for cursor.Next(ctx) {
		var playlist models.Playlist
		if err := cursor.Decode(&playlist); err != nil {
			slog.Error("Failed to decode playlist", "error", err)
			continue
		}
		upgradeSchema(&playlist)
		playlists = append(playlists, &playlist)
	}
	return playlists, cursor.Err()
}

func (r *mongoPlaylistRepository) AddSong(ctx context.Context, playlistID string, song models.PlaylistSong) (*models.PlaylistSong, error) {
	oid, err := playlistObjectID(playlistID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	if song.ID == "" {
		song.ID = primitive.NewObjectID().Hex()
	}
	if song.AddedAt.IsZero() {
		song.AddedAt = now
	}

	update := bson.M{
		"$push": bson.M{"songs": song},
		"$set":  bson.M{"updated_at": now},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid}, update)
	if err != nil {
		return nil, fmt.Errorf("failed to add song: %w", err)
	}
	if result.MatchedCount == 0 {
		return nil, fmt.Errorf("%w: %s", ErrPlaylistNotFound, playlistID)
	}
	return &song, nil
}

func (r *mongoPlaylistRepository) RemoveSong(ctx context.Context, playlistID, songID string) error {
	oid, err := playlistObjectID(playlistID)
	if err != nil {
		return err
	}

	update := bson.M{
		"$pull": bson.M{"songs": bson.M{"id": songID}},
		"$set":  bson.M{"updated_at": time.Now()},
	}
	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": oid, "songs.id": songID}, update)
	if err != nil {
		return fmt.Errorf("failed to remove song: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrSongNotFound, songID)
	}
	return nil
}

// SetSongPlatformID records a resolved id on one song snapshot without
// rewriting the rest of the playlist
func (r *mongoPlaylistRepository) SetSongPlatformID(ctx context.Context, playlistID, songID string, platform models.Source, platformID string) error {
	oid, err := playlistObjectID(playlistID)
	if err != nil {
		return err
	}

	filter := bson.M{"_id": oid, "songs.id": songID}
	update := bson.M{"$set": bson.M{
		"songs.$.platform_ids." + string(platform): platformID,
		"updated_at": time.Now(),
	}}
	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to set platform id: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("%w: %s", ErrSongNotFound, songID)
	}
	return nil
}

func (r *mongoPlaylistRepository) LikeSong(ctx context.Context, playlistID, songID string, delta int) error {
	oid, err := playlistObjectID(playlistID)
	if err != nil {
		return err
	}
	if delta == 0 {
		return nil
	}

	match := bson.M{"id": songID}
	if delta < 0 {
		match["likes"] = bson.M{"$gte": -delta}
	}
	filter := bson.M{"_id": oid, "songs": bson.M{"$elemMatch": match}}
	update := bson.M{"$inc": bson.M{"songs.$.likes": delta}}

	result, err := r.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to like song: %w", err)
	}
	if result.MatchedCount > 0 {
		return nil
	}
	if delta > 0 {
		return fmt.Errorf("%w: %s", ErrSongNotFound, songID)
	}

	// an unlike at zero is a no-op as long as the song exists
	n, err := r.collection.CountDocuments(ctx, bson.M{"_id": oid, "songs.id": songID})
	if err != nil {
		return fmt.Errorf("failed to like song: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrSongNotFound, songID)
	}
	return nil
}

func (r *mongoPlaylistRepository) ForEachMissing(ctx context.Context, platform models.Source, fn func(*models.Playlist) error) error {
	filter := bson.M{"songs": bson.M{"$elemMatch": bson.M{
		"platform_ids." + string(platform): bson.M{"$exists": false},
	}}}

	cursor, err := r.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return fmt.Errorf("failed to scan playlists: %w", err)
	}
	defer cursor.Close(ctx)

	for cursor.Next(ctx) {
		var playlist models.Playlist
		if err := cursor.Decode(&playlist); err != nil {
			slog.Error("Failed to decode playlist", "error", err)
			continue
		}
		upgradeSchema(&playlist)
		if err := fn(&playlist); err != nil {
			return err
		}
	}
	return cursor.Err()
}

// Watch opens a change stream filtered to one playlist. The channel closes
// when ctx is done or the stream fails.
func (r *mongoPlaylistRepository) Watch(ctx context.Context, playlistID string) (<-chan models.PlaylistChange, error) {
	oid, err := playlistObjectID(playlistID)
	if err != nil {
		return nil, err
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"documentKey._id": oid}}},
	}
	stream, err := r.collection.Watch(ctx, pipeline, options.ChangeStream().SetFullDocument(options.UpdateLookup))
	if err != nil {
		return nil, fmt.Errorf("failed to watch playlist: %w", err)
	}

	changes := make(chan models.PlaylistChange)
	go func() {
		defer close(changes)
		defer stream.Close(context.Background())

		for stream.Next(ctx) {
			change, err := decodeChange(stream.Current)
			if err != nil {
				slog.Error("Failed to decode playlist change", "playlist_id", playlistID, "error", err)
				continue
			}
			select {
			case changes <- change:
			case <-ctx.Done():
				return
			}
		}
		if err := stream.Err(); err != nil && ctx.Err() == nil {
			slog.Error("Playlist change stream failed", "playlist_id", playlistID, "error", err)
		}
	}()

	return changes, nil
}

type changeEvent struct {
	OperationType string `bson:"operationType"`
	DocumentKey   struct {
		ID primitive.ObjectID `bson:"_id"`
	} `bson:"documentKey"`
	FullDocument *models.Playlist `bson:"fullDocument"`
}

func decodeChange(raw bson.Raw) (models.PlaylistChange, error) {
	var event changeEvent
	if err := bson.Unmarshal(raw, &event); err != nil {
		return models.PlaylistChange{}, err
	}
	if event.FullDocument != nil {
		upgradeSchema(event.FullDocument)
	}
	return models.PlaylistChange{
		Operation:  event.OperationType,
		PlaylistID: event.DocumentKey.ID.Hex(),
		Playlist:   event.FullDocument,
	}, nil
}

func (r *mongoPlaylistRepository) Health(ctx context.Context) error {
	return r.collection.Database().Client().Ping(ctx, nil)
}

func playlistObjectID(id string) (primitive.ObjectID, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return primitive.NilObjectID, fmt.Errorf("%w: invalid id %q", ErrPlaylistNotFound, id)
	}
	return oid, nil
}

// upgradeSchema fills fields older documents lack
func upgradeSchema(playlist *models.Playlist) {
	if playlist.SchemaVersion >= models.CurrentSchemaVersion {
		return
	}
	if playlist.Songs == nil {
		playlist.Songs = []models.PlaylistSong{}
	}
	if playlist.Collaborators == nil {
		playlist.Collaborators = []string{}
	}
	playlist.SchemaVersion = models.CurrentSchemaVersion
}
