package repositories

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"

	"mixmate/internal/models"
)

func toDoc(t *testing.T, v any) bson.D {
	t.Helper()
	raw, err := bson.Marshal(v)
	require.NoError(t, err)
	var doc bson.D
	require.NoError(t, bson.Unmarshal(raw, &doc))
	return doc
}

func storedPlaylist() *models.Playlist {
	p := models.NewPlaylist("Road Trip", "", "user-1")
	p.ID = primitive.NewObjectID()
	p.AddSong(models.PlaylistSong{ID: "s1", Title: "Imagine", Artist: "John Lennon", Platform: models.SourceSpotify,
		PlatformIDs: map[string]string{"spotify": "7pKfPomDEeI4TPT6EOYjn9"}})
	return p
}

func TestMongoPlaylistRepository(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))
	ctx := context.Background()

	mt.Run("create assigns id and timestamps", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		playlist := &models.Playlist{Name: "Road Trip", OwnerID: "user-1"}
		require.NoError(mt, repo.Create(ctx, playlist))

		assert.False(mt, playlist.ID.IsZero())
		assert.Equal(mt, models.CurrentSchemaVersion, playlist.SchemaVersion)
		assert.False(mt, playlist.CreatedAt.IsZero())
		assert.NotNil(mt, playlist.Songs)
	})

	mt.Run("get by id", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		stored := storedPlaylist()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mixmate.playlists", mtest.FirstBatch, toDoc(mt.T, stored)))

		got, err := repo.GetByID(ctx, stored.ID.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, "Road Trip", got.Name)
		require.Len(mt, got.Songs, 1)
		id, ok := got.Songs[0].PlatformID(models.SourceSpotify)
		assert.True(mt, ok)
		assert.Equal(mt, "7pKfPomDEeI4TPT6EOYjn9", id)
	})

	mt.Run("get missing playlist", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mixmate.playlists", mtest.FirstBatch))

		_, err := repo.GetByID(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrPlaylistNotFound)
	})

	mt.Run("invalid id", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)

		_, err := repo.GetByID(ctx, "not-an-id")
		assert.ErrorIs(mt, err, ErrPlaylistNotFound)
		assert.ErrorIs(mt, repo.Delete(ctx, "nope"), ErrPlaylistNotFound)
	})

	mt.Run("old documents are upgraded on read", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		oid := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mixmate.playlists", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: oid},
			{Key: "name", Value: "Legacy"},
			{Key: "owner_id", Value: "user-1"},
		}))

		got, err := repo.GetByID(ctx, oid.Hex())
		require.NoError(mt, err)
		assert.Equal(mt, models.CurrentSchemaVersion, got.SchemaVersion)
		assert.NotNil(mt, got.Songs)
		assert.NotNil(mt, got.Collaborators)
	})

	mt.Run("update and delete report missing playlists", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}),
		)

		err := repo.Update(ctx, storedPlaylist())
		assert.ErrorIs(mt, err, ErrPlaylistNotFound)

		err = repo.Delete(ctx, primitive.NewObjectID().Hex())
		assert.ErrorIs(mt, err, ErrPlaylistNotFound)
	})

	mt.Run("update writes metadata", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		playlist := storedPlaylist()
		playlist.Name = "Night Drive"
		playlist.Collaborators = nil
		before := playlist.UpdatedAt

		require.NoError(mt, repo.Update(ctx, playlist))
		assert.NotNil(mt, playlist.Collaborators)
		assert.False(mt, playlist.UpdatedAt.Before(before))
	})

	mt.Run("update requires an id", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		assert.Error(mt, repo.Update(ctx, &models.Playlist{Name: "x"}))
	})

	mt.Run("delete", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}))
		assert.NoError(mt, repo.Delete(ctx, primitive.NewObjectID().Hex()))
	})

	mt.Run("list by owner", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		a, b := storedPlaylist(), storedPlaylist()
		b.Name = "Focus"
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mixmate.playlists", mtest.FirstBatch, toDoc(mt.T, a), toDoc(mt.T, b)))

		playlists, err := repo.ListByOwner(ctx, "user-1", 0)
		require.NoError(mt, err)
		require.Len(mt, playlists, 2)
		assert.Equal(mt, "Focus", playlists[1].Name)
	})

	mt.Run("list for user includes collaborations", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		own := storedPlaylist()
		shared := storedPlaylist()
		shared.OwnerID = "user-2"
		shared.Collaborators = []string{"user-1"}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mixmate.playlists", mtest.FirstBatch, toDoc(mt.T, own), toDoc(mt.T, shared)))

		playlists, err := repo.ListForUser(ctx, "user-1", 10)
		require.NoError(mt, err)
		require.Len(mt, playlists, 2)
		assert.Equal(mt, []string{"user-1"}, playlists[1].Collaborators)
	})

	mt.Run("like and unlike", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}),
		)
		id := primitive.NewObjectID().Hex()

		assert.NoError(mt, repo.LikeSong(ctx, id, "s1", 1))
		assert.NoError(mt, repo.LikeSong(ctx, id, "s1", -1))
	})

	mt.Run("unlike at zero is a no-op", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "mixmate.playlists", mtest.FirstBatch, bson.D{{Key: "n", Value: int32(1)}}),
		)

		assert.NoError(mt, repo.LikeSong(ctx, primitive.NewObjectID().Hex(), "s1", -1))
	})

	mt.Run("like missing song", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateCursorResponse(0, "mixmate.playlists", mtest.FirstBatch),
		)
		id := primitive.NewObjectID().Hex()

		assert.ErrorIs(mt, repo.LikeSong(ctx, id, "s9", 1), ErrSongNotFound)
		assert.ErrorIs(mt, repo.LikeSong(ctx, id, "s9", -1), ErrSongNotFound)
	})

	mt.Run("add song assigns an id", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		song, err := repo.AddSong(ctx, primitive.NewObjectID().Hex(), models.PlaylistSong{Title: "Imagine", Artist: "John Lennon"})
		require.NoError(mt, err)
		assert.NotEmpty(mt, song.ID)
		assert.WithinDuration(mt, time.Now(), song.AddedAt, time.Minute)
	})

	mt.Run("add song to missing playlist", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}))

		_, err := repo.AddSong(ctx, primitive.NewObjectID().Hex(), models.PlaylistSong{Title: "Imagine"})
		assert.ErrorIs(mt, err, ErrPlaylistNotFound)
	})

	mt.Run("remove and set platform id on missing song", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
			mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 0}, bson.E{Key: "nModified", Value: 0}),
		)
		id := primitive.NewObjectID().Hex()

		assert.ErrorIs(mt, repo.RemoveSong(ctx, id, "s9"), ErrSongNotFound)
		assert.ErrorIs(mt, repo.SetSongPlatformID(ctx, id, "s9", models.SourceYouTube, "yt"), ErrSongNotFound)
	})

	mt.Run("set platform id", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "n", Value: 1}, bson.E{Key: "nModified", Value: 1}))

		err := repo.SetSongPlatformID(ctx, primitive.NewObjectID().Hex(), "s1", models.SourceYouTube, "YkgkThdzX-8")
		assert.NoError(mt, err)
	})

	mt.Run("for each missing", func(mt *mtest.T) {
		repo := newMongoPlaylistRepository(mt.Coll)
		a, b := storedPlaylist(), storedPlaylist()
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "mixmate.playlists", mtest.FirstBatch, toDoc(mt.T, a), toDoc(mt.T, b)))

		var seen []primitive.ObjectID
		err := repo.ForEachMissing(ctx, models.SourceYouTube, func(p *models.Playlist) error {
			seen = append(seen, p.ID)
			return nil
		})
		require.NoError(mt, err)
		assert.Equal(mt, []primitive.ObjectID{a.ID, b.ID}, seen)
	})
}

func TestDecodeChange(t *testing.T) {
	stored := storedPlaylist()
	raw, err := bson.Marshal(bson.D{
		{Key: "operationType", Value: "update"},
		{Key: "documentKey", Value: bson.D{{Key: "_id", Value: stored.ID}}},
		{Key: "fullDocument", Value: toDoc(t, stored)},
	})
	require.NoError(t, err)

	change, err := decodeChange(raw)
	require.NoError(t, err)
	assert.Equal(t, "update", change.Operation)
	assert.Equal(t, stored.ID.Hex(), change.PlaylistID)
	require.NotNil(t, change.Playlist)
	assert.Equal(t, "Road Trip", change.Playlist.Name)

	raw, err = bson.Marshal(bson.D{
		{Key: "operationType", Value: "delete"},
		{Key: "documentKey", Value: bson.D{{Key: "_id", Value: stored.ID}}},
	})
	require.NoError(t, err)

	change, err = decodeChange(raw)
	require.NoError(t, err)
	assert.Equal(t, "delete", change.Operation)
	assert.Nil(t, change.Playlist)
}
