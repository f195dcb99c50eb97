package models

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names
const (
	PlaylistsCollection = "playlists"
	MappingsCollection  = "song_mappings"
)

// Database represents the database connection
type Database struct {
	Client *mongo.Client
	DB     *mongo.Database
}

// NewDatabase creates a new database connection
func NewDatabase(ctx context.Context, mongoURL, dbName string) (*Database, error) {
	clientOptions := options.Client().
		ApplyURI(mongoURL).
		SetMaxPoolSize(20).
		SetMinPoolSize(5).
		SetMaxConnIdleTime(30 * time.Second).
		SetConnectTimeout(10 * time.Second).
		SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	return &Database{
		Client: client,
		DB:     client.Database(dbName),
	}, nil
}

// Close closes the database connection
func (d *Database) Close(ctx context.Context) error {
	return d.Client.Disconnect(ctx)
}

// Health pings the primary
func (d *Database) Health(ctx context.Context) error {
	return d.Client.Ping(ctx, nil)
}

// CreateIndexes creates the indexes the repositories rely on
func (d *Database) CreateIndexes(ctx context.Context) error {
	playlists := []mongo.IndexModel{
		{
			Keys: bson.D{{Key: "owner_id", Value: 1}, {Key: "updated_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "collaborators", Value: 1}},
		},
		{
			Keys: bson.D{{Key: "songs.id", Value: 1}},
		},
	}
	if _, err := d.DB.Collection(PlaylistsCollection).Indexes().CreateMany(ctx, playlists); err != nil {
		return err
	}

	mappings := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "key", Value: 1}, {Key: "platform", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "platform", Value: 1}, {Key: "platform_id", Value: 1}},
		},
	}
	_, err := d.DB.Collection(MappingsCollection).Indexes().CreateMany(ctx, mappings)
	return err
}
