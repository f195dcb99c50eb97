package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"mixmate/internal/models"
)

// MappingRepository persists resolved platform ids per recording.
// FindMapping returns nil, nil when nothing is stored.
type MappingRepository interface {
	FindMapping(ctx context.Context, key string, platform models.Source) (*models.SongMapping, error)
	SaveMapping(ctx context.Context, mapping *models.SongMapping) error
}

type mongoMappingRepository struct {
	collection *mongo.Collection
}

// NewMongoMappingRepository creates a MongoDB-backed mapping repository
func NewMongoMappingRepository(db *models.Database) MappingRepository {
	return newMongoMappingRepository(db.DB.Collection(models.MappingsCollection))
}

func newMongoMappingRepository(collection *mongo.Collection) *mongoMappingRepository {
	return &mongoMappingRepository{collection: collection}
}

func (r *mongoMappingRepository) FindMapping(ctx context.Context, key string, platform models.Source) (*models.SongMapping, error) {
	var mapping models.SongMapping
	err := r.collection.FindOne(ctx, bson.M{"key": key, "platform": platform}).Decode(&mapping)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find mapping: %w", err)
	}
	return &mapping, nil
}

// SaveMapping upserts on (key, platform); the first CreatedAt is kept
func (r *mongoMappingRepository) SaveMapping(ctx context.Context, mapping *models.SongMapping) error {
	if mapping.Key == "" || mapping.Platform == "" || mapping.PlatformID == "" {
		return fmt.Errorf("mapping requires key, platform and platform id")
	}

	now := time.Now()
	created := mapping.CreatedAt
	if created.IsZero() {
		created = now
	}

	filter := bson.M{"key": mapping.Key, "platform": mapping.Platform}
	update := bson.M{
		"$set": bson.M{
			"platform_id": mapping.PlatformID,
			"url":         mapping.URL,
			"confidence":  mapping.Confidence,
			"updated_at":  now,
		},
		"$setOnInsert": bson.M{"created_at": created},
	}

	if _, err := r.collection.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("failed to save mapping: %w", err)
	}
	mapping.UpdatedAt = now
	return nil
}
