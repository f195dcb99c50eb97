package repositories

import (
	"context"
	"log/slog"
	"time"

	"mixmate/internal/cache"
	"mixmate/internal/models"
)

const mappingCacheTTL = 24 * time.Hour

// cachedMappingRepository puts a cache in front of a MappingRepository.
// Only hits are cached; a miss always reaches the repository.
type cachedMappingRepository struct {
	repository MappingRepository
	cache      cache.Cache
}

// NewCachedMappingRepository wraps repository with cache
func NewCachedMappingRepository(repository MappingRepository, c cache.Cache) MappingRepository {
	return &cachedMappingRepository{repository: repository, cache: c}
}

func mappingKey(key string, platform models.Source) string {
	return "mapping:" + string(platform) + ":" + key
}

func (r *cachedMappingRepository) FindMapping(ctx context.Context, key string, platform models.Source) (*models.SongMapping, error) {
	cacheKey := mappingKey(key, platform)

	cached, found, err := cache.GetJSON[models.SongMapping](ctx, r.cache, cacheKey)
	if err != nil {
		slog.Warn("Mapping cache read failed", "key", cacheKey, "error", err)
	}
	if found {
		return cached, nil
	}

	mapping, err := r.repository.FindMapping(ctx, key, platform)
	if err != nil || mapping == nil {
		return mapping, err
	}

	r.store(ctx, cacheKey, mapping)
	return mapping, nil
}

func (r *cachedMappingRepository) SaveMapping(ctx context.Context, mapping *models.SongMapping) error {
	if err := r.repository.SaveMapping(ctx, mapping); err != nil {
		return err
	}
	r.store(ctx, mappingKey(mapping.Key, mapping.Platform), mapping)
	return nil
}

func (r *cachedMappingRepository) store(ctx context.Context, key string, mapping *models.SongMapping) {
	if err := cache.SetJSON(ctx, r.cache, key, mapping, mappingCacheTTL); err != nil {
		slog.Warn("Failed to cache mapping", "key", key, "error", err)
	}
}
