// Package cache holds the key/value caches shared by the search engine, the
// platform adapters and the mapping repository
package cache

import (
	"context"
	"encoding/json"
	"time"
)

// Cache is a byte-oriented key/value store. Get returns nil, nil for a
// missing key.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value; a zero expiration keeps it until evicted
	Set(ctx context.Context, key string, value []byte, expiration time.Duration) error

	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)

	Close() error
	Health(ctx context.Context) error
}

// CacheError represents a cache operation error
type CacheError struct {
	Operation string
	Key       string
	Err       error
}

func (e *CacheError) Error() string {
	return "cache " + e.Operation + " failed for key '" + e.Key + "': " + e.Err.Error()
}

func (e *CacheError) Unwrap() error {
	return e.Err
}

// GetJSON decodes the value stored under key into a new T. found is false on
// a miss or an undecodable value.
func GetJSON[T any](ctx context.Context, c Cache, key string) (value *T, found bool, err error) {
	data, err := c.Get(ctx, key)
	if err != nil || data == nil {
		return nil, false, err
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, false, &CacheError{Operation: "decode", Key: key, Err: err}
	}
	return &v, true, nil
}

// SetJSON encodes value as JSON and stores it under key
func SetJSON(ctx context.Context, c Cache, key string, value any, expiration time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		return &CacheError{Operation: "encode", Key: key, Err: err}
	}
	return c.Set(ctx, key, data, expiration)
}
