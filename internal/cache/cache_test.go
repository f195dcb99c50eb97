package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mapCache is an L2 stand-in that records calls and can be told to fail
type mapCache struct {
	data    map[string][]byte
	ttls    map[string]time.Duration
	gets    int
	failing bool
}

func newMapCache() *mapCache {
	return &mapCache{data: map[string][]byte{}, ttls: map[string]time.Duration{}}
}

func (m *mapCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.gets++
	if m.failing {
		return nil, &CacheError{Operation: "get", Key: key, Err: assert.AnError}
	}
	return m.data[key], nil
}

func (m *mapCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if m.failing {
		return &CacheError{Operation: "set", Key: key, Err: assert.AnError}
	}
	m.data[key] = value
	m.ttls[key] = expiration
	return nil
}

func (m *mapCache) Delete(ctx context.Context, key string) error {
	delete(m.data, key)
	return nil
}

func (m *mapCache) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.data[key]
	return ok, nil
}

func (m *mapCache) Close() error { return nil }

func (m *mapCache) Health(ctx context.Context) error {
	if m.failing {
		return assert.AnError
	}
	return nil
}

type clock struct{ t time.Time }

func (c *clock) now() time.Time { return c.t }

func newTestMultiLevel(l2 Cache, maxItems int, ttl time.Duration) (*MultiLevelCache, *clock) {
	clk := &clock{t: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := NewMultiLevelCache(l2, maxItems, ttl)
	c.now = clk.now
	return c, clk
}

func TestMultiLevelCache_ReadsThroughL1(t *testing.T) {
	ctx := context.Background()
	l2 := newMapCache()
	l2.data["search:imagine:20"] = []byte(`{"total":1}`)

	c, _ := newTestMultiLevel(l2, 10, time.Minute)

	for range 3 {
		data, err := c.Get(ctx, "search:imagine:20")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"total":1}`), data)
	}
	assert.Equal(t, 1, l2.gets)
}

func TestMultiLevelCache_Miss(t *testing.T) {
	c, _ := newTestMultiLevel(newMapCache(), 10, time.Minute)

	data, err := c.Get(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, data)
	assert.Zero(t, c.Len())
}

func TestMultiLevelCache_L1Expiry(t *testing.T) {
	ctx := context.Background()
	l2 := newMapCache()
	c, clk := newTestMultiLevel(l2, 10, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), 30*time.Second))
	assert.Equal(t, 30*time.Second, l2.ttls["k"])

	_, err := c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Zero(t, l2.gets, "fresh L1 entry served locally")

	clk.t = clk.t.Add(31 * time.Second)
	_, err = c.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, 1, l2.gets, "L1 entry follows the shorter write expiration")

	require.NoError(t, c.Set(ctx, "long", []byte("v"), 24*time.Hour))
	clk.t = clk.t.Add(2 * time.Minute)
	_, err = c.Get(ctx, "long")
	require.NoError(t, err)
	assert.Equal(t, 2, l2.gets, "L1 never holds longer than its cap")
}

func TestMultiLevelCache_Eviction(t *testing.T) {
	ctx := context.Background()
	c, clk := newTestMultiLevel(newMapCache(), 2, time.Minute)

	require.NoError(t, c.Set(ctx, "a", []byte("1"), 0))
	clk.t = clk.t.Add(time.Second)
	require.NoError(t, c.Set(ctx, "b", []byte("2"), 0))
	clk.t = clk.t.Add(time.Second)
	require.NoError(t, c.Set(ctx, "c", []byte("3"), 0))

	assert.Equal(t, 2, c.Len())
	_, ok := c.getL1("a")
	assert.False(t, ok, "entry closest to expiry is evicted")
	_, ok = c.getL1("c")
	assert.True(t, ok)
}

func TestMultiLevelCache_L2Failure(t *testing.T) {
	ctx := context.Background()
	l2 := newMapCache()
	l2.failing = true
	c, _ := newTestMultiLevel(l2, 10, time.Minute)

	err := c.Set(ctx, "k", []byte("v"), time.Minute)
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "set", cacheErr.Operation)
	assert.Zero(t, c.Len())

	_, err = c.Get(ctx, "k")
	assert.Error(t, err)
	assert.Error(t, c.Health(ctx))
}

func TestMultiLevelCache_DeleteAndExists(t *testing.T) {
	ctx := context.Background()
	l2 := newMapCache()
	c, _ := newTestMultiLevel(l2, 10, time.Minute)

	require.NoError(t, c.Set(ctx, "k", []byte("v"), time.Minute))
	exists, err := c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.True(t, exists)

	require.NoError(t, c.Delete(ctx, "k"))
	exists, err = c.Exists(ctx, "k")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NotContains(t, l2.data, "k")
}

func TestMultiLevelCache_CopiesValues(t *testing.T) {
	ctx := context.Background()
	c, _ := newTestMultiLevel(newMapCache(), 10, time.Minute)

	value := []byte("abc")
	require.NoError(t, c.Set(ctx, "k", value, time.Minute))
	value[0] = 'x'

	got, _ := c.getL1("k")
	assert.Equal(t, []byte("abc"), got)
}

type mapping struct {
	PlatformID string  `json:"platform_id"`
	Confidence float64 `json:"confidence"`
}

func TestJSONHelpers(t *testing.T) {
	ctx := context.Background()
	l2 := newMapCache()

	require.NoError(t, SetJSON(ctx, l2, "mapping:k", mapping{PlatformID: "abc", Confidence: 0.9}, time.Hour))
	assert.JSONEq(t, `{"platform_id":"abc","confidence":0.9}`, string(l2.data["mapping:k"]))

	got, found, err := GetJSON[mapping](ctx, l2, "mapping:k")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "abc", got.PlatformID)

	_, found, err = GetJSON[mapping](ctx, l2, "missing")
	require.NoError(t, err)
	assert.False(t, found)

	l2.data["bad"] = []byte("{not json")
	_, found, err = GetJSON[mapping](ctx, l2, "bad")
	assert.False(t, found)
	var cacheErr *CacheError
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "decode", cacheErr.Operation)

	err = SetJSON(ctx, l2, "chan", make(chan int), time.Hour)
	require.ErrorAs(t, err, &cacheErr)
	assert.Equal(t, "encode", cacheErr.Operation)
}

func TestCacheError(t *testing.T) {
	err := &CacheError{Operation: "get", Key: "test-key", Err: assert.AnError}

	assert.Equal(t, "cache get failed for key 'test-key': assert.AnError general error for testing", err.Error())
	assert.True(t, errors.Is(err, assert.AnError))
	assert.Equal(t, assert.AnError, errors.Unwrap(fmt.Errorf("wrapped: %w", err)).(*CacheError).Unwrap())
}

func BenchmarkMultiLevelCache_Get(b *testing.B) {
	ctx := context.Background()
	c := NewMultiLevelCache(newMapCache(), 1000, time.Minute)
	for i := range 1000 {
		_ = c.Set(ctx, fmt.Sprintf("key%d", i), []byte("benchmark test data"), time.Hour)
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _ = c.Get(ctx, fmt.Sprintf("key%d", i%1000))
	}
}
