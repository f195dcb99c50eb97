package cache

import (
	"context"
	"sync"
	"time"
)

// DefaultL1TTL caps how long a value lives in the in-process level
const DefaultL1TTL = time.Minute

// MultiLevelCache keeps a small in-process L1 in front of a shared L2.
// Writes go to L2 first; an L2 failure leaves L1 untouched.
type MultiLevelCache struct {
	l2       Cache
	maxItems int
	maxTTL   time.Duration
	now      func() time.Time

	mu sync.RWMutex
	l1 map[string]cacheItem
}

type cacheItem struct {
	data      []byte
	expiresAt time.Time
}

// NewMultiLevelCache wraps l2 with an L1 of at most maxItems entries, each
// living no longer than maxTTL
func NewMultiLevelCache(l2 Cache, maxItems int, maxTTL time.Duration) *MultiLevelCache {
	if maxItems <= 0 {
		maxItems = 1000
	}
	if maxTTL <= 0 {
		maxTTL = DefaultL1TTL
	}
	return &MultiLevelCache{
		l2:       l2,
		maxItems: maxItems,
		maxTTL:   maxTTL,
		now:      time.Now,
		l1:       make(map[string]cacheItem),
	}
}

func (c *MultiLevelCache) Get(ctx context.Context, key string) ([]byte, error) {
	if data, ok := c.getL1(key); ok {
		return data, nil
	}

	data, err := c.l2.Get(ctx, key)
	if err != nil || data == nil {
		return data, err
	}
	c.setL1(key, data, c.maxTTL)
	return data, nil
}

func (c *MultiLevelCache) Set(ctx context.Context, key string, value []byte, expiration time.Duration) error {
	if err := c.l2.Set(ctx, key, value, expiration); err != nil {
		return err
	}
	ttl := c.maxTTL
	if expiration > 0 && expiration < ttl {
		ttl = expiration
	}
	c.setL1(key, value, ttl)
	return nil
}

func (c *MultiLevelCache) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	delete(c.l1, key)
	c.mu.Unlock()
	return c.l2.Delete(ctx, key)
}

func (c *MultiLevelCache) Exists(ctx context.Context, key string) (bool, error) {
	if _, ok := c.getL1(key); ok {
		return true, nil
	}
	return c.l2.Exists(ctx, key)
}

func (c *MultiLevelCache) Close() error {
	return c.l2.Close()
}

func (c *MultiLevelCache) Health(ctx context.Context) error {
	return c.l2.Health(ctx)
}

func (c *MultiLevelCache) getL1(key string) ([]byte, bool) {
	c.mu.RLock()
	item, ok := c.l1[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}
	if c.now().Before(item.expiresAt) {
		return item.data, true
	}

	c.mu.Lock()
	if item, ok := c.l1[key]; ok && !c.now().Before(item.expiresAt) {
		delete(c.l1, key)
	}
	c.mu.Unlock()
	return nil, false
}

// setL1 stores a copy of value, evicting the entry closest to expiry when full
func (c *MultiLevelCache) setL1(key string, value []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.l1[key]; !exists && len(c.l1) >= c.maxItems {
		var oldestKey string
		var oldest time.Time
		for k, item := range c.l1 {
			if oldestKey == "" || item.expiresAt.Before(oldest) {
				oldestKey, oldest = k, item.expiresAt
			}
		}
		delete(c.l1, oldestKey)
	}

	c.l1[key] = cacheItem{
		data:      append([]byte(nil), value...),
		expiresAt: c.now().Add(ttl),
	}
}

// Len returns the number of entries held in L1, expired ones included
func (c *MultiLevelCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.l1)
}
