package utils

import (
	"log"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CacheItem wraps cached data with its expiry time.
type CacheItem struct {
	Data      interface{}
	ExpiresAt time.Time
}

// GlobalCache is the process-wide response cache used by the list and feed
// endpoints.
type GlobalCache struct {
	lruCache *lru.Cache[string, CacheItem]
}

var (
	cacheInstance *GlobalCache
	cacheOnce     sync.Once
)

// GetCache returns the singleton cache instance. Safe for concurrent first
// use from request handlers.
func GetCache() *GlobalCache {
	cacheOnce.Do(func() {
		l, err := lru.New[string, CacheItem](500)
		if err != nil {
			log.Fatalf("Failed to create LRU cache: %v", err)
		}
		cacheInstance = &GlobalCache{
			lruCache: l,
		}
	})
	return cacheInstance
}

// Set stores data under key with a TTL.
func (c *GlobalCache) Set(key string, data interface{}, ttl time.Duration) {
	c.lruCache.Add(key, CacheItem{
		Data:      data,
		ExpiresAt: time.Now().Add(ttl),
	})
}

// Get returns the cached data, or nil when absent or expired.
func (c *GlobalCache) Get(key string) interface{} {
	val, ok := c.lruCache.Get(key)
	if !ok {
		return nil
	}

	if time.Now().After(val.ExpiresAt) {
		c.lruCache.Remove(key)
		return nil
	}

	return val.Data
}

// Delete drops one key.
func (c *GlobalCache) Delete(key string) {
	c.lruCache.Remove(key)
}
