package cache

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultTTL applies when Set is called with ttl <= 0.
const DefaultTTL = 30 * time.Minute

// Cache is a best-effort read-through memoizer backed by Redis. Every
// backend failure is logged and degraded: Get reports a miss, writes
// become no-ops. Callers must always be able to fall back to the store.
type Cache struct {
	client *redis.Client
}

// New connects to Redis at the given URL. A nil *Cache is safe to use;
// all operations on it are no-ops, so callers never need nil checks.
func New(url string) (*Cache, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &Cache{client: redis.NewClient(opts)}, nil
}

// NewWithClient wraps an existing client. Used by tests.
func NewWithClient(client *redis.Client) *Cache {
	return &Cache{client: client}
}

// Get unmarshals the cached value for key into dest and reports whether
// the key was found.
func (c *Cache) Get(key string, dest interface{}) bool {
	if c == nil {
		return false
	}
	val, err := c.client.Get(context.Background(), key).Result()
	if err != nil {
		if err != redis.Nil {
			log.Printf("cache: get %s: %v", key, err)
		}
		return false
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		log.Printf("cache: unmarshal %s: %v", key, err)
		return false
	}
	return true
}

// Set stores value under key with the given TTL.
func (c *Cache) Set(key string, value interface{}, ttl time.Duration) {
	if c == nil {
		return
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	data, err := json.Marshal(value)
	if err != nil {
		log.Printf("cache: marshal %s: %v", key, err)
		return
	}
	if err := c.client.Set(context.Background(), key, data, ttl).Err(); err != nil {
		log.Printf("cache: set %s: %v", key, err)
	}
}

// Delete removes the given keys.
func (c *Cache) Delete(keys ...string) {
	if c == nil || len(keys) == 0 {
		return
	}
	if err := c.client.Del(context.Background(), keys...).Err(); err != nil {
		log.Printf("cache: delete %v: %v", keys, err)
	}
}

// Keys returns all keys matching the glob pattern.
func (c *Cache) Keys(pattern string) []string {
	if c == nil {
		return nil
	}
	keys, err := c.client.Keys(context.Background(), pattern).Result()
	if err != nil {
		log.Printf("cache: keys %s: %v", pattern, err)
		return nil
	}
	return keys
}

// FlushAll clears the whole cache.
func (c *Cache) FlushAll() {
	if c == nil {
		return
	}
	if err := c.client.FlushAll(context.Background()).Err(); err != nil {
		log.Printf("cache: flush: %v", err)
	}
}
