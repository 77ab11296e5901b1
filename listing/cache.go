package listing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yashrajoria/bms-storefront/logger"
)

// Cache keeps rendered list responses in redis, keyed by the canonical query
// string. Writes to the listed resource bump a version counter, which retires
// every cached page at once. A nil *Cache is a cache that always misses.
type Cache struct {
	redis *redis.Client
	ttl   time.Duration
	log   *zap.Logger
}

func NewCache(client *redis.Client, ttl time.Duration, log *zap.Logger) *Cache {
	return &Cache{redis: client, ttl: ttl, log: logger.OrNop(log)}
}

func versionKey(v Vocabulary) string {
	return fmt.Sprintf("listing:%s:version", v.Name)
}

func pageKey(v Vocabulary, version int64, q Query) string {
	return fmt.Sprintf("listing:%s:v:%d:q:%s", v.Name, version, v.Encode(q))
}

// Get returns the cached response for q along with the version it was looked
// up under. A caller that fills a miss passes that version back to Set, so a
// page fetched before an Invalidate is never stored under the new version.
// Version 0 means the cache is unusable and Set will skip the write.
func (c *Cache) Get(ctx context.Context, v Vocabulary, q Query) ([]byte, int64, bool) {
	if c == nil {
		return nil, 0, false
	}
	version, err := c.version(ctx, v)
	if err != nil {
		return nil, 0, false
	}
	data, err := c.redis.Get(ctx, pageKey(v, version, q)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.log.Warn("listing cache read failed", zap.String("listing", v.Name), zap.Error(err))
		}
		return nil, version, false
	}
	return data, version, true
}

// SetAsync stores body for q without holding up the response.
func (c *Cache) SetAsync(v Vocabulary, version int64, q Query, body []byte) {
	if c == nil || version < 1 {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		c.Set(ctx, v, version, q, body)
	}()
}

// Set stores body for q under version, the value Get returned when the
// miss was seen.
func (c *Cache) Set(ctx context.Context, v Vocabulary, version int64, q Query, body []byte) {
	if c == nil || version < 1 {
		return
	}
	if err := c.redis.Set(ctx, pageKey(v, version, q), body, c.ttl).Err(); err != nil {
		c.log.Warn("listing cache write failed", zap.String("listing", v.Name), zap.Error(err))
	}
}

// Invalidate retires every cached page of v.
func (c *Cache) Invalidate(ctx context.Context, v Vocabulary) error {
	if c == nil {
		return nil
	}
	version, err := c.redis.Incr(ctx, versionKey(v)).Result()
	if err != nil {
		return fmt.Errorf("failed to invalidate %s cache: %w", v.Name, err)
	}
	c.log.Info("listing cache invalidated", zap.String("listing", v.Name), zap.Int64("new_version", version))
	return nil
}

// version reads the current version, creating it on first use.
func (c *Cache) version(ctx context.Context, v Vocabulary) (int64, error) {
	ver, err := c.redis.Get(ctx, versionKey(v)).Int64()
	if err == nil {
		return ver, nil
	}
	if !errors.Is(err, redis.Nil) {
		c.log.Warn("listing cache version unreadable", zap.String("listing", v.Name), zap.Error(err))
		return 0, err
	}
	// SETNX so a concurrent Invalidate is never rolled back
	if err := c.redis.SetNX(ctx, versionKey(v), 1, 0).Err(); err != nil {
		return 0, err
	}
	return c.redis.Get(ctx, versionKey(v)).Int64()
}
