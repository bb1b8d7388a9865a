// internal/common/cache/cache.go
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"ranking-workers/internal/common/logger"
)

// Cache stores encoded values in Redis and remembers, per tag, which keys
// were written so a whole group can be dropped at once.
type Cache struct {
	client redis.Cmdable
	prefix string
	codec  Codec
	logger logger.Logger
}

func New(client redis.Cmdable, prefix string, codec Codec, log logger.Logger) *Cache {
	if codec == nil {
		codec = JSON
	}
	return &Cache{
		client: client,
		prefix: prefix,
		codec:  codec,
		logger: log,
	}
}

// Key joins parts under the cache prefix.
func (c *Cache) Key(parts ...string) string {
	return c.prefix + ":" + strings.Join(parts, ":")
}

func (c *Cache) tagKey(tag string) string {
	return c.prefix + ":tag:" + tag
}

// Get decodes the value at key into dst. Missing keys and undecodable
// payloads both report a miss.
func (c *Cache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("cache get %s: %w", key, err)
	}

	if err := c.codec.Unmarshal(data, dst); err != nil {
		c.logger.Warn("discarding undecodable cache entry", map[string]interface{}{
			"key":   key,
			"codec": c.codec.Name(),
			"error": err.Error(),
		})
		return false, nil
	}
	return true, nil
}

// Set writes value with ttl and registers key under every tag.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration, tags ...string) error {
	data, err := c.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", key, err)
	}

	pipe := c.client.TxPipeline()
	pipe.Set(ctx, key, data, ttl)
	for _, tag := range tags {
		tk := c.tagKey(tag)
		pipe.SAdd(ctx, tk, key)
		// members of one tag share a ttl, so the newest one bounds the set
		if ttl > 0 {
			pipe.Expire(ctx, tk, ttl)
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set %s: %w", key, err)
	}
	return nil
}

// Invalidate deletes every key registered under the tags, then the tag sets,
// and returns how many keys were removed.
func (c *Cache) Invalidate(ctx context.Context, tags ...string) (int64, error) {
	var removed int64
	for _, tag := range tags {
		tk := c.tagKey(tag)
		members, err := c.client.SMembers(ctx, tk).Result()
		if err != nil {
			return removed, fmt.Errorf("cache invalidate %s: %w", tag, err)
		}
		if len(members) > 0 {
			n, err := c.client.Del(ctx, members...).Result()
			if err != nil {
				return removed, fmt.Errorf("cache invalidate %s: %w", tag, err)
			}
			removed += n
		}
		if err := c.client.Del(ctx, tk).Err(); err != nil {
			return removed, fmt.Errorf("cache invalidate %s: %w", tag, err)
		}
	}

	c.logger.Debug("cache tags invalidated", map[string]interface{}{
		"tags":    tags,
		"removed": removed,
	})
	return removed, nil
}
