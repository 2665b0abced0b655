package redis

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "page:"

// PageCache implements repository.PageCache using Redis.
type PageCache struct {
	client redis.Cmdable
}

// NewPageCache creates a new Redis-backed page cache.
func NewPageCache(client redis.Cmdable) *PageCache {
	return &PageCache{client: client}
}

// Get returns a cached page body.
func (c *PageCache) Get(ctx context.Context, url string) (string, bool, error) {
	body, err := c.client.Get(ctx, Key(url)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("redis get page: %w", err)
	}
	return body, true, nil
}

// Set stores a page body for ttl.
func (c *PageCache) Set(ctx context.Context, url, body string, ttl time.Duration) error {
	if err := c.client.Set(ctx, Key(url), body, ttl).Err(); err != nil {
		return fmt.Errorf("redis set page: %w", err)
	}
	return nil
}

// Key returns the cache key for url. URLs are hashed to bound key length.
func Key(url string) string {
	sum := sha256.Sum256([]byte(url))
	return keyPrefix + hex.EncodeToString(sum[:])
}
