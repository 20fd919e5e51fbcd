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

const (
	keyCachePrefix = "keycheck:"
	keyCacheTTL    = 5 * time.Minute
)

// KeyCache remembers definitive key validation outcomes.
// Keys are stored as SHA-256 digests, never in clear text.
type KeyCache struct {
	client *Client
	ttl    time.Duration
}

// NewKeyCache creates a new key validation cache
func NewKeyCache(client *Client, ttl time.Duration) *KeyCache {
	if ttl <= 0 {
		ttl = keyCacheTTL
	}
	return &KeyCache{client: client, ttl: ttl}
}

func (c *KeyCache) cacheKey(service, apiKey string) string {
	sum := sha256.Sum256([]byte(apiKey))
	return fmt.Sprintf("%s%s:%s", keyCachePrefix, service, hex.EncodeToString(sum[:]))
}

// Get returns (valid, found, error)
func (c *KeyCache) Get(ctx context.Context, service, apiKey string) (bool, bool, error) {
	val, err := c.client.rdb.Get(ctx, c.cacheKey(service, apiKey)).Result()
	if errors.Is(err, redis.Nil) {
		return false, false, nil
	}
	if err != nil {
		return false, false, fmt.Errorf("failed to read key cache: %w", err)
	}
	return val == "1", true, nil
}

// Set stores a validation outcome
func (c *KeyCache) Set(ctx context.Context, service, apiKey string, valid bool) error {
	val := "0"
	if valid {
		val = "1"
	}
	return c.client.rdb.Set(ctx, c.cacheKey(service, apiKey), val, c.ttl).Err()
}

// FlushAll removes all cached validation outcomes
func (c *KeyCache) FlushAll(ctx context.Context) (int64, error) {
	pattern := keyCachePrefix + "*"
	var cursor uint64
	var deleted int64

	for {
		keys, nextCursor, err := c.client.rdb.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return deleted, fmt.Errorf("failed to scan keys: %w", err)
		}

		if len(keys) > 0 {
			count, err := c.client.rdb.Del(ctx, keys...).Result()
			if err != nil {
				return deleted, fmt.Errorf("failed to delete keys: %w", err)
			}
			deleted += count
		}

		cursor = nextCursor
		if cursor == 0 {
			break
		}
	}

	return deleted, nil
}
