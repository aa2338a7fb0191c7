package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"tubescout/internal/support"
)

// ErrMiss is returned when a keyword has no cached answer.
var ErrMiss = errors.New("cache miss")

const keyPrefix = "tubescout:search:"

// ResultCache memoizes successful keyword lookups in Redis so repeated
// searches skip the proxy pool entirely. Only Found outcomes are cached;
// NotFound answers can change as videos are uploaded.
type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(addr string, db int, ttl time.Duration) *ResultCache {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: support.GetEnv("REDIS_PASSWORD", ""),
		DB:       db,
	})
	return &ResultCache{client: client, ttl: ttl}
}

// NewWithClient wraps an existing client. Tests pass a miniredis-backed one.
func NewWithClient(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

func (c *ResultCache) Get(ctx context.Context, keyword string) (string, error) {
	videoID, err := c.client.Get(ctx, cacheKey(keyword)).Result()
	if errors.Is(err, redis.Nil) {
		return "", ErrMiss
	}
	if err != nil {
		return "", fmt.Errorf("cache get: %w", err)
	}
	return videoID, nil
}

func (c *ResultCache) Set(ctx context.Context, keyword, videoID string) error {
	if videoID == "" {
		return nil
	}
	if err := c.client.Set(ctx, cacheKey(keyword), videoID, c.ttl).Err(); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Ping verifies connectivity at startup.
func (c *ResultCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *ResultCache) Close() error {
	return c.client.Close()
}

func cacheKey(keyword string) string {
	return keyPrefix + strings.ToLower(strings.TrimSpace(keyword))
}
