package assistant

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/starford/propscope/internal/checksum"
	"github.com/starford/propscope/internal/models"
)

// Cache stores answers keyed by question and context.
type Cache interface {
	Get(ctx context.Context, key string) (Response, bool, error)
	Set(ctx context.Context, key string, resp Response) error
}

const cacheKeyPrefix = "propscope:answer:"

// RedisCache is a Cache backed by Redis with a fixed TTL.
type RedisCache struct {
	client redis.UniversalClient
	ttl    time.Duration
}

// NewRedisCache wraps client. A zero ttl keeps entries for one hour.
func NewRedisCache(client redis.UniversalClient, ttl time.Duration) *RedisCache {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return &RedisCache{client: client, ttl: ttl}
}

// Get returns the cached answer under key, if any.
func (c *RedisCache) Get(ctx context.Context, key string) (Response, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Response{}, false, nil
	}
	if err != nil {
		return Response{}, false, fmt.Errorf("assistant: cache get: %w", err)
	}
	var resp Response
	if err := json.Unmarshal(raw, &resp); err != nil {
		return Response{}, false, fmt.Errorf("assistant: cache decode: %w", err)
	}
	return resp, true, nil
}

// Set stores resp under key for the cache TTL.
func (c *RedisCache) Set(ctx context.Context, key string, resp Response) error {
	raw, err := json.Marshal(resp)
	if err != nil {
		return fmt.Errorf("assistant: cache encode: %w", err)
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		return fmt.Errorf("assistant: cache set: %w", err)
	}
	return nil
}

// Ping checks the Redis connection.
func (c *RedisCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

// CacheKey identifies an answer by model, normalized question and the ids
// and checksum of the context it was produced from.
func CacheKey(model, question, datasetChecksum string, items []models.Property) string {
	parts := make([]string, 0, len(items)+3)
	parts = append(parts, model, normalizeQuestion(question), datasetChecksum)
	for _, p := range items {
		parts = append(parts, p.ID)
	}
	return cacheKeyPrefix + checksum.Key(parts...)
}
