package idempotency

import (
	"context"
	"time"

	"github.com/prohmpiriya/payment-gateway/pkg/redis"
)

// RedisCache stores idempotent responses in Redis
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache creates a cache over client
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	return c.client.GetBytes(ctx, key)
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.client.Set(ctx, key, value, ttl)
}
