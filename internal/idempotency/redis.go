// Package idempotency remembers recently submitted checkout keys in Redis.
package idempotency

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	keyPrefix  = "checkout:idem:"
	DefaultTTL = 10 * time.Minute
)

type RedisGuard struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisGuard(client *redis.Client, ttl time.Duration) *RedisGuard {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisGuard{client: client, ttl: ttl}
}

// Claim records key and reports whether this is its first use within the TTL.
func (g *RedisGuard) Claim(ctx context.Context, key string) (bool, error) {
	return g.client.SetNX(ctx, keyPrefix+key, time.Now().Unix(), g.ttl).Result()
}

// Release forgets key so a failed checkout can be retried with it.
func (g *RedisGuard) Release(ctx context.Context, key string) error {
	return g.client.Del(ctx, keyPrefix+key).Err()
}
