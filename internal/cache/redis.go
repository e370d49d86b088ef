package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

// NewRedisClient parses a redis:// URL.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := r.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) || err != nil {
		return nil, false
	}
	return val, true
}

func (r *RedisCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	r.rdb.Set(ctx, key, data, ttl)
}

func (r *RedisCache) Delete(ctx context.Context, key string) {
	r.rdb.Del(ctx, key)
}

// Nop never stores anything. It backs the result endpoint when REDIS_URL
// is unset.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, []byte, time.Duration) {}
func (Nop) Delete(context.Context, string) {}
