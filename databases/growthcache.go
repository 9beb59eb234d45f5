package databases

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-api/models"
)

// ErrCacheMiss is returned by a KVStore when the key is absent
var ErrCacheMiss = errors.New("cache miss")

// KVStore is the small slice of redis the growth cache needs
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

// RedisKVStore is a KVStore backed by go-redis
type RedisKVStore struct {
	client *redis.Client
}

// NewRedisKVStore parses a redis:// url and returns a store using a fresh client
func NewRedisKVStore(url string) (*RedisKVStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return &RedisKVStore{client: redis.NewClient(opts)}, nil
}

// Ping checks the connection
func (r *RedisKVStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the underlying client
func (r *RedisKVStore) Close() error {
	return r.client.Close()
}

func (r *RedisKVStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrCacheMiss
		}
		return "", err
	}
	return val, nil
}

func (r *RedisKVStore) Set(ctx context.Context, key string, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

func (r *RedisKVStore) Del(ctx context.Context, keys ...string) error {
	return r.client.Del(ctx, keys...).Err()
}

// GrowthCache stores monthly growth series as JSON in a KVStore. Failures are logged and
// reported as misses.
type GrowthCache struct {
	kv KVStore
}

// NewGrowthCache wraps kv
func NewGrowthCache(kv KVStore) *GrowthCache {
	return &GrowthCache{kv: kv}
}

// Get returns the cached series for key
func (g *GrowthCache) Get(ctx context.Context, key string) ([]models.MonthlyGrowth, bool) {
	raw, err := g.kv.Get(ctx, key)
	if err != nil {
		if !errors.Is(err, ErrCacheMiss) {
			zap.S().Warnw("growth cache read failed", "key", key, "error", err)
		}
		return nil, false
	}
	var series []models.MonthlyGrowth
	if err := json.Unmarshal([]byte(raw), &series); err != nil {
		zap.S().Warnw("growth cache entry unreadable", "key", key, "error", err)
		return nil, false
	}
	return series, true
}

// Set stores series under key for ttl
func (g *GrowthCache) Set(ctx context.Context, key string, series []models.MonthlyGrowth, ttl time.Duration) {
	raw, err := json.Marshal(series)
	if err != nil {
		return
	}
	if err := g.kv.Set(ctx, key, string(raw), ttl); err != nil {
		zap.S().Warnw("growth cache write failed", "key", key, "error", err)
	}
}

// Delete drops the series stored under keys
func (g *GrowthCache) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	if err := g.kv.Del(ctx, keys...); err != nil {
		zap.S().Warnw("growth cache delete failed", "keys", keys, "error", err)
	}
}
