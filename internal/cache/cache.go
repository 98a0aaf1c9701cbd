// Package cache provides typed, prefixed caches over memory or redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/eko/gocache/lib/v4/cache"
	"github.com/eko/gocache/lib/v4/store"
	go_store "github.com/eko/gocache/store/go_cache/v4"
	redis_store "github.com/eko/gocache/store/redis/v4"
	"github.com/jon4hz/eduquest/internal/config"
	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned when a key is not in the cache or has expired.
var ErrMiss = errors.New("cache miss")

// Cache key prefixes.
const (
	LearnerContextPrefix = "learner-context:"
)

// PrefixedCache wraps a cache.Cache, adds a prefix to all keys and stores
// values as JSON.
type PrefixedCache[T any] struct {
	cache     *cache.Cache[any]
	cacheType config.CacheType
	prefix    string
}

// NewPrefixedCache creates a new prefixed cache wrapper.
func NewPrefixedCache[T any](c *cache.Cache[any], cacheType config.CacheType, prefix string) *PrefixedCache[T] {
	return &PrefixedCache[T]{
		cache:     c,
		cacheType: cacheType,
		prefix:    prefix,
	}
}

func (p *PrefixedCache[T]) key(key any) string {
	return p.prefix + fmt.Sprintf("%v", key)
}

// Get retrieves a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Get(ctx context.Context, key any) (T, error) {
	var result T
	raw, err := p.cache.Get(ctx, p.key(key))
	if err != nil {
		if errors.Is(err, store.NotFound{}) {
			return result, ErrMiss
		}
		return result, err
	}

	var data []byte
	switch v := raw.(type) {
	case []byte:
		data = v
	case string:
		// redis returns strings
		data = []byte(v)
	case nil:
		return result, ErrMiss
	default:
		return result, fmt.Errorf("unexpected cache value of type %T", raw)
	}

	if err := json.Unmarshal(data, &result); err != nil {
		return result, err
	}
	return result, nil
}

// Set stores a value in the cache with the prefixed key. A ttl of zero never expires.
func (p *PrefixedCache[T]) Set(ctx context.Context, key any, object T, ttl time.Duration) error {
	data, err := json.Marshal(object)
	if err != nil {
		return err
	}
	var opts []store.Option
	if ttl > 0 {
		opts = append(opts, store.WithExpiration(ttl))
	}
	return p.cache.Set(ctx, p.key(key), data, opts...)
}

// Delete removes a value from the cache with the prefixed key.
func (p *PrefixedCache[T]) Delete(ctx context.Context, key any) error {
	err := p.cache.Delete(ctx, p.key(key))
	if errors.Is(err, store.NotFound{}) {
		return nil
	}
	return err
}

// GetType returns the cache type.
func (p *PrefixedCache[T]) GetType() config.CacheType {
	return p.cacheType
}

// New returns a cache instance for the configured backend.
func New(cfg *config.CacheConfig) (*cache.Cache[any], error) {
	switch cfg.Type {
	case config.CacheTypeMemory, "":
		return newMemoryCache(), nil
	case config.CacheTypeRedis:
		return newRedisCache(cfg)
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}

func newMemoryCache() *cache.Cache[any] {
	gocacheClient := gocache.New(gocache.NoExpiration, 10*time.Minute)
	gocacheStore := go_store.NewGoCache(gocacheClient)
	return cache.New[any](gocacheStore)
}

func newRedisCache(cfg *config.CacheConfig) (*cache.Cache[any], error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		// plain host:port
		opts = &redis.Options{Addr: cfg.RedisURL}
	}
	redisStore := redis_store.NewRedis(redis.NewClient(opts))
	return cache.New[any](redisStore), nil
}
