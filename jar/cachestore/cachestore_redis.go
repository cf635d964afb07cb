package cachestore

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"
)

// Two-level cache: a small in-process TinyLFU in front of redis, shared between bot replicas.
type RedisCacheStore struct {
	cache  *cache.Cache
	ttl    time.Duration
	prefix string
}

var _ CacheStore = (*RedisCacheStore)(nil)

func NewRedisCacheStore(rdb *redis.Client, ttl time.Duration) *RedisCacheStore {
	if ttl <= 0 {
		ttl = DisplayNameTTL
	}
	return &RedisCacheStore{
		cache: cache.New(&cache.Options{
			Redis:      rdb,
			LocalCache: cache.NewTinyLFU(10_000, ttl),
		}),
		ttl:    ttl,
		prefix: "swearjar/cache/",
	}
}

func (s *RedisCacheStore) key(name, key string) string {
	return s.prefix + name + "/" + key
}

func (s *RedisCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	var val string
	switch err := s.cache.Get(ctx, s.key(name, key), &val); {
	case errors.Is(err, cache.ErrCacheMiss):
		return "", nil
	case err != nil:
		return "", err
	}
	return val, nil
}

func (s *RedisCacheStore) Set(ctx context.Context, name, key string, val string) error {
	return s.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   s.key(name, key),
		Value: val,
		TTL:   s.ttl,
	})
}

// Removes the entry from both the local and the shared tier.
func (s *RedisCacheStore) Purge(ctx context.Context, name, key string) error {
	if err := s.cache.Delete(ctx, s.key(name, key)); err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		return err
	}
	return nil
}
