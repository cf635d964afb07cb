package cachestore

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Single-process cache. Every namespace shares one bounded LRU, and entries expire after the store's TTL.
type MemCacheStore struct {
	entries *expirable.LRU[string, string]
}

var _ CacheStore = (*MemCacheStore)(nil)

func NewMemCacheStore(capacity int, ttl time.Duration) *MemCacheStore {
	if ttl <= 0 {
		ttl = DisplayNameTTL
	}
	return &MemCacheStore{
		entries: expirable.NewLRU[string, string](capacity, nil, ttl),
	}
}

func (s *MemCacheStore) Get(ctx context.Context, name, key string) (string, error) {
	// a miss is the zero value
	v, _ := s.entries.Get(name + "\x00" + key)
	return v, nil
}

func (s *MemCacheStore) Set(ctx context.Context, name, key string, val string) error {
	s.entries.Add(name+"\x00"+key, val)
	return nil
}

func (s *MemCacheStore) Purge(ctx context.Context, name, key string) error {
	s.entries.Remove(name + "\x00" + key)
	return nil
}

// Number of live entries across all namespaces.
func (s *MemCacheStore) Len() int {
	return s.entries.Len()
}
