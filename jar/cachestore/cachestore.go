package cachestore

import (
	"context"
	"time"
)

// Namespace for cached display names, keyed by DisplayNameKey.
const NameDisplayName = "display-name"

// How long a display name stays cached. Nickname changes seen on the gateway purge the entry sooner.
const DisplayNameTTL = 30 * time.Minute

type CacheStore interface {
	Get(ctx context.Context, name, key string) (string, error)
	Set(ctx context.Context, name, key string, val string) error
	Purge(ctx context.Context, name, key string) error
}

// Read-through lookup: returns the cached value if present, otherwise calls fetch and caches a non-empty result. Cache errors are returned only if fetch also fails.
func GetOrFetch(ctx context.Context, cs CacheStore, name, key string, fetch func(ctx context.Context) (string, error)) (string, error) {
	if v, err := cs.Get(ctx, name, key); err == nil && v != "" {
		return v, nil
	}
	v, err := fetch(ctx)
	if err != nil {
		return "", err
	}
	if v != "" {
		// best-effort; a failed write just means another fetch later
		_ = cs.Set(ctx, name, key, v)
	}
	return v, nil
}

// Display names are per guild (nicknames), so the key carries both ids.
func DisplayNameKey(guildID, userID string) string {
	return guildID + "/" + userID
}

func DisplayName(ctx context.Context, cs CacheStore, guildID, userID string, fetch func(ctx context.Context) (string, error)) (string, error) {
	return GetOrFetch(ctx, cs, NameDisplayName, DisplayNameKey(guildID, userID), fetch)
}

func ForgetDisplayName(ctx context.Context, cs CacheStore, guildID, userID string) error {
	return cs.Purge(ctx, NameDisplayName, DisplayNameKey(guildID, userID))
}
