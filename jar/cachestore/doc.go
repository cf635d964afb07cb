// Caching of short string values (mostly platform display names) with a fixed TTL.
//
// Includes an interface and implementations using redis and in-process memory. Leaderboard rendering goes through this cache so that repeated listings don't hammer the platform API.
package cachestore
