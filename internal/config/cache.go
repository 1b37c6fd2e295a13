package config

import (
	"strings"
	"time"
)

// CacheConfig controls the Redis response cache used on the public browse
// endpoints.  Availability listings are read far more often than seats are
// sold, so a short TTL takes most of the read load off MySQL without
// showing stale counts for long.  Caching is disabled entirely when
// Enabled is false or no Redis client could be reached.
type CacheConfig struct {
	Enabled      bool
	Methods      map[string]bool // HTTP methods eligible for caching
	TTL          time.Duration
	KeyStrategy  string // which request parts form the cache key
	Prefix       string
	MaxBodyBytes int // responses larger than this are not cached
}

// LoadCacheConfig builds a CacheConfig from environment variables with
// sensible defaults.
func LoadCacheConfig() CacheConfig {
	return CacheConfig{
		Enabled:      boolOr("CACHE_ENABLED", true),
		Methods:      parseMethods(stringOr("CACHE_METHODS", "GET")),
		TTL:          durOr("CACHE_TTL", 30*time.Second),
		KeyStrategy:  stringOr("CACHE_KEY_STRATEGY", "route_query"),
		Prefix:       stringOr("CACHE_PREFIX", "cache"),
		MaxBodyBytes: intOr("CACHE_MAX_BODY_BYTES", 1<<20),
	}
}

func parseMethods(s string) map[string]bool {
	m := map[string]bool{}
	for _, p := range strings.Split(s, ",") {
		p = strings.TrimSpace(strings.ToUpper(p))
		if p != "" {
			m[p] = true
		}
	}
	return m
}
