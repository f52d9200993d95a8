package config

import (
    "strings"
    "time"
)

// CacheConfig defines settings for the response cache placed in front of the
// public catalogue reads (menu and reviews).  When Enabled is false or no
// Redis client is configured, caching is disabled.  Admin writes to the menu
// purge the prefix, so TTL only bounds staleness for out-of-band changes.
type CacheConfig struct {
    Enabled      bool
    Methods      map[string]bool
    TTL          time.Duration
    KeyStrategy  string
    Prefix       string
    MaxBodyBytes int
}

// LoadCacheConfig reads CACHE_* variables.  All methods are upper-cased.
func LoadCacheConfig() CacheConfig {
    return CacheConfig{
        Enabled:      envBool("CACHE_ENABLED", true),
        Methods:      parseMethods(envList("CACHE_METHODS", "GET")),
        TTL:          envDur("CACHE_TTL", 60*time.Second),
        KeyStrategy:  envStr("CACHE_KEY_STRATEGY", "route_query"),
        Prefix:       envStr("CACHE_PREFIX", "bistro:cache"),
        MaxBodyBytes: envInt("CACHE_MAX_BODY_BYTES", 1<<20),
    }
}

func parseMethods(list []string) map[string]bool {
    m := make(map[string]bool, len(list))
    for _, p := range list {
        m[strings.ToUpper(p)] = true
    }
    return m
}
