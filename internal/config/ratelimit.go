package config

import "time"

// RateLimitConfig drives the Redis token bucket.  Payment endpoints get their
// own, tighter bucket (PaymentCapacity) so a client hammering the gateway
// initiation cannot starve menu browsing.
//
// Both buckets run before any token guard, so the "user" strategies only
// see "guest"; the default keys on client ip and route.
type RateLimitConfig struct {
    Enabled         bool
    Capacity        int
    PaymentCapacity int
    RefillTokens    int
    RefillInterval  time.Duration
    TTL             time.Duration
    KeyStrategy     string
    Prefix          string
    Debug           bool
}

func LoadRateLimitConfig() RateLimitConfig {
    def := RateLimitConfig{
        Enabled:         envBool("RATE_LIMIT_ENABLED", true),
        Capacity:        envInt("RATE_LIMIT_CAPACITY", 60),
        PaymentCapacity: envInt("RATE_LIMIT_PAYMENT_CAPACITY", 10),
        RefillTokens:    envInt("RATE_LIMIT_REFILL_TOKENS", 1),
        RefillInterval:  envDur("RATE_LIMIT_REFILL_INTERVAL", time.Second),
        TTL:             envDur("RATE_LIMIT_TTL", 10*time.Minute),
        KeyStrategy:     envStr("RATE_LIMIT_KEY_STRATEGY", "ip_route"),
        Prefix:          envStr("RATE_LIMIT_PREFIX", "bistro:rl"),
        Debug:           envBool("RATE_LIMIT_DEBUG", false),
    }
    return def.normalize()
}

// Payments returns a copy tuned for the payment routes.
func (c RateLimitConfig) Payments() RateLimitConfig {
    c.Capacity = c.PaymentCapacity
    c.Prefix += ":pay"
    return c.normalize()
}

func (c RateLimitConfig) normalize() RateLimitConfig {
    if c.Capacity < 1 { c.Capacity = 1 }
    if c.RefillTokens < 1 { c.RefillTokens = 1 }
    if c.RefillInterval <= 0 { c.RefillInterval = time.Second }
    if minTTL := 5 * c.RefillInterval; c.TTL < minTTL { c.TTL = minTTL }
    return c
}
