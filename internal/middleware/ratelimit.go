package middleware

import (
    "math"
    "net/http"
    "strconv"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/spf13/cast"
    "go.uber.org/zap"

    "github.com/iliyamo/bistro-boss-server/internal/config"
    "github.com/iliyamo/bistro-boss-server/internal/metrics"
)

// bucketScript refills the bucket for the elapsed whole intervals, takes one
// token if available and returns {allowed, remaining, retry_after_ms}.
var bucketScript = redis.NewScript(`
    local key = KEYS[1]
    local now_ms = tonumber(ARGV[1])
    local capacity = tonumber(ARGV[2])
    local refill_tokens = tonumber(ARGV[3])
    local interval_ms = tonumber(ARGV[4])
    local ttl_seconds = tonumber(ARGV[5])

    local state = redis.call('HMGET', key, 'tokens', 'last_refill_ms')
    local tokens = tonumber(state[1])
    local last_refill = tonumber(state[2])

    if tokens == nil or last_refill == nil then
        tokens = capacity
        last_refill = now_ms
    end

    if interval_ms > 0 and refill_tokens > 0 then
        local elapsed = math.max(0, now_ms - last_refill)
        local intervals = math.floor(elapsed / interval_ms)
        if intervals > 0 then
            tokens = math.min(capacity, tokens + (intervals * refill_tokens))
            last_refill = last_refill + (intervals * interval_ms)
        end
    end

    local allowed = 0
    local retry_after_ms = 0
    if tokens > 0 then
        allowed = 1
        tokens = tokens - 1
    else
        local until_next = interval_ms - (now_ms - last_refill)
        if until_next < 0 then until_next = 0 end
        retry_after_ms = until_next
    end

    redis.call('HMSET', key, 'tokens', tokens, 'last_refill_ms', last_refill, 'capacity', capacity)
    redis.call('EXPIRE', key, ttl_seconds)

    return { allowed, tokens, retry_after_ms }
`)

type bucketResult struct {
    allowed   bool
    remaining int64
    retryMs   int64
}

func takeToken(c echo.Context, cfg config.RateLimitConfig, rdb *redis.Client, key string) (bucketResult, error) {
    vals, err := bucketScript.Run(c.Request().Context(), rdb, []string{key},
        time.Now().UnixMilli(),
        cfg.Capacity,
        cfg.RefillTokens,
        cfg.RefillInterval.Milliseconds(),
        int64(cfg.TTL/time.Second),
    ).Slice()
    if err != nil {
        return bucketResult{}, err
    }
    if len(vals) != 3 {
        return bucketResult{}, redis.Nil
    }
    return bucketResult{
        allowed:   cast.ToInt64(vals[0]) == 1,
        remaining: cast.ToInt64(vals[1]),
        retryMs:   cast.ToInt64(vals[2]),
    }, nil
}

// NewTokenBucket limits requests with a Redis-side token bucket (one Lua
// round trip per request).  Redis errors fail open: the request is served
// and, in debug mode, logged.
func NewTokenBucket(cfg config.RateLimitConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            key := buildRateKey(cfg, c)
            res, err := takeToken(c, cfg, rdb, key)
            if err != nil {
                if cfg.Debug {
                    zap.L().Warn("ratelimit: redis error", zap.String("key", key), zap.Error(err))
                }
                return next(c)
            }

            h := c.Response().Header()
            h.Set("X-RateLimit-Limit", strconv.Itoa(cfg.Capacity))
            h.Set("X-RateLimit-Remaining", strconv.FormatInt(res.remaining, 10))

            if !res.allowed {
                secs := int(math.Ceil(float64(res.retryMs) / 1000.0))
                if secs < 0 { secs = 0 }
                h.Set("Retry-After", strconv.Itoa(secs))
                if cfg.Debug {
                    zap.L().Info("ratelimit: blocked", zap.String("key", key), zap.Int64("retry_ms", res.retryMs))
                }
                metrics.RateLimited.WithLabelValues(cfg.Prefix).Inc()
                return c.JSON(http.StatusTooManyRequests, echo.Map{
                    "message":     "rate limit exceeded",
                    "retry_after": secs,
                })
            }
            return next(c)
        }
    }
}

// buildRateKey composes prefix:ip:...:route:... per the strategy.  The user
// part is the token's email when a guard ran earlier, otherwise "guest".
func buildRateKey(cfg config.RateLimitConfig, c echo.Context) string {
    ip := c.RealIP()
    if ip == "" { ip = "unknown" }
    route := c.Request().Method + " " + c.Path()

    parts := []string{cfg.Prefix}
    switch strings.ToLower(cfg.KeyStrategy) {
    case "ip":
        parts = append(parts, "ip", ip)
    case "user":
        parts = append(parts, "user", userID(c))
    case "route":
        parts = append(parts, "route", route)
    case "ip_user_route":
        parts = append(parts, "ip", ip, "user", userID(c), "route", route)
    default: // "ip_route"
        parts = append(parts, "ip", ip, "route", route)
    }
    return strings.Join(parts, ":")
}
