package middleware

import (
    "bytes"
    "context"
    "crypto/sha1"
    "encoding/json"
    "fmt"
    "net/http"
    "strings"
    "time"

    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "go.uber.org/zap"

    "github.com/iliyamo/bistro-boss-server/internal/config"
)

// cachedResponse is what one cache entry holds.
type cachedResponse struct {
    Status int         `json:"s"`
    Header http.Header `json:"h"`
    Body   []byte      `json:"b"`
}

// teeWriter forwards the response to the client and keeps a bounded copy.
type teeWriter struct {
    http.ResponseWriter
    status    int
    buf       bytes.Buffer
    limit     int
    truncated bool
}

func (w *teeWriter) WriteHeader(code int) { w.status = code; w.ResponseWriter.WriteHeader(code) }

func (w *teeWriter) Write(b []byte) (int, error) {
    if !w.truncated {
        if w.limit > 0 && w.buf.Len()+len(b) > w.limit {
            w.truncated = true // too large to cache; still streamed to the client
        } else {
            w.buf.Write(b)
        }
    }
    return w.ResponseWriter.Write(b)
}

// cacheKey hashes the parts selected by the key strategy under the prefix.
// "route" keys on the registered route template and so shares one entry
// across every path parameter; the other strategies key on the request path.
func cacheKey(cfg config.CacheConfig, c echo.Context) string {
    r := c.Request()
    var parts []string
    switch strings.ToLower(cfg.KeyStrategy) {
    case "route":
        parts = []string{c.Path()}
    case "method_route_query":
        parts = []string{r.Method, r.URL.Path, r.URL.RawQuery}
    default: // "route_query"
        parts = []string{r.URL.Path, r.URL.RawQuery}
    }
    sum := sha1.Sum([]byte(strings.Join(parts, "|")))
    return fmt.Sprintf("%s:%x", cfg.Prefix, sum[:])
}

// cachedHeaders are the only response headers an entry keeps.  Everything
// else (request id, rate limit counters) belongs to the live request.
var cachedHeaders = []string{echo.HeaderContentType, echo.HeaderVary}

func contentHeaders(h http.Header) http.Header {
    out := http.Header{}
    for _, k := range cachedHeaders {
        if v := h.Values(k); len(v) > 0 {
            out[k] = append([]string(nil), v...)
        }
    }
    return out
}

// NewRedisCache caches successful responses of the public catalogue reads.
// An entry holds the status, body and content headers; per-request headers
// set by earlier middleware are left untouched on a HIT.  Without Redis the
// middleware is a no-op.
func NewRedisCache(cfg config.CacheConfig, rdb *redis.Client) echo.MiddlewareFunc {
    if !cfg.Enabled || rdb == nil {
        return func(next echo.HandlerFunc) echo.HandlerFunc { return next }
    }
    ttl := cfg.TTL
    if ttl <= 0 { ttl = time.Minute }

    return func(next echo.HandlerFunc) echo.HandlerFunc {
        return func(c echo.Context) error {
            if !cfg.Methods[strings.ToUpper(c.Request().Method)] {
                return next(c)
            }
            ctx := c.Request().Context()
            key := cacheKey(cfg, c)

            if raw, err := rdb.Get(ctx, key).Bytes(); err == nil {
                var hit cachedResponse
                if json.Unmarshal(raw, &hit) == nil && hit.Status != 0 {
                    h := c.Response().Header()
                    for k, vals := range contentHeaders(hit.Header) {
                        h[k] = vals
                    }
                    h.Set("X-Cache", "HIT")
                    c.Response().WriteHeader(hit.Status)
                    _, err := c.Response().Write(hit.Body)
                    return err
                }
            }

            tw := &teeWriter{ResponseWriter: c.Response().Writer, status: http.StatusOK, limit: cfg.MaxBodyBytes}
            c.Response().Writer = tw
            c.Response().Header().Set("X-Cache", "MISS")

            if err := next(c); err != nil {
                return err
            }
            if tw.status != http.StatusOK || tw.truncated {
                return nil
            }
            entry := cachedResponse{Status: tw.status, Header: contentHeaders(c.Response().Header()), Body: tw.buf.Bytes()}
            payload, err := json.Marshal(entry)
            if err == nil {
                err = rdb.SetEx(context.WithoutCancel(ctx), key, payload, ttl).Err()
            }
            if err != nil {
                zap.L().Debug("cache: store failed", zap.String("key", key), zap.Error(err))
            }
            return nil
        }
    }
}

// PurgeCache drops every cached response under the configured prefix.  Menu
// writes call it so admins see their edits on the next read.
func PurgeCache(ctx context.Context, cfg config.CacheConfig, rdb *redis.Client) error {
    if rdb == nil {
        return nil
    }
    iter := rdb.Scan(ctx, 0, cfg.Prefix+":*", 200).Iterator()
    var keys []string
    for iter.Next(ctx) {
        keys = append(keys, iter.Val())
    }
    if err := iter.Err(); err != nil {
        return err
    }
    if len(keys) == 0 {
        return nil
    }
    return rdb.Del(ctx, keys...).Err()
}
