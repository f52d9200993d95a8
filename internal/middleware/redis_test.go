package middleware

import (
    "context"
    "net/http"
    "net/http/httptest"
    "strings"
    "testing"
    "time"

    "github.com/alicebob/miniredis/v2"
    "github.com/labstack/echo/v4"
    "github.com/redis/go-redis/v9"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"

    "github.com/iliyamo/bistro-boss-server/internal/config"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
    t.Helper()
    mr := miniredis.RunT(t)
    rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
    t.Cleanup(func() { _ = rdb.Close() })
    return mr, rdb
}

func testCacheConfig() config.CacheConfig {
    return config.CacheConfig{
        Enabled:      true,
        Methods:      map[string]bool{http.MethodGet: true},
        TTL:          time.Minute,
        KeyStrategy:  "route_query",
        Prefix:       "test:cache",
        MaxBodyBytes: 1 << 20,
    }
}

func get(e *echo.Echo, path string, header map[string]string) *httptest.ResponseRecorder {
    req := httptest.NewRequest(http.MethodGet, path, nil)
    for k, v := range header {
        req.Header.Set(k, v)
    }
    rec := httptest.NewRecorder()
    e.ServeHTTP(rec, req)
    return rec
}

func TestCacheKeysOnRequestPath(t *testing.T) {
    _, rdb := newTestRedis(t)
    calls := 0
    e := echo.New()
    e.GET("/menu/:id", func(c echo.Context) error {
        calls++
        return c.String(http.StatusOK, "item-"+c.Param("id"))
    }, NewRedisCache(testCacheConfig(), rdb))

    rec := get(e, "/menu/a", nil)
    assert.Equal(t, "item-a", rec.Body.String())
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

    rec = get(e, "/menu/b", nil)
    assert.Equal(t, "item-b", rec.Body.String())
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))

    rec = get(e, "/menu/a", nil)
    assert.Equal(t, "item-a", rec.Body.String())
    assert.Equal(t, "HIT", rec.Header().Get("X-Cache"))
    assert.Equal(t, 2, calls)

    rec = get(e, "/menu/a?lang=bn", nil)
    assert.Equal(t, "MISS", rec.Header().Get("X-Cache"))
}

func TestCacheHitKeepsPerRequestHeaders(t *testing.T) {
    _, rdb := newTestRedis(t)
    limits := config.RateLimitConfig{
        Enabled:        true,
        Capacity:       10,
        RefillTokens:   1,
        RefillInterval: time.Hour,
        TTL:            time.Hour,
        KeyStrategy:    "ip_route",
        Prefix:         "test:rl",
    }
    e := echo.New()
    e.Use(RequestID(), NewTokenBucket(limits, rdb))
    e.GET("/menu", func(c echo.Context) error {
        return c.JSON(http.StatusOK, []string{"salad"})
    }, NewRedisCache(testCacheConfig(), rdb))

    first := get(e, "/menu", map[string]string{echo.HeaderXRequestID: "req-1"})
    require.Equal(t, "MISS", first.Header().Get("X-Cache"))
    assert.Equal(t, "9", first.Header().Get("X-RateLimit-Remaining"))

    second := get(e, "/menu", map[string]string{echo.HeaderXRequestID: "req-2"})
    require.Equal(t, "HIT", second.Header().Get("X-Cache"))
    assert.Equal(t, "req-2", second.Header().Get(echo.HeaderXRequestID))
    assert.Equal(t, "8", second.Header().Get("X-RateLimit-Remaining"))
    assert.True(t, strings.HasPrefix(second.Header().Get(echo.HeaderContentType), echo.MIMEApplicationJSON))
    assert.JSONEq(t, first.Body.String(), second.Body.String())
}

func TestCacheSkipsErrorResponses(t *testing.T) {
    mr, rdb := newTestRedis(t)
    e := echo.New()
    e.GET("/menu/:id", func(c echo.Context) error {
        return c.JSON(http.StatusBadRequest, echo.Map{"message": "invalid id"})
    }, NewRedisCache(testCacheConfig(), rdb))

    get(e, "/menu/x", nil)
    assert.Empty(t, mr.Keys())
}

func TestPurgeCacheDropsOnlyPrefix(t *testing.T) {
    mr, rdb := newTestRedis(t)
    cfg := testCacheConfig()
    e := echo.New()
    e.GET("/menu", func(c echo.Context) error { return c.String(http.StatusOK, "menu") }, NewRedisCache(cfg, rdb))
    e.GET("/reviews", func(c echo.Context) error { return c.String(http.StatusOK, "reviews") }, NewRedisCache(cfg, rdb))

    get(e, "/menu", nil)
    get(e, "/reviews", nil)
    require.NoError(t, mr.Set("other:key", "keep"))
    require.Len(t, mr.Keys(), 3)

    require.NoError(t, PurgeCache(context.Background(), cfg, rdb))
    assert.Equal(t, []string{"other:key"}, mr.Keys())
    assert.Equal(t, "MISS", get(e, "/menu", nil).Header().Get("X-Cache"))
}

func TestPaymentBucketRejectsOverCapacity(t *testing.T) {
    _, rdb := newTestRedis(t)
    limits := config.RateLimitConfig{
        Enabled:         true,
        Capacity:        50,
        PaymentCapacity: 2,
        RefillTokens:    1,
        RefillInterval:  time.Hour,
        TTL:             time.Hour,
        KeyStrategy:     "ip_route",
        Prefix:          "test:rl",
    }
    e := echo.New()
    e.Use(NewTokenBucket(limits, rdb))
    ok := func(c echo.Context) error { return c.String(http.StatusOK, "ok") }
    e.POST("/payments", ok, NewTokenBucket(limits.Payments(), rdb))
    e.GET("/menu", ok)

    post := func() *httptest.ResponseRecorder {
        rec := httptest.NewRecorder()
        e.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/payments", nil))
        return rec
    }
    assert.Equal(t, http.StatusOK, post().Code)
    assert.Equal(t, http.StatusOK, post().Code)

    rec := post()
    assert.Equal(t, http.StatusTooManyRequests, rec.Code)
    assert.Equal(t, "2", rec.Header().Get("X-RateLimit-Limit"))
    assert.NotEmpty(t, rec.Header().Get("Retry-After"))

    assert.Equal(t, http.StatusOK, get(e, "/menu", nil).Code)
}

func TestDefaultRateKeyIsIPAndRoute(t *testing.T) {
    e := echo.New()
    req := httptest.NewRequest(http.MethodPost, "/payments", nil)
    req.Header.Set(echo.HeaderXRealIP, "10.0.0.7")
    c := e.NewContext(req, httptest.NewRecorder())
    c.SetPath("/payments")

    key := buildRateKey(config.RateLimitConfig{Prefix: "rl"}, c)
    assert.Equal(t, "rl:ip:10.0.0.7:route:POST /payments", key)

    key = buildRateKey(config.RateLimitConfig{Prefix: "rl", KeyStrategy: "ip_user_route"}, c)
    assert.Equal(t, "rl:ip:10.0.0.7:user:guest:route:POST /payments", key)
}
