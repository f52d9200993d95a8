package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "s3cret")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg := Load()
	assert.Equal(t, "s3cret", cfg.JWTSecret)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, "mz_bossDB", cfg.MongoDB)
	assert.Equal(t, 60, cfg.AccessTTLMin)
	assert.False(t, cfg.StripeVerifyIntents)
	assert.True(t, cfg.Gateway.Sandbox)
	assert.Equal(t, 30*time.Second, cfg.Gateway.Timeout)
	assert.False(t, cfg.IsProduction())
}

func TestLoadBuildsAtlasURI(t *testing.T) {
	t.Setenv("ACCESS_TOKEN_SECRET", "s3cret")
	t.Setenv("MONGO_URI", "")
	t.Setenv("DB_USER", "boss")
	t.Setenv("DB_PASS", "pw")
	t.Setenv("MONGO_HOST", "cluster.example.net")

	cfg := Load()
	assert.Equal(t, "mongodb+srv://boss:pw@cluster.example.net/?retryWrites=true&w=majority&appName=Cluster0", cfg.MongoURI)
}

func TestEnvReadersFallBack(t *testing.T) {
	t.Setenv("X_BOOL", "on")
	t.Setenv("X_BAD_BOOL", "maybe")
	t.Setenv("X_INT", "nope")
	t.Setenv("X_DUR", "5m")
	t.Setenv("X_LIST", " get, ,post ")

	assert.True(t, envBool("X_BOOL", false))
	assert.True(t, envBool("X_BAD_BOOL", true))
	assert.Equal(t, 7, envInt("X_INT", 7))
	assert.Equal(t, 5*time.Minute, envDur("X_DUR", time.Second))
	assert.Equal(t, []string{"get", "post"}, envList("X_LIST", ""))
	assert.Equal(t, map[string]bool{"GET": true, "POST": true}, parseMethods(envList("X_LIST", "")))
}

func TestPaymentBucketIsSeparate(t *testing.T) {
	t.Setenv("RATE_LIMIT_CAPACITY", "100")
	t.Setenv("RATE_LIMIT_PAYMENT_CAPACITY", "0")

	rl := LoadRateLimitConfig()
	pay := rl.Payments()
	assert.Equal(t, 100, rl.Capacity)
	assert.Equal(t, "ip_route", rl.KeyStrategy)
	assert.Equal(t, 1, pay.Capacity)
	assert.Equal(t, rl.Prefix+":pay", pay.Prefix)
	assert.GreaterOrEqual(t, pay.TTL, 5*pay.RefillInterval)
}
