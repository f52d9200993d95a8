package logging

import (
    "os"
    "path/filepath"
    "testing"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
    "go.uber.org/zap"
    "go.uber.org/zap/zapcore"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
    _, err := New(Options{Level: "loud"})
    assert.Error(t, err)
}

func TestNewWritesRotatingFile(t *testing.T) {
    file := filepath.Join(t.TempDir(), "server.log")
    logger, err := New(Options{Production: true, Level: "debug", File: file})
    require.NoError(t, err)

    logger.Info("payment recorded", zap.String("transactionId", "tx-1"))
    _ = logger.Sync()

    data, err := os.ReadFile(file)
    require.NoError(t, err)
    assert.Contains(t, string(data), `"transactionId":"tx-1"`)
    assert.True(t, zap.L().Core().Enabled(zapcore.DebugLevel), "global logger replaced")
}
