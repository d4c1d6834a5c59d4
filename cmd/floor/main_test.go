package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestFormatRemaining(t *testing.T) {
	assert.Equal(t, "0:00:00", formatRemaining(0))
	assert.Equal(t, "0:01:05", formatRemaining(65))
	assert.Equal(t, "2:00:00", formatRemaining(7200))
	assert.Equal(t, "1:59:59", formatRemaining(7199))
}

func TestLoggerWritesBesideEventLog(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "logs")
	logger, err := newLogger(dir)
	require.NoError(t, err)

	logger.Named("floor").Warn("refresh failed", zap.String("terminal", "PC-01"))
	require.NoError(t, logger.Sync())

	b, err := os.ReadFile(filepath.Join(dir, "floor.log"))
	require.NoError(t, err)
	assert.Contains(t, string(b), `"msg":"refresh failed"`)
	assert.Contains(t, string(b), `"logger":"floor"`)
	assert.Contains(t, string(b), `"terminal":"PC-01"`)
}
