package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"souqbridge-identity/internal/core/config"
)

func testConfig(t *testing.T) *config.Config {
	dir := t.TempDir()
	return &config.Config{
		DB:     config.DB{Driver: "sqlite", DSN: filepath.Join(dir, "admin.db"), LogLevel: "silent", QueryTimeoutSec: 5},
		Upload: config.Upload{Root: filepath.Join(dir, "uploads"), MaxBytes: 1 << 20, StagingTTLMin: 60},
	}
}

func TestRun(t *testing.T) {
	cfg := testConfig(t)
	ctx := context.Background()
	log := zap.NewNop()

	require.NoError(t, run(ctx, "migrate", cfg, log))
	require.NoError(t, run(ctx, "offline-all", cfg, log))
	require.NoError(t, run(ctx, "reap-staging", cfg, log))
	assert.Error(t, run(ctx, "drop-everything", cfg, log))
}
