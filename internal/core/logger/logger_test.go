package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"souqbridge-identity/internal/core/config"
)

func TestBuild_JSON(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "info", JSON: true, Out: &buf})
	l.Info("registered", zap.String("role", "buyer"))
	l.Debug("dropped")
	cleanup()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "registered", entry["msg"])
	assert.Equal(t, "buyer", entry["role"])
	assert.Contains(t, entry, "ts")
}

func TestBuild_BadLevelFallsBackToInfo(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "loud", JSON: true, Out: &buf})
	l.Debug("hidden")
	l.Info("shown")
	cleanup()
	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
}

func TestBuild_Rotate(t *testing.T) {
	var buf bytes.Buffer
	file := filepath.Join(t.TempDir(), "app.log")
	l, cleanup := Build(Options{
		Level: "info", JSON: true, Out: &buf,
		Rotate: config.Rotate{Enable: true, Filename: file, MaxSizeMB: 1},
	})
	l.Info("to-file")
	cleanup()
	assert.FileExists(t, file)
}

func TestToWriter(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "info", JSON: true, Out: &buf})
	_, err := ToWriter(l, zapcore.WarnLevel).Write([]byte("from std\n"))
	require.NoError(t, err)
	cleanup()
	assert.Contains(t, buf.String(), `"msg":"from std"`)
	assert.Contains(t, buf.String(), `"level":"warn"`)
}

func TestCtx_TagsRequestID(t *testing.T) {
	var buf bytes.Buffer
	l, cleanup := Build(Options{Level: "info", JSON: true, Out: &buf})

	ctx := WithRequestID(context.Background(), "rid-1")
	assert.Equal(t, "rid-1", RequestID(ctx))
	Ctx(ctx, l).Info("tagged")
	cleanup()

	var entry map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &entry))
	assert.Equal(t, "rid-1", entry["rid"])

	assert.Same(t, l, Ctx(context.Background(), l))
}
