package logger

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"fieldsync/internal/app/client/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name          string
		env           string
		expectedLevel slog.Level
	}{
		{
			name:          "local environment",
			env:           config.EnvLocal,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "dev environment",
			env:           config.EnvDev,
			expectedLevel: slog.LevelDebug,
		},
		{
			name:          "prod environment",
			env:           config.EnvProd,
			expectedLevel: slog.LevelInfo,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger := New(tt.env)
			require.NotNil(t, logger)
			ctx := context.Background()
			assert.Equal(t, tt.expectedLevel <= slog.LevelDebug, logger.Enabled(ctx, slog.LevelDebug))
			assert.True(t, logger.Enabled(ctx, slog.LevelInfo))
		})
	}
}

func TestSetupPrettySlog(t *testing.T) {
	var buf bytes.Buffer
	logger := setupPrettySlog(&buf, slog.LevelDebug)
	require.NotNil(t, logger)

	ctx := context.Background()
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	logger.With(slog.String("component", "sync_engine")).
		Warn("record failed", "client_id", "abc", "error", errors.New("timeout"))

	out := buf.String()
	assert.Contains(t, out, "record failed")
	assert.Contains(t, out, `"client_id": "abc"`)
	assert.Contains(t, out, `"error": "timeout"`)
	assert.Contains(t, out, `"component": "sync_engine"`)
}

func TestNewWithFile_LevelOverride(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "agent.log")

	// Prod по умолчанию INFO, но уровень из конфигурации важнее
	logger := NewWithFile(config.EnvProd, "debug", path)
	assert.True(t, logger.Enabled(ctx, slog.LevelDebug))

	logger = NewWithFile(config.EnvDev, "error", "")
	assert.False(t, logger.Enabled(ctx, slog.LevelWarn))
	assert.True(t, logger.Enabled(ctx, slog.LevelError))
}

func TestSetupPrettySlog_Groups(t *testing.T) {
	var buf bytes.Buffer
	logger := setupPrettySlog(&buf, slog.LevelDebug)

	logger.With(slog.String("component", "sync_engine")).
		WithGroup("batch").
		Info("batch finished",
			slog.Int("attempted", 2),
			slog.Group("errors", slog.String("abc", "timeout")),
		)

	out := buf.String()
	assert.Contains(t, out, "\n  \"component\": \"sync_engine\"")
	assert.Contains(t, out, "\n  \"batch\": {")
	assert.Contains(t, out, "\n    \"attempted\": 2")
	assert.Contains(t, out, "\n    \"errors\": {")
	assert.Contains(t, out, "\n      \"abc\": \"timeout\"")
}
