package logger

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hearthapp/secretary/internal/config"
)

func TestSetup(t *testing.T) {
	// Not parallel: Setup mutates the process default logger.
	for _, level := range []string{"debug", "info", "warn", "error", "WARN"} {
		logger, err := Setup(config.ServerConfig{LogLevel: level})
		require.NoError(t, err)
		require.NotNil(t, logger)
	}

	// Invalid levels fall back to info instead of failing startup
	logger, err := Setup(config.ServerConfig{LogLevel: "verbose"})
	require.NoError(t, err)
	require.NotNil(t, logger)
	assert.True(t, logger.Enabled(context.Background(), slog.LevelInfo))
	assert.False(t, logger.Enabled(context.Background(), slog.LevelDebug))
}

func TestFromContext(t *testing.T) {
	t.Parallel()

	// Empty context falls back to the default logger
	assert.Equal(t, slog.Default(), FromContext(context.Background()))

	// A stored logger round-trips
	stored := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithLogger(context.Background(), stored)
	assert.Equal(t, stored, FromContext(ctx))
}

func TestFromContextOrDefault(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.NewTextHandler(io.Discard, nil))

	// Context without a logger uses the component fallback
	assert.Equal(t, fallback, FromContextOrDefault(context.Background(), fallback))

	// Context logger wins over the fallback
	stored := slog.New(slog.NewTextHandler(io.Discard, nil))
	ctx := WithLogger(context.Background(), stored)
	assert.Equal(t, stored, FromContextOrDefault(ctx, fallback))

	// Nil fallback degrades to the default logger
	assert.Equal(t, slog.Default(), FromContextOrDefault(context.Background(), nil))
}
