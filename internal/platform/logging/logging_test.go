package logging

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"workforce/internal/requestctx"
)

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, err := New("loud", "json", "development")
	require.Error(t, err)

	logger, err := New("debug", "", "production")
	require.NoError(t, err)
	require.True(t, logger.Core().Enabled(zap.DebugLevel))
}

func TestForAddsRequestFields(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	ctx := requestctx.WithActor(requestctx.WithRequestID(context.Background(), "req-1"), "hr-user")

	For(ctx, zap.New(core)).Info("hello")

	entries := logs.All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, "req-1", fields["requestId"])
	require.Equal(t, "hr-user", fields["actor"])
}

func TestForNilLogger(t *testing.T) {
	require.NotNil(t, For(context.Background(), nil))
}
