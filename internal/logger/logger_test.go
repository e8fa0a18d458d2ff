package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew_Levels(t *testing.T) {
	tests := []struct {
		level string
		want  zapcore.Level
	}{
		{"debug", zapcore.DebugLevel},
		{"INFO", zapcore.InfoLevel},
		{"warn", zapcore.WarnLevel},
		{"error", zapcore.ErrorLevel},
		{"bogus", zapcore.InfoLevel},
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			l, err := New(tt.level, "production")
			require.NoError(t, err)
			assert.True(t, l.Core().Enabled(tt.want))
			if tt.want > zapcore.DebugLevel {
				assert.False(t, l.Core().Enabled(tt.want-1))
			}
		})
	}
}

func TestFromContext(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	base := zap.New(core)

	ctx := NewContext(context.Background(), WithUserID(base, "user-1"))
	FromContext(ctx, nil).Info("hello")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "hello", entry.Message)
	assert.Equal(t, "user-1", entry.ContextMap()["user_id"])
}

func TestFromContext_Fallback(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	fallback := WithComponent(zap.New(core), "test")

	FromContext(context.Background(), fallback).Info("fallback")
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "test", logs.All()[0].ContextMap()["component"])

	assert.NotPanics(t, func() {
		FromContext(context.Background(), nil).Info("nop")
	})
}
