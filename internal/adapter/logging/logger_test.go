package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := NewZapLoggerWithCore(core).Named("render").With("render", "node-01")

	l.Warn("capacity exceeded", "used", 110, "capacity", 100)
	l.Debug("tick")

	require.Equal(t, 2, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	assert.Equal(t, "render", entry.LoggerName)
	assert.Equal(t, "capacity exceeded", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, "node-01", fields["render"])
	assert.EqualValues(t, 110, fields["used"])
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	assert.NotPanics(t, func() {
		l.Error("dropped", "k", "v")
	})
}
