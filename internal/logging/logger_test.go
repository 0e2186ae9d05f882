package logging

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestLoggerFromCore_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewLoggerFromCore(core).Named("verify").With(String("document", "doc-1"))

	log.Warn("backend failed", Int("page", 7), Err(errors.New("timeout")))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "backend failed", entry.Message)
	assert.Equal(t, "verify", entry.LoggerName)

	ctx := entry.ContextMap()
	assert.Equal(t, "doc-1", ctx["document"])
	assert.Equal(t, int64(7), ctx["page"])
	assert.Equal(t, "timeout", ctx["error"])
}

func TestNewLogger(t *testing.T) {
	log, err := NewLogger(Config{Level: "debug", Format: "json"})
	require.NoError(t, err)
	log.Debug("ok")

	_, err = NewLogger(Config{Level: "info", OutputPaths: []string{"/nonexistent-dir/x/y.log"}})
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	prev := Default()
	defer SetDefault(prev)

	SetDefault(nil)
	assert.Equal(t, prev, Default())

	nop := NewNopLogger()
	SetDefault(nop)
	assert.Equal(t, nop, Default())
	assert.NoError(t, nop.Sync())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("WARN"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel(""))
}
