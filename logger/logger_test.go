package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func observed() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.DebugLevel)
	return &Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestLogger_RedactsSecrets(t *testing.T) {
	l, logs := observed()
	l.Info("连接", "uri", "bolt://db:7687", "NEO4J_PASSWORD", "hunter2", "jwt_token", "abc")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "bolt://db:7687", fields["uri"])
	assert.Equal(t, "[REDACTED]", fields["NEO4J_PASSWORD"])
	assert.Equal(t, "[REDACTED]", fields["jwt_token"])
}

func TestLogger_With(t *testing.T) {
	l, logs := observed()
	l.With("client", "Neo4jStore", "secret", "s3").Warn("失败", "case", "neither")

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "Neo4jStore", fields["client"])
	assert.Equal(t, "[REDACTED]", fields["secret"])
	assert.Equal(t, "neither", fields["case"])
}

func TestSanitizeKVs_OddLength(t *testing.T) {
	out := sanitizeKVs([]interface{}{"a", 1, "dangling"})
	assert.Equal(t, []interface{}{"a", 1, "dangling"}, out)
}

func TestNew(t *testing.T) {
	l, err := New("prod")
	require.NoError(t, err)
	assert.False(t, l.SugaredLogger.Desugar().Core().Enabled(zapcore.DebugLevel))

	l, err = New("dev")
	require.NoError(t, err)
	assert.True(t, l.SugaredLogger.Desugar().Core().Enabled(zapcore.DebugLevel))
}
