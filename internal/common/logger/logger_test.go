// internal/common/logger/logger_test.go
package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, ParseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
	assert.Equal(t, zapcore.WarnLevel, ParseLevel(" WARN "))
}

func TestForService(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	ForService(zap.New(core), "ranking-workers", "1.2.0", "").Info("started")

	ctx := logs.All()[0].ContextMap()
	assert.Equal(t, "ranking-workers", ctx["service"])
	assert.Equal(t, "1.2.0", ctx["version"])
	assert.NotContains(t, ctx, "environment")
}

func TestMapToZapFields_SortedKeys(t *testing.T) {
	fields := mapToZapFields(map[string]interface{}{"b": 1, "a": 2, "c": 3})
	assert.Equal(t, "a", fields[0].Key)
	assert.Equal(t, "b", fields[1].Key)
	assert.Equal(t, "c", fields[2].Key)
	assert.Nil(t, mapToZapFields(nil))
}

func TestZapAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).
		WithFields(map[string]interface{}{"worker": "compute-rankings"})

	log.Warn("failed to record ranking history", map[string]interface{}{
		"companyId": "c1",
		"error":     errors.New("boom"),
	})

	entries := logs.All()
	assert.Len(t, entries, 1)
	ctx := entries[0].ContextMap()
	assert.Equal(t, "compute-rankings", ctx["worker"])
	assert.Equal(t, "c1", ctx["companyId"])
	assert.Equal(t, "boom", ctx["error"])
}

func TestZapAdapter_WithError(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	NewZapAdapter(zap.New(core)).WithError(errors.New("db down")).Info("degraded", nil)

	assert.Equal(t, "db down", logs.All()[0].ContextMap()["error"])
}
