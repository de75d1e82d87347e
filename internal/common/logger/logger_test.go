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
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("info"))
	assert.Equal(t, zapcore.InfoLevel, ParseLevel("verbose"))
}

func TestZapWrapper_FieldsAndComponent(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := ForComponent(NewZapAdapter(zap.New(core)), "build-context")

	log.WithError(errors.New("boom")).Warn("fetch failed", map[string]interface{}{
		"repairOrderId": "123",
		"cause":         errors.New("upstream"),
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "fetch failed", entries[0].Message)
		assert.Equal(t, "build-context", ctx["component"])
		assert.Equal(t, "123", ctx["repairOrderId"])
		assert.Equal(t, "boom", ctx["error"])
		assert.Equal(t, "upstream", ctx["cause"])
	}
}

func TestNewNoOpLogger(t *testing.T) {
	log := NewNoOpLogger()
	log.Info("ignored", nil)
	assert.NotNil(t, log.With(map[string]interface{}{"k": "v"}))
}
