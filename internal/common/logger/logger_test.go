package logger

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestIsSensitive(t *testing.T) {
	tests := []struct {
		key  string
		want bool
	}{
		{"owner_0_ssn", true},
		{"owner_1_SSN", true},
		{"ein", true},
		{"owner_0_dob", true},
		{"signature_image", true},
		{"service_role", true},
		{"applicationId", false},
		{"business_legal_name", false},
		{"lessn", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			assert.Equal(t, tt.want, IsSensitive(tt.key))
		})
	}
}

func TestZapAdapter_RedactsAndNamesErrors(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewZapAdapter(zap.New(core)).WithFields(map[string]interface{}{"component": "pipeline"})

	log.Warn("validation failed", map[string]interface{}{
		"owner_0_ssn":   "123-45-6789",
		"applicationId": int64(7),
		"error":         errors.New("boom"),
	})

	entries := logs.All()
	if assert.Len(t, entries, 1) {
		ctx := entries[0].ContextMap()
		assert.Equal(t, "pipeline", ctx["component"])
		assert.Equal(t, "[redacted]", ctx["owner_0_ssn"])
		assert.Equal(t, int64(7), ctx["applicationId"])
		assert.Equal(t, "boom", ctx["error"])
	}
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, parseLevel("debug"))
	assert.Equal(t, zapcore.WarnLevel, parseLevel("warn"))
	assert.Equal(t, zapcore.ErrorLevel, parseLevel("error"))
	assert.Equal(t, zapcore.InfoLevel, parseLevel("verbose"))
}
