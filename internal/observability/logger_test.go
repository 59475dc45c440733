// File: internal/observability/logger_test.go
package observability

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/Tamas54/bravectl/internal/config"
)

// syncBuffer adapts bytes.Buffer to zapcore.WriteSyncer.
type syncBuffer struct {
	bytes.Buffer
}

func (s *syncBuffer) Sync() error { return nil }

func TestInitializeWritesToConsoleWriter(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{
		Level:       "info",
		Format:      "json",
		ServiceName: "bravectl-test",
	}, zapcore.Lock(&buf))

	GetLogger().Info("hello from the test")
	require.NoError(t, GetLogger().Sync())

	out := buf.String()
	assert.Contains(t, out, "hello from the test")
	assert.Contains(t, out, "bravectl-test")
}

func TestInitializeHonorsLevel(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{
		Level:       "warn",
		Format:      "json",
		ServiceName: "bravectl-test",
	}, zapcore.Lock(&buf))

	GetLogger().Info("should be filtered")
	GetLogger().Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
}

func TestInitializeIsIdempotent(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var first, second syncBuffer
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.Lock(&first))
	Initialize(config.LoggerConfig{Level: "info", Format: "json"}, zapcore.Lock(&second))

	GetLogger().Info("only once")
	assert.Contains(t, first.String(), "only once")
	assert.Empty(t, second.String())
}

func TestGetLoggerBeforeInitializeFallsBack(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	logger := GetLogger()
	require.NotNil(t, logger)
}

func TestInvalidLevelFallsBackToInfo(t *testing.T) {
	ResetForTest()
	t.Cleanup(ResetForTest)

	var buf syncBuffer
	Initialize(config.LoggerConfig{Level: "nonsense", Format: "json"}, zapcore.Lock(&buf))

	GetLogger().Info("info still logs")
	assert.Contains(t, buf.String(), "info still logs")
}
