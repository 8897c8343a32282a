package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mkoster/querylens/internal/config"
)

func newTestLogger(t *testing.T, level, format string) (*Logger, *bytes.Buffer) {
	t.Helper()

	logger, err := NewLogger(config.LoggingConfig{
		Level:  level,
		Format: format,
		Output: "stderr",
	})
	require.NoError(t, err)

	buf := &bytes.Buffer{}
	logger.output = buf

	return logger, buf
}

func TestLogLevelFiltering(t *testing.T) {
	logger, buf := newTestLogger(t, "warn", "text")

	logger.Debug("debug message")
	logger.Info("info message")
	logger.Warn("warn message")
	logger.Error("error message")

	output := buf.String()
	assert.NotContains(t, output, "debug message")
	assert.NotContains(t, output, "info message")
	assert.Contains(t, output, "warn message")
	assert.Contains(t, output, "error message")
}

func TestTextFormat(t *testing.T) {
	logger, buf := newTestLogger(t, "info", "text")

	logger.WithField("table", "employees").Info("discovery complete")

	output := buf.String()
	assert.Contains(t, output, "INFO")
	assert.Contains(t, output, "discovery complete")
	assert.Contains(t, output, "table=employees")
}

func TestJSONFormat(t *testing.T) {
	logger, buf := newTestLogger(t, "info", "json")

	logger.WithField("rows", 42).Info("query executed")

	line := strings.TrimSpace(buf.String())

	var entry LogEntry
	require.NoError(t, json.Unmarshal([]byte(line), &entry))

	assert.Equal(t, "INFO", entry.Level)
	assert.Equal(t, "query executed", entry.Message)
	assert.Equal(t, float64(42), entry.Fields["rows"])
}

func TestWithFieldDoesNotMutateParent(t *testing.T) {
	logger, _ := newTestLogger(t, "info", "text")

	child := logger.WithField("key", "value")

	assert.Empty(t, logger.fields)
	assert.Equal(t, "value", child.fields["key"])
}

func TestErrorWithErr(t *testing.T) {
	logger, buf := newTestLogger(t, "info", "text")

	logger.ErrorWithErr("synthesis failed", assert.AnError)

	output := buf.String()
	assert.Contains(t, output, "synthesis failed")
	assert.Contains(t, output, "error=")
}

func TestParseLogLevel(t *testing.T) {
	assert.Equal(t, DebugLevel, parseLogLevel("debug"))
	assert.Equal(t, WarnLevel, parseLogLevel("WARNING"))
	assert.Equal(t, InfoLevel, parseLogLevel("unknown"))
}

func TestInvalidOutput(t *testing.T) {
	_, err := NewLogger(config.LoggingConfig{Level: "info", Format: "text", Output: "syslog"})
	assert.Error(t, err)
}
