package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger_TextFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:       LogLevelInfo,
		Format:      LogFormatText,
		Output:      &buf,
		ServiceName: "careflow",
	})

	logger.Info("worklist prioritized", "task_count", 7)

	out := buf.String()
	assert.Contains(t, out, "worklist prioritized")
	assert.Contains(t, out, "task_count=7")
	assert.Contains(t, out, "service=careflow")
}

func TestNewLogger_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatJSON,
		Output:         &buf,
		ServiceName:    "careflow",
		ServiceVersion: "1.2.3",
	})

	logger.Info("model trained", "model_version", 4)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "model trained", entry["msg"])
	assert.Equal(t, float64(4), entry["model_version"])
	assert.Equal(t, "careflow", entry["service"])
	assert.Equal(t, "1.2.3", entry["version"])
}

func TestNewLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:  LogLevelWarn,
		Format: LogFormatText,
		Output: &buf,
	})

	logger.Info("should be filtered")
	logger.Warn("should appear")

	out := buf.String()
	assert.NotContains(t, out, "should be filtered")
	assert.Contains(t, out, "should appear")
}

func TestLogger_ContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:  LogLevelInfo,
		Format: LogFormatJSON,
		Output: &buf,
	})

	ctx := NewRequestContext(context.Background(), "corr-123")
	logger.InfoContext(ctx, "interaction recorded")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "corr-123", entry[CorrelationIDKey])
	assert.NotEmpty(t, entry[RequestIDKey])
}

func TestNewSubLogger_KeepsContextIDs(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(LogConfig{
		Level:  LogLevelInfo,
		Format: LogFormatText,
		Output: &buf,
	}).With("component", "outbox")

	ctx := WithCorrelationID(context.Background(), "corr-456")
	logger.InfoContext(ctx, "batch published")

	out := buf.String()
	assert.Contains(t, out, "component=outbox")
	assert.True(t, strings.Contains(out, "corr-456"))
}
