package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_JSONIncludesErrorAndFields(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "debug", Format: "json"}, &buf)

	l.WithField("pair", "2026-04-01").Error(errors.New("boom"), "search failed", "status", 500)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "search failed", entry["msg"])
	assert.Equal(t, "boom", entry["error"])
	assert.Equal(t, "2026-04-01", entry["pair"])
	assert.EqualValues(t, 500, entry["status"])
}

func TestNewWithWriter_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "warn", Format: "text"}, &buf)

	l.Info("hidden")
	assert.Empty(t, buf.String())

	l.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithContext_AddsRunID(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", Format: "json"}, &buf)

	ctx := ContextWithRunID(context.Background(), "run-123")
	l.WithContext(ctx).Info("scan started")

	assert.Contains(t, buf.String(), `"run_id":"run-123"`)
}

func TestNewWithWriter_ConsoleFormat(t *testing.T) {
	var buf bytes.Buffer
	l := NewWithWriter(Config{Level: "info", Format: "console"}, &buf)

	l.Info("console line", "calls", 3)
	assert.Contains(t, buf.String(), "console line")
}
