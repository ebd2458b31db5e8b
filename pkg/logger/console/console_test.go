package console

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLoggerJSON(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(ConsoleLoggerParams{Format: "json", Output: &buf})
	l.Info("[Loader] Loaded clients", "count", 2)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "[Loader] Loaded clients", line["msg"])
	assert.Equal(t, float64(2), line["count"])
}

func TestConsoleLoggerDebugLevel(t *testing.T) {
	var buf bytes.Buffer
	NewConsoleLogger(ConsoleLoggerParams{Output: &buf}).Debug("hidden")
	assert.Empty(t, buf.String())

	NewConsoleLogger(ConsoleLoggerParams{Debug: true, Output: &buf}).Debug("shown")
	assert.Contains(t, buf.String(), "shown")
}
