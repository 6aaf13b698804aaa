package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupNonTerminalUsesJSON(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var buf bytes.Buffer
	Setup(&buf, false)

	slog.Info("Exported rows", "rows", 3)
	slog.Debug("hidden")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "Exported rows", entry["msg"])
	assert.Equal(t, float64(3), entry["rows"])
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetupVerbose(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	var buf bytes.Buffer
	Setup(&buf, true)
	slog.Debug("visible")

	assert.Contains(t, buf.String(), "visible")
}

func TestIsTerminal(t *testing.T) {
	assert.False(t, IsTerminal(&bytes.Buffer{}))
}
