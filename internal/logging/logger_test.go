package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fleet-planner/internal/config"
)

func TestNewJSONRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(config.LoggingConfig{Level: "warn", Format: "json"}, &buf)

	log.Info("dropped")
	log.Warn("kept", "agent", "truck-1")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "truck-1", entry["agent"])
}

func TestComponentTagsSlogLogger(t *testing.T) {
	var buf bytes.Buffer
	log := Component(NewWithWriter(config.LoggingConfig{Level: "debug", Format: "text"}, &buf), "aco")
	log.Debug("iteration done")

	assert.Contains(t, buf.String(), "component=aco")
}

func TestComponentOnNoOp(t *testing.T) {
	l := Component(NoOp{}, "fleet")
	assert.Equal(t, NoOp{}, l)
}
