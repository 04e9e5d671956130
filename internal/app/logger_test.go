package app

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&Config{LogLevel: "warn", LogFormat: "json", PipelineName: "apoferritin"}, &buf)

	logger.Info("hidden")
	logger.Warn("Node producer overwritten.", "node", "ctf.star")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record), buf.String())
	assert.Equal(t, "WARN", record["level"])
	assert.Equal(t, "ctf.star", record["node"])
	assert.Equal(t, "apoferritin", record["pipeline"])
	assert.NotContains(t, buf.String(), "hidden")

	buf.Reset()
	newLogger(&Config{LogLevel: "nonsense", LogFormat: "text"}, &buf).Info("shown", "k", "v", "interval", 1500*time.Microsecond)
	assert.Contains(t, buf.String(), "level=INFO")
	assert.Contains(t, buf.String(), "k=v")
	assert.Contains(t, buf.String(), "interval=2ms")
	assert.NotContains(t, buf.String(), "pipeline=")
}
