package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(Config{Level: "debug", Format: "json"}, &buf), "syncer")

	log.Debug().Int("events", 3).Msg("synced")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "debug", line["level"])
	assert.Equal(t, "syncer", line[FieldComponent])
	assert.Equal(t, "synced", line["message"])
	assert.Equal(t, 3.0, line["events"])
	assert.Contains(t, line, "time")
}

func TestNew_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{Level: "warn", Format: "json"}, &buf)

	log.Info().Msg("dropped")
	assert.Empty(t, buf.String())

	log.Warn().Msg("kept")
	assert.Contains(t, buf.String(), "kept")
}

func TestNew_ConsoleDefault(t *testing.T) {
	var buf bytes.Buffer
	log := New(Config{NoColor: true}, &buf)

	log.Info().Str("step", "pca").Msg("captured")
	out := buf.String()
	assert.Contains(t, out, "captured")
	assert.Contains(t, out, "step=pca")
}

func TestConfig_Validate(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()
	assert.NoError(t, cfg.Validate())

	assert.Error(t, (&Config{Level: "loud", Format: "json"}).Validate())
	assert.Error(t, (&Config{Level: "info", Format: "xml"}).Validate())
}
