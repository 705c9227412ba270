package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "production")

	log.Debug("hidden")
	log.Info("verification submitted", "verification_id", "0")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "verification submitted", entry["msg"])
	assert.Equal(t, "mastery", entry["service"])
	assert.Equal(t, "0", entry["verification_id"])
}

func TestNewWithWriter_DevelopmentLogsDebug(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "development").Debug("visible")
	assert.Contains(t, buf.String(), "visible")
}
