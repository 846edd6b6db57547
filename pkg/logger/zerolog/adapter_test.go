package zerolog

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raykavin/stratevo/pkg/logger"
)

func lines(t *testing.T, buffer *bytes.Buffer) []map[string]any {
	t.Helper()
	var out []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(buffer.String()), "\n") {
		if line == "" {
			continue
		}
		var entry map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &entry))
		out = append(out, entry)
	}
	return out
}

func TestNew_JSON(t *testing.T) {
	var buffer bytes.Buffer
	log, err := New(&buffer, Options{Level: "debug", JSON: true})
	require.NoError(t, err)

	var l logger.Logger = log
	l.WithField("candidate", "g1-c2").Infof("scored %d", 3)
	l.WithError(errors.New("boom")).Warn("degraded")
	l.Trace("hidden")

	entries := lines(t, &buffer)
	require.Len(t, entries, 2)
	assert.Equal(t, "info", entries[0]["level"])
	assert.Equal(t, "scored 3", entries[0]["message"])
	assert.Equal(t, "g1-c2", entries[0]["candidate"])
	assert.Equal(t, "boom", entries[1]["error"])
	assert.Equal(t, logger.DebugLevel, l.GetLevel())
}

func TestAdapter_SetLevel(t *testing.T) {
	var buffer bytes.Buffer
	log, err := New(&buffer, Options{Level: "info", JSON: true})
	require.NoError(t, err)

	log.SetLevel(logger.ErrorLevel)
	assert.Equal(t, logger.ErrorLevel, log.GetLevel())

	log.Info("dropped")
	log.WithFields(map[string]any{"generation": 4}).Error("kept")

	entries := lines(t, &buffer)
	require.Len(t, entries, 1)
	assert.Equal(t, "kept", entries[0]["message"])
	assert.EqualValues(t, 4, entries[0]["generation"])
}

func TestNew_Console(t *testing.T) {
	var buffer bytes.Buffer
	log, err := New(&buffer, Options{Level: "info"})
	require.NoError(t, err)

	log.Info("plain output")
	assert.Contains(t, buffer.String(), "plain output")
}

func TestNew_InvalidLevel(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{Level: "loud"})
	require.Error(t, err)
}

func TestLevelConversion(t *testing.T) {
	for _, level := range []logger.Level{
		logger.Disabled, logger.TraceLevel, logger.DebugLevel,
		logger.InfoLevel, logger.WarnLevel, logger.ErrorLevel,
	} {
		assert.Equal(t, level, toLevel(toZerologLevel(level)), level.String())
	}

	parsed, err := logger.ParseLevel("WARNING")
	require.NoError(t, err)
	assert.Equal(t, logger.WarnLevel, parsed)
}
