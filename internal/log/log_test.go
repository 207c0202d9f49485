package log

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func capture(t *testing.T, level Level) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	SetOutput(&buf)
	SetLevel(level)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(LevelInfo)
	})
	return &buf
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelError, ParseLevel(" ERROR "))
	assert.Equal(t, LevelInfo, ParseLevel("info"))
	assert.Equal(t, LevelInfo, ParseLevel("verbose"))
}

func TestInfo_WritesKeyValues(t *testing.T) {
	buf := capture(t, LevelInfo)

	Info("feed built", "events", 305, "timezone", "Europe/London")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "feed built", entry["message"])
	assert.Equal(t, float64(305), entry["events"])
	assert.Equal(t, "Europe/London", entry["timezone"])
	assert.Contains(t, entry, "time")
}

func TestError_IncludesError(t *testing.T) {
	buf := capture(t, LevelInfo)

	Error("month fetch failed; skipping", errors.New("unexpected status code: 500 Internal Server Error"), "month", 10)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "error", entry["level"])
	assert.Equal(t, "unexpected status code: 500 Internal Server Error", entry["error"])
}

func TestLevelFiltering(t *testing.T) {
	buf := capture(t, LevelError)

	Debug("hidden")
	Info("hidden")
	assert.Empty(t, buf.String())

	SetLevel(LevelDebug)
	Debug("shown")
	assert.True(t, strings.Contains(buf.String(), `"message":"shown"`))
}
