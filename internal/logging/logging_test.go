package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/usersoap/usersvc/config"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, config.LogConfig{Format: "json", Level: "warn"})

	logger.Info("dropped")
	logger.Warn("kept", "queue", "user-events")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "kept", entry["msg"])
	assert.Equal(t, "user-events", entry["queue"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, parseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, parseLevel("warning"))
	assert.Equal(t, slog.LevelError, parseLevel("error"))
	assert.Equal(t, slog.LevelInfo, parseLevel(""))
}

func TestRedactEmail(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		email    string
		expected string
	}{
		{name: "normal", email: "alice@example.com", expected: "al****@example.com"},
		{name: "empty", email: "", expected: ""},
		{name: "short local", email: "ab@x.com", expected: "ab@x.com"},
		{name: "no at", email: "alice", expected: "alice"},
		{name: "trailing at", email: "alice@", expected: "alice@"},
		{name: "multibyte", email: "ñandú@x.com", expected: "ña****@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.expected, RedactEmail(tt.email))
		})
	}
}
