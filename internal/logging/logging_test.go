package logging

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"info", slog.LevelInfo},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ParseLevel(tt.in), "ParseLevel(%q)", tt.in)
	}
}

func TestNewLogger_JSONOutsideLocal(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, EnvProd, slog.LevelInfo)

	log.Info("stored event", slog.String("event_type", "member_join"), Err(errors.New("boom")))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "stored event", got["msg"])
	assert.Equal(t, "member_join", got["event_type"])
	assert.Equal(t, "boom", got["error"])
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, EnvDev, slog.LevelWarn)

	log.Info("hidden")
	assert.Zero(t, buf.Len())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestPrettyHandler(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, EnvLocal, slog.LevelDebug)

	log.With(slog.String("op", "ingest")).Debug("token mismatch", slog.Int64("guild_id", 42))

	out := buf.String()
	assert.Contains(t, out, "token mismatch")
	assert.Contains(t, out, `"op": "ingest"`)
	assert.Contains(t, out, `"guild_id": 42`)
}

func TestPrettyHandler_Level(t *testing.T) {
	var buf bytes.Buffer
	log := newLogger(&buf, EnvLocal, slog.LevelInfo)

	log.Debug("dropped")
	assert.Zero(t, buf.Len())
}
