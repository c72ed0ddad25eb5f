package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelInfo}).With(Component("ingest"))

	log.Debug("hidden")
	log.Info("record stored", LearnerID("abc"), Unit(5))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var e map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &e))
	assert.Equal(t, "INFO", e["level"])
	assert.Equal(t, "record stored", e["msg"])
	assert.Equal(t, "ingest", e["component"])
	assert.Equal(t, "abc", e["learner_id"])
	assert.Equal(t, float64(5), e["unit"])
}

func TestLogger_SourcePointsAtCaller(t *testing.T) {
	var buf bytes.Buffer
	New(Options{Output: &buf, AddSource: true}).Info("here")

	var e struct {
		Source struct {
			File string `json:"file"`
		} `json:"source"`
	}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &e))
	assert.True(t, strings.HasSuffix(e.Source.File, "logger_test.go"), e.Source.File)
}

func TestLogger_SharesSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	base := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))
	log := FromSlog(base)

	log.Info("dropped")
	log.Error("kept", Err(errors.New("disk full")), RecordDate(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	out := buf.String()
	assert.NotContains(t, out, "dropped")
	assert.Contains(t, out, `error="disk full"`)
	assert.Contains(t, out, "record_date=2026-03-01")
	assert.False(t, log.Enabled(LevelInfo))
}

func TestLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	log := New(Options{Output: &buf, Level: LevelDebug, Format: FormatText})

	log.Warn("slow", Count(3), Operation("weekly"))

	out := buf.String()
	assert.Contains(t, out, "WARN")
	assert.Contains(t, out, "count=3 operation=weekly")
}

func TestLogger_WithDoesNotLeakFields(t *testing.T) {
	var buf bytes.Buffer
	base := New(Options{Output: &buf})
	_ = base.With(LearnerID("x"))

	base.Info("plain")
	assert.NotContains(t, buf.String(), "learner_id")
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, LevelDebug, ParseLevel("debug"))
	assert.Equal(t, LevelWarn, ParseLevel("WARNING"))
	assert.Equal(t, LevelInfo, ParseLevel("nonsense"))
}

func TestFromContext(t *testing.T) {
	l := Discard()
	ctx := WithContext(context.Background(), l)
	assert.Same(t, l, FromContext(ctx))
	assert.NotNil(t, FromContext(context.Background()))
}
