package observability

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in       string
		expected slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"DEBUG", slog.LevelDebug},
		{"warn", slog.LevelWarn},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
		{"info", slog.LevelInfo},
		{"", slog.LevelInfo},
		{"verbose", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLevel(tt.in))
		})
	}
}

func TestNewLogger_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "info", "json")

	logger.Debug("hidden")
	logger.Info("report translated", "observations", 6)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "report translated", rec["msg"])
	assert.Equal(t, "ecowitt-bridge", rec["service"])
	assert.EqualValues(t, 6, rec["observations"])
}

func TestNewLogger_Text(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, "debug", "text")

	logger.Debug("visible")
	assert.Contains(t, buf.String(), "msg=visible")
}

func TestNewMetricsForTesting(t *testing.T) {
	m := NewMetricsForTesting()
	m.ReportsReceived.Inc()
	m.PublishErrors.WithLabelValues("kafka").Add(2)

	assert.InDelta(t, 1, testutil.ToFloat64(m.ReportsReceived), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(m.PublishErrors.WithLabelValues("kafka")), 0)

	// A second set must not collide with the first.
	assert.NotPanics(t, func() { NewMetricsForTesting() })
}
