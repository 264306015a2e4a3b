package pipeline_test

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
	"github.com/couchcryptid/ecowitt-bridge/internal/observability"
	"github.com/couchcryptid/ecowitt-bridge/internal/pipeline"
)

// --- mocks ---

type mockSink struct {
	name     string
	err      error
	readyErr error
	deltas   []domain.Delta
}

func (m *mockSink) Name() string { return m.name }

func (m *mockSink) Publish(_ context.Context, d domain.Delta) error {
	m.deltas = append(m.deltas, d)
	return m.err
}

type readySink struct {
	mockSink
}

func (r *readySink) CheckReadiness(_ context.Context) error { return r.readyErr }

func newTestProcessor(sinks ...pipeline.Sink) (*pipeline.Processor, *observability.Metrics) {
	metrics := observability.NewMetricsForTesting()
	tr := domain.NewTranslator(domain.DefaultTranslatorConfig())
	return pipeline.New(tr, sinks, "ecowitt", slog.Default(), metrics), metrics
}

// --- tests ---

func TestProcessor_Process_HappyPath(t *testing.T) {
	fixed := time.Date(2024, 4, 26, 15, 10, 0, 0, time.UTC)
	domain.SetClock(clockwork.NewFakeClockAt(fixed))
	t.Cleanup(func() { domain.SetClock(nil) })

	sink := &mockSink{name: "kafka"}
	p, metrics := newTestProcessor(sink)

	batch, err := p.Process(context.Background(), domain.FieldSet{
		"tempinf":      "68",
		"windspeedmph": "10",
	})
	require.NoError(t, err)

	expected := domain.Batch{
		{Path: domain.PathInsideTemperature, Value: 293},
		{Path: domain.PathWindSpeedTrue, Value: 4.47},
	}
	if diff := cmp.Diff(expected, batch); diff != "" {
		t.Fatalf("batch mismatch (-want +got):\n%s", diff)
	}

	require.Len(t, sink.deltas, 1)
	update := sink.deltas[0].Updates[0]
	assert.Equal(t, "ecowitt", update.Source)
	assert.Equal(t, fixed, update.Timestamp)
	assert.Equal(t, expected, update.Values)

	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReportsReceived), 0)
	assert.InDelta(t, 2, testutil.ToFloat64(metrics.ObservationsEmitted), 0)
}

func TestProcessor_Process_EmptyBatchNotPublished(t *testing.T) {
	sink := &mockSink{name: "stream"}
	p, metrics := newTestProcessor(sink)

	batch, err := p.Process(context.Background(), domain.FieldSet{"PASSKEY": "abc"})
	require.NoError(t, err)
	assert.Empty(t, batch)
	assert.Empty(t, sink.deltas)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.ReportsReceived), 0)
}

func TestProcessor_Process_SinkFailureIsolated(t *testing.T) {
	failing := &mockSink{name: "mqtt", err: errors.New("broker unreachable")}
	healthy := &mockSink{name: "stream"}
	p, metrics := newTestProcessor(failing, healthy)

	batch, err := p.Process(context.Background(), domain.FieldSet{"tempinf": "68"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "mqtt sink")
	assert.Contains(t, err.Error(), "broker unreachable")
	assert.Len(t, batch, 1)

	assert.Len(t, failing.deltas, 1, "one attempt, no retry")
	assert.Len(t, healthy.deltas, 1)
	assert.InDelta(t, 1, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues("mqtt")), 0)
	assert.InDelta(t, 0, testutil.ToFloat64(metrics.PublishErrors.WithLabelValues("stream")), 0)
}

func TestProcessor_Process_JoinsAllFailures(t *testing.T) {
	a := &mockSink{name: "kafka", err: errors.New("a")}
	b := &mockSink{name: "mqtt", err: errors.New("b")}
	p, _ := newTestProcessor(a, b)

	_, err := p.Process(context.Background(), domain.FieldSet{"tempinf": "68"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "kafka sink: a")
	assert.Contains(t, err.Error(), "mqtt sink: b")
}

func TestProcessor_Process_Independent(t *testing.T) {
	sink := &mockSink{name: "log"}
	p, _ := newTestProcessor(sink)
	fields := domain.FieldSet{"tempinf": "68", "humidityin": "50", "winddir": "180"}

	first, err := p.Process(context.Background(), fields)
	require.NoError(t, err)
	second, err := p.Process(context.Background(), fields)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	require.Len(t, sink.deltas, 2)
	assert.Equal(t, sink.deltas[0].Updates[0].Values, sink.deltas[1].Updates[0].Values)
}

func TestProcessor_CheckReadiness(t *testing.T) {
	t.Run("no reporting sinks", func(t *testing.T) {
		p, _ := newTestProcessor(&mockSink{name: "log"})
		assert.NoError(t, p.CheckReadiness(context.Background()))
	})

	t.Run("ready", func(t *testing.T) {
		p, _ := newTestProcessor(&readySink{mockSink{name: "mqtt"}})
		assert.NoError(t, p.CheckReadiness(context.Background()))
	})

	t.Run("not ready", func(t *testing.T) {
		p, _ := newTestProcessor(
			&mockSink{name: "log"},
			&readySink{mockSink{name: "mqtt", readyErr: errors.New("not connected")}},
		)
		err := p.CheckReadiness(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "mqtt sink not ready")
	})
}
