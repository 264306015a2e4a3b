package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
	"github.com/couchcryptid/ecowitt-bridge/internal/observability"
)

// Translator converts one decoded upload into an observation batch.
type Translator interface {
	Translate(fields domain.FieldSet) domain.Batch
}

// Sink delivers a delta to a host data bus.
type Sink interface {
	Name() string
	Publish(ctx context.Context, delta domain.Delta) error
}

// ReadinessReporter is implemented by sinks that hold a connection.
type ReadinessReporter interface {
	CheckReadiness(ctx context.Context) error
}

// Processor translates uploads and fans the result out to every sink.
// Each sink gets exactly one attempt per upload.
type Processor struct {
	translator Translator
	sinks      []Sink
	source     string
	logger     *slog.Logger
	metrics    *observability.Metrics
}

// New creates a Processor. source labels the emitted deltas.
func New(t Translator, sinks []Sink, source string, logger *slog.Logger, metrics *observability.Metrics) *Processor {
	return &Processor{
		translator: t,
		sinks:      sinks,
		source:     source,
		logger:     logger,
		metrics:    metrics,
	}
}

// Process translates fields and publishes the batch. A sink failure does not
// stop delivery to the remaining sinks; all failures are returned joined.
// An empty batch is not published.
func (p *Processor) Process(ctx context.Context, fields domain.FieldSet) (domain.Batch, error) {
	batch := p.translator.Translate(fields)

	p.metrics.ReportsReceived.Inc()
	p.metrics.BatchSize.Observe(float64(len(batch)))
	p.metrics.ObservationsEmitted.Add(float64(len(batch)))

	if len(batch) == 0 {
		p.logger.Debug("report produced no observations", "fields", len(fields))
		return batch, nil
	}

	delta := domain.NewDelta(p.source, batch)

	var errs []error
	for _, sink := range p.sinks {
		if err := p.publish(ctx, sink, delta); err != nil {
			errs = append(errs, err)
		}
	}

	p.logger.Debug("report translated",
		"fields", len(fields),
		"observations", len(batch),
		"sinks", len(p.sinks),
		"failed_sinks", len(errs),
	)
	return batch, errors.Join(errs...)
}

func (p *Processor) publish(ctx context.Context, sink Sink, delta domain.Delta) error {
	start := time.Now()
	err := sink.Publish(ctx, delta)
	p.metrics.PublishDuration.WithLabelValues(sink.Name()).Observe(time.Since(start).Seconds())
	if err != nil {
		p.metrics.PublishErrors.WithLabelValues(sink.Name()).Inc()
		p.logger.Warn("publish delta failed", "sink", sink.Name(), "observations", delta.Len(), "error", err)
		return fmt.Errorf("%s sink: %w", sink.Name(), err)
	}
	return nil
}

// CheckReadiness returns nil when every connection-holding sink is ready.
func (p *Processor) CheckReadiness(ctx context.Context) error {
	for _, sink := range p.sinks {
		r, ok := sink.(ReadinessReporter)
		if !ok {
			continue
		}
		if err := r.CheckReadiness(ctx); err != nil {
			return fmt.Errorf("%s sink not ready: %w", sink.Name(), err)
		}
	}
	return nil
}
