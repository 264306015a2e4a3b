package logsink

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/ecowitt-bridge/internal/config"
	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
)

// Sink writes every delta to the logger, one attribute per observation.
// It implements pipeline.Sink.
type Sink struct {
	logger *slog.Logger
}

func New(logger *slog.Logger) *Sink {
	return &Sink{logger: logger}
}

func (s *Sink) Name() string { return config.SinkLog }

func (s *Sink) Publish(ctx context.Context, delta domain.Delta) error {
	for _, u := range delta.Updates {
		attrs := make([]slog.Attr, 0, len(u.Values)+2)
		attrs = append(attrs,
			slog.String("source", u.Source),
			slog.Time("timestamp", u.Timestamp),
		)
		for _, o := range u.Values {
			attrs = append(attrs, slog.Float64(o.Path, o.Value))
		}
		s.logger.LogAttrs(ctx, slog.LevelInfo, "delta", attrs...)
	}
	return nil
}
