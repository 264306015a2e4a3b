package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/ecowitt-bridge/internal/config"
	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
)

// messageWriter is the subset of *kafkago.Writer the sink uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafkago.Message) error
	Close() error
}

// Writer publishes deltas to a Kafka topic.
// It implements pipeline.Sink.
type Writer struct {
	writer messageWriter
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
		// One message per upload; don't hold the request for the default 1s batch window.
		BatchTimeout: 10 * time.Millisecond,
		WriteTimeout: 5 * time.Second,
	}
	return &Writer{writer: w, logger: logger}
}

func (w *Writer) Name() string { return config.SinkKafka }

// Publish writes delta as a single message. It does not retry.
func (w *Writer) Publish(ctx context.Context, delta domain.Delta) error {
	msg, err := serializeToMessage(delta)
	if err != nil {
		return err
	}
	return w.writer.WriteMessages(ctx, msg)
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage encodes a delta into a Kafka message keyed by its source
// so one station's updates stay on one partition.
func serializeToMessage(delta domain.Delta) (kafkago.Message, error) {
	data, err := domain.EncodeDelta(delta)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize delta: %w", err)
	}

	var source string
	var ts time.Time
	if len(delta.Updates) > 0 {
		source = delta.Updates[0].Source
		ts = delta.Updates[0].Timestamp
	}

	return kafkago.Message{
		Key:   []byte(source),
		Value: data,
		Time:  ts,
		Headers: []kafkago.Header{
			{Key: "source", Value: []byte(source)},
			{Key: "observation_count", Value: []byte(strconv.Itoa(delta.Len()))},
			{Key: "published_at", Value: []byte(ts.Format(time.RFC3339))},
		},
	}, nil
}
