package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/ecowitt-bridge/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/ecowitt-bridge/internal/adapter/kafka"
	"github.com/couchcryptid/ecowitt-bridge/internal/adapter/logsink"
	mqttadapter "github.com/couchcryptid/ecowitt-bridge/internal/adapter/mqtt"
	"github.com/couchcryptid/ecowitt-bridge/internal/adapter/stream"
	"github.com/couchcryptid/ecowitt-bridge/internal/config"
	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
	"github.com/couchcryptid/ecowitt-bridge/internal/observability"
	"github.com/couchcryptid/ecowitt-bridge/internal/pipeline"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sinks, closers, hub, err := buildSinks(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to initialize sinks", "error", err)
		os.Exit(1)
	}

	translator := domain.NewTranslator(cfg.Translator)
	processor := pipeline.New(translator, sinks, cfg.SourceLabel, logger, metrics)

	// A nil *stream.Hub must not become a non-nil http.Handler.
	var streamHandler http.Handler
	if hub != nil {
		streamHandler = hub
	}
	srv := httpadapter.NewServer(cfg.HTTPAddr, processor, processor, streamHandler, logger, metrics)

	logger.Info("translator configured",
		"wind_true", cfg.Translator.WindTrue,
		"integrated_models", cfg.Translator.IntegratedModelPrefixes,
		"sinks", cfg.Sinks,
	)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("sink close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// buildSinks constructs the configured sinks in SINKS order. The stream hub is
// returned separately so the HTTP server can mount it.
func buildSinks(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) ([]pipeline.Sink, []io.Closer, *stream.Hub, error) {
	var (
		sinks   []pipeline.Sink
		closers []io.Closer
		hub     *stream.Hub
	)

	for _, name := range cfg.Sinks {
		switch name {
		case config.SinkKafka:
			w := kafkaadapter.NewWriter(cfg, logger)
			sinks = append(sinks, w)
			closers = append(closers, w)
			logger.Info("kafka sink enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSinkTopic)
		case config.SinkMQTT:
			p, err := mqttadapter.Connect(ctx, cfg, logger)
			if err != nil {
				for _, c := range closers {
					_ = c.Close()
				}
				return nil, nil, nil, err
			}
			sinks = append(sinks, p)
			closers = append(closers, p)
			logger.Info("mqtt sink enabled", "broker", cfg.MQTTBroker, "topic", cfg.MQTTTopic)
		case config.SinkStream:
			hub = stream.NewHub(metrics.StreamClients, logger)
			sinks = append(sinks, hub)
			closers = append(closers, hub)
			logger.Info("stream sink enabled", "path", "/stream")
		case config.SinkLog:
			sinks = append(sinks, logsink.New(logger))
			logger.Info("log sink enabled")
		}
	}

	return sinks, closers, hub, nil
}
