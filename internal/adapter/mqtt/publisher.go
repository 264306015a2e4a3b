package mqtt

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cenkalti/backoff/v4"
	pahomqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/couchcryptid/ecowitt-bridge/internal/config"
	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
)

const (
	connectTimeout    = 5 * time.Second
	connectMaxElapsed = 30 * time.Second
	disconnectQuiesce = 250 // ms
)

// Publisher publishes deltas to an MQTT topic at QoS 0.
// It implements pipeline.Sink.
type Publisher struct {
	client pahomqtt.Client
	topic  string
	logger *slog.Logger
}

// Connect dials the configured broker, retrying with exponential backoff
// until the broker accepts or ctx is done. Retries happen only here; a
// publish is never retried.
func Connect(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Publisher, error) {
	opts := pahomqtt.NewClientOptions().
		AddBroker(cfg.MQTTBroker).
		SetClientID(cfg.MQTTClientID).
		SetCleanSession(true).
		SetAutoReconnect(true).
		SetConnectTimeout(connectTimeout).
		SetConnectionLostHandler(func(_ pahomqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "broker", cfg.MQTTBroker, "error", err)
		}).
		SetOnConnectHandler(func(_ pahomqtt.Client) {
			logger.Info("mqtt connected", "broker", cfg.MQTTBroker)
		})

	client := pahomqtt.NewClient(opts)

	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = connectMaxElapsed

	err := backoff.Retry(func() error {
		token := client.Connect()
		if !token.WaitTimeout(connectTimeout) {
			return errors.New("connect timed out")
		}
		if err := token.Error(); err != nil {
			logger.Warn("mqtt connect failed, retrying", "broker", cfg.MQTTBroker, "error", err)
			return err
		}
		return nil
	}, backoff.WithContext(bo, ctx))
	if err != nil {
		return nil, fmt.Errorf("connect mqtt broker %s: %w", cfg.MQTTBroker, err)
	}

	return NewPublisher(client, cfg.MQTTTopic, logger), nil
}

// NewPublisher wraps an already connected client.
func NewPublisher(client pahomqtt.Client, topic string, logger *slog.Logger) *Publisher {
	return &Publisher{client: client, topic: topic, logger: logger}
}

func (p *Publisher) Name() string { return config.SinkMQTT }

// Publish sends the encoded delta once and waits for the client to hand it off.
func (p *Publisher) Publish(ctx context.Context, delta domain.Delta) error {
	data, err := domain.EncodeDelta(delta)
	if err != nil {
		return err
	}

	token := p.client.Publish(p.topic, 0, false, data)
	select {
	case <-token.Done():
		if err := token.Error(); err != nil {
			return fmt.Errorf("publish to %s: %w", p.topic, err)
		}
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// CheckReadiness reports whether the broker connection is up.
func (p *Publisher) CheckReadiness(_ context.Context) error {
	if !p.client.IsConnectionOpen() {
		return errors.New("mqtt broker not connected")
	}
	return nil
}

// Close disconnects from the broker.
func (p *Publisher) Close() error {
	if p.client.IsConnected() {
		p.client.Disconnect(disconnectQuiesce)
		p.logger.Info("mqtt client disconnected")
	}
	return nil
}
