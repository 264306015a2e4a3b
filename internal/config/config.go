package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/ecowitt-bridge/internal/domain"
)

// Sink names accepted by SINKS.
const (
	SinkKafka  = "kafka"
	SinkMQTT   = "mqtt"
	SinkStream = "stream"
	SinkLog    = "log"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	Port            int
	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Translation settings.
	Translator  domain.TranslatorConfig
	SourceLabel string

	// Enabled sinks, in publish order.
	Sinks []string

	KafkaBrokers   []string
	KafkaSinkTopic string

	MQTTBroker   string
	MQTTTopic    string
	MQTTClientID string
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is honored but never overrides the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	port, err := parsePort()
	if err != nil {
		return nil, err
	}

	windTrue, err := parseBool("WIND_TRUE", true)
	if err != nil {
		return nil, err
	}

	sinks, err := parseSinks(sharedcfg.EnvOrDefault("SINKS", SinkStream))
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Port:            port,
		HTTPAddr:        fmt.Sprintf(":%d", port),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		Translator:  translatorConfig(windTrue),
		SourceLabel: sharedcfg.EnvOrDefault("SOURCE_LABEL", "ecowitt"),

		Sinks: sinks,

		KafkaBrokers:   sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSinkTopic: sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "signalk-deltas"),

		MQTTBroker:   sharedcfg.EnvOrDefault("MQTT_BROKER", "tcp://localhost:1883"),
		MQTTTopic:    sharedcfg.EnvOrDefault("MQTT_TOPIC", "signalk/delta"),
		MQTTClientID: sharedcfg.EnvOrDefault("MQTT_CLIENT_ID", "ecowitt-bridge"),
	}

	if cfg.HasSink(SinkKafka) {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required when the kafka sink is enabled")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("KAFKA_SINK_TOPIC is required when the kafka sink is enabled")
		}
	}
	if cfg.HasSink(SinkMQTT) && (cfg.MQTTBroker == "" || cfg.MQTTTopic == "") {
		return nil, errors.New("MQTT_BROKER and MQTT_TOPIC are required when the mqtt sink is enabled")
	}

	return cfg, nil
}

// HasSink reports whether the named sink is enabled.
func (c *Config) HasSink(name string) bool {
	for _, s := range c.Sinks {
		if s == name {
			return true
		}
	}
	return false
}

func parsePort() (int, error) {
	s := sharedcfg.EnvOrDefault("PORT", "1923")
	port, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || port < 1 || port > 65535 {
		return 0, fmt.Errorf("invalid PORT %q: must be 1-65535", s)
	}
	return port, nil
}

func parseBool(key string, def bool) (bool, error) {
	s, ok := os.LookupEnv(key)
	if !ok || strings.TrimSpace(s) == "" {
		return def, nil
	}
	v, err := strconv.ParseBool(strings.TrimSpace(s))
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return v, nil
}

func parseSinks(s string) ([]string, error) {
	var sinks []string
	seen := make(map[string]bool)
	for _, part := range strings.Split(s, ",") {
		name := strings.ToLower(strings.TrimSpace(part))
		if name == "" || seen[name] {
			continue
		}
		switch name {
		case SinkKafka, SinkMQTT, SinkStream, SinkLog:
		default:
			return nil, fmt.Errorf("invalid SINKS entry %q", name)
		}
		seen[name] = true
		sinks = append(sinks, name)
	}
	if len(sinks) == 0 {
		return nil, errors.New("SINKS must name at least one sink")
	}
	return sinks, nil
}

// translatorConfig starts from the plugin defaults and applies CHANNEL<n>_* overrides.
// A variable that is set but empty clears the default path.
func translatorConfig(windTrue bool) domain.TranslatorConfig {
	tc := domain.DefaultTranslatorConfig()
	tc.WindTrue = windTrue

	for i := range tc.Channels {
		prefix := fmt.Sprintf("CHANNEL%d_", i+1)
		ch := &tc.Channels[i]
		ch.TemperaturePath = lookupOrDefault(prefix+"TEMPERATURE_PATH", ch.TemperaturePath)
		ch.HumidityPath = lookupOrDefault(prefix+"HUMIDITY_PATH", ch.HumidityPath)
		ch.HeatIndexPath = lookupOrDefault(prefix+"HEAT_INDEX_PATH", ch.HeatIndexPath)
	}

	if s, ok := os.LookupEnv("INTEGRATED_MODEL_PREFIXES"); ok {
		tc.IntegratedModelPrefixes = splitList(s)
	}
	return tc
}

func lookupOrDefault(key, def string) string {
	if v, ok := os.LookupEnv(key); ok {
		return strings.TrimSpace(v)
	}
	return def
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
