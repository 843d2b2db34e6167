package events

import (
	"fmt"
	"log/slog"
	"strings"
	"time"
)

// SinkConfig selects and configures the publishers behind a Fanout.
type SinkConfig struct {
	Sinks             []string
	Timeout           time.Duration
	NATSURL           string
	NATSSubjectPrefix string
	KafkaBrokers      []string
	KafkaTopic        string
	PostHogAPIKey     string
	PostHogHost       string
}

// Build connects every named sink. The returned close func releases broker
// connections and is safe to call when Build failed.
func Build(cfg SinkConfig, logger *slog.Logger) (*Fanout, func(), error) {
	f := NewFanout()
	f.Timeout = cfg.Timeout
	var closers []func()
	closeAll := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	for _, name := range cfg.Sinks {
		switch strings.ToLower(name) {
		case "log":
			f.Add("log", LogPublisher{Logger: logger})
		case "nats":
			if cfg.NATSURL == "" {
				closeAll()
				return nil, func() {}, fmt.Errorf("events: nats sink needs EVENTS_NATS_URL")
			}
			p, err := NewNATSPublisher(cfg.NATSURL, cfg.NATSSubjectPrefix)
			if err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("events: nats: %w", err)
			}
			closers = append(closers, p.Close)
			f.Add("nats", p)
		case "kafka":
			if len(cfg.KafkaBrokers) == 0 {
				closeAll()
				return nil, func() {}, fmt.Errorf("events: kafka sink needs EVENTS_KAFKA_BROKERS")
			}
			p, err := NewKafkaPublisher(cfg.KafkaBrokers, cfg.KafkaTopic)
			if err != nil {
				closeAll()
				return nil, func() {}, fmt.Errorf("events: kafka: %w", err)
			}
			closers = append(closers, p.Close)
			f.Add("kafka", p)
		case "posthog":
			if cfg.PostHogAPIKey == "" {
				closeAll()
				return nil, func() {}, fmt.Errorf("events: posthog sink needs EVENTS_POSTHOG_API_KEY")
			}
			f.Add("posthog", NewPostHogPublisher(cfg.PostHogAPIKey, cfg.PostHogHost, cfg.Timeout))
		case "none":
		default:
			closeAll()
			return nil, func() {}, fmt.Errorf("events: unknown sink %q", name)
		}
	}
	return f, closeAll, nil
}
