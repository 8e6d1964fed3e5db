package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

const envPrefix = "FRONTCTL_"

// envOverrides lists the settings that can be overridden from the
// environment, e.g. FRONTCTL_QUEUE_CAPACITY=50. Fields start from the
// file's values; env only replaces those whose variable is set.
type envOverrides struct {
	LogLevel       string        `env:"LOG_LEVEL"`
	LogFormat      string        `env:"LOG_FORMAT"`
	QueueCapacity  int           `env:"QUEUE_CAPACITY"`
	CommandTimeout time.Duration `env:"COMMAND_TIMEOUT"`
	StatePath      string        `env:"STATE_PATH"`
	JournalEnabled bool          `env:"JOURNAL_ENABLED"`
	JournalPath    string        `env:"JOURNAL_PATH"`
	APIEnabled     bool          `env:"API_ENABLED"`
	APIListen      string        `env:"API_LISTEN"`
	APIKey         string        `env:"API_KEY"`
	NATSEnabled    bool          `env:"NATS_ENABLED"`
	NATSURL        string        `env:"NATS_URL"`
	OTLPEnabled    bool          `env:"TELEMETRY_ENABLED"`
	OTLPEndpoint   string        `env:"TELEMETRY_ENDPOINT"`
	WebhookListen  string        `env:"WEBHOOKS_LISTEN"`
}

func applyEnvOverrides(cfg *Config) error {
	o := envOverrides{
		LogLevel:       cfg.Service.LogLevel,
		LogFormat:      cfg.Service.LogFormat,
		QueueCapacity:  cfg.Dispatcher.QueueCapacity,
		CommandTimeout: cfg.Dispatcher.CommandTimeout,
		StatePath:      cfg.State.Path,
		JournalEnabled: cfg.Journal.Enabled,
		JournalPath:    cfg.Journal.Path,
		APIEnabled:     cfg.API.Enabled,
		APIListen:      cfg.API.Listen,
		APIKey:         cfg.API.APIKey,
		NATSEnabled:    cfg.NATS.Enabled,
		NATSURL:        cfg.NATS.URL,
		OTLPEnabled:    cfg.Telemetry.Enabled,
		OTLPEndpoint:   cfg.Telemetry.Endpoint,
		WebhookListen:  cfg.Webhooks.Listen,
	}
	if err := env.ParseWithOptions(&o, env.Options{Prefix: envPrefix}); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}

	cfg.Service.LogLevel = o.LogLevel
	cfg.Service.LogFormat = o.LogFormat
	cfg.Dispatcher.QueueCapacity = o.QueueCapacity
	cfg.Dispatcher.CommandTimeout = o.CommandTimeout
	cfg.State.Path = o.StatePath
	cfg.Journal.Enabled = o.JournalEnabled
	cfg.Journal.Path = o.JournalPath
	cfg.API.Enabled = o.APIEnabled
	cfg.API.Listen = o.APIListen
	cfg.API.APIKey = o.APIKey
	cfg.NATS.Enabled = o.NATSEnabled
	cfg.NATS.URL = o.NATSURL
	cfg.Telemetry.Enabled = o.OTLPEnabled
	cfg.Telemetry.Endpoint = o.OTLPEndpoint
	cfg.Webhooks.Listen = o.WebhookListen
	return nil
}
