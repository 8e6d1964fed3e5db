package config

import "time"

// Config represents the complete frontctl configuration.
type Config struct {
	Service    ServiceConfig    `yaml:"service"`
	Dispatcher DispatcherConfig `yaml:"dispatcher"`
	Journal    JournalConfig    `yaml:"journal"`
	State      StateConfig      `yaml:"state"`
	API        APIConfig        `yaml:"api,omitempty"`
	Schedules  []ScheduleConfig `yaml:"schedules,omitempty"`
	NATS       NATSConfig       `yaml:"nats,omitempty"`
	Telemetry  TelemetryConfig  `yaml:"telemetry,omitempty"`
	Webhooks   WebhooksConfig   `yaml:"webhooks,omitempty"`

	// SourcePath is the absolute path the config was loaded from.
	SourcePath string `yaml:"-"`
}

// ServiceConfig defines core service settings.
type ServiceConfig struct {
	Name      string `yaml:"name"`
	LogLevel  string `yaml:"log_level"`
	LogFormat string `yaml:"log_format"`
}

// DispatcherConfig sizes the event queue and bounds command run time.
type DispatcherConfig struct {
	QueueCapacity int `yaml:"queue_capacity"`
	// CommandTimeout applies to every command without a more specific
	// timeout. Zero disables it.
	CommandTimeout time.Duration            `yaml:"command_timeout"`
	Timeouts       map[string]time.Duration `yaml:"timeouts,omitempty"`
}

// JournalConfig controls the SQLite command journal.
type JournalConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// StateConfig defines state storage settings.
type StateConfig struct {
	Path string `yaml:"path"`
}

// APIConfig defines HTTP API server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
	// APIKey is the bearer token required on every route except /healthz.
	// Empty disables auth.
	APIKey string `yaml:"api_key"`
	// WaitTimeout caps how long ?wait=true blocks for a response.
	WaitTimeout time.Duration `yaml:"wait_timeout"`
}

// ScheduleConfig submits Command every interval.
type ScheduleConfig struct {
	Name    string         `yaml:"name"`
	Command string         `yaml:"command"`
	Every   string         `yaml:"every"` // e.g., "30s", "5m", "hourly"
	Jitter  time.Duration  `yaml:"jitter,omitempty"`
	Params  map[string]any `yaml:"params,omitempty"`
}

// NATSConfig configures the notification bridge.
type NATSConfig struct {
	Enabled       bool   `yaml:"enabled"`
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

// TelemetryConfig configures OTLP trace export.
type TelemetryConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Endpoint string `yaml:"endpoint"`
}

// WebhooksConfig defines the signed inbound webhook listener. No endpoints
// means no listener.
type WebhooksConfig struct {
	Listen    string            `yaml:"listen"`
	Endpoints []WebhookEndpoint `yaml:"endpoints,omitempty"`
}

// WebhookEndpoint maps one POST path onto a command.
type WebhookEndpoint struct {
	Path            string `yaml:"path"`
	Command         string `yaml:"command"`
	Secret          string `yaml:"secret"` // HMAC-SHA256 key, usually ${VAR}
	SignatureHeader string `yaml:"signature_header"`
	MaxBodySize     string `yaml:"max_body_size,omitempty"` // e.g. "1MB", "4096"
}

// ChecksumManifest is the on-disk format of .checksums.
type ChecksumManifest struct {
	Version     int               `yaml:"version"`
	GeneratedAt string            `yaml:"generated_at"`
	Hashes      map[string]string `yaml:"hashes"`
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:      "frontctl",
			LogLevel:  "info",
			LogFormat: "json",
		},
		Dispatcher: DispatcherConfig{
			QueueCapacity: 1000,
		},
		Journal: JournalConfig{
			Enabled: true,
			Path:    "./data/journal.db",
		},
		State: StateConfig{
			Path: "./data/state.db",
		},
		API: APIConfig{
			Enabled:     false,
			Listen:      "127.0.0.1:8080",
			WaitTimeout: 30 * time.Second,
		},
		NATS: NATSConfig{
			URL:           "nats://127.0.0.1:4222",
			SubjectPrefix: "frontctl",
		},
		Telemetry: TelemetryConfig{
			Endpoint: "http://127.0.0.1:4318",
		},
		Webhooks: WebhooksConfig{
			Listen: "127.0.0.1:8081",
		},
	}
}
