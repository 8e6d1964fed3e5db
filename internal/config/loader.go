package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	maxQueueCapacity = 1 << 20

	DefaultMaxBodySize     = 1 << 20
	DefaultSignatureHeader = "X-Hub-Signature-256"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads and parses configuration from a file, or from config.yaml when
// configPath is a directory.
//
// Order of precedence, lowest first: Defaults, the YAML file (with ${VAR}
// interpolation), FRONTCTL_* environment overrides. When a .checksums
// manifest sits next to the file, the file must match its recorded hash.
func Load(configPath string) (*Config, error) {
	absPath, err := ResolvePath(configPath)
	if err != nil {
		return nil, err
	}

	if err := verifyConfigHash(absPath); err != nil {
		return nil, err
	}

	cfg, err := loadConfigFile(absPath)
	if err != nil {
		return nil, err
	}
	cfg.SourcePath = absPath

	if err := applyEnvOverrides(cfg); err != nil {
		return nil, err
	}
	cfg = applyConfigDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// ResolvePath returns the absolute config file path for configPath.
func ResolvePath(configPath string) (string, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return "", fmt.Errorf("config file not found: %s\n"+
			"Hint: Check the path or run with --config flag", absPath)
	}

	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return "", fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}
	return absPath, nil
}

// DiscoverConfigPath finds a config file by checking standard locations.
// Priority order: $FRONTCTL_CONFIG, ~/.config/frontctl/config.yaml,
// /etc/frontctl/config.yaml, ./config.yaml.
func DiscoverConfigPath() (string, error) {
	if p := os.Getenv("FRONTCTL_CONFIG"); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}

	var candidates []string
	if homeDir, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(homeDir, ".config", "frontctl", "config.yaml"))
	}
	candidates = append(candidates, "/etc/frontctl/config.yaml", "./config.yaml")

	for _, c := range candidates {
		if _, err := os.Stat(c); err == nil {
			return c, nil
		}
	}
	return "", fmt.Errorf("no config found (checked: $FRONTCTL_CONFIG, %s)", strings.Join(candidates, ", "))
}

// loadConfigFile reads a YAML file over Defaults.
func loadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	cfg := Defaults()
	if err := yaml.Unmarshal([]byte(interpolated), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}
	return cfg, nil
}

// verifyConfigHash checks path against the .checksums manifest in its
// directory. A missing manifest skips verification.
func verifyConfigHash(path string) error {
	dir := filepath.Dir(path)
	checksums, err := LoadChecksums(dir)
	if errors.Is(err, ErrNoChecksums) {
		return nil
	}
	if err != nil {
		return err
	}

	basename := filepath.Base(path)
	expectedHash, ok := checksums.Hashes[basename]
	if !ok {
		return fmt.Errorf("config file %s has no hash in checksums at %s\n"+
			"Run: frontctl config lock --config %s", basename, dir, path)
	}

	if err := VerifyFileHash(path, expectedHash); err != nil {
		return fmt.Errorf("config verification failed for %s: %w\n"+
			"This indicates tampering or unauthorized modification.\n"+
			"If you edited this file intentionally, run: frontctl config lock --config %s", path, err, path)
	}
	return nil
}

// applyConfigDefaults fills values a file explicitly blanked.
func applyConfigDefaults(cfg *Config) *Config {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.LogFormat == "" {
		cfg.Service.LogFormat = defaults.Service.LogFormat
	}
	cfg.Service.LogLevel = strings.ToLower(cfg.Service.LogLevel)

	if cfg.Dispatcher.QueueCapacity == 0 {
		cfg.Dispatcher.QueueCapacity = defaults.Dispatcher.QueueCapacity
	}
	if cfg.State.Path == "" {
		cfg.State.Path = defaults.State.Path
	}
	if cfg.Journal.Path == "" {
		cfg.Journal.Path = defaults.Journal.Path
	}
	if cfg.API.Listen == "" {
		cfg.API.Listen = defaults.API.Listen
	}
	if cfg.API.WaitTimeout == 0 {
		cfg.API.WaitTimeout = defaults.API.WaitTimeout
	}
	if cfg.NATS.SubjectPrefix == "" {
		cfg.NATS.SubjectPrefix = defaults.NATS.SubjectPrefix
	}

	if cfg.Webhooks.Listen == "" {
		cfg.Webhooks.Listen = defaults.Webhooks.Listen
	}
	for i := range cfg.Webhooks.Endpoints {
		if cfg.Webhooks.Endpoints[i].SignatureHeader == "" {
			cfg.Webhooks.Endpoints[i].SignatureHeader = DefaultSignatureHeader
		}
	}

	for i := range cfg.Schedules {
		if cfg.Schedules[i].Name == "" {
			cfg.Schedules[i].Name = cfg.Schedules[i].Command
		}
	}
	return cfg
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		// Left in place; validate reports it where it matters.
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}
	if cfg.Service.LogFormat != "json" && cfg.Service.LogFormat != "text" {
		return fmt.Errorf("service.log_format must be json or text (got %q)", cfg.Service.LogFormat)
	}

	if cfg.Dispatcher.QueueCapacity < 1 || cfg.Dispatcher.QueueCapacity > maxQueueCapacity {
		return fmt.Errorf("dispatcher.queue_capacity must be between 1 and %d (got %d)", maxQueueCapacity, cfg.Dispatcher.QueueCapacity)
	}
	if cfg.Dispatcher.CommandTimeout < 0 {
		return fmt.Errorf("dispatcher.command_timeout must not be negative")
	}
	for name, d := range cfg.Dispatcher.Timeouts {
		if d <= 0 {
			return fmt.Errorf("dispatcher.timeouts.%s must be positive", name)
		}
	}

	if cfg.State.Path == "" {
		return fmt.Errorf("state.path is required")
	}
	if cfg.Journal.Enabled && cfg.Journal.Path == "" {
		return fmt.Errorf("journal.path is required when the journal is enabled")
	}

	if cfg.API.Enabled {
		if cfg.API.Listen == "" {
			return fmt.Errorf("api.listen is required when the API is enabled")
		}
		if err := unresolved("api.api_key", cfg.API.APIKey); err != nil {
			return err
		}
	}

	seen := make(map[string]bool, len(cfg.Schedules))
	for i, s := range cfg.Schedules {
		if s.Command == "" {
			return fmt.Errorf("schedules[%d].command is required", i)
		}
		if seen[s.Name] {
			return fmt.Errorf("schedules[%d]: duplicate schedule name %q", i, s.Name)
		}
		seen[s.Name] = true
		if _, err := ParseInterval(s.Every); err != nil {
			return fmt.Errorf("schedule %q: %w", s.Name, err)
		}
		if s.Jitter < 0 {
			return fmt.Errorf("schedule %q: jitter must not be negative", s.Name)
		}
		if err := checkUnresolvedEnvVars(s.Params, s.Name); err != nil {
			return err
		}
	}

	if cfg.NATS.Enabled {
		if cfg.NATS.URL == "" {
			return fmt.Errorf("nats.url is required when the NATS bridge is enabled")
		}
		if err := unresolved("nats.url", cfg.NATS.URL); err != nil {
			return err
		}
	}
	if cfg.Telemetry.Enabled && cfg.Telemetry.Endpoint == "" {
		return fmt.Errorf("telemetry.endpoint is required when telemetry is enabled")
	}
	return validateWebhooks(cfg.Webhooks)
}

func validateWebhooks(wc WebhooksConfig) error {
	if len(wc.Endpoints) == 0 {
		return nil
	}
	if wc.Listen == "" {
		return fmt.Errorf("webhooks.listen is required when endpoints are configured")
	}
	seen := make(map[string]bool, len(wc.Endpoints))
	for i, ep := range wc.Endpoints {
		field := fmt.Sprintf("webhooks.endpoints[%d]", i)
		if !strings.HasPrefix(ep.Path, "/") {
			return fmt.Errorf("%s.path must start with '/' (got %q)", field, ep.Path)
		}
		normalized := strings.TrimSuffix(ep.Path, "/")
		if seen[normalized] {
			return fmt.Errorf("%s: duplicate webhook path %q", field, ep.Path)
		}
		seen[normalized] = true
		if ep.Command == "" {
			return fmt.Errorf("%s.command is required", field)
		}
		if ep.Secret == "" {
			return fmt.Errorf("%s.secret is required", field)
		}
		if err := unresolved(field+".secret", ep.Secret); err != nil {
			return err
		}
		if _, err := ParseByteSize(ep.MaxBodySize); err != nil {
			return fmt.Errorf("%s.max_body_size: %w", field, err)
		}
	}
	return nil
}

func unresolved(field, value string) error {
	if matches := envVarPattern.FindStringSubmatch(value); len(matches) > 1 {
		return fmt.Errorf("%s: environment variable ${%s} is not set", field, matches[1])
	}
	return nil
}

// checkUnresolvedEnvVars recursively checks for ${VAR} placeholders in
// schedule params.
func checkUnresolvedEnvVars(data map[string]any, scheduleName string) error {
	for key, value := range data {
		switch v := value.(type) {
		case string:
			if matches := envVarPattern.FindStringSubmatch(v); len(matches) > 1 {
				return fmt.Errorf("schedule %q: environment variable ${%s} is not set (params.%s)", scheduleName, matches[1], key)
			}
		case map[string]any:
			if err := checkUnresolvedEnvVars(v, scheduleName); err != nil {
				return err
			}
		}
	}
	return nil
}

// ParseByteSize parses sizes like "1MB", "512KB" or "2048". Empty means
// DefaultMaxBodySize.
func ParseByteSize(size string) (int64, error) {
	if size == "" {
		return DefaultMaxBodySize, nil
	}

	upper := strings.ToUpper(strings.TrimSpace(size))
	multiplier := int64(1)
	for _, unit := range []struct {
		suffix string
		mult   int64
	}{{"KB", 1 << 10}, {"MB", 1 << 20}, {"GB", 1 << 30}} {
		if strings.HasSuffix(upper, unit.suffix) {
			multiplier = unit.mult
			upper = strings.TrimSuffix(upper, unit.suffix)
			break
		}
	}

	value, err := strconv.ParseInt(strings.TrimSpace(upper), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid size value %q: %w", size, err)
	}
	if value <= 0 {
		return 0, fmt.Errorf("size must be positive")
	}
	if value > math.MaxInt64/multiplier {
		return 0, fmt.Errorf("size too large")
	}
	return value * multiplier, nil
}

// ParseInterval converts schedule interval strings to durations.
func ParseInterval(interval string) (time.Duration, error) {
	switch interval {
	case "":
		return 0, fmt.Errorf("schedule interval is required")
	case "hourly":
		return time.Hour, nil
	case "daily":
		return 24 * time.Hour, nil
	case "weekly":
		return 7 * 24 * time.Hour, nil
	}

	d, err := time.ParseDuration(interval)
	if err != nil {
		return 0, fmt.Errorf("invalid schedule interval %q: %w", interval, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("schedule interval must be positive: %q", interval)
	}
	return d, nil
}
