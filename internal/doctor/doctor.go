// Package doctor validates frontctl configuration against the command
// registry it will run with.
package doctor

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/config"
)

// Result holds the outcome of a validation run.
type Result struct {
	Valid    bool    `json:"valid"`
	Errors   []Issue `json:"errors,omitempty"`
	Warnings []Issue `json:"warnings,omitempty"`
}

// Issue describes a single validation error or warning.
type Issue struct {
	Category string `json:"category"`
	Message  string `json:"message"`
	Field    string `json:"field,omitempty"`
}

// Catalog resolves command names. *command.Registry satisfies it.
type Catalog interface {
	Resolve(name string) (command.Descriptor, error)
}

// Doctor validates configuration against registered commands.
type Doctor struct {
	cfg      *config.Config
	commands Catalog
}

// New creates a Doctor from a loaded config and command catalog.
func New(cfg *config.Config, commands Catalog) *Doctor {
	return &Doctor{cfg: cfg, commands: commands}
}

// Validate runs all checks and returns a result.
func (d *Doctor) Validate() *Result {
	r := &Result{Valid: true}

	d.validateServiceConfig(r)
	d.validateScheduleRefs(r)
	d.validateTimeoutRefs(r)
	d.validateAPIConfig(r)
	d.validateNATSConfig(r)
	d.validateWebhooks(r)
	d.warnSuspiciousSchedule(r)
	d.warnQueueSizing(r)

	r.Valid = len(r.Errors) == 0
	return r
}

func (d *Doctor) addError(r *Result, category, field, msg string) {
	r.Errors = append(r.Errors, Issue{Category: category, Field: field, Message: msg})
}

func (d *Doctor) addWarning(r *Result, category, field, msg string) {
	r.Warnings = append(r.Warnings, Issue{Category: category, Field: field, Message: msg})
}

// validateServiceConfig checks required storage fields.
func (d *Doctor) validateServiceConfig(r *Result) {
	if d.cfg.State.Path == "" {
		d.addError(r, "service", "state.path", "state.path is required")
	}
	if d.cfg.Journal.Enabled && d.cfg.Journal.Path == "" {
		d.addError(r, "service", "journal.path", "journal.path is required when the journal is enabled")
	}
	if d.cfg.Dispatcher.QueueCapacity < 1 {
		d.addError(r, "service", "dispatcher.queue_capacity", "queue_capacity must be positive")
	}
}

// validateScheduleRefs checks that every schedule names a registered command.
func (d *Doctor) validateScheduleRefs(r *Result) {
	for i, s := range d.cfg.Schedules {
		if _, err := d.commands.Resolve(s.Command); err != nil {
			d.addError(r, "schedule", fmt.Sprintf("schedules[%d].command", i),
				fmt.Sprintf("schedule %q targets command %q which is not registered", s.Name, s.Command))
		}
	}
}

// validateTimeoutRefs flags per-command timeouts that can never apply.
func (d *Doctor) validateTimeoutRefs(r *Result) {
	for name, timeout := range d.cfg.Dispatcher.Timeouts {
		field := "dispatcher.timeouts." + name
		if timeout <= 0 {
			d.addError(r, "dispatcher", field, "timeout must be positive")
			continue
		}
		if _, err := d.commands.Resolve(name); err != nil {
			d.addWarning(r, "dispatcher", field,
				fmt.Sprintf("timeout set for unknown command %q", name))
		}
	}
}

// validateAPIConfig checks API server settings.
func (d *Doctor) validateAPIConfig(r *Result) {
	if !d.cfg.API.Enabled {
		return
	}
	if d.cfg.API.Listen == "" {
		d.addError(r, "api", "api.listen", "api.listen is required when API is enabled")
	}
	if d.cfg.API.APIKey == "" {
		d.addWarning(r, "api", "api.api_key", "API enabled but no authentication configured")
	}
	if d.cfg.API.WaitTimeout < 0 {
		d.addError(r, "api", "api.wait_timeout", "wait_timeout must not be negative")
	}
}

// validateNATSConfig rejects subject prefixes that are not plain tokens.
func (d *Doctor) validateNATSConfig(r *Result) {
	if !d.cfg.NATS.Enabled {
		return
	}
	prefix := d.cfg.NATS.SubjectPrefix
	if strings.ContainsAny(prefix, "*> \t") {
		d.addError(r, "nats", "nats.subject_prefix",
			fmt.Sprintf("subject prefix %q must not contain wildcards or whitespace", prefix))
	}
	if strings.HasPrefix(prefix, ".") || strings.HasSuffix(prefix, ".") {
		d.addError(r, "nats", "nats.subject_prefix",
			fmt.Sprintf("subject prefix %q must not start or end with '.'", prefix))
	}
}

// warnSuspiciousSchedule warns about intervals that seem too short and
// jitter that swamps the interval.
func (d *Doctor) validateWebhooks(r *Result) {
	if len(d.cfg.Webhooks.Endpoints) == 0 {
		return
	}
	for i, ep := range d.cfg.Webhooks.Endpoints {
		if _, err := d.commands.Resolve(ep.Command); err != nil {
			d.addError(r, "webhook", fmt.Sprintf("webhooks.endpoints[%d].command", i),
				fmt.Sprintf("webhook %q targets command %q which is not registered", ep.Path, ep.Command))
		}
	}
	if d.cfg.API.Enabled && d.cfg.Webhooks.Listen == d.cfg.API.Listen {
		d.addError(r, "webhook", "webhooks.listen",
			fmt.Sprintf("webhooks.listen %q collides with api.listen", d.cfg.Webhooks.Listen))
	}
}

func (d *Doctor) warnSuspiciousSchedule(r *Result) {
	for i, s := range d.cfg.Schedules {
		field := fmt.Sprintf("schedules[%d].every", i)
		interval, err := config.ParseInterval(s.Every)
		if err != nil {
			d.addError(r, "schedule", field,
				fmt.Sprintf("invalid schedule interval %q: %v", s.Every, err))
			continue
		}
		if interval < time.Second {
			d.addWarning(r, "schedule", field,
				fmt.Sprintf("schedule interval %q is very short (< 1s)", s.Every))
		}
		if s.Jitter >= interval {
			d.addWarning(r, "schedule", fmt.Sprintf("schedules[%d].jitter", i),
				fmt.Sprintf("jitter %s is not smaller than interval %s", s.Jitter, interval))
		}
	}
}

// warnQueueSizing warns when the queue cannot hold one firing of every
// schedule.
func (d *Doctor) warnQueueSizing(r *Result) {
	capacity := d.cfg.Dispatcher.QueueCapacity
	if capacity > 0 && len(d.cfg.Schedules) > capacity {
		d.addWarning(r, "dispatcher", "dispatcher.queue_capacity",
			fmt.Sprintf("queue_capacity %d is smaller than the %d configured schedules", capacity, len(d.cfg.Schedules)))
	}
}

// FormatHuman returns a human-readable validation report.
func FormatHuman(r *Result) string {
	var b strings.Builder

	if r.Valid && len(r.Warnings) == 0 {
		b.WriteString("Configuration valid.\n")
		return b.String()
	}

	if r.Valid && len(r.Warnings) > 0 {
		b.WriteString("Configuration valid")
		fmt.Fprintf(&b, " (%d warning(s))\n", len(r.Warnings))
	}

	if !r.Valid {
		fmt.Fprintf(&b, "Configuration invalid (%d error(s), %d warning(s))\n", len(r.Errors), len(r.Warnings))
	}

	for _, e := range r.Errors {
		if e.Field != "" {
			fmt.Fprintf(&b, "  ERROR [%s] %s: %s\n", e.Category, e.Field, e.Message)
		} else {
			fmt.Fprintf(&b, "  ERROR [%s] %s\n", e.Category, e.Message)
		}
	}
	for _, w := range r.Warnings {
		if w.Field != "" {
			fmt.Fprintf(&b, "  WARN  [%s] %s: %s\n", w.Category, w.Field, w.Message)
		} else {
			fmt.Fprintf(&b, "  WARN  [%s] %s\n", w.Category, w.Message)
		}
	}

	return b.String()
}

// FormatJSON returns the result as indented JSON.
func FormatJSON(r *Result) (string, error) {
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}
