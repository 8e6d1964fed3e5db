// Package natsbridge forwards dispatcher notifications to NATS subjects.
package natsbridge

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/mattjoyce/frontctl/internal/command"
	"github.com/mattjoyce/frontctl/internal/dispatch"
	"github.com/mattjoyce/frontctl/internal/log"
)

const (
	HeaderRequestID = "Frontctl-Request-Id"
	HeaderCommand   = "Frontctl-Command"
)

var ErrNoClient = errors.New("natsbridge: no client")

// Client is the publishing side of a NATS connection.
type Client interface {
	Publish(subject string, data []byte, headers map[string]string) error
}

// Bridge is a dispatch.Sink that republishes every notification as JSON.
// Publish failures are logged and never reach the dispatcher.
type Bridge struct {
	client Client
	prefix string
	logger *slog.Logger
}

// New returns a Bridge publishing under prefix, e.g. "frontctl" gives
// frontctl.command.started.
func New(c Client, prefix string) *Bridge {
	return &Bridge{
		client: c,
		prefix: strings.TrimSuffix(prefix, "."),
		logger: log.WithComponent("natsbridge"),
	}
}

// Subject returns the subject a notification name is published on.
func (b *Bridge) Subject(name string) string {
	if name == dispatch.NotifyError {
		name = "command.error"
	}
	if b.prefix == "" {
		return name
	}
	return b.prefix + "." + name
}

func (b *Bridge) Publish(name string, payload any) {
	if err := b.publish(name, payload); err != nil {
		b.logger.Warn("notification not forwarded", "notification", name, "error", err)
	}
}

func (b *Bridge) publish(name string, payload any) error {
	if b.client == nil {
		return ErrNoClient
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("serialize %s: %w", name, err)
	}

	subject := b.Subject(name)
	if err := b.client.Publish(subject, body, headersFor(payload)); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

func headersFor(payload any) map[string]string {
	switch p := payload.(type) {
	case command.Request:
		return map[string]string{HeaderRequestID: p.ID, HeaderCommand: p.Name}
	case command.Response:
		return map[string]string{HeaderRequestID: p.RequestID, HeaderCommand: p.Name}
	default:
		return nil
	}
}
