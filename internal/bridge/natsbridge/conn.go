package natsbridge

import (
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/mattjoyce/frontctl/internal/config"
)

const connectTimeout = 5 * time.Second

type natsClient struct{ nc *nats.Conn }

func (c natsClient) Publish(subject string, data []byte, headers map[string]string) error {
	msg := &nats.Msg{Subject: subject, Data: data}
	if len(headers) > 0 {
		msg.Header = nats.Header{}
		for k, v := range headers {
			msg.Header.Add(k, v)
		}
	}
	return c.nc.PublishMsg(msg)
}

// Connect dials cfg.URL and returns a Bridge on the connection with a
// cleanup that flushes and closes it. Reconnects are handled by the client
// library; messages published while disconnected are buffered by it.
func Connect(cfg config.NATSConfig, serviceName string) (*Bridge, func(), error) {
	if cfg.URL == "" {
		return nil, nil, fmt.Errorf("natsbridge: nats url required")
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(serviceName),
		nats.Timeout(connectTimeout),
		nats.MaxReconnects(-1),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("natsbridge: connect %s: %w", cfg.URL, err)
	}

	b := New(natsClient{nc: nc}, cfg.SubjectPrefix)
	cleanup := func() {
		if !nc.IsClosed() {
			_ = nc.Drain()
			nc.Close()
		}
	}
	return b, cleanup, nil
}
