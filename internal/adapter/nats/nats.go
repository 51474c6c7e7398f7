package nats

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/lakhan0105/caption-mobility-dashboard-sub000/internal/core/ports"

	natsgo "github.com/nats-io/nats.go"
)

// NATSPublisher publishes fleet events as JSON.
type NATSPublisher struct {
	conn   *natsgo.Conn
	logger ports.LoggerPort
}

func NewNATSPublisher(url, name string, logger ports.LoggerPort) (*NATSPublisher, error) {
	conn, err := natsgo.Connect(url,
		natsgo.Name(name),
		natsgo.MaxReconnects(-1),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn("NATS disconnected", map[string]interface{}{
					"error": err.Error(),
				})
			}
		}),
		natsgo.ReconnectHandler(func(c *natsgo.Conn) {
			logger.Info("NATS reconnected", map[string]interface{}{
				"url": c.ConnectedUrl(),
			})
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	logger.Info("Connected to NATS", map[string]interface{}{
		"url": url,
	})
	return &NATSPublisher{conn: conn, logger: logger}, nil
}

var _ ports.EventPublisher = (*NATSPublisher)(nil)

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", subject, err)
	}
	return p.conn.Publish(subject, data)
}

// Close flushes pending messages before closing the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}

// NopPublisher drops every event. It is used when no NATS URL is configured.
type NopPublisher struct{}

var _ ports.EventPublisher = NopPublisher{}

func (NopPublisher) Publish(context.Context, string, interface{}) error { return nil }
func (NopPublisher) Close() error                                       { return nil }
