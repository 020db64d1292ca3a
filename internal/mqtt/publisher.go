package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"
)

// Publisher sends JSON messages.
type Publisher struct {
	*conn
}

func NewPublisher(o Options, logger *slog.Logger) *Publisher {
	return &Publisher{conn: newConn(o, logger)}
}

func (p *Publisher) Connect(ctx context.Context) error {
	return p.connect(ctx)
}

// PublishJSON marshals v and publishes it with QoS 1.
func (p *Publisher) PublishJSON(ctx context.Context, topic string, v any) error {
	if !p.IsConnected() {
		return fmt.Errorf("mqtt client not connected")
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", topic, err)
	}

	timeout := 5 * time.Second
	if dl, ok := ctx.Deadline(); ok && time.Until(dl) < timeout {
		timeout = time.Until(dl)
	}
	if err := wait(p.client.Publish(topic, 1, false, data), timeout, "publish "+topic); err != nil {
		p.logger.Error("failed to publish", "topic", topic, "error", err)
		return err
	}
	p.logger.Debug("published", "topic", topic, "size", len(data))
	return nil
}

// Disconnect closes the connection. Safe to call more than once.
func (p *Publisher) Disconnect() {
	p.stop(nil)
	p.logger.Info("mqtt publisher disconnected")
}
