package pushchannel

import (
	"context"
	"fmt"
	"log/slog"

	"hostelnotify/internal/notification"
)

// Publisher relays built requests onto the subject of their recipient scope.
type Publisher struct {
	conn   Conn
	prefix string
	logger *slog.Logger
}

func NewPublisher(conn Conn, prefix string, logger *slog.Logger) *Publisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Publisher{conn: conn, prefix: prefix, logger: logger}
}

// Relay fails with ErrNotConnected instead of queueing while the connection
// is down.
func (p *Publisher) Relay(ctx context.Context, req *notification.Request) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !p.conn.IsConnected() {
		return ErrNotConnected
	}

	subject, err := Subject(p.prefix, req.Data.Scope)
	if err != nil {
		return err
	}
	payload, err := notification.EncodePayload(req)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(subject, payload); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", subject, err)
	}

	p.logger.Debug("push payload published", "subject", subject, "type", req.Data.Type)
	return nil
}
