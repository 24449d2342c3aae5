package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nats-io/nats.go"

	"condo/internal/governance/models"
)

// NATSPublisher publishes each notification on <subject>.<type>.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to url.
func NewNATSPublisher(url, subject string, opts ...nats.Option) (*NATSPublisher, error) {
	if subject == "" {
		return nil, errors.New("nats subject is required")
	}
	base := []nats.Option{
		nats.Name("condo-governance"),
		nats.MaxReconnects(5),
		nats.ReconnectWait(time.Second),
	}
	conn, err := nats.Connect(url, append(base, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}
	return &NATSPublisher{conn: conn, subject: subject}, nil
}

// Subject returns the subject a notification type is published on.
func (p *NATSPublisher) Subject(kind models.NotificationType) string {
	return p.subject + "." + string(kind)
}

// Publish sends n and flushes so a nil error means the server accepted it.
// NATS publish takes no context, so ctx is checked up front and bounds the flush.
func (p *NATSPublisher) Publish(ctx context.Context, n models.Notification) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("context cancelled before publish: %w", err)
	}
	payload, err := Encode(n)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.Subject(n.Type), payload); err != nil {
		return fmt.Errorf("publish notification: %w", err)
	}
	flushCtx := ctx
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		flushCtx, cancel = context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
	}
	if err := p.conn.FlushWithContext(flushCtx); err != nil {
		return fmt.Errorf("flush notification: %w", err)
	}
	return nil
}

// Close drains pending messages and closes the connection.
func (p *NATSPublisher) Close() error {
	return p.conn.Drain()
}
