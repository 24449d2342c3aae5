// Package notify delivers governance notifications to observers: an
// in-process broker for Server-Sent Events, Kafka and NATS.
package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"condo/internal/governance/models"
)

// Publisher delivers one notification. Implementations must be safe for
// concurrent use.
type Publisher interface {
	Publish(ctx context.Context, n models.Notification) error
}

// Multi fans a notification out to every publisher and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, n models.Notification) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Encode renders the wire envelope shared by every transport.
func Encode(n models.Notification) ([]byte, error) {
	payload, err := json.Marshal(n)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return payload, nil
}

// Decode parses a wire envelope.
func Decode(payload []byte) (models.Notification, error) {
	var n models.Notification
	if err := json.Unmarshal(payload, &n); err != nil {
		return models.Notification{}, fmt.Errorf("unmarshal notification: %w", err)
	}
	return n, nil
}
