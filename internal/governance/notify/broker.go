package notify

import (
	"context"
	"log/slog"
	"sync"

	"condo/internal/governance/models"
)

// Broker fans notifications out to in-process subscribers. A subscriber that
// falls behind by more than its buffer misses notifications rather than
// blocking the publisher.
type Broker struct {
	mu     sync.RWMutex
	subs   map[uint64]chan models.Notification
	next   uint64
	buffer int
	closed bool
	logger *slog.Logger
}

// NewBroker creates a broker whose subscribers buffer up to buffer items.
func NewBroker(buffer int, logger *slog.Logger) *Broker {
	if buffer < 1 {
		buffer = 16
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Broker{
		subs:   make(map[uint64]chan models.Notification),
		buffer: buffer,
		logger: logger,
	}
}

func (b *Broker) Publish(ctx context.Context, n models.Notification) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for id, ch := range b.subs {
		select {
		case ch <- n:
		default:
			b.logger.WarnContext(ctx, "notification subscriber is behind, dropping",
				"subscriber", id,
				"type", string(n.Type),
			)
		}
	}
	return nil
}

// Subscribe registers a subscriber. The returned cancel function unregisters
// it and closes the channel; it is also called when ctx ends.
func (b *Broker) Subscribe(ctx context.Context) (<-chan models.Notification, func()) {
	b.mu.Lock()
	ch := make(chan models.Notification, b.buffer)
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, func() {}
	}
	id := b.next
	b.next++
	b.subs[id] = ch
	b.mu.Unlock()

	var once sync.Once
	done := make(chan struct{})
	cancel := func() {
		once.Do(func() {
			close(done)
			b.mu.Lock()
			defer b.mu.Unlock()
			if existing, ok := b.subs[id]; ok {
				delete(b.subs, id)
				close(existing)
			}
		})
	}
	go func() {
		select {
		case <-ctx.Done():
			cancel()
		case <-done:
		}
	}()
	return ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (b *Broker) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close ends every subscription.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.closed = true
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
