package adapter

import (
	"context"
	"log/slog"
	"sync/atomic"

	"github.com/google/uuid"

	"condo/internal/governance/metrics"
	"condo/internal/governance/models"
	"condo/internal/governance/notify"
	"condo/pkg/attrs"
	id "condo/pkg/domain"
	audit "condo/pkg/platform/audit"
	"condo/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// binding holds the current implementation so it can sit behind an
// atomic.Pointer.
type binding struct {
	impl Governance
}

// Adapter forwards governance calls to the current implementation.
type Adapter struct {
	owner    id.Address
	registry *Registry
	current  atomic.Pointer[binding]

	publisher      notify.Publisher
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	logger         *slog.Logger
}

type Option func(a *Adapter)

func WithPublisher(p notify.Publisher) Option {
	return func(a *Adapter) {
		a.publisher = p
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(a *Adapter) {
		a.auditPublisher = p
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(a *Adapter) {
		a.metrics = m
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(a *Adapter) {
		a.logger = logger
	}
}

// New creates an adapter owned by owner. It has no implementation until the
// owner calls Upgrade.
func New(owner id.Address, registry *Registry, opts ...Option) (*Adapter, error) {
	if owner.IsZero() {
		return nil, models.ErrInvalidAddress
	}
	if registry == nil {
		registry, _ = NewRegistry()
	}
	a := &Adapter{owner: owner, registry: registry}
	for _, opt := range opts {
		opt(a)
	}
	if a.logger == nil {
		a.logger = slog.Default()
	}
	return a, nil
}

func (a *Adapter) Owner() id.Address {
	return a.owner
}

func (a *Adapter) Registry() *Registry {
	return a.registry
}

// Implementations lists the addresses Upgrade accepts.
func (a *Adapter) Implementations() []id.Address {
	return a.registry.Addresses()
}

// Upgrade points the adapter at the implementation registered under impl.
// Calls already in flight finish on the implementation they started with.
func (a *Adapter) Upgrade(ctx context.Context, caller, impl id.Address) error {
	if caller != a.owner {
		a.logAudit(ctx, audit.EventAdapterUpgraded,
			"actor", caller.String(),
			"subject", impl.String(),
			"decision", "denied",
		)
		return models.ErrOnlyOwner
	}
	if impl.IsZero() {
		return models.ErrInvalidAddress
	}
	target, ok := a.registry.Lookup(impl)
	if !ok {
		return ErrUnknownImplementation
	}
	previous := a.current.Swap(&binding{impl: target})

	from := ""
	if previous != nil {
		from = previous.impl.Address().String()
	}
	a.logAudit(ctx, audit.EventAdapterUpgraded,
		"actor", caller.String(),
		"subject", impl.String(),
		"decision", "granted",
		"previous", from,
	)
	return nil
}

// ImplementationAddress returns the zero address before the first upgrade.
func (a *Adapter) ImplementationAddress() id.Address {
	b := a.current.Load()
	if b == nil {
		return id.Address{}
	}
	return b.impl.Address()
}

// impl snapshots the implementation once for the duration of a call.
func (a *Adapter) impl() (Governance, error) {
	b := a.current.Load()
	if b == nil {
		return nil, models.ErrNotUpgraded
	}
	return b.impl, nil
}

// notify publishes n. Delivery failures are logged and counted; the write
// they describe has already committed.
func (a *Adapter) notify(ctx context.Context, n models.Notification) {
	if a.publisher == nil {
		return
	}
	n.ID = uuid.New()
	n.OccurredAt = requestcontext.Now(ctx).UTC()
	err := a.publisher.Publish(ctx, n)
	a.metrics.IncrementNotification(string(n.Type), err)
	if err != nil {
		a.logger.WarnContext(ctx, "failed to publish notification",
			"type", string(n.Type),
			"topic", n.Topic,
			"error", err,
		)
	}
}

func (a *Adapter) topicChanged(ctx context.Context, topic *models.Topic) {
	status := topic.Status
	a.notify(ctx, models.Notification{
		Type:   models.NotificationTopicChanged,
		Topic:  topic.Title,
		Status: &status,
	})
}

func (a *Adapter) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	a.logger.InfoContext(ctx, string(event), args...)
	if a.auditPublisher == nil {
		return
	}
	_ = a.auditPublisher.Emit(ctx, audit.Event{
		Actor:     attrs.ExtractString(attributes, "actor"),
		Subject:   attrs.ExtractString(attributes, "subject"),
		Action:    string(event),
		Decision:  attrs.ExtractString(attributes, "decision"),
		RequestID: requestcontext.RequestID(ctx),
	})
}
