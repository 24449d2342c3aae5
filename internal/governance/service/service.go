// Package service is the condominium governance engine: the resident
// directory, the quota ledger, topics and voting, and the treasury.
//
// Every write runs under one writer lock inside a single store transaction,
// so an operation either commits all of its effects or none of them. The
// caller is always an explicit argument and the clock is requestcontext.Now.
package service

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"condo/internal/governance/metrics"
	"condo/internal/governance/models"
	"condo/internal/governance/store"
	"condo/pkg/attrs"
	id "condo/pkg/domain"
	dErrors "condo/pkg/domain-errors"
	audit "condo/pkg/platform/audit"
	"condo/pkg/platform/sentinel"
	"condo/pkg/requestcontext"
)

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// ErrNotBootstrapped is returned until the governance settings are seeded.
var ErrNotBootstrapped = dErrors.New(dErrors.CodeUnavailable, "governance settings are not initialised")

// Service orchestrates governance operations over a transactional store.
type Service struct {
	store          store.TxStore
	address        id.Address
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
	tracer         trace.Tracer

	// mu serialises writers; reads go straight to the store.
	mu sync.Mutex
}

type Option func(s *Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithAuditPublisher(publisher AuditPublisher) Option {
	return func(s *Service) {
		s.auditPublisher = publisher
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tracer
	}
}

// WithAddress sets the implementation address the engine is published under.
func WithAddress(addr id.Address) Option {
	return func(s *Service) {
		s.address = addr
	}
}

// New constructs a Service.
func New(st store.TxStore, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, errors.New("governance store is required")
	}
	s := &Service{store: st}
	for _, opt := range opts {
		opt(s)
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.tracer == nil {
		s.tracer = otel.Tracer("condo/governance")
	}
	return s, nil
}

// Address is the implementation address this engine is registered under.
func (s *Service) Address() id.Address {
	return s.address
}

// Bootstrap seeds the governance record with the initial manager and
// quota. It does nothing when the record already exists.
func (s *Service) Bootstrap(ctx context.Context, manager id.Address, quota models.Amount) error {
	if manager.IsZero() {
		return models.ErrInvalidAddress
	}
	if quota == 0 {
		quota = models.DefaultMonthlyQuota
	}
	return s.mutate(ctx, "bootstrap", func(ctx context.Context, tx store.Store) error {
		_, err := tx.LoadSettings(ctx)
		if err == nil {
			return nil
		}
		if !errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load settings")
		}
		if err := tx.SaveSettings(ctx, &models.Settings{Manager: manager, MonthlyQuota: quota}); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to save settings")
		}
		s.logger.InfoContext(ctx, "governance bootstrapped",
			"manager", manager.String(),
			"monthly_quota", quota.String(),
		)
		return nil
	})
}

// mutate runs fn in one transaction under the writer lock.
func (s *Service) mutate(ctx context.Context, op string, fn func(ctx context.Context, tx store.Store) error) error {
	ctx, span := s.tracer.Start(ctx, "governance."+op)
	defer span.End()
	start := time.Now()

	s.mu.Lock()
	err := s.store.RunInTx(ctx, func(tx store.Store) error {
		return fn(ctx, tx)
	})
	s.mu.Unlock()

	s.metrics.ObserveOperation(op, start, err)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, models.Reason(err))
	}
	return err
}

// span starts a read span.
func (s *Service) span(ctx context.Context, op string, kv ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, "governance."+op, trace.WithAttributes(kv...))
}

func now(ctx context.Context) time.Time {
	return requestcontext.Now(ctx).UTC()
}

func loadSettings(ctx context.Context, st store.Store) (*models.Settings, error) {
	settings, err := st.LoadSettings(ctx)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, ErrNotBootstrapped
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load settings")
	}
	return settings, nil
}

// actor is the caller resolved against the directory.
type actor struct {
	wallet   id.Address
	manager  bool
	resident *models.Resident
}

func (a actor) isResident() bool { return a.resident != nil }
func (a actor) isCounselor() bool { return a.resident != nil && a.resident.IsCounselor }

func identify(ctx context.Context, st store.Store, settings *models.Settings, caller id.Address) (actor, error) {
	a := actor{wallet: caller, manager: !caller.IsZero() && caller == settings.Manager}
	if caller.IsZero() {
		return a, nil
	}
	r, err := findResident(ctx, st, caller)
	if err != nil && !errors.Is(err, models.ErrResidentNotFound) {
		return a, err
	}
	a.resident = r
	return a, nil
}

func findResident(ctx context.Context, st store.Store, wallet id.Address) (*models.Resident, error) {
	r, err := st.FindResidentByWallet(ctx, wallet)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrResidentNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load resident")
	}
	return r, nil
}

func findTopic(ctx context.Context, st store.Store, title string) (*models.Topic, error) {
	t, err := st.FindTopic(ctx, title)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, models.ErrTopicNotFound
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load topic")
	}
	return t, nil
}

func (s *Service) logAudit(ctx context.Context, event audit.AuditEvent, attributes ...any) {
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attributes = append(attributes, "request_id", requestID)
	}
	args := append(attributes, "event", string(event), "log_type", "audit")
	if s.logger != nil {
		s.logger.InfoContext(ctx, string(event), args...)
	}
	if s.auditPublisher == nil {
		return
	}
	_ = s.auditPublisher.Emit(ctx, audit.Event{
		Timestamp: now(ctx),
		Actor:     attrs.ExtractString(attributes, "actor"),
		Subject:   attrs.ExtractString(attributes, "subject"),
		Action:    string(event),
		Decision:  attrs.ExtractString(attributes, "decision"),
		RequestID: requestcontext.RequestID(ctx),
	})
}
