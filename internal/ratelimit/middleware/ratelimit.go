// Package middleware limits governance writes per caller wallet.
package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"condo/internal/ratelimit/metrics"
	"condo/internal/ratelimit/models"
	"condo/internal/ratelimit/store/bucket"
	"condo/pkg/platform/audit"
	"condo/pkg/platform/circuit"
	"condo/pkg/platform/httputil"
	"condo/pkg/requestcontext"
)

// BucketStore admits or denies one request for a key.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

type AuditPublisher interface {
	Emit(ctx context.Context, base audit.Event) error
}

// Middleware applies a sliding window to writes. When the primary store keeps
// failing, the circuit opens and checks run against an in-process fallback.
type Middleware struct {
	primary        BucketStore
	fallback       BucketStore
	breaker        *circuit.Breaker
	limit          int
	window         time.Duration
	disabled       bool
	logger         *slog.Logger
	auditPublisher AuditPublisher
	metrics        *metrics.Metrics
}

type Option func(*Middleware)

// WithDisabled turns the limiter into a pass-through.
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func WithFallback(store BucketStore) Option {
	return func(m *Middleware) {
		m.fallback = store
	}
}

func WithBreaker(b *circuit.Breaker) Option {
	return func(m *Middleware) {
		m.breaker = b
	}
}

func WithAuditPublisher(p AuditPublisher) Option {
	return func(m *Middleware) {
		m.auditPublisher = p
	}
}

func WithMetrics(mt *metrics.Metrics) Option {
	return func(m *Middleware) {
		m.metrics = mt
	}
}

func New(primary BucketStore, limit int, window time.Duration, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		limit:   limit,
		window:  window,
		logger:  logger,
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.fallback == nil {
		m.fallback = bucket.NewInMemoryBucketStore()
	}
	if m.breaker == nil {
		m.breaker = circuit.New("ratelimit")
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// LimitWrites keys the window by the authenticated wallet, or by client IP
// when the request carries none. Place it after RequireAuth.
func (m *Middleware) LimitWrites(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if m.disabled || r.Method == http.MethodGet || r.Method == http.MethodHead {
			next.ServeHTTP(w, r)
			return
		}

		ctx := r.Context()
		key, actor := m.keyFor(ctx)

		result, degraded, err := m.check(ctx, key)
		if err != nil {
			m.logger.ErrorContext(ctx, "failed to check write rate limit",
				"error", err,
				"request_id", requestcontext.RequestID(ctx),
			)
			next.ServeHTTP(w, r)
			return
		}
		if degraded {
			w.Header().Set("X-RateLimit-Status", "degraded")
		}
		addRateLimitHeaders(w, result)
		m.metrics.IncrementDecision(result.Allowed)

		if !result.Allowed {
			m.logAudit(ctx, actor, r)
			writeRateLimitExceeded(w, result)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (m *Middleware) keyFor(ctx context.Context) (key, actor string) {
	if wallet := requestcontext.Wallet(ctx); !wallet.IsZero() {
		return models.NewWalletKey(wallet.String()), wallet.String()
	}
	ip := requestcontext.ClientIP(ctx)
	if ip == "" {
		ip = "unknown"
	}
	return models.NewIPKey(ip), ip
}

// check always consults the primary store so an open circuit can observe
// recovery. While the circuit is open the fallback result is used.
func (m *Middleware) check(ctx context.Context, key string) (*models.RateLimitResult, bool, error) {
	result, err := m.primary.Allow(ctx, key, m.limit, m.window)
	if err == nil {
		usePrimary, change := m.breaker.RecordSuccess()
		if change.Closed {
			m.metrics.SetCircuitOpen(false)
			m.logger.InfoContext(ctx, "rate limit store recovered", "breaker", m.breaker.Name())
		}
		if usePrimary {
			return result, false, nil
		}
	} else {
		m.metrics.IncrementStoreError()
		useFallback, change := m.breaker.RecordFailure()
		if change.Opened {
			m.metrics.SetCircuitOpen(true)
			m.logger.WarnContext(ctx, "rate limit store unavailable, using in-memory fallback",
				"breaker", m.breaker.Name(),
				"error", err,
			)
		}
		if !useFallback {
			return nil, false, err
		}
	}

	m.metrics.IncrementFallback()
	result, err = m.fallback.Allow(ctx, key, m.limit, m.window)
	return result, true, err
}

func (m *Middleware) logAudit(ctx context.Context, actor string, r *http.Request) {
	requestID := requestcontext.RequestID(ctx)
	m.logger.InfoContext(ctx, string(audit.EventRateLimitExceeded),
		"actor", actor,
		"subject", r.Method+" "+r.URL.Path,
		"request_id", requestID,
		"event", string(audit.EventRateLimitExceeded),
		"log_type", "audit",
	)
	if m.auditPublisher == nil {
		return
	}
	_ = m.auditPublisher.Emit(ctx, audit.Event{
		Actor:     actor,
		Subject:   r.Method + " " + r.URL.Path,
		Action:    string(audit.EventRateLimitExceeded),
		Decision:  "denied",
		RequestID: requestID,
	})
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	if result == nil {
		return
	}
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many governance writes from this wallet. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
