package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"condo/internal/ratelimit/metrics"
	"condo/internal/ratelimit/models"
	"condo/internal/ratelimit/store/bucket"
	id "condo/pkg/domain"
	"condo/pkg/platform/audit"
	"condo/pkg/platform/audit/publisher"
	auditmemory "condo/pkg/platform/audit/store/memory"
	"condo/pkg/platform/circuit"
	"condo/pkg/requestcontext"
)

var caller = id.MustParseAddress("0x70997970C51812dc3A010C7d01b50e0d17dc79C8")

// flakyStore fails while down is set.
type flakyStore struct {
	down  atomic.Bool
	inner *bucket.InMemoryBucketStore
}

func (f *flakyStore) Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error) {
	if f.down.Load() {
		return nil, errors.New("connection refused")
	}
	return f.inner.Allow(ctx, key, limit, window)
}

type RateLimitSuite struct {
	suite.Suite
	primary *flakyStore
	audits  *auditmemory.InMemoryStore
	metrics *metrics.Metrics
	handler http.Handler
}

func TestRateLimitSuite(t *testing.T) {
	suite.Run(t, new(RateLimitSuite))
}

func (s *RateLimitSuite) SetupTest() { s.reset() }
func (s *RateLimitSuite) SetupSubTest() { s.reset() }

func (s *RateLimitSuite) reset() {
	s.primary = &flakyStore{inner: bucket.NewInMemoryBucketStore()}
	s.audits = auditmemory.NewInMemoryStore()
	s.metrics = metrics.New(prometheus.NewRegistry())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	m := New(s.primary, 2, time.Minute, logger,
		WithBreaker(circuit.New("test", circuit.WithFailureThreshold(2), circuit.WithSuccessThreshold(1))),
		WithAuditPublisher(publisher.NewPublisher(s.audits)),
		WithMetrics(s.metrics),
	)
	s.handler = m.LimitWrites(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
}

func (s *RateLimitSuite) post(wallet id.Address) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/topics", nil)
	ctx := requestcontext.WithClientMetadata(req.Context(), "10.0.0.1", "test")
	if !wallet.IsZero() {
		ctx = requestcontext.WithWallet(ctx, wallet)
	}
	rr := httptest.NewRecorder()
	s.handler.ServeHTTP(rr, req.WithContext(ctx))
	return rr
}

func (s *RateLimitSuite) TestLimitWrites() {
	s.Run("allows up to the limit then denies", func() {
		s.Equal(http.StatusNoContent, s.post(caller).Code)
		rr := s.post(caller)
		s.Equal(http.StatusNoContent, rr.Code)
		s.Equal("0", rr.Header().Get("X-RateLimit-Remaining"))

		rr = s.post(caller)
		s.Equal(http.StatusTooManyRequests, rr.Code)
		s.Equal("60", rr.Header().Get("Retry-After"))
		s.Contains(rr.Body.String(), "rate_limit_exceeded")
		s.Equal(1.0, testutil.ToFloat64(s.metrics.Decisions.WithLabelValues("denied")))
	})

	s.Run("denials are audited", func() {
		for range 3 {
			s.post(caller)
		}
		events, err := s.audits.ListAll(context.Background())
		s.Require().NoError(err)
		s.Require().Len(events, 1)
		s.Equal(string(audit.EventRateLimitExceeded), events[0].Action)
		s.Equal(caller.String(), events[0].Actor)
		s.Equal("POST /topics", events[0].Subject)
	})

	s.Run("unauthenticated writes are keyed by ip", func() {
		s.post(caller)
		s.post(caller)
		s.Equal(http.StatusNoContent, s.post(id.Address{}).Code)
	})

	s.Run("reads are never limited", func() {
		for range 5 {
			req := httptest.NewRequest(http.MethodGet, "/topics", nil)
			rr := httptest.NewRecorder()
			s.handler.ServeHTTP(rr, req)
			s.Equal(http.StatusNoContent, rr.Code)
		}
	})
}

func (s *RateLimitSuite) TestStoreFailure() {
	s.Run("fails open below the breaker threshold", func() {
		s.primary.down.Store(true)
		rr := s.post(caller)
		s.Equal(http.StatusNoContent, rr.Code)
		s.Empty(rr.Header().Get("X-RateLimit-Status"))
	})

	s.Run("open circuit uses the fallback", func() {
		s.primary.down.Store(true)
		s.post(caller)

		rr := s.post(caller)
		s.Equal(http.StatusNoContent, rr.Code)
		s.Equal("degraded", rr.Header().Get("X-RateLimit-Status"))
		s.Equal(1.0, testutil.ToFloat64(s.metrics.CircuitOpen))

		s.post(caller)
		rr = s.post(caller)
		s.Equal(http.StatusTooManyRequests, rr.Code)
	})

	s.Run("recovers once the primary answers", func() {
		s.primary.down.Store(true)
		s.post(caller)
		s.post(caller)

		s.primary.down.Store(false)
		rr := s.post(caller)
		s.Empty(rr.Header().Get("X-RateLimit-Status"))
		s.Equal(0.0, testutil.ToFloat64(s.metrics.CircuitOpen))
	})
}

func (s *RateLimitSuite) TestDisabled() {
	m := New(s.primary, 1, time.Minute, slog.New(slog.NewTextHandler(io.Discard, nil)), WithDisabled(true))
	h := m.LimitWrites(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	for range 3 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/topics", nil))
		s.Equal(http.StatusNoContent, rr.Code)
	}
}
