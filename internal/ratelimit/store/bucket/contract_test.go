package bucket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/stretchr/testify/suite"

	"condo/internal/ratelimit/models"
)

const (
	testLimit  = 5
	testWindow = time.Minute
)

// Bucket is the behaviour every store must share.
type Bucket interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
	Reset(ctx context.Context, key string) error
	GetCurrentCount(ctx context.Context, key string) (int, error)
}

// fakeClock is advanced explicitly by the tests.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// BucketContractSuite runs against any Bucket. Concrete suites set newStore.
type BucketContractSuite struct {
	suite.Suite
	clock    *fakeClock
	store    Bucket
	newStore func(clock *fakeClock) Bucket
	ctx      context.Context
	keys     int
}

func (s *BucketContractSuite) SetupTest() {
	s.clock = newFakeClock()
	s.store = s.newStore(s.clock)
	s.ctx = context.Background()
}

func (s *BucketContractSuite) key() string {
	s.keys++
	return fmt.Sprintf("writes:wallet:test-%d-%d", time.Now().UnixNano(), s.keys)
}

func (s *BucketContractSuite) fill(key string) {
	for range testLimit {
		res, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)
		s.Require().True(res.Allowed)
	}
}

func (s *BucketContractSuite) TestAllow() {
	s.Run("first request allowed", func() {
		res, err := s.store.Allow(s.ctx, s.key(), testLimit, testWindow)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(testLimit, res.Limit)
		s.Equal(testLimit-1, res.Remaining)
		s.Equal(s.clock.Now().Add(testWindow), res.ResetAt)
	})

	s.Run("request over limit denied with retry hint", func() {
		key := s.key()
		s.fill(key)
		s.clock.Advance(20 * time.Second)

		res, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)
		s.False(res.Allowed)
		s.Equal(0, res.Remaining)
		s.Equal(40, res.RetryAfter)
	})

	s.Run("window slides", func() {
		key := s.key()
		s.fill(key)
		s.clock.Advance(testWindow + time.Millisecond)

		res, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(res.Allowed)
		s.Equal(testLimit-1, res.Remaining)
	})

	s.Run("keys are independent", func() {
		a, b := s.key(), s.key()
		s.fill(a)

		res, err := s.store.Allow(s.ctx, b, testLimit, testWindow)
		s.Require().NoError(err)
		s.True(res.Allowed)
	})
}

func (s *BucketContractSuite) TestReset() {
	key := s.key()
	s.fill(key)
	s.Require().NoError(s.store.Reset(s.ctx, key))

	count, err := s.store.GetCurrentCount(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(0, count)

	res, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
	s.Require().NoError(err)
	s.True(res.Allowed)
}

func (s *BucketContractSuite) TestGetCurrentCount() {
	key := s.key()
	for range 3 {
		_, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
		s.Require().NoError(err)
	}
	count, err := s.store.GetCurrentCount(s.ctx, key)
	s.Require().NoError(err)
	s.Equal(3, count)
}

func (s *BucketContractSuite) TestConcurrentAllowNeverExceedsLimit() {
	key := s.key()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for range 4 * testLimit {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := s.store.Allow(s.ctx, key, testLimit, testWindow)
			if err != nil {
				return
			}
			if res.Allowed {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	s.Equal(testLimit, allowed)
}
