package testutil

import (
	"context"
	"net/http"
	"time"

	id "condo/pkg/domain"
	"condo/pkg/requestcontext"
)

// WithWallet authenticates req as wallet the way the auth middleware would.
// An unparseable wallet leaves req anonymous.
func WithWallet(req *http.Request, wallet string) *http.Request {
	parsed, err := id.ParseAddress(wallet)
	if err != nil {
		return req
	}
	return req.WithContext(requestcontext.WithWallet(req.Context(), parsed))
}

// Clock is a movable test clock that stamps contexts.
type Clock struct {
	now time.Time
}

// NewClock starts a clock at start.
func NewClock(start time.Time) *Clock {
	return &Clock{now: start.UTC()}
}

func (c *Clock) Now() time.Time { return c.now }

// Advance moves the clock forward by d.
func (c *Clock) Advance(d time.Duration) {
	c.now = c.now.Add(d)
}

// Context returns ctx carrying the clock's current time.
func (c *Clock) Context(ctx context.Context) context.Context {
	return requestcontext.WithTime(ctx, c.now)
}
