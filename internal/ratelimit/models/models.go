// Package models holds the rate limiting value types.
package models

import (
	"math"
	"strings"
	"time"
)

// RateLimitResult is the outcome of one bucket check.
type RateLimitResult struct {
	Allowed   bool
	Limit     int
	Remaining int
	ResetAt   time.Time
	// RetryAfter is in whole seconds and only set when the request is denied.
	RetryAfter int
}

// RetryAfterSeconds rounds the wait until resetAt up to whole seconds.
func RetryAfterSeconds(now, resetAt time.Time) int {
	d := resetAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(math.Ceil(d.Seconds()))
}

// SanitizeKeySegment replaces the key delimiter so a caller supplied
// identifier cannot address another bucket.
func SanitizeKeySegment(s string) string {
	return strings.ReplaceAll(s, ":", "_")
}

// NewWalletKey is the bucket for governance writes by one wallet.
func NewWalletKey(wallet string) string {
	return "writes:wallet:" + SanitizeKeySegment(wallet)
}

// NewIPKey is the bucket for writes from one client address.
func NewIPKey(ip string) string {
	return "writes:ip:" + SanitizeKeySegment(ip)
}

// RateLimitExceededResponse is the API response when the limit is exceeded.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}
