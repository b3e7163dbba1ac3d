package models

import (
	"time"
)

// EndpointClass separates request budgets so heavy reads cannot starve writes.
type EndpointClass string

const (
	ClassRead  EndpointClass = "read"
	ClassWrite EndpointClass = "write"
)

// NewKey builds a bucket key for a subject within a class.
func NewKey(class EndpointClass, subject string) string {
	return "rl:" + string(class) + ":" + subject
}

// RateLimitResult represents the outcome of a rate limit check.
type RateLimitResult struct {
	Allowed    bool      `json:"allowed"`
	Limit      int       `json:"limit"`
	Remaining  int       `json:"remaining"`
	ResetAt    time.Time `json:"reset_at"`
	RetryAfter int       `json:"retry_after,omitempty"` // seconds, only set when not allowed
}

// RateLimitExceededResponse is the body of a 429 reply.
type RateLimitExceededResponse struct {
	Error      string `json:"error"`
	Message    string `json:"message"`
	RetryAfter int    `json:"retry_after"`
}

// retryAfterSeconds rounds up so clients never retry early.
func retryAfterSeconds(now, resetAt time.Time) int {
	d := resetAt.Sub(now)
	if d <= 0 {
		return 1
	}
	secs := int(d / time.Second)
	if d%time.Second != 0 {
		secs++
	}
	return secs
}

// Denied builds a rejected result.
func Denied(limit int, now, resetAt time.Time) *RateLimitResult {
	return &RateLimitResult{
		Allowed:    false,
		Limit:      limit,
		Remaining:  0,
		ResetAt:    resetAt,
		RetryAfter: retryAfterSeconds(now, resetAt),
	}
}
