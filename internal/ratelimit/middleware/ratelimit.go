package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"badgeledger/internal/ratelimit/models"
	"badgeledger/pkg/platform/circuit"
	"badgeledger/pkg/platform/httputil"
	"badgeledger/pkg/requestcontext"
)

// BucketStore counts requests per key within a window.
type BucketStore interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*models.RateLimitResult, error)
}

// RateLimitedCounter is the metrics hook for rejected requests.
type RateLimitedCounter interface {
	IncrementRateLimited()
}

// Limit is the budget per subject and class.
type Limit struct {
	Requests int
	Window   time.Duration
}

type Middleware struct {
	primary  BucketStore
	fallback BucketStore
	breaker  *circuit.Breaker
	limit    Limit
	logger   *slog.Logger
	metrics  RateLimitedCounter
	disabled bool
}

type Option func(*Middleware)

// WithFallback serves checks from store while the primary is failing.
func WithFallback(store BucketStore) Option {
	return func(m *Middleware) {
		m.fallback = store
	}
}

func WithMetrics(counter RateLimitedCounter) Option {
	return func(m *Middleware) {
		m.metrics = counter
	}
}

// WithDisabled disables rate limiting entirely (for testing/demo mode).
func WithDisabled(disabled bool) Option {
	return func(m *Middleware) {
		m.disabled = disabled
	}
}

func New(primary BucketStore, limit Limit, logger *slog.Logger, opts ...Option) *Middleware {
	m := &Middleware{
		primary: primary,
		limit:   limit,
		logger:  logger,
		breaker: circuit.New("ratelimit"),
	}
	for _, opt := range opts {
		opt(m)
	}
	if m.disabled {
		logger.Info("rate limiting disabled")
	}
	return m
}

// RateLimit limits each caller within class. Authenticated callers are keyed
// by account, anonymous ones by client IP. Limiter failures fail open.
func (m *Middleware) RateLimit(class models.EndpointClass) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if m.disabled {
				next.ServeHTTP(w, r)
				return
			}

			ctx := r.Context()
			key := models.NewKey(class, subject(ctx))
			result, degraded, err := m.check(ctx, key)
			if err != nil {
				m.logger.ErrorContext(ctx, "failed to check rate limit",
					"error", err,
					"request_id", requestcontext.RequestID(ctx),
				)
				next.ServeHTTP(w, r)
				return
			}

			addRateLimitHeaders(w, result)
			if degraded {
				w.Header().Set("X-RateLimit-Status", "degraded")
			}
			if !result.Allowed {
				if m.metrics != nil {
					m.metrics.IncrementRateLimited()
				}
				writeRateLimitExceeded(w, result)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m *Middleware) check(ctx context.Context, key string) (*models.RateLimitResult, bool, error) {
	result, err := m.primary.Allow(ctx, key, m.limit.Requests, m.limit.Window)
	if err == nil {
		usePrimary, change := m.breaker.RecordSuccess()
		if change.Closed {
			m.logger.InfoContext(ctx, "rate limiter recovered", "breaker", m.breaker.Name())
		}
		if usePrimary || m.fallback == nil {
			return result, false, nil
		}
		// Still open: keep counting in the fallback until the primary has
		// proven itself, so the two windows do not double count.
		result, err = m.fallback.Allow(ctx, key, m.limit.Requests, m.limit.Window)
		return result, true, err
	}

	_, change := m.breaker.RecordFailure()
	if change.Opened {
		m.logger.WarnContext(ctx, "rate limiter degraded", "breaker", m.breaker.Name(), "error", err)
	}
	if m.fallback == nil {
		return nil, false, err
	}
	result, err = m.fallback.Allow(ctx, key, m.limit.Requests, m.limit.Window)
	return result, true, err
}

func subject(ctx context.Context) string {
	if account := requestcontext.Account(ctx); !account.IsZero() {
		return "acct:" + account.String()
	}
	return "ip:" + requestcontext.ClientIP(ctx)
}

func addRateLimitHeaders(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("X-RateLimit-Limit", strconv.Itoa(result.Limit))
	w.Header().Set("X-RateLimit-Remaining", strconv.Itoa(result.Remaining))
	w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(result.ResetAt.Unix(), 10))
}

func writeRateLimitExceeded(w http.ResponseWriter, result *models.RateLimitResult) {
	w.Header().Set("Retry-After", strconv.Itoa(result.RetryAfter))
	httputil.WriteJSON(w, http.StatusTooManyRequests, &models.RateLimitExceededResponse{
		Error:      "rate_limit_exceeded",
		Message:    "Too many requests. Please try again later.",
		RetryAfter: result.RetryAfter,
	})
}
