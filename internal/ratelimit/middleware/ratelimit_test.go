package middleware

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"badgeledger/internal/ratelimit/models"
	"badgeledger/internal/ratelimit/store/bucket"
	id "badgeledger/pkg/domain"
	"badgeledger/pkg/requestcontext"
)

type failingStore struct {
	calls int
}

func (f *failingStore) Allow(context.Context, string, int, time.Duration) (*models.RateLimitResult, error) {
	f.calls++
	return nil, errors.New("redis: connection refused")
}

type countingMetrics struct {
	n int
}

func (c *countingMetrics) IncrementRateLimited() { c.n++ }

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

var ok = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusNoContent)
})

func requestFrom(ip string) *http.Request {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	return req.WithContext(requestcontext.WithClientIP(req.Context(), ip))
}

func TestRateLimitByIP(t *testing.T) {
	counter := &countingMetrics{}
	m := New(bucket.New(), Limit{Requests: 2, Window: time.Minute}, discard(), WithMetrics(counter))
	h := m.RateLimit(models.ClassWrite)(ok)

	for range 2 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, requestFrom("10.0.0.1"))
		require.Equal(t, http.StatusNoContent, rr.Code)
	}

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code)
	assert.Equal(t, "0", rr.Header().Get("X-RateLimit-Remaining"))
	assert.NotEmpty(t, rr.Header().Get("Retry-After"))
	assert.Contains(t, rr.Body.String(), "rate_limit_exceeded")
	assert.Equal(t, 1, counter.n)

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom("10.0.0.2"))
	assert.Equal(t, http.StatusNoContent, rr.Code, "other clients have their own budget")
}

func TestRateLimitByAccount(t *testing.T) {
	m := New(bucket.New(), Limit{Requests: 1, Window: time.Minute}, discard())
	h := m.RateLimit(models.ClassWrite)(ok)
	account := id.MustAccount("0x1111111111111111111111111111111111111111")

	for _, ip := range []string{"10.0.0.1", "10.0.0.2"} {
		req := requestFrom(ip)
		req = req.WithContext(requestcontext.WithAccount(req.Context(), account))
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if ip == "10.0.0.1" {
			assert.Equal(t, http.StatusNoContent, rr.Code)
		} else {
			assert.Equal(t, http.StatusTooManyRequests, rr.Code, "account budget follows the caller across IPs")
		}
	}
}

func TestRateLimitClassesAreSeparate(t *testing.T) {
	m := New(bucket.New(), Limit{Requests: 1, Window: time.Minute}, discard())

	rr := httptest.NewRecorder()
	m.RateLimit(models.ClassWrite)(ok).ServeHTTP(rr, requestFrom("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, rr.Code)

	rr = httptest.NewRecorder()
	m.RateLimit(models.ClassRead)(ok).ServeHTTP(rr, requestFrom("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, rr.Code)
}

func TestFailsOpenWithoutFallback(t *testing.T) {
	m := New(&failingStore{}, Limit{Requests: 1, Window: time.Minute}, discard())
	h := m.RateLimit(models.ClassWrite)(ok)

	for range 3 {
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, requestFrom("10.0.0.1"))
		assert.Equal(t, http.StatusNoContent, rr.Code)
	}
}

func TestFallbackWhenPrimaryFails(t *testing.T) {
	primary := &failingStore{}
	m := New(primary, Limit{Requests: 1, Window: time.Minute}, discard(), WithFallback(bucket.New()))
	h := m.RateLimit(models.ClassWrite)(ok)

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Equal(t, "degraded", rr.Header().Get("X-RateLimit-Status"))

	rr = httptest.NewRecorder()
	h.ServeHTTP(rr, requestFrom("10.0.0.1"))
	assert.Equal(t, http.StatusTooManyRequests, rr.Code, "fallback still enforces the limit")
	assert.Equal(t, 2, primary.calls)
}

func TestDisabled(t *testing.T) {
	primary := &failingStore{}
	m := New(primary, Limit{Requests: 1, Window: time.Minute}, discard(), WithDisabled(true))
	rr := httptest.NewRecorder()
	m.RateLimit(models.ClassWrite)(ok).ServeHTTP(rr, requestFrom("10.0.0.1"))
	assert.Equal(t, http.StatusNoContent, rr.Code)
	assert.Zero(t, primary.calls)
}
