package requestcontext

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	id "badgeledger/pkg/domain"
)

func TestRequestTime(t *testing.T) {
	t.Run("injected time is truncated to storage precision", func(t *testing.T) {
		at := time.Date(2026, 5, 1, 9, 0, 0, 123456789, time.UTC)
		got := Now(WithTime(context.Background(), at))
		assert.Equal(t, time.Date(2026, 5, 1, 9, 0, 0, 123456000, time.UTC), got)
	})

	t.Run("cooldown arithmetic survives a storage round trip", func(t *testing.T) {
		first := Now(WithTime(context.Background(), time.Date(2026, 5, 1, 9, 0, 0, 999999999, time.UTC)))
		stored := first.Round(TimePrecision)
		second := Now(WithTime(context.Background(), first.Add(5*time.Minute)))
		assert.Equal(t, first, stored)
		assert.Equal(t, 5*time.Minute, second.Sub(stored))
	})

	t.Run("fallback clock has storage precision", func(t *testing.T) {
		now := Now(context.Background())
		assert.Zero(t, now.Nanosecond()%int(TimePrecision))
	})
}

func TestCallerValues(t *testing.T) {
	ctx := context.Background()
	assert.True(t, Account(ctx).IsZero())
	assert.Nil(t, Roles(ctx))

	caller := id.MustAccount("0x1111111111111111111111111111111111111111")
	ctx = WithRoles(WithAccount(ctx, caller), []string{"treasurer"})
	assert.Equal(t, caller, Account(ctx))
	assert.Equal(t, []string{"treasurer"}, Roles(ctx))
}
