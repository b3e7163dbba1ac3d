package bucket

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInMemoryBucketStore(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	store := New()
	store.now = func() time.Time { return clock }

	for i := range 3 {
		res, err := store.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2-i, res.Remaining)
	}

	res, err := store.Allow(ctx, "k", 3, time.Minute)
	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 60, res.RetryAfter)

	t.Run("other keys are independent", func(t *testing.T) {
		res, err := store.Allow(ctx, "other", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})

	t.Run("window slides", func(t *testing.T) {
		clock = clock.Add(time.Minute + time.Millisecond)
		res, err := store.Allow(ctx, "k", 3, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
		assert.Equal(t, 2, res.Remaining)
	})

	t.Run("reset", func(t *testing.T) {
		require.NoError(t, store.Reset(ctx, "k"))
		res, err := store.Allow(ctx, "k", 1, time.Minute)
		require.NoError(t, err)
		assert.True(t, res.Allowed)
	})
}
