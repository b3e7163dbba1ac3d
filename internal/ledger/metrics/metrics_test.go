package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveOperation(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.ObserveOperation("mint", "ok", time.Now())
	m.ObserveOperation("mint", "ok", time.Now())
	m.ObserveOperation("mint", "capacity_exceeded", time.Now())

	assert.InDelta(t, 2, testutil.ToFloat64(m.Operations.WithLabelValues("mint", "ok")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Operations.WithLabelValues("mint", "capacity_exceeded")), 0)
	assert.Equal(t, 1, testutil.CollectAndCount(m.OperationDuration))
}

func TestAmounts(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.AddDonated(0.1)
	m.AddDonated(0.1)
	m.AddWithdrawn(0.2)
	m.IncrementMinted("silver")

	assert.InDelta(t, 0.2, testutil.ToFloat64(m.DonatedTotal), 1e-9)
	assert.InDelta(t, 0.2, testutil.ToFloat64(m.WithdrawnTotal), 1e-9)
	assert.InDelta(t, 1, testutil.ToFloat64(m.BadgesMinted.WithLabelValues("silver")), 0)
}

func TestNewRegistersOnce(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	require.Panics(t, func() { New(reg) })
}
