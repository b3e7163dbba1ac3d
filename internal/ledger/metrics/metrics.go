package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for ledger operations.
// Tracks outcomes per operation, latency, escrow flow and outbox lag.
type Metrics struct {
	Operations        *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec
	BadgesMinted      *prometheus.CounterVec
	DonatedTotal      prometheus.Counter
	WithdrawnTotal    prometheus.Counter
	EventsPublished   prometheus.Counter
	PublishFailures   prometheus.Counter
	OutboxBacklog     prometheus.Gauge
}

// New registers the ledger metrics with reg. Pass prometheus.DefaultRegisterer
// in production and a fresh registry in tests.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		Operations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "badgeledger_operations_total",
			Help: "Ledger operations by name and outcome code",
		}, []string{"operation", "outcome"}),
		OperationDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "badgeledger_operation_duration_seconds",
			Help:    "Duration of ledger operations including the transaction",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"operation"}),
		BadgesMinted: f.NewCounterVec(prometheus.CounterOpts{
			Name: "badgeledger_badges_minted_total",
			Help: "Badges minted by tier",
		}, []string{"tier"}),
		DonatedTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "badgeledger_donated_amount_total",
			Help: "Sum of donations credited to escrow, in the native unit",
		}),
		WithdrawnTotal: f.NewCounter(prometheus.CounterOpts{
			Name: "badgeledger_withdrawn_amount_total",
			Help: "Sum of escrow withdrawals, in the native unit",
		}),
		EventsPublished: f.NewCounter(prometheus.CounterOpts{
			Name: "badgeledger_events_published_total",
			Help: "Outbox events delivered to the publisher",
		}),
		PublishFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "badgeledger_event_publish_failures_total",
			Help: "Failed outbox publish attempts",
		}),
		OutboxBacklog: f.NewGauge(prometheus.GaugeOpts{
			Name: "badgeledger_outbox_backlog",
			Help: "Events fetched but not yet published in the last relay pass",
		}),
	}
}

// ObserveOperation records the outcome and duration of one operation.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveOperation(op, outcome string, start time.Time) {
	m.Operations.WithLabelValues(op, outcome).Inc()
	m.OperationDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
}

func (m *Metrics) IncrementMinted(tier string) {
	m.BadgesMinted.WithLabelValues(tier).Inc()
}

// AddDonated adds a donation amount. Amounts are exported as float64 and are
// approximate; the ledger itself keeps exact decimals.
func (m *Metrics) AddDonated(amount float64) {
	m.DonatedTotal.Add(amount)
}

func (m *Metrics) AddWithdrawn(amount float64) {
	m.WithdrawnTotal.Add(amount)
}
