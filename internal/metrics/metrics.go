package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the ledger daemon
type Metrics struct {
	// EventsCommitted counts committed journal events by type
	EventsCommitted *prometheus.CounterVec
	// CallsRejected counts rejected calls by operation and error code
	CallsRejected *prometheus.CounterVec
	// CallDuration observes operation latency
	CallDuration *prometheus.HistogramVec
	// JournalSeq tracks the latest committed journal sequence number
	JournalSeq prometheus.Gauge
	// WebhookDeliveries counts webhook delivery attempts by outcome
	WebhookDeliveries *prometheus.CounterVec
}

// New creates and registers the ledger metrics on the default registerer
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith creates the ledger metrics on the given registerer
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		EventsCommitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_events_committed_total",
				Help: "Total number of committed ledger events",
			},
			[]string{"event_type"},
		),

		CallsRejected: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_calls_rejected_total",
				Help: "Total number of rejected ledger calls",
			},
			[]string{"operation", "code"},
		),

		CallDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "ledger_call_duration_seconds",
				Help:    "Duration of ledger call processing",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		JournalSeq: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "ledger_journal_seq",
				Help: "Latest committed journal sequence number",
			},
		),

		WebhookDeliveries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "ledger_webhook_deliveries_total",
				Help: "Total number of webhook delivery attempts",
			},
			[]string{"outcome"},
		),
	}
}
