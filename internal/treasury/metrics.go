package treasury

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for fund routing.
type Metrics struct {
	PayoutsRouted  prometheus.Counter
	PayoutFailures prometheus.Counter
	Sweeps         prometheus.Counter
}

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		PayoutsRouted: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropspace_payouts_routed_total",
			Help: "Successful beneficiary splits",
		}),
		PayoutFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropspace_payout_failures_total",
			Help: "Beneficiary splits that failed and were compensated",
		}),
		Sweeps: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropspace_sweeps_total",
			Help: "Manual balance sweeps executed",
		}),
	}
}

func (m *Metrics) incRouted() {
	if m == nil {
		return
	}
	m.PayoutsRouted.Inc()
}

func (m *Metrics) incFailure() {
	if m == nil {
		return
	}
	m.PayoutFailures.Inc()
}

func (m *Metrics) incSweep() {
	if m == nil {
		return
	}
	m.Sweeps.Inc()
}
