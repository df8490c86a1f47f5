package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus metrics for the sale surface.
type Metrics struct {
	ItemsIssued      prometheus.Counter
	Purchases        prometheus.Counter
	Reservations     prometheus.Counter
	PurchaseFailures *prometheus.CounterVec
	ConfigUpdates    *prometheus.CounterVec
}

// New creates and registers all sale metrics on the default registry.
func New() *Metrics {
	return NewWith(prometheus.DefaultRegisterer)
}

// NewWith registers on a caller-supplied registerer so tests can isolate.
func NewWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ItemsIssued: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropspace_items_issued_total",
			Help: "Total number of items issued across reserve and buy paths",
		}),
		Purchases: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropspace_purchases_total",
			Help: "Total number of successful public purchases",
		}),
		Reservations: factory.NewCounter(prometheus.CounterOpts{
			Name: "dropspace_reservations_total",
			Help: "Total number of successful privileged reservations",
		}),
		PurchaseFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dropspace_purchase_failures_total",
			Help: "Purchase admissions rejected, labeled by failure code",
		}, []string{"reason"}),
		ConfigUpdates: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "dropspace_config_updates_total",
			Help: "Sale configuration writes, labeled by field",
		}, []string{"field"}),
	}
}

// AddItemsIssued bumps the issued counter by a practical item count. Counts
// above the float-safe range are recorded as single batches to avoid skew.
func (m *Metrics) AddItemsIssued(n uint64) {
	if m == nil {
		return
	}
	m.ItemsIssued.Add(float64(n))
}

func (m *Metrics) IncPurchases() {
	if m == nil {
		return
	}
	m.Purchases.Inc()
}

func (m *Metrics) IncReservations() {
	if m == nil {
		return
	}
	m.Reservations.Inc()
}

func (m *Metrics) IncPurchaseFailure(reason string) {
	if m == nil {
		return
	}
	m.PurchaseFailures.WithLabelValues(reason).Inc()
}

func (m *Metrics) IncConfigUpdate(field string) {
	if m == nil {
		return
	}
	m.ConfigUpdates.WithLabelValues(field).Inc()
}
