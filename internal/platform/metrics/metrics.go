package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the application.
type Metrics struct {
	MembersRegistered    prometheus.Counter
	ItemsListed          prometheus.Counter
	OrdersCreated        prometheus.Counter
	OrdersCompleted      prometheus.Counter
	CheckoutLinesSkipped prometheus.Counter
	RequestDuration      *prometheus.HistogramVec
}

// New creates and registers all Prometheus metrics on the default registry.
func New() *Metrics {
	return newWith(prometheus.DefaultRegisterer)
}

// NewForTest registers metrics on a private registry so parallel tests do not
// collide on duplicate registration.
func NewForTest() *Metrics {
	return newWith(prometheus.NewRegistry())
}

func newWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		MembersRegistered: factory.NewCounter(prometheus.CounterOpts{
			Name: "bazaar_members_registered_total",
			Help: "Total number of members registered.",
		}),
		ItemsListed: factory.NewCounter(prometheus.CounterOpts{
			Name: "bazaar_items_listed_total",
			Help: "Total number of catalog items listed for sale.",
		}),
		OrdersCreated: factory.NewCounter(prometheus.CounterOpts{
			Name: "bazaar_orders_created_total",
			Help: "Total number of orders created at checkout.",
		}),
		OrdersCompleted: factory.NewCounter(prometheus.CounterOpts{
			Name: "bazaar_orders_completed_total",
			Help: "Total number of orders completed after OTP handoff.",
		}),
		CheckoutLinesSkipped: factory.NewCounter(prometheus.CounterOpts{
			Name: "bazaar_checkout_lines_skipped_total",
			Help: "Cart lines skipped during checkout because the item was already sold.",
		}),
		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "bazaar_http_request_duration_seconds",
			Help:    "HTTP request latency by route and status.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),
	}
}

// IncrementOrdersCreated increments the orders created counter by 1.
func (m *Metrics) IncrementOrdersCreated() {
	m.OrdersCreated.Inc()
}
