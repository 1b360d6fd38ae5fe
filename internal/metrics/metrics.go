package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Counters is the observation surface the retry core increments. It is an
// interface so tests can assert transitions without a registry.
type Counters interface {
	IncAutoRetryEligible()
	IncAutoRetryPayment()
	IncAutoRetryExhausted()
	IncAutoRetryGsmMatch()
}

// PrometheusCounters implements Counters over a prometheus registry
type PrometheusCounters struct {
	eligible  prometheus.Counter
	payment   prometheus.Counter
	exhausted prometheus.Counter
	gsmMatch  prometheus.Counter
}

// NewPrometheusCounters registers the retry counters
func NewPrometheusCounters(registry *prometheus.Registry) *PrometheusCounters {
	c := &PrometheusCounters{
		eligible: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auto_retry_eligible_request_count",
			Help: "Requests that entered the auto retry evaluation",
		}),
		payment: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auto_retry_payment_count",
			Help: "Connector invocations issued by the auto retry loop",
		}),
		exhausted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auto_retry_exhausted_count",
			Help: "Requests that ran out of retry budget or connectors",
		}),
		gsmMatch: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "auto_retry_gsm_match_count",
			Help: "Gateway status mapping lookups that produced a decision",
		}),
	}
	registry.MustRegister(c.eligible, c.payment, c.exhausted, c.gsmMatch)
	return c
}

// NewRegistry creates the application's prometheus registry
func NewRegistry() *prometheus.Registry {
	return prometheus.NewRegistry()
}

func (c *PrometheusCounters) IncAutoRetryEligible()  { c.eligible.Inc() }
func (c *PrometheusCounters) IncAutoRetryPayment()   { c.payment.Inc() }
func (c *PrometheusCounters) IncAutoRetryExhausted() { c.exhausted.Inc() }
func (c *PrometheusCounters) IncAutoRetryGsmMatch()  { c.gsmMatch.Inc() }
