package obs

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	domainOnce sync.Once

	// PricingPassTotal counts pricing passes by outcome.
	PricingPassTotal *prometheus.CounterVec
	// PricingWarningTotal counts non-blocking warnings emitted by the engine.
	PricingWarningTotal prometheus.Counter
	// PricingRulesApplied records how many rule contributions a pass produced.
	PricingRulesApplied prometheus.Histogram
	// PricingPassDuration records pricing pass latency in milliseconds.
	PricingPassDuration prometheus.Histogram
)

// MustRegisterDomainMetrics initialises and registers domain-specific Prometheus collectors.
func MustRegisterDomainMetrics(namespace string, reg prometheus.Registerer) {
	domainOnce.Do(func() {
		if reg == nil {
			reg = prometheus.DefaultRegisterer
		}
		PricingPassTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_pass_total",
			Help:      "Count of pricing passes by outcome.",
		}, []string{"result"})
		PricingWarningTotal = prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "pricing_warnings_total",
			Help:      "Count of non-blocking warnings attached to pricing results.",
		})
		PricingRulesApplied = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_rules_applied",
			Help:      "Distribution of rule contributions per pricing pass.",
			Buckets:   []float64{0, 1, 2, 3, 5, 8, 13, 21},
		})
		PricingPassDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "pricing_pass_duration_ms",
			Help:      "Pricing pass latency distribution in milliseconds.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		})
		reg.MustRegister(PricingPassTotal, PricingWarningTotal, PricingRulesApplied, PricingPassDuration)
	})
}
