package scopus

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	checkTotal    *prometheus.CounterVec
	checkStatus   *prometheus.GaugeVec
	checkDuration prometheus.Histogram

	metricsOnce       sync.Once
	metricsRegistered bool
)

// InitMetrics initializes the credential check Prometheus metrics.
// This should be called once at startup if metrics are enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		checkTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopuswatch_credential_checks_total",
				Help: "Total number of live credential checks performed",
			},
			[]string{"mode", "result"},
		)

		checkStatus = promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "scopuswatch_credential_check_status",
				Help: "Outcome of the most recent credential check (1=passing, 0=failing)",
			},
			[]string{"mode"},
		)

		checkDuration = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "scopuswatch_credential_check_duration_seconds",
				Help:    "Duration of live credential checks",
				Buckets: prometheus.DefBuckets,
			},
		)

		metricsRegistered = true
	})
}

func recordDuration(seconds float64) {
	if !metricsRegistered || checkDuration == nil {
		return
	}
	checkDuration.Observe(seconds)
}

func recordCheck(real, success bool) {
	if !metricsRegistered {
		return
	}

	mode := "candidate"
	if real {
		mode = "real"
	}

	result := "failure"
	value := 0.0
	if success {
		result = "success"
		value = 1.0
	}

	if checkTotal != nil {
		checkTotal.WithLabelValues(mode, result).Inc()
	}
	if checkStatus != nil {
		checkStatus.WithLabelValues(mode).Set(value)
	}
}
