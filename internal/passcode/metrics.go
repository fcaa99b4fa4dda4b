package passcode

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	passcodeIssuedTotal *prometheus.CounterVec
	passcodeChecksTotal *prometheus.CounterVec
	passcodeResetsTotal prometheus.Counter

	metricsOnce       sync.Once
	metricsRegistered bool
)

// InitMetrics initializes the passcode Prometheus metrics.
// This should be called once at startup if metrics are enabled.
func InitMetrics() {
	metricsOnce.Do(func() {
		passcodeIssuedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopuswatch_passcode_issued_total",
				Help: "Total number of one-time passcodes issued",
			},
			[]string{},
		)

		passcodeChecksTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "scopuswatch_passcode_checks_total",
				Help: "Total number of passcode validation attempts",
			},
			[]string{"result"},
		)

		passcodeResetsTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "scopuswatch_passcode_resets_total",
				Help: "Total number of passcode resets (access window closed)",
			},
		)

		metricsRegistered = true
	})
}

func recordIssued() {
	if !metricsRegistered || passcodeIssuedTotal == nil {
		return
	}
	passcodeIssuedTotal.WithLabelValues().Inc()
}

func recordCheck(valid bool) {
	if !metricsRegistered || passcodeChecksTotal == nil {
		return
	}
	result := "invalid"
	if valid {
		result = "valid"
	}
	passcodeChecksTotal.WithLabelValues(result).Inc()
}

func recordReset() {
	if !metricsRegistered || passcodeResetsTotal == nil {
		return
	}
	passcodeResetsTotal.Inc()
}
