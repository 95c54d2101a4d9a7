package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ModelCallLatency = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "coinpulse",
			Subsystem: "model_service",
			Name:      "latency_seconds",
			Help:      "Latency of model service calls",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"endpoint"},
	)

	ModelCallErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "coinpulse",
			Subsystem: "model_service",
			Name:      "errors_total",
			Help:      "Errors by model service endpoint",
		},
		[]string{"endpoint"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ModelCallLatency, ModelCallErrors)
	})
}

// ObserveCall records one model service round trip.
func ObserveCall(endpoint string, seconds float64, err error) {
	ModelCallLatency.WithLabelValues(endpoint).Observe(seconds)
	if err != nil {
		ModelCallErrors.WithLabelValues(endpoint).Inc()
	}
}
