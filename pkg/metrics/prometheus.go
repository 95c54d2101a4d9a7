package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder implements domain.repository.Metrics using Prometheus.
type Recorder struct {
	predictionsServed *prometheus.CounterVec
	sourceFetches     *prometheus.CounterVec
	messagesSent      *prometheus.CounterVec
	errorsTotal       *prometheus.CounterVec
	lastPrice         *prometheus.GaugeVec
	latency           *prometheus.HistogramVec
}

// New creates a new Prometheus metrics recorder.
func New() *Recorder {
	return &Recorder{
		predictionsServed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_predictions_served_total",
				Help: "Total number of prediction responses served",
			},
			[]string{"cache"},
		),
		sourceFetches: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_source_fetches_total",
				Help: "Total number of data source fetch attempts",
			},
			[]string{"source", "status"},
		),
		messagesSent: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_messages_sent_total",
				Help: "Total number of prediction records sent to backend",
			},
			[]string{"backend", "symbol"},
		),
		errorsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "coinpulse_errors_total",
				Help: "Total number of errors encountered",
			},
			[]string{"type"},
		),
		lastPrice: promauto.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "coinpulse_last_price",
				Help: "Last recorded price for a symbol",
			},
			[]string{"symbol"},
		),
		latency: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "coinpulse_operation_duration_seconds",
				Help:    "Duration of operations in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
	}
}

// RecordPredictionServed records a served prediction and whether it came from cache.
func (r *Recorder) RecordPredictionServed(cache string) {
	r.predictionsServed.WithLabelValues(cache).Inc()
}

// RecordSourceFetch records a fetch attempt against an external data source.
func (r *Recorder) RecordSourceFetch(source, status string) {
	r.sourceFetches.WithLabelValues(source, status).Inc()
}

// RecordMessageSent records a prediction record sent to a backend.
func (r *Recorder) RecordMessageSent(backend, symbol string) {
	r.messagesSent.WithLabelValues(backend, symbol).Inc()
}

// RecordError records an error occurrence.
func (r *Recorder) RecordError(kind string) {
	r.errorsTotal.WithLabelValues(kind).Inc()
}

// RecordLastPrice records the last price for a symbol.
func (r *Recorder) RecordLastPrice(symbol string, price float64) {
	r.lastPrice.WithLabelValues(symbol).Set(price)
}

// RecordLatency records operation latency in seconds.
func (r *Recorder) RecordLatency(op string, seconds float64) {
	r.latency.WithLabelValues(op).Observe(seconds)
}
