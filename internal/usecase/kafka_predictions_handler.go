package usecase

import (
	"context"
	"encoding/json"
	"time"

	"CoinPulse/internal/domain/models"
	domrepo "CoinPulse/internal/domain/repository"
	pkgkafka "CoinPulse/pkg/kafka"
)

// KafkaPredictionsHandler consumes prediction records from Kafka and appends
// them to the ClickHouse log. Runs only when the backend is kafka, closing
// the loop between the sink and the store.
type KafkaPredictionsHandler struct {
	topic   string
	store   domrepo.PredictionStore
	metrics domrepo.Metrics
}

func NewKafkaPredictionsHandler(topic string, store domrepo.PredictionStore, metrics domrepo.Metrics) *KafkaPredictionsHandler {
	return &KafkaPredictionsHandler{topic: topic, store: store, metrics: metrics}
}

func (h *KafkaPredictionsHandler) Topic() string { return h.topic }

func (h *KafkaPredictionsHandler) Handle(ctx context.Context, b []byte) error {
	var rec models.PredictionRecord
	if err := json.Unmarshal(b, &rec); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}
	// E2E latency from generation time to persistence.
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(rec.CreatedAt).Seconds())

	start := time.Now()
	err := h.store.Append(ctx, &rec)
	h.metrics.RecordLatency("ch_insert_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_store")
		return err
	}
	h.metrics.RecordMessageSent("clickhouse", rec.Prediction)
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaPredictionsHandler)(nil)
