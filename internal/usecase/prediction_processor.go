package usecase

import (
	"context"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
)

// PredictionProcessor routes finished prediction records to the configured
// backend: straight into ClickHouse, or onto Kafka for a downstream consumer.
type PredictionProcessor struct {
	sink    drepo.PredictionSink
	store   drepo.PredictionStore
	metrics drepo.Metrics
	backend string
}

func NewPredictionProcessor(sink drepo.PredictionSink, store drepo.PredictionStore, metrics drepo.Metrics, backend string) *PredictionProcessor {
	return &PredictionProcessor{
		sink:    sink,
		store:   store,
		metrics: metrics,
		backend: backend,
	}
}

func (p *PredictionProcessor) Process(ctx context.Context, rec *models.PredictionRecord) error {
	if rec == nil {
		return fmt.Errorf("prediction record is nil")
	}

	start := time.Now()
	var err error
	switch p.backend {
	case "kafka":
		err = p.sink.Publish(ctx, rec)
	case "clickhouse":
		err = p.store.Append(ctx, rec)
	default:
		err = fmt.Errorf("unknown backend: %s", p.backend)
	}

	if err != nil {
		p.metrics.RecordError("process")
		return fmt.Errorf("process prediction: %w", err)
	}

	p.metrics.RecordMessageSent(p.backend, rec.Prediction)
	p.metrics.RecordLatency("process", time.Since(start).Seconds())
	return nil
}

// Close closes underlying resources if available.
func (p *PredictionProcessor) Close() {
	if p.sink != nil {
		_ = p.sink.Close()
	}
	if p.store != nil {
		_ = p.store.Close()
	}
}
