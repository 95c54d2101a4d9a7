package usecase

import (
	"context"
	"testing"

	"CoinPulse/internal/domain/models"
)

type fakeSink struct {
	published []*models.PredictionRecord
	closed    bool
}

func (f *fakeSink) Publish(_ context.Context, rec *models.PredictionRecord) error {
	f.published = append(f.published, rec)
	return nil
}

func (f *fakeSink) Close() error {
	f.closed = true
	return nil
}

func TestProcessorKafkaBackend(t *testing.T) {
	sink := &fakeSink{}
	store := &fakePredictionStore{}
	p := NewPredictionProcessor(sink, store, nopMetrics{}, "kafka")

	rec := &models.PredictionRecord{Prediction: "Bullish"}
	if err := p.Process(context.Background(), rec); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(sink.published) != 1 {
		t.Fatalf("sink received %d records, want 1", len(sink.published))
	}
	if len(store.records) != 0 {
		t.Fatalf("store should be untouched on the kafka backend")
	}
}

func TestProcessorClickHouseBackend(t *testing.T) {
	store := &fakePredictionStore{}
	p := NewPredictionProcessor(nil, store, nopMetrics{}, "clickhouse")

	rec := &models.PredictionRecord{Prediction: "Neutral"}
	if err := p.Process(context.Background(), rec); err != nil {
		t.Fatalf("process: %v", err)
	}

	if len(store.records) != 1 || store.records[0].Prediction != "Neutral" {
		t.Fatalf("store records = %+v, want the processed record", store.records)
	}
}

func TestProcessorRejectsNilRecord(t *testing.T) {
	p := NewPredictionProcessor(nil, &fakePredictionStore{}, nopMetrics{}, "clickhouse")
	if err := p.Process(context.Background(), nil); err == nil {
		t.Fatalf("expected error for nil record")
	}
}

func TestProcessorUnknownBackend(t *testing.T) {
	p := NewPredictionProcessor(nil, &fakePredictionStore{}, nopMetrics{}, "postgres")
	if err := p.Process(context.Background(), &models.PredictionRecord{}); err == nil {
		t.Fatalf("expected error for unknown backend")
	}
}

func TestProcessorCloseClosesSink(t *testing.T) {
	sink := &fakeSink{}
	p := NewPredictionProcessor(sink, &fakePredictionStore{}, nopMetrics{}, "kafka")
	p.Close()
	if !sink.closed {
		t.Fatalf("sink not closed")
	}
}
