package repository

import (
	"context"
	"time"

	"CoinPulse/internal/domain/models"
)

// PredictionStore is the append-only prediction log. No update or delete.
type PredictionStore interface {
	Init(ctx context.Context) error // ensure tables, health checks
	Append(ctx context.Context, rec *models.PredictionRecord) error
	History(ctx context.Context, days, limit int) ([]*models.PredictionRecord, error)
	Health(ctx context.Context) error
	Close() error
}

// PredictionSink publishes prediction records to a streaming backend.
type PredictionSink interface {
	Publish(ctx context.Context, rec *models.PredictionRecord) error
	Close() error
}

// TradeStore is the trade journal.
type TradeStore interface {
	Init(ctx context.Context) error
	Add(ctx context.Context, t *models.Trade) (uint64, error)
	Get(ctx context.Context, id uint64) (*models.Trade, error)
	List(ctx context.Context, f models.TradeFilter) ([]*models.Trade, int64, error)
	Update(ctx context.Context, t *models.Trade) error
	Delete(ctx context.Context, id uint64) error
	Stats(ctx context.Context, today time.Time) (*models.TradeStats, error)
	Close() error
}

type Metrics interface {
	RecordPredictionServed(cache string)
	RecordSourceFetch(source, status string)
	RecordMessageSent(backend, symbol string)
	RecordError(kind string)
	RecordLastPrice(symbol string, price float64)
	RecordLatency(op string, seconds float64)
}
