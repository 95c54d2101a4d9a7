package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	pkgch "CoinPulse/pkg/clickhouse"
	applogger "CoinPulse/pkg/logger"
)

const predictionsTable = "market_predictions"

var predictionSchema = []string{
	`CREATE TABLE IF NOT EXISTS market_predictions (
        created_at        DateTime,
        prediction        String,
        confidence        Float64,
        sentiment_score   Float64,
        summary           String,
        articles_analyzed UInt32,
        positive_pct      Float64,
        negative_pct      Float64,
        neutral_pct       Float64,
        top_coins         String,
        data_sources      String,
        model_version     String
    ) ENGINE = MergeTree()
    PARTITION BY toYYYYMM(created_at)
    ORDER BY created_at
    TTL created_at + INTERVAL 1 YEAR`,
}

// CHPredictionStore is the append-only prediction log in ClickHouse.
// Records are never updated or deleted; retention is handled by table TTL.
type CHPredictionStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger
}

func NewCHPredictionStore(ch *pkgch.Client, l *applogger.Logger) *CHPredictionStore {
	return &CHPredictionStore{client: ch, db: ch.DB(), l: l}
}

func (s *CHPredictionStore) Init(ctx context.Context) error {
	if err := s.client.InitSchema(ctx, predictionSchema); err != nil {
		return fmt.Errorf("init prediction schema: %w", err)
	}
	return nil
}

func (s *CHPredictionStore) Append(ctx context.Context, rec *models.PredictionRecord) error {
	start := time.Now()

	topCoins, err := json.Marshal(rec.TopCoins)
	if err != nil {
		return fmt.Errorf("marshal top coins: %w", err)
	}
	sources, err := json.Marshal(rec.DataSources)
	if err != nil {
		return fmt.Errorf("marshal data sources: %w", err)
	}

	const q = `INSERT INTO market_predictions
        (created_at, prediction, confidence, sentiment_score, summary,
         articles_analyzed, positive_pct, negative_pct, neutral_pct,
         top_coins, data_sources, model_version)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	_, err = s.db.ExecContext(ctx, q,
		rec.CreatedAt,
		rec.Prediction,
		rec.Confidence,
		rec.SentimentScore,
		rec.Summary,
		uint32(rec.ArticlesAnalyzed),
		rec.PositivePct,
		rec.NegativePct,
		rec.NeutralPct,
		string(topCoins),
		string(sources),
		rec.ModelVersion,
	)
	if err != nil {
		s.l.Error("clickhouse prediction insert error", applogger.Error(err))
		return fmt.Errorf("append prediction: %w", err)
	}

	s.l.Info("prediction appended",
		applogger.String("prediction", rec.Prediction),
		applogger.Duration("duration_ms", time.Since(start)))
	return nil
}

func (s *CHPredictionStore) History(ctx context.Context, days, limit int) ([]*models.PredictionRecord, error) {
	const q = `SELECT created_at, prediction, confidence, sentiment_score, summary,
               articles_analyzed, positive_pct, negative_pct, neutral_pct,
               top_coins, data_sources, model_version
        FROM market_predictions
        WHERE created_at >= now() - INTERVAL ? DAY
        ORDER BY created_at DESC
        LIMIT ?`
	rows, err := s.db.QueryContext(ctx, q, days, limit)
	if err != nil {
		s.l.Error("clickhouse prediction history query error", applogger.Error(err))
		return nil, fmt.Errorf("prediction history: %w", err)
	}
	defer rows.Close()

	out := make([]*models.PredictionRecord, 0, limit)
	for rows.Next() {
		var (
			rec      models.PredictionRecord
			articles uint32
			topCoins string
			sources  string
		)
		if err := rows.Scan(
			&rec.CreatedAt, &rec.Prediction, &rec.Confidence, &rec.SentimentScore,
			&rec.Summary, &articles, &rec.PositivePct, &rec.NegativePct,
			&rec.NeutralPct, &topCoins, &sources, &rec.ModelVersion,
		); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		rec.ArticlesAnalyzed = int(articles)
		if topCoins != "" {
			_ = json.Unmarshal([]byte(topCoins), &rec.TopCoins)
		}
		if sources != "" {
			_ = json.Unmarshal([]byte(sources), &rec.DataSources)
		}
		out = append(out, &rec)
	}
	return out, rows.Err()
}

func (s *CHPredictionStore) Health(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *CHPredictionStore) Close() error {
	return nil // connection owned by pkg client
}
