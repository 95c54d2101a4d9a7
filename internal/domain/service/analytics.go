package service

import (
	"context"

	"CoinPulse/internal/domain/models"
)

// NewsFetcher collects recent crypto news articles.
type NewsFetcher interface {
	Fetch(ctx context.Context) []models.Article
}

// MarketDataClient provides price snapshots and daily history.
type MarketDataClient interface {
	Snapshot(ctx context.Context, coinID string) models.PriceSnapshot
	History(ctx context.Context, coinID string, days int) models.OHLCSeries
}

// WhaleWatcher summarizes large on-chain transfers.
type WhaleWatcher interface {
	Activity(ctx context.Context) models.WhaleActivity
}

// SocialFetcher collects recent social posts about crypto.
type SocialFetcher interface {
	Fetch(ctx context.Context) []models.SocialPost
}

// SentimentScorer classifies texts into a signed average plus a breakdown.
type SentimentScorer interface {
	Classify(ctx context.Context, texts []string) models.SentimentResult
}

// EnsemblePredictor runs the model committee over a feature bundle.
type EnsemblePredictor interface {
	Predict(ctx context.Context, features models.FeatureBundle) models.EnsembleOutput
}

// Summarizer produces the one-paragraph market summary.
type Summarizer interface {
	Summarize(ctx context.Context, resp *models.MarketPredictionResponse, headlines []string) string
}

// LastPriceSource exposes the freshest known price for a symbol.
type LastPriceSource interface {
	LastPrice(symbol string) (float64, bool)
}
