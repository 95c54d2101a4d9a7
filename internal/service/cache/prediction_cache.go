package cache

import (
	"context"
	"encoding/json"
	"time"

	"CoinPulse/internal/domain/models"
	pkgcache "CoinPulse/pkg/cache"
)

const predictionKey = "market-prediction:enhanced"

// PredictionCache is the single-entry TTL cache in front of the prediction
// cycle. A fresh entry short-circuits all source fetching. Entries are stored
// as JSON strings so memory, redis and layered backends behave the same.
type PredictionCache struct {
	ttl time.Duration
	c   pkgcache.Service
}

func NewPredictionCache(svc pkgcache.Service, ttl time.Duration) *PredictionCache {
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &PredictionCache{ttl: ttl, c: svc}
}

func (p *PredictionCache) Get(ctx context.Context) (*models.MarketPredictionResponse, bool) {
	var raw string
	if err := p.c.Get(ctx, predictionKey, &raw); err != nil {
		return nil, false
	}
	var resp models.MarketPredictionResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return nil, false
	}
	return &resp, true
}

// Set replaces the cached response and restarts the TTL.
func (p *PredictionCache) Set(ctx context.Context, resp *models.MarketPredictionResponse) {
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	_ = p.c.Set(ctx, predictionKey, string(raw), p.ttl)
}
