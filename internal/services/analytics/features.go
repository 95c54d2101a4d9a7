package analytics

import (
	"math"

	"CoinPulse/internal/domain/models"
)

// FeatureExtractor derives the model-facing features from a close-price
// series. Every feature has a neutral default so short series never produce
// NaN inputs for the ensemble.
type FeatureExtractor struct{}

func NewFeatureExtractor() *FeatureExtractor { return &FeatureExtractor{} }

func (f *FeatureExtractor) Extract(closes []float64) models.AdvancedFeatures {
	feats := models.AdvancedFeatures{
		BollingerPosition: 0.5,
		StochasticK:       50,
	}
	n := len(closes)
	if n == 0 {
		return feats
	}
	current := closes[n-1]

	if n >= 20 {
		window := closes[n-20:]
		mid := 0.0
		for _, v := range window {
			mid += v
		}
		mid /= 20
		sd := stddevAround(window, mid)
		upper := mid + 2*sd
		lower := mid - 2*sd
		if upper != lower {
			feats.BollingerPosition = (current - lower) / (upper - lower)
		}
	}

	if n >= 14 {
		hi := math.Inf(-1)
		lo := math.Inf(1)
		for _, v := range closes[n-14:] {
			hi = math.Max(hi, v)
			lo = math.Min(lo, v)
		}
		if hi != lo {
			feats.StochasticK = (current - lo) / (hi - lo) * 100
		}
	}

	if n >= 7 {
		feats.Return1d = pctChange(closes, 1) * 100
		feats.Return7d = pctChange(closes, 7) * 100
		feats.Volatility7d = stddev(lastPctChanges(closes, 7)) * 100
	}
	if n >= 30 {
		feats.Return30d = pctChange(closes, 30) * 100
		feats.Volatility30d = stddev(lastPctChanges(closes, 30)) * 100
	}

	return feats
}

// lastPctChanges returns the trailing `count` day-over-day returns.
func lastPctChanges(values []float64, count int) []float64 {
	n := len(values)
	if n < 2 {
		return nil
	}
	start := n - count
	if start < 1 {
		start = 1
	}
	out := make([]float64, 0, count)
	for i := start; i < n; i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}
