package usecase

import (
	"math"

	"CoinPulse/internal/domain/models"
)

// Fusion weights over the six base signals: ensemble, sentiment, technical,
// whale, bollinger position, stochastic. Confidence comes from how many
// signals agree with the fused direction.
var fusionWeights = [6]float64{0.35, 0.25, 0.20, 0.10, 0.05, 0.05}

// Fuse combines the base signals into the final labeled prediction. It is a
// pure function of its inputs.
func Fuse(
	ml models.EnsembleOutput,
	combinedSentiment float64,
	tech models.IndicatorSet,
	whale models.WhaleActivity,
	adv models.AdvancedFeatures,
) models.FusedPrediction {
	signals := [6]float64{
		ml.Score * ml.Confidence,
		combinedSentiment,
		technicalSignalValue(tech.Overall),
		whaleSignalValue(whale.Sentiment),
		(adv.BollingerPosition - 0.5) * 2 * 0.5,
		(adv.StochasticK - 50) / 50 * 0.3,
	}

	meta := 0.0
	for i, s := range signals {
		meta += s * fusionWeights[i]
	}

	agreements := 0
	for _, s := range signals {
		if fsign(s) == fsign(meta) {
			agreements++
		}
	}
	confidence := math.Min(0.95, float64(agreements)/float64(len(signals))*(1+math.Abs(meta)*0.3))

	var label string
	switch {
	case meta > 0.6:
		label = "Strong Bullish"
		confidence = math.Min(0.95, confidence*1.1)
	case meta > 0.2:
		label = "Bullish"
		confidence = math.Min(0.85, confidence)
	case meta < -0.6:
		label = "Strong Bearish"
		confidence = math.Min(0.95, confidence*1.1)
	case meta < -0.2:
		label = "Bearish"
		confidence = math.Min(0.85, confidence)
	default:
		label = "Neutral"
		confidence = math.Max(0.5, math.Min(0.75, confidence))
	}

	return models.FusedPrediction{Label: label, Signal: meta, Confidence: confidence}
}

func technicalSignalValue(overall string) float64 {
	switch overall {
	case "strong_bullish":
		return 1.0
	case "bullish":
		return 0.5
	case "strong_bearish":
		return -1.0
	case "bearish":
		return -0.5
	default:
		return 0
	}
}

func whaleSignalValue(sentiment string) float64 {
	switch sentiment {
	case "accumulating":
		return 0.8
	case "distributing":
		return -0.8
	default:
		return 0
	}
}

func fsign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
