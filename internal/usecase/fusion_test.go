package usecase

import (
	"math"
	"testing"

	"CoinPulse/internal/domain/models"
)

func TestFuseStrongBullish(t *testing.T) {
	got := Fuse(
		models.EnsembleOutput{Score: 2, Confidence: 0.9},
		0.5,
		models.IndicatorSet{Overall: "strong_bullish"},
		models.WhaleActivity{Sentiment: "accumulating"},
		models.AdvancedFeatures{BollingerPosition: 1, StochasticK: 100},
	)

	want := 1.8*0.35 + 0.5*0.25 + 1.0*0.20 + 0.8*0.10 + 0.5*0.05 + 0.3*0.05
	if math.Abs(got.Signal-want) > 1e-9 {
		t.Fatalf("signal = %v, want %v", got.Signal, want)
	}
	if got.Label != "Strong Bullish" {
		t.Fatalf("label = %q, want Strong Bullish", got.Label)
	}
	// Full agreement with a strong signal pins confidence at the cap.
	if got.Confidence != 0.95 {
		t.Fatalf("confidence = %v, want 0.95", got.Confidence)
	}
}

func TestFuseBearishCapsConfidence(t *testing.T) {
	got := Fuse(
		models.EnsembleOutput{Score: -1, Confidence: 0.5},
		-0.3,
		models.IndicatorSet{Overall: "bearish"},
		models.WhaleActivity{Sentiment: "distributing"},
		models.AdvancedFeatures{BollingerPosition: 0.2, StochasticK: 20},
	)

	if got.Label != "Bearish" {
		t.Fatalf("label = %q, want Bearish", got.Label)
	}
	if got.Signal >= -0.2 || got.Signal <= -0.6 {
		t.Fatalf("signal = %v, want inside (-0.6, -0.2)", got.Signal)
	}
	if got.Confidence != 0.85 {
		t.Fatalf("confidence = %v, want the 0.85 cap", got.Confidence)
	}
}

func TestFuseNeutralClampsConfidence(t *testing.T) {
	got := Fuse(
		models.EnsembleOutput{},
		0,
		models.IndicatorSet{Overall: "neutral"},
		models.WhaleActivity{Sentiment: "neutral"},
		models.AdvancedFeatures{BollingerPosition: 0.5, StochasticK: 50},
	)

	if got.Label != "Neutral" {
		t.Fatalf("label = %q, want Neutral", got.Label)
	}
	if got.Signal != 0 {
		t.Fatalf("signal = %v, want 0", got.Signal)
	}
	if got.Confidence < 0.5 || got.Confidence > 0.75 {
		t.Fatalf("neutral confidence = %v, want within [0.5, 0.75]", got.Confidence)
	}
}

func TestFuseDeterministic(t *testing.T) {
	ml := models.EnsembleOutput{Score: 0.7, Confidence: 0.6}
	tech := models.IndicatorSet{Overall: "bullish"}
	whale := models.WhaleActivity{Sentiment: "accumulating"}
	adv := models.AdvancedFeatures{BollingerPosition: 0.7, StochasticK: 60}

	a := Fuse(ml, 0.2, tech, whale, adv)
	b := Fuse(ml, 0.2, tech, whale, adv)
	if a != b {
		t.Fatalf("fusion not deterministic: %+v vs %+v", a, b)
	}
}

func TestSignalValueMappings(t *testing.T) {
	techCases := map[string]float64{
		"strong_bullish": 1.0,
		"bullish":        0.5,
		"neutral":        0,
		"bearish":        -0.5,
		"strong_bearish": -1.0,
		"unknown":        0,
	}
	for overall, want := range techCases {
		if got := technicalSignalValue(overall); got != want {
			t.Errorf("technicalSignalValue(%q) = %v, want %v", overall, got, want)
		}
	}

	whaleCases := map[string]float64{
		"accumulating": 0.8,
		"distributing": -0.8,
		"neutral":      0,
	}
	for sentiment, want := range whaleCases {
		if got := whaleSignalValue(sentiment); got != want {
			t.Errorf("whaleSignalValue(%q) = %v, want %v", sentiment, got, want)
		}
	}
}
