package analytics

import (
	"math"
	"testing"
)

func TestExtractEmptySeriesDefaults(t *testing.T) {
	feats := NewFeatureExtractor().Extract(nil)

	if feats.BollingerPosition != 0.5 {
		t.Fatalf("bollinger position = %v, want 0.5", feats.BollingerPosition)
	}
	if feats.StochasticK != 50 {
		t.Fatalf("stochastic = %v, want 50", feats.StochasticK)
	}
	if feats.Return7d != 0 || feats.Volatility7d != 0 {
		t.Fatalf("returns/volatility should be zero on empty input")
	}
}

func TestExtractFlatSeriesStaysNeutral(t *testing.T) {
	feats := NewFeatureExtractor().Extract(linearCloses(100, 0, 40))

	// Collapsed bands and a flat stochastic window keep the defaults.
	if feats.BollingerPosition != 0.5 {
		t.Fatalf("bollinger position = %v, want 0.5 on flat series", feats.BollingerPosition)
	}
	if feats.StochasticK != 50 {
		t.Fatalf("stochastic = %v, want 50 on flat series", feats.StochasticK)
	}
	if feats.Volatility7d != 0 || feats.Volatility30d != 0 {
		t.Fatalf("flat series volatility should be zero")
	}
}

func TestExtractRisingSeries(t *testing.T) {
	feats := NewFeatureExtractor().Extract(linearCloses(1, 1, 40))

	if feats.BollingerPosition <= 0.8 {
		t.Fatalf("bollinger position = %v, want near the upper band", feats.BollingerPosition)
	}
	if feats.StochasticK != 100 {
		t.Fatalf("stochastic = %v, want 100 when current is the window high", feats.StochasticK)
	}

	// close went 39 -> 40
	want1d := (40.0/39.0 - 1) * 100
	if math.Abs(feats.Return1d-want1d) > 1e-9 {
		t.Fatalf("return 1d = %v, want %v", feats.Return1d, want1d)
	}
	want7d := (40.0/33.0 - 1) * 100
	if math.Abs(feats.Return7d-want7d) > 1e-9 {
		t.Fatalf("return 7d = %v, want %v", feats.Return7d, want7d)
	}
	want30d := (40.0/10.0 - 1) * 100
	if math.Abs(feats.Return30d-want30d) > 1e-9 {
		t.Fatalf("return 30d = %v, want %v", feats.Return30d, want30d)
	}
	if feats.Volatility7d <= 0 {
		t.Fatalf("volatility 7d = %v, want positive", feats.Volatility7d)
	}
}

func TestExtractShortSeriesSkipsLongWindows(t *testing.T) {
	feats := NewFeatureExtractor().Extract(linearCloses(100, 2, 10))

	if feats.Return30d != 0 || feats.Volatility30d != 0 {
		t.Fatalf("30d features should be zero for a 10-point series")
	}
	if feats.Return7d == 0 {
		t.Fatalf("7d return should be computed for a 10-point series")
	}
	// Fewer than 20 points keeps the bollinger default.
	if feats.BollingerPosition != 0.5 {
		t.Fatalf("bollinger position = %v, want 0.5", feats.BollingerPosition)
	}
}
