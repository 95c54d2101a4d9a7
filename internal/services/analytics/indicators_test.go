package analytics

import (
	"math"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
)

func seriesFromCloses(closes []float64) models.OHLCSeries {
	s := models.OHLCSeries{CoinID: "bitcoin"}
	day := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i, c := range closes {
		s.Candles = append(s.Candles, models.OHLC{
			Time:  day.AddDate(0, 0, i),
			Open:  c,
			High:  c + 1,
			Low:   c - 1,
			Close: c,
		})
	}
	return s
}

func linearCloses(start, step float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = start + step*float64(i)
	}
	return out
}

func TestComputeShortSeriesReturnsMock(t *testing.T) {
	e := NewEngine()
	set := e.Compute(seriesFromCloses(linearCloses(100, 1, 5)))

	if !set.Mock {
		t.Fatalf("expected mock set for 5 candles")
	}
	if set.RSI != 50 || set.Overall != "neutral" {
		t.Fatalf("mock set = rsi %v overall %q, want 50/neutral", set.RSI, set.Overall)
	}
	if set.Signals["trend"] != "neutral" {
		t.Fatalf("mock trend = %q", set.Signals["trend"])
	}
}

func TestComputeNonPositiveCloseReturnsMock(t *testing.T) {
	closes := linearCloses(100, 1, 30)
	closes[10] = 0
	set := NewEngine().Compute(seriesFromCloses(closes))
	if !set.Mock {
		t.Fatalf("expected mock set when a close is zero")
	}
}

func TestComputeUptrend(t *testing.T) {
	set := NewEngine().Compute(seriesFromCloses(linearCloses(100, 1, 60)))

	if set.Mock {
		t.Fatalf("unexpected mock set")
	}
	if set.SMA20 <= set.SMA50 {
		t.Fatalf("sma20 %v should exceed sma50 %v in an uptrend", set.SMA20, set.SMA50)
	}
	if set.Signals["trend"] != "bullish" {
		t.Fatalf("trend = %q, want bullish", set.Signals["trend"])
	}
	if set.RSI != 100 {
		t.Fatalf("rsi = %v, want 100 for a gain-only series", set.RSI)
	}
	if set.Signals["momentum"] != "overbought" {
		t.Fatalf("momentum = %q, want overbought", set.Signals["momentum"])
	}
	// trend +1, overbought -0.5, no MACD crossover on a steady ramp.
	if set.Overall != "bullish" {
		t.Fatalf("overall = %q, want bullish", set.Overall)
	}
}

func TestComputeDowntrend(t *testing.T) {
	set := NewEngine().Compute(seriesFromCloses(linearCloses(200, -1, 60)))

	if set.Signals["trend"] != "bearish" {
		t.Fatalf("trend = %q, want bearish", set.Signals["trend"])
	}
	if set.RSI != 0 {
		t.Fatalf("rsi = %v, want 0 for a loss-only series", set.RSI)
	}
	if set.Signals["momentum"] != "oversold" {
		t.Fatalf("momentum = %q, want oversold", set.Signals["momentum"])
	}
	if set.Overall != "bearish" {
		t.Fatalf("overall = %q, want bearish", set.Overall)
	}
}

func TestSignalStrengthBounds(t *testing.T) {
	for _, closes := range [][]float64{
		linearCloses(100, 1, 60),
		linearCloses(200, -1, 60),
		linearCloses(150, 0.001, 60),
	} {
		set := NewEngine().Compute(seriesFromCloses(closes))
		if set.SignalStrength < 0.1 || set.SignalStrength > 0.9 {
			t.Fatalf("signal strength %v out of [0.1, 0.9]", set.SignalStrength)
		}
	}
}

func TestOverallSignalThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{1.5, "strong_bullish"},
		{0.5, "bullish"},
		{0, "neutral"},
		{-0.5, "bearish"},
		{-1.5, "strong_bearish"},
	}
	for _, c := range cases {
		if got := overallSignal(c.score); got != c.want {
			t.Errorf("overallSignal(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}

func TestRSIFlatSeries(t *testing.T) {
	if got := rsi(linearCloses(100, 0, 30), 14); got != 100 {
		// Zero losses short-circuit before the ratio.
		t.Fatalf("rsi flat = %v, want 100", got)
	}
}

func TestPercentile(t *testing.T) {
	values := []float64{1, 2, 3, 4}
	if got := percentile(values, 0.5); math.Abs(got-2.5) > 1e-9 {
		t.Fatalf("median = %v, want 2.5", got)
	}
	if got := percentile(nil, 0.75); got != 0 {
		t.Fatalf("empty percentile = %v, want 0", got)
	}
}
