package analytics

import (
	"math"
	"sort"

	"CoinPulse/internal/domain/models"
)

const minSeriesPoints = 20

// Engine computes technical indicators and categorical signals from a daily
// OHLC series. Compute is pure and never errors: series shorter than 20
// points, or any internal inconsistency, yield the fixed neutral mock set.
type Engine struct{}

func NewEngine() *Engine { return &Engine{} }

func (e *Engine) Compute(series models.OHLCSeries) models.IndicatorSet {
	n := len(series.Candles)
	if n < minSeriesPoints {
		return mockIndicatorSet()
	}

	closes := make([]float64, n)
	highs := make([]float64, n)
	lows := make([]float64, n)
	for i, c := range series.Candles {
		closes[i] = c.Close
		highs[i] = c.High
		lows[i] = c.Low
		if c.Close <= 0 {
			return mockIndicatorSet()
		}
	}

	ema12 := emaSeries(closes, 12)
	ema26 := emaSeries(closes, 26)
	macdDiff := macdDiffSeries(ema12, ema26)
	bbWidths := bollingerWidthSeries(closes, 20)

	upper, lower, width := bollingerAt(closes, 20, len(closes)-1)

	set := models.IndicatorSet{
		SMA20:          sma(closes, 20),
		SMA50:          sma(closes, 50),
		EMA12:          last(ema12),
		MACD:           last(macdDiff),
		RSI:            rsi(closes, 14),
		StochasticK:    stochasticK(highs, lows, closes, 14, 3),
		BollingerUpper: upper,
		BollingerLower: lower,
		BollingerWidth: width,
		ATR:            atr(highs, lows, closes, 14),
		// Daily OHLC carries no volume, so OBV stays zero and VWAP
		// degenerates to the close.
		OBV:        0,
		VWAP:       closes[n-1],
		Volatility: stddev(pctChanges(closes, 14)),
		Returns1d:  pctChange(closes, 1),
		Returns7d:  pctChange(closes, 7),
	}

	e.applySignals(&set, macdDiff, bbWidths)
	return set
}

// applySignals derives the categorical signals and the accumulator score.
func (e *Engine) applySignals(set *models.IndicatorSet, macdDiff, bbWidths []float64) {
	signals := map[string]string{
		"trend":      "neutral",
		"momentum":   "neutral",
		"volatility": "normal",
		"volume":     "neutral",
	}
	score := 0.0

	if set.SMA20 > set.SMA50 && set.SMA50 > 0 {
		signals["trend"] = "bullish"
		score++
	} else if set.SMA20 < set.SMA50 {
		signals["trend"] = "bearish"
		score--
	}

	if set.RSI > 70 {
		signals["momentum"] = "overbought"
		score -= 0.5
	} else if set.RSI < 30 {
		signals["momentum"] = "oversold"
		score += 0.5
	}

	// MACD zero-line crossover against the previous bar.
	if len(macdDiff) >= 2 {
		curr, prev := macdDiff[len(macdDiff)-1], macdDiff[len(macdDiff)-2]
		if curr > 0 && prev <= 0 {
			score++
		} else if curr < 0 && prev >= 0 {
			score--
		}
	}

	if p75 := percentile(bbWidths, 0.75); p75 > 0 {
		ratio := set.BollingerWidth / p75
		if ratio > 1.2 {
			signals["volatility"] = "high"
		} else if ratio < 0.8 {
			signals["volatility"] = "low"
		}
	}

	set.Signals = signals
	set.Overall = overallSignal(score)
	set.SignalStrength = clamp(0.5+0.1*score, 0.1, 0.9)
}

func overallSignal(score float64) string {
	switch {
	case score > 1:
		return "strong_bullish"
	case score > 0:
		return "bullish"
	case score < -1:
		return "strong_bearish"
	case score < 0:
		return "bearish"
	default:
		return "neutral"
	}
}

func mockIndicatorSet() models.IndicatorSet {
	return models.IndicatorSet{
		RSI:            50,
		StochasticK:    50,
		SignalStrength: 0.5,
		Overall:        "neutral",
		Signals: map[string]string{
			"trend":      "neutral",
			"momentum":   "neutral",
			"volatility": "normal",
			"volume":     "neutral",
		},
		Mock: true,
	}
}

// --- series math ---

func last(s []float64) float64 {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

func sma(values []float64, window int) float64 {
	if len(values) < window || window <= 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values[len(values)-window:] {
		sum += v
	}
	return sum / float64(window)
}

// emaSeries seeds with the SMA of the first window, then applies the
// standard recursive smoothing.
func emaSeries(values []float64, window int) []float64 {
	if len(values) < window {
		return nil
	}
	out := make([]float64, len(values))
	seed := 0.0
	for _, v := range values[:window] {
		seed += v
	}
	seed /= float64(window)
	k := 2.0 / float64(window+1)

	for i := range values {
		if i < window-1 {
			out[i] = values[i]
			continue
		}
		if i == window-1 {
			out[i] = seed
			continue
		}
		out[i] = values[i]*k + out[i-1]*(1-k)
	}
	return out
}

// macdDiffSeries returns MACD histogram values: (ema12-ema26) minus its 9-EMA.
func macdDiffSeries(ema12, ema26 []float64) []float64 {
	if len(ema12) == 0 || len(ema12) != len(ema26) {
		return nil
	}
	line := make([]float64, len(ema12))
	for i := range line {
		line[i] = ema12[i] - ema26[i]
	}
	signal := emaSeries(line, 9)
	if signal == nil {
		return nil
	}
	diff := make([]float64, len(line))
	for i := range diff {
		diff[i] = line[i] - signal[i]
	}
	return diff
}

func rsi(values []float64, window int) float64 {
	if len(values) <= window {
		return 50
	}
	var gains, losses float64
	for i := 1; i <= window; i++ {
		d := values[i] - values[i-1]
		if d > 0 {
			gains += d
		} else {
			losses -= d
		}
	}
	avgGain := gains / float64(window)
	avgLoss := losses / float64(window)

	// Wilder smoothing over the remainder of the series.
	for i := window + 1; i < len(values); i++ {
		d := values[i] - values[i-1]
		gain, loss := 0.0, 0.0
		if d > 0 {
			gain = d
		} else {
			loss = -d
		}
		avgGain = (avgGain*float64(window-1) + gain) / float64(window)
		avgLoss = (avgLoss*float64(window-1) + loss) / float64(window)
	}

	if avgLoss == 0 {
		return 100
	}
	rs := avgGain / avgLoss
	return 100 - 100/(1+rs)
}

// stochasticK computes %K over `window` highs/lows, smoothed by an SMA of
// `smooth` raw values.
func stochasticK(highs, lows, closes []float64, window, smooth int) float64 {
	n := len(closes)
	if n < window+smooth-1 {
		return 50
	}
	raw := make([]float64, 0, smooth)
	for s := 0; s < smooth; s++ {
		end := n - s
		hi := math.Inf(-1)
		lo := math.Inf(1)
		for _, h := range highs[end-window : end] {
			hi = math.Max(hi, h)
		}
		for _, l := range lows[end-window : end] {
			lo = math.Min(lo, l)
		}
		if hi == lo {
			raw = append(raw, 50)
			continue
		}
		raw = append(raw, (closes[end-1]-lo)/(hi-lo)*100)
	}
	sum := 0.0
	for _, v := range raw {
		sum += v
	}
	return sum / float64(len(raw))
}

func bollingerAt(values []float64, window, idx int) (upper, lower, width float64) {
	if idx+1 < window {
		return 0, 0, 0
	}
	slice := values[idx+1-window : idx+1]
	mid := 0.0
	for _, v := range slice {
		mid += v
	}
	mid /= float64(window)
	sd := stddevAround(slice, mid)
	upper = mid + 2*sd
	lower = mid - 2*sd
	if mid != 0 {
		width = (upper - lower) / mid * 100
	}
	return upper, lower, width
}

func bollingerWidthSeries(values []float64, window int) []float64 {
	if len(values) < window {
		return nil
	}
	out := make([]float64, 0, len(values)-window+1)
	for i := window - 1; i < len(values); i++ {
		_, _, w := bollingerAt(values, window, i)
		out = append(out, w)
	}
	return out
}

func atr(highs, lows, closes []float64, window int) float64 {
	n := len(closes)
	if n <= window {
		return 0
	}
	trs := make([]float64, 0, n-1)
	for i := 1; i < n; i++ {
		tr := math.Max(highs[i]-lows[i],
			math.Max(math.Abs(highs[i]-closes[i-1]), math.Abs(lows[i]-closes[i-1])))
		trs = append(trs, tr)
	}
	// Wilder smoothing.
	avg := 0.0
	for _, v := range trs[:window] {
		avg += v
	}
	avg /= float64(window)
	for _, v := range trs[window:] {
		avg = (avg*float64(window-1) + v) / float64(window)
	}
	return avg
}

func pctChange(values []float64, periods int) float64 {
	n := len(values)
	if n <= periods || values[n-1-periods] == 0 {
		return 0
	}
	return values[n-1]/values[n-1-periods] - 1
}

func pctChanges(values []float64, window int) []float64 {
	n := len(values)
	if n < 2 {
		return nil
	}
	start := n - window - 1
	if start < 0 {
		start = 0
	}
	out := make([]float64, 0, window)
	for i := start + 1; i < n; i++ {
		if values[i-1] == 0 {
			continue
		}
		out = append(out, values[i]/values[i-1]-1)
	}
	return out
}

func stddev(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	mean := 0.0
	for _, v := range values {
		mean += v
	}
	mean /= float64(len(values))
	return stddevAround(values, mean)
}

func stddevAround(values []float64, mean float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sum := 0.0
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)))
}

func percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	idx := p * float64(len(sorted)-1)
	lo := int(math.Floor(idx))
	hi := int(math.Ceil(idx))
	if lo == hi {
		return sorted[lo]
	}
	frac := idx - float64(lo)
	return sorted[lo]*(1-frac) + sorted[hi]*frac
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
