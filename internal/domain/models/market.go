package models

import "time"

// PriceSnapshot is the latest market state for one coin from the REST snapshot.
type PriceSnapshot struct {
	CoinID       string
	Symbol       string
	PriceUSD     float64
	Change1h     float64
	Change24h    float64
	Change7d     float64
	Change30d    float64
	Volume24h    float64
	MarketCap    float64
	Sparkline7d  []float64
	Mock         bool
}

// OHLC is a single candle of the daily history series.
type OHLC struct {
	Time  time.Time
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// OHLCSeries is an ordered (oldest first) daily candle series.
type OHLCSeries struct {
	CoinID  string
	Candles []OHLC
}

// Closes returns the close prices in series order.
func (s OHLCSeries) Closes() []float64 {
	out := make([]float64, len(s.Candles))
	for i, c := range s.Candles {
		out[i] = c.Close
	}
	return out
}

// IndicatorSet holds computed technical indicators plus the derived signals.
type IndicatorSet struct {
	SMA20          float64
	SMA50          float64
	EMA12          float64
	MACD           float64
	MACDSignal     float64
	RSI            float64
	StochasticK    float64
	BollingerUpper float64
	BollingerLower float64
	BollingerWidth float64
	ATR            float64
	OBV            float64
	VWAP           float64
	Volatility     float64
	Returns1d      float64
	Returns7d      float64

	// Signals derived from the values above.
	Signals        map[string]string
	Overall        string // strong_bullish, bullish, neutral, bearish, strong_bearish
	SignalStrength float64
	Mock           bool
}

// AdvancedFeatures are the model-facing features derived from the close series.
type AdvancedFeatures struct {
	BollingerPosition float64 // [0,1], 0.5 when bands collapse
	StochasticK       float64 // 50 when the window is flat
	Return1d          float64 // percent
	Return7d          float64
	Return30d         float64
	Volatility7d      float64 // percent
	Volatility30d     float64
}

// WhaleTransfer is a single large on-chain movement.
type WhaleTransfer struct {
	Symbol    string
	AmountUSD float64
	From      string
	To        string
	Timestamp time.Time
}

// WhaleActivity summarizes exchange in/out flows over the last hour.
type WhaleActivity struct {
	NetFlowUSD    float64 // outflows minus inflows
	InflowUSD     float64
	OutflowUSD    float64
	Sentiment     string // accumulating, distributing, neutral
	TransferCount int
	Transfers     []WhaleTransfer // at most 10
	Mock          bool
}

// Article is a normalized news item from the RSS feeds.
type Article struct {
	Title     string    `json:"title"`
	Link      string    `json:"link"`
	Source    string    `json:"source"`
	Summary   string    `json:"summary,omitempty"`
	Published time.Time `json:"published"`
}

// SocialPost is a normalized post from Twitter or Reddit.
type SocialPost struct {
	Text   string
	Source string // twitter, reddit
	Score  int    // upvotes / likes when available
	Mock   bool
}
