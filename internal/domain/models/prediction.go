package models

import "time"

// ModelVersion identifies the prediction pipeline generation.
const ModelVersion = "v3.0-stacking-transformer"

// SentimentResult is the outcome of classifying a batch of texts.
type SentimentResult struct {
	Average     float64 // mean signed score in [-1, 1]
	PositivePct float64
	NegativePct float64
	NeutralPct  float64
	Processed   int
	Fallback    bool // inference service missing or failed
}

// FeatureBundle carries the named model inputs for the ensemble.
// Missing upstream data is represented by neutral values, never NaN.
type FeatureBundle struct {
	RSI               float64
	MACD              float64
	BollingerPosition float64
	StochasticK       float64
	Return1d          float64
	Return7d          float64
	Return30d         float64
	Volatility7d      float64
	Volatility30d     float64
	SentimentScore    float64
	WhaleNetFlowUSD   float64
	TrendSignal       float64 // +1 sma20>sma50, -1 below, 0 unknown
}

// EnsembleOutput is the weighted model committee result.
type EnsembleOutput struct {
	Score       float64 // expected 24h move, percent
	Direction   string  // strong_bullish, bullish, neutral, bearish, strong_bearish
	Confidence  float64
	RangeLow    float64
	RangeHigh   float64
	ModelStatus string // ensemble_active, sentiment_based, sentiment_only
	PerModel    map[string]float64
}

// FusedPrediction is the final label after signal fusion.
type FusedPrediction struct {
	Label      string  // Strong Bullish, Bullish, Neutral, Bearish, Strong Bearish
	Signal     float64 // weighted fused signal in [-1, 1]
	Confidence float64
}

// TopCoin is a coin ranked by news mentions.
type TopCoin struct {
	Symbol   string `json:"symbol"`
	Mentions int    `json:"mentions"`
}

// PredictionRecord is the append-only persisted form of one cycle result.
type PredictionRecord struct {
	Prediction       string    `json:"prediction"`
	Confidence       float64   `json:"confidence"`
	SentimentScore   float64   `json:"sentiment_score"`
	Summary          string    `json:"summary"`
	ArticlesAnalyzed int       `json:"articles_analyzed"`
	PositivePct      float64   `json:"positive_pct"`
	NegativePct      float64   `json:"negative_pct"`
	NeutralPct       float64   `json:"neutral_pct"`
	TopCoins         []TopCoin `json:"top_coins"`
	DataSources      []string  `json:"data_sources"`
	ModelVersion     string    `json:"model_version"`
	CreatedAt        time.Time `json:"created_at"`
}

// SentimentBreakdown is the percentage split over processed texts.
type SentimentBreakdown struct {
	PositivePct float64 `json:"positive_pct"`
	NegativePct float64 `json:"negative_pct"`
	NeutralPct  float64 `json:"neutral_pct"`
}

// TechnicalSnapshot is the indicator view embedded in the API response.
type TechnicalSnapshot struct {
	RSI               float64           `json:"rsi"`
	MACD              float64           `json:"macd"`
	SMA20             float64           `json:"sma_20"`
	SMA50             float64           `json:"sma_50"`
	BollingerWidth    float64           `json:"bollinger_width"`
	BollingerPosition float64           `json:"bollinger_position"`
	StochasticK       float64           `json:"stochastic_k"`
	Volatility7d      float64           `json:"volatility_7d"`
	Signals           map[string]string `json:"signals"`
	Overall           string            `json:"overall"`
	SignalStrength    float64           `json:"signal_strength"`
	Mock              bool              `json:"mock"`
}

// WhaleSummary is the whale view embedded in the API response.
type WhaleSummary struct {
	NetFlowUSD    float64 `json:"net_flow_usd"`
	Sentiment     string  `json:"sentiment"`
	TransferCount int     `json:"transfer_count"`
	Mock          bool    `json:"mock"`
}

// EnsembleSummary is the model committee view embedded in the API response.
type EnsembleSummary struct {
	Score       float64 `json:"score"`
	Direction   string  `json:"direction"`
	RangeLow    float64 `json:"range_low"`
	RangeHigh   float64 `json:"range_high"`
	ModelStatus string  `json:"model_status"`
}

// MarketPredictionResponse is the full enhanced-prediction payload.
type MarketPredictionResponse struct {
	Prediction         string             `json:"prediction"`
	Confidence         float64            `json:"confidence"`
	SentimentScore     float64            `json:"sentiment_score"`
	NewsSentiment      float64            `json:"news_sentiment"`
	SocialSentiment    float64            `json:"social_sentiment"`
	SentimentBreakdown SentimentBreakdown `json:"sentiment_breakdown"`
	Summary            string             `json:"summary"`
	ArticlesAnalyzed   int                `json:"articles_analyzed"`
	Articles           []Article          `json:"articles"`
	TopCoins           []TopCoin          `json:"top_coins"`
	CurrentPrice       float64            `json:"current_price"`
	PriceChange24h     float64            `json:"price_change_24h"`
	Technical          TechnicalSnapshot  `json:"technical"`
	Whale              WhaleSummary       `json:"whale"`
	Ensemble           EnsembleSummary    `json:"ensemble"`
	DataSourcesUsed    []string           `json:"data_sources_used"`
	ModelVersion       string             `json:"model_version"`
	GeneratedAt        time.Time          `json:"generated_at"`
	Mock               bool               `json:"mock"`
}

// Record converts a response into its persisted form.
func (r *MarketPredictionResponse) Record() PredictionRecord {
	return PredictionRecord{
		Prediction:       r.Prediction,
		Confidence:       r.Confidence,
		SentimentScore:   r.SentimentScore,
		Summary:          r.Summary,
		ArticlesAnalyzed: r.ArticlesAnalyzed,
		PositivePct:      r.SentimentBreakdown.PositivePct,
		NegativePct:      r.SentimentBreakdown.NegativePct,
		NeutralPct:       r.SentimentBreakdown.NeutralPct,
		TopCoins:         r.TopCoins,
		DataSources:      r.DataSourcesUsed,
		ModelVersion:     r.ModelVersion,
		CreatedAt:        r.GeneratedAt,
	}
}
