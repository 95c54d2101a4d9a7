package analytics

import (
	"context"
	"math"
	"sync"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	"CoinPulse/pkg/logger"
)

// Committee weights. They are intentionally not renormalized when a model is
// missing: a thinner committee yields a proportionally smaller score.
const (
	weightGRU          = 0.35
	weightXGBoost      = 0.30
	weightRandomForest = 0.20
	weightSentiment    = 0.15
)

// ModelScorer produces one model's expected 24h move (percent) for a
// feature bundle.
type ModelScorer interface {
	Name() string
	Weight() float64
	Score(ctx context.Context, features models.FeatureBundle) (float64, error)
}

type modelPredictRequest struct {
	RSI               float64 `json:"rsi"`
	MACD              float64 `json:"macd"`
	BollingerPosition float64 `json:"bollinger_position"`
	StochasticK       float64 `json:"stochastic_k"`
	Return1d          float64 `json:"return_1d"`
	Return7d          float64 `json:"return_7d"`
	Return30d         float64 `json:"return_30d"`
	Volatility7d      float64 `json:"volatility_7d"`
	Volatility30d     float64 `json:"volatility_30d"`
	SentimentScore    float64 `json:"sentiment_score"`
	WhaleNetFlowUSD   float64 `json:"whale_net_flow_usd"`
	TrendSignal       float64 `json:"trend_signal"`
}

type modelPredictResponse struct {
	Prediction float64 `json:"prediction"`
}

// HTTPModelScorer scores through one endpoint of the model service.
type HTTPModelScorer struct {
	base   *HTTPServiceBase
	name   string
	weight float64
}

func NewHTTPModelScorer(base *HTTPServiceBase, name string, weight float64) *HTTPModelScorer {
	return &HTTPModelScorer{base: base, name: name, weight: weight}
}

func (s *HTTPModelScorer) Name() string    { return s.name }
func (s *HTTPModelScorer) Weight() float64 { return s.weight }

func (s *HTTPModelScorer) Score(ctx context.Context, f models.FeatureBundle) (float64, error) {
	var resp modelPredictResponse
	err := s.base.PostJSON(ctx, "/models/"+s.name+"/predict", modelPredictRequest{
		RSI:               f.RSI,
		MACD:              f.MACD,
		BollingerPosition: f.BollingerPosition,
		StochasticK:       f.StochasticK,
		Return1d:          f.Return1d,
		Return7d:          f.Return7d,
		Return30d:         f.Return30d,
		Volatility7d:      f.Volatility7d,
		Volatility30d:     f.Volatility30d,
		SentimentScore:    f.SentimentScore,
		WhaleNetFlowUSD:   f.WhaleNetFlowUSD,
		TrendSignal:       f.TrendSignal,
	}, &resp)
	if err != nil {
		return 0, err
	}
	return resp.Prediction, nil
}

// DefaultScorers builds the GRU, XGBoost and random-forest scorers against
// the shared model-service base.
func DefaultScorers(base *HTTPServiceBase) []ModelScorer {
	return []ModelScorer{
		NewHTTPModelScorer(base, "gru", weightGRU),
		NewHTTPModelScorer(base, "xgboost", weightXGBoost),
		NewHTTPModelScorer(base, "random_forest", weightRandomForest),
	}
}

type modelStatusResponse struct {
	Models map[string]bool `json:"models"`
}

// EnsembleService runs the model committee. The committee counts as trained
// only when every scorer's model reports ready; the check runs once per
// process. An untrained committee answers from sentiment alone, and a trained
// committee whose scorers all fail at predict time degrades the same way but
// reports it distinctly.
type EnsembleService struct {
	base    *HTTPServiceBase
	scorers []ModelScorer
	log     *logger.Logger
	metrics repository.Metrics

	probeOnce sync.Once
	trained   bool
}

func NewEnsembleService(base *HTTPServiceBase, scorers []ModelScorer, log *logger.Logger, m repository.Metrics) *EnsembleService {
	return &EnsembleService{base: base, scorers: scorers, log: log, metrics: m}
}

func (e *EnsembleService) isTrained(ctx context.Context) bool {
	e.probeOnce.Do(func() {
		if !e.base.Configured() {
			return
		}
		var status modelStatusResponse
		if err := e.base.PostJSONWithRetry(ctx, "/models/status", struct{}{}, &status, 2); err != nil {
			e.log.Warn("model status probe failed", logger.Error(err))
			return
		}
		for _, s := range e.scorers {
			if !status.Models[s.Name()] {
				e.log.Warn("model not ready", logger.String("model", s.Name()))
				return
			}
		}
		e.trained = true
		e.log.Info("model committee ready", logger.Int("models", len(e.scorers)))
	})
	return e.trained
}

func (e *EnsembleService) Predict(ctx context.Context, features models.FeatureBundle) models.EnsembleOutput {
	if !e.isTrained(ctx) {
		return e.fallback(features, "sentiment_only")
	}

	perModel := make(map[string]float64, len(e.scorers)+1)
	var weighted float64
	preds := make([]float64, 0, len(e.scorers)+1)

	for _, s := range e.scorers {
		pred, err := s.Score(ctx, features)
		if err != nil {
			e.log.Warn("model scorer failed", logger.String("model", s.Name()), logger.Error(err))
			e.metrics.RecordError("ensemble")
			continue
		}
		perModel[s.Name()] = pred
		weighted += pred * s.Weight()
		preds = append(preds, pred)
	}

	if len(preds) == 0 {
		return e.fallback(features, "sentiment_based")
	}

	sentimentPred := sentimentComponent(features)
	perModel["sentiment"] = sentimentPred
	weighted += sentimentPred * weightSentiment
	preds = append(preds, sentimentPred)

	variance := 0.1
	std := 1.0
	if len(preds) >= 2 {
		sd := stddev(preds)
		variance = sd * sd
		std = sd
	}

	out := models.EnsembleOutput{
		Score:       weighted,
		Direction:   ensembleDirection(weighted),
		Confidence:  1 / (1 + variance),
		RangeLow:    weighted - 1.96*std,
		RangeHigh:   weighted + 1.96*std,
		ModelStatus: "ensemble_active",
		PerModel:    perModel,
	}
	e.log.Info("ensemble prediction",
		logger.Float64("score", out.Score),
		logger.String("direction", out.Direction),
		logger.Int("models", len(preds)))
	return out
}

// fallback answers from sentiment, whale flow direction and trend alone.
func (e *EnsembleService) fallback(features models.FeatureBundle, status string) models.EnsembleOutput {
	score := sentimentComponent(features)

	direction := "neutral"
	confidence := 0.5
	if score > 0.3 {
		direction = "bullish"
		confidence = math.Min(0.7, 0.5+math.Abs(score)*0.2)
	} else if score < -0.3 {
		direction = "bearish"
		confidence = math.Min(0.7, 0.5+math.Abs(score)*0.2)
	}

	e.log.Info("ensemble fallback",
		logger.String("status", status),
		logger.Float64("score", score))
	return models.EnsembleOutput{
		Score:       score,
		Direction:   direction,
		Confidence:  confidence,
		RangeLow:    score - 0.5,
		RangeHigh:   score + 0.5,
		ModelStatus: status,
		PerModel:    map[string]float64{"sentiment": score},
	}
}

// Whale flow uses the same strict +-10M USD bands as the whale summary;
// exactly +-10M and anything inside the band is neutral.
const whaleFlowBandUSD = 10_000_000

func sentimentComponent(f models.FeatureBundle) float64 {
	return 0.4*f.SentimentScore + 0.3*whaleSign(f.WhaleNetFlowUSD) + 0.3*sign(f.TrendSignal)
}

func whaleSign(netFlowUSD float64) float64 {
	switch {
	case netFlowUSD > whaleFlowBandUSD:
		return 1
	case netFlowUSD < -whaleFlowBandUSD:
		return -1
	default:
		return 0
	}
}

func ensembleDirection(score float64) string {
	switch {
	case score > 2:
		return "strong_bullish"
	case score > 0:
		return "bullish"
	case score < -2:
		return "strong_bearish"
	case score < 0:
		return "bearish"
	default:
		return "neutral"
	}
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
