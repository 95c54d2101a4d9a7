package analytics

import (
	"context"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	"CoinPulse/pkg/logger"
	"CoinPulse/pkg/util"
)

const (
	maxSentimentTexts = 50
	maxTokensPerText  = 512
	sentimentBatch    = 8
)

// HTTPSentimentScorer classifies text batches against the FinBERT inference
// service. Per-text labels are folded into a signed average: positive adds
// the model confidence, negative subtracts it, neutral contributes zero.
// Any transport or service failure degrades to the fixed fallback split.
type HTTPSentimentScorer struct {
	base    *HTTPServiceBase
	log     *logger.Logger
	metrics repository.Metrics
}

func NewHTTPSentimentScorer(base *HTTPServiceBase, log *logger.Logger, m repository.Metrics) *HTTPSentimentScorer {
	return &HTTPSentimentScorer{base: base, log: log, metrics: m}
}

type sentimentBatchRequest struct {
	Texts []string `json:"texts"`
}

type sentimentBatchResponse struct {
	Results []struct {
		Label      string  `json:"label"` // positive, negative, neutral
		Confidence float64 `json:"confidence"`
	} `json:"results"`
}

func (s *HTTPSentimentScorer) Classify(ctx context.Context, texts []string) models.SentimentResult {
	if len(texts) == 0 {
		return models.SentimentResult{}
	}
	if !s.base.Configured() {
		s.log.Warn("sentiment service not configured, using neutral fallback")
		return fallbackSentiment()
	}

	if len(texts) > maxSentimentTexts {
		texts = texts[:maxSentimentTexts]
	}
	truncated := make([]string, len(texts))
	for i, t := range texts {
		truncated[i] = util.TruncateWords(t, maxTokensPerText)
	}

	var (
		scoreSum  float64
		positives int
		negatives int
		neutrals  int
		scored    int
	)
	for start := 0; start < len(truncated); start += sentimentBatch {
		end := start + sentimentBatch
		if end > len(truncated) {
			end = len(truncated)
		}

		var resp sentimentBatchResponse
		err := s.base.PostJSON(ctx, "/sentiment/batch", sentimentBatchRequest{Texts: truncated[start:end]}, &resp)
		if err != nil {
			s.log.Warn("sentiment batch failed", logger.Error(err))
			s.metrics.RecordError("sentiment")
			return fallbackSentiment()
		}

		for _, r := range resp.Results {
			scored++
			switch r.Label {
			case "positive":
				scoreSum += r.Confidence
				positives++
			case "negative":
				scoreSum -= r.Confidence
				negatives++
			default:
				neutrals++
			}
		}
	}

	result := models.SentimentResult{Processed: len(truncated)}
	if scored > 0 {
		result.Average = scoreSum / float64(scored)
	}
	if total := float64(len(truncated)); total > 0 {
		result.PositivePct = float64(positives) / total * 100
		result.NegativePct = float64(negatives) / total * 100
		result.NeutralPct = float64(neutrals) / total * 100
	}

	s.log.Info("sentiment classified",
		logger.Int("texts", len(truncated)),
		logger.Float64("avg", result.Average))
	return result
}

func fallbackSentiment() models.SentimentResult {
	return models.SentimentResult{
		PositivePct: 33,
		NegativePct: 33,
		NeutralPct:  34,
		Fallback:    true,
	}
}
