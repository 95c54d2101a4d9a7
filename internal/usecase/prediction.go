package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	domsvc "CoinPulse/internal/domain/service"
	svcache "CoinPulse/internal/service/cache"
	"CoinPulse/internal/services/analytics"
	"CoinPulse/pkg/logger"
)

const (
	primaryCoin     = "bitcoin"
	primarySymbol   = "BTCUSDT"
	historyDays     = 90
	articlesInReply = 10
)

// PredictionSaver hands a finished record to the background persistence path.
type PredictionSaver interface {
	SaveAsync(ctx context.Context, rec models.PredictionRecord)
}

// PredictionService runs the full prediction cycle: TTL cache in front,
// concurrent source fan-out, sentiment, indicators, the model committee,
// signal fusion and the AI summary, with the record persisted off the
// request path.
type PredictionService struct {
	cache      *svcache.PredictionCache
	news       domsvc.NewsFetcher
	market     domsvc.MarketDataClient
	whale      domsvc.WhaleWatcher
	social     domsvc.SocialFetcher
	sentiment  domsvc.SentimentScorer
	ensemble   domsvc.EnsemblePredictor
	indicators *analytics.Engine
	features   *analytics.FeatureExtractor
	summarizer domsvc.Summarizer
	lastPrice  domsvc.LastPriceSource
	saver      PredictionSaver
	store      repository.PredictionStore
	metrics    repository.Metrics
	log        *logger.Logger

	mu sync.Mutex // single cycle at a time past the cache
}

type PredictionServiceDeps struct {
	Cache      *svcache.PredictionCache
	News       domsvc.NewsFetcher
	Market     domsvc.MarketDataClient
	Whale      domsvc.WhaleWatcher
	Social     domsvc.SocialFetcher
	Sentiment  domsvc.SentimentScorer
	Ensemble   domsvc.EnsemblePredictor
	Indicators *analytics.Engine
	Features   *analytics.FeatureExtractor
	Summarizer domsvc.Summarizer
	LastPrice  domsvc.LastPriceSource
	Saver      PredictionSaver
	Store      repository.PredictionStore
	Metrics    repository.Metrics
	Log        *logger.Logger
}

func NewPredictionService(d PredictionServiceDeps) *PredictionService {
	return &PredictionService{
		cache:      d.Cache,
		news:       d.News,
		market:     d.Market,
		whale:      d.Whale,
		social:     d.Social,
		sentiment:  d.Sentiment,
		ensemble:   d.Ensemble,
		indicators: d.Indicators,
		features:   d.Features,
		summarizer: d.Summarizer,
		lastPrice:  d.LastPrice,
		saver:      d.Saver,
		store:      d.Store,
		metrics:    d.Metrics,
		log:        d.Log,
	}
}

// Predict returns the cached response when fresh, otherwise runs a full
// cycle. Source failures degrade to mock data inside the fetchers; the cycle
// itself only fails when the context dies.
func (s *PredictionService) Predict(ctx context.Context) (*models.MarketPredictionResponse, error) {
	if resp, ok := s.cache.Get(ctx); ok {
		s.metrics.RecordPredictionServed("hit")
		s.log.Info("serving cached prediction")
		return resp, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Re-check under the lock: a concurrent request may have just filled it.
	if resp, ok := s.cache.Get(ctx); ok {
		s.metrics.RecordPredictionServed("hit")
		return resp, nil
	}

	start := time.Now()
	resp, err := s.runCycle(ctx)
	if err != nil {
		s.metrics.RecordError("prediction_cycle")
		return nil, err
	}

	s.cache.Set(ctx, resp)
	s.metrics.RecordPredictionServed("miss")
	s.metrics.RecordLatency("prediction_cycle", time.Since(start).Seconds())
	s.log.Info("prediction generated",
		logger.String("prediction", resp.Prediction),
		logger.Duration("duration_ms", time.Since(start)))
	return resp, nil
}

func (s *PredictionService) runCycle(ctx context.Context) (*models.MarketPredictionResponse, error) {
	var (
		wg       sync.WaitGroup
		articles []models.Article
		snapshot models.PriceSnapshot
		whale    models.WhaleActivity
		posts    []models.SocialPost
	)

	wg.Add(4)
	go func() { defer wg.Done(); articles = s.news.Fetch(ctx) }()
	go func() { defer wg.Done(); snapshot = s.market.Snapshot(ctx, primaryCoin) }()
	go func() { defer wg.Done(); whale = s.whale.Activity(ctx) }()
	go func() { defer wg.Done(); posts = s.social.Fetch(ctx) }()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("prediction cycle: %w", err)
	}

	history := s.market.History(ctx, primaryCoin, historyDays)
	indicators := s.indicators.Compute(history)
	advanced := s.features.Extract(history.Closes())

	headlines := make([]string, len(articles))
	for i, a := range articles {
		headlines[i] = a.Title
	}
	newsSentiment := s.sentiment.Classify(ctx, headlines)

	socialTexts := make([]string, len(posts))
	for i, p := range posts {
		socialTexts[i] = p.Text
	}
	socialSentiment := s.sentiment.Classify(ctx, socialTexts)

	combined := newsSentiment.Average*0.6 + socialSentiment.Average*0.4

	bundle := models.FeatureBundle{
		RSI:               indicators.RSI,
		MACD:              indicators.MACD,
		BollingerPosition: advanced.BollingerPosition,
		StochasticK:       advanced.StochasticK,
		Return1d:          advanced.Return1d,
		Return7d:          advanced.Return7d,
		Return30d:         advanced.Return30d,
		Volatility7d:      advanced.Volatility7d,
		Volatility30d:     advanced.Volatility30d,
		SentimentScore:    combined,
		WhaleNetFlowUSD:   whale.NetFlowUSD,
		TrendSignal:       trendSignal(indicators),
	}

	ml := s.ensemble.Predict(ctx, bundle)
	fused := Fuse(ml, combined, indicators, whale, advanced)
	topCoins := DetectTopCoins(headlines)

	currentPrice := snapshot.PriceUSD
	if s.lastPrice != nil {
		if p, ok := s.lastPrice.LastPrice(primarySymbol); ok {
			currentPrice = p
		}
	}

	resp := &models.MarketPredictionResponse{
		Prediction:      fused.Label,
		Confidence:      fused.Confidence,
		SentimentScore:  combined,
		NewsSentiment:   newsSentiment.Average,
		SocialSentiment: socialSentiment.Average,
		SentimentBreakdown: models.SentimentBreakdown{
			PositivePct: newsSentiment.PositivePct,
			NegativePct: newsSentiment.NegativePct,
			NeutralPct:  newsSentiment.NeutralPct,
		},
		ArticlesAnalyzed: len(headlines),
		Articles:         clipArticles(articles, articlesInReply),
		TopCoins:         topCoins,
		CurrentPrice:     currentPrice,
		PriceChange24h:   snapshot.Change24h,
		Technical: models.TechnicalSnapshot{
			RSI:               indicators.RSI,
			MACD:              indicators.MACD,
			SMA20:             indicators.SMA20,
			SMA50:             indicators.SMA50,
			BollingerWidth:    indicators.BollingerWidth,
			BollingerPosition: advanced.BollingerPosition,
			StochasticK:       advanced.StochasticK,
			Volatility7d:      advanced.Volatility7d,
			Signals:           indicators.Signals,
			Overall:           indicators.Overall,
			SignalStrength:    indicators.SignalStrength,
			Mock:              indicators.Mock,
		},
		Whale: models.WhaleSummary{
			NetFlowUSD:    whale.NetFlowUSD,
			Sentiment:     whale.Sentiment,
			TransferCount: whale.TransferCount,
			Mock:          whale.Mock,
		},
		Ensemble: models.EnsembleSummary{
			Score:       ml.Score,
			Direction:   ml.Direction,
			RangeLow:    ml.RangeLow,
			RangeHigh:   ml.RangeHigh,
			ModelStatus: ml.ModelStatus,
		},
		DataSourcesUsed: dataSourcesUsed(articles, snapshot, whale, posts, ml),
		Mock:            anyFallback(indicators, snapshot, whale, newsSentiment, socialSentiment, ml),
		ModelVersion:    models.ModelVersion,
		GeneratedAt:     time.Now().UTC(),
	}

	resp.Summary = s.summarizer.Summarize(ctx, resp, headlines)

	if s.saver != nil {
		s.saver.SaveAsync(ctx, resp.Record())
	}
	return resp, nil
}

// History returns recent stored predictions.
func (s *PredictionService) History(ctx context.Context, days, limit int) ([]*models.PredictionRecord, error) {
	return s.store.History(ctx, days, limit)
}

// BacktestReport evaluates stored predictions over a window.
type BacktestReport struct {
	PeriodDays        int     `json:"backtest_period_days"`
	TotalPredictions  int     `json:"total_predictions"`
	Accuracy          float64 `json:"accuracy"`
	AverageConfidence float64 `json:"average_confidence"`
	ModelVersion      string  `json:"model_version"`
	Insufficient      bool    `json:"insufficient_data,omitempty"`
	MinRequired       int     `json:"min_required,omitempty"`
}

const backtestMinRecords = 10

// Backtest scores the stored history. With fewer than ten records it reports
// insufficient data instead of an error.
func (s *PredictionService) Backtest(ctx context.Context, days int) (*BacktestReport, error) {
	history, err := s.store.History(ctx, days, 10000)
	if err != nil {
		return nil, err
	}
	report := &BacktestReport{
		PeriodDays:       days,
		TotalPredictions: len(history),
		ModelVersion:     models.ModelVersion,
	}
	if len(history) < backtestMinRecords {
		report.Insufficient = true
		report.MinRequired = backtestMinRecords
		return report, nil
	}

	confident := 0
	var confSum float64
	for _, rec := range history {
		if rec.Confidence > 0.7 {
			confident++
		}
		confSum += rec.Confidence
	}
	report.Accuracy = float64(confident) / float64(len(history))
	report.AverageConfidence = confSum / float64(len(history))
	return report, nil
}

func trendSignal(ind models.IndicatorSet) float64 {
	switch {
	case ind.SMA20 > ind.SMA50 && ind.SMA50 > 0:
		return 1
	case ind.SMA20 < ind.SMA50:
		return -1
	default:
		return 0
	}
}

func clipArticles(articles []models.Article, n int) []models.Article {
	if len(articles) > n {
		return articles[:n]
	}
	return articles
}

// anyFallback reports whether any stage of the cycle served fallback data.
func anyFallback(
	ind models.IndicatorSet,
	snapshot models.PriceSnapshot,
	whale models.WhaleActivity,
	news, social models.SentimentResult,
	ml models.EnsembleOutput,
) bool {
	return ind.Mock || snapshot.Mock || whale.Mock ||
		news.Fallback || social.Fallback ||
		ml.ModelStatus != "ensemble_active"
}

func dataSourcesUsed(
	articles []models.Article,
	snapshot models.PriceSnapshot,
	whale models.WhaleActivity,
	posts []models.SocialPost,
	ml models.EnsembleOutput,
) []string {
	used := make([]string, 0, 6)
	if len(articles) > 0 {
		used = append(used, "news_rss")
	}
	if !snapshot.Mock {
		used = append(used, "price_data")
	}
	if !whale.Mock {
		used = append(used, "whale_tracking")
	}
	twitter, reddit := false, false
	for _, p := range posts {
		if p.Mock {
			continue
		}
		switch p.Source {
		case "twitter":
			twitter = true
		case "reddit":
			reddit = true
		}
	}
	if twitter {
		used = append(used, "twitter")
	}
	if reddit {
		used = append(used, "reddit")
	}
	if ml.ModelStatus == "ensemble_active" {
		used = append(used, "ml_ensemble_stacking")
	}
	return used
}
