package usecase

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
	svcache "CoinPulse/internal/service/cache"
	"CoinPulse/internal/services/analytics"
	pkgcache "CoinPulse/pkg/cache"
	"CoinPulse/pkg/logger"
)

type nopMetrics struct{}

func (nopMetrics) RecordPredictionServed(string)    {}
func (nopMetrics) RecordSourceFetch(string, string) {}
func (nopMetrics) RecordMessageSent(string, string) {}
func (nopMetrics) RecordError(string)               {}
func (nopMetrics) RecordLastPrice(string, float64)  {}
func (nopMetrics) RecordLatency(string, float64)    {}

func testLogger(t *testing.T) *logger.Logger {
	t.Helper()
	l, err := logger.New(&logger.Config{Level: "error", Format: "json", Output: "stderr"})
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	return l
}

type fakeNews struct {
	calls    int64
	articles []models.Article
}

func (f *fakeNews) Fetch(context.Context) []models.Article {
	atomic.AddInt64(&f.calls, 1)
	return f.articles
}

type fakeMarket struct {
	snapshot models.PriceSnapshot
	history  models.OHLCSeries
}

func (f *fakeMarket) Snapshot(context.Context, string) models.PriceSnapshot { return f.snapshot }
func (f *fakeMarket) History(context.Context, string, int) models.OHLCSeries {
	return f.history
}

type fakeWhale struct{ activity models.WhaleActivity }

func (f *fakeWhale) Activity(context.Context) models.WhaleActivity { return f.activity }

type fakeSocial struct{ posts []models.SocialPost }

func (f *fakeSocial) Fetch(context.Context) []models.SocialPost { return f.posts }

type fakeSentiment struct{ result models.SentimentResult }

func (f *fakeSentiment) Classify(_ context.Context, texts []string) models.SentimentResult {
	r := f.result
	r.Processed = len(texts)
	return r
}

type fakeEnsemble struct{ out models.EnsembleOutput }

func (f *fakeEnsemble) Predict(context.Context, models.FeatureBundle) models.EnsembleOutput {
	return f.out
}

type fakeSummarizer struct{}

func (fakeSummarizer) Summarize(context.Context, *models.MarketPredictionResponse, []string) string {
	return "test summary"
}

type captureSaver struct {
	calls int64
	last  models.PredictionRecord
}

func (c *captureSaver) SaveAsync(_ context.Context, rec models.PredictionRecord) {
	atomic.AddInt64(&c.calls, 1)
	c.last = rec
}

type fakePredictionStore struct{ records []*models.PredictionRecord }

func (f *fakePredictionStore) Init(context.Context) error { return nil }
func (f *fakePredictionStore) Append(_ context.Context, rec *models.PredictionRecord) error {
	f.records = append(f.records, rec)
	return nil
}
func (f *fakePredictionStore) History(_ context.Context, _ int, limit int) ([]*models.PredictionRecord, error) {
	if len(f.records) > limit {
		return f.records[:limit], nil
	}
	return f.records, nil
}
func (f *fakePredictionStore) Health(context.Context) error { return nil }
func (f *fakePredictionStore) Close() error                 { return nil }

func newTestService(t *testing.T, news *fakeNews, store *fakePredictionStore, saver *captureSaver) *PredictionService {
	t.Helper()
	cache := svcache.NewPredictionCache(pkgcache.NewMemoryCache(), 15*time.Minute)
	return NewPredictionService(PredictionServiceDeps{
		Cache:      cache,
		News:       news,
		Market:     &fakeMarket{snapshot: models.PriceSnapshot{PriceUSD: 65000, Change24h: 1.5, Mock: true}},
		Whale:      &fakeWhale{activity: models.WhaleActivity{Sentiment: "neutral", Mock: true}},
		Social:     &fakeSocial{posts: []models.SocialPost{{Text: "bullish af", Source: "twitter", Mock: true}}},
		Sentiment:  &fakeSentiment{result: models.SentimentResult{Average: 0.4, PositivePct: 60, NeutralPct: 40}},
		Ensemble:   &fakeEnsemble{out: models.EnsembleOutput{Score: 0.8, Direction: "bullish", ModelStatus: "sentiment_only"}},
		Indicators: analytics.NewEngine(),
		Features:   analytics.NewFeatureExtractor(),
		Summarizer: fakeSummarizer{},
		Saver:      saver,
		Store:      store,
		Metrics:    nopMetrics{},
		Log:        testLogger(t),
	})
}

func TestPredictCachesCycleResult(t *testing.T) {
	news := &fakeNews{articles: []models.Article{
		{Title: "Bitcoin climbs"},
		{Title: "Ethereum follows"},
	}}
	saver := &captureSaver{}
	svc := newTestService(t, news, &fakePredictionStore{}, saver)

	first, err := svc.Predict(context.Background())
	if err != nil {
		t.Fatalf("first predict: %v", err)
	}
	second, err := svc.Predict(context.Background())
	if err != nil {
		t.Fatalf("second predict: %v", err)
	}

	if atomic.LoadInt64(&news.calls) != 1 {
		t.Fatalf("news fetched %d times, want 1 (second call should hit the cache)", news.calls)
	}
	if atomic.LoadInt64(&saver.calls) != 1 {
		t.Fatalf("saver invoked %d times, want 1", saver.calls)
	}
	if first.Prediction != second.Prediction || first.Summary != second.Summary {
		t.Fatalf("cached response differs: %+v vs %+v", first, second)
	}
}

func TestPredictResponseShape(t *testing.T) {
	news := &fakeNews{articles: []models.Article{
		{Title: "Bitcoin climbs"},
		{Title: "Solana congestion returns"},
	}}
	saver := &captureSaver{}
	svc := newTestService(t, news, &fakePredictionStore{}, saver)

	resp, err := svc.Predict(context.Background())
	if err != nil {
		t.Fatalf("predict: %v", err)
	}

	if resp.ArticlesAnalyzed != 2 {
		t.Fatalf("articles analyzed = %d, want 2", resp.ArticlesAnalyzed)
	}
	if resp.ModelVersion != models.ModelVersion {
		t.Fatalf("model version = %q", resp.ModelVersion)
	}
	if resp.Summary != "test summary" {
		t.Fatalf("summary = %q", resp.Summary)
	}
	if resp.CurrentPrice != 65000 {
		t.Fatalf("current price = %v, want snapshot price", resp.CurrentPrice)
	}
	// Every upstream except news served mock data.
	if len(resp.DataSourcesUsed) != 1 || resp.DataSourcesUsed[0] != "news_rss" {
		t.Fatalf("data sources = %v, want [news_rss]", resp.DataSourcesUsed)
	}
	// Empty history falls back to the neutral indicator set.
	if !resp.Technical.Mock {
		t.Fatalf("expected mock technical snapshot for empty history")
	}
	// Degraded upstreams must surface on the response itself.
	if !resp.Mock {
		t.Fatalf("expected mock response when upstreams served fallback data")
	}
	// 0.6 news + 0.4 social over the same fake scorer.
	if resp.SentimentScore != 0.4 {
		t.Fatalf("combined sentiment = %v, want 0.4", resp.SentimentScore)
	}

	if saver.last.Prediction != resp.Prediction || saver.last.ModelVersion != resp.ModelVersion {
		t.Fatalf("persisted record %+v does not match response", saver.last)
	}
}

func TestBacktestInsufficientData(t *testing.T) {
	store := &fakePredictionStore{records: []*models.PredictionRecord{
		{Confidence: 0.9}, {Confidence: 0.8},
	}}
	svc := newTestService(t, &fakeNews{}, store, &captureSaver{})

	report, err := svc.Backtest(context.Background(), 30)
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if !report.Insufficient || report.MinRequired != 10 {
		t.Fatalf("report = %+v, want insufficient with min 10", report)
	}
	if report.TotalPredictions != 2 {
		t.Fatalf("total = %d, want 2", report.TotalPredictions)
	}
	if report.Accuracy != 0 {
		t.Fatalf("accuracy should stay zero on insufficient data")
	}
}

func TestBacktestAccuracy(t *testing.T) {
	store := &fakePredictionStore{}
	for i := 0; i < 8; i++ {
		store.records = append(store.records, &models.PredictionRecord{Confidence: 0.8})
	}
	for i := 0; i < 4; i++ {
		store.records = append(store.records, &models.PredictionRecord{Confidence: 0.6})
	}
	svc := newTestService(t, &fakeNews{}, store, &captureSaver{})

	report, err := svc.Backtest(context.Background(), 30)
	if err != nil {
		t.Fatalf("backtest: %v", err)
	}
	if report.Insufficient {
		t.Fatalf("12 records should be sufficient")
	}
	if want := 8.0 / 12.0; report.Accuracy != want {
		t.Fatalf("accuracy = %v, want %v", report.Accuracy, want)
	}
	wantAvg := (8*0.8 + 4*0.6) / 12
	if diff := report.AverageConfidence - wantAvg; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("average confidence = %v, want %v", report.AverageConfidence, wantAvg)
	}
}

func TestAnyFallback(t *testing.T) {
	clean := func() (models.IndicatorSet, models.PriceSnapshot, models.WhaleActivity, models.SentimentResult, models.SentimentResult, models.EnsembleOutput) {
		return models.IndicatorSet{}, models.PriceSnapshot{}, models.WhaleActivity{},
			models.SentimentResult{}, models.SentimentResult{},
			models.EnsembleOutput{ModelStatus: "ensemble_active"}
	}

	ind, snap, whale, news, social, ml := clean()
	if anyFallback(ind, snap, whale, news, social, ml) {
		t.Fatalf("all-real cycle should not be mock")
	}

	ind, snap, whale, news, social, ml = clean()
	ind.Mock = true
	if !anyFallback(ind, snap, whale, news, social, ml) {
		t.Errorf("mock indicators should flag the response")
	}

	ind, snap, whale, news, social, ml = clean()
	whale.Mock = true
	if !anyFallback(ind, snap, whale, news, social, ml) {
		t.Errorf("mock whale data should flag the response")
	}

	ind, snap, whale, news, social, ml = clean()
	news.Fallback = true
	if !anyFallback(ind, snap, whale, news, social, ml) {
		t.Errorf("sentiment fallback should flag the response")
	}

	ind, snap, whale, news, social, ml = clean()
	ml.ModelStatus = "sentiment_only"
	if !anyFallback(ind, snap, whale, news, social, ml) {
		t.Errorf("degraded ensemble should flag the response")
	}
}

func TestDataSourcesUsedRealFeeds(t *testing.T) {
	used := dataSourcesUsed(
		[]models.Article{{Title: "x"}},
		models.PriceSnapshot{},
		models.WhaleActivity{},
		[]models.SocialPost{{Source: "twitter"}, {Source: "reddit"}},
		models.EnsembleOutput{ModelStatus: "ensemble_active"},
	)
	want := []string{"news_rss", "price_data", "whale_tracking", "twitter", "reddit", "ml_ensemble_stacking"}
	if len(used) != len(want) {
		t.Fatalf("sources = %v, want %v", used, want)
	}
	for i := range want {
		if used[i] != want[i] {
			t.Fatalf("sources = %v, want %v", used, want)
		}
	}
}
