package analytics

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"CoinPulse/internal/domain/models"
)

type stubScorer struct {
	name   string
	weight float64
	pred   float64
	err    error
}

func (s stubScorer) Name() string    { return s.name }
func (s stubScorer) Weight() float64 { return s.weight }
func (s stubScorer) Score(context.Context, models.FeatureBundle) (float64, error) {
	return s.pred, s.err
}

func statusServer(t *testing.T, ready map[string]bool) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/status" {
			http.NotFound(w, r)
			return
		}
		body := `{"models":{`
		first := true
		for name, ok := range ready {
			if !first {
				body += ","
			}
			body += fmt.Sprintf("%q:%v", name, ok)
			first = false
		}
		body += "}}"
		fmt.Fprint(w, body)
	}))
}

func bullishFeatures() models.FeatureBundle {
	return models.FeatureBundle{
		SentimentScore:  0.5,
		WhaleNetFlowUSD: 15_000_000,
		TrendSignal:     1,
	}
}

func TestPredictWeightedCommittee(t *testing.T) {
	srv := statusServer(t, map[string]bool{"gru": true, "xgboost": true, "random_forest": true})
	defer srv.Close()

	e := NewEnsembleService(testBase(srv.URL), []ModelScorer{
		stubScorer{name: "gru", weight: weightGRU, pred: 2},
		stubScorer{name: "xgboost", weight: weightXGBoost, pred: 1},
		stubScorer{name: "random_forest", weight: weightRandomForest, pred: -1},
	}, testLogger(t), nopMetrics{})

	out := e.Predict(context.Background(), bullishFeatures())

	if out.ModelStatus != "ensemble_active" {
		t.Fatalf("status = %q, want ensemble_active", out.ModelStatus)
	}

	// sentiment component: 0.4*0.5 + 0.3*1 + 0.3*1 = 0.8
	wantScore := 2*weightGRU + 1*weightXGBoost + -1*weightRandomForest + 0.8*weightSentiment
	if math.Abs(out.Score-wantScore) > 1e-9 {
		t.Fatalf("score = %v, want %v", out.Score, wantScore)
	}
	if out.Direction != "bullish" {
		t.Fatalf("direction = %q, want bullish", out.Direction)
	}
	if len(out.PerModel) != 4 {
		t.Fatalf("per-model map has %d entries, want 4", len(out.PerModel))
	}
	if out.PerModel["sentiment"] != 0.8 {
		t.Fatalf("sentiment component = %v, want 0.8", out.PerModel["sentiment"])
	}
	if out.RangeLow >= out.Score || out.RangeHigh <= out.Score {
		t.Fatalf("range [%v, %v] should bracket score %v", out.RangeLow, out.RangeHigh, out.Score)
	}
	if out.Confidence <= 0 || out.Confidence > 1 {
		t.Fatalf("confidence = %v out of (0, 1]", out.Confidence)
	}
}

func TestPredictUntrainedUsesSentimentOnly(t *testing.T) {
	srv := statusServer(t, map[string]bool{"gru": true, "xgboost": false, "random_forest": true})
	defer srv.Close()

	e := NewEnsembleService(testBase(srv.URL), []ModelScorer{
		stubScorer{name: "gru", weight: weightGRU, pred: 5},
		stubScorer{name: "xgboost", weight: weightXGBoost, pred: 5},
		stubScorer{name: "random_forest", weight: weightRandomForest, pred: 5},
	}, testLogger(t), nopMetrics{})

	out := e.Predict(context.Background(), bullishFeatures())

	if out.ModelStatus != "sentiment_only" {
		t.Fatalf("status = %q, want sentiment_only", out.ModelStatus)
	}
	if out.Score != 0.8 {
		t.Fatalf("score = %v, want 0.8", out.Score)
	}
	if out.Direction != "bullish" {
		t.Fatalf("direction = %q, want bullish", out.Direction)
	}
	wantConf := math.Min(0.7, 0.5+0.8*0.2)
	if math.Abs(out.Confidence-wantConf) > 1e-9 {
		t.Fatalf("confidence = %v, want %v", out.Confidence, wantConf)
	}
	if math.Abs(out.RangeLow-0.3) > 1e-9 || math.Abs(out.RangeHigh-1.3) > 1e-9 {
		t.Fatalf("range = [%v, %v], want [0.3, 1.3]", out.RangeLow, out.RangeHigh)
	}
}

func TestPredictAllScorersFailing(t *testing.T) {
	srv := statusServer(t, map[string]bool{"gru": true, "xgboost": true, "random_forest": true})
	defer srv.Close()

	down := errors.New("model service timeout")
	e := NewEnsembleService(testBase(srv.URL), []ModelScorer{
		stubScorer{name: "gru", weight: weightGRU, err: down},
		stubScorer{name: "xgboost", weight: weightXGBoost, err: down},
		stubScorer{name: "random_forest", weight: weightRandomForest, err: down},
	}, testLogger(t), nopMetrics{})

	out := e.Predict(context.Background(), models.FeatureBundle{SentimentScore: -1, WhaleNetFlowUSD: -15_000_000, TrendSignal: -1})

	if out.ModelStatus != "sentiment_based" {
		t.Fatalf("status = %q, want sentiment_based", out.ModelStatus)
	}
	// -0.4 - 0.3 - 0.3 = -1
	if out.Score != -1 {
		t.Fatalf("score = %v, want -1", out.Score)
	}
	if out.Direction != "bearish" {
		t.Fatalf("direction = %q, want bearish", out.Direction)
	}
}

func TestPredictUnconfiguredBase(t *testing.T) {
	e := NewEnsembleService(testBase(""), DefaultScorers(testBase("")), testLogger(t), nopMetrics{})
	out := e.Predict(context.Background(), models.FeatureBundle{})

	if out.ModelStatus != "sentiment_only" {
		t.Fatalf("status = %q, want sentiment_only", out.ModelStatus)
	}
	if out.Direction != "neutral" || out.Confidence != 0.5 {
		t.Fatalf("neutral fallback = %+v", out)
	}
}

func TestFallbackSmallWhaleFlowIsNeutral(t *testing.T) {
	e := NewEnsembleService(testBase(""), DefaultScorers(testBase("")), testLogger(t), nopMetrics{})

	// Positive flow inside the band must not tip the direction.
	out := e.Predict(context.Background(), models.FeatureBundle{WhaleNetFlowUSD: 5_000_000})

	if out.Score != 0 {
		t.Fatalf("score = %v, want 0 for flow inside the neutral band", out.Score)
	}
	if out.Direction != "neutral" || out.Confidence != 0.5 {
		t.Fatalf("fallback = %+v, want neutral at 0.5 confidence", out)
	}
}

func TestWhaleSignBands(t *testing.T) {
	cases := []struct {
		net  float64
		want float64
	}{
		{15_000_000, 1},
		{10_000_001, 1},
		{10_000_000, 0},
		{5_000_000, 0},
		{0, 0},
		{-10_000_000, 0},
		{-10_000_001, -1},
	}
	for _, c := range cases {
		if got := whaleSign(c.net); got != c.want {
			t.Errorf("whaleSign(%v) = %v, want %v", c.net, got, c.want)
		}
	}
}

func TestEnsembleDirectionThresholds(t *testing.T) {
	cases := []struct {
		score float64
		want  string
	}{
		{3, "strong_bullish"},
		{0.5, "bullish"},
		{0, "neutral"},
		{-0.5, "bearish"},
		{-3, "strong_bearish"},
	}
	for _, c := range cases {
		if got := ensembleDirection(c.score); got != c.want {
			t.Errorf("ensembleDirection(%v) = %q, want %q", c.score, got, c.want)
		}
	}
}
