package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"CoinPulse/pkg/config"
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

func testBase(url string) *HTTPServiceBase {
	cfg := &config.Config{}
	cfg.Models.ServiceURL = url
	cfg.Models.Timeout = 5 * time.Second
	return NewHTTPServiceBase(cfg)
}

func TestClassifyEmptyInputSkipsService(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
	}))
	defer srv.Close()

	s := NewHTTPSentimentScorer(testBase(srv.URL), testLogger(t), nopMetrics{})
	got := s.Classify(context.Background(), nil)

	if got.Fallback || got.Processed != 0 || got.Average != 0 {
		t.Fatalf("empty input result = %+v, want zero value", got)
	}
	if atomic.LoadInt64(&calls) != 0 {
		t.Fatalf("service called %d times for empty input", calls)
	}
}

func TestClassifyUnconfiguredFallsBack(t *testing.T) {
	s := NewHTTPSentimentScorer(testBase(""), testLogger(t), nopMetrics{})
	got := s.Classify(context.Background(), []string{"bitcoin rallies"})

	if !got.Fallback {
		t.Fatalf("expected fallback result")
	}
	if got.PositivePct != 33 || got.NegativePct != 33 || got.NeutralPct != 34 {
		t.Fatalf("fallback split = %v/%v/%v", got.PositivePct, got.NegativePct, got.NeutralPct)
	}
}

func TestClassifySignedAverage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req sentimentBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		fmt.Fprint(w, `{"results":[
			{"label":"positive","confidence":0.9},
			{"label":"negative","confidence":0.5},
			{"label":"neutral","confidence":0.8}
		]}`)
	}))
	defer srv.Close()

	s := NewHTTPSentimentScorer(testBase(srv.URL), testLogger(t), nopMetrics{})
	got := s.Classify(context.Background(), []string{"up", "down", "sideways"})

	want := (0.9 - 0.5) / 3
	if math.Abs(got.Average-want) > 1e-9 {
		t.Fatalf("average = %v, want %v", got.Average, want)
	}
	if got.Processed != 3 || got.Fallback {
		t.Fatalf("result = %+v", got)
	}
	for _, pct := range []float64{got.PositivePct, got.NegativePct, got.NeutralPct} {
		if math.Abs(pct-100.0/3) > 1e-9 {
			t.Fatalf("percentages = %v/%v/%v, want thirds", got.PositivePct, got.NegativePct, got.NeutralPct)
		}
	}
}

func TestClassifyBatchesAndCapsInput(t *testing.T) {
	var calls int64
	var total int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		var req sentimentBatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Texts) > sentimentBatch {
			t.Errorf("batch of %d exceeds %d", len(req.Texts), sentimentBatch)
		}
		atomic.AddInt64(&total, int64(len(req.Texts)))

		resp := sentimentBatchResponse{}
		for range req.Texts {
			resp.Results = append(resp.Results, struct {
				Label      string  `json:"label"`
				Confidence float64 `json:"confidence"`
			}{Label: "positive", Confidence: 1})
		}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	texts := make([]string, 60)
	for i := range texts {
		texts[i] = fmt.Sprintf("headline %d", i)
	}

	s := NewHTTPSentimentScorer(testBase(srv.URL), testLogger(t), nopMetrics{})
	got := s.Classify(context.Background(), texts)

	if got.Processed != maxSentimentTexts {
		t.Fatalf("processed = %d, want %d", got.Processed, maxSentimentTexts)
	}
	if atomic.LoadInt64(&total) != maxSentimentTexts {
		t.Fatalf("service saw %d texts, want %d", total, maxSentimentTexts)
	}
	// 50 texts in batches of 8.
	if atomic.LoadInt64(&calls) != 7 {
		t.Fatalf("service called %d times, want 7", calls)
	}
	if got.Average != 1 || got.PositivePct != 100 {
		t.Fatalf("all-positive result = %+v", got)
	}
}

func TestClassifyServiceErrorFallsBack(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := NewHTTPSentimentScorer(testBase(srv.URL), testLogger(t), nopMetrics{})
	got := s.Classify(context.Background(), []string{"a", "b"})

	if !got.Fallback {
		t.Fatalf("expected fallback on service error, got %+v", got)
	}
	if got.Average != 0 {
		t.Fatalf("fallback average = %v, want 0", got.Average)
	}
}
