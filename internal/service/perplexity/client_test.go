package perplexity

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
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

func sampleResponse() *models.MarketPredictionResponse {
	return &models.MarketPredictionResponse{
		NewsSentiment:  0.4,
		PriceChange24h: 2.1,
		Technical: models.TechnicalSnapshot{
			RSI:               62,
			BollingerPosition: 0.9,
			Signals:           map[string]string{"trend": "bullish"},
		},
		Whale: models.WhaleSummary{Sentiment: "accumulating"},
	}
}

func TestSummarizeWithoutKeyUsesTemplate(t *testing.T) {
	c := NewClient("", "http://unused", []string{"sonar"}, time.Second, testLogger(t), nopMetrics{})
	got := c.Summarize(context.Background(), sampleResponse(), nil)

	if !strings.Contains(got, "Market sentiment is positive") {
		t.Fatalf("summary = %q, want positive template", got)
	}
	if !strings.Contains(got, "bullish trend") {
		t.Fatalf("summary = %q, want trend wording", got)
	}
	if !strings.Contains(got, "overbought") {
		t.Fatalf("summary = %q, want overbought band wording for position 0.9", got)
	}
	if !strings.Contains(got, "accumulating behavior") {
		t.Fatalf("summary = %q, want whale wording", got)
	}
}

func TestSummarizeFallsThroughCandidates(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt64(&calls, 1)
		if n == 1 {
			http.Error(w, "model overloaded", http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"choices":[{"message":{"content":"  Markets look constructive. Bullish  "}}]}`)
	}))
	defer srv.Close()

	c := NewClient("key", srv.URL, []string{"sonar-pro", "sonar"}, time.Second, testLogger(t), nopMetrics{})
	got := c.Summarize(context.Background(), sampleResponse(), []string{"Bitcoin climbs"})

	if got != "Markets look constructive. Bullish" {
		t.Fatalf("summary = %q, want trimmed second-candidate reply", got)
	}
	if atomic.LoadInt64(&calls) != 2 {
		t.Fatalf("api called %d times, want 2", calls)
	}
}

func TestSummarizeAllCandidatesFailUsesTemplate(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	resp := sampleResponse()
	resp.NewsSentiment = -0.5
	resp.Technical.BollingerPosition = 0.1

	c := NewClient("key", srv.URL, []string{"sonar-pro", "sonar"}, time.Second, testLogger(t), nopMetrics{})
	got := c.Summarize(context.Background(), resp, nil)

	if !strings.Contains(got, "Market sentiment is negative") {
		t.Fatalf("summary = %q, want negative template", got)
	}
	if !strings.Contains(got, "oversold") {
		t.Fatalf("summary = %q, want oversold wording for position 0.1", got)
	}
}

func TestBuildPromptIncludesTopHeadlines(t *testing.T) {
	headlines := []string{"one", "two", "three", "four", "five", "six"}
	prompt := buildPrompt(sampleResponse(), headlines)

	if !strings.Contains(prompt, "- five") {
		t.Fatalf("prompt should include the fifth headline")
	}
	if strings.Contains(prompt, "- six") {
		t.Fatalf("prompt should cap at five headlines")
	}
	if !strings.Contains(prompt, "BOLLINGER POSITION: 0.90") {
		t.Fatalf("prompt missing bollinger line:\n%s", prompt)
	}
}
