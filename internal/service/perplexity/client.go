package perplexity

import (
	"context"
	"fmt"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"
)

// Client generates the market summary through the Perplexity chat API.
// Candidate models are tried in order; with no API key, or when every
// candidate fails, a template summary is produced from the data already in
// hand.
type Client struct {
	client     *xhttp.Client
	apiKey     string
	url        string
	candidates []string
	log        *logger.Logger
	metrics    repository.Metrics
}

func NewClient(apiKey, url string, candidates []string, timeout time.Duration, log *logger.Logger, m repository.Metrics) *Client {
	return &Client{
		client:     xhttp.NewClient(xhttp.WithTimeout(timeout)),
		apiKey:     apiKey,
		url:        url,
		candidates: candidates,
		log:        log,
		metrics:    m,
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	MaxTokens   int           `json:"max_tokens"`
	Temperature float64       `json:"temperature"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *Client) Summarize(ctx context.Context, resp *models.MarketPredictionResponse, headlines []string) string {
	if c.apiKey == "" {
		c.log.Warn("perplexity api key not configured, using template summary")
		return templateSummary(resp)
	}

	prompt := buildPrompt(resp, headlines)
	for _, model := range c.candidates {
		var out chatResponse
		err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodPost,
			URL:    c.url,
			Headers: map[string]string{
				"Authorization": "Bearer " + c.apiKey,
				"Content-Type":  "application/json",
			},
			Body: chatRequest{
				Model:       model,
				Messages:    []chatMessage{{Role: "user", Content: prompt}},
				MaxTokens:   200,
				Temperature: 0.7,
			},
		}, &out)
		if err != nil {
			c.log.Warn("perplexity model failed", logger.String("model", model), logger.Error(err))
			continue
		}
		if len(out.Choices) == 0 {
			continue
		}
		c.metrics.RecordSourceFetch("perplexity", "ok")
		c.log.Info("perplexity summary generated", logger.String("model", model))
		return strings.TrimSpace(out.Choices[0].Message.Content)
	}

	c.metrics.RecordSourceFetch("perplexity", "error")
	return templateSummary(resp)
}

func buildPrompt(resp *models.MarketPredictionResponse, headlines []string) string {
	var b strings.Builder
	b.WriteString("Analyze this comprehensive cryptocurrency market data:\n\n")
	fmt.Fprintf(&b, "NEWS SENTIMENT: %.2f\n", resp.NewsSentiment)
	fmt.Fprintf(&b, "SOCIAL SENTIMENT: %.2f\n", resp.SocialSentiment)
	fmt.Fprintf(&b, "TECHNICAL TREND: %s\n", resp.Technical.Signals["trend"])
	fmt.Fprintf(&b, "RSI: %.1f\n", resp.Technical.RSI)
	fmt.Fprintf(&b, "WHALE ACTIVITY: %s\n", resp.Whale.Sentiment)
	fmt.Fprintf(&b, "PRICE CHANGE 24H: %.2f%%\n", resp.PriceChange24h)
	fmt.Fprintf(&b, "BOLLINGER POSITION: %.2f\n", resp.Technical.BollingerPosition)
	b.WriteString("\nTop Headlines:\n")
	for i, h := range headlines {
		if i >= 5 {
			break
		}
		fmt.Fprintf(&b, "- %s\n", h)
	}
	b.WriteString("\nProvide a 2-3 sentence market summary and conclude with one of: ")
	b.WriteString("Strong Bullish, Bullish, Neutral, Bearish, or Strong Bearish.")
	return b.String()
}

func templateSummary(resp *models.MarketPredictionResponse) string {
	sentimentDesc := "neutral"
	if resp.NewsSentiment > 0.1 {
		sentimentDesc = "positive"
	} else if resp.NewsSentiment < -0.1 {
		sentimentDesc = "negative"
	}

	trendDesc := resp.Technical.Signals["trend"]
	if trendDesc == "" {
		trendDesc = "neutral"
	}

	whaleDesc := resp.Whale.Sentiment
	if whaleDesc == "" {
		whaleDesc = "neutral"
	}

	bbDesc := "normal range"
	if resp.Technical.BollingerPosition > 0.8 {
		bbDesc = "overbought"
	} else if resp.Technical.BollingerPosition < 0.2 {
		bbDesc = "oversold"
	}

	return fmt.Sprintf(
		"Market sentiment is %s based on recent news analysis. Technical indicators show a %s trend with price in %s on Bollinger Bands. Whale activity indicates %s behavior. Overall market conditions suggest cautious optimism with mixed signals across different indicators.",
		sentimentDesc, trendDesc, bbDesc, whaleDesc,
	)
}
