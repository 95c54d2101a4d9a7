package sources

import (
	"context"
	"strconv"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"
	"CoinPulse/internal/service/ratelimit"
)

const (
	whaleWindow       = time.Hour
	whaleTransferCap  = 10
	// Strict thresholds: exactly +-10M is neutral.
	accumulateFlowUSD = 10_000_000
)

// WhaleAlertClient summarizes large exchange in/out flows over the last hour.
// Missing key, throttling or any upstream failure yields the fixed mock summary.
type WhaleAlertClient struct {
	client   *xhttp.Client
	baseURL  string
	apiKey   string
	minValue int64
	limiter  *ratelimit.Limiter
	log      *logger.Logger
	metrics  repository.Metrics
}

func NewWhaleAlertClient(client *xhttp.Client, baseURL, apiKey string, minValue int64, lim *ratelimit.Limiter, log *logger.Logger, m repository.Metrics) *WhaleAlertClient {
	return &WhaleAlertClient{
		client:   client,
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		apiKey:   apiKey,
		minValue: minValue,
		limiter:  lim,
		log:      log,
		metrics:  m,
	}
}

type whaleTx struct {
	Symbol    string  `json:"symbol"`
	AmountUSD float64 `json:"amount_usd"`
	Timestamp int64   `json:"timestamp"`
	From      struct {
		OwnerType string `json:"owner_type"`
	} `json:"from"`
	To struct {
		OwnerType string `json:"owner_type"`
	} `json:"to"`
}

type whaleResponse struct {
	Transactions []whaleTx `json:"transactions"`
}

func (w *WhaleAlertClient) Activity(ctx context.Context) models.WhaleActivity {
	if w.apiKey == "" {
		w.log.Warn("whale alert key not configured, using mock data")
		return mockWhaleActivity()
	}

	// 8 requests per minute keeps the free tier happy.
	if err := w.limiter.Wait(ctx, "whale_alert", 8, 8.0/60.0); err != nil {
		return mockWhaleActivity()
	}

	now := time.Now().UTC()
	var resp whaleResponse
	err := w.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    w.baseURL + "/transactions",
		QueryParams: map[string][]string{
			"start":     {strconv.FormatInt(now.Add(-whaleWindow).Unix(), 10)},
			"end":       {strconv.FormatInt(now.Unix(), 10)},
			"limit":     {"100"},
			"min_value": {strconv.FormatInt(w.minValue, 10)},
			"api_key":   {w.apiKey},
		},
	}, &resp)
	if err != nil {
		w.log.Warn("whale alert fetch failed", logger.Error(err))
		w.metrics.RecordSourceFetch("whale_alert", "error")
		return mockWhaleActivity()
	}
	w.metrics.RecordSourceFetch("whale_alert", "ok")

	return Summarize(resp.Transactions)
}

// Summarize classifies transactions into exchange flows and a sentiment.
func Summarize(txs []whaleTx) models.WhaleActivity {
	var inflows, outflows float64
	transfers := make([]models.WhaleTransfer, 0, whaleTransferCap)

	for _, tx := range txs {
		if len(transfers) < whaleTransferCap {
			transfers = append(transfers, models.WhaleTransfer{
				Symbol:    strings.ToUpper(tx.Symbol),
				AmountUSD: tx.AmountUSD,
				From:      tx.From.OwnerType,
				To:        tx.To.OwnerType,
				Timestamp: time.Unix(tx.Timestamp, 0),
			})
		}
		if tx.To.OwnerType == "exchange" {
			inflows += tx.AmountUSD
		}
		if tx.From.OwnerType == "exchange" {
			outflows += tx.AmountUSD
		}
	}

	net := outflows - inflows
	return models.WhaleActivity{
		NetFlowUSD:    net,
		InflowUSD:     inflows,
		OutflowUSD:    outflows,
		Sentiment:     ClassifyNetFlow(net),
		TransferCount: len(txs),
		Transfers:     transfers,
	}
}

// ClassifyNetFlow maps net exchange flow to a whale sentiment.
func ClassifyNetFlow(net float64) string {
	switch {
	case net > accumulateFlowUSD:
		return "accumulating"
	case net < -accumulateFlowUSD:
		return "distributing"
	default:
		return "neutral"
	}
}

func mockWhaleActivity() models.WhaleActivity {
	return models.WhaleActivity{
		NetFlowUSD:    -700_000,
		InflowUSD:     2_500_000,
		OutflowUSD:    1_800_000,
		Sentiment:     "distributing",
		TransferCount: 1,
		Transfers: []models.WhaleTransfer{{
			Symbol:    "BTC",
			AmountUSD: 1_500_000,
			From:      "unknown",
			To:        "exchange",
			Timestamp: time.Now(),
		}},
		Mock: true,
	}
}
