package sources

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"CoinPulse/internal/domain/models"
	"CoinPulse/internal/domain/repository"
	xhttp "CoinPulse/pkg/http"
	"CoinPulse/pkg/logger"
)

const snapshotRetries = 3

// CoinGeckoClient fetches the market snapshot and daily OHLC history.
// All failures degrade to empty/mock values.
type CoinGeckoClient struct {
	client  *xhttp.Client
	baseURL string
	log     *logger.Logger
	metrics repository.Metrics
}

func NewCoinGeckoClient(client *xhttp.Client, baseURL string, log *logger.Logger, m repository.Metrics) *CoinGeckoClient {
	return &CoinGeckoClient{
		client:  client,
		baseURL: strings.TrimSuffix(baseURL, "/"),
		log:     log,
		metrics: m,
	}
}

type marketRow struct {
	ID             string  `json:"id"`
	Symbol         string  `json:"symbol"`
	CurrentPrice   float64 `json:"current_price"`
	MarketCap      float64 `json:"market_cap"`
	TotalVolume    float64 `json:"total_volume"`
	Change1h       float64 `json:"price_change_percentage_1h_in_currency"`
	Change24h      float64 `json:"price_change_percentage_24h"`
	Change7d       float64 `json:"price_change_percentage_7d_in_currency"`
	Change30d      float64 `json:"price_change_percentage_30d_in_currency"`
	SparklineIn7d  struct {
		Price []float64 `json:"price"`
	} `json:"sparkline_in_7d"`
}

// Snapshot fetches the markets row for one coin with 3 attempts and doubling
// backoff. On exhaustion it returns a mock snapshot.
func (c *CoinGeckoClient) Snapshot(ctx context.Context, coinID string) models.PriceSnapshot {
	var rows []marketRow
	backoff := time.Second

	for attempt := 1; attempt <= snapshotRetries; attempt++ {
		err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
			Method: xhttp.MethodGet,
			URL:    c.baseURL + "/coins/markets",
			QueryParams: map[string][]string{
				"vs_currency":             {"usd"},
				"ids":                     {coinID},
				"order":                   {"market_cap_desc"},
				"sparkline":               {"true"},
				"price_change_percentage": {"1h,24h,7d,30d"},
			},
		}, &rows)
		if err == nil && len(rows) > 0 {
			c.metrics.RecordSourceFetch("coingecko", "ok")
			row := rows[0]
			c.metrics.RecordLastPrice(strings.ToUpper(row.Symbol), row.CurrentPrice)
			return models.PriceSnapshot{
				CoinID:      row.ID,
				Symbol:      strings.ToUpper(row.Symbol),
				PriceUSD:    row.CurrentPrice,
				Change1h:    row.Change1h,
				Change24h:   row.Change24h,
				Change7d:    row.Change7d,
				Change30d:   row.Change30d,
				Volume24h:   row.TotalVolume,
				MarketCap:   row.MarketCap,
				Sparkline7d: row.SparklineIn7d.Price,
			}
		}

		c.log.Warn("coingecko snapshot attempt failed",
			logger.String("coin", coinID),
			logger.Int("attempt", attempt),
			logger.Error(fmt.Errorf("markets fetch: %w", errOrEmpty(err))))

		if attempt < snapshotRetries {
			select {
			case <-ctx.Done():
				attempt = snapshotRetries
			case <-time.After(backoff):
				backoff *= 2
			}
		}
	}

	c.metrics.RecordSourceFetch("coingecko", "error")
	return models.PriceSnapshot{CoinID: coinID, Symbol: strings.ToUpper(coinID), Mock: true}
}

// History fetches a daily OHLC series. Failure returns an empty series.
func (c *CoinGeckoClient) History(ctx context.Context, coinID string, days int) models.OHLCSeries {
	var raw [][]float64
	err := c.client.SendAndParse(ctx, &xhttp.RequestOptions{
		Method: xhttp.MethodGet,
		URL:    c.baseURL + "/coins/" + coinID + "/ohlc",
		QueryParams: map[string][]string{
			"vs_currency": {"usd"},
			"days":        {strconv.Itoa(days)},
		},
	}, &raw)
	if err != nil {
		c.log.Warn("coingecko history fetch failed", logger.String("coin", coinID), logger.Error(err))
		c.metrics.RecordSourceFetch("coingecko_ohlc", "error")
		return models.OHLCSeries{CoinID: coinID}
	}
	c.metrics.RecordSourceFetch("coingecko_ohlc", "ok")

	series := models.OHLCSeries{CoinID: coinID, Candles: make([]models.OHLC, 0, len(raw))}
	for _, d := range raw {
		if len(d) < 5 {
			continue
		}
		series.Candles = append(series.Candles, models.OHLC{
			Time:  time.UnixMilli(int64(d[0])),
			Open:  d[1],
			High:  d[2],
			Low:   d[3],
			Close: d[4],
		})
	}
	return series
}

func errOrEmpty(err error) error {
	if err != nil {
		return err
	}
	return fmt.Errorf("empty response")
}
