package binance

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"CoinPulse/internal/domain/repository"
	"CoinPulse/pkg/logger"

	"github.com/gorilla/websocket"
)

// Ticker maintains a live last-price map from the Binance combined
// mini-ticker stream. It reconnects forever with a fixed delay and keeps
// serving the last known prices while disconnected.
type Ticker struct {
	baseURL        string
	symbols        []string
	reconnectDelay time.Duration
	pingInterval   time.Duration
	log            *logger.Logger
	metrics        repository.Metrics

	mu        sync.RWMutex
	prices    map[string]float64
	conn      *websocket.Conn
	connected bool
}

func NewTicker(baseURL string, symbols []string, reconnectDelay, pingInterval time.Duration, log *logger.Logger, m repository.Metrics) *Ticker {
	return &Ticker{
		baseURL:        baseURL,
		symbols:        symbols,
		reconnectDelay: reconnectDelay,
		pingInterval:   pingInterval,
		log:            log,
		metrics:        m,
		prices:         make(map[string]float64, len(symbols)),
	}
}

// LastPrice returns the freshest known price for a symbol like "BTCUSDT".
func (t *Ticker) LastPrice(symbol string) (float64, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	p, ok := t.prices[strings.ToUpper(symbol)]
	return p, ok
}

func (t *Ticker) streamURL() string {
	streams := make([]string, len(t.symbols))
	for i, s := range t.symbols {
		streams[i] = strings.ToLower(s) + "@miniTicker"
	}
	return t.baseURL + "/stream?streams=" + strings.Join(streams, "/")
}

func (t *Ticker) connect(ctx context.Context) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, t.streamURL(), nil)
	if err != nil {
		return fmt.Errorf("binance connect: %w", err)
	}
	t.mu.Lock()
	t.conn = conn
	t.connected = true
	t.mu.Unlock()
	t.log.Info("binance ticker connected", logger.Strings("symbols", t.symbols))
	return nil
}

type miniTickerFrame struct {
	Stream string `json:"stream"`
	Data   struct {
		EventType string `json:"e"`
		Symbol    string `json:"s"`
		Close     string `json:"c"`
	} `json:"data"`
}

// Run blocks until ctx is cancelled, reading frames and reconnecting on
// errors.
func (t *Ticker) Run(ctx context.Context) {
	go t.pingLoop(ctx)

	for {
		if ctx.Err() != nil {
			return
		}
		if err := t.connect(ctx); err != nil {
			t.log.Warn("binance connect failed", logger.Error(err))
			t.metrics.RecordError("ticker_connect")
			select {
			case <-ctx.Done():
				return
			case <-time.After(t.reconnectDelay):
			}
			continue
		}

		t.readLoop(ctx)

		t.mu.Lock()
		t.connected = false
		t.mu.Unlock()
		select {
		case <-ctx.Done():
			return
		case <-time.After(t.reconnectDelay):
		}
	}
}

func (t *Ticker) readLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = t.Close()
			return
		default:
		}

		_, b, err := t.conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				t.log.Warn("binance read failed", logger.Error(err))
				t.metrics.RecordError("ticker_read")
			}
			return
		}

		var frame miniTickerFrame
		if err := json.Unmarshal(b, &frame); err != nil {
			continue // non-ticker frame
		}
		if frame.Data.Symbol == "" {
			continue
		}
		price, err := strconv.ParseFloat(frame.Data.Close, 64)
		if err != nil {
			continue
		}

		t.mu.Lock()
		t.prices[frame.Data.Symbol] = price
		t.mu.Unlock()
		t.metrics.RecordLastPrice(frame.Data.Symbol, price)
	}
}

func (t *Ticker) pingLoop(ctx context.Context) {
	ticker := time.NewTicker(t.pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.mu.RLock()
			conn, connected := t.conn, t.connected
			t.mu.RUnlock()
			if connected && conn != nil {
				_ = conn.WriteMessage(websocket.PingMessage, nil)
			}
		}
	}
}

// IsConnected reports whether the stream is currently up.
func (t *Ticker) IsConnected() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.connected
}

func (t *Ticker) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.connected = false
	if t.conn != nil {
		return t.conn.Close()
	}
	return nil
}
