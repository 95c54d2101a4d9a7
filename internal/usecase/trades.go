package usecase

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"CoinPulse/internal/domain/models"
	drepo "CoinPulse/internal/domain/repository"
	"CoinPulse/pkg/logger"
	"CoinPulse/pkg/util"
)

// ErrTradeNotFound is returned when a trade id does not exist.
var ErrTradeNotFound = errors.New("trade not found")

const (
	tradeMaxLimit     = 200
	tradeDefaultLimit = 50
)

// TradeService is the journal use case on top of the trade store. PnL is
// recomputed on every write so the stored value always matches the prices
// and direction.
type TradeService struct {
	store   drepo.TradeStore
	metrics drepo.Metrics
	log     *logger.Logger
}

func NewTradeService(store drepo.TradeStore, metrics drepo.Metrics, log *logger.Logger) *TradeService {
	return &TradeService{store: store, metrics: metrics, log: log}
}

func (s *TradeService) Create(ctx context.Context, req *models.TradeCreateRequest) (*models.Trade, error) {
	enteredAt := util.ParseTimeDefault(req.EnteredAt, time.Now().UTC())
	t := &models.Trade{
		Symbol:     req.Symbol,
		Side:       req.Side,
		EntryPrice: req.EntryPrice,
		ExitPrice:  req.ExitPrice,
		Quantity:   req.Quantity,
		Notes:      req.Notes,
		EnteredAt:  enteredAt,
	}
	if req.ExitedAt != "" {
		exitedAt := util.ParseTimeDefault(req.ExitedAt, time.Time{})
		if !exitedAt.IsZero() {
			t.ExitedAt = &exitedAt
		}
	}

	id, err := s.store.Add(ctx, t)
	if err != nil {
		s.metrics.RecordError("trade_create")
		return nil, fmt.Errorf("create trade: %w", err)
	}
	t.ID = id
	return t, nil
}

func (s *TradeService) Get(ctx context.Context, id uint64) (*models.Trade, error) {
	t, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get trade: %w", err)
	}
	if t == nil {
		return nil, ErrTradeNotFound
	}
	return t, nil
}

func (s *TradeService) List(ctx context.Context, req *models.TradeListRequest) ([]*models.Trade, int64, error) {
	filter := models.TradeFilter{
		Symbol: req.Symbol,
		Page:   req.Page,
		Limit:  util.ClampInt(req.Limit, 1, tradeMaxLimit),
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if req.Limit == 0 {
		filter.Limit = tradeDefaultLimit
	}
	if req.From != "" {
		if from := util.ParseTimeDefault(req.From, time.Time{}); !from.IsZero() {
			filter.From = &from
		}
	}
	if req.To != "" {
		if to := util.ParseTimeDefault(req.To, time.Time{}); !to.IsZero() {
			filter.To = &to
		}
	}

	trades, total, err := s.store.List(ctx, filter)
	if err != nil {
		s.metrics.RecordError("trade_list")
		return nil, 0, fmt.Errorf("list trades: %w", err)
	}
	return trades, total, nil
}

// Update applies only the fields present in the request and recomputes PnL.
func (s *TradeService) Update(ctx context.Context, id uint64, req *models.TradeUpdateRequest) (*models.Trade, error) {
	t, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Symbol != "" {
		t.Symbol = req.Symbol
	}
	if req.Side != "" {
		t.Side = req.Side
	}
	if req.EntryPrice > 0 {
		t.EntryPrice = req.EntryPrice
	}
	if req.ExitPrice > 0 {
		t.ExitPrice = req.ExitPrice
	}
	if req.Quantity > 0 {
		t.Quantity = req.Quantity
	}
	if req.Notes != "" {
		t.Notes = req.Notes
	}

	if err := s.store.Update(ctx, t); err != nil {
		s.metrics.RecordError("trade_update")
		return nil, fmt.Errorf("update trade: %w", err)
	}
	return t, nil
}

func (s *TradeService) Delete(ctx context.Context, id uint64) error {
	err := s.store.Delete(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrTradeNotFound
	}
	if err != nil {
		s.metrics.RecordError("trade_delete")
		return fmt.Errorf("delete trade: %w", err)
	}
	return nil
}

// Stats aggregates the journal; the daily split uses the local start of day.
func (s *TradeService) Stats(ctx context.Context) (*models.TradeStats, error) {
	st, err := s.store.Stats(ctx, util.StartOfDay(time.Now()))
	if err != nil {
		s.metrics.RecordError("trade_stats")
		return nil, fmt.Errorf("trade stats: %w", err)
	}
	return st, nil
}
