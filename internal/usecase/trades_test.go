package usecase

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"CoinPulse/internal/domain/models"
)

type fakeTradeStore struct {
	nextID uint64
	trades map[uint64]*models.Trade

	lastFilter models.TradeFilter
}

func newFakeTradeStore() *fakeTradeStore {
	return &fakeTradeStore{nextID: 1, trades: make(map[uint64]*models.Trade)}
}

func (f *fakeTradeStore) Init(context.Context) error { return nil }

func (f *fakeTradeStore) Add(_ context.Context, t *models.Trade) (uint64, error) {
	id := f.nextID
	f.nextID++
	t.ID = id
	t.PnL = t.ComputePnL()
	t.CreatedAt = time.Now().UTC()
	cp := *t
	f.trades[id] = &cp
	return id, nil
}

func (f *fakeTradeStore) Get(_ context.Context, id uint64) (*models.Trade, error) {
	t, ok := f.trades[id]
	if !ok {
		return nil, nil
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTradeStore) List(_ context.Context, filter models.TradeFilter) ([]*models.Trade, int64, error) {
	f.lastFilter = filter
	out := make([]*models.Trade, 0, len(f.trades))
	for _, t := range f.trades {
		if filter.Symbol != "" && t.Symbol != filter.Symbol {
			continue
		}
		cp := *t
		out = append(out, &cp)
	}
	return out, int64(len(out)), nil
}

func (f *fakeTradeStore) Update(_ context.Context, t *models.Trade) error {
	if _, ok := f.trades[t.ID]; !ok {
		return sql.ErrNoRows
	}
	t.PnL = t.ComputePnL()
	cp := *t
	f.trades[t.ID] = &cp
	return nil
}

func (f *fakeTradeStore) Delete(_ context.Context, id uint64) error {
	if _, ok := f.trades[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.trades, id)
	return nil
}

func (f *fakeTradeStore) Stats(context.Context, time.Time) (*models.TradeStats, error) {
	return &models.TradeStats{TotalTrades: len(f.trades)}, nil
}

func (f *fakeTradeStore) Close() error { return nil }

func newTradeService(t *testing.T) (*TradeService, *fakeTradeStore) {
	t.Helper()
	store := newFakeTradeStore()
	return NewTradeService(store, nopMetrics{}, testLogger(t)), store
}

func TestTradeCreateDefaultsEnteredAt(t *testing.T) {
	svc, _ := newTradeService(t)

	before := time.Now().UTC()
	trade, err := svc.Create(context.Background(), &models.TradeCreateRequest{
		Symbol:     "BTCUSDT",
		Side:       models.SideLong,
		EntryPrice: 60000,
		ExitPrice:  63000,
		Quantity:   0.5,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if trade.ID == 0 {
		t.Fatalf("expected assigned id")
	}
	if trade.EnteredAt.Before(before.Add(-time.Second)) {
		t.Fatalf("entered_at = %v, want defaulted to now", trade.EnteredAt)
	}
	if trade.ExitedAt != nil {
		t.Fatalf("exited_at should stay nil when omitted")
	}
}

func TestTradeCreateParsesTimestamps(t *testing.T) {
	svc, store := newTradeService(t)

	trade, err := svc.Create(context.Background(), &models.TradeCreateRequest{
		Symbol:     "ETHUSDT",
		Side:       models.SideShort,
		EntryPrice: 3500,
		ExitPrice:  3300,
		Quantity:   2,
		EnteredAt:  "2026-08-01T10:00:00Z",
		ExitedAt:   "2026-08-02T10:00:00Z",
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if got := trade.EnteredAt.Format(time.RFC3339); got != "2026-08-01T10:00:00Z" {
		t.Fatalf("entered_at = %s", got)
	}
	if trade.ExitedAt == nil || trade.ExitedAt.Format(time.RFC3339) != "2026-08-02T10:00:00Z" {
		t.Fatalf("exited_at = %v", trade.ExitedAt)
	}

	// Short trade closed lower is a win.
	stored, _ := store.Get(context.Background(), trade.ID)
	if stored.PnL != 400 {
		t.Fatalf("pnl = %v, want 400", stored.PnL)
	}
}

func TestTradeGetNotFound(t *testing.T) {
	svc, _ := newTradeService(t)
	if _, err := svc.Get(context.Background(), 42); !errors.Is(err, ErrTradeNotFound) {
		t.Fatalf("err = %v, want ErrTradeNotFound", err)
	}
}

func TestTradeListDefaultsLimit(t *testing.T) {
	svc, store := newTradeService(t)
	if _, _, err := svc.List(context.Background(), &models.TradeListRequest{}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.lastFilter.Limit != tradeDefaultLimit {
		t.Fatalf("limit = %d, want default %d", store.lastFilter.Limit, tradeDefaultLimit)
	}
	if store.lastFilter.Page != 1 {
		t.Fatalf("page = %d, want 1", store.lastFilter.Page)
	}
}

func TestTradeListClampsLimit(t *testing.T) {
	svc, store := newTradeService(t)
	if _, _, err := svc.List(context.Background(), &models.TradeListRequest{Limit: 5000}); err != nil {
		t.Fatalf("list: %v", err)
	}
	if store.lastFilter.Limit != tradeMaxLimit {
		t.Fatalf("limit = %d, want clamp to %d", store.lastFilter.Limit, tradeMaxLimit)
	}
}

func TestTradeUpdatePartialFields(t *testing.T) {
	svc, _ := newTradeService(t)
	created, err := svc.Create(context.Background(), &models.TradeCreateRequest{
		Symbol:     "BTCUSDT",
		Side:       models.SideLong,
		EntryPrice: 60000,
		ExitPrice:  61000,
		Quantity:   1,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	updated, err := svc.Update(context.Background(), created.ID, &models.TradeUpdateRequest{ExitPrice: 65000})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	if updated.Symbol != "BTCUSDT" || updated.EntryPrice != 60000 {
		t.Fatalf("untouched fields changed: %+v", updated)
	}
	if updated.ExitPrice != 65000 {
		t.Fatalf("exit price = %v, want 65000", updated.ExitPrice)
	}

	stored, _ := svc.Get(context.Background(), created.ID)
	if stored.PnL != 5000 {
		t.Fatalf("pnl = %v, want recomputed 5000", stored.PnL)
	}
}

func TestTradeUpdateMissingTrade(t *testing.T) {
	svc, _ := newTradeService(t)
	if _, err := svc.Update(context.Background(), 7, &models.TradeUpdateRequest{Notes: "x"}); !errors.Is(err, ErrTradeNotFound) {
		t.Fatalf("err = %v, want ErrTradeNotFound", err)
	}
}

func TestTradeDeleteMissingTrade(t *testing.T) {
	svc, _ := newTradeService(t)
	if err := svc.Delete(context.Background(), 7); !errors.Is(err, ErrTradeNotFound) {
		t.Fatalf("err = %v, want ErrTradeNotFound", err)
	}
}

func TestTradeDelete(t *testing.T) {
	svc, _ := newTradeService(t)
	created, err := svc.Create(context.Background(), &models.TradeCreateRequest{
		Symbol:     "SOLUSDT",
		Side:       models.SideLong,
		EntryPrice: 150,
		ExitPrice:  170,
		Quantity:   10,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := svc.Delete(context.Background(), created.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := svc.Get(context.Background(), created.ID); !errors.Is(err, ErrTradeNotFound) {
		t.Fatalf("deleted trade still found: %v", err)
	}
}
