package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"CoinPulse/internal/domain/models"
	pkgch "CoinPulse/pkg/clickhouse"
	applogger "CoinPulse/pkg/logger"
)

var tradeSchema = []string{
	`CREATE TABLE IF NOT EXISTS journal_trades (
        id          UInt64,
        symbol      LowCardinality(String),
        side        LowCardinality(String),
        entry_price Float64,
        exit_price  Float64,
        quantity    Float64,
        pnl         Float64,
        notes       String,
        entered_at  DateTime,
        exited_at   Nullable(DateTime),
        created_at  DateTime,
        deleted     UInt8 DEFAULT 0
    ) ENGINE = ReplacingMergeTree(created_at)
    ORDER BY id`,
}

// CHTradeStore is the trade journal in ClickHouse. Updates and deletes go
// through the ReplacingMergeTree version column plus a tombstone flag, so
// reads must always filter deleted rows and take the latest version.
type CHTradeStore struct {
	client *pkgch.Client
	db     *sql.DB
	l      *applogger.Logger

	lastID atomic.Uint64
}

func NewCHTradeStore(ch *pkgch.Client, l *applogger.Logger) *CHTradeStore {
	return &CHTradeStore{client: ch, db: ch.DB(), l: l}
}

func (s *CHTradeStore) Init(ctx context.Context) error {
	if err := s.client.InitSchema(ctx, tradeSchema); err != nil {
		return fmt.Errorf("init trade schema: %w", err)
	}
	var maxID uint64
	row := s.db.QueryRowContext(ctx, `SELECT max(id) FROM journal_trades`)
	if err := row.Scan(&maxID); err == nil {
		s.lastID.Store(maxID)
	}
	return nil
}

func (s *CHTradeStore) nextID() uint64 {
	// Monotonic within a process; the timestamp floor keeps IDs unique
	// across restarts without a coordination service.
	now := uint64(time.Now().UnixMilli())
	for {
		prev := s.lastID.Load()
		next := now
		if next <= prev {
			next = prev + 1
		}
		if s.lastID.CompareAndSwap(prev, next) {
			return next
		}
	}
}

func (s *CHTradeStore) Add(ctx context.Context, t *models.Trade) (uint64, error) {
	t.ID = s.nextID()
	t.PnL = t.ComputePnL()
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	if err := s.insert(ctx, t, false); err != nil {
		return 0, fmt.Errorf("add trade: %w", err)
	}
	s.l.Info("trade added",
		applogger.Uint64("id", t.ID),
		applogger.String("symbol", t.Symbol),
		applogger.String("side", t.Side))
	return t.ID, nil
}

func (s *CHTradeStore) insert(ctx context.Context, t *models.Trade, deleted bool) error {
	const q = `INSERT INTO journal_trades
        (id, symbol, side, entry_price, exit_price, quantity, pnl, notes,
         entered_at, exited_at, created_at, deleted)
        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	tomb := uint8(0)
	if deleted {
		tomb = 1
	}
	_, err := s.db.ExecContext(ctx, q,
		t.ID, t.Symbol, t.Side, t.EntryPrice, t.ExitPrice, t.Quantity,
		t.PnL, t.Notes, t.EnteredAt, t.ExitedAt, time.Now().UTC(), tomb,
	)
	return err
}

const tradeColumns = `id, symbol, side, entry_price, exit_price, quantity, pnl,
    notes, entered_at, exited_at, created_at`

func scanTrade(rows interface{ Scan(...interface{}) error }) (*models.Trade, error) {
	var t models.Trade
	err := rows.Scan(&t.ID, &t.Symbol, &t.Side, &t.EntryPrice, &t.ExitPrice,
		&t.Quantity, &t.PnL, &t.Notes, &t.EnteredAt, &t.ExitedAt, &t.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *CHTradeStore) Get(ctx context.Context, id uint64) (*models.Trade, error) {
	q := fmt.Sprintf(`SELECT %s FROM journal_trades FINAL
        WHERE id = ? AND deleted = 0`, tradeColumns)
	row := s.db.QueryRowContext(ctx, q, id)
	t, err := scanTrade(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get trade: %w", err)
	}
	return t, nil
}

func (s *CHTradeStore) List(ctx context.Context, f models.TradeFilter) ([]*models.Trade, int64, error) {
	where := []string{"deleted = 0"}
	args := make([]interface{}, 0, 4)
	if f.Symbol != "" {
		where = append(where, "symbol = ?")
		args = append(args, f.Symbol)
	}
	if f.From != nil {
		where = append(where, "entered_at >= ?")
		args = append(args, *f.From)
	}
	if f.To != nil {
		where = append(where, "entered_at <= ?")
		args = append(args, *f.To)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	countQ := fmt.Sprintf("SELECT count() FROM journal_trades FINAL WHERE %s", cond)
	if err := s.db.QueryRowContext(ctx, countQ, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count trades: %w", err)
	}

	offset := (f.Page - 1) * f.Limit
	q := fmt.Sprintf(`SELECT %s FROM journal_trades FINAL
        WHERE %s ORDER BY entered_at DESC, id DESC LIMIT ? OFFSET ?`,
		tradeColumns, cond)
	rows, err := s.db.QueryContext(ctx, q, append(args, f.Limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list trades: %w", err)
	}
	defer rows.Close()

	out := make([]*models.Trade, 0, f.Limit)
	for rows.Next() {
		t, err := scanTrade(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan trade: %w", err)
		}
		out = append(out, t)
	}
	return out, total, rows.Err()
}

func (s *CHTradeStore) Update(ctx context.Context, t *models.Trade) error {
	t.PnL = t.ComputePnL()
	if err := s.insert(ctx, t, false); err != nil {
		return fmt.Errorf("update trade: %w", err)
	}
	s.l.Info("trade updated", applogger.Uint64("id", t.ID))
	return nil
}

func (s *CHTradeStore) Delete(ctx context.Context, id uint64) error {
	t, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if t == nil {
		return sql.ErrNoRows
	}
	if err := s.insert(ctx, t, true); err != nil {
		return fmt.Errorf("delete trade: %w", err)
	}
	s.l.Info("trade deleted", applogger.Uint64("id", id))
	return nil
}

// Stats aggregates the whole journal in one query. `today` is the local
// start of day used for the daily PnL split.
func (s *CHTradeStore) Stats(ctx context.Context, today time.Time) (*models.TradeStats, error) {
	const q = `SELECT
            count()                                          AS total,
            countIf(pnl > 0)                                 AS wins,
            countIf(pnl < 0)                                 AS losses,
            countIf(side = 'Long')                           AS longs,
            countIf(side = 'Long' AND pnl > 0)               AS long_wins,
            countIf(side = 'Short')                          AS shorts,
            countIf(side = 'Short' AND pnl > 0)              AS short_wins,
            sum(pnl)                                         AS total_pnl,
            sumIf(pnl, entered_at >= ?)                      AS today_pnl
        FROM journal_trades FINAL
        WHERE deleted = 0`
	var st models.TradeStats
	err := s.db.QueryRowContext(ctx, q, today).Scan(
		&st.TotalTrades, &st.Wins, &st.Losses,
		&st.LongTrades, &st.LongWins,
		&st.ShortTrades, &st.ShortWins,
		&st.TotalPnL, &st.TodayPnL,
	)
	if err != nil {
		return nil, fmt.Errorf("trade stats: %w", err)
	}
	if st.TotalTrades > 0 {
		st.WinRate = float64(st.Wins) / float64(st.TotalTrades) * 100
	}
	if st.LongTrades > 0 {
		st.LongWinRate = float64(st.LongWins) / float64(st.LongTrades) * 100
	}
	if st.ShortTrades > 0 {
		st.ShortWinRate = float64(st.ShortWins) / float64(st.ShortTrades) * 100
	}
	return &st, nil
}

func (s *CHTradeStore) Close() error {
	return nil // connection owned by pkg client
}
