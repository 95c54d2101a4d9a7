package models

import "time"

// Trade sides.
const (
	SideLong  = "Long"
	SideShort = "Short"
)

// Trade is one journal entry. PnL is computed at write time from the prices
// so stored rows stay consistent with direction.
type Trade struct {
	ID         uint64     `json:"id"`
	Symbol     string     `json:"symbol"`
	Side       string     `json:"side"` // Long or Short
	EntryPrice float64    `json:"entry_price"`
	ExitPrice  float64    `json:"exit_price"`
	Quantity   float64    `json:"quantity"`
	PnL        float64    `json:"pnl"`
	Notes      string     `json:"notes,omitempty"`
	EnteredAt  time.Time  `json:"entered_at"`
	ExitedAt   *time.Time `json:"exited_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ComputePnL returns the signed profit for the trade's direction.
func (t *Trade) ComputePnL() float64 {
	diff := t.ExitPrice - t.EntryPrice
	if t.Side == SideShort {
		diff = -diff
	}
	return diff * t.Quantity
}

// TradeFilter narrows List queries.
type TradeFilter struct {
	Symbol string
	From   *time.Time
	To     *time.Time
	Page   int
	Limit  int
}

// TradeStats is the aggregate journal view.
type TradeStats struct {
	TotalTrades  int     `json:"total_trades"`
	Wins         int     `json:"wins"`
	Losses       int     `json:"losses"`
	WinRate      float64 `json:"win_rate"`
	LongTrades   int     `json:"long_trades"`
	LongWins     int     `json:"long_wins"`
	LongWinRate  float64 `json:"long_win_rate"`
	ShortTrades  int     `json:"short_trades"`
	ShortWins    int     `json:"short_wins"`
	ShortWinRate float64 `json:"short_win_rate"`
	TotalPnL     float64 `json:"total_pnl"`
	TodayPnL     float64 `json:"today_pnl"`
}
