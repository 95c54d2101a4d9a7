package models

// Requests for the HTTP endpoints. Defined in domain for consistency and reuse.

type HistoryRequest struct {
	Days  int `query:"days" json:"days" default:"7" validate:"gte=1,lte=90"`
	Limit int `query:"limit" json:"limit" default:"100" validate:"gte=1,lte=1000"`
}

type BacktestRequest struct {
	Days int `query:"days" json:"days" default:"30" validate:"gte=1,lte=90"`
}

type TradeCreateRequest struct {
	Symbol     string  `json:"symbol" validate:"required,min=2,max=16"`
	Side       string  `json:"side" validate:"required,oneof=Long Short"`
	EntryPrice float64 `json:"entry_price" validate:"required,gt=0"`
	ExitPrice  float64 `json:"exit_price" validate:"required,gt=0"`
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
	Notes      string  `json:"notes" validate:"max=2000"`
	EnteredAt  string  `json:"entered_at"` // RFC3339 or unix seconds, defaults to now
	ExitedAt   string  `json:"exited_at"`
}

type TradeUpdateRequest struct {
	Symbol     string  `json:"symbol" validate:"omitempty,min=2,max=16"`
	Side       string  `json:"side" validate:"omitempty,oneof=Long Short"`
	EntryPrice float64 `json:"entry_price" validate:"omitempty,gt=0"`
	ExitPrice  float64 `json:"exit_price" validate:"omitempty,gt=0"`
	Quantity   float64 `json:"quantity" validate:"omitempty,gt=0"`
	Notes      string  `json:"notes" validate:"max=2000"`
}

type TradeListRequest struct {
	Symbol string `query:"symbol" json:"symbol"`
	From   string `query:"from" json:"from"`
	To     string `query:"to" json:"to"`
	Page   int    `query:"page" json:"page" default:"1" validate:"gte=1"`
	Limit  int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=200"`
}
