package sources

import (
	"testing"
)

func exchangeTx(symbol string, amount float64, from, to string) whaleTx {
	tx := whaleTx{Symbol: symbol, AmountUSD: amount, Timestamp: 1_750_000_000}
	tx.From.OwnerType = from
	tx.To.OwnerType = to
	return tx
}

func TestClassifyNetFlowBoundaries(t *testing.T) {
	cases := []struct {
		net  float64
		want string
	}{
		{10_000_001, "accumulating"},
		{10_000_000, "neutral"}, // exactly at the threshold
		{0, "neutral"},
		{-10_000_000, "neutral"},
		{-10_000_001, "distributing"},
	}
	for _, c := range cases {
		if got := ClassifyNetFlow(c.net); got != c.want {
			t.Errorf("ClassifyNetFlow(%v) = %q, want %q", c.net, got, c.want)
		}
	}
}

func TestSummarizeFlows(t *testing.T) {
	got := Summarize([]whaleTx{
		exchangeTx("btc", 20_000_000, "exchange", "unknown"), // outflow
		exchangeTx("eth", 4_000_000, "unknown", "exchange"),  // inflow
		exchangeTx("btc", 1_000_000, "unknown", "unknown"),   // neither
	})

	if got.OutflowUSD != 20_000_000 || got.InflowUSD != 4_000_000 {
		t.Fatalf("flows = out %v in %v", got.OutflowUSD, got.InflowUSD)
	}
	if got.NetFlowUSD != 16_000_000 {
		t.Fatalf("net = %v, want 16M", got.NetFlowUSD)
	}
	if got.Sentiment != "accumulating" {
		t.Fatalf("sentiment = %q, want accumulating", got.Sentiment)
	}
	if got.TransferCount != 3 {
		t.Fatalf("transfer count = %d, want 3", got.TransferCount)
	}
	if got.Transfers[0].Symbol != "BTC" {
		t.Fatalf("symbol = %q, want uppercased BTC", got.Transfers[0].Symbol)
	}
	if got.Mock {
		t.Fatalf("real summary flagged as mock")
	}
}

func TestSummarizeExchangeToExchangeCountsBoth(t *testing.T) {
	got := Summarize([]whaleTx{exchangeTx("btc", 5_000_000, "exchange", "exchange")})
	if got.InflowUSD != 5_000_000 || got.OutflowUSD != 5_000_000 {
		t.Fatalf("exchange-to-exchange flows = out %v in %v, want both counted", got.OutflowUSD, got.InflowUSD)
	}
	if got.NetFlowUSD != 0 || got.Sentiment != "neutral" {
		t.Fatalf("net = %v sentiment = %q", got.NetFlowUSD, got.Sentiment)
	}
}

func TestSummarizeCapsTransferList(t *testing.T) {
	txs := make([]whaleTx, 25)
	for i := range txs {
		txs[i] = exchangeTx("btc", 1_000_000, "unknown", "exchange")
	}
	got := Summarize(txs)
	if len(got.Transfers) != whaleTransferCap {
		t.Fatalf("transfer list = %d entries, want %d", len(got.Transfers), whaleTransferCap)
	}
	if got.TransferCount != 25 {
		t.Fatalf("transfer count = %d, want all 25", got.TransferCount)
	}
}
