package usecase

import (
	"reflect"
	"testing"

	"CoinPulse/internal/domain/models"
)

func TestDetectTopCoinsRanking(t *testing.T) {
	headlines := []string{
		"Bitcoin breaks new high",
		"Bitcoin ETF inflows continue",
		"Why bitcoin dominance is rising",
		"Ethereum upgrade ships",
		"Ethereum staking yields fall",
		"Cardano treasury vote",
		"Polkadot parachain auction",
		"Avalanche subnet launch",
	}

	got := DetectTopCoins(headlines)
	want := []models.TopCoin{
		{Symbol: "BTC", Mentions: 3},
		{Symbol: "ETH", Mentions: 2},
		{Symbol: "ADA", Mentions: 1},
		{Symbol: "AVAX", Mentions: 1},
		{Symbol: "DOT", Mentions: 1},
	}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("top coins = %+v, want %+v", got, want)
	}
}

func TestDetectTopCoinsCountsOncePerHeadline(t *testing.T) {
	got := DetectTopCoins([]string{"Bitcoin (BTC) bitcoin rally: BTC hits new high"})
	if len(got) != 1 || got[0].Symbol != "BTC" || got[0].Mentions != 1 {
		t.Fatalf("repeated keywords = %+v, want single BTC mention", got)
	}
}

func TestDetectTopCoinsCapsAtFive(t *testing.T) {
	headlines := []string{
		"bitcoin", "ethereum", "solana", "cardano", "polkadot", "polygon", "avalanche",
	}
	got := DetectTopCoins(headlines)
	if len(got) != 5 {
		t.Fatalf("got %d coins, want 5", len(got))
	}
	// All tied at one mention, so the alphabetical first five win.
	want := []string{"ADA", "AVAX", "BTC", "DOT", "ETH"}
	for i, coin := range got {
		if coin.Symbol != want[i] {
			t.Fatalf("rank %d = %s, want %s", i, coin.Symbol, want[i])
		}
	}
}

func TestDetectTopCoinsEmpty(t *testing.T) {
	if got := DetectTopCoins(nil); len(got) != 0 {
		t.Fatalf("no headlines should yield no coins, got %+v", got)
	}
}
