package usecase

import (
	"sort"
	"strings"

	"CoinPulse/internal/domain/models"
)

// coinKeywords maps a ticker to the words that count as a mention. A headline
// counts at most once per coin.
var coinKeywords = map[string][]string{
	"BTC":   {"bitcoin", "btc"},
	"ETH":   {"ethereum", "eth"},
	"SOL":   {"solana", "sol"},
	"ADA":   {"cardano", "ada"},
	"DOT":   {"polkadot", "dot"},
	"MATIC": {"polygon", "matic"},
	"AVAX":  {"avalanche", "avax"},
	"LINK":  {"chainlink", "link"},
	"UNI":   {"uniswap", "uni"},
	"ATOM":  {"cosmos", "atom"},
}

// DetectTopCoins returns up to five coins ranked by headline mentions,
// ties broken alphabetically for a stable order.
func DetectTopCoins(headlines []string) []models.TopCoin {
	mentions := make(map[string]int)
	for _, h := range headlines {
		lower := strings.ToLower(h)
		for coin, keywords := range coinKeywords {
			for _, kw := range keywords {
				if strings.Contains(lower, kw) {
					mentions[coin]++
					break
				}
			}
		}
	}

	out := make([]models.TopCoin, 0, len(mentions))
	for coin, count := range mentions {
		out = append(out, models.TopCoin{Symbol: coin, Mentions: count})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Mentions != out[j].Mentions {
			return out[i].Mentions > out[j].Mentions
		}
		return out[i].Symbol < out[j].Symbol
	})
	if len(out) > 5 {
		out = out[:5]
	}
	return out
}
