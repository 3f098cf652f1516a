package notify

import (
	"fmt"
	"strings"
)

// FormatAlert renders the plain text body of an alert. The price is
// printed exactly as the source reported it.
func FormatAlert(a Alert) string {
	s := a.Snapshot

	var b strings.Builder
	b.WriteString("Gem token candidate!\n")
	fmt.Fprintf(&b, "DEX ID: %s\n", s.DexID)
	fmt.Fprintf(&b, "Token Symbol: %s\n", s.Symbol)
	fmt.Fprintf(&b, "Token Name: %s\n", s.Name)
	fmt.Fprintf(&b, "Price (USD): %s\n", s.PriceUSD)
	fmt.Fprintf(&b, "Price Change (24h): %.2f\n", s.PriceChange24h)
	fmt.Fprintf(&b, "Liquidity (USD): %.2f\n", s.LiquidityUSD)
	fmt.Fprintf(&b, "Volume (24h): %.2f\n", s.Volume24h)
	fmt.Fprintf(&b, "Market Cap: %d\n", s.MarketCap)
	fmt.Fprintf(&b, "Txns (24h): %d\n", s.Txns24h)
	fmt.Fprintf(&b, "Score: %d/%d\n", a.Score, a.Threshold)

	if len(a.Matched) > 0 {
		names := make([]string, len(a.Matched))
		for i, p := range a.Matched {
			names[i] = string(p)
		}
		fmt.Fprintf(&b, "Signals: %s\n", strings.Join(names, ", "))
	}
	if a.Reason != "" {
		fmt.Fprintf(&b, "Reason: %s\n", a.Reason)
	}
	fmt.Fprintf(&b, "URL: %s\n", s.PairURL)
	if a.Note != "" {
		fmt.Fprintf(&b, "Note: %s\n", a.Note)
	}

	return b.String()
}
