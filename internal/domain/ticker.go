package domain

import (
	"math"
	"strings"

	"github.com/shopspring/decimal"
)

// PricePrecision is the number of decimal places kept for stored and compared prices.
const PricePrecision = 2

var hundred = decimal.NewFromInt(100)

// NormalizeSymbol trims whitespace and uppercases a ticker symbol.
func NormalizeSymbol(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// ParseTickers splits a comma-separated ticker list.
// Entries are normalized, empty entries are dropped and duplicates keep their first position.
func ParseTickers(raw string) []string {
	return NormalizeTickers(strings.Split(raw, ","))
}

// NormalizeTickers applies NormalizeSymbol to every entry, dropping empties and duplicates.
func NormalizeTickers(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	result := make([]string, 0, len(symbols))
	for _, s := range symbols {
		sym := NormalizeSymbol(s)
		if sym == "" {
			continue
		}
		if _, dup := seen[sym]; dup {
			continue
		}
		seen[sym] = struct{}{}
		result = append(result, sym)
	}
	return result
}

// IsValidPrice reports whether a fetched price can be reconciled.
// NaN and infinities are treated like an unresolved symbol.
func IsValidPrice(price float64) bool {
	return !math.IsNaN(price) && !math.IsInf(price, 0)
}

// RoundPrice rounds a price to PricePrecision places, half away from zero.
func RoundPrice(price float64) float64 {
	return decimal.NewFromFloat(price).Round(PricePrecision).InexactFloat64()
}

// FormatPrice renders a price as a fixed 2-decimal string (e.g. "153.50").
func FormatPrice(price float64) string {
	return decimal.NewFromFloat(price).StringFixed(PricePrecision)
}

// ChangePercent calculates 100 * (current - previous) / previous.
// A zero previous price is degenerate data and yields 0 instead of dividing by zero.
func ChangePercent(previous, current float64) decimal.Decimal {
	prev := decimal.NewFromFloat(previous)
	if prev.IsZero() {
		return decimal.Zero
	}
	return decimal.NewFromFloat(current).Sub(prev).Div(prev).Mul(hundred)
}
