package domain

import "sort"

// PriceState maps a normalized symbol to its last recorded (rounded) price.
// It is the baseline every new observation is compared against.
type PriceState map[string]float64

// NewPriceState creates an empty state.
func NewPriceState() PriceState {
	return make(PriceState)
}

// Clone returns an independent copy. A nil state clones to an empty one.
func (s PriceState) Clone() PriceState {
	result := make(PriceState, len(s))
	for k, v := range s {
		result[k] = v
	}
	return result
}

// Get returns the baseline price for symbol and whether one exists.
func (s PriceState) Get(symbol string) (float64, bool) {
	price, ok := s[symbol]
	return price, ok
}

// Symbols returns the tracked symbols in ascending order.
func (s PriceState) Symbols() []string {
	result := make([]string, 0, len(s))
	for sym := range s {
		result = append(result, sym)
	}
	sort.Strings(result)
	return result
}

// Normalized returns a copy with keys passed through NormalizeSymbol.
// Entries whose key normalizes to empty or whose value is not finite are dropped.
func (s PriceState) Normalized() PriceState {
	result := make(PriceState, len(s))
	for k, v := range s {
		sym := NormalizeSymbol(k)
		if sym == "" || !IsValidPrice(v) {
			continue
		}
		result[sym] = v
	}
	return result
}
