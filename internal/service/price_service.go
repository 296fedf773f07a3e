package service

import (
	"context"

	"stock_watch/internal/domain"
)

// Quote is one ticker's live price, formatted to exactly two decimals.
type Quote struct {
	Ticker string `json:"ticker"`
	Price  string `json:"price"`
}

// PriceService answers on-demand price queries for the configured tickers.
// It reads the upstream directly and never touches the watcher's baseline.
type PriceService struct {
	source  domain.PriceSource
	tickers []string
}

// NewPriceService creates a new PriceService instance
func NewPriceService(source domain.PriceSource, tickers []string) *PriceService {
	return &PriceService{
		source:  source,
		tickers: tickers,
	}
}

// Tickers returns the configured tickers in configured order.
func (s *PriceService) Tickers() []string {
	return s.tickers
}

// Current fetches live prices. Quotes follow the configured ticker order;
// unresolved tickers are omitted.
func (s *PriceService) Current(ctx context.Context) ([]Quote, error) {
	prices, err := s.source.Fetch(ctx, s.tickers)
	if err != nil {
		return nil, err
	}

	result := make([]Quote, 0, len(prices))
	for _, t := range s.tickers {
		price, ok := prices[t]
		if !ok || !domain.IsValidPrice(price) {
			continue
		}
		result = append(result, Quote{
			Ticker: t,
			Price:  domain.FormatPrice(domain.RoundPrice(price)),
		})
	}
	return result, nil
}
