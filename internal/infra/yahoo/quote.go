package yahoo

import (
	"context"
	"log/slog"

	"stock_watch/internal/domain"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/quote"
)

// quoteIter is the subset of the finance-go list iterator the source consumes.
type quoteIter interface {
	Next() bool
	Quote() *finance.Quote
	Err() error
}

// QuoteSource resolves prices with one batch request to the quote endpoint.
type QuoteSource struct {
	list   func(symbols []string) quoteIter
	logger *slog.Logger
}

// NewQuoteSource creates a batch quote source backed by finance-go.
func NewQuoteSource(logger *slog.Logger) *QuoteSource {
	if logger == nil {
		logger = slog.Default()
	}
	return &QuoteSource{
		list: func(symbols []string) quoteIter {
			return quote.List(symbols)
		},
		logger: logger,
	}
}

// Fetch implements domain.PriceSource.
func (s *QuoteSource) Fetch(ctx context.Context, symbols []string) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(symbols) == 0 {
		return map[string]float64{}, nil
	}

	wanted := make(map[string]struct{}, len(symbols))
	for _, sym := range symbols {
		wanted[sym] = struct{}{}
	}

	prices := make(map[string]float64, len(symbols))
	iter := s.list(symbols)
	for iter.Next() {
		q := iter.Quote()
		if q == nil {
			continue
		}
		sym := domain.NormalizeSymbol(q.Symbol)
		if _, ok := wanted[sym]; !ok {
			continue
		}
		if !domain.IsValidPrice(q.RegularMarketPrice) || q.RegularMarketPrice <= 0 {
			s.logger.Debug("Quote without usable price", slog.String("symbol", sym))
			continue
		}
		prices[sym] = q.RegularMarketPrice
	}

	if err := iter.Err(); err != nil {
		if len(prices) == 0 {
			return nil, domain.NewNetworkError("quote list", err)
		}
		s.logger.Warn("Quote list ended early", slog.Int("resolved", len(prices)), slog.Any("error", err))
	}

	return prices, nil
}
