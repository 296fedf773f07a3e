package yahoo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"time"

	"stock_watch/internal/domain"
	"stock_watch/internal/infra"

	"golang.org/x/sync/errgroup"
)

// chartResponse represents the Yahoo Finance v8 chart API response
type chartResponse struct {
	Chart struct {
		Result []struct {
			Indicators struct {
				Quote []struct {
					Close []*float64 `json:"close"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// lastClose returns the most recent non-null close bar.
func (r *chartResponse) lastClose() (float64, bool) {
	if len(r.Chart.Result) == 0 || len(r.Chart.Result[0].Indicators.Quote) == 0 {
		return 0, false
	}
	closes := r.Chart.Result[0].Indicators.Quote[0].Close
	for i := len(closes) - 1; i >= 0; i-- {
		if closes[i] != nil && domain.IsValidPrice(*closes[i]) {
			return *closes[i], true
		}
	}
	return 0, false
}

// ChartClient resolves last-traded prices one symbol at a time from the chart endpoint.
// It tries intraday 1m bars first and falls back to daily bars.
type ChartClient struct {
	baseURL     string
	httpClient  *http.Client
	logger      *slog.Logger
	concurrency int

	maxAttempts int
	baseDelay   time.Duration
}

// ChartOption configures a ChartClient.
type ChartOption func(*ChartClient)

// NewChartClient creates a chart client for baseURL (e.g. https://query1.finance.yahoo.com).
func NewChartClient(baseURL string, opts ...ChartOption) *ChartClient {
	c := &ChartClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger:      slog.Default(),
		concurrency: 4,
		maxAttempts: 3,
		baseDelay:   time.Second,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// WithTimeout sets the HTTP client timeout.
func WithTimeout(d time.Duration) ChartOption {
	return func(c *ChartClient) {
		c.httpClient.Timeout = d
	}
}

// WithRetries sets the attempt count and the first backoff delay (doubled per retry).
func WithRetries(attempts int, baseDelay time.Duration) ChartOption {
	return func(c *ChartClient) {
		c.maxAttempts = attempts
		c.baseDelay = baseDelay
	}
}

// WithConcurrency bounds the number of symbols fetched in parallel.
func WithConcurrency(n int) ChartOption {
	return func(c *ChartClient) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) ChartOption {
	return func(c *ChartClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Fetch implements domain.PriceSource.
// Unresolved symbols are omitted. An error is returned only when the context is done
// or every symbol failed with a transport/upstream error.
func (c *ChartClient) Fetch(ctx context.Context, symbols []string) (map[string]float64, error) {
	var (
		mu     sync.Mutex
		prices = make(map[string]float64, len(symbols))
		errs   []error
	)

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for _, sym := range symbols {
		g.Go(func() error {
			price, ok, err := c.fetchSymbol(ctx, sym)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				c.logger.Warn("Price fetch failed", slog.String("symbol", sym), slog.Any("error", err))
				errs = append(errs, fmt.Errorf("%s: %w", sym, err))
			case ok:
				prices[sym] = price
			default:
				c.logger.Debug("Symbol unresolved", slog.String("symbol", sym))
			}
			return nil
		})
	}
	g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if len(symbols) > 0 && len(errs) == len(symbols) {
		return nil, domain.NewNetworkError("chart", errors.Join(errs...))
	}

	return prices, nil
}

// fetchSymbol returns (price, true, nil) on success and (0, false, nil) when the
// symbol simply has no data.
func (c *ChartClient) fetchSymbol(ctx context.Context, symbol string) (float64, bool, error) {
	if symbol == "" {
		return 0, false, domain.ErrInvalidSymbol
	}
	for _, interval := range []string{"1m", "1d"} {
		resp, err := c.fetchChart(ctx, symbol, interval)
		if err != nil {
			if errors.Is(err, domain.ErrSymbolNotFound) {
				return 0, false, nil
			}
			var se *domain.StatusError
			if errors.As(err, &se) && !se.IsRetriable() {
				return 0, false, domain.NewFatalNetworkError("chart "+interval, err)
			}
			return 0, false, err
		}
		if price, ok := resp.lastClose(); ok {
			return price, true, nil
		}
	}
	return 0, false, nil
}

// fetchChart fetches one chart with retry logic
func (c *ChartClient) fetchChart(ctx context.Context, symbol, interval string) (*chartResponse, error) {
	var lastErr error
	for i := 0; i < c.maxAttempts; i++ {
		if i > 0 {
			// Exponential backoff: base, 2*base, 4*base...
			delay := c.baseDelay * time.Duration(1<<uint(i-1))
			c.logger.Debug("Retrying chart fetch",
				slog.String("symbol", symbol), slog.Int("attempt", i), slog.Duration("delay", delay))
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(delay):
			}
		}

		resp, err := c.doFetch(ctx, symbol, interval)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		var se *domain.StatusError
		if errors.As(err, &se) && !se.IsRetriable() {
			return nil, err
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
	}
	return nil, lastErr
}

func (c *ChartClient) doFetch(ctx context.Context, symbol, interval string) (*chartResponse, error) {
	query := url.Values{}
	query.Set("range", "1d")
	query.Set("interval", interval)
	fullURL := c.baseURL + "/v8/finance/chart/" + url.PathEscape(symbol) + "?" + query.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, err
	}

	// Add browser-like User-Agent to avoid bot detection
	req.Header.Set("User-Agent", infra.DefaultUserAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body)
		return nil, &domain.StatusError{StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	var data chartResponse
	if err := json.Unmarshal(body, &data); err != nil {
		return nil, fmt.Errorf("decode chart: %w", err)
	}
	if data.Chart.Error != nil {
		return nil, fmt.Errorf("chart error %s: %s", data.Chart.Error.Code, data.Chart.Error.Description)
	}

	return &data, nil
}
