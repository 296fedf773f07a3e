package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"stock_watch/internal/domain"
	"stock_watch/internal/infra"
	"stock_watch/internal/service"
)

const (
	readHeaderTimeout = 5 * time.Second
	shutdownTimeout   = 10 * time.Second
)

// Server is the read-only HTTP API.
type Server struct {
	httpServer *http.Server
	prices     *service.PriceService
	state      domain.StateReader
	metrics    *infra.Metrics
	logger     *slog.Logger
}

// New creates the API server on addr. state and metrics may be nil, which disables
// /state and /metrics respectively.
func New(addr string, prices *service.PriceService, state domain.StateReader, metrics *infra.Metrics, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		prices:  prices,
		state:   state,
		metrics: metrics,
		logger:  logger,
	}
	s.httpServer = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: readHeaderTimeout,
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	mux.HandleFunc("GET /prices", s.handlePrices)

	if s.state != nil {
		mux.HandleFunc("GET /state", s.handleState)
	}

	if s.metrics != nil {
		mux.HandleFunc("GET /metrics", func(w http.ResponseWriter, r *http.Request) {
			writeJSON(w, http.StatusOK, s.metrics.Snapshot())
		})
	}

	return mux
}

type pricesResponse struct {
	Count  int             `json:"count"`
	Stocks []service.Quote `json:"stocks"`
}

func (s *Server) handlePrices(w http.ResponseWriter, r *http.Request) {
	quotes, err := s.prices.Current(r.Context())
	if err != nil {
		s.logger.Warn("Live price query failed", slog.Any("error", err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, pricesResponse{Count: len(quotes), Stocks: quotes})
}

func (s *Server) handleState(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Snapshot()

	stocks := make([]service.Quote, 0, len(snap))
	for _, sym := range snap.Symbols() {
		stocks = append(stocks, service.Quote{Ticker: sym, Price: domain.FormatPrice(snap[sym])})
	}
	writeJSON(w, http.StatusOK, pricesResponse{Count: len(stocks), Stocks: stocks})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// Serve serves on ln until ctx is cancelled, then shuts down gracefully.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("API server listening", slog.String("addr", ln.Addr().String()))
		if err := s.httpServer.Serve(ln); !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("API server stopped")
	return nil
}
