package app

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"strings"

	"stock_watch/internal/domain"
	"stock_watch/internal/engine"
	"stock_watch/internal/infra"
	"stock_watch/internal/infra/storage"
	"stock_watch/internal/infra/yahoo"
	"stock_watch/internal/server"
	"stock_watch/internal/service"

	"golang.org/x/sync/errgroup"
)

// Bootstrap orchestrates the application startup sequence
type Bootstrap struct {
	Config  *infra.Config
	Logger  *slog.Logger
	Store   domain.StateStore
	Source  domain.PriceSource
	Metrics *infra.Metrics
	Watcher *engine.Watcher
	Server  *server.Server // nil when HTTP_ADDR is empty

	listener net.Listener // bound during InitializeWith so a busy port fails startup
}

// NewBootstrap creates a new Bootstrap instance
func NewBootstrap() *Bootstrap {
	return &Bootstrap{}
}

// Initialize loads the configuration and wires every component.
// configPath may be empty.
func (b *Bootstrap) Initialize(configPath string) error {
	// 1. Load Config
	cfg, err := infra.LoadConfig(configPath)
	if err != nil {
		return err // Let main handle the error
	}
	return b.InitializeWith(cfg)
}

// InitializeWith wires components from an already-loaded configuration.
func (b *Bootstrap) InitializeWith(cfg *infra.Config) error {
	b.Config = cfg

	// 2. Setup Logger
	logger := infra.NewLogger(cfg)
	slog.SetDefault(logger)
	b.Logger = logger
	logger.Info("🚀 Bootstrapping stock watch...")

	// 3. State store
	store, err := storage.Open(cfg, logger)
	if err != nil {
		return err
	}
	b.Store = store
	logger.Info("✅ State store ready", slog.String("backend", cfg.StateBackend), slog.String("location", cfg.StateLocation()))

	// 4. Price source
	source, err := newPriceSource(cfg, logger)
	if err != nil {
		store.Close()
		return err
	}
	b.Source = source

	// 5. Watcher
	b.Metrics = infra.NewMetrics()
	b.Watcher = engine.NewWatcher(engine.WatcherConfig{
		Symbols:    cfg.Tickers,
		Interval:   cfg.Interval(),
		Reconciler: engine.NewReconciler(cfg.AlertPercent),
		Source:     source,
		Store:      store,
		Notifier:   infra.NewLogNotifier(logger),
		Metrics:    b.Metrics,
		Logger:     logger,
	})

	// 6. Read API
	if cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			store.Close()
			return fmt.Errorf("read API: %w", err)
		}
		b.listener = ln
		prices := service.NewPriceService(source, cfg.Tickers)
		b.Server = server.New(cfg.HTTPAddr, prices, b.Watcher, b.Metrics, logger)
		logger.Info("✅ Read API bound", slog.String("addr", ln.Addr().String()))
	}

	b.printBanner()
	return nil
}

func newPriceSource(cfg *infra.Config, logger *slog.Logger) (domain.PriceSource, error) {
	switch cfg.PriceSource {
	case "", "chart":
		return yahoo.NewChartClient(cfg.YahooBaseURL,
			yahoo.WithTimeout(cfg.FetchTimeout()),
			yahoo.WithConcurrency(cfg.FetchConcurrency),
			yahoo.WithLogger(logger),
		), nil
	case "quote":
		return yahoo.NewQuoteSource(logger), nil
	default:
		return nil, fmt.Errorf("%w: price source %q", domain.ErrUnknownBackend, cfg.PriceSource)
	}
}

func (b *Bootstrap) printBanner() {
	cfg := b.Config
	b.Logger.Info("📈 Stock price watcher configured",
		slog.String("tickers", strings.Join(cfg.Tickers, ", ")),
		slog.Duration("interval", cfg.Interval()),
		slog.String("alert_threshold", fmt.Sprintf("%.2f%%", cfg.AlertPercent)),
		slog.String("state", cfg.StateLocation()),
		slog.String("price_source", cfg.PriceSource),
		slog.String("http_addr", cfg.HTTPAddr),
	)
}

// APIAddr returns the bound read API address, or "" when the API is disabled.
func (b *Bootstrap) APIAddr() string {
	if b.listener == nil {
		return ""
	}
	return b.listener.Addr().String()
}

// Close releases what InitializeWith acquired. Only needed when Run is never called.
func (b *Bootstrap) Close() error {
	if b.listener != nil {
		b.listener.Close()
	}
	if b.Store != nil {
		return b.Store.Close()
	}
	return nil
}

// Run runs the watcher and the read API until ctx is cancelled, then closes the store.
// A read API failure is logged and never stops the watcher.
func (b *Bootstrap) Run(ctx context.Context) error {
	defer func() {
		if err := b.Store.Close(); err != nil {
			b.Logger.Warn("Failed to close state store", slog.Any("error", err))
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return b.Watcher.Run(gctx)
	})
	if b.Server != nil {
		g.Go(func() error {
			if err := b.Server.Serve(gctx, b.listener); err != nil {
				b.Logger.Error("Read API stopped", slog.Any("error", err))
			}
			return nil
		})
	}

	err := g.Wait()
	b.Logger.Info("👋 Shutdown complete")
	return err
}
