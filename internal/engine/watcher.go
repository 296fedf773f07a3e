package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"stock_watch/internal/domain"
	"stock_watch/internal/infra"

	"github.com/google/uuid"
)

// WatcherConfig wires a Watcher to its collaborators.
type WatcherConfig struct {
	Symbols    []string
	Interval   time.Duration
	Reconciler *Reconciler
	Source     domain.PriceSource
	Store      domain.StateStore
	Notifier   domain.Notifier
	Metrics    *infra.Metrics // optional
	Logger     *slog.Logger   // optional
}

// Watcher is the single-writer poll loop: fetch, reconcile, persist, notify, sleep.
// Cycles never overlap. The baseline is owned by the loop; readers get copies.
type Watcher struct {
	symbols    []string
	interval   time.Duration
	reconciler *Reconciler
	source     domain.PriceSource
	store      domain.StateStore
	notifier   domain.Notifier
	metrics    *infra.Metrics
	logger     *slog.Logger

	state domain.PriceState
	mu    sync.RWMutex // Used only for external reads (e.g. API)
}

// NewWatcher creates a watcher with an empty baseline. Run loads the persisted one.
func NewWatcher(cfg WatcherConfig) *Watcher {
	w := &Watcher{
		symbols:    cfg.Symbols,
		interval:   cfg.Interval,
		reconciler: cfg.Reconciler,
		source:     cfg.Source,
		store:      cfg.Store,
		notifier:   cfg.Notifier,
		metrics:    cfg.Metrics,
		logger:     cfg.Logger,
		state:      domain.NewPriceState(),
	}
	if w.metrics == nil {
		w.metrics = infra.NewMetrics()
	}
	if w.logger == nil {
		w.logger = slog.Default()
	}
	return w
}

// LoadState replaces the in-memory baseline with the persisted one.
func (w *Watcher) LoadState(ctx context.Context) {
	state := w.store.Load(ctx)
	w.setState(state)
	w.logger.Info("Baseline loaded", slog.Int("symbols", len(state)))
}

// Run loads the baseline and cycles until ctx is cancelled.
// The first cycle starts immediately; later ones start one interval after the previous finished.
func (w *Watcher) Run(ctx context.Context) error {
	w.LoadState(ctx)
	w.logger.Info("Watcher started",
		slog.Any("tickers", w.symbols), slog.Duration("interval", w.interval))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Watcher stopping...")
			return nil
		case <-timer.C:
			w.RunCycle(ctx)
			timer.Reset(w.interval)
		}
	}
}

// RunCycle performs one fetch/reconcile/persist/notify pass.
// A whole-batch fetch failure or an empty batch leaves the baseline untouched.
// A persist failure is returned, but the in-memory baseline has already advanced.
func (w *Watcher) RunCycle(ctx context.Context) (err error) {
	log := w.logger.With(slog.String("cycle_id", uuid.NewString()))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			w.metrics.RecordPanic()
			log.Error("CRITICAL_PANIC_DETECTED", slog.Any("panic", r))
			err = fmt.Errorf("cycle panic: %v", r)
		}
	}()

	batch, err := w.source.Fetch(ctx, w.symbols)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		w.metrics.RecordFetchFailure()
		log.Error("Price fetch failed, will retry",
			slog.Any("error", err), slog.Bool("retriable", domain.IsRetriable(err)))
		return err
	}
	if len(batch) == 0 {
		w.metrics.RecordEmptyBatch()
		log.Warn("No prices fetched, will retry")
		return domain.ErrNoPrices
	}

	events, next := w.reconciler.Reconcile(batch, w.Snapshot())
	w.setState(next)

	// A clean shutdown lets an in-flight persist finish.
	saveErr := w.store.Save(context.WithoutCancel(ctx), next)
	if saveErr != nil {
		w.metrics.RecordPersistFailure()
		log.Error("Failed to persist baseline", slog.Any("error", saveErr))
	}

	alerts := 0
	for _, ev := range events {
		if ev.Kind == domain.EventAlert {
			alerts++
		}
		w.notifier.Notify(ctx, ev)
	}

	latency := time.Since(start)
	w.metrics.RecordCycle(latency, len(batch), alerts, len(next))
	log.Debug("Cycle complete",
		slog.Int("resolved", len(batch)),
		slog.Int("requested", len(w.symbols)),
		slog.Int("alerts", alerts),
		slog.Duration("latency", latency))

	return saveErr
}

// Snapshot implements domain.StateReader. The returned map is a copy.
func (w *Watcher) Snapshot() domain.PriceState {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.state.Clone()
}

// Symbols returns the configured ticker universe.
func (w *Watcher) Symbols() []string {
	return w.symbols
}

func (w *Watcher) setState(state domain.PriceState) {
	w.mu.Lock()
	w.state = state
	w.mu.Unlock()
}
