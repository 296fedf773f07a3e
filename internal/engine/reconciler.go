package engine

import (
	"sort"

	"stock_watch/internal/domain"

	"github.com/shopspring/decimal"
)

// Reconciler classifies a fetched price batch against the prior baseline.
// It holds no mutable state; Reconcile is a pure function of its inputs.
type Reconciler struct {
	threshold decimal.Decimal // Alert threshold in percent, compared inclusively
}

// NewReconciler creates a reconciler that alerts when |change| >= thresholdPct.
func NewReconciler(thresholdPct float64) *Reconciler {
	return &Reconciler{threshold: decimal.NewFromFloat(thresholdPct)}
}

// Threshold returns the alert threshold in percent.
func (r *Reconciler) Threshold() float64 {
	return r.threshold.InexactFloat64()
}

// Reconcile turns a fetched batch and the prior state into events and the next state.
//
// Only symbols present in batch are visited; everything else keeps its prior price.
// Every visited symbol's baseline advances to its rounded current price, alert or not.
// prior is never modified. Events come out in ascending symbol order.
func (r *Reconciler) Reconcile(batch map[string]float64, prior domain.PriceState) ([]domain.Event, domain.PriceState) {
	updated := prior.Clone()

	symbols := make([]string, 0, len(batch))
	for sym, price := range batch {
		if !domain.IsValidPrice(price) {
			continue
		}
		symbols = append(symbols, sym)
	}
	sort.Strings(symbols)

	events := make([]domain.Event, 0, len(symbols))
	for _, sym := range symbols {
		cur := domain.RoundPrice(batch[sym])

		prev, ok := prior.Get(sym)
		if !ok {
			events = append(events, domain.NewInitEvent(sym, cur))
			updated[sym] = cur
			continue
		}

		change := domain.ChangePercent(prev, cur)
		changePct := change.InexactFloat64()

		if change.Abs().GreaterThanOrEqual(r.threshold) {
			events = append(events, domain.NewAlertEvent(sym, prev, cur, changePct))
		} else {
			events = append(events, domain.NewInfoEvent(sym, prev, cur, changePct))
		}

		updated[sym] = cur
	}

	return events, updated
}
