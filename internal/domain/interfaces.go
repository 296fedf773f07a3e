package domain

import "context"

// PriceSource fetches last-traded prices for a set of symbols.
// Symbols that cannot be resolved are omitted from the result; that is not an error.
// An error means the whole batch failed.
type PriceSource interface {
	Fetch(ctx context.Context, symbols []string) (map[string]float64, error)
}

// StateStore is the durable home of the PriceState.
// Load never fails: a missing or damaged resource yields an empty state (cold start).
type StateStore interface {
	Load(ctx context.Context) PriceState
	Save(ctx context.Context, state PriceState) error
	Close() error
}

// Notifier receives every event produced by a reconciliation cycle.
type Notifier interface {
	Notify(ctx context.Context, ev Event)
}

// StateReader exposes eventually-consistent snapshots of the watcher's baseline.
type StateReader interface {
	Snapshot() PriceState
}
