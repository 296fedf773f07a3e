package infra

import (
	"sync/atomic"
	"time"
)

// Metrics provides lightweight observability of the poll loop without external dependencies.
// Uses atomic operations for thread-safety: the loop writes, the read API snapshots.
type Metrics struct {
	// Counters
	cyclesTotal     atomic.Uint64
	fetchFailures   atomic.Uint64
	emptyBatches    atomic.Uint64
	symbolsResolved atomic.Uint64
	alertsTotal     atomic.Uint64
	persistFailures atomic.Uint64
	panicsRecovered atomic.Uint64

	// Latency tracking
	latencySumNs atomic.Int64
	latencyCount atomic.Uint64

	// Gauges
	lastCycleUnix  atomic.Int64
	trackedSymbols atomic.Int64
}

// NewMetrics creates a zeroed metrics set.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordCycle records a completed reconciliation cycle.
func (m *Metrics) RecordCycle(latency time.Duration, resolved, alerts, tracked int) {
	m.cyclesTotal.Add(1)
	m.symbolsResolved.Add(uint64(resolved))
	m.alertsTotal.Add(uint64(alerts))
	m.latencySumNs.Add(latency.Nanoseconds())
	m.latencyCount.Add(1)
	m.lastCycleUnix.Store(time.Now().Unix())
	m.trackedSymbols.Store(int64(tracked))
}

// RecordFetchFailure records a cycle whose whole batch failed.
func (m *Metrics) RecordFetchFailure() {
	m.fetchFailures.Add(1)
}

// RecordEmptyBatch records a cycle that resolved no symbols.
func (m *Metrics) RecordEmptyBatch() {
	m.emptyBatches.Add(1)
}

// RecordPersistFailure records a failed state save.
func (m *Metrics) RecordPersistFailure() {
	m.persistFailures.Add(1)
}

// RecordPanic records a recovered panic inside a cycle.
func (m *Metrics) RecordPanic() {
	m.panicsRecovered.Add(1)
}

// MetricsSnapshot is a point-in-time view of all metrics.
type MetricsSnapshot struct {
	CyclesTotal     uint64    `json:"cycles_total"`
	FetchFailures   uint64    `json:"fetch_failures"`
	EmptyBatches    uint64    `json:"empty_batches"`
	SymbolsResolved uint64    `json:"symbols_resolved"`
	AlertsTotal     uint64    `json:"alerts_total"`
	PersistFailures uint64    `json:"persist_failures"`
	PanicsRecovered uint64    `json:"panics_recovered"`
	AvgCycleNs      int64     `json:"avg_cycle_ns"`
	TrackedSymbols  int64     `json:"tracked_symbols"`
	LastCycleUnix   int64     `json:"last_cycle_unix"`
	Timestamp       time.Time `json:"timestamp"`
}

// Snapshot returns current metrics as a snapshot.
func (m *Metrics) Snapshot() MetricsSnapshot {
	var avgLatency int64
	count := m.latencyCount.Load()
	if count > 0 {
		avgLatency = m.latencySumNs.Load() / int64(count)
	}

	return MetricsSnapshot{
		CyclesTotal:     m.cyclesTotal.Load(),
		FetchFailures:   m.fetchFailures.Load(),
		EmptyBatches:    m.emptyBatches.Load(),
		SymbolsResolved: m.symbolsResolved.Load(),
		AlertsTotal:     m.alertsTotal.Load(),
		PersistFailures: m.persistFailures.Load(),
		PanicsRecovered: m.panicsRecovered.Load(),
		AvgCycleNs:      avgLatency,
		TrackedSymbols:  m.trackedSymbols.Load(),
		LastCycleUnix:   m.lastCycleUnix.Load(),
		Timestamp:       time.Now(),
	}
}

// Reset clears all metrics (for testing).
func (m *Metrics) Reset() {
	m.cyclesTotal.Store(0)
	m.fetchFailures.Store(0)
	m.emptyBatches.Store(0)
	m.symbolsResolved.Store(0)
	m.alertsTotal.Store(0)
	m.persistFailures.Store(0)
	m.panicsRecovered.Store(0)
	m.latencySumNs.Store(0)
	m.latencyCount.Store(0)
	m.lastCycleUnix.Store(0)
	m.trackedSymbols.Store(0)
}
