package domain

import "fmt"

// EventKind classifies the outcome of reconciling one symbol.
type EventKind int

const (
	EventInit  EventKind = iota + 1 // First observation, nothing to compare against
	EventInfo                       // Change below the alert threshold
	EventAlert                      // Change at or above the alert threshold
)

// String returns the string representation of EventKind
func (k EventKind) String() string {
	switch k {
	case EventInit:
		return "INIT"
	case EventInfo:
		return "INFO"
	case EventAlert:
		return "ALERT"
	default:
		return "UNKNOWN"
	}
}

// Direction of an alerting price move: "UP" or "DOWN".
type Direction string

const (
	DirectionUp   Direction = "UP"
	DirectionDown Direction = "DOWN"
)

// DirectionOf returns UP for a positive change and DOWN otherwise.
func DirectionOf(changePct float64) Direction {
	if changePct > 0 {
		return DirectionUp
	}
	return DirectionDown
}

// Event is the result of reconciling one fetched symbol against its baseline.
// PreviousPrice and ChangePercent are nil for EventInit; Direction is set only for EventAlert.
type Event struct {
	Kind          EventKind `json:"kind"`
	Symbol        string    `json:"symbol"`
	PreviousPrice *float64  `json:"previous_price,omitempty"`
	CurrentPrice  float64   `json:"current_price"`
	ChangePercent *float64  `json:"change_percent,omitempty"`
	Direction     Direction `json:"direction,omitempty"`
}

// NewInitEvent creates the event for a symbol seen for the first time.
func NewInitEvent(symbol string, current float64) Event {
	return Event{Kind: EventInit, Symbol: symbol, CurrentPrice: current}
}

// NewInfoEvent creates a below-threshold event.
func NewInfoEvent(symbol string, previous, current, changePct float64) Event {
	return Event{
		Kind:          EventInfo,
		Symbol:        symbol,
		PreviousPrice: &previous,
		CurrentPrice:  current,
		ChangePercent: &changePct,
	}
}

// NewAlertEvent creates a threshold-crossing event. Direction is derived from changePct.
func NewAlertEvent(symbol string, previous, current, changePct float64) Event {
	return Event{
		Kind:          EventAlert,
		Symbol:        symbol,
		PreviousPrice: &previous,
		CurrentPrice:  current,
		ChangePercent: &changePct,
		Direction:     DirectionOf(changePct),
	}
}

// Summary renders the event as a single console line, e.g.
// "[ALERT] AAPL: UP 2.33% | was 150.00, now 153.50".
func (e Event) Summary() string {
	switch e.Kind {
	case EventInit:
		return fmt.Sprintf("[INIT] %s: current price %.2f", e.Symbol, e.CurrentPrice)
	case EventAlert:
		return fmt.Sprintf("[ALERT] %s: %s %.2f%% | was %.2f, now %.2f",
			e.Symbol, e.Direction, deref(e.ChangePercent), deref(e.PreviousPrice), e.CurrentPrice)
	case EventInfo:
		return fmt.Sprintf("[INFO] %s: change %.2f%% | last %.2f, now %.2f",
			e.Symbol, deref(e.ChangePercent), deref(e.PreviousPrice), e.CurrentPrice)
	default:
		return fmt.Sprintf("[%s] %s: now %.2f", e.Kind, e.Symbol, e.CurrentPrice)
	}
}

func deref(f *float64) float64 {
	if f == nil {
		return 0
	}
	return *f
}
