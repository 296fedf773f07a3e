package domain

import "testing"

func TestDirectionOf(t *testing.T) {
	t.Run("UP for positive change", func(t *testing.T) {
		if d := DirectionOf(2.33); d != DirectionUp {
			t.Errorf("Expected UP, got %s", d)
		}
	})

	t.Run("DOWN for negative change", func(t *testing.T) {
		if d := DirectionOf(-4); d != DirectionDown {
			t.Errorf("Expected DOWN, got %s", d)
		}
	})
}

func TestEventConstructors(t *testing.T) {
	t.Run("Init has no baseline", func(t *testing.T) {
		ev := NewInitEvent("MSFT", 300)
		if ev.Kind != EventInit {
			t.Errorf("Expected INIT, got %s", ev.Kind)
		}
		if ev.PreviousPrice != nil || ev.ChangePercent != nil {
			t.Error("Init event should carry no previous price or change")
		}
		if ev.Direction != "" {
			t.Errorf("Init event should carry no direction, got %s", ev.Direction)
		}
	})

	t.Run("Alert carries direction", func(t *testing.T) {
		ev := NewAlertEvent("AAPL", 150, 147, -2)
		if ev.Direction != DirectionDown {
			t.Errorf("Expected DOWN, got %s", ev.Direction)
		}
		if *ev.PreviousPrice != 150 || *ev.ChangePercent != -2 {
			t.Errorf("Unexpected alert payload: %+v", ev)
		}
	})

	t.Run("Info has no direction", func(t *testing.T) {
		ev := NewInfoEvent("AAPL", 150, 151, 0.67)
		if ev.Direction != "" {
			t.Errorf("Info event should carry no direction, got %s", ev.Direction)
		}
	})
}

func TestEvent_Summary(t *testing.T) {
	tests := []struct {
		name string
		ev   Event
		want string
	}{
		{"init", NewInitEvent("MSFT", 300), "[INIT] MSFT: current price 300.00"},
		{"alert up", NewAlertEvent("AAPL", 150, 153.5, 2.3333333), "[ALERT] AAPL: UP 2.33% | was 150.00, now 153.50"},
		{"alert down", NewAlertEvent("AAPL", 100, 97, -3), "[ALERT] AAPL: DOWN -3.00% | was 100.00, now 97.00"},
		{"info", NewInfoEvent("AAPL", 150, 150.75, 0.5), "[INFO] AAPL: change 0.50% | last 150.00, now 150.75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.ev.Summary(); got != tt.want {
				t.Errorf("Summary() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestEventKind_String(t *testing.T) {
	if EventKind(0).String() != "UNKNOWN" {
		t.Error("Zero EventKind should be UNKNOWN")
	}
	if EventAlert.String() != "ALERT" {
		t.Errorf("Expected ALERT, got %s", EventAlert)
	}
}
