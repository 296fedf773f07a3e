package infra

import (
	"context"
	"log/slog"

	"stock_watch/internal/domain"
)

// LogNotifier writes reconciliation events to the structured log.
// Alerts are logged at warn level so they survive an info-level filter.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a notifier; a nil logger means slog.Default().
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Notify logs one event.
func (n *LogNotifier) Notify(ctx context.Context, ev domain.Event) {
	attrs := []slog.Attr{
		slog.String("kind", ev.Kind.String()),
		slog.String("symbol", ev.Symbol),
		slog.String("price", domain.FormatPrice(ev.CurrentPrice)),
	}
	if ev.PreviousPrice != nil {
		attrs = append(attrs, slog.String("previous_price", domain.FormatPrice(*ev.PreviousPrice)))
	}
	if ev.ChangePercent != nil {
		attrs = append(attrs, slog.Float64("change_pct", *ev.ChangePercent))
	}
	if ev.Direction != "" {
		attrs = append(attrs, slog.String("direction", string(ev.Direction)))
	}

	level := slog.LevelInfo
	if ev.Kind == domain.EventAlert {
		level = slog.LevelWarn
	}

	n.logger.LogAttrs(ctx, level, ev.Summary(), attrs...)
}
