package notify

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Apurer/machine-orders/internal/domains/orders/ports"
)

var (
	_ ports.NotificationSink = (*Logger)(nil)
	_ ports.NotificationSink = Fanout(nil)
)

// Logger writes notifications to a structured logger.
type Logger struct {
	logger *slog.Logger
}

func NewLogger(logger *slog.Logger) *Logger {
	if logger == nil {
		logger = slog.Default()
	}
	return &Logger{logger: logger}
}

func (l *Logger) Notify(ctx context.Context, n ports.Notification) error {
	l.logger.LogAttrs(ctx, levelFor(n.Level), n.Title,
		slog.String("notification.level", string(n.Level)),
		slog.Int64("order.id", n.OrderID),
		slog.String("message", n.Message),
	)
	return nil
}

func levelFor(level ports.NotificationLevel) slog.Level {
	switch level {
	case ports.LevelWarning:
		return slog.LevelWarn
	case ports.LevelError:
		return slog.LevelError
	}
	return slog.LevelInfo
}

// Fanout delivers every notification to each sink and joins their errors.
type Fanout []ports.NotificationSink

func (f Fanout) Notify(ctx context.Context, n ports.Notification) error {
	var errs []error
	for _, sink := range f {
		if sink == nil {
			continue
		}
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
