package notifications

import (
	"context"
	"log/slog"
)

// LogNotifier writes account events to the structured log. It is the
// fallback when no broker is configured.
type LogNotifier struct {
	log *slog.Logger
}

func NewLogNotifier(log *slog.Logger) *LogNotifier {
	if log == nil {
		log = slog.Default()
	}
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Publish(ctx context.Context, ev AccountEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	n.log.InfoContext(ctx, "account.event",
		"type", ev.Type,
		"user_id", ev.UserID,
		"occurred_at", ev.OccurredAt,
	)
	return nil
}
