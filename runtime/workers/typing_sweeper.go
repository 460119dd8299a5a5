package workers

import (
	"context"
	"log/slog"
	"time"

	"chat-core/observability"
	"chat-core/services"
)

// TypingSweeper periodically expires typing flags whose TTL has passed,
// so observers see typing stop even when a client never sends an explicit
// "stopped" signal.
type TypingSweeper struct {
	log      *slog.Logger
	typing   services.ITypingService
	metrics  *observability.Metrics
	interval time.Duration
}

func NewTypingSweeper(log *slog.Logger, typing services.ITypingService, metrics *observability.Metrics, interval time.Duration) *TypingSweeper {
	return &TypingSweeper{log: log, typing: typing, metrics: metrics, interval: interval}
}

func (w *TypingSweeper) Run(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debug("Context done, stopping typing sweeper")
			return nil
		case <-ticker.C:
			expired := w.typing.Sweep(time.Now().UTC())
			if expired > 0 {
				w.metrics.TypingExpired.Add(float64(expired))
			}
		}
	}
}
