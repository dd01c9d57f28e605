package worker

import (
	"context"
	"log/slog"

	"eventplanner/internal/domain/registration"
	"eventplanner/internal/metrics"
)

// ActivityWorker drains registration activity published by the registration
// service. Handle is called for each event after it has been counted.
type ActivityWorker struct {
	Ch     <-chan registration.Activity
	Handle func(ctx context.Context, a registration.Activity)
	logger *slog.Logger
}

func NewActivityWorker(ch <-chan registration.Activity, logger *slog.Logger) *ActivityWorker {
	if logger == nil {
		logger = slog.Default()
	}
	return &ActivityWorker{Ch: ch, logger: logger.With("component", "activity_worker")}
}

// Run blocks until ctx is done or the channel is closed.
func (w *ActivityWorker) Run(ctx context.Context) {
	w.logger.Info("activity worker started")
	defer w.logger.Info("activity worker stopped")
	for {
		select {
		case <-ctx.Done():
			return
		case a, ok := <-w.Ch:
			if !ok {
				return
			}
			metrics.IncActivity(string(a.Kind))
			w.logger.Info("registration activity",
				"kind", a.Kind,
				"event_id", a.EventID,
				"user_id", a.UserID,
				"at", a.At,
			)
			if w.Handle != nil {
				w.Handle(ctx, a)
			}
		}
	}
}
