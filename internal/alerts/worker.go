// Package alerts delivers budget overspend notifications consumed from the
// alert queue.
package alerts

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/darshanradadiya/ekharcha/internal/amqp"
)

// Notifier delivers one overspend notification. The SMS gateway of the hosted
// deployment sits behind this interface; the default implementation logs.
type Notifier interface {
	NotifyOverspend(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// LogNotifier writes the alert to the structured log. Useful on its own for
// development and as the fallback delivery channel.
type LogNotifier struct{}

func (LogNotifier) NotifyOverspend(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	slog.InfoContext(ctx, "Budget overspent",
		"user_id", msg.UserID,
		"budget_id", msg.BudgetID,
		"category", msg.Category,
		"spent_cents", msg.SpentCents,
		"budgeted_cents", msg.BudgetedCents,
		"overspend_cents", msg.OverspendCents())
	return nil
}

// Worker handles alert messages from the queue.
type Worker struct {
	notifier Notifier
}

func NewWorker(notifier Notifier) *Worker {
	if notifier == nil {
		notifier = LogNotifier{}
	}
	return &Worker{notifier: notifier}
}

// HandleAlert processes one alert message. Errors are returned so the
// consumer can requeue the delivery.
func (w *Worker) HandleAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error {
	if msg.OverspendCents() <= 0 {
		// Stale message from before a budget edit; nothing to notify.
		slog.DebugContext(ctx, "Dropping non-overspent alert",
			"budget_id", msg.BudgetID, "user_id", msg.UserID)
		return nil
	}

	if err := w.notifier.NotifyOverspend(ctx, msg); err != nil {
		return fmt.Errorf("notify overspend: %w", err)
	}
	return nil
}
