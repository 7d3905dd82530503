// Package ledger implements the transaction writer: persisting a transaction
// and applying its side effects to the owning account's balance and the
// matching budget's spent total.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/darshanradadiya/ekharcha/internal/amqp"
	"github.com/darshanradadiya/ekharcha/internal/core"
	"github.com/darshanradadiya/ekharcha/internal/storage"
)

// AlertPublisher publishes budget overspend alerts. Implementations must be
// safe to call from request handlers; failures are logged, never propagated.
type AlertPublisher interface {
	PublishBudgetAlert(ctx context.Context, msg *amqp.BudgetAlertMessage) error
}

// defaultAlertCooldown is the minimum gap between overspend alerts for one
// budget when no cooldown is configured.
const defaultAlertCooldown = 24 * time.Hour

// Writer validates and records transactions. The three write steps
// (transaction, account, budget) are intentionally not wrapped in a storage
// transaction: a partial failure leaves the transaction row persisted and the
// account or budget unsynchronized, matching the documented at-least-once
// semantics of the ledger.
type Writer struct {
	store    *storage.Repository
	alerts   AlertPublisher
	cooldown time.Duration
	now      func() time.Time
}

func NewWriter(store *storage.Repository, alerts AlertPublisher, cooldown time.Duration) *Writer {
	if cooldown <= 0 {
		cooldown = defaultAlertCooldown
	}
	return &Writer{
		store:    store,
		alerts:   alerts,
		cooldown: cooldown,
		now:      time.Now,
	}
}

// RecordInput carries the caller-supplied fields of a new transaction.
// AccountID and Category are optional.
type RecordInput struct {
	Description string
	Amount      core.Money
	Date        time.Time
	Type        core.TransactionType
	AccountID   int64
	Category    string
}

// Record persists a transaction for owner and applies its side effects.
//
// Step order matters: the transaction row is written first, then the account
// balance, then the budget spent total. Later steps can fail after earlier
// ones succeeded; no rollback is attempted.
func (w *Writer) Record(ctx context.Context, owner int64, in RecordInput) (core.Transaction, error) {
	tx := core.Transaction{
		UserID:      owner,
		Description: in.Description,
		Amount:      in.Amount,
		Date:        in.Date,
		Type:        in.Type,
		AccountID:   in.AccountID,
		Category:    in.Category,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	tx, err := w.store.CreateTransaction(ctx, tx)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("create transaction: %w", err)
	}

	if in.AccountID != 0 {
		if err := w.applyAccountDelta(ctx, tx); err != nil {
			return core.Transaction{}, err
		}
	}

	if in.Category != "" {
		w.applyBudgetSpent(ctx, tx)
	}

	slog.InfoContext(ctx, "Transaction recorded",
		"id", tx.ID,
		"user_id", owner,
		"type", tx.Type,
		"amount_cents", tx.Amount.Cents,
		"account_id", tx.AccountID,
		"category", tx.Category)

	return tx, nil
}

func (w *Writer) applyAccountDelta(ctx context.Context, tx core.Transaction) error {
	account, err := w.store.GetAccount(ctx, tx.AccountID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.ErrNotFound
		}
		return fmt.Errorf("load account: %w", err)
	}
	if account.UserID != 0 && account.UserID != tx.UserID {
		return core.ErrForbidden
	}

	if err := w.store.ApplyBalanceDelta(ctx, account.ID, tx.SignedDelta()); err != nil {
		return fmt.Errorf("update account balance: %w", err)
	}
	return nil
}

// applyBudgetSpent bumps the matching budget's spent total for expense
// transactions. A missing budget is not an error; the side effect is
// best-effort by design.
func (w *Writer) applyBudgetSpent(ctx context.Context, tx core.Transaction) {
	if tx.Type != core.TypeExpense {
		return
	}

	budget, err := w.store.AddSpent(ctx, tx.UserID, tx.Category, tx.Amount.Cents)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			slog.DebugContext(ctx, "No budget for category, skipping spent update",
				"user_id", tx.UserID, "category", tx.Category)
			return
		}
		slog.ErrorContext(ctx, "Budget spent update failed",
			"user_id", tx.UserID, "category", tx.Category, "error", err)
		return
	}

	w.maybeAlert(ctx, budget)
}

// maybeAlert publishes an overspend alert when spent exceeds budgeted and the
// previous alert is outside the cooldown window.
func (w *Writer) maybeAlert(ctx context.Context, budget core.Budget) {
	if budget.Spent.Cents <= budget.Budgeted.Cents {
		return
	}
	now := w.now()
	if budget.LastAlertSent != nil && now.Sub(*budget.LastAlertSent) < w.cooldown {
		return
	}

	if err := w.store.MarkAlertSent(ctx, budget.ID, now); err != nil {
		slog.ErrorContext(ctx, "Failed to stamp budget alert time",
			"budget_id", budget.ID, "error", err)
		return
	}

	if w.alerts == nil {
		slog.WarnContext(ctx, "Alert publisher not configured, skipping overspend alert",
			"budget_id", budget.ID)
		return
	}

	msg := amqp.NewBudgetAlertMessage(budget.ID, budget.UserID, budget.Category,
		budget.Spent.Cents, budget.Budgeted.Cents)
	if err := w.alerts.PublishBudgetAlert(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish budget alert",
			"budget_id", budget.ID, "error", err)
	}
}

// Edit updates a transaction's own fields after an owner check. Side effects
// from the original write are not re-applied or reversed; the account and
// budget keep the totals the original amounts produced.
func (w *Writer) Edit(ctx context.Context, owner, id int64, in RecordInput) (core.Transaction, error) {
	tx, err := w.ownedTransaction(ctx, owner, id)
	if err != nil {
		return core.Transaction{}, err
	}

	tx.Description = in.Description
	tx.Amount = in.Amount
	tx.Date = in.Date
	tx.Type = in.Type
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}

	if err := w.store.UpdateTransaction(ctx, tx); err != nil {
		return core.Transaction{}, fmt.Errorf("update transaction: %w", err)
	}
	return tx, nil
}

// Delete removes a transaction after an owner check. The account balance and
// budget spent adjustments it caused are not reversed.
func (w *Writer) Delete(ctx context.Context, owner, id int64) error {
	if _, err := w.ownedTransaction(ctx, owner, id); err != nil {
		return err
	}
	if err := w.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return nil
}

func (w *Writer) ownedTransaction(ctx context.Context, owner, id int64) (core.Transaction, error) {
	tx, err := w.store.GetTransaction(ctx, id)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return core.Transaction{}, core.ErrNotFound
		}
		return core.Transaction{}, fmt.Errorf("load transaction: %w", err)
	}
	if tx.UserID != owner {
		// Match the upstream behavior: a foreign transaction looks absent.
		return core.Transaction{}, core.ErrNotFound
	}
	return tx, nil
}
