package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/darshanradadiya/ekharcha/internal/amqp"
	"github.com/darshanradadiya/ekharcha/internal/core"
	"github.com/darshanradadiya/ekharcha/internal/storage"
)

type capturePublisher struct {
	published []*amqp.BudgetAlertMessage
}

func (p *capturePublisher) PublishBudgetAlert(_ context.Context, msg *amqp.BudgetAlertMessage) error {
	p.published = append(p.published, msg)
	return nil
}

func newTestWriter(t *testing.T) (*Writer, *storage.Repository, *capturePublisher) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })

	pub := &capturePublisher{}
	return NewWriter(repo, pub, 0), repo, pub
}

func validInput() RecordInput {
	return RecordInput{
		Description: "groceries",
		Amount:      core.Money{Cents: 3000},
		Date:        time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
		Type:        core.TypeExpense,
	}
}

func TestRecordAppliesAccountDelta(t *testing.T) {
	w, repo, _ := newTestWriter(t)
	ctx := context.Background()

	acc, err := repo.CreateAccount(ctx, core.Account{
		UserID: 1, Name: "Checking", Kind: core.AccountChecking,
		Balance: core.Money{Cents: 10000}, Institution: "B", AccountNumber: "N1",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	in := validInput()
	in.AccountID = acc.ID
	tx, err := w.Record(ctx, 1, in)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}
	if tx.ID == 0 {
		t.Fatal("expected persisted transaction id")
	}

	got, _ := repo.GetAccount(ctx, acc.ID)
	if got.Balance.Cents != 7000 {
		t.Fatalf("balance = %d, want 7000", got.Balance.Cents)
	}

	// Income adds.
	in.Type = core.TypeIncome
	in.Description = "refund"
	if _, err := w.Record(ctx, 1, in); err != nil {
		t.Fatalf("Record income: %v", err)
	}
	got, _ = repo.GetAccount(ctx, acc.ID)
	if got.Balance.Cents != 10000 {
		t.Fatalf("balance = %d, want 10000", got.Balance.Cents)
	}
}

func TestRecordMissingAccount(t *testing.T) {
	w, repo, _ := newTestWriter(t)
	ctx := context.Background()

	in := validInput()
	in.AccountID = 424242
	_, err := w.Record(ctx, 1, in)
	if !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}

	// The transaction row was written before the account lookup failed and
	// stays persisted.
	txs, err := repo.ListTransactions(ctx, 1)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("len = %d, want 1 persisted row", len(txs))
	}
}

func TestRecordForeignAccount(t *testing.T) {
	w, repo, _ := newTestWriter(t)
	ctx := context.Background()

	acc, err := repo.CreateAccount(ctx, core.Account{
		UserID: 2, Name: "Theirs", Kind: core.AccountChecking,
		Institution: "B", AccountNumber: "N1",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	in := validInput()
	in.AccountID = acc.ID
	if _, err := w.Record(ctx, 1, in); !errors.Is(err, core.ErrForbidden) {
		t.Fatalf("err = %v, want ErrForbidden", err)
	}
}

func TestRecordUpdatesBudgetSpent(t *testing.T) {
	w, repo, _ := newTestWriter(t)
	ctx := context.Background()

	if _, err := repo.UpsertBudget(ctx, core.Budget{
		UserID: 1, Category: "food", Budgeted: core.Money{Cents: 100000},
		Spent: core.Money{Cents: 5000},
	}); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	in := validInput()
	in.Amount = core.Money{Cents: 2000}
	in.Category = "food"
	if _, err := w.Record(ctx, 1, in); err != nil {
		t.Fatalf("Record: %v", err)
	}

	b, err := repo.GetBudgetByCategory(ctx, 1, "food")
	if err != nil {
		t.Fatalf("GetBudgetByCategory: %v", err)
	}
	if b.Spent.Cents != 7000 {
		t.Fatalf("spent = %d, want 7000", b.Spent.Cents)
	}

	// Income with a category leaves spent untouched.
	in.Type = core.TypeIncome
	in.Description = "cashback"
	if _, err := w.Record(ctx, 1, in); err != nil {
		t.Fatalf("Record income: %v", err)
	}
	b, _ = repo.GetBudgetByCategory(ctx, 1, "food")
	if b.Spent.Cents != 7000 {
		t.Fatalf("income changed spent: %d", b.Spent.Cents)
	}
}

func TestRecordMissingBudgetSkipped(t *testing.T) {
	w, _, pub := newTestWriter(t)
	ctx := context.Background()

	in := validInput()
	in.Category = "untracked"
	if _, err := w.Record(ctx, 1, in); err != nil {
		t.Fatalf("Record with missing budget should succeed: %v", err)
	}
	if len(pub.published) != 0 {
		t.Fatalf("published %d alerts, want 0", len(pub.published))
	}
}

func TestOverspendAlertAndCooldown(t *testing.T) {
	w, repo, pub := newTestWriter(t)
	ctx := context.Background()

	if _, err := repo.UpsertBudget(ctx, core.Budget{
		UserID: 1, Category: "food", Budgeted: core.Money{Cents: 5000},
		Spent: core.Money{Cents: 4000},
	}); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	in := validInput()
	in.Amount = core.Money{Cents: 2000}
	in.Category = "food"
	if _, err := w.Record(ctx, 1, in); err != nil {
		t.Fatalf("Record: %v", err)
	}

	if len(pub.published) != 1 {
		t.Fatalf("published %d alerts, want 1", len(pub.published))
	}
	msg := pub.published[0]
	if msg.SpentCents != 6000 || msg.BudgetedCents != 5000 || msg.OverspendCents() != 1000 {
		t.Fatalf("unexpected alert: %+v", msg)
	}

	b, _ := repo.GetBudgetByCategory(ctx, 1, "food")
	if b.LastAlertSent == nil || !b.LastAlertSent.Equal(clock) {
		t.Fatalf("lastAlertSent = %v, want %v", b.LastAlertSent, clock)
	}

	// A second overspend within the cooldown publishes nothing.
	clock = clock.Add(2 * time.Hour)
	in.Description = "more groceries"
	if _, err := w.Record(ctx, 1, in); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d alerts, want still 1", len(pub.published))
	}

	// Past the cooldown it fires again.
	clock = clock.Add(25 * time.Hour)
	in.Description = "even more"
	if _, err := w.Record(ctx, 1, in); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(pub.published) != 2 {
		t.Fatalf("published %d alerts, want 2", len(pub.published))
	}
}

func TestConfiguredAlertCooldown(t *testing.T) {
	w, repo, pub := newTestWriter(t)
	w.cooldown = time.Hour
	ctx := context.Background()

	if _, err := repo.UpsertBudget(ctx, core.Budget{
		UserID: 1, Category: "food", Budgeted: core.Money{Cents: 5000},
		Spent: core.Money{Cents: 4500},
	}); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}

	clock := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	w.now = func() time.Time { return clock }

	in := validInput()
	in.Amount = core.Money{Cents: 1000}
	in.Category = "food"
	if _, err := w.Record(ctx, 1, in); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(pub.published) != 1 {
		t.Fatalf("published %d alerts, want 1", len(pub.published))
	}

	// Two hours later is already past the configured one-hour cooldown.
	clock = clock.Add(2 * time.Hour)
	in.Description = "more"
	if _, err := w.Record(ctx, 1, in); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if len(pub.published) != 2 {
		t.Fatalf("published %d alerts, want 2", len(pub.published))
	}
}

func TestNewWriterDefaultsCooldown(t *testing.T) {
	w, _, _ := newTestWriter(t)
	if w.cooldown != 24*time.Hour {
		t.Fatalf("cooldown = %v, want 24h default", w.cooldown)
	}
}

func TestEditDoesNotTouchSideEffects(t *testing.T) {
	w, repo, _ := newTestWriter(t)
	ctx := context.Background()

	acc, err := repo.CreateAccount(ctx, core.Account{
		UserID: 1, Name: "Checking", Kind: core.AccountChecking,
		Balance: core.Money{Cents: 10000}, Institution: "B", AccountNumber: "N1",
	})
	if err != nil {
		t.Fatalf("CreateAccount: %v", err)
	}

	in := validInput()
	in.AccountID = acc.ID
	tx, err := w.Record(ctx, 1, in)
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	in.Amount = core.Money{Cents: 9000}
	in.Description = "bigger groceries"
	edited, err := w.Edit(ctx, 1, tx.ID, in)
	if err != nil {
		t.Fatalf("Edit: %v", err)
	}
	if edited.Amount.Cents != 9000 {
		t.Fatalf("amount = %d, want 9000", edited.Amount.Cents)
	}

	// The balance still reflects the original 3000 expense.
	got, _ := repo.GetAccount(ctx, acc.ID)
	if got.Balance.Cents != 7000 {
		t.Fatalf("balance = %d, want 7000", got.Balance.Cents)
	}
}

func TestEditAndDeleteForeignTransaction(t *testing.T) {
	w, _, _ := newTestWriter(t)
	ctx := context.Background()

	tx, err := w.Record(ctx, 2, validInput())
	if err != nil {
		t.Fatalf("Record: %v", err)
	}

	if _, err := w.Edit(ctx, 1, tx.ID, validInput()); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Edit err = %v, want ErrNotFound", err)
	}
	if err := w.Delete(ctx, 1, tx.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("Delete err = %v, want ErrNotFound", err)
	}
	if err := w.Delete(ctx, 2, tx.ID); err != nil {
		t.Fatalf("Delete by owner: %v", err)
	}
}

func TestRecordValidation(t *testing.T) {
	w, repo, _ := newTestWriter(t)
	ctx := context.Background()

	tests := []struct {
		name   string
		mutate func(*RecordInput)
	}{
		{"missing description", func(in *RecordInput) { in.Description = "" }},
		{"zero amount", func(in *RecordInput) { in.Amount = core.Money{} }},
		{"negative amount", func(in *RecordInput) { in.Amount = core.Money{Cents: -100} }},
		{"zero date", func(in *RecordInput) { in.Date = time.Time{} }},
		{"bad type", func(in *RecordInput) { in.Type = "transfer" }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := validInput()
			tt.mutate(&in)
			if _, err := w.Record(ctx, 1, in); !core.IsValidation(err) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
		})
	}

	// Nothing was persisted by the rejected inputs.
	txs, err := repo.ListTransactions(ctx, 1)
	if err != nil {
		t.Fatalf("ListTransactions: %v", err)
	}
	if len(txs) != 0 {
		t.Fatalf("len = %d, want 0", len(txs))
	}
}
