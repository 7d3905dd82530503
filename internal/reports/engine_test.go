package reports

import (
	"context"
	"encoding/json"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/darshanradadiya/ekharcha/internal/core"
	"github.com/darshanradadiya/ekharcha/internal/storage"
)

func newTestEngine(t *testing.T) (*Engine, *storage.Repository) {
	t.Helper()
	repo, err := storage.NewRepository(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewEngine(repo), repo
}

func seedTransaction(t *testing.T, repo *storage.Repository, tx core.Transaction) {
	t.Helper()
	if _, err := repo.CreateTransaction(context.Background(), tx); err != nil {
		t.Fatalf("CreateTransaction: %v", err)
	}
}

func TestLookbackMonths(t *testing.T) {
	tests := []struct {
		period string
		want   int
	}{
		{"1M", 1},
		{"3M", 3},
		{"6M", 6},
		{"1Y", 12},
		{"ALL", 120},
		{"", 3},
		{"7D", 3},
	}
	for _, tt := range tests {
		if got := LookbackMonths(tt.period); got != tt.want {
			t.Errorf("LookbackMonths(%q) = %d, want %d", tt.period, got, tt.want)
		}
	}
}

func TestDashboardSummaryTotals(t *testing.T) {
	e, repo := newTestEngine(t)
	ctx := context.Background()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	seedTransaction(t, repo, core.Transaction{UserID: 1, Description: "salary", Amount: core.Money{Cents: 500000}, Date: date, Type: core.TypeIncome})
	seedTransaction(t, repo, core.Transaction{UserID: 1, Description: "rent", Amount: core.Money{Cents: 150000}, Date: date, Type: core.TypeExpense})
	seedTransaction(t, repo, core.Transaction{UserID: 2, Description: "foreign", Amount: core.Money{Cents: 999}, Date: date, Type: core.TypeExpense})

	s, err := e.DashboardSummary(ctx, 1)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if s.TotalIncome.Cents != 500000 || s.TotalExpense.Cents != 150000 || s.Balance.Cents != 350000 {
		t.Fatalf("totals: income=%d expense=%d balance=%d", s.TotalIncome.Cents, s.TotalExpense.Cents, s.Balance.Cents)
	}
	if len(s.RecentTransactions) != 2 {
		t.Fatalf("recent = %d, want 2", len(s.RecentTransactions))
	}
}

func TestDashboardSummaryRecentCapAndEmpty(t *testing.T) {
	e, repo := newTestEngine(t)
	ctx := context.Background()
	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	s, err := e.DashboardSummary(ctx, 1)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if s.RecentTransactions == nil || len(s.RecentTransactions) != 0 {
		t.Fatalf("recent should be an empty slice, got %#v", s.RecentTransactions)
	}

	for i := 0; i < 8; i++ {
		seedTransaction(t, repo, core.Transaction{
			UserID: 1, Description: "tx", Amount: core.Money{Cents: 100},
			Date: date.AddDate(0, 0, i), Type: core.TypeExpense,
		})
	}
	s, err = e.DashboardSummary(ctx, 1)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if len(s.RecentTransactions) != 5 {
		t.Fatalf("recent = %d, want 5", len(s.RecentTransactions))
	}
}

func TestLiabilitiesFold(t *testing.T) {
	e, repo := newTestEngine(t)
	ctx := context.Background()

	// Three credit accounts with negative balances. The accumulator folds as
	// abs(acc) + abs(balance), so -100, -50, -25 yields 175.
	for i, cents := range []int64{-10000, -5000, -2500} {
		_, err := repo.CreateAccount(ctx, core.Account{
			UserID: 1, Name: "Card", Kind: core.AccountCredit,
			Balance: core.Money{Cents: cents}, Institution: "B",
			AccountNumber: "C" + string(rune('0'+i)),
		})
		if err != nil {
			t.Fatalf("CreateAccount: %v", err)
		}
	}

	s, err := e.DashboardSummary(ctx, 1)
	if err != nil {
		t.Fatalf("DashboardSummary: %v", err)
	}
	if s.LiabilitiesBalance.Cents != 17500 {
		t.Fatalf("liabilities = %d, want 17500", s.LiabilitiesBalance.Cents)
	}
	if s.TotalBalance.Cents != -17500 {
		t.Fatalf("total = %d, want -17500", s.TotalBalance.Cents)
	}
	if s.AssetsBalance.Cents != 0 {
		t.Fatalf("assets = %d, want 0", s.AssetsBalance.Cents)
	}
}

func TestMonthlySortedAscending(t *testing.T) {
	e, repo := newTestEngine(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	seedTransaction(t, repo, core.Transaction{UserID: 1, Description: "a", Amount: core.Money{Cents: 1000}, Date: time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC), Type: core.TypeExpense})
	seedTransaction(t, repo, core.Transaction{UserID: 1, Description: "b", Amount: core.Money{Cents: 2000}, Date: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC), Type: core.TypeIncome})
	seedTransaction(t, repo, core.Transaction{UserID: 1, Description: "c", Amount: core.Money{Cents: 3000}, Date: time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC), Type: core.TypeExpense})

	rows, err := e.Monthly(ctx, 1, "3M")
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].ID != (MonthKey{Month: 4, Year: 2024}) {
		t.Fatalf("first bucket = %+v, want April", rows[0].ID)
	}
	if rows[0].Income.Cents != 2000 {
		t.Fatalf("april income = %d, want 2000", rows[0].Income.Cents)
	}
	if rows[1].ID != (MonthKey{Month: 5, Year: 2024}) || rows[1].Expense.Cents != 4000 {
		t.Fatalf("may bucket = %+v", rows[1])
	}
}

func TestMonthlyWindowExcludesOldTransactions(t *testing.T) {
	e, repo := newTestEngine(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	// Two months old: outside a 1M window.
	seedTransaction(t, repo, core.Transaction{
		UserID: 1, Description: "old", Amount: core.Money{Cents: 1000},
		Date: now.AddDate(0, -2, 0), Type: core.TypeExpense,
	})

	rows, err := e.Monthly(ctx, 1, "1M")
	if err != nil {
		t.Fatalf("Monthly: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("len = %d, want 0", len(rows))
	}
}

func TestCategoryBreakdown(t *testing.T) {
	e, repo := newTestEngine(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }
	date := now.AddDate(0, -1, 0)

	seedTransaction(t, repo, core.Transaction{UserID: 1, Description: "rent", Amount: core.Money{Cents: 60000}, Date: date, Type: core.TypeExpense, Category: "housing"})
	seedTransaction(t, repo, core.Transaction{UserID: 1, Description: "food1", Amount: core.Money{Cents: 20000}, Date: date, Type: core.TypeExpense, Category: "food"})
	seedTransaction(t, repo, core.Transaction{UserID: 1, Description: "food2", Amount: core.Money{Cents: 20000}, Date: date, Type: core.TypeExpense, Category: "food"})
	// Income must not appear in the breakdown.
	seedTransaction(t, repo, core.Transaction{UserID: 1, Description: "salary", Amount: core.Money{Cents: 500000}, Date: date, Type: core.TypeIncome, Category: "salary"})

	rows, err := e.CategoryBreakdown(ctx, 1, "3M")
	if err != nil {
		t.Fatalf("CategoryBreakdown: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("len = %d, want 2", len(rows))
	}
	if rows[0].Name != "housing" || rows[0].Percentage != 60 {
		t.Fatalf("first = %+v, want housing at 60%%", rows[0])
	}
	if rows[1].Name != "food" || rows[1].Amount.Cents != 40000 || rows[1].Percentage != 40 {
		t.Fatalf("second = %+v", rows[1])
	}

	sum := 0
	for _, row := range rows {
		sum += row.Percentage
		if row.Color == "" {
			t.Fatalf("missing color for %s", row.Name)
		}
	}
	if math.Abs(float64(sum-100)) > 1 {
		t.Fatalf("percentages sum to %d", sum)
	}
}

func TestCategoryBreakdownZeroTotal(t *testing.T) {
	e, repo := newTestEngine(t)
	ctx := context.Background()

	now := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return now }

	// Zero-amount rows can exist from imports; percentage stays 0 instead of
	// dividing by zero.
	seedTransaction(t, repo, core.Transaction{
		UserID: 1, Description: "import artifact", Amount: core.Money{},
		Date: now.AddDate(0, -1, 0), Type: core.TypeExpense, Category: "misc",
	})

	rows, err := e.CategoryBreakdown(ctx, 1, "3M")
	if err != nil {
		t.Fatalf("CategoryBreakdown: %v", err)
	}
	if len(rows) != 1 || rows[0].Percentage != 0 {
		t.Fatalf("unexpected rows: %+v", rows)
	}
}

func TestMonthlyRowWireShape(t *testing.T) {
	row := MonthlyRow{
		ID:      MonthKey{Month: 6, Year: 2024},
		Income:  core.Money{Cents: 500000},
		Expense: core.Money{Cents: 150000},
	}
	data, err := json.Marshal(row)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"_id":{"month":6,"year":2024},"income":5000,"expense":1500}`
	if string(data) != want {
		t.Fatalf("wire shape = %s, want %s", data, want)
	}
}

func TestCategoryBreakdownEmptyWindow(t *testing.T) {
	e, _ := newTestEngine(t)

	rows, err := e.CategoryBreakdown(context.Background(), 1, "3M")
	if err != nil {
		t.Fatalf("CategoryBreakdown: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("len = %d, want 0", len(rows))
	}
}

func TestColorForDeterministic(t *testing.T) {
	seen := make(map[string]bool)
	for _, name := range []string{"food", "housing", "travel", ""} {
		c1 := ColorFor(name)
		c2 := ColorFor(name)
		if c1 != c2 {
			t.Fatalf("ColorFor(%q) unstable: %s vs %s", name, c1, c2)
		}
		seen[c1] = true
	}

	palette := make(map[string]bool)
	for _, c := range categoryPalette {
		palette[c] = true
	}
	for c := range seen {
		if !palette[c] {
			t.Fatalf("color %s not in palette", c)
		}
	}
}
