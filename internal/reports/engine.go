// Package reports derives the dashboard summary, monthly time series, and
// category breakdown from the transaction set.
package reports

import (
	"context"
	"fmt"
	"hash/fnv"
	"math"
	"sort"
	"time"

	"github.com/darshanradadiya/ekharcha/internal/core"
	"github.com/darshanradadiya/ekharcha/internal/storage"
)

// categoryPalette matches the client's chart colors. Assignment is a pure
// function of the category name so a category keeps its color across reports.
var categoryPalette = []string{
	"#F87171", "#FBBF24", "#34D399", "#60A5FA", "#A78BFA", "#F472B6", "#FCD34D",
}

// periodMonths maps a report period code to its lookback window in months.
// ALL is approximated as ten years rather than literal all-time.
var periodMonths = map[string]int{
	"1M": 1, "3M": 3, "6M": 6, "1Y": 12, "ALL": 120,
}

const defaultLookbackMonths = 3

// LookbackMonths resolves a period code, falling back to three months for
// unknown codes the same way the API always has.
func LookbackMonths(period string) int {
	if m, ok := periodMonths[period]; ok {
		return m
	}
	return defaultLookbackMonths
}

type (
	// Summary is the dashboard payload.
	Summary struct {
		TotalIncome        core.Money         `json:"totalIncome"`
		TotalExpense       core.Money         `json:"totalExpense"`
		Balance            core.Money         `json:"balance"`
		RecentTransactions []core.Transaction `json:"recentTransactions"`
		TotalBalance       core.Money         `json:"totalBalance"`
		AssetsBalance      core.Money         `json:"assetsBalance"`
		LiabilitiesBalance core.Money         `json:"liabilitiesBalance"`
	}

	// MonthKey identifies one bucket of the monthly report.
	MonthKey struct {
		Month int `json:"month"`
		Year  int `json:"year"`
	}

	// MonthlyRow is one row of the monthly report, keyed the way the mobile
	// client expects.
	MonthlyRow struct {
		ID      MonthKey   `json:"_id"`
		Income  core.Money `json:"income"`
		Expense core.Money `json:"expense"`
	}

	// BreakdownRow is one category slice of the expense breakdown.
	BreakdownRow struct {
		Name       string     `json:"name"`
		Amount     core.Money `json:"amount"`
		Percentage int        `json:"percentage"`
		Color      string     `json:"color"`
	}
)

// Engine computes read-only derived views over a user's ledger.
type Engine struct {
	store *storage.Repository
	now   func() time.Time
}

func NewEngine(store *storage.Repository) *Engine {
	return &Engine{store: store, now: time.Now}
}

// DashboardSummary aggregates the user's full transaction history and account
// set into the dashboard payload.
func (e *Engine) DashboardSummary(ctx context.Context, owner int64) (Summary, error) {
	transactions, err := e.store.ListTransactions(ctx, owner)
	if err != nil {
		return Summary{}, fmt.Errorf("list transactions: %w", err)
	}

	var s Summary
	for _, tx := range transactions {
		switch tx.Type {
		case core.TypeIncome:
			s.TotalIncome = s.TotalIncome.Add(tx.Amount)
		case core.TypeExpense:
			s.TotalExpense = s.TotalExpense.Add(tx.Amount)
		}
	}
	s.Balance = s.TotalIncome.Sub(s.TotalExpense)

	s.RecentTransactions = transactions
	if len(s.RecentTransactions) > 5 {
		s.RecentTransactions = s.RecentTransactions[:5]
	}
	if s.RecentTransactions == nil {
		s.RecentTransactions = []core.Transaction{}
	}

	accounts, err := e.store.ListAccounts(ctx, owner)
	if err != nil {
		return Summary{}, fmt.Errorf("list accounts: %w", err)
	}

	// liabilitiesBalance reproduces the legacy accumulator: each credit
	// account folds in as abs(acc) + abs(balance), NOT a sum of absolute
	// values. With mixed signs or multiple accounts the results differ, and
	// the client depends on the legacy numbers.
	var liabilities int64
	for _, acc := range accounts {
		s.TotalBalance = s.TotalBalance.Add(acc.Balance)
		if acc.Kind != core.AccountCredit {
			s.AssetsBalance = s.AssetsBalance.Add(acc.Balance)
		} else {
			liabilities = abs64(liabilities) + abs64(acc.Balance.Cents)
		}
	}
	s.LiabilitiesBalance = core.Money{Cents: liabilities}

	return s, nil
}

// Monthly groups the user's transactions inside the lookback window by
// (year, month) and sums income and expense per bucket, sorted ascending.
func (e *Engine) Monthly(ctx context.Context, owner int64, period string) ([]MonthlyRow, error) {
	from := e.now().AddDate(0, -LookbackMonths(period), 0)

	transactions, err := e.store.ListTransactionsSince(ctx, owner, from)
	if err != nil {
		return nil, fmt.Errorf("list transactions since %s: %w", from.Format("2006-01-02"), err)
	}

	buckets := make(map[MonthKey]*MonthlyRow)
	for _, tx := range transactions {
		key := MonthKey{Month: int(tx.Date.Month()), Year: tx.Date.Year()}
		row, ok := buckets[key]
		if !ok {
			row = &MonthlyRow{ID: key}
			buckets[key] = row
		}
		switch tx.Type {
		case core.TypeIncome:
			row.Income = row.Income.Add(tx.Amount)
		case core.TypeExpense:
			row.Expense = row.Expense.Add(tx.Amount)
		}
	}

	rows := make([]MonthlyRow, 0, len(buckets))
	for _, row := range buckets {
		rows = append(rows, *row)
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].ID.Year != rows[j].ID.Year {
			return rows[i].ID.Year < rows[j].ID.Year
		}
		return rows[i].ID.Month < rows[j].ID.Month
	})
	return rows, nil
}

// CategoryBreakdown groups the window's expense transactions by category
// label, sorted by amount descending, with share percentages and stable
// colors.
func (e *Engine) CategoryBreakdown(ctx context.Context, owner int64, period string) ([]BreakdownRow, error) {
	from := e.now().AddDate(0, -LookbackMonths(period), 0)

	expenses, err := e.store.ListExpensesSince(ctx, owner, from)
	if err != nil {
		return nil, fmt.Errorf("list expenses since %s: %w", from.Format("2006-01-02"), err)
	}

	totals := make(map[string]int64)
	var totalSpent int64
	for _, tx := range expenses {
		totals[tx.Category] += tx.Amount.Cents
		totalSpent += tx.Amount.Cents
	}

	rows := make([]BreakdownRow, 0, len(totals))
	for name, cents := range totals {
		pct := 0
		if totalSpent > 0 {
			pct = int(math.Round(float64(cents) / float64(totalSpent) * 100))
		}
		rows = append(rows, BreakdownRow{
			Name:       name,
			Amount:     core.Money{Cents: cents},
			Percentage: pct,
			Color:      ColorFor(name),
		})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Amount.Cents != rows[j].Amount.Cents {
			return rows[i].Amount.Cents > rows[j].Amount.Cents
		}
		return rows[i].Name < rows[j].Name
	})
	return rows, nil
}

// ColorFor deterministically maps a category name into the palette.
func ColorFor(name string) string {
	h := fnv.New32a()
	h.Write([]byte(name))
	return categoryPalette[h.Sum32()%uint32(len(categoryPalette))]
}

func abs64(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}
