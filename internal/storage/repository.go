package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/darshanradadiya/ekharcha/internal/core"

	_ "modernc.org/sqlite"
)

// Repository is the SQLite-backed ledger store. All reads and writes are
// scoped to an owner user id where the entity carries one.
type Repository struct {
	db *sql.DB
}

func NewRepository(dbPath string) (*Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &Repository{db: db}, nil
}

func (r *Repository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable, for readiness checks.
func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Fixed-width so stored dates compare chronologically as strings.
const dateLayout = "2006-01-02T15:04:05.000000000Z"

func encodeDate(t time.Time) string {
	return t.UTC().Format(dateLayout)
}

func decodeDate(s string) (time.Time, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		// Dates written by earlier imports may lack sub-second precision.
		t, err = time.Parse(time.RFC3339, s)
	}
	return t, err
}

// --- Accounts ---

func (r *Repository) CreateAccount(ctx context.Context, a core.Account) (core.Account, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO accounts (user_id, name, kind, balance_cents, institution, account_number)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		nullableID(a.UserID), a.Name, string(a.Kind), a.Balance.Cents, a.Institution, a.AccountNumber)
	if err != nil {
		return core.Account{}, fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Account{}, fmt.Errorf("account insert id: %w", err)
	}
	a.ID = id

	slog.InfoContext(ctx, "Account created", "id", a.ID, "user_id", a.UserID, "kind", a.Kind)
	return a, nil
}

func (r *Repository) GetAccount(ctx context.Context, id int64) (core.Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, name, kind, balance_cents, institution, account_number
		 FROM accounts WHERE id = ?`, id)
	return scanAccount(row)
}

func (r *Repository) ListAccounts(ctx context.Context, userID int64) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, kind, balance_cents, institution, account_number
		 FROM accounts WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

func (r *Repository) ListAccountsByKind(ctx context.Context, userID int64, kind core.AccountKind) ([]core.Account, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, name, kind, balance_cents, institution, account_number
		 FROM accounts WHERE user_id = ? AND kind = ? ORDER BY id`, userID, string(kind))
	if err != nil {
		return nil, fmt.Errorf("list accounts by kind: %w", err)
	}
	defer rows.Close()
	return collectAccounts(rows)
}

// AccountNumberExists reports whether the user already has an account with the
// given external number.
func (r *Repository) AccountNumberExists(ctx context.Context, userID int64, number string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS(SELECT 1 FROM accounts WHERE user_id = ? AND account_number = ?)`,
		userID, number).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check account number: %w", err)
	}
	return exists, nil
}

func (r *Repository) UpdateAccount(ctx context.Context, a core.Account) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts
		 SET name = ?, kind = ?, balance_cents = ?, institution = ?, account_number = ?,
		     updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`,
		a.Name, string(a.Kind), a.Balance.Cents, a.Institution, a.AccountNumber, a.ID)
	if err != nil {
		return fmt.Errorf("update account: %w", err)
	}
	return requireRow(res)
}

// ApplyBalanceDelta adjusts the account balance atomically in SQL rather than
// read-modify-write, so concurrent writers do not lose updates.
func (r *Repository) ApplyBalanceDelta(ctx context.Context, id int64, deltaCents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE accounts SET balance_cents = balance_cents + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE id = ?`, deltaCents, id)
	if err != nil {
		return fmt.Errorf("apply balance delta: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteAccount(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	return requireRow(res)
}

// --- Categories ---

func (r *Repository) CreateCategory(ctx context.Context, c core.Category) (core.Category, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (label, direction) VALUES (?, ?)`, c.Label, string(c.Direction))
	if err != nil {
		return core.Category{}, fmt.Errorf("insert category: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Category{}, fmt.Errorf("category insert id: %w", err)
	}
	c.ID = id
	return c, nil
}

func (r *Repository) GetCategory(ctx context.Context, id int64) (core.Category, error) {
	var c core.Category
	var direction string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, label, direction FROM categories WHERE id = ?`, id).
		Scan(&c.ID, &c.Label, &direction)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category: %w", err)
	}
	c.Direction = core.CategoryDirection(direction)
	return c, nil
}

func (r *Repository) GetCategoryByLabel(ctx context.Context, label string) (core.Category, error) {
	var c core.Category
	var direction string
	err := r.db.QueryRowContext(ctx,
		`SELECT id, label, direction FROM categories WHERE label = ? ORDER BY id LIMIT 1`, label).
		Scan(&c.ID, &c.Label, &direction)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Category{}, core.ErrNotFound
	}
	if err != nil {
		return core.Category{}, fmt.Errorf("get category by label: %w", err)
	}
	c.Direction = core.CategoryDirection(direction)
	return c, nil
}

func (r *Repository) ListCategories(ctx context.Context) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT id, label, direction FROM categories ORDER BY id`)
}

func (r *Repository) ListCategoriesByDirection(ctx context.Context, d core.CategoryDirection) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT id, label, direction FROM categories WHERE direction = ? ORDER BY id`, string(d))
}

func (r *Repository) ListCategoriesByDirectionAndLabel(ctx context.Context, d core.CategoryDirection, label string) ([]core.Category, error) {
	return r.queryCategories(ctx,
		`SELECT id, label, direction FROM categories WHERE direction = ? AND label = ? ORDER BY id`,
		string(d), label)
}

func (r *Repository) queryCategories(ctx context.Context, query string, args ...any) ([]core.Category, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var out []core.Category
	for rows.Next() {
		var c core.Category
		var direction string
		if err := rows.Scan(&c.ID, &c.Label, &direction); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		c.Direction = core.CategoryDirection(direction)
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateCategory(ctx context.Context, c core.Category) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE categories SET label = ?, direction = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		c.Label, string(c.Direction), c.ID)
	if err != nil {
		return fmt.Errorf("update category: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteCategory(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM categories WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	return requireRow(res)
}

// --- Budgets ---

// UpsertBudget creates the user's budget for a category, or updates the
// budgeted amount when one already exists. Accumulated spending survives a
// re-create. One budget per (user, category) is enforced by the schema.
func (r *Repository) UpsertBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`INSERT INTO budgets (user_id, category, budgeted_cents, spent_cents)
		 VALUES (?, ?, ?, ?)
		 ON CONFLICT (user_id, category) DO UPDATE SET
		   budgeted_cents = excluded.budgeted_cents,
		   updated_at = CURRENT_TIMESTAMP
		 RETURNING id, user_id, category, budgeted_cents, spent_cents, last_alert_sent`,
		b.UserID, b.Category, b.Budgeted.Cents, b.Spent.Cents)
	out, err := scanBudget(row)
	if err != nil {
		return core.Budget{}, fmt.Errorf("upsert budget: %w", err)
	}
	return out, nil
}

func (r *Repository) GetBudget(ctx context.Context, id int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, budgeted_cents, spent_cents, last_alert_sent
		 FROM budgets WHERE id = ?`, id)
	return scanBudget(row)
}

func (r *Repository) GetBudgetByCategory(ctx context.Context, userID int64, category string) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, category, budgeted_cents, spent_cents, last_alert_sent
		 FROM budgets WHERE user_id = ? AND category = ?`, userID, category)
	return scanBudget(row)
}

func (r *Repository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, user_id, category, budgeted_cents, spent_cents, last_alert_sent
		 FROM budgets WHERE user_id = ? ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var out []core.Budget
	for rows.Next() {
		b, err := scanBudgetRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateBudget(ctx context.Context, b core.Budget) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET category = ?, budgeted_cents = ?, spent_cents = ?,
		 updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		b.Category, b.Budgeted.Cents, b.Spent.Cents, b.ID)
	if err != nil {
		return fmt.Errorf("update budget: %w", err)
	}
	return requireRow(res)
}

// AddSpent increments the spent total of the user's budget for a category and
// returns the updated row. Returns core.ErrNotFound when no budget matches.
func (r *Repository) AddSpent(ctx context.Context, userID int64, category string, cents int64) (core.Budget, error) {
	row := r.db.QueryRowContext(ctx,
		`UPDATE budgets SET spent_cents = spent_cents + ?, updated_at = CURRENT_TIMESTAMP
		 WHERE user_id = ? AND category = ?
		 RETURNING id, user_id, category, budgeted_cents, spent_cents, last_alert_sent`,
		cents, userID, category)
	return scanBudget(row)
}

// SetSpent overwrites the spent total of a budget row.
func (r *Repository) SetSpent(ctx context.Context, id int64, cents int64) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET spent_cents = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`, cents, id)
	if err != nil {
		return fmt.Errorf("set spent: %w", err)
	}
	return requireRow(res)
}

// MarkAlertSent stamps the last overspend alert time on a budget.
func (r *Repository) MarkAlertSent(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE budgets SET last_alert_sent = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		encodeDate(at), id)
	if err != nil {
		return fmt.Errorf("mark alert sent: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteBudget(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return requireRow(res)
}

// --- Transactions ---

func (r *Repository) CreateTransaction(ctx context.Context, t core.Transaction) (core.Transaction, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO transactions (user_id, description, amount_cents, occurred_on, tx_type, account_id, category)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		t.UserID, t.Description, t.Amount.Cents, encodeDate(t.Date), string(t.Type),
		nullableID(t.AccountID), t.Category)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Transaction{}, fmt.Errorf("transaction insert id: %w", err)
	}
	t.ID = id
	return t, nil
}

func (r *Repository) GetTransaction(ctx context.Context, id int64) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, user_id, description, amount_cents, occurred_on, tx_type, account_id, category
		 FROM transactions WHERE id = ?`, id)
	return scanTransaction(row)
}

// ListTransactions returns all of a user's transactions, most recent first.
func (r *Repository) ListTransactions(ctx context.Context, userID int64) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, user_id, description, amount_cents, occurred_on, tx_type, account_id, category
		 FROM transactions WHERE user_id = ? ORDER BY occurred_on DESC, id DESC`, userID)
}

// ListTransactionsSince returns the user's transactions dated at or after the
// cutoff, most recent first.
func (r *Repository) ListTransactionsSince(ctx context.Context, userID int64, from time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, user_id, description, amount_cents, occurred_on, tx_type, account_id, category
		 FROM transactions WHERE user_id = ? AND occurred_on >= ?
		 ORDER BY occurred_on DESC, id DESC`, userID, encodeDate(from))
}

// ListExpensesSince returns only expense transactions in the window.
func (r *Repository) ListExpensesSince(ctx context.Context, userID int64, from time.Time) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, user_id, description, amount_cents, occurred_on, tx_type, account_id, category
		 FROM transactions WHERE user_id = ? AND occurred_on >= ? AND tx_type = 'expense'
		 ORDER BY occurred_on DESC, id DESC`, userID, encodeDate(from))
}

// ListTransactionsByCategory returns the user's transactions with the given
// category label, most recent first.
func (r *Repository) ListTransactionsByCategory(ctx context.Context, userID int64, category string) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, user_id, description, amount_cents, occurred_on, tx_type, account_id, category
		 FROM transactions WHERE user_id = ? AND category = ?
		 ORDER BY occurred_on DESC, id DESC`, userID, category)
}

// ListTransactionsByAccount returns the user's transactions against one
// account, most recent first.
func (r *Repository) ListTransactionsByAccount(ctx context.Context, userID, accountID int64) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, user_id, description, amount_cents, occurred_on, tx_type, account_id, category
		 FROM transactions WHERE user_id = ? AND account_id = ?
		 ORDER BY occurred_on DESC, id DESC`, userID, accountID)
}

// ListTransactionsByType returns the user's transactions of one type, most
// recent first.
func (r *Repository) ListTransactionsByType(ctx context.Context, userID int64, t core.TransactionType) ([]core.Transaction, error) {
	return r.queryTransactions(ctx,
		`SELECT id, user_id, description, amount_cents, occurred_on, tx_type, account_id, category
		 FROM transactions WHERE user_id = ? AND tx_type = ?
		 ORDER BY occurred_on DESC, id DESC`, userID, string(t))
}

func (r *Repository) queryTransactions(ctx context.Context, query string, args ...any) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransactionRows(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *Repository) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE transactions SET description = ?, amount_cents = ?, occurred_on = ?, tx_type = ?
		 WHERE id = ?`,
		t.Description, t.Amount.Cents, encodeDate(t.Date), string(t.Type), t.ID)
	if err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	return requireRow(res)
}

func (r *Repository) DeleteTransaction(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	return requireRow(res)
}

// --- scanning helpers ---

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (core.Account, error) {
	var a core.Account
	var userID sql.NullInt64
	var kind string
	err := row.Scan(&a.ID, &userID, &a.Name, &kind, &a.Balance.Cents, &a.Institution, &a.AccountNumber)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Account{}, core.ErrNotFound
	}
	if err != nil {
		return core.Account{}, fmt.Errorf("scan account: %w", err)
	}
	a.UserID = userID.Int64
	a.Kind = core.AccountKind(kind)
	return a, nil
}

func collectAccounts(rows *sql.Rows) ([]core.Account, error) {
	var out []core.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func scanBudget(row rowScanner) (core.Budget, error) {
	var b core.Budget
	var lastAlert sql.NullString
	err := row.Scan(&b.ID, &b.UserID, &b.Category, &b.Budgeted.Cents, &b.Spent.Cents, &lastAlert)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Budget{}, core.ErrNotFound
	}
	if err != nil {
		return core.Budget{}, fmt.Errorf("scan budget: %w", err)
	}
	if lastAlert.Valid {
		t, err := decodeDate(lastAlert.String)
		if err != nil {
			return core.Budget{}, fmt.Errorf("decode last alert time: %w", err)
		}
		b.LastAlertSent = &t
	}
	return b, nil
}

func scanBudgetRows(rows *sql.Rows) (core.Budget, error) {
	return scanBudget(rows)
}

func scanTransaction(row rowScanner) (core.Transaction, error) {
	var t core.Transaction
	var occurredOn, txType string
	var accountID sql.NullInt64
	err := row.Scan(&t.ID, &t.UserID, &t.Description, &t.Amount.Cents, &occurredOn, &txType, &accountID, &t.Category)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	if err != nil {
		return core.Transaction{}, fmt.Errorf("scan transaction: %w", err)
	}
	t.Date, err = decodeDate(occurredOn)
	if err != nil {
		return core.Transaction{}, fmt.Errorf("decode transaction date: %w", err)
	}
	t.Type = core.TransactionType(txType)
	t.AccountID = accountID.Int64
	return t, nil
}

func scanTransactionRows(rows *sql.Rows) (core.Transaction, error) {
	return scanTransaction(rows)
}

func nullableID(id int64) sql.NullInt64 {
	return sql.NullInt64{Int64: id, Valid: id != 0}
}

func requireRow(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}
