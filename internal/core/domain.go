package core

import (
	"strings"
	"time"
)

const (
	AccountChecking   AccountKind = "checking"
	AccountSavings    AccountKind = "savings"
	AccountCredit     AccountKind = "credit"
	AccountInvestment AccountKind = "investment"

	TypeIncome  TransactionType = "income"
	TypeExpense TransactionType = "expense"

	DirectionIncome  CategoryDirection = "INCOME"
	DirectionExpense CategoryDirection = "EXPENSE"
)

type (
	AccountKind       string
	TransactionType   string
	CategoryDirection string

	// Account is a named financial container. UserID 0 means the row has no
	// owner; such rows may be deleted by any caller (legacy cleanup).
	Account struct {
		ID            int64       `json:"id"`
		UserID        int64       `json:"userId,omitempty"`
		Name          string      `json:"name"`
		Kind          AccountKind `json:"type"`
		Balance       Money       `json:"balance"`
		Institution   string      `json:"institution"`
		AccountNumber string      `json:"accountNumber"`
	}

	// Category is a global label plus a direction; no per-user ownership.
	Category struct {
		ID        int64             `json:"id"`
		Label     string            `json:"label"`
		Direction CategoryDirection `json:"type"`
	}

	// Budget is a per-user, per-category spending plan. Spent accumulates via
	// explicit add-spent calls or expense transaction side effects.
	Budget struct {
		ID            int64      `json:"id"`
		UserID        int64      `json:"userId"`
		Category      string     `json:"category"`
		Budgeted      Money      `json:"budgeted"`
		Spent         Money      `json:"spent"`
		LastAlertSent *time.Time `json:"lastAlertSent,omitempty"`
	}

	// Transaction is the central ledger entry. Amount is a non-negative
	// magnitude; Type determines the sign applied to balances.
	Transaction struct {
		ID          int64           `json:"id"`
		UserID      int64           `json:"userId"`
		Description string          `json:"description"`
		Amount      Money           `json:"amount"`
		Date        time.Time       `json:"date"`
		Type        TransactionType `json:"type"`
		AccountID   int64           `json:"accountId,omitempty"`
		Category    string          `json:"category,omitempty"`
	}
)

func (k AccountKind) Valid() bool {
	switch k {
	case AccountChecking, AccountSavings, AccountCredit, AccountInvestment:
		return true
	}
	return false
}

func (t TransactionType) Valid() bool {
	return t == TypeIncome || t == TypeExpense
}

func (d CategoryDirection) Valid() bool {
	return d == DirectionIncome || d == DirectionExpense
}

func (a Account) Validate() error {
	if strings.TrimSpace(a.Name) == "" {
		return Invalid("account name is required")
	}
	if !a.Kind.Valid() {
		return Invalid("invalid account type")
	}
	if strings.TrimSpace(a.Institution) == "" {
		return Invalid("institution is required")
	}
	if strings.TrimSpace(a.AccountNumber) == "" {
		return Invalid("account number is required")
	}
	return nil
}

func (c Category) Validate() error {
	if strings.TrimSpace(c.Label) == "" {
		return Invalid("label is required")
	}
	if !c.Direction.Valid() {
		return Invalid("invalid category type")
	}
	return nil
}

func (b Budget) Validate() error {
	if strings.TrimSpace(b.Category) == "" {
		return Invalid("category is required")
	}
	if b.Budgeted.Cents <= 0 {
		return Invalid("budgeted amount must be positive")
	}
	if b.Spent.Cents < 0 {
		return Invalid("spent amount cannot be negative")
	}
	return nil
}

func (t Transaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return Invalid("description is required")
	}
	if len(t.Description) > 200 {
		return Invalid("description too long (max 200 characters)")
	}
	if t.Amount.Cents <= 0 {
		return Invalid("amount must be positive")
	}
	if t.Date.IsZero() {
		return Invalid("date is required")
	}
	if !t.Type.Valid() {
		return Invalid("type must be income or expense")
	}
	return nil
}

// SignedDelta returns the balance delta this transaction applies to its
// account: negative for expenses, positive for income.
func (t Transaction) SignedDelta() int64 {
	if t.Type == TypeExpense {
		return -t.Amount.Cents
	}
	return t.Amount.Cents
}
