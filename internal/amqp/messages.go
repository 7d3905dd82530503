package amqp

import (
	"encoding/json"
	"time"
)

// BudgetAlertMessage notifies the alert worker that a budget's spent total
// crossed its budgeted amount. It carries enough to render the notification
// without another database read.
type BudgetAlertMessage struct {
	BudgetID      int64     `json:"budgetId"`
	UserID        int64     `json:"userId"`
	Category      string    `json:"category"`
	SpentCents    int64     `json:"spentCents"`
	BudgetedCents int64     `json:"budgetedCents"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewBudgetAlertMessage(budgetID, userID int64, category string, spentCents, budgetedCents int64) *BudgetAlertMessage {
	return &BudgetAlertMessage{
		BudgetID:      budgetID,
		UserID:        userID,
		Category:      category,
		SpentCents:    spentCents,
		BudgetedCents: budgetedCents,
		Timestamp:     time.Now(),
	}
}

// OverspendCents is the amount by which the budget is exceeded.
func (m *BudgetAlertMessage) OverspendCents() int64 {
	return m.SpentCents - m.BudgetedCents
}

func (m *BudgetAlertMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func BudgetAlertMessageFromJSON(data []byte) (*BudgetAlertMessage, error) {
	var msg BudgetAlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
