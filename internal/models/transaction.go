package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionDetail is a single transaction contributing to a flagged
// day's total, shown to reviewers.
type TransactionDetail struct {
	ID          int64           `json:"id"`
	Description string          `json:"description"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Time        time.Time       `json:"time"`
}
