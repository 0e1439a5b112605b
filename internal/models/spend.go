package models

import "github.com/shopspring/decimal"

// DailySpend is one user's total debit spend against expense accounts
// for a single calendar day. Derived fresh on every detection run,
// never persisted.
type DailySpend struct {
	UserID int64           `json:"user_id"`
	Day    string          `json:"day"` // Format: YYYY-MM-DD
	Spend  decimal.Decimal `json:"spend"`
}

// UserBaseline holds a user's spending baseline across all of their
// daily spend rows. StdDev is the population standard deviation
// (divisor N, matching STDDEV_POP).
type UserBaseline struct {
	UserID int64   `json:"user_id"`
	Mean   float64 `json:"mean"`
	StdDev float64 `json:"stddev"`
}

// Anomaly is a daily spend row flagged by the z-score classifier.
type Anomaly struct {
	UserID int64           `json:"user_id"`
	Day    string          `json:"day"`
	Spend  decimal.Decimal `json:"spend"`
	Mean   float64         `json:"mean"`
	ZScore float64         `json:"z_score"`
}
