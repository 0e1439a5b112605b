package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// MonthlyExpensePoint is one month of aggregate expense, sourced from the
// monthly-expense view. Read-only input to the forecaster.
type MonthlyExpensePoint struct {
	MonthStart   time.Time       `json:"month_start"`
	TotalExpense decimal.Decimal `json:"total_expense"`
}

// HistoricalPoint is a labelled historical month for chart display.
type HistoricalPoint struct {
	Label    string          `json:"name"`
	Expenses decimal.Decimal `json:"expenses"`
}

// ForecastPoint is one projected month with its prediction band.
type ForecastPoint struct {
	Label     string          `json:"name"`
	Predicted decimal.Decimal `json:"predicted_expense"`
	RangeLow  decimal.Decimal `json:"range_low"`
	RangeHigh decimal.Decimal `json:"range_high"`
}

// ForecastResult bundles the historical series, the projected months and a
// suggested chart ceiling (smallest multiple of 1000 covering every value).
type ForecastResult struct {
	Historical []HistoricalPoint `json:"historical"`
	Forecast   []ForecastPoint   `json:"forecast"`
	ChartMax   int64             `json:"chart_max"`
}
