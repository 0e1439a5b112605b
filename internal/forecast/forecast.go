package forecast

import (
	"math"
	"time"

	"github.com/finsight/finance-service/internal/models"
	"github.com/shopspring/decimal"
)

const (
	// ForecastMonths is how many future months are projected.
	ForecastMonths = 3
	// bandWidth is the fixed symmetric prediction band around the point
	// estimate. Not a statistical interval.
	bandWidth = 0.15

	monthLabelFormat = "Jan 06"
)

// Fit computes the ordinary-least-squares slope and intercept for a series
// where x is the 0-based index. With no points both are 0; with a single
// point the fit is a flat line at that value.
func Fit(ys []float64) (slope, intercept float64) {
	n := float64(len(ys))
	if len(ys) < 2 {
		if len(ys) == 1 {
			return 0, ys[0]
		}
		return 0, 0
	}
	var sumX, sumY, sumXY, sumXX float64
	for i, y := range ys {
		x := float64(i)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
	}
	slope = (n*sumXY - sumX*sumY) / (n*sumXX - sumX*sumX)
	intercept = (sumY - slope*sumX) / n
	return slope, intercept
}

// Compute fits a line to the monthly expense history and projects the next
// three months with a ±15% band. Pure: degenerate inputs produce degenerate
// outputs, never an error.
func Compute(history []models.MonthlyExpensePoint) *models.ForecastResult {
	historical := make([]models.HistoricalPoint, 0, len(history))
	ys := make([]float64, 0, len(history))
	for _, p := range history {
		historical = append(historical, models.HistoricalPoint{
			Label:    p.MonthStart.Format(monthLabelFormat),
			Expenses: p.TotalExpense,
		})
		ys = append(ys, p.TotalExpense.InexactFloat64())
	}

	slope, intercept := Fit(ys)

	// Project from the last historical month, or from today when there is
	// no history at all.
	base := time.Now()
	if len(history) > 0 {
		base = history[len(history)-1].MonthStart
	}

	maxVal := 0.0
	for _, y := range ys {
		if y > maxVal {
			maxVal = y
		}
	}

	points := make([]models.ForecastPoint, 0, ForecastMonths)
	for i := 1; i <= ForecastMonths; i++ {
		x := float64(len(ys) + i - 1)
		raw := slope*x + intercept

		predicted := round2(math.Max(0, raw))
		low := round2(math.Max(0, raw*(1-bandWidth)))
		// The upper bound follows the raw estimate even when negative;
		// only the point estimate and the lower bound are floored.
		high := round2(raw * (1 + bandWidth))

		if h := high.InexactFloat64(); h > maxVal {
			maxVal = h
		}

		points = append(points, models.ForecastPoint{
			Label:     base.AddDate(0, i, 0).Format(monthLabelFormat),
			Predicted: predicted,
			RangeLow:  low,
			RangeHigh: high,
		})
	}

	return &models.ForecastResult{
		Historical: historical,
		Forecast:   points,
		ChartMax:   int64(math.Ceil(maxVal/1000)) * 1000,
	}
}

func round2(v float64) decimal.Decimal {
	return decimal.NewFromFloat(v).Round(2)
}
