package anomaly

import (
	"fmt"
	"testing"

	"github.com/finsight/finance-service/internal/models"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func spendsFor(userID int64, amounts ...float64) []models.DailySpend {
	spends := make([]models.DailySpend, 0, len(amounts))
	for i, a := range amounts {
		spends = append(spends, models.DailySpend{
			UserID: userID,
			Day:    fmt.Sprintf("2025-06-%02d", i+1),
			Spend:  decimal.NewFromFloat(a),
		})
	}
	return spends
}

func TestBaselines(t *testing.T) {
	tests := []struct {
		name       string
		amounts    []float64
		wantMean   float64
		wantStdDev float64
	}{
		{
			name:       "single spike",
			amounts:    []float64{10, 10, 10, 10, 50},
			wantMean:   18,
			wantStdDev: 16,
		},
		{
			name:       "constant series has zero deviation",
			amounts:    []float64{25, 25, 25},
			wantMean:   25,
			wantStdDev: 0,
		},
		{
			name:       "single day",
			amounts:    []float64{40},
			wantMean:   40,
			wantStdDev: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			baselines := Baselines(spendsFor(1, tt.amounts...))
			require.Len(t, baselines, 1)
			b := baselines[1]
			assert.InDelta(t, tt.wantMean, b.Mean, 1e-9)
			assert.InDelta(t, tt.wantStdDev, b.StdDev, 1e-9)
		})
	}
}

func TestBaselines_PerUser(t *testing.T) {
	spends := append(spendsFor(1, 10, 20, 30), spendsFor(2, 100, 100)...)
	baselines := Baselines(spends)

	require.Len(t, baselines, 2)
	assert.InDelta(t, 20, baselines[1].Mean, 1e-9)
	assert.InDelta(t, 100, baselines[2].Mean, 1e-9)
	assert.InDelta(t, 0, baselines[2].StdDev, 1e-9)
}

func TestDetect_FlagsOutlier(t *testing.T) {
	// Nine days at 10 and one at 100: mean 19, population stddev 27,
	// putting the spike at exactly z = 3.
	amounts := []float64{10, 10, 10, 10, 10, 10, 10, 10, 10, 100}
	anomalies := Detect(spendsFor(1, amounts...))

	require.Len(t, anomalies, 1)
	a := anomalies[0]
	assert.Equal(t, int64(1), a.UserID)
	assert.Equal(t, "2025-06-10", a.Day)
	assert.True(t, decimal.NewFromInt(100).Equal(a.Spend))
	assert.InDelta(t, 19, a.Mean, 1e-9)
	assert.InDelta(t, 3, a.ZScore, 1e-9)
}

func TestDetect_WithinThreeSigmaNeverFlagged(t *testing.T) {
	// Symmetric spread: mean 14, stddev sqrt(8), worst day at z ~ 1.41.
	anomalies := Detect(spendsFor(1, 10, 12, 14, 16, 18))
	assert.Empty(t, anomalies)
}

func TestDetect_FarOutlierAlwaysFlagged(t *testing.T) {
	// A run of moderate variation plus one day far past mean+3 sigma.
	amounts := []float64{50, 52, 48, 51, 49, 50, 52, 48, 51, 49, 500}
	anomalies := Detect(spendsFor(7, amounts...))

	require.Len(t, anomalies, 1)
	assert.Equal(t, "2025-06-11", anomalies[0].Day)
	assert.Greater(t, anomalies[0].ZScore, 3.0)
}

// Pins the degenerate zero-variance rule: a constant nonzero spender has
// every day equal to the mean, and the rule flags all of them with z = 0.
// The rule cannot single out a genuinely unusual day for such a user; the
// behavior is intentionally preserved, not corrected.
func TestDetect_ZeroVariance(t *testing.T) {
	t.Run("constant nonzero spend flags every day with z zero", func(t *testing.T) {
		anomalies := Detect(spendsFor(3, 25, 25, 25))
		require.Len(t, anomalies, 3)
		for _, a := range anomalies {
			assert.Zero(t, a.ZScore)
			assert.InDelta(t, 25, a.Mean, 1e-9)
		}
	})

	t.Run("constant zero spend is never flagged", func(t *testing.T) {
		anomalies := Detect(spendsFor(3, 0, 0, 0))
		assert.Empty(t, anomalies)
	})
}

func TestClassify_UnknownUserSkipped(t *testing.T) {
	spends := spendsFor(1, 10, 10, 100)
	baselines := Baselines(spendsFor(2, 5, 5, 5))
	assert.Empty(t, Classify(spends, baselines))
}
