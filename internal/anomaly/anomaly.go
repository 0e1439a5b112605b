package anomaly

import (
	"math"

	"github.com/finsight/finance-service/internal/models"
)

// ZScoreThreshold is the number of population standard deviations a day's
// spend must deviate from the user's mean to be flagged.
const ZScoreThreshold = 3.0

// Baselines computes each user's mean and population standard deviation
// of daily spend across all of that user's days.
func Baselines(spends []models.DailySpend) map[int64]models.UserBaseline {
	type acc struct {
		n     float64
		sum   float64
		sumSq float64
	}
	accs := make(map[int64]*acc)
	for _, s := range spends {
		a, ok := accs[s.UserID]
		if !ok {
			a = &acc{}
			accs[s.UserID] = a
		}
		v := s.Spend.InexactFloat64()
		a.n++
		a.sum += v
		a.sumSq += v * v
	}

	baselines := make(map[int64]models.UserBaseline, len(accs))
	for userID, a := range accs {
		mean := a.sum / a.n
		// Population variance: E[X^2] - E[X]^2. Floating point can push
		// this slightly below zero for constant series.
		variance := a.sumSq/a.n - mean*mean
		if variance < 0 {
			variance = 0
		}
		baselines[userID] = models.UserBaseline{
			UserID: userID,
			Mean:   mean,
			StdDev: math.Sqrt(variance),
		}
	}
	return baselines
}

// Classify flags every daily spend row deviating from its user's baseline
// by at least ZScoreThreshold population standard deviations.
//
// When the baseline has zero variance, a day with positive spend against a
// positive mean is flagged with z_score = 0 (no real deviation is
// computable). For a zero-variance user every day equals the mean, so this
// rule flags all of their days or none; the behavior is preserved from the
// production rule set and pinned by tests rather than corrected here.
func Classify(spends []models.DailySpend, baselines map[int64]models.UserBaseline) []models.Anomaly {
	var anomalies []models.Anomaly
	for _, s := range spends {
		b, ok := baselines[s.UserID]
		if !ok {
			continue
		}
		spend := s.Spend.InexactFloat64()
		if b.StdDev > 0 {
			z := (spend - b.Mean) / b.StdDev
			if math.Abs(z) >= ZScoreThreshold {
				anomalies = append(anomalies, models.Anomaly{
					UserID: s.UserID,
					Day:    s.Day,
					Spend:  s.Spend,
					Mean:   b.Mean,
					ZScore: z,
				})
			}
		} else if spend > 0 && b.Mean > 0 {
			anomalies = append(anomalies, models.Anomaly{
				UserID: s.UserID,
				Day:    s.Day,
				Spend:  s.Spend,
				Mean:   b.Mean,
				ZScore: 0,
			})
		}
	}
	return anomalies
}

// Detect runs the full pipeline: baselines, then classification.
func Detect(spends []models.DailySpend) []models.Anomaly {
	return Classify(spends, Baselines(spends))
}
