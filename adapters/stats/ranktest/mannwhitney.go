package ranktest

import (
	"math"

	"gokw/domain/core"
	"gokw/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// MannWhitneyU computes U for x and a two-sided p-value from the normal
// approximation with tie and continuity corrections.
func MannWhitneyU(x, y []float64) (stats.TestResult, error) {
	if len(x) == 0 || len(y) == 0 {
		return stats.TestResult{}, core.ErrTooFewGroups
	}
	if err := checkFinite(x); err != nil {
		return stats.TestResult{}, err
	}
	if err := checkFinite(y); err != nil {
		return stats.TestResult{}, err
	}

	pooled := make([]float64, 0, len(x)+len(y))
	pooled = append(pooled, x...)
	pooled = append(pooled, y...)
	ranks, tieTerm := averageRanks(pooled)

	n1 := float64(len(x))
	n2 := float64(len(y))
	r1 := 0.0
	for _, r := range ranks[:len(x)] {
		r1 += r
	}
	u1 := r1 - n1*(n1+1)/2
	u2 := n1*n2 - u1

	n := n1 + n2
	mu := n1 * n2 / 2
	variance := n1 * n2 / 12 * ((n + 1) - tieTerm/(n*(n-1)))
	if variance <= 0 {
		return stats.TestResult{Statistic: u1, PValue: 1}, nil
	}

	z := (math.Max(u1, u2) - mu - 0.5) / math.Sqrt(variance)
	p := 2 * distuv.UnitNormal.Survival(z)
	return stats.TestResult{Statistic: u1, PValue: clampProbability(p)}, nil
}
