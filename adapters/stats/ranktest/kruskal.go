package ranktest

import (
	"gokw/domain/core"
	"gokw/domain/stats"

	"gonum.org/v1/gonum/stat/distuv"
)

// KruskalWallis computes the tie-corrected H statistic over the non-empty
// groups and its chi-square p-value with k-1 degrees of freedom.
// When every pooled value is tied no group differs: H = 0 and p = 1.
func KruskalWallis(groups [][]float64) (stats.TestResult, error) {
	var nonEmpty [][]float64
	total := 0
	for _, g := range groups {
		if len(g) == 0 {
			continue
		}
		if err := checkFinite(g); err != nil {
			return stats.TestResult{}, err
		}
		nonEmpty = append(nonEmpty, g)
		total += len(g)
	}
	k := len(nonEmpty)
	if k < 2 {
		return stats.TestResult{}, core.ErrTooFewGroups
	}

	pooled := make([]float64, 0, total)
	for _, g := range nonEmpty {
		pooled = append(pooled, g...)
	}
	ranks, tieTerm := averageRanks(pooled)

	n := float64(total)
	sum := 0.0
	offset := 0
	for _, g := range nonEmpty {
		rankSum := 0.0
		for _, r := range ranks[offset : offset+len(g)] {
			rankSum += r
		}
		sum += rankSum * rankSum / float64(len(g))
		offset += len(g)
	}
	h := 12/(n*(n+1))*sum - 3*(n+1)

	correction := 1 - tieTerm/(n*n*n-n)
	if correction <= 0 {
		return stats.TestResult{Statistic: 0, PValue: 1}, nil
	}
	h /= correction
	if h < 0 {
		h = 0
	}

	chi := distuv.ChiSquared{K: float64(k - 1)}
	return stats.TestResult{Statistic: h, PValue: clampProbability(chi.Survival(h))}, nil
}
