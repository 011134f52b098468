package ranktest

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gokw/domain/core"
)

// averageRanks assigns 1-based ranks to values, giving tied values the mean
// of the ranks they span. It also returns the tie term Σ(t³ − t) over all
// runs of t tied values, used by the tie corrections.
func averageRanks(values []float64) ([]float64, float64) {
	n := len(values)
	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	slices.SortStableFunc(order, func(a, b int) int {
		return cmp.Compare(values[a], values[b])
	})

	ranks := make([]float64, n)
	tieTerm := 0.0
	for i := 0; i < n; {
		j := i + 1
		for j < n && values[order[j]] == values[order[i]] {
			j++
		}
		avg := float64(i+1+j) / 2
		for k := i; k < j; k++ {
			ranks[order[k]] = avg
		}
		t := float64(j - i)
		tieTerm += t*t*t - t
		i = j
	}
	return ranks, tieTerm
}

func checkFinite(values []float64) error {
	for _, v := range values {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: rank test input contains %v", core.ErrInvalidInput, v)
		}
	}
	return nil
}

func clampProbability(p float64) float64 {
	switch {
	case math.IsNaN(p):
		return 1
	case p < 0:
		return 0
	case p > 1:
		return 1
	}
	return p
}
