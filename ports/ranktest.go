package ports

import (
	"gokw/domain/stats"
)

// RankTestPort is the statistics capability the engines depend on.
// Implementations must be safe for concurrent use.
type RankTestPort interface {
	// KruskalWallis tests whether the groups come from the same distribution.
	// Empty groups are ignored; fewer than two non-empty groups is an error.
	KruskalWallis(groups [][]float64) (stats.TestResult, error)

	// MannWhitneyU tests x against y. The statistic is the U of x.
	MannWhitneyU(x, y []float64) (stats.TestResult, error)

	// Median returns the median of a non-empty sample
	Median(values []float64) (float64, error)
}
