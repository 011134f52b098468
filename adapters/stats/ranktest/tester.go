// Package ranktest implements the rank-based tests used to compare sample
// groups: Kruskal-Wallis for k groups and Mann-Whitney U for two.
package ranktest

import (
	"fmt"

	"gokw/domain/core"
	"gokw/domain/stats"
	"gokw/ports"

	montanaflynn "github.com/montanaflynn/stats"
)

// Tester is the process-wide rank-test capability. It holds no state and is
// safe for concurrent use.
type Tester struct{}

var _ ports.RankTestPort = (*Tester)(nil)

// NewTester creates a rank tester
func NewTester() *Tester {
	return &Tester{}
}

// KruskalWallis implements ports.RankTestPort
func (t *Tester) KruskalWallis(groups [][]float64) (stats.TestResult, error) {
	return KruskalWallis(groups)
}

// MannWhitneyU implements ports.RankTestPort
func (t *Tester) MannWhitneyU(x, y []float64) (stats.TestResult, error) {
	return MannWhitneyU(x, y)
}

// Median implements ports.RankTestPort
func (t *Tester) Median(values []float64) (float64, error) {
	if len(values) == 0 {
		return 0, fmt.Errorf("%w: median of empty sample", core.ErrInvalidInput)
	}
	return montanaflynn.Median(values)
}
