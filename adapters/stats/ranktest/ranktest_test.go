package ranktest

import (
	"errors"
	"math"
	"testing"

	"gokw/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const tolerance = 1e-9

func TestAverageRanks(t *testing.T) {
	ranks, ties := averageRanks([]float64{10, 20, 20, 5, 20})
	assert.Equal(t, []float64{2, 4, 4, 1, 4}, ranks)
	assert.Equal(t, 24.0, ties) // one run of 3: 27 - 3

	ranks, ties = averageRanks([]float64{3, 1, 2})
	assert.Equal(t, []float64{3, 1, 2}, ranks)
	assert.Equal(t, 0.0, ties)
}

func TestKruskalWallis(t *testing.T) {
	tests := []struct {
		name   string
		groups [][]float64
		h      float64
		p      float64
	}{
		{
			name:   "three disjoint groups",
			groups: [][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}},
			h:      7.2,
			p:      math.Exp(-3.6),
		},
		{
			name:   "overlapping groups",
			groups: [][]float64{{2.9, 3.0, 2.5, 2.6, 3.2}, {3.8, 2.7, 4.0, 2.4}, {2.8, 3.4, 3.7, 2.2, 2.0}},
			h:      0.7714285714285722,
			p:      0.6799647735788935,
		},
		{
			name:   "ties across groups",
			groups: [][]float64{{1, 2, 2, 3}, {2, 3, 4, 4}, {5, 5, 6}},
			h:      7.61737089201878,
			p:      0.02217731307906278,
		},
		{
			name:   "two groups with ties",
			groups: [][]float64{{1, 1, 2}, {2, 3, 3}},
			h:      3.3333333333333295,
			p:      0.06788915486182917,
		},
		{
			name:   "four groups",
			groups: [][]float64{{1, 2}, {3, 4}, {5, 6}, {7, 8}},
			h:      6.666666666666664,
			p:      0.08331630551120198,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := KruskalWallis(tt.groups)
			require.NoError(t, err)
			assert.InDelta(t, tt.h, res.Statistic, tolerance)
			assert.InDelta(t, tt.p, res.PValue, 1e-7)
		})
	}
}

func TestKruskalWallisAllTied(t *testing.T) {
	res, err := KruskalWallis([][]float64{{5, 5, 5}, {5, 5}, {5, 5, 5, 5}})
	require.NoError(t, err)
	assert.Equal(t, 0.0, res.Statistic)
	assert.Equal(t, 1.0, res.PValue)
}

func TestKruskalWallisIgnoresEmptyGroups(t *testing.T) {
	withEmpty, err := KruskalWallis([][]float64{{1, 2, 3}, {}, {4, 5, 6}, {7, 8, 9}})
	require.NoError(t, err)
	without, err := KruskalWallis([][]float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}})
	require.NoError(t, err)
	assert.Equal(t, without, withEmpty)
}

func TestKruskalWallisErrors(t *testing.T) {
	_, err := KruskalWallis([][]float64{{1, 2}, {}})
	assert.True(t, errors.Is(err, core.ErrTooFewGroups))

	_, err = KruskalWallis(nil)
	assert.True(t, errors.Is(err, core.ErrTooFewGroups))

	_, err = KruskalWallis([][]float64{{1, math.NaN()}, {2}})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestKruskalWallisIsOrderInvariantWithinGroups(t *testing.T) {
	a, err := KruskalWallis([][]float64{{3, 1, 2}, {9, 7, 8}, {5, 6, 4}})
	require.NoError(t, err)
	b, err := KruskalWallis([][]float64{{1, 2, 3}, {7, 8, 9}, {4, 5, 6}})
	require.NoError(t, err)
	assert.InDelta(t, a.Statistic, b.Statistic, tolerance)
	assert.InDelta(t, a.PValue, b.PValue, tolerance)
}

func TestMannWhitneyU(t *testing.T) {
	tests := []struct {
		name string
		x, y []float64
		u    float64
		p    float64
	}{
		{"separated", []float64{1, 2, 3}, []float64{4, 5, 6}, 0, 0.0808555983700523},
		{"with ties", []float64{1, 2, 2, 3, 5}, []float64{2, 4, 4, 6, 7, 8}, 5, 0.07934368319771508},
		{"identical samples", []float64{3, 1, 2}, []float64{1, 2, 3}, 4.5, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := MannWhitneyU(tt.x, tt.y)
			require.NoError(t, err)
			assert.InDelta(t, tt.u, res.Statistic, tolerance)
			assert.InDelta(t, tt.p, res.PValue, 1e-7)
		})
	}
}

func TestMannWhitneyUConstant(t *testing.T) {
	res, err := MannWhitneyU([]float64{2, 2}, []float64{2, 2, 2})
	require.NoError(t, err)
	assert.Equal(t, 3.0, res.Statistic)
	assert.Equal(t, 1.0, res.PValue)
}

func TestMannWhitneyUErrors(t *testing.T) {
	_, err := MannWhitneyU(nil, []float64{1})
	assert.True(t, errors.Is(err, core.ErrTooFewGroups))

	_, err = MannWhitneyU([]float64{1}, []float64{math.Inf(1)})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestTesterMedian(t *testing.T) {
	tester := NewTester()

	m, err := tester.Median([]float64{5, 1, 3})
	require.NoError(t, err)
	assert.Equal(t, 3.0, m)

	m, err = tester.Median([]float64{4, 1, 3, 2})
	require.NoError(t, err)
	assert.Equal(t, 2.5, m)

	_, err = tester.Median(nil)
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}
