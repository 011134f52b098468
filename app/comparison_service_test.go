package app

import (
	"bytes"
	"context"
	"testing"

	"gokw/adapters/stats/ranktest"
	"gokw/domain/core"
	"gokw/domain/stats"
	"gokw/domain/testcov"
	"gokw/internal"
	"gokw/internal/testkit"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestComparisonService() (*ComparisonService, *bytes.Buffer) {
	var buf bytes.Buffer
	logger := internal.NewLoggerTo(&buf, internal.LogLevelDebug)
	svc := NewComparisonService(NewEligibilityChecker(logger), NewRankTestService(ranktest.NewTester(), logger), nil, nil, logger)
	return svc, &buf
}

func mismatchedInputs(t *testing.T) testcov.Comparison {
	t.Helper()
	g, err := testkit.Groups("s1", "A", "s2", "A", "s3", "B", "s4", "B", "ghost", "B")
	require.NoError(t, err)
	return testcov.Comparison{Name: "direct", Groups: g.Groups(), Assignment: g}
}

func TestRunComparisonAbortsOnSampleMismatch(t *testing.T) {
	m, err := testkit.Matrix([]string{"s1", "s2", "s3", "s4", "extra"}, []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	svc, _ := newTestComparisonService()

	run, err := svc.RunComparison(context.Background(), m, mismatchedInputs(t), opts(1))
	require.NoError(t, err)
	assert.Equal(t, stats.DispositionAbort, run.Disposition)
	assert.Equal(t, stats.MethodNone, run.Method)
	assert.Nil(t, run.Result)
	assert.Contains(t, run.Reason, core.ErrInputMismatch.Error())
	assert.Contains(t, run.Reason, "missing from group information: extra")
	assert.Contains(t, run.Reason, "missing from data matrix: ghost")
}

func TestRunComparisonSubsetUsesSharedSamples(t *testing.T) {
	m, err := testkit.Matrix([]string{"s1", "s2", "s3", "s4", "extra"}, []float64{1, 2, 3, 4, 5})
	require.NoError(t, err)
	svc, buf := newTestComparisonService()

	c := mismatchedInputs(t)
	c.Subset = true
	run, err := svc.RunComparison(context.Background(), m, c, opts(1))
	require.NoError(t, err)
	assert.Equal(t, stats.DispositionTwoGroup, run.Disposition)
	assert.Equal(t, stats.MethodMannWhitneyU, run.Method)
	require.NotNil(t, run.Result)
	assert.Equal(t, []int{2, 2}, run.Result.GroupSizes)
	assert.Equal(t, 1, run.Result.TestedCount())
	assert.Contains(t, buf.String(), "1 assigned samples are not in the matrix")
}
