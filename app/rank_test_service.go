package app

import (
	"context"
	"errors"
	"fmt"

	"gokw/domain/core"
	"gokw/domain/dataset"
	"gokw/domain/stats"
	"gokw/internal"
	"gokw/ports"

	"golang.org/x/sync/errgroup"
)

// ComputeOptions tunes a row-wise rank test computation
type ComputeOptions struct {
	MinGroupSize int
	// Workers > 1 evaluates rows concurrently; results do not depend on it
	Workers int
}

// DefaultComputeOptions uses the default minimum group size, sequentially
func DefaultComputeOptions() ComputeOptions {
	return ComputeOptions{MinGroupSize: stats.DefaultMinGroupSize, Workers: 1}
}

// RankTestService fills result tables by applying a rank test to every
// feature of a matrix
type RankTestService struct {
	tester ports.RankTestPort
	logger *internal.Logger
}

// NewRankTestService creates the service around a rank-test capability
func NewRankTestService(tester ports.RankTestPort, logger *internal.Logger) *RankTestService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &RankTestService{tester: tester, logger: logger.WithComponent("RankTest")}
}

type rowTest func(groups [][]float64) (stats.TestResult, error)

// ComputeMultiGroup runs Kruskal-Wallis on every eligible feature
func (s *RankTestService) ComputeMultiGroup(ctx context.Context, m *dataset.FeatureMatrix, g *dataset.GroupAssignment, opts ComputeOptions) (*stats.ResultTable, error) {
	return s.compute(ctx, stats.MethodKruskalWallis, m, g, opts, s.tester.KruskalWallis)
}

// ComputeTwoGroup runs Mann-Whitney U on every eligible feature. The
// assignment must have exactly two groups; the statistic is the U of the
// first group in label order.
func (s *RankTestService) ComputeTwoGroup(ctx context.Context, m *dataset.FeatureMatrix, g *dataset.GroupAssignment, opts ComputeOptions) (*stats.ResultTable, error) {
	if n := len(g.Groups()); n != 2 {
		return nil, core.NewValidationError("groups", fmt.Sprintf("two-group test needs exactly 2 groups, got %d", n))
	}
	return s.compute(ctx, stats.MethodMannWhitneyU, m, g, opts, func(groups [][]float64) (stats.TestResult, error) {
		return s.tester.MannWhitneyU(groups[0], groups[1])
	})
}

// Compute dispatches on a checker disposition
func (s *RankTestService) Compute(ctx context.Context, d stats.Disposition, m *dataset.FeatureMatrix, g *dataset.GroupAssignment, opts ComputeOptions) (*stats.ResultTable, error) {
	switch d {
	case stats.DispositionMultiGroup:
		return s.ComputeMultiGroup(ctx, m, g, opts)
	case stats.DispositionTwoGroup:
		return s.ComputeTwoGroup(ctx, m, g, opts)
	default:
		return nil, core.NewValidationError("disposition", fmt.Sprintf("cannot compute for %s", d))
	}
}

func (s *RankTestService) compute(ctx context.Context, method stats.Method, m *dataset.FeatureMatrix, g *dataset.GroupAssignment, opts ComputeOptions, test rowTest) (*stats.ResultTable, error) {
	if opts.MinGroupSize < 0 {
		return nil, core.NewValidationError("min_group_size", fmt.Sprintf("%d is negative", opts.MinGroupSize))
	}
	if err := checkSampleSets(m, g); err != nil {
		return nil, err
	}
	part, err := g.Partition(m)
	if err != nil {
		return nil, err
	}

	table := stats.NewResultTable(method, part.Labels, part.Sizes(), opts.MinGroupSize, m.Features())

	err = forEachRow(ctx, m.NumFeatures(), opts.Workers, func(i int) error {
		return s.evaluateRow(&table.Rows[i], m.Row(i), part, opts.MinGroupSize, test)
	})
	if err != nil {
		return nil, err
	}

	eligible := 0
	for _, r := range table.Rows {
		if r.MinCount() >= opts.MinGroupSize {
			eligible++
		}
	}
	if eligible == 0 {
		s.logger.Info("%v: minimum %d (%d features, %d groups)", core.ErrNoEligibleRows, opts.MinGroupSize, table.Len(), len(part.Labels))
		return table, nil
	}

	s.logger.Debug("%s: %d features, %d eligible, %d tested", method, table.Len(), eligible, table.TestedCount())
	return table, nil
}

// evaluateRow fills one row's counts and medians and, when every group
// reaches the minimum, its test result
func (s *RankTestService) evaluateRow(row *stats.ResultRow, values []core.NullFloat64, part dataset.Partition, minGroupSize int, test rowTest) error {
	groups := make([][]float64, len(part.Columns))
	for k, cols := range part.Columns {
		vals := make([]float64, 0, len(cols))
		for _, j := range cols {
			if values[j].Valid {
				vals = append(vals, values[j].Float64)
			}
		}
		row.Counts[k] = len(vals)
		if len(vals) > 0 {
			med, err := s.tester.Median(vals)
			if err != nil {
				return fmt.Errorf("median of %s in group %s: %w", row.Feature, part.Labels[k], err)
			}
			row.Medians[k] = core.Float(med)
		}
		groups[k] = vals
	}

	if row.MinCount() < minGroupSize {
		return nil
	}

	present := make([][]float64, 0, len(groups))
	for _, vals := range groups {
		if len(vals) > 0 {
			present = append(present, vals)
		}
	}
	if len(present) < 2 {
		return nil
	}

	res, err := test(present)
	if errors.Is(err, core.ErrTooFewGroups) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("rank test of %s: %w", row.Feature, err)
	}
	row.Test = &res
	return nil
}

// forEachRow calls fn for rows [0, n). With more than one worker rows run on
// a bounded errgroup; fn must only touch row i.
func forEachRow(ctx context.Context, n, workers int, fn func(i int) error) error {
	if workers <= 1 {
		for i := range n {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := fn(i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i := range n {
		if gCtx.Err() != nil {
			break
		}
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}
			return fn(i)
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}
	return ctx.Err()
}
