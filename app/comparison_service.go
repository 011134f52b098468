package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gokw/domain/core"
	"gokw/domain/dataset"
	"gokw/domain/stats"
	"gokw/domain/testcov"
	"gokw/internal"
	"gokw/internal/metrics"
	"gokw/ports"
)

// ComparisonService runs comparisons end to end: subset, check, compute,
// persist
type ComparisonService struct {
	checker *EligibilityChecker
	engine  *RankTestService
	runs    ports.RunRepository
	metrics *metrics.Metrics
	logger  *internal.Logger
}

// NewComparisonService wires the pipeline. runs and m may be nil.
func NewComparisonService(checker *EligibilityChecker, engine *RankTestService, runs ports.RunRepository, m *metrics.Metrics, logger *internal.Logger) *ComparisonService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &ComparisonService{
		checker: checker,
		engine:  engine,
		runs:    runs,
		metrics: m,
		logger:  logger.WithComponent("Comparison"),
	}
}

// ComparisonRequest is a matrix with the comparisons to run against it
type ComparisonRequest struct {
	Matrix      *dataset.FeatureMatrix
	Comparisons []testcov.Comparison
	Options     ComputeOptions
}

// Run executes every comparison in order. Ineligible comparisons yield an
// Abort run with its reason; other failures stop the pipeline.
func (s *ComparisonService) Run(ctx context.Context, req ComparisonRequest) ([]*stats.Run, error) {
	if req.Matrix == nil {
		return nil, core.NewValidationError("matrix", "required")
	}
	runs := make([]*stats.Run, 0, len(req.Comparisons))
	for _, c := range req.Comparisons {
		run, err := s.RunComparison(ctx, req.Matrix, c, req.Options)
		if err != nil {
			return runs, fmt.Errorf("comparison %s: %w", c.Name, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// RunComparison tests one comparison. Subset comparisons use the samples
// they share with the matrix; others must match the matrix samples exactly.
func (s *ComparisonService) RunComparison(ctx context.Context, m *dataset.FeatureMatrix, c testcov.Comparison, opts ComputeOptions) (*stats.Run, error) {
	if c.Assignment == nil {
		return nil, core.NewValidationError("comparison", c.Name+" has no group assignment")
	}
	start := time.Now()

	sub, groups := m, c.Assignment
	if c.Subset {
		sub = m.SelectSamples(c.Assignment.Has)
		groups = c.Assignment.SubsetSamples(func(id core.SampleID) bool {
			_, ok := m.SampleIndex(id)
			return ok
		})
		if dropped := c.Assignment.Len() - groups.Len(); dropped > 0 {
			s.logger.Warn("%s: %d assigned samples are not in the matrix", c.Name, dropped)
		}
	}

	run := &stats.Run{
		ID:           core.NewRunID(),
		Comparison:   c.Name,
		Method:       stats.MethodNone,
		MinGroupSize: opts.MinGroupSize,
		CreatedAt:    core.Now(),
	}

	disposition, err := s.checker.Check(sub, groups, opts.MinGroupSize)
	run.Disposition = disposition
	if err != nil {
		var elig *EligibilityError
		if !errors.As(err, &elig) {
			return nil, err
		}
		run.Reason = err.Error()
		s.logger.Info("%s: abort: %s", c.Name, run.Reason)
	} else {
		table, err := s.engine.Compute(ctx, disposition, sub, groups, opts)
		if err != nil {
			return nil, err
		}
		run.Method = table.Method
		run.Result = table
		run.Fingerprint = table.Fingerprint()
		s.logger.Info("%s: %s tested %d of %d features", c.Name, table.Method, table.TestedCount(), table.Len())
	}

	elapsed := time.Since(start)
	run.RuntimeMs = elapsed.Milliseconds()
	s.metrics.ObserveRun(run, elapsed)

	if s.runs != nil {
		if err := s.runs.SaveRun(ctx, run); err != nil {
			return nil, fmt.Errorf("save run %s: %w", run.ID, err)
		}
	}
	return run, nil
}
