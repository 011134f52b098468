package app

import (
	"errors"
	"fmt"
	"strings"

	"gokw/domain/core"
	"gokw/domain/dataset"
	"gokw/domain/stats"
	"gokw/internal"
)

// EligibilityError explains why a matrix and group assignment cannot be
// tested. It unwraps to the domain sentinel named by Reason.
type EligibilityError struct {
	Reason       error             `json:"-"`
	NotInGroups  []core.SampleID   `json:"not_in_groups,omitempty"`
	NotInMatrix  []core.SampleID   `json:"not_in_matrix,omitempty"`
	Groups       []core.GroupLabel `json:"groups,omitempty"`
	Sizes        []int             `json:"sizes,omitempty"`
	Smallest     core.GroupLabel   `json:"smallest,omitempty"`
	MinGroupSize int               `json:"min_group_size"`
}

func (e *EligibilityError) Error() string {
	switch {
	case errors.Is(e.Reason, core.ErrInputMismatch):
		var parts []string
		if len(e.NotInGroups) > 0 {
			parts = append(parts, "missing from group information: "+joinSamples(e.NotInGroups))
		}
		if len(e.NotInMatrix) > 0 {
			parts = append(parts, "missing from data matrix: "+joinSamples(e.NotInMatrix))
		}
		return fmt.Sprintf("%v (%s)", e.Reason, strings.Join(parts, "; "))
	case errors.Is(e.Reason, core.ErrInsufficientGroups):
		return fmt.Sprintf("%v: found %d", e.Reason, len(e.Groups))
	case errors.Is(e.Reason, core.ErrBelowMinimumSize):
		size := 0
		for k, g := range e.Groups {
			if g == e.Smallest {
				size = e.Sizes[k]
			}
		}
		return fmt.Sprintf("%v: group %s has %d samples, minimum is %d", e.Reason, e.Smallest, size, e.MinGroupSize)
	}
	return fmt.Sprintf("%v", e.Reason)
}

func (e *EligibilityError) Unwrap() error {
	return e.Reason
}

func joinSamples(ids []core.SampleID) string {
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = id.String()
	}
	return strings.Join(names, ", ")
}

// EligibilityChecker decides whether a matrix and group assignment can be
// tested row-wise, and by which method
type EligibilityChecker struct {
	logger *internal.Logger
}

// NewEligibilityChecker creates a checker. A nil logger uses the default.
func NewEligibilityChecker(logger *internal.Logger) *EligibilityChecker {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &EligibilityChecker{logger: logger.WithComponent("Eligibility")}
}

// Check returns the disposition for the pair. Every Abort carries an error:
// an *EligibilityError for mismatched samples, too few groups or an
// undersized group, a validation error for a negative minimum.
func (c *EligibilityChecker) Check(m *dataset.FeatureMatrix, g *dataset.GroupAssignment, minGroupSize int) (stats.Disposition, error) {
	if minGroupSize < 0 {
		return stats.DispositionAbort, core.NewValidationError("min_group_size", fmt.Sprintf("%d is negative", minGroupSize))
	}

	if err := checkSampleSets(m, g); err != nil {
		c.logger.Warn("%v", err)
		return stats.DispositionAbort, err
	}

	groups := g.Groups()
	sizesByLabel := g.Sizes()
	sizes := make([]int, len(groups))
	for k, l := range groups {
		sizes[k] = sizesByLabel[l]
	}

	if len(groups) < 2 {
		err := &EligibilityError{Reason: core.ErrInsufficientGroups, Groups: groups, Sizes: sizes, MinGroupSize: minGroupSize}
		c.logger.Warn("%v", err)
		return stats.DispositionAbort, err
	}

	if len(groups) == 2 {
		c.logger.Info("only 2 groups (%s, %s): use the two-group rank test (Mann-Whitney U)", groups[0], groups[1])
		return stats.DispositionTwoGroup, nil
	}

	smallest := 0
	for k := range sizes {
		if sizes[k] < sizes[smallest] {
			smallest = k
		}
	}
	if sizes[smallest] < minGroupSize {
		err := &EligibilityError{
			Reason:       core.ErrBelowMinimumSize,
			Groups:       groups,
			Sizes:        sizes,
			Smallest:     groups[smallest],
			MinGroupSize: minGroupSize,
		}
		c.logger.Warn("%v", err)
		return stats.DispositionAbort, err
	}

	c.logger.Debug("%d groups, smallest %s with %d samples", len(groups), groups[smallest], sizes[smallest])
	return stats.DispositionMultiGroup, nil
}

// checkSampleSets requires the matrix columns and the assigned samples to be
// the same set
func checkSampleSets(m *dataset.FeatureMatrix, g *dataset.GroupAssignment) error {
	notInGroups, notInMatrix := g.Diff(m.Samples())
	if len(notInGroups) == 0 && len(notInMatrix) == 0 {
		return nil
	}
	return &EligibilityError{
		Reason:      core.ErrInputMismatch,
		NotInGroups: notInGroups,
		NotInMatrix: notInMatrix,
	}
}
