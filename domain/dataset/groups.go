package dataset

import (
	"encoding/json"
	"fmt"
	"maps"
	"slices"

	"gokw/domain/core"
)

// GroupAssignment maps each sample to exactly one group label
type GroupAssignment struct {
	labels map[core.SampleID]core.GroupLabel
}

// NewGroupAssignment validates and copies a sample → label mapping
func NewGroupAssignment(labels map[core.SampleID]core.GroupLabel) (*GroupAssignment, error) {
	g := &GroupAssignment{labels: make(map[core.SampleID]core.GroupLabel, len(labels))}
	for s, l := range labels {
		if s == "" {
			return nil, core.NewValidationError("groups", "empty sample ID")
		}
		if l == "" {
			return nil, core.NewValidationError("groups", fmt.Sprintf("sample %s has an empty group label", s))
		}
		g.labels[s] = l
	}
	return g, nil
}

// Label returns the group of a sample
func (g *GroupAssignment) Label(s core.SampleID) (core.GroupLabel, bool) {
	l, ok := g.labels[s]
	return l, ok
}

// Has reports whether the sample is assigned
func (g *GroupAssignment) Has(s core.SampleID) bool {
	_, ok := g.labels[s]
	return ok
}

// Len returns the number of assigned samples
func (g *GroupAssignment) Len() int {
	return len(g.labels)
}

// Samples returns the assigned sample IDs in ascending order
func (g *GroupAssignment) Samples() []core.SampleID {
	return slices.Sorted(maps.Keys(g.labels))
}

// Sizes counts samples per group
func (g *GroupAssignment) Sizes() map[core.GroupLabel]int {
	sizes := make(map[core.GroupLabel]int)
	for _, l := range g.labels {
		sizes[l]++
	}
	return sizes
}

// Groups returns the distinct labels in ascending order
func (g *GroupAssignment) Groups() []core.GroupLabel {
	return slices.Sorted(maps.Keys(g.Sizes()))
}

// Diff compares the assigned samples with a set of matrix sample IDs.
// notInGroups lists matrix samples without a group; notInMatrix lists assigned
// samples absent from the matrix. Both are sorted.
func (g *GroupAssignment) Diff(samples []core.SampleID) (notInGroups, notInMatrix []core.SampleID) {
	seen := make(map[core.SampleID]bool, len(samples))
	for _, s := range samples {
		seen[s] = true
		if !g.Has(s) {
			notInGroups = append(notInGroups, s)
		}
	}
	for s := range g.labels {
		if !seen[s] {
			notInMatrix = append(notInMatrix, s)
		}
	}
	slices.Sort(notInGroups)
	slices.Sort(notInMatrix)
	return notInGroups, notInMatrix
}

// Restrict returns an assignment holding only the given labels
func (g *GroupAssignment) Restrict(keep ...core.GroupLabel) *GroupAssignment {
	out := &GroupAssignment{labels: make(map[core.SampleID]core.GroupLabel)}
	for s, l := range g.labels {
		if slices.Contains(keep, l) {
			out.labels[s] = l
		}
	}
	return out
}

// SubsetSamples returns an assignment holding only the samples keep accepts
func (g *GroupAssignment) SubsetSamples(keep func(core.SampleID) bool) *GroupAssignment {
	out := &GroupAssignment{labels: make(map[core.SampleID]core.GroupLabel)}
	for s, l := range g.labels {
		if keep(s) {
			out.labels[s] = l
		}
	}
	return out
}

// Partition groups matrix column indices by label. Labels are sorted
// ascending and Columns[k] lists, in matrix order, the columns of Labels[k].
type Partition struct {
	Labels  []core.GroupLabel
	Columns [][]int
}

// Sizes returns the number of samples per partition group
func (p Partition) Sizes() []int {
	sizes := make([]int, len(p.Columns))
	for k, cols := range p.Columns {
		sizes[k] = len(cols)
	}
	return sizes
}

// Partition splits the matrix columns by group. Every matrix sample must be
// assigned.
func (g *GroupAssignment) Partition(m *FeatureMatrix) (Partition, error) {
	labels := g.Groups()
	pos := make(map[core.GroupLabel]int, len(labels))
	for k, l := range labels {
		pos[l] = k
	}

	p := Partition{Labels: labels, Columns: make([][]int, len(labels))}
	for j := 0; j < m.NumSamples(); j++ {
		l, ok := g.labels[m.Sample(j)]
		if !ok {
			return Partition{}, fmt.Errorf("%w: sample %s has no group", core.ErrInputMismatch, m.Sample(j))
		}
		p.Columns[pos[l]] = append(p.Columns[pos[l]], j)
	}
	return p, nil
}

// MarshalJSON encodes the assignment as a sample → label object
func (g *GroupAssignment) MarshalJSON() ([]byte, error) {
	return json.Marshal(g.labels)
}

// UnmarshalJSON decodes and validates a sample → label object
func (g *GroupAssignment) UnmarshalJSON(data []byte) error {
	var raw map[core.SampleID]core.GroupLabel
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := NewGroupAssignment(raw)
	if err != nil {
		return err
	}
	*g = *built
	return nil
}
