package dataset

import (
	"encoding/json"
	"errors"
	"testing"

	"gokw/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupAssignment(t *testing.T) {
	g, err := NewGroupAssignment(map[core.SampleID]core.GroupLabel{
		"s1": "b", "s2": "a", "s3": "b", "s4": "c",
	})
	require.NoError(t, err)

	assert.Equal(t, 4, g.Len())
	assert.Equal(t, []core.GroupLabel{"a", "b", "c"}, g.Groups())
	assert.Equal(t, map[core.GroupLabel]int{"a": 1, "b": 2, "c": 1}, g.Sizes())
	assert.Equal(t, sampleIDs("s1", "s2", "s3", "s4"), g.Samples())

	r := g.Restrict("b")
	assert.Equal(t, sampleIDs("s1", "s3"), r.Samples())

	sub := g.SubsetSamples(func(s core.SampleID) bool { return s != "s3" })
	assert.Equal(t, map[core.GroupLabel]int{"a": 1, "b": 1, "c": 1}, sub.Sizes())
}

func TestGroupAssignmentRejectsEmptyLabels(t *testing.T) {
	_, err := NewGroupAssignment(map[core.SampleID]core.GroupLabel{"s1": ""})
	assert.True(t, errors.Is(err, core.ErrInvalidInput))
}

func TestGroupAssignmentDiff(t *testing.T) {
	g, err := NewGroupAssignment(map[core.SampleID]core.GroupLabel{"s1": "a", "s2": "a", "s9": "b"})
	require.NoError(t, err)

	notInGroups, notInMatrix := g.Diff(sampleIDs("s2", "s1", "s3"))
	assert.Equal(t, sampleIDs("s3"), notInGroups)
	assert.Equal(t, sampleIDs("s9"), notInMatrix)
}

func TestPartition(t *testing.T) {
	m, err := NewFeatureMatrixFromFloats(featureIDs("f"), sampleIDs("x", "y", "z", "w"), [][]float64{{1, 2, 3, 4}})
	require.NoError(t, err)

	g, err := NewGroupAssignment(map[core.SampleID]core.GroupLabel{"x": "t", "y": "c", "z": "t", "w": "c"})
	require.NoError(t, err)

	p, err := g.Partition(m)
	require.NoError(t, err)
	assert.Equal(t, []core.GroupLabel{"c", "t"}, p.Labels)
	assert.Equal(t, [][]int{{1, 3}, {0, 2}}, p.Columns)
	assert.Equal(t, []int{2, 2}, p.Sizes())

	partial, err := NewGroupAssignment(map[core.SampleID]core.GroupLabel{"x": "t"})
	require.NoError(t, err)
	_, err = partial.Partition(m)
	assert.True(t, errors.Is(err, core.ErrInputMismatch))
}

func TestGroupAssignmentJSON(t *testing.T) {
	var g GroupAssignment
	require.NoError(t, json.Unmarshal([]byte(`{"s1":"a","s2":"b"}`), &g))
	assert.Equal(t, 2, g.Len())

	label, ok := g.Label("s2")
	assert.True(t, ok)
	assert.Equal(t, core.GroupLabel("b"), label)

	assert.Error(t, json.Unmarshal([]byte(`{"s1":""}`), &g))
}
