package dataset

import (
	"encoding/json"
	"errors"
	"math"
	"testing"

	"gokw/domain/core"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleIDs(ids ...string) []core.SampleID {
	out := make([]core.SampleID, len(ids))
	for i, id := range ids {
		out[i] = core.SampleID(id)
	}
	return out
}

func featureIDs(ids ...string) []core.FeatureID {
	out := make([]core.FeatureID, len(ids))
	for i, id := range ids {
		out[i] = core.FeatureID(id)
	}
	return out
}

func TestNewFeatureMatrix(t *testing.T) {
	nan := math.NaN()
	m, err := NewFeatureMatrixFromFloats(
		featureIDs("f1", "f2"),
		sampleIDs("s1", "s2", "s3"),
		[][]float64{{1, nan, 3}, {4, 5, 6}},
	)
	require.NoError(t, err)

	assert.Equal(t, 2, m.NumFeatures())
	assert.Equal(t, 3, m.NumSamples())
	assert.True(t, m.At(0, 1).IsMissing())
	assert.Equal(t, core.Float(6), m.At(1, 2))
	assert.Equal(t, 2, m.NonMissing(0))
	assert.Equal(t, 3, m.NonMissing(1))

	j, ok := m.SampleIndex("s3")
	assert.True(t, ok)
	assert.Equal(t, 2, j)
	i, ok := m.FeatureIndex("f2")
	assert.True(t, ok)
	assert.Equal(t, 1, i)
}

func TestNewFeatureMatrixValidation(t *testing.T) {
	t.Run("duplicate sample", func(t *testing.T) {
		_, err := NewFeatureMatrixFromFloats(featureIDs("f1"), sampleIDs("s1", "s1"), [][]float64{{1, 2}})
		assert.True(t, errors.Is(err, core.ErrDuplicateID))
	})

	t.Run("duplicate feature", func(t *testing.T) {
		_, err := NewFeatureMatrixFromFloats(featureIDs("f1", "f1"), sampleIDs("s1"), [][]float64{{1}, {2}})
		assert.True(t, errors.Is(err, core.ErrDuplicateID))
	})

	t.Run("ragged row", func(t *testing.T) {
		_, err := NewFeatureMatrixFromFloats(featureIDs("f1"), sampleIDs("s1", "s2"), [][]float64{{1}})
		assert.True(t, errors.Is(err, core.ErrRaggedMatrix))
		assert.True(t, errors.Is(err, core.ErrInvalidInput))
	})

	t.Run("row count mismatch", func(t *testing.T) {
		_, err := NewFeatureMatrixFromFloats(featureIDs("f1", "f2"), sampleIDs("s1"), [][]float64{{1}})
		assert.True(t, core.IsValidationError(err))
	})
}

func TestSelectSamples(t *testing.T) {
	m, err := NewFeatureMatrixFromFloats(
		featureIDs("f1", "f2"),
		sampleIDs("a", "b", "c"),
		[][]float64{{1, 2, 3}, {4, 5, 6}},
	)
	require.NoError(t, err)

	sub := m.SelectSamples(func(s core.SampleID) bool { return s != "b" })
	assert.Equal(t, sampleIDs("a", "c"), sub.Samples())
	assert.Equal(t, []core.NullFloat64{core.Float(4), core.Float(6)}, sub.Row(1))

	// original untouched
	assert.Equal(t, 3, m.NumSamples())
}

func TestFeatureMatrixJSON(t *testing.T) {
	m, err := NewFeatureMatrixFromFloats(featureIDs("f1"), sampleIDs("a", "b"), [][]float64{{1, math.NaN()}})
	require.NoError(t, err)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.JSONEq(t, `{"features":["f1"],"samples":["a","b"],"values":[[1,null]]}`, string(data))

	var decoded FeatureMatrix
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, m.Samples(), decoded.Samples())
	assert.True(t, decoded.At(0, 1).IsMissing())

	err = json.Unmarshal([]byte(`{"features":["f1"],"samples":["a"],"values":[[1,2]]}`), &decoded)
	assert.Error(t, err)
}
