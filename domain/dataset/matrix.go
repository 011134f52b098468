package dataset

import (
	"encoding/json"
	"fmt"
	"slices"

	"gokw/domain/core"
)

// FeatureMatrix is the canonical input to the rank-test engines.
// Rows are features, columns are samples. Values are stored row-major.
// A FeatureMatrix is immutable once constructed.
type FeatureMatrix struct {
	features []core.FeatureID
	samples  []core.SampleID
	values   []core.NullFloat64

	featureIndex map[core.FeatureID]int
	sampleIndex  map[core.SampleID]int
}

// NewFeatureMatrix validates and builds a matrix. rows[i] holds the values of
// features[i] in samples order.
func NewFeatureMatrix(features []core.FeatureID, samples []core.SampleID, rows [][]core.NullFloat64) (*FeatureMatrix, error) {
	if len(rows) != len(features) {
		return nil, core.NewValidationError("matrix", fmt.Sprintf("%d feature IDs for %d rows", len(features), len(rows)))
	}

	m := &FeatureMatrix{
		features:     slices.Clone(features),
		samples:      slices.Clone(samples),
		values:       make([]core.NullFloat64, 0, len(features)*len(samples)),
		featureIndex: make(map[core.FeatureID]int, len(features)),
		sampleIndex:  make(map[core.SampleID]int, len(samples)),
	}

	for j, s := range samples {
		if s == "" {
			return nil, core.NewValidationError("samples", fmt.Sprintf("column %d has an empty sample ID", j+1))
		}
		if _, dup := m.sampleIndex[s]; dup {
			return nil, fmt.Errorf("%w: sample %s", core.ErrDuplicateID, s)
		}
		m.sampleIndex[s] = j
	}

	for i, f := range features {
		if f == "" {
			return nil, core.NewValidationError("features", fmt.Sprintf("row %d has an empty feature ID", i+1))
		}
		if _, dup := m.featureIndex[f]; dup {
			return nil, fmt.Errorf("%w: feature %s", core.ErrDuplicateID, f)
		}
		m.featureIndex[f] = i

		if len(rows[i]) != len(samples) {
			return nil, fmt.Errorf("%w: feature %s has %d values, expected %d", core.ErrRaggedMatrix, f, len(rows[i]), len(samples))
		}
		for _, v := range rows[i] {
			if v.Valid {
				v = core.Float(v.Float64)
			}
			m.values = append(m.values, v)
		}
	}

	return m, nil
}

// NewFeatureMatrixFromFloats builds a matrix where NaN marks a missing value
func NewFeatureMatrixFromFloats(features []core.FeatureID, samples []core.SampleID, data [][]float64) (*FeatureMatrix, error) {
	rows := make([][]core.NullFloat64, len(data))
	for i, row := range data {
		rows[i] = make([]core.NullFloat64, len(row))
		for j, v := range row {
			rows[i][j] = core.Float(v)
		}
	}
	return NewFeatureMatrix(features, samples, rows)
}

// NumFeatures returns the number of rows
func (m *FeatureMatrix) NumFeatures() int {
	return len(m.features)
}

// NumSamples returns the number of columns
func (m *FeatureMatrix) NumSamples() int {
	return len(m.samples)
}

// Features returns a copy of the row identifiers in order
func (m *FeatureMatrix) Features() []core.FeatureID {
	return slices.Clone(m.features)
}

// Samples returns a copy of the column identifiers in order
func (m *FeatureMatrix) Samples() []core.SampleID {
	return slices.Clone(m.samples)
}

// Feature returns the identifier of row i
func (m *FeatureMatrix) Feature(i int) core.FeatureID {
	return m.features[i]
}

// Sample returns the identifier of column j
func (m *FeatureMatrix) Sample(j int) core.SampleID {
	return m.samples[j]
}

// At returns the value of row i, column j
func (m *FeatureMatrix) At(i, j int) core.NullFloat64 {
	return m.values[i*len(m.samples)+j]
}

// Row returns the values of row i. The returned slice must not be modified.
func (m *FeatureMatrix) Row(i int) []core.NullFloat64 {
	n := len(m.samples)
	return m.values[i*n : (i+1)*n : (i+1)*n]
}

// FeatureIndex returns the row index of a feature
func (m *FeatureMatrix) FeatureIndex(id core.FeatureID) (int, bool) {
	i, ok := m.featureIndex[id]
	return i, ok
}

// SampleIndex returns the column index of a sample
func (m *FeatureMatrix) SampleIndex(id core.SampleID) (int, bool) {
	j, ok := m.sampleIndex[id]
	return j, ok
}

// NonMissing counts the present values in row i
func (m *FeatureMatrix) NonMissing(i int) int {
	count := 0
	for _, v := range m.Row(i) {
		if v.Valid {
			count++
		}
	}
	return count
}

// SelectSamples returns a matrix restricted to the columns whose sample ID
// satisfies keep, preserving column order.
func (m *FeatureMatrix) SelectSamples(keep func(core.SampleID) bool) *FeatureMatrix {
	cols := make([]int, 0, len(m.samples))
	for j, s := range m.samples {
		if keep(s) {
			cols = append(cols, j)
		}
	}

	out := &FeatureMatrix{
		features:     slices.Clone(m.features),
		samples:      make([]core.SampleID, len(cols)),
		values:       make([]core.NullFloat64, 0, len(m.features)*len(cols)),
		featureIndex: make(map[core.FeatureID]int, len(m.features)),
		sampleIndex:  make(map[core.SampleID]int, len(cols)),
	}
	for k, j := range cols {
		out.samples[k] = m.samples[j]
		out.sampleIndex[m.samples[j]] = k
	}
	for i, f := range m.features {
		out.featureIndex[f] = i
		row := m.Row(i)
		for _, j := range cols {
			out.values = append(out.values, row[j])
		}
	}
	return out
}

type matrixJSON struct {
	Features []core.FeatureID     `json:"features"`
	Samples  []core.SampleID      `json:"samples"`
	Values   [][]core.NullFloat64 `json:"values"`
}

// MarshalJSON encodes the matrix as features, samples and a row-major value grid
func (m *FeatureMatrix) MarshalJSON() ([]byte, error) {
	rows := make([][]core.NullFloat64, len(m.features))
	for i := range m.features {
		rows[i] = m.Row(i)
	}
	return json.Marshal(matrixJSON{Features: m.features, Samples: m.samples, Values: rows})
}

// UnmarshalJSON decodes and validates the matrix
func (m *FeatureMatrix) UnmarshalJSON(data []byte) error {
	var raw matrixJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	built, err := NewFeatureMatrix(raw.Features, raw.Samples, raw.Values)
	if err != nil {
		return err
	}
	*m = *built
	return nil
}
