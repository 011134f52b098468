package testkit

import (
	"fmt"
	"math"
	"math/rand"
	"slices"

	"gokw/domain/core"
	"gokw/domain/dataset"
)

// OmicsGeneratorConfig configures the synthetic feature × sample generator
type OmicsGeneratorConfig struct {
	FeatureCount int                     `json:"feature_count"`
	GroupSizes   map[core.GroupLabel]int `json:"group_sizes"`
	// ShiftedFeatures get a per-group location shift of Shift × group index
	ShiftedFeatures int     `json:"shifted_features"`
	Shift           float64 `json:"shift"`
	MissingRate     float64 `json:"missing_rate"`
	Seed            int64   `json:"seed"`
}

// DefaultOmicsConfig returns three groups of eight samples over 50 features
func DefaultOmicsConfig() OmicsGeneratorConfig {
	return OmicsGeneratorConfig{
		FeatureCount:    50,
		GroupSizes:      map[core.GroupLabel]int{"A": 8, "B": 8, "C": 8},
		ShiftedFeatures: 5,
		Shift:           3,
		MissingRate:     0.05,
		Seed:            42,
	}
}

// OmicsDataGenerator produces log-normal-ish abundance matrices with known
// group assignments
type OmicsDataGenerator struct {
	config OmicsGeneratorConfig
	rng    *rand.Rand
}

// NewOmicsDataGenerator creates a deterministic generator
func NewOmicsDataGenerator(config OmicsGeneratorConfig) *OmicsDataGenerator {
	return &OmicsDataGenerator{
		config: config,
		rng:    rand.New(rand.NewSource(config.Seed)),
	}
}

// Generate builds the matrix and its assignment. Samples are named
// `<group>_<n>` and laid out group by group in label order; features are
// `feat_0001`…; the first ShiftedFeatures features carry the group shift.
func (g *OmicsDataGenerator) Generate() (*dataset.FeatureMatrix, *dataset.GroupAssignment, error) {
	labels := make([]core.GroupLabel, 0, len(g.config.GroupSizes))
	for l := range g.config.GroupSizes {
		labels = append(labels, l)
	}
	slices.Sort(labels)

	var samples []core.SampleID
	var groupIndex []int
	assignment := make(map[core.SampleID]core.GroupLabel)
	for k, l := range labels {
		for n := range g.config.GroupSizes[l] {
			s := core.SampleID(fmt.Sprintf("%s_%d", l, n+1))
			samples = append(samples, s)
			groupIndex = append(groupIndex, k)
			assignment[s] = l
		}
	}

	features := make([]core.FeatureID, g.config.FeatureCount)
	rows := make([][]core.NullFloat64, g.config.FeatureCount)
	for i := range features {
		features[i] = core.FeatureID(fmt.Sprintf("feat_%04d", i+1))
		base := 5 + g.rng.Float64()*5
		row := make([]core.NullFloat64, len(samples))
		for j := range samples {
			if g.rng.Float64() < g.config.MissingRate {
				continue
			}
			v := base + g.rng.NormFloat64()
			if i < g.config.ShiftedFeatures {
				v += g.config.Shift * float64(groupIndex[j])
			}
			row[j] = core.Float(math.Round(v*1000) / 1000)
		}
		rows[i] = row
	}

	m, err := dataset.NewFeatureMatrix(features, samples, rows)
	if err != nil {
		return nil, nil, err
	}
	ga, err := dataset.NewGroupAssignment(assignment)
	if err != nil {
		return nil, nil, err
	}
	return m, ga, nil
}
