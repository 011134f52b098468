// Package testkit provides fixtures shared by tests across packages
package testkit

import (
	"fmt"

	"gokw/domain/core"
	"gokw/domain/dataset"
)

// Matrix builds a feature matrix from float rows. NaN cells are missing.
// Features are named f1…, samples are taken from samples.
func Matrix(samples []string, data ...[]float64) (*dataset.FeatureMatrix, error) {
	features := make([]core.FeatureID, len(data))
	for i := range data {
		features[i] = core.FeatureID(fmt.Sprintf("f%d", i+1))
	}
	ids := make([]core.SampleID, len(samples))
	for j, s := range samples {
		ids[j] = core.SampleID(s)
	}
	return dataset.NewFeatureMatrixFromFloats(features, ids, data)
}

// Groups builds an assignment from alternating sample, label pairs
func Groups(pairs ...string) (*dataset.GroupAssignment, error) {
	if len(pairs)%2 != 0 {
		return nil, fmt.Errorf("testkit: odd number of sample/label arguments")
	}
	labels := make(map[core.SampleID]core.GroupLabel, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		labels[core.SampleID(pairs[i])] = core.GroupLabel(pairs[i+1])
	}
	return dataset.NewGroupAssignment(labels)
}

// Blocks names samples <label><n> for consecutive blocks of the given sizes
// and returns the sample names with their assignment
func Blocks(labels []string, sizes []int) ([]string, *dataset.GroupAssignment, error) {
	var samples, pairs []string
	for k, l := range labels {
		for n := range sizes[k] {
			s := fmt.Sprintf("%s%d", l, n+1)
			samples = append(samples, s)
			pairs = append(pairs, s, l)
		}
	}
	g, err := Groups(pairs...)
	return samples, g, err
}
