package excel

import (
	"context"
	"fmt"
	"strconv"

	"gokw/domain/core"
	"gokw/domain/dataset"
	"gokw/ports"
)

var _ ports.MatrixReaderPort = (*DataReader)(nil)

// ReadMatrix reads a feature × sample matrix: sample IDs in the header after
// a corner cell, one feature per row with its ID in the first column
func (r *DataReader) ReadMatrix(ctx context.Context) (*dataset.FeatureMatrix, error) {
	records, err := r.ReadRecords(ctx)
	if err != nil {
		return nil, err
	}
	m, err := ParseMatrix(records, r.config)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, err)
	}
	r.logger.Info("matrix %s: %d features × %d samples", r.filePath, m.NumFeatures(), m.NumSamples())
	return m, nil
}

// ParseMatrix converts records to a feature matrix. Short rows are padded
// with missing values; cells matching a missing token are missing.
func ParseMatrix(records []Record, config ReaderConfig) (*dataset.FeatureMatrix, error) {
	if len(records) == 0 {
		return nil, core.NewValidationError("matrix", "no header row")
	}
	header := records[0]
	if header.Width() < 2 {
		return nil, core.NewValidationError("matrix", "header must name at least one sample")
	}
	samples := make([]core.SampleID, header.Width()-1)
	for j, s := range header.Fields[1:] {
		samples[j] = core.SampleID(s)
	}

	features := make([]core.FeatureID, 0, len(records)-1)
	rows := make([][]core.NullFloat64, 0, len(records)-1)
	for _, rec := range records[1:] {
		if rec.Width() > header.Width() {
			return nil, fmt.Errorf("%w: line %d has %d fields, header has %d", core.ErrRaggedMatrix, rec.Line, rec.Width(), header.Width())
		}
		feature := core.FeatureID(rec.Field(0))
		row := make([]core.NullFloat64, len(samples))
		for j := range samples {
			cell := rec.Field(j + 1)
			if config.isMissing(cell) {
				continue
			}
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, core.NewValidationError("matrix", fmt.Sprintf("line %d, feature %s, sample %s: %q is not numeric", rec.Line, feature, samples[j], cell))
			}
			row[j] = core.Float(v)
		}
		features = append(features, feature)
		rows = append(rows, row)
	}
	return dataset.NewFeatureMatrix(features, samples, rows)
}
