package excel

import (
	"context"
	"fmt"

	"gokw/domain/core"
	"gokw/domain/metadata"
	"gokw/ports"
)

var _ ports.MetadataReaderPort = (*DataReader)(nil)

// ReadMetadata reads a sample metadata table
func (r *DataReader) ReadMetadata(ctx context.Context) (*metadata.Table, error) {
	records, err := r.ReadRecords(ctx)
	if err != nil {
		return nil, err
	}
	t, err := ParseMetadata(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, err)
	}
	r.logger.Info("metadata %s: %d samples, %d variables", r.filePath, t.Len(), t.NumColumns())
	return t, nil
}

// ParseMetadata requires a header row, more than one data row and more than
// one column
func ParseMetadata(records []Record) (*metadata.Table, error) {
	if len(records) == 0 {
		return nil, core.NewValidationError("metadata", "no header row")
	}
	header := records[0]
	if header.Width() < 2 {
		return nil, core.NewValidationError("metadata", fmt.Sprintf("needs more than one column, found %d", header.Width()))
	}
	if len(records)-1 < 2 {
		return nil, core.NewValidationError("metadata", fmt.Sprintf("needs more than one sample row, found %d", len(records)-1))
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if rec.Width() > header.Width() {
			return nil, core.NewValidationError("metadata", fmt.Sprintf("line %d has %d fields, header has %d", rec.Line, rec.Width(), header.Width()))
		}
		rows = append(rows, rec.Fields)
	}
	return metadata.NewTable(header.Fields, rows)
}
