package excel

import (
	"context"
	"fmt"

	"gokw/domain/core"
	"gokw/domain/dataset"
)

// ReadGroups reads a two-column sample/group file with a header row
func (r *DataReader) ReadGroups(ctx context.Context) (*dataset.GroupAssignment, error) {
	records, err := r.ReadRecords(ctx)
	if err != nil {
		return nil, err
	}
	g, err := ParseGroups(records)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.filePath, err)
	}
	r.logger.Info("groups %s: %d samples in %d groups", r.filePath, g.Len(), len(g.Groups()))
	return g, nil
}

// ParseGroups skips the header and maps column 1 to column 2. A sample listed
// twice is an error.
func ParseGroups(records []Record) (*dataset.GroupAssignment, error) {
	if len(records) == 0 {
		return nil, core.NewValidationError("groups", "no header row")
	}
	labels := make(map[core.SampleID]core.GroupLabel, len(records)-1)
	for _, rec := range records[1:] {
		if rec.Width() != 2 {
			return nil, core.NewValidationError("groups", fmt.Sprintf("line %d must have 2 columns, found %d", rec.Line, rec.Width()))
		}
		s := core.SampleID(rec.Fields[0])
		if _, dup := labels[s]; dup {
			return nil, fmt.Errorf("%w: sample %s at line %d", core.ErrDuplicateID, s, rec.Line)
		}
		labels[s] = core.GroupLabel(rec.Fields[1])
	}
	return dataset.NewGroupAssignment(labels)
}
