package excel

import (
	"context"
	"fmt"
	"strings"

	"gokw/domain/core"
	"gokw/domain/testcov"
)

// ReadTestCov reads and validates a Test-Covariate file. When
// metadataColumns is non-empty every variable must be one of them.
func (r *DataReader) ReadTestCov(ctx context.Context, metadataColumns []string) (*testcov.Spec, error) {
	records, err := r.ReadRecords(ctx)
	if err != nil {
		return nil, err
	}
	spec, err := ParseTestCov(records, metadataColumns)
	if err != nil {
		return nil, fmt.Errorf("Test-Covariate file %s: %w", r.filePath, err)
	}
	r.logger.Info("Test-Covariate %s: %d rules", r.filePath, len(spec.Rules))
	return spec, nil
}

// ParseTestCov validates headerless `variable, role, values` rows. The values
// column may be empty or absent; a fourth column is an error.
func ParseTestCov(records []Record, metadataColumns []string) (*testcov.Spec, error) {
	known := make(map[string]bool, len(metadataColumns))
	for _, c := range metadataColumns {
		known[c] = true
	}

	spec := &testcov.Spec{Rules: make([]testcov.Rule, 0, len(records))}
	for _, rec := range records {
		if rec.Width() < 2 || rec.Width() > 3 {
			return nil, core.NewValidationError("testcov", fmt.Sprintf("line %d must have 3 columns, found %d: %s", rec.Line, rec.Width(), strings.Join(rec.Fields, " | ")))
		}
		rule := testcov.Rule{Variable: rec.Field(0), Raw: rec.Field(2), Line: rec.Line}
		if rule.Variable == "" {
			return nil, core.NewValidationError("testcov", fmt.Sprintf("line %d has an empty variable", rec.Line))
		}

		role, err := testcov.ParseRole(rec.Field(1))
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", rec.Line, err)
		}
		rule.Role = role

		switch role {
		case testcov.RoleNumFilter:
			if _, err := testcov.ParseNumFilter(rule.Raw); err != nil {
				return nil, fmt.Errorf("line %d: %w", rec.Line, err)
			}
		case testcov.RoleRestrict, testcov.RoleExclude:
			if len(rule.Values()) == 0 {
				return nil, core.NewValidationError("testcov", fmt.Sprintf("line %d: %s %s needs values", rec.Line, role, rule.Variable))
			}
		}

		if len(known) > 0 && !known[rule.Variable] {
			return nil, core.NewValidationError("testcov", fmt.Sprintf("line %d: variable %q is not a metadata column", rec.Line, rule.Variable))
		}
		spec.Rules = append(spec.Rules, rule)
	}
	return spec, nil
}
