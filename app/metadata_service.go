package app

import (
	"fmt"
	"slices"
	"strconv"

	"gokw/domain/core"
	"gokw/domain/dataset"
	"gokw/domain/metadata"
	"gokw/domain/testcov"
	"gokw/internal"
)

// MetadataService applies Test-Covariate rules to sample metadata
type MetadataService struct {
	logger *internal.Logger
}

// NewMetadataService creates the service. A nil logger uses the default.
func NewMetadataService(logger *internal.Logger) *MetadataService {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &MetadataService{logger: logger.WithComponent("Metadata")}
}

// SampleMatch reports how a metadata ID column lines up with a sample list
type SampleMatch struct {
	OneToOne      bool            `json:"one_to_one"`
	Duplicates    []core.SampleID `json:"duplicates,omitempty"`
	NotInMetadata []core.SampleID `json:"not_in_metadata,omitempty"`
	NotInSamples  []core.SampleID `json:"not_in_samples,omitempty"`
}

// CheckSamples compares the table's identifiers with samples. A mismatch is
// reported and logged, never returned as an error.
func (s *MetadataService) CheckSamples(t *metadata.Table, samples []core.SampleID) SampleMatch {
	ids := t.SampleIDs()
	seen := make(map[core.SampleID]bool, len(ids))
	var match SampleMatch
	for _, id := range ids {
		if seen[id] {
			match.Duplicates = append(match.Duplicates, id)
		}
		seen[id] = true
	}

	listed := make(map[core.SampleID]bool, len(samples))
	for _, id := range samples {
		listed[id] = true
		if !seen[id] {
			match.NotInMetadata = append(match.NotInMetadata, id)
		}
	}
	for id := range seen {
		if !listed[id] {
			match.NotInSamples = append(match.NotInSamples, id)
		}
	}
	slices.Sort(match.NotInSamples)

	match.OneToOne = len(match.Duplicates) == 0 && len(match.NotInMetadata) == 0 && len(match.NotInSamples) == 0
	if !match.OneToOne {
		s.logger.Warn("%s is not a 1-1 match to the sample list: %d duplicated, %d not in metadata, %d not in samples",
			t.IDColumn(), len(match.Duplicates), len(match.NotInMetadata), len(match.NotInSamples))
	}
	return match
}

// UseSpecIDColumn points the table's identifier column at the UID rule's
// variable, if it names one
func (s *MetadataService) UseSpecIDColumn(spec *testcov.Spec, t *metadata.Table) error {
	uid, ok := spec.UIDVariable()
	if !ok {
		return nil
	}
	if err := t.SetIDColumn(uid); err != nil {
		return fmt.Errorf("UID variable: %w", err)
	}
	return nil
}

// Apply filters the table. Restrict keeps rows whose value is listed,
// Exclude drops them, NumFilter keeps rows whose numeric value passes the
// cutoff; rows failing any rule are dropped together, then each Unique rule
// in order keeps the first row per value.
func (s *MetadataService) Apply(spec *testcov.Spec, t *metadata.Table) (*metadata.Table, error) {
	for _, rule := range spec.Rules {
		if !t.HasColumn(rule.Variable) {
			return nil, core.NewValidationError("testcov", fmt.Sprintf("line %d: variable %q is not a metadata column", rule.Line, rule.Variable))
		}
	}

	remove := make([]bool, t.Len())
	for _, rule := range spec.Rules {
		var drop func(v string) bool
		switch rule.Role {
		case testcov.RoleRestrict:
			values := rule.Values()
			drop = func(v string) bool { return !slices.Contains(values, v) }
		case testcov.RoleExclude:
			values := rule.Values()
			drop = func(v string) bool { return slices.Contains(values, v) }
		case testcov.RoleNumFilter:
			f, err := testcov.ParseNumFilter(rule.Raw)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", rule.Line, err)
			}
			drop = func(v string) bool {
				x, err := strconv.ParseFloat(v, 64)
				return err != nil || !f.Keep(x)
			}
		default:
			continue
		}

		dropped := 0
		for r := range remove {
			v, _ := t.Value(r, rule.Variable)
			if drop(v) {
				if !remove[r] {
					dropped++
				}
				remove[r] = true
			}
		}
		s.logger.Debug("%s %s: flagged %d rows", rule.Role, rule.Variable, dropped)
	}

	out := t.Filter(func(r int) bool { return !remove[r] })

	for _, rule := range spec.ByRole(testcov.RoleUnique) {
		seen := make(map[string]bool, out.Len())
		tbl := out
		out = tbl.Filter(func(r int) bool {
			v, _ := tbl.Value(r, rule.Variable)
			if seen[v] {
				return false
			}
			seen[v] = true
			return true
		})
	}

	s.logger.Info("filtered metadata from %d to %d samples", t.Len(), out.Len())
	return out, nil
}

// MakeTestGroups builds one comparison per Covariate rule. Two or more
// listed values name the groups in file order; an empty values column uses
// every distinct non-empty value, sorted. Groups with no samples are kept
// in the name but absent from the assignment.
func (s *MetadataService) MakeTestGroups(spec *testcov.Spec, t *metadata.Table) ([]testcov.Comparison, error) {
	var comparisons []testcov.Comparison
	for _, rule := range spec.ByRole(testcov.RoleCovariate) {
		column, err := t.Column(rule.Variable)
		if err != nil {
			return nil, fmt.Errorf("Covariate at line %d: %w", rule.Line, err)
		}

		values := rule.Values()
		if len(values) == 0 {
			for _, v := range column {
				if v != "" && !slices.Contains(values, v) {
					values = append(values, v)
				}
			}
			slices.Sort(values)
		}
		if len(values) < 2 {
			return nil, core.NewValidationError("testcov", fmt.Sprintf("line %d: Covariate %s must define at least 2 comma-separated groups, found %d", rule.Line, rule.Variable, len(values)))
		}

		groups := make([]core.GroupLabel, len(values))
		for i, v := range values {
			groups[i] = core.GroupLabel(v)
		}

		labels := make(map[core.SampleID]core.GroupLabel)
		for r, v := range column {
			if !slices.Contains(values, v) {
				continue
			}
			id := t.SampleID(r)
			if prev, dup := labels[id]; dup && prev != core.GroupLabel(v) {
				return nil, fmt.Errorf("%w: sample %s is in groups %s and %s of %s", core.ErrDuplicateID, id, prev, v, rule.Variable)
			}
			labels[id] = core.GroupLabel(v)
		}
		assignment, err := dataset.NewGroupAssignment(labels)
		if err != nil {
			return nil, err
		}

		c := testcov.Comparison{
			Name:       testcov.ComparisonName(rule.Variable, groups),
			Variable:   rule.Variable,
			Groups:     groups,
			Assignment: assignment,
			Subset:     true,
		}
		s.logger.Info("comparison %s: %d samples", c.Name, assignment.Len())
		comparisons = append(comparisons, c)
	}
	return comparisons, nil
}
