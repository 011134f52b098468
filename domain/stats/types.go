package stats

import (
	"encoding/json"
	"fmt"

	"gokw/domain/core"
)

// DefaultMinGroupSize is the rule-of-thumb minimum per-group sample count for
// the two-sample rank test underlying this family of methods.
const DefaultMinGroupSize = 6

// ============================================================================
// DISPOSITION
// ============================================================================

// Disposition is the Eligibility Checker's routing decision
type Disposition int

const (
	DispositionAbort Disposition = iota
	DispositionMultiGroup
	DispositionTwoGroup
)

var dispositionNames = map[Disposition]string{
	DispositionAbort:      "abort",
	DispositionMultiGroup: "run_multi_group_test",
	DispositionTwoGroup:   "run_two_group_test",
}

func (d Disposition) String() string {
	if name, ok := dispositionNames[d]; ok {
		return name
	}
	return fmt.Sprintf("disposition(%d)", int(d))
}

// MarshalText encodes the disposition by name
func (d Disposition) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText decodes a disposition name
func (d *Disposition) UnmarshalText(text []byte) error {
	for k, name := range dispositionNames {
		if name == string(text) {
			*d = k
			return nil
		}
	}
	return fmt.Errorf("%w: unknown disposition %q", core.ErrInvalidInput, string(text))
}

// ============================================================================
// METHOD
// ============================================================================

// Method identifies the rank test that filled a result table
type Method string

const (
	MethodKruskalWallis Method = "kruskal_wallis"
	MethodMannWhitneyU  Method = "mann_whitney_u"
	MethodNone          Method = "none"
)

// TestResult holds a computed statistic and its p-value
type TestResult struct {
	Statistic float64 `json:"statistic"`
	PValue    float64 `json:"p_value"`
}

// ============================================================================
// RESULT TABLE
// ============================================================================

// ResultRow is one feature's group summaries and, when tested, its test result.
// Statistic and p-value live in one optional record so they are always set
// or unset together.
type ResultRow struct {
	Feature core.FeatureID     `json:"feature"`
	Counts  []int              `json:"counts"`
	Medians []core.NullFloat64 `json:"medians"`
	Test    *TestResult        `json:"test,omitempty"`
}

// Tested reports whether the row carries a test result
func (r ResultRow) Tested() bool {
	return r.Test != nil
}

// Statistic returns the test statistic, or missing when untested
func (r ResultRow) Statistic() core.NullFloat64 {
	if r.Test == nil {
		return core.Missing()
	}
	return core.Float(r.Test.Statistic)
}

// PValue returns the p-value, or missing when untested
func (r ResultRow) PValue() core.NullFloat64 {
	if r.Test == nil {
		return core.Missing()
	}
	return core.Float(r.Test.PValue)
}

// MinCount is the smallest per-group non-missing count
func (r ResultRow) MinCount() int {
	if len(r.Counts) == 0 {
		return 0
	}
	m := r.Counts[0]
	for _, c := range r.Counts[1:] {
		m = min(m, c)
	}
	return m
}

// TotalCount sums the per-group non-missing counts
func (r ResultRow) TotalCount() int {
	total := 0
	for _, c := range r.Counts {
		total += c
	}
	return total
}

// ResultTable has exactly one row per input feature, in input order.
// Column k of Counts and Medians belongs to Groups[k]; Groups are sorted.
type ResultTable struct {
	Method       Method            `json:"method"`
	Groups       []core.GroupLabel `json:"groups"`
	GroupSizes   []int             `json:"group_sizes"`
	MinGroupSize int               `json:"min_group_size"`
	Rows         []ResultRow       `json:"rows"`

	index map[core.FeatureID]int
}

// NewResultTable preallocates a table with a fixed schema. Counts and medians
// of all rows share two backing arrays; medians start missing.
func NewResultTable(method Method, groups []core.GroupLabel, sizes []int, minGroupSize int, features []core.FeatureID) *ResultTable {
	k := len(groups)
	counts := make([]int, len(features)*k)
	medians := make([]core.NullFloat64, len(features)*k)

	t := &ResultTable{
		Method:       method,
		Groups:       append([]core.GroupLabel(nil), groups...),
		GroupSizes:   append([]int(nil), sizes...),
		MinGroupSize: minGroupSize,
		Rows:         make([]ResultRow, len(features)),
	}
	for i, f := range features {
		t.Rows[i] = ResultRow{
			Feature: f,
			Counts:  counts[i*k : (i+1)*k : (i+1)*k],
			Medians: medians[i*k : (i+1)*k : (i+1)*k],
		}
	}
	t.buildIndex()
	return t
}

func (t *ResultTable) buildIndex() {
	t.index = make(map[core.FeatureID]int, len(t.Rows))
	for i, r := range t.Rows {
		t.index[r.Feature] = i
	}
}

// Columns returns the flat column schema: Count_g and Median_g per group,
// then TestStatistic and PValue.
func (t *ResultTable) Columns() []string {
	cols := make([]string, 0, 2*len(t.Groups)+2)
	for _, g := range t.Groups {
		cols = append(cols, "Count_"+g.String(), "Median_"+g.String())
	}
	return append(cols, "TestStatistic", "PValue")
}

// Row looks up a feature's row
func (t *ResultTable) Row(feature core.FeatureID) (*ResultRow, bool) {
	i, ok := t.index[feature]
	if !ok {
		return nil, false
	}
	return &t.Rows[i], true
}

// Len returns the number of rows
func (t *ResultTable) Len() int {
	return len(t.Rows)
}

// TestedCount returns the number of rows carrying a test result
func (t *ResultTable) TestedCount() int {
	n := 0
	for _, r := range t.Rows {
		if r.Tested() {
			n++
		}
	}
	return n
}

// Validate checks the structural invariants of the table
func (t *ResultTable) Validate() error {
	k := len(t.Groups)
	if len(t.GroupSizes) != k {
		return core.NewValidationError("result_table", fmt.Sprintf("%d group sizes for %d groups", len(t.GroupSizes), k))
	}
	for _, r := range t.Rows {
		if len(r.Counts) != k || len(r.Medians) != k {
			return core.NewValidationError("result_table", fmt.Sprintf("feature %s has %d counts and %d medians for %d groups", r.Feature, len(r.Counts), len(r.Medians), k))
		}
		for g, c := range r.Counts {
			if c < 0 || c > t.GroupSizes[g] {
				return core.NewValidationError("result_table", fmt.Sprintf("feature %s count %d outside [0, %d] for group %s", r.Feature, c, t.GroupSizes[g], t.Groups[g]))
			}
			if (c == 0) != r.Medians[g].IsMissing() {
				return core.NewValidationError("result_table", fmt.Sprintf("feature %s median presence disagrees with count for group %s", r.Feature, t.Groups[g]))
			}
		}
	}
	return nil
}

// Fingerprint hashes the table content for reproducibility checks
func (t *ResultTable) Fingerprint() core.Hash {
	data, err := json.Marshal(t)
	if err != nil {
		return ""
	}
	return core.NewHash(data)
}

// UnmarshalJSON decodes a table and rebuilds its feature index
func (t *ResultTable) UnmarshalJSON(data []byte) error {
	type plain ResultTable
	var raw plain
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*t = ResultTable(raw)
	t.buildIndex()
	return nil
}

// ============================================================================
// RUN
// ============================================================================

// Run records one comparison's pass through the pipeline
type Run struct {
	ID           core.RunID     `json:"id"`
	Comparison   string         `json:"comparison"`
	Disposition  Disposition    `json:"disposition"`
	Reason       string         `json:"reason,omitempty"`
	Method       Method         `json:"method"`
	MinGroupSize int            `json:"min_group_size"`
	Result       *ResultTable   `json:"result,omitempty"`
	Fingerprint  core.Hash      `json:"fingerprint,omitempty"`
	RuntimeMs    int64          `json:"runtime_ms"`
	CreatedAt    core.Timestamp `json:"created_at"`
}

// RunSummary is the listing view of a run
type RunSummary struct {
	ID          core.RunID     `json:"id"`
	Comparison  string         `json:"comparison"`
	Disposition Disposition    `json:"disposition"`
	Method      Method         `json:"method"`
	Features    int            `json:"features"`
	Tested      int            `json:"tested"`
	CreatedAt   core.Timestamp `json:"created_at"`
}

// Summary derives the listing view of the run
func (r *Run) Summary() RunSummary {
	s := RunSummary{
		ID:          r.ID,
		Comparison:  r.Comparison,
		Disposition: r.Disposition,
		Method:      r.Method,
		CreatedAt:   r.CreatedAt,
	}
	if r.Result != nil {
		s.Features = r.Result.Len()
		s.Tested = r.Result.TestedCount()
	}
	return s
}
