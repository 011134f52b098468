// Package testcov describes Test-Covariate rules: which metadata variables
// identify, filter, deduplicate and split samples into comparison groups.
package testcov

import (
	"fmt"
	"strconv"
	"strings"

	"gokw/domain/core"
	"gokw/domain/dataset"
)

// Role is the use of a metadata variable in a Test-Covariate rule
type Role string

const (
	RoleUID       Role = "UID"
	RoleRestrict  Role = "Restrict"
	RoleExclude   Role = "Exclude"
	RoleNumFilter Role = "NumFilter"
	RoleUnique    Role = "Unique"
	RoleCovariate Role = "Covariate"
)

// Roles lists the allowed roles in file order of precedence
var Roles = []Role{RoleUID, RoleRestrict, RoleExclude, RoleNumFilter, RoleUnique, RoleCovariate}

// ParseRole accepts one of the allowed role names, case-sensitively
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", core.NewValidationError("role", fmt.Sprintf("%q is not among %v", s, Roles))
}

// Rule is one row of a Test-Covariate file
type Rule struct {
	Variable string `json:"variable"`
	Role     Role   `json:"role"`
	Raw      string `json:"values"`
	Line     int    `json:"line,omitempty"`
}

// Values splits the values column on commas and trims each entry.
// An empty column yields nil.
func (r Rule) Values() []string {
	if strings.TrimSpace(r.Raw) == "" {
		return nil
	}
	parts := strings.Split(r.Raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.TrimSpace(p))
	}
	return out
}

// NumFilter keeps rows whose numeric value is strictly above or below a cutoff
type NumFilter struct {
	Greater bool
	Cutoff  float64
}

// ParseNumFilter reads `>c` or `<c`
func ParseNumFilter(s string) (NumFilter, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return NumFilter{}, core.NewValidationError("NumFilter", "empty cutoff")
	}
	var f NumFilter
	switch s[0] {
	case '>':
		f.Greater = true
	case '<':
	default:
		return NumFilter{}, core.NewValidationError("NumFilter", fmt.Sprintf("%q must start with > or <", s))
	}
	cutoff, err := strconv.ParseFloat(strings.TrimSpace(s[1:]), 64)
	if err != nil {
		return NumFilter{}, core.NewValidationError("NumFilter", fmt.Sprintf("cutoff in %q is not numeric", s))
	}
	f.Cutoff = cutoff
	return f, nil
}

// Keep reports whether v passes the filter
func (f NumFilter) Keep(v float64) bool {
	if f.Greater {
		return v > f.Cutoff
	}
	return v < f.Cutoff
}

func (f NumFilter) String() string {
	op := "<"
	if f.Greater {
		op = ">"
	}
	return op + strconv.FormatFloat(f.Cutoff, 'g', -1, 64)
}

// Spec is an ordered list of rules
type Spec struct {
	Rules []Rule `json:"rules"`
}

// ByRole returns the rules with role r, in file order
func (s *Spec) ByRole(r Role) []Rule {
	var out []Rule
	for _, rule := range s.Rules {
		if rule.Role == r {
			out = append(out, rule)
		}
	}
	return out
}

// UIDVariable returns the variable of the first UID rule
func (s *Spec) UIDVariable() (string, bool) {
	uid := s.ByRole(RoleUID)
	if len(uid) == 0 {
		return "", false
	}
	return uid[0].Variable, true
}

// Variables returns every distinct variable named, in first-use order
func (s *Spec) Variables() []string {
	seen := make(map[string]bool, len(s.Rules))
	var out []string
	for _, rule := range s.Rules {
		if !seen[rule.Variable] {
			seen[rule.Variable] = true
			out = append(out, rule.Variable)
		}
	}
	return out
}

// Comparison is one group split derived from a Covariate rule
type Comparison struct {
	Name       string                   `json:"name"`
	Variable   string                   `json:"variable"`
	Groups     []core.GroupLabel        `json:"groups"`
	Assignment *dataset.GroupAssignment `json:"assignment"`
	// Subset marks groups drawn from metadata; the matrix is narrowed to
	// their samples before checking instead of requiring an exact match
	Subset bool `json:"subset,omitempty"`
}

// ComparisonName builds `variable__g1_vs_g2[_vs_g3...]`
func ComparisonName(variable string, groups []core.GroupLabel) string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.String()
	}
	return variable + "__" + strings.Join(names, "_vs_")
}
