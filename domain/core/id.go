package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// Domain-specific ID types
type (
	RunID      ID
	FeatureID  ID
	SampleID   ID
	GroupLabel ID
)

// String conversions for domain IDs
func (id RunID) String() string      { return ID(id).String() }
func (id FeatureID) String() string  { return ID(id).String() }
func (id SampleID) String() string   { return ID(id).String() }
func (id GroupLabel) String() string { return ID(id).String() }

// NewRunID creates a time-ordered run identifier
func NewRunID() RunID {
	return RunID(NewID())
}

// ParseRunID parses a string into RunID. Run IDs must be UUIDs.
func ParseRunID(s string) (RunID, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("run ID cannot be empty")
	}
	if _, err := uuid.Parse(s); err != nil {
		return "", fmt.Errorf("run ID %q is not a UUID: %w", s, err)
	}
	return RunID(s), nil
}

// ParseFeatureID parses a string into FeatureID
func ParseFeatureID(s string) (FeatureID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("feature ID cannot be empty")
	}
	return FeatureID(s), nil
}

// ParseSampleID parses a string into SampleID
func ParseSampleID(s string) (SampleID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("sample ID cannot be empty")
	}
	return SampleID(s), nil
}

// ParseGroupLabel parses a string into GroupLabel
func ParseGroupLabel(s string) (GroupLabel, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("group label cannot be empty")
	}
	return GroupLabel(s), nil
}
