package core

import (
	"testing"
)

// TestNewIDUniqueness tests that NewID generates unique identifiers
func TestNewIDUniqueness(t *testing.T) {
	const numIDs = 10000

	ids := make(map[ID]bool, numIDs)
	for i := 0; i < numIDs; i++ {
		id := NewID()
		if id.IsEmpty() {
			t.Errorf("Generated empty ID at iteration %d", i)
		}
		if ids[id] {
			t.Errorf("Generated duplicate ID: %s", id)
		}
		ids[id] = true
	}

	if len(ids) != numIDs {
		t.Errorf("Expected %d unique IDs, got %d", numIDs, len(ids))
	}
}

// TestIDIsEmpty tests ID emptiness check
func TestIDIsEmpty(t *testing.T) {
	if !ID("").IsEmpty() {
		t.Error("Expected empty ID to be empty")
	}
	if ID("not-empty").IsEmpty() {
		t.Error("Expected non-empty ID to not be empty")
	}
}

// TestParseRunID tests run ID parsing
func TestParseRunID(t *testing.T) {
	valid := NewRunID().String()

	tests := []struct {
		input    string
		hasError bool
	}{
		{valid, false},
		{"", true},
		{"   ", true},
		{"not-a-uuid", true},
	}

	for _, test := range tests {
		result, err := ParseRunID(test.input)
		if test.hasError {
			if err == nil {
				t.Errorf("Expected error for input %q, got nil", test.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("Unexpected error for input %q: %v", test.input, err)
		}
		if result.String() != test.input {
			t.Errorf("Expected %q, got %q", test.input, result)
		}
	}
}

// TestParseLabels tests the simple non-empty parsers
func TestParseLabels(t *testing.T) {
	if _, err := ParseFeatureID(" "); err == nil {
		t.Error("Expected error for blank feature ID")
	}
	if _, err := ParseSampleID(""); err == nil {
		t.Error("Expected error for empty sample ID")
	}
	g, err := ParseGroupLabel("ctrl")
	if err != nil || g != GroupLabel("ctrl") {
		t.Errorf("Expected ctrl, got %q (%v)", g, err)
	}
}

func TestHashShort(t *testing.T) {
	h := NewHash([]byte("abc"))
	if len(h.Short()) != 12 {
		t.Errorf("Expected 12 characters, got %q", h.Short())
	}
	if !h.Equals(NewHash([]byte("abc"))) {
		t.Error("Expected identical input to hash identically")
	}
}
