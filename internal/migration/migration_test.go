package migration

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStepsAreIdempotent(t *testing.T) {
	r := NewRunner()
	assert.Equal(t, "1.0.0", r.Version())

	steps := r.Steps()
	assert.NotEmpty(t, steps)
	for _, s := range steps {
		assert.Contains(t, s.SQL, "IF NOT EXISTS", s.Name)
	}
	assert.True(t, strings.Contains(steps[0].SQL, "comparison_runs"))
}
