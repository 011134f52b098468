package container

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gokw/adapters/memory"
	"gokw/internal/config"
	"gokw/internal/testkit"
)

func testConfig() *config.Config {
	return &config.Config{
		Server:   config.ServerConfig{Port: "8080", UIPort: "8081", GinMode: "test"},
		Analysis: config.AnalysisConfig{MinGroupSize: 3, Workers: 2, Delimiter: "tab"},
		Log:      config.LogConfig{Level: "ERROR"},
	}
}

func TestNewRequiresConfig(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}

func TestNewWiresInMemoryPipeline(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)

	assert.IsType(t, &memory.RunRepository{}, c.Runs)
	assert.NotNil(t, c.Pipeline)
	assert.Equal(t, 3, c.ComputeOptions().MinGroupSize)
	assert.Equal(t, 2, c.ComputeOptions().Workers)
	assert.NoError(t, c.Shutdown(context.Background()))
}

func TestInitWithDatabaseRejectsNil(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)
	assert.Error(t, c.InitWithDatabase(context.Background(), nil))
}

func TestPipelineRunsEndToEnd(t *testing.T) {
	c, err := New(testConfig())
	require.NoError(t, err)

	samples, groups, err := testkit.Blocks([]string{"A", "B", "C"}, []int{3, 3, 3})
	require.NoError(t, err)
	m, err := testkit.Matrix(samples, []float64{1, 2, 3, 4, 5, 6, 7, 8, 9})
	require.NoError(t, err)

	disposition, err := c.Checker.Check(m, groups, 3)
	require.NoError(t, err)

	table, err := c.Engine.Compute(context.Background(), disposition, m, groups, c.ComputeOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, table.TestedCount())
}
