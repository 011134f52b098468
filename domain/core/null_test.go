package core

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFloatCoercesNaNToMissing(t *testing.T) {
	assert.True(t, Float(math.NaN()).IsMissing())
	assert.True(t, Float(math.Inf(1)).IsMissing())
	assert.False(t, Float(0).IsMissing(), "zero is a value, not missing")
	assert.True(t, Missing().IsMissing())
	assert.True(t, NullFloat64{}.IsMissing())
}

func TestNullFloat64Format(t *testing.T) {
	assert.Equal(t, "NA", Missing().String())
	assert.Equal(t, "2.5", Float(2.5).String())
	assert.Equal(t, "", Missing().Format(""))
	assert.True(t, math.IsNaN(Missing().OrNaN()))
}

func TestNullFloat64JSON(t *testing.T) {
	data, err := json.Marshal([]NullFloat64{Float(1.5), Missing()})
	require.NoError(t, err)
	assert.JSONEq(t, `[1.5, null]`, string(data))

	var decoded []NullFloat64
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []NullFloat64{Float(1.5), Missing()}, decoded)

	var bad NullFloat64
	assert.Error(t, json.Unmarshal([]byte(`"x"`), &bad))
}

func TestNullFloat64Scan(t *testing.T) {
	var n NullFloat64
	require.NoError(t, n.Scan(nil))
	assert.True(t, n.IsMissing())

	require.NoError(t, n.Scan(3.25))
	assert.Equal(t, Float(3.25), n)

	require.NoError(t, n.Scan([]byte("4")))
	assert.Equal(t, Float(4), n)

	assert.Error(t, n.Scan("text"))

	v, err := Missing().Value()
	require.NoError(t, err)
	assert.Nil(t, v)
}
