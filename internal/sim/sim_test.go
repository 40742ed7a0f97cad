package sim

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseFrac(b []byte, c byte) float64 {
	if len(b) == 0 {
		return 0
	}
	return float64(bytes.Count(b, []byte{c})) / float64(len(b))
}

func TestMake_LengthAndComposition(t *testing.T) {
	N := 200000
	seq := Make(N, 123, HomoSapiens)
	require.Len(t, seq, N)
	assert.InDelta(t, 0.303, baseFrac(seq, 'A'), 0.01)
	assert.InDelta(t, 0.198, baseFrac(seq, 'C'), 0.01)
	assert.InDelta(t, 0.198, baseFrac(seq, 'G'), 0.01)
	assert.InDelta(t, 0.302, baseFrac(seq, 'T'), 0.01)
}

func TestMake_SeedDeterministic(t *testing.T) {
	a := Make(5000, 42, Uniform)
	b := Make(5000, 42, Uniform)
	assert.True(t, bytes.Equal(a, b), "same seed should reproduce sequence")
	c := Make(5000, 43, Uniform)
	assert.False(t, bytes.Equal(a, c), "different seed unexpectedly produced identical sequence")
}

func TestMake_DegenerateWeights(t *testing.T) {
	only := Make(1000, 7, Weights{0, 0, 1, 0})
	assert.Equal(t, strings.Repeat("G", 1000), string(only))

	neg := Make(1000, 7, Weights{-1, 1, 0, 0})
	assert.Equal(t, strings.Repeat("C", 1000), string(neg))

	zero := Make(1000, 7, Weights{})
	assert.Len(t, zero, 1000)
	assert.Empty(t, Make(0, 1, Uniform))
}

func TestWriteFASTA_Wraps(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteFASTA(&buf, "THREE", []byte("ACGTACGTAC"), 4))
	assert.Equal(t, ">THREE\nACGT\nACGT\nAC\n", buf.String())
}
