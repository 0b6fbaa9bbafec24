package testutil

import (
	"testing"

	"github.com/hupe1980/ngtgo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUniformVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformVectors(8, 32)

	assert.Equal(t, 8, len(v))
	assert.Equal(t, 32, len(v[0]))
	assert.LessOrEqual(t, v[0][0], float32(1.0))
	assert.GreaterOrEqual(t, v[1][0], float32(0.0))
}

func TestUniformRangeVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UniformRangeVectors(8, 32)

	assert.Equal(t, 8, len(v))
	for _, x := range v[3] {
		assert.GreaterOrEqual(t, x, float32(-1.0))
		assert.Less(t, x, float32(1.0))
	}
}

func TestUnitVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.UnitVectors(8, 32)

	assert.Equal(t, 8, len(v))
	for _, vec := range v {
		var sum float32
		for _, val := range vec {
			sum += val * val
		}
		assert.InDelta(t, float32(1.0), sum, 1e-5)
	}
}

func TestByteVectors(t *testing.T) {
	rng := NewRNG(4711)

	for _, vec := range rng.ByteVectors(10, 16) {
		for _, x := range vec {
			assert.Equal(t, float32(int(x)), x)
			assert.LessOrEqual(t, x, float32(255))
		}
	}
}

func TestClusteredVectors(t *testing.T) {
	rng := NewRNG(4711)

	v := rng.ClusteredVectors(100, 32, 5, 0.1)

	assert.Equal(t, 100, len(v))
	assert.Equal(t, 32, len(v[0]))
}

func TestReset(t *testing.T) {
	rng := NewRNG(4711)
	v1 := rng.UniformVectors(1, 10)

	rng.Reset()
	v2 := rng.UniformVectors(1, 10)

	assert.Equal(t, v1, v2)
}

func TestExactTopK(t *testing.T) {
	data := [][]float32{{0}, {3}, {1}, {1}}

	got := ExactTopK([]float32{0.9}, data, 3, L2)

	require.Len(t, got, 3)
	assert.Equal(t, model.ObjectID(3), got[0].ID)
	assert.Equal(t, model.ObjectID(4), got[1].ID)
	assert.Equal(t, model.ObjectID(1), got[2].ID)
	assert.Len(t, ExactTopK([]float32{0}, data, 10, L2), 4)
}

func TestComputeRecall(t *testing.T) {
	truth := []SearchResult{{ID: 1}, {ID: 2}, {ID: 3}, {ID: 4}}

	assert.Equal(t, 1.0, ComputeRecall(truth, truth))
	assert.Equal(t, 0.5, ComputeRecall(truth, []SearchResult{{ID: 2}, {ID: 9}, {ID: 4}, {ID: 8}}))
	assert.Equal(t, 1.0, ComputeRecall(nil, nil))
	assert.Equal(t, 0.0, ComputeRecall(truth, nil))
}
