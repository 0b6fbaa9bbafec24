package model

import (
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectTypeText(t *testing.T) {
	for _, typ := range []ObjectType{ObjectTypeFloat, ObjectTypeUint8, ObjectTypeFloat16} {
		text, err := typ.MarshalText()
		require.NoError(t, err)

		var got ObjectType
		require.NoError(t, got.UnmarshalText(text))
		assert.Equal(t, typ, got)
	}

	_, err := ParseObjectType("complex")
	assert.Error(t, err)
}

func TestCompareEdges(t *testing.T) {
	edges := []Edge{{ID: 3, Distance: 1}, {ID: 1, Distance: 2}, {ID: 2, Distance: 1}}
	slices.SortFunc(edges, CompareEdges)
	assert.Equal(t, []Edge{{ID: 2, Distance: 1}, {ID: 3, Distance: 1}, {ID: 1, Distance: 2}}, edges)
}

func TestVectorConversions(t *testing.T) {
	v := Vector{Type: ObjectTypeUint8, Uint8: []uint8{1, 255}}
	assert.Equal(t, 2, v.Dim())
	assert.Equal(t, []float32{1, 255}, v.AsFloat32())
	assert.Equal(t, []float64{1, 255}, v.AsFloat64())

	f := Vector{Type: ObjectTypeFloat, Float32: []float32{0.5}}
	out := f.AsFloat32()
	out[0] = 9
	assert.Equal(t, float32(0.5), f.Float32[0])
}
