package ngtgo

import (
	"math"
	"testing"

	"github.com/hupe1980/ngtgo/distance"
	"github.com/hupe1980/ngtgo/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestPropertyDefaults(t *testing.T) {
	p := NewProperty()
	assert.Zero(t, p.Dimension())
	assert.Equal(t, model.ObjectTypeFloat, p.ObjectType())
	assert.Equal(t, distance.MetricL2, p.DistanceType())
	assert.Equal(t, 10, p.EdgeSizeForCreation())
	assert.Equal(t, 40, p.EdgeSizeForSearch())
	assert.Equal(t, 20, p.EdgeSizeLimit())
	assert.InDelta(t, 0.1, p.BuildEpsilon(), 1e-7)
	assert.Equal(t, 10, p.SeedSize())
	assert.Equal(t, 32, p.TreeLeafSize())
	assert.True(t, p.ReciprocalEdges())

	require.NoError(t, p.SetEdgeSizeForCreation(16))
	assert.Equal(t, 32, p.EdgeSizeLimit())
}

func TestPropertySettersValidate(t *testing.T) {
	p := NewProperty()
	for name, err := range map[string]error{
		"dimension":         p.SetDimension(0),
		"object type":       p.SetObjectType(model.ObjectType(9)),
		"distance type":     p.SetDistanceType(distance.Metric(42)),
		"creation":          p.SetEdgeSizeForCreation(0),
		"creation overflow": p.SetEdgeSizeForCreation(math.MaxInt16 + 1),
		"search":            p.SetEdgeSizeForSearch(-1),
		"limit":             p.SetEdgeSizeLimit(-1),
		"epsilon":           p.SetBuildEpsilon(-0.5),
		"epsilon nan":       p.SetBuildEpsilon(float32(math.NaN())),
		"seed":              p.SetSeedSize(0),
		"leaf":              p.SetTreeLeafSize(1),
	} {
		assert.ErrorIs(t, err, ErrInvalidArgument, name)
	}
	assert.Equal(t, NewProperty(), p)
}

func TestPropertyValidate(t *testing.T) {
	p := NewProperty()
	assert.ErrorIs(t, p.Validate(), ErrInvalidArgument)

	require.NoError(t, p.SetDimension(8))
	require.NoError(t, p.Validate())

	require.NoError(t, p.SetDistanceType(distance.MetricJaccard))
	assert.ErrorIs(t, p.Validate(), ErrUnsupportedMetricForType)
	require.NoError(t, p.SetObjectType(model.ObjectTypeUint8))
	require.NoError(t, p.Validate())

	require.NoError(t, p.SetDistanceType(distance.MetricNormalizedCosine))
	assert.ErrorIs(t, p.Validate(), ErrUnsupportedMetricForType)

	q := NewProperty()
	require.NoError(t, q.SetDimension(8))
	require.NoError(t, q.SetEdgeSizeLimit(5))
	assert.ErrorIs(t, q.Validate(), ErrInvalidArgument)
}

func TestPropertyFileRoundTrip(t *testing.T) {
	p := NewProperty()
	require.NoError(t, p.SetDimension(96))
	require.NoError(t, p.SetObjectType(model.ObjectTypeFloat16))
	require.NoError(t, p.SetDistanceType(distance.MetricNormalizedAngle))
	require.NoError(t, p.SetEdgeSizeForSearch(0))
	require.NoError(t, p.SetEdgeSizeLimit(50))
	require.NoError(t, p.SetBuildEpsilon(0.25))
	p.SetReciprocalEdges(false)

	meta := newMetadata()
	raw, err := marshalProperty(p, meta)
	require.NoError(t, err)
	assert.Contains(t, string(raw), "distance_type: normalizedangle")
	assert.Contains(t, string(raw), "object_type: float16")

	got, gotMeta, err := unmarshalProperty(raw)
	require.NoError(t, err)
	assert.Equal(t, p, got)
	assert.Equal(t, meta.uuid, gotMeta.uuid)
	assert.True(t, meta.createdAt.Equal(gotMeta.createdAt))
}

func TestLoadPropertyYAML(t *testing.T) {
	p, err := LoadPropertyYAML([]byte("dimension: 3\ndistance_type: cosine\nedge_size_for_creation: 20\n"))
	require.NoError(t, err)
	assert.Equal(t, 3, p.Dimension())
	assert.Equal(t, distance.MetricCosine, p.DistanceType())
	assert.Equal(t, 20, p.EdgeSizeForCreation())
	assert.Equal(t, 40, p.EdgeSizeLimit())
	assert.Equal(t, 40, p.EdgeSizeForSearch())
	assert.True(t, p.ReciprocalEdges())

	_, err = LoadPropertyYAML([]byte("distance_type: l2\n"))
	assert.ErrorIs(t, err, ErrInvalidArgument)
	_, err = LoadPropertyYAML([]byte("dimension: 3\ndistance_type: hamming\n"))
	assert.ErrorIs(t, err, ErrUnsupportedMetricForType)

	out, err := yaml.Marshal(p)
	require.NoError(t, err)
	again, err := LoadPropertyYAML(out)
	require.NoError(t, err)
	assert.Equal(t, p, again)
}

func TestIndexPropertyIsCopied(t *testing.T) {
	p := newProperty(t, 4)
	idx, err := CreateGraphAndTreeInMemory(p)
	require.NoError(t, err)
	defer idx.Close()

	require.NoError(t, p.SetDimension(8))
	assert.Equal(t, 4, idx.Property().Dimension())

	got := idx.Property()
	require.NoError(t, got.SetEdgeSizeForSearch(3))
	assert.Equal(t, 40, idx.Property().EdgeSizeForSearch())

	require.NoError(t, idx.SetEdgeSizeForSearch(3))
	assert.Equal(t, 3, idx.Property().EdgeSizeForSearch())
}
