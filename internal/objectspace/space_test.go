package objectspace

import (
	"math"
	"testing"

	"github.com/hupe1980/ngtgo/distance"
	"github.com/hupe1980/ngtgo/internal/resource"
	"github.com/hupe1980/ngtgo/model"
	"github.com/hupe1980/ngtgo/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpace(t *testing.T, dim int, typ model.ObjectType, m distance.Metric) *Space {
	t.Helper()
	s, err := New(Config{Dimension: dim, ObjectType: typ, Metric: m})
	require.NoError(t, err)
	return s
}

func TestInsertGet(t *testing.T) {
	s := newSpace(t, 3, model.ObjectTypeFloat, distance.MetricL2)

	id1, err := s.Insert([]float32{1, 2, 3})
	require.NoError(t, err)
	id2, err := s.Insert([]float32{4, 5, 6})
	require.NoError(t, err)
	assert.Equal(t, model.ObjectID(1), id1)
	assert.Equal(t, model.ObjectID(2), id2)

	v, err := s.Get(id1)
	require.NoError(t, err)
	assert.Equal(t, []float32{1, 2, 3}, v.Float32)
	assert.InDelta(t, math.Sqrt(27), s.Distance(id1, id2), 1e-5)
	assert.Equal(t, 2, s.Len())
}

func TestDimensionMismatch(t *testing.T) {
	s := newSpace(t, 3, model.ObjectTypeFloat, distance.MetricL2)

	_, err := s.Insert([]float32{1, 2})
	var dm *DimensionError
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, 3, dm.Expected)
	assert.Equal(t, 2, dm.Actual)

	_, err = s.Allocate([]float32{1, 2, 3, 4})
	require.ErrorAs(t, err, &dm)
	assert.Equal(t, int64(0), s.Outstanding(), "failed allocations are released")
}

func TestNonFiniteRejected(t *testing.T) {
	nan := float32(math.NaN())
	inf := float32(math.Inf(1))

	for _, typ := range []model.ObjectType{model.ObjectTypeFloat, model.ObjectTypeFloat16} {
		s := newSpace(t, 2, typ, distance.MetricL2)

		_, err := s.Insert([]float32{nan, 0})
		require.ErrorIs(t, err, ErrNonFinite)
		_, err = s.Insert([]float32{0, inf})
		require.ErrorIs(t, err, ErrNonFinite)
		_, err = s.Allocate([]float32{nan, nan})
		require.ErrorIs(t, err, ErrNonFinite)

		assert.Equal(t, 0, s.Len())
		assert.Equal(t, int64(0), s.Outstanding())
	}

	s := newSpace(t, 1, model.ObjectTypeFloat16, distance.MetricL2)
	_, err := s.Insert([]float32{1e6})
	require.ErrorIs(t, err, ErrNonFinite, "values past the float16 range overflow to infinity")
}

func TestQuantize(t *testing.T) {
	tests := []struct {
		in   float32
		want uint8
	}{
		{0, 0}, {0.4, 0}, {0.5, 1}, {1.5, 2}, {2.5, 3}, {254.6, 255},
		{300, 255}, {-3, 0}, {float32(math.NaN()), 0}, {float32(math.Inf(1)), 255},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Quantize(tt.in), "Quantize(%v)", tt.in)
	}

	s := newSpace(t, 3, model.ObjectTypeUint8, distance.MetricL1)
	id, err := s.Insert([]float32{1.6, -2, 999})
	require.NoError(t, err)
	v, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, model.ObjectTypeUint8, v.Type)
	assert.Equal(t, []uint8{2, 0, 255}, v.Uint8)
}

func TestFloat16(t *testing.T) {
	s := newSpace(t, 2, model.ObjectTypeFloat16, distance.MetricL2)
	id, err := s.Insert([]float32{0.5, 3})
	require.NoError(t, err)

	v, err := s.Get(id)
	require.NoError(t, err)
	assert.Equal(t, []float32{0.5, 3}, v.Float32)

	q, err := s.Allocate([]float32{0.5, 3})
	require.NoError(t, err)
	defer s.Release(q)
	assert.Equal(t, float32(0), s.DistanceTo(q, id))
}

func TestNormalizedMetric(t *testing.T) {
	s := newSpace(t, 2, model.ObjectTypeFloat, distance.MetricNormalizedCosine)

	id, err := s.Insert([]float32{3, 4})
	require.NoError(t, err)
	v, err := s.Get(id)
	require.NoError(t, err)
	assert.InDelta(t, 0.6, v.Float32[0], 1e-6)
	assert.InDelta(t, 0.8, v.Float32[1], 1e-6)

	_, err = s.Insert([]float32{0, 0})
	assert.ErrorIs(t, err, ErrZeroVector)

	q, err := s.Allocate([]float32{6, 8})
	require.NoError(t, err)
	defer s.Release(q)
	assert.InDelta(t, 0, s.DistanceTo(q, id), 1e-6)
}

func TestUnsupportedMetric(t *testing.T) {
	_, err := New(Config{Dimension: 4, ObjectType: model.ObjectTypeFloat, Metric: distance.MetricHamming})
	assert.ErrorIs(t, err, distance.ErrUnsupportedMetricForType)

	_, err = New(Config{Dimension: 0, ObjectType: model.ObjectTypeFloat, Metric: distance.MetricL2})
	assert.Error(t, err)
}

func TestRemovePurgeReuse(t *testing.T) {
	s := newSpace(t, 1, model.ObjectTypeFloat, distance.MetricL2)
	for i := range 4 {
		_, err := s.Insert([]float32{float32(i)})
		require.NoError(t, err)
	}

	require.NoError(t, s.Remove(3))
	require.NoError(t, s.Remove(2))
	assert.ErrorIs(t, s.Remove(2), ErrNotFound)
	assert.ErrorIs(t, s.Remove(99), ErrNotFound)

	_, err := s.Get(2)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, s.Has(2), "removed data stays until purge")
	assert.InDelta(t, 1, s.Distance(2, 3), 1e-6)

	// Removal alone never frees IDs.
	id, err := s.Insert([]float32{10})
	require.NoError(t, err)
	assert.Equal(t, model.ObjectID(5), id)

	require.NoError(t, s.Purge(3))
	require.NoError(t, s.Purge(2))
	assert.ErrorIs(t, s.Purge(1), ErrNotFound)
	assert.False(t, s.Has(2))
	assert.Equal(t, []model.ObjectID{2, 3}, s.FreeIDs())

	id, err = s.Insert([]float32{20})
	require.NoError(t, err)
	assert.Equal(t, model.ObjectID(2), id, "smallest free ID first")
	id, err = s.Insert([]float32{30})
	require.NoError(t, err)
	assert.Equal(t, model.ObjectID(3), id)
	id, err = s.Insert([]float32{40})
	require.NoError(t, err)
	assert.Equal(t, model.ObjectID(6), id)
}

func TestMemoryLimit(t *testing.T) {
	rc := resource.NewController(resource.Config{MemoryLimitBytes: 2 * 4 * 4})
	s, err := New(Config{Dimension: 4, ObjectType: model.ObjectTypeFloat, Metric: distance.MetricL2, Resources: rc})
	require.NoError(t, err)

	_, err = s.Insert([]float32{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = s.Insert([]float32{1, 2, 3, 4})
	require.NoError(t, err)
	_, err = s.Insert([]float32{1, 2, 3, 4})
	assert.ErrorIs(t, err, ErrAllocation)
	assert.ErrorIs(t, err, resource.ErrMemoryLimitExceeded)
	assert.Equal(t, 2, s.Len())

	s.Close()
	assert.Equal(t, int64(0), rc.MemoryUsage())
}

func TestQueryObjectsAreReleased(t *testing.T) {
	s := newSpace(t, 2, model.ObjectTypeFloat, distance.MetricL2)
	q1, err := s.Allocate([]float32{1, 1})
	require.NoError(t, err)
	q2, err := s.Allocate([]float32{2, 2})
	require.NoError(t, err)
	assert.Equal(t, int64(2), s.Outstanding())

	s.Release(q1)
	s.Release(q2)
	assert.Equal(t, int64(0), s.Outstanding())
}

func TestCodecRoundTrip(t *testing.T) {
	for _, typ := range []model.ObjectType{model.ObjectTypeFloat, model.ObjectTypeUint8, model.ObjectTypeFloat16} {
		t.Run(typ.String(), func(t *testing.T) {
			s := newSpace(t, 2, typ, distance.MetricL1)
			for i := range 10 {
				_, err := s.Insert([]float32{float32(i), float32(2 * i)})
				require.NoError(t, err)
			}
			require.NoError(t, s.Remove(4))
			require.NoError(t, s.Remove(5))
			require.NoError(t, s.Purge(5))

			data, err := s.MarshalBinary()
			require.NoError(t, err)

			got, err := Decode(s.Config(), data)
			require.NoError(t, err)
			assert.Equal(t, s.LiveIDs(), got.LiveIDs())
			assert.Equal(t, s.RemovedIDs(), got.RemovedIDs())
			assert.Equal(t, s.FreeIDs(), got.FreeIDs())
			assert.Equal(t, s.Capacity(), got.Capacity())
			assert.Equal(t, s.Distance(4, 7), got.Distance(4, 7))

			v1, _ := s.Get(9)
			v2, err := got.Get(9)
			require.NoError(t, err)
			assert.Equal(t, v1, v2)

			again, err := got.MarshalBinary()
			require.NoError(t, err)
			assert.Equal(t, data, again)
		})
	}
}

func TestDecodeRejectsMismatch(t *testing.T) {
	s := newSpace(t, 2, model.ObjectTypeFloat, distance.MetricL2)
	_, err := s.Insert([]float32{1, 2})
	require.NoError(t, err)
	data, err := s.MarshalBinary()
	require.NoError(t, err)

	_, err = Decode(Config{Dimension: 3, ObjectType: model.ObjectTypeFloat, Metric: distance.MetricL2}, data)
	assert.ErrorIs(t, err, persistence.ErrCorrupt)

	_, err = Decode(s.Config(), data[:len(data)-1])
	assert.ErrorIs(t, err, persistence.ErrCorrupt)
}
