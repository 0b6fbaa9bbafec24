package engine

import (
	"context"
	"testing"

	"github.com/hupe1980/ngtgo/distance"
	"github.com/hupe1980/ngtgo/internal/graph"
	"github.com/hupe1980/ngtgo/internal/objectspace"
	"github.com/hupe1980/ngtgo/model"
	"github.com/hupe1980/ngtgo/persistence"
	"github.com/hupe1980/ngtgo/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(dim int) Config {
	return Config{
		Space: objectspace.Config{Dimension: dim, ObjectType: model.ObjectTypeFloat, Metric: distance.MetricL2},
		Graph: graph.Config{EdgeSizeForCreation: 10, EdgeSizeLimit: 20, ReciprocalEdges: true},

		BuildEpsilon: 0.1,
		SeedSize:     10,
		TreeLeafSize: 32,
	}
}

func newEngine(t *testing.T, dim int) *Engine {
	t.Helper()
	e, err := New(testConfig(dim))
	require.NoError(t, err)
	t.Cleanup(e.Close)
	return e
}

func params(size int, epsilon float32) graph.SearchParams {
	return graph.SearchParams{Size: size, Epsilon: epsilon, Radius: -1}
}

func toResults(edges []model.Edge) []testutil.SearchResult {
	out := make([]testutil.SearchResult, len(edges))
	for i, e := range edges {
		out[i] = testutil.SearchResult{ID: e.ID, Distance: e.Distance}
	}
	return out
}

func meanRecall(t *testing.T, e *Engine, data [][]float32, queries [][]float32, k int) float64 {
	t.Helper()
	var sum float64
	for _, q := range queries {
		got, err := e.Search(q, params(k, 0.2))
		require.NoError(t, err)
		sum += testutil.ComputeRecall(testutil.ExactTopK(q, data, k, testutil.L2), toResults(got))
	}
	return sum / float64(len(queries))
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig(4)
	cfg.Graph.EdgeSizeLimit = 5
	_, err := New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testConfig(4)
	cfg.SeedSize = 0
	_, err = New(cfg)
	assert.ErrorIs(t, err, ErrInvalidConfig)

	cfg = testConfig(4)
	cfg.Space.Metric = distance.MetricHamming
	_, err = New(cfg)
	assert.ErrorIs(t, err, distance.ErrUnsupportedMetricForType)
}

func TestInsertSelfMatch(t *testing.T) {
	e := newEngine(t, 8)
	data := testutil.NewRNG(1).UniformVectors(300, 8)
	for i, v := range data {
		id, err := e.Insert(v)
		require.NoError(t, err)
		require.Equal(t, model.ObjectID(i+1), id)
	}
	assert.Equal(t, 300, e.Len())

	for i, v := range data {
		got, err := e.Search(v, params(1, 0))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, model.ObjectID(i+1), got[0].ID)
		assert.Zero(t, got[0].Distance)
	}
}

func TestSearchOrderingAndRadius(t *testing.T) {
	e := newEngine(t, 4)
	data := testutil.NewRNG(2).UniformVectors(200, 4)
	for _, v := range data {
		_, err := e.Insert(v)
		require.NoError(t, err)
	}

	q := data[0]
	got, err := e.Search(q, params(20, 0.1))
	require.NoError(t, err)
	require.Len(t, got, 20)
	for i := 1; i < len(got); i++ {
		assert.True(t, model.CompareEdges(got[i-1], got[i]) < 0)
	}

	radius := got[5].Distance
	bounded, err := e.Search(q, graph.SearchParams{Size: 20, Epsilon: 0.1, Radius: radius})
	require.NoError(t, err)
	assert.NotEmpty(t, bounded)
	for _, r := range bounded {
		assert.LessOrEqual(t, r.Distance, radius)
	}

	_, err = e.Search([]float32{1, 2}, params(1, 0))
	var dimErr *objectspace.DimensionError
	assert.ErrorAs(t, err, &dimErr)
}

func TestAppendAndBuild(t *testing.T) {
	e := newEngine(t, 4)
	rng := testutil.NewRNG(3)
	data := rng.UniformVectors(400, 4)
	for _, v := range data {
		_, err := e.Append(v)
		require.NoError(t, err)
	}
	assert.Equal(t, 400, e.PendingLen())

	got, err := e.Search(data[0], params(5, 0.1))
	require.NoError(t, err)
	assert.Empty(t, got)

	n, err := e.Build(context.Background(), 4)
	require.NoError(t, err)
	assert.Equal(t, 400, n)
	assert.Zero(t, e.PendingLen())

	for i, v := range data[:50] {
		got, err := e.Search(v, params(1, 0))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, model.ObjectID(i+1), got[0].ID)
	}

	assert.GreaterOrEqual(t, meanRecall(t, e, data, rng.UniformVectors(30, 4), 10), 0.8)
}

func TestBuildIsDeterministic(t *testing.T) {
	data := testutil.NewRNG(4).UniformVectors(150, 4)

	build := func() []graph.NodeEdges {
		e := newEngine(t, 4)
		_, errs := e.BatchAppend(data)
		for _, err := range errs {
			require.NoError(t, err)
		}
		_, err := e.Build(context.Background(), 3)
		require.NoError(t, err)
		return e.Extract()
	}

	assert.Equal(t, build(), build())
}

func TestBuildHonorsCancellation(t *testing.T) {
	e := newEngine(t, 4)
	_, errs := e.BatchAppend(testutil.NewRNG(5).UniformVectors(20, 4))
	for _, err := range errs {
		require.NoError(t, err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := e.Build(ctx, 2)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, n)
	assert.Equal(t, 20, e.PendingLen())
}

func TestBatchInsertIsolatesFailures(t *testing.T) {
	e := newEngine(t, 4)
	vecs := [][]float32{{1, 0, 0, 0}, {1, 2}, {0, 1, 0, 0}}

	ids, errs := e.BatchInsert(vecs)
	require.Len(t, ids, 3)
	assert.Equal(t, model.ObjectID(1), ids[0])
	assert.Equal(t, model.InvalidID, ids[1])
	assert.Equal(t, model.ObjectID(2), ids[2])

	assert.NoError(t, errs[0])
	var dimErr *objectspace.DimensionError
	assert.ErrorAs(t, errs[1], &dimErr)
	assert.NoError(t, errs[2])

	got, err := e.Search([]float32{0, 1, 0, 0}, params(1, 0))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, model.ObjectID(2), got[0].ID)
}

func TestRemove(t *testing.T) {
	e := newEngine(t, 4)
	data := testutil.NewRNG(6).UniformVectors(100, 4)
	for _, v := range data {
		_, err := e.Insert(v)
		require.NoError(t, err)
	}
	pendingID, err := e.Append([]float32{0.5, 0.5, 0.5, 0.5})
	require.NoError(t, err)

	require.NoError(t, e.Remove(7))
	assert.ErrorIs(t, e.Remove(7), objectspace.ErrNotFound)
	assert.ErrorIs(t, e.Remove(9999), objectspace.ErrNotFound)

	require.NoError(t, e.Remove(pendingID))
	assert.Zero(t, e.PendingLen())
	assert.Equal(t, 99, e.Len())

	got, err := e.Search(data[6], params(10, 0.1))
	require.NoError(t, err)
	for _, r := range got {
		assert.NotEqual(t, model.ObjectID(7), r.ID)
	}
	_, err = e.Object(7)
	assert.ErrorIs(t, err, objectspace.ErrNotFound)
}

func TestRebuildRecyclesIDs(t *testing.T) {
	e := newEngine(t, 4)
	data := testutil.NewRNG(7).UniformVectors(80, 4)
	for _, v := range data {
		_, err := e.Insert(v)
		require.NoError(t, err)
	}
	for id := model.ObjectID(1); id <= 10; id++ {
		require.NoError(t, e.Remove(id))
	}

	n, err := e.Rebuild()
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 70, e.Len())

	for _, node := range e.Extract() {
		assert.Greater(t, node.ID, model.ObjectID(10))
		for _, edge := range node.Edges {
			assert.Greater(t, edge.ID, model.ObjectID(10))
		}
	}

	for i, v := range data[10:] {
		got, err := e.Search(v, params(1, 0))
		require.NoError(t, err)
		require.Len(t, got, 1)
		assert.Equal(t, model.ObjectID(i+11), got[0].ID)
	}

	id, err := e.Insert([]float32{0.1, 0.2, 0.3, 0.4})
	require.NoError(t, err)
	assert.Equal(t, model.ObjectID(1), id)
}

func TestLinearSearch(t *testing.T) {
	e := newEngine(t, 4)
	rng := testutil.NewRNG(8)
	data := rng.UniformVectors(60, 4)
	for _, v := range data {
		_, err := e.Insert(v)
		require.NoError(t, err)
	}

	q := rng.UniformVectors(1, 4)[0]
	got, err := e.LinearSearch(q, 5, -1)
	require.NoError(t, err)

	want := testutil.ExactTopK(q, data, 5, testutil.L2)
	require.Len(t, got, 5)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.InDelta(t, want[i].Distance, got[i].Distance, 1e-5)
	}
}

func TestReshape(t *testing.T) {
	e := newEngine(t, 4)
	for _, v := range testutil.NewRNG(9).UniformVectors(120, 4) {
		_, err := e.Insert(v)
		require.NoError(t, err)
	}

	require.NoError(t, e.Reshape(4, 2))
	for _, node := range e.Extract() {
		assert.GreaterOrEqual(t, len(node.Edges), 1)
		assert.LessOrEqual(t, len(node.Edges), 20)
		for i := 1; i < len(node.Edges); i++ {
			assert.True(t, model.CompareEdges(node.Edges[i-1], node.Edges[i]) < 0)
		}
	}

	assert.ErrorIs(t, e.Reshape(0, 2), ErrInvalidConfig)
}

func TestEncodeDecode(t *testing.T) {
	e := newEngine(t, 4)
	rng := testutil.NewRNG(10)
	data := rng.UniformVectors(150, 4)
	for _, v := range data[:100] {
		_, err := e.Insert(v)
		require.NoError(t, err)
	}
	for _, v := range data[100:] {
		_, err := e.Append(v)
		require.NoError(t, err)
	}
	require.NoError(t, e.Remove(3))

	sections, err := e.Encode()
	require.NoError(t, err)

	restored, err := Decode(testConfig(4), sections)
	require.NoError(t, err)
	defer restored.Close()

	assert.Equal(t, e.Len(), restored.Len())
	assert.Equal(t, e.PendingLen(), restored.PendingLen())
	assert.Equal(t, e.Extract(), restored.Extract())

	for _, q := range rng.UniformVectors(10, 4) {
		want, err := e.Search(q, params(10, 0.1))
		require.NoError(t, err)
		got, err := restored.Search(q, params(10, 0.1))
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
}

func TestDecodeRejectsInconsistentSections(t *testing.T) {
	e := newEngine(t, 4)
	for _, v := range testutil.NewRNG(11).UniformVectors(10, 4) {
		_, err := e.Insert(v)
		require.NoError(t, err)
	}
	full, err := e.Encode()
	require.NoError(t, err)

	empty, err := newEngine(t, 4).Encode()
	require.NoError(t, err)

	_, err = Decode(testConfig(4), Sections{Objects: empty.Objects, Graph: full.Graph, Tree: full.Tree})
	assert.ErrorIs(t, err, persistence.ErrCorrupt)

	_, err = Decode(testConfig(4), Sections{Objects: full.Objects, Graph: empty.Graph, Tree: empty.Tree})
	assert.ErrorIs(t, err, persistence.ErrCorrupt)

	_, err = Decode(testConfig(8), full)
	assert.ErrorIs(t, err, persistence.ErrCorrupt)
}
