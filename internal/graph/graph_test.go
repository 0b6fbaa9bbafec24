package graph

import (
	"math"
	"math/rand"
	"slices"
	"testing"

	"github.com/hupe1980/ngtgo/internal/searcher"
	"github.com/hupe1980/ngtgo/model"
	"github.com/hupe1980/ngtgo/persistence"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// points is a 1-D object space indexed by ObjectID.
type points []float32

func (p points) Distance(a, b model.ObjectID) float32 {
	return float32(math.Abs(float64(p[a] - p[b])))
}

func (p points) query(q float32) DistanceFunc {
	return func(id model.ObjectID) float32 {
		return float32(math.Abs(float64(q - p[id])))
	}
}

var testConfig = Config{EdgeSizeForCreation: 4, EdgeSizeLimit: 8, ReciprocalEdges: true}

// build inserts every point the way the index does: search, then link.
func build(t *testing.T, p points, cfg Config) *Graph {
	t.Helper()
	g := New(cfg)
	for i := 1; i < len(p); i++ {
		id := model.ObjectID(i)
		var edges []model.Edge
		if i > 1 {
			s := searcher.Get()
			edges = g.Search(func(n model.ObjectID) float32 { return p.Distance(id, n) },
				[]model.ObjectID{1}, SearchParams{Size: cfg.EdgeSizeForCreation, Epsilon: 0.1, Radius: -1}, s)
			searcher.Put(s)
		}
		require.NoError(t, g.Link(id, edges))
	}
	return g
}

func randomPoints(n int, seed int64) points {
	r := rand.New(rand.NewSource(seed))
	p := make(points, n+1)
	for i := 1; i <= n; i++ {
		p[i] = r.Float32() * 1000
	}
	return p
}

func search(g *Graph, dist DistanceFunc, p SearchParams) []model.Edge {
	s := searcher.Get()
	defer searcher.Put(s)
	return g.Search(dist, []model.ObjectID{1}, p, s)
}

func TestLinkReciprocal(t *testing.T) {
	g := New(testConfig)

	require.NoError(t, g.Link(1, nil))
	require.NoError(t, g.Link(2, []model.Edge{{ID: 1, Distance: 1}}))
	require.NoError(t, g.Link(3, []model.Edge{{ID: 1, Distance: 2}, {ID: 2, Distance: 1}}))

	e1, err := g.Edges(1)
	require.NoError(t, err)
	assert.Equal(t, []model.Edge{{ID: 2, Distance: 1}, {ID: 3, Distance: 2}}, e1)

	e3, err := g.Edges(3)
	require.NoError(t, err)
	assert.Equal(t, []model.Edge{{ID: 2, Distance: 1}, {ID: 1, Distance: 2}}, e3, "edges are sorted")

	assert.ErrorIs(t, g.Link(3, nil), ErrNodeExists)
	assert.Equal(t, 3, g.Len())
}

func TestLinkTruncatesToLimit(t *testing.T) {
	cfg := Config{EdgeSizeForCreation: 1, EdgeSizeLimit: 2, ReciprocalEdges: true}
	g := New(cfg)
	require.NoError(t, g.Link(1, nil))

	// Every new node links to node 1 at a growing distance.
	for i := 2; i <= 5; i++ {
		require.NoError(t, g.Link(model.ObjectID(i), []model.Edge{{ID: 1, Distance: float32(6 - i)}, {ID: 99, Distance: 100}}))
	}

	e1, err := g.Edges(1)
	require.NoError(t, err)
	assert.Equal(t, []model.Edge{{ID: 5, Distance: 1}, {ID: 4, Distance: 2}}, e1, "farthest edges are dropped")

	e2, err := g.Edges(2)
	require.NoError(t, err)
	assert.Len(t, e2, 1, "creation edges are truncated")
}

func TestNoReciprocalEdges(t *testing.T) {
	g := New(Config{EdgeSizeForCreation: 4, EdgeSizeLimit: 8})
	require.NoError(t, g.Link(1, nil))
	require.NoError(t, g.Link(2, []model.Edge{{ID: 1, Distance: 1}}))

	e1, err := g.Edges(1)
	require.NoError(t, err)
	assert.Empty(t, e1)
}

func TestSearchFindsNearest(t *testing.T) {
	p := randomPoints(500, 1)
	g := build(t, p, testConfig)

	r := rand.New(rand.NewSource(2))
	hits := 0
	for range 50 {
		q := r.Float32() * 1000
		got := search(g, p.query(q), SearchParams{Size: 10, Epsilon: 0.2, Radius: -1})
		want := g.SearchAll(p.query(q), 10, -1)
		require.Len(t, got, 10)
		require.True(t, slices.IsSortedFunc(got, model.CompareEdges))
		if got[0] == want[0] {
			hits++
		}
	}
	assert.GreaterOrEqual(t, hits, 40)
}

func TestSearchRadius(t *testing.T) {
	p := randomPoints(200, 3)
	g := build(t, p, testConfig)

	got := search(g, p.query(500), SearchParams{Size: 50, Epsilon: 0.1, Radius: 20})
	for _, e := range got {
		assert.LessOrEqual(t, e.Distance, float32(20))
	}

	assert.Empty(t, search(g, p.query(500), SearchParams{Size: 0, Radius: -1}))
	assert.Empty(t, search(g, p.query(5000), SearchParams{Size: 5, Radius: 1}))
}

func TestRemoveAndCompact(t *testing.T) {
	p := randomPoints(300, 4)
	g := build(t, p, testConfig)

	for id := model.ObjectID(2); id <= 300; id += 3 {
		require.NoError(t, g.Remove(id))
	}
	assert.ErrorIs(t, g.Remove(2), ErrNodeNotFound)
	assert.Equal(t, 200, g.Len())

	for _, q := range []float32{10, 250, 640} {
		for _, e := range search(g, p.query(q), SearchParams{Size: 20, Epsilon: 0.1, Radius: -1}) {
			assert.False(t, g.IsTombstoned(e.ID), "tombstoned %d returned", e.ID)
		}
	}

	removed := g.Compact(p)
	assert.Len(t, removed, 100)
	assert.Equal(t, 200, g.Len())
	for _, ne := range g.Extract() {
		assert.LessOrEqual(t, len(ne.Edges), testConfig.EdgeSizeLimit)
		for _, e := range ne.Edges {
			assert.True(t, g.Has(e.ID), "edge %d -> %d points to a deleted node", ne.ID, e.ID)
		}
	}
	assert.False(t, g.Has(2))

	got := search(g, p.query(500), SearchParams{Size: 10, Epsilon: 0.2, Radius: -1})
	want := g.SearchAll(p.query(500), 10, -1)
	require.NotEmpty(t, got)
	assert.Contains(t, want[:3], got[0])
}

func TestReplace(t *testing.T) {
	g := New(testConfig)
	require.NoError(t, g.Link(1, nil))
	require.NoError(t, g.Link(2, nil))
	require.NoError(t, g.Link(3, nil))

	require.NoError(t, g.Replace(1, []model.Edge{{ID: 3, Distance: 2}, {ID: 2, Distance: 1}, {ID: 2, Distance: 1}, {ID: 1, Distance: 0}}))
	e, err := g.Edges(1)
	require.NoError(t, err)
	assert.Equal(t, []model.Edge{{ID: 2, Distance: 1}, {ID: 3, Distance: 2}}, e)

	assert.ErrorIs(t, g.Replace(1, []model.Edge{{ID: 42, Distance: 1}}), ErrNodeNotFound)
	assert.ErrorIs(t, g.Replace(42, nil), ErrNodeNotFound)
}

func TestCodecRoundTrip(t *testing.T) {
	p := randomPoints(100, 5)
	g := build(t, p, testConfig)
	require.NoError(t, g.Remove(7))

	data, err := g.MarshalBinary()
	require.NoError(t, err)

	got, err := Decode(testConfig, data)
	require.NoError(t, err)
	assert.Equal(t, g.Extract(), got.Extract())
	assert.True(t, got.IsTombstoned(7))
	assert.Equal(t, g.Len(), got.Len())

	again, err := got.MarshalBinary()
	require.NoError(t, err)
	assert.Equal(t, data, again)

	_, err = Decode(testConfig, data[:len(data)-2])
	assert.ErrorIs(t, err, persistence.ErrCorrupt)
}
