package graph

import (
	"math"
	"slices"

	"github.com/hupe1980/ngtgo/internal/searcher"
	"github.com/hupe1980/ngtgo/model"
)

// Unbounded is the radius that excludes nothing.
var Unbounded = float32(math.Inf(1))

// SearchParams controls one traversal.
type SearchParams struct {
	// Size is the maximum number of results.
	Size int
	// Epsilon widens the exploration bound to (1+Epsilon) times the
	// current worst accepted distance.
	Epsilon float32
	// Radius bounds accepted distances. Negative means unbounded.
	Radius float32
	// EdgeSize is the number of leading edges expanded per node. 0 means all.
	EdgeSize int
}

// DistanceFunc returns the distance from the query to a node.
type DistanceFunc func(id model.ObjectID) float32

// Search runs a best-first traversal from seeds and returns up to
// p.Size live nodes ordered by (distance, ID).
//
// A neighbor enters the frontier while its distance is within the
// exploration bound, which is (1+Epsilon) times the radius until Size
// results are held and (1+Epsilon) times the worst held result after.
// The traversal stops when the closest frontier node exceeds the bound.
func (g *Graph) Search(dist DistanceFunc, seeds []model.ObjectID, p SearchParams, s *searcher.Searcher) []model.Edge {
	if p.Size <= 0 {
		return nil
	}

	radius := p.Radius
	if radius < 0 {
		radius = Unbounded
	}
	coeff := 1 + p.Epsilon
	explore := bound(radius, coeff)

	s.Visited.EnsureCapacity(len(g.nodes))

	admit := func(item searcher.PriorityQueueItem) {
		if item.Distance > radius || g.tombstones.Contains(uint32(item.Node)) {
			return
		}
		if !s.Results.PushItemBounded(item, p.Size) {
			return
		}
		if s.Results.Len() >= p.Size {
			worst, _ := s.Results.TopItem()
			explore = bound(worst.Distance, coeff)
		}
	}

	for _, id := range seeds {
		if !g.Has(id) || !s.Visited.Visit(id) {
			continue
		}
		item := searcher.PriorityQueueItem{Node: id, Distance: dist(id)}
		s.Frontier.PushItem(item)
		admit(item)
	}

	for s.Frontier.Len() > 0 {
		c, _ := s.Frontier.PopItem()
		if c.Distance > explore {
			break
		}

		edges := g.nodes[c.Node].edges
		if p.EdgeSize > 0 && len(edges) > p.EdgeSize {
			edges = edges[:p.EdgeSize]
		}
		for _, e := range edges {
			if !g.Has(e.ID) || !s.Visited.Visit(e.ID) {
				continue
			}
			item := searcher.PriorityQueueItem{Node: e.ID, Distance: dist(e.ID)}
			if item.Distance > explore {
				continue
			}
			s.Frontier.PushItem(item)
			admit(item)
		}
	}

	s.Scratch = s.Results.Drain(s.Scratch[:0])
	out := make([]model.Edge, len(s.Scratch))
	for i, item := range s.Scratch {
		out[len(out)-1-i] = model.Edge{ID: item.Node, Distance: item.Distance}
	}
	return out
}

func bound(d, coeff float32) float32 {
	if math.IsInf(float64(d), 1) {
		return d
	}
	b := float64(d) * float64(coeff)
	if b > math.MaxFloat32 {
		return Unbounded
	}
	return float32(b)
}

// SearchAll is an exhaustive variant of Search over all live nodes. It is
// used to verify approximate results.
func (g *Graph) SearchAll(dist DistanceFunc, size int, radius float32) []model.Edge {
	if size <= 0 {
		return nil
	}
	if radius < 0 {
		radius = Unbounded
	}
	results := searcher.NewPriorityQueue(true)
	for _, id := range g.Nodes() {
		d := dist(id)
		if d > radius {
			continue
		}
		results.PushItemBounded(searcher.PriorityQueueItem{Node: id, Distance: d}, size)
	}
	items := results.Drain(nil)
	slices.Reverse(items)
	out := make([]model.Edge, len(items))
	for i, item := range items {
		out[i] = model.Edge{ID: item.Node, Distance: item.Distance}
	}
	return out
}
