package tree

import (
	"slices"

	"github.com/hupe1980/ngtgo/model"
	"gonum.org/v1/gonum/stat"
)

// DefaultLeafSize is used when a non-positive leaf size is given.
const DefaultLeafSize = 32

// Distancer computes distances between stored objects.
type Distancer interface {
	Distance(a, b model.ObjectID) float32
}

type node struct {
	leaf bool
	ids  []model.ObjectID
	// retryAt is the leaf length below which a failed split is not retried.
	retryAt int

	pivot   model.ObjectID
	radius  float32
	inside  *node
	outside *node
}

// Tree is a dynamic VP-tree over object IDs.
type Tree struct {
	leafSize int
	dist     Distancer
	root     *node
	size     int
}

// New creates an empty tree.
func New(leafSize int, dist Distancer) *Tree {
	if leafSize <= 0 {
		leafSize = DefaultLeafSize
	}
	return &Tree{leafSize: leafSize, dist: dist}
}

// Len returns the number of IDs in the tree.
func (t *Tree) Len() int { return t.size }

// Insert adds id to the leaf it routes to, splitting the leaf if it overflows.
func (t *Tree) Insert(id model.ObjectID) {
	t.size++
	if t.root == nil {
		t.root = &node{leaf: true, ids: []model.ObjectID{id}}
		return
	}

	n := t.root
	for !n.leaf {
		n = t.route(n, id)
	}
	n.ids = append(n.ids, id)
	if len(n.ids) > t.leafSize && len(n.ids) > n.retryAt {
		t.split(n)
	}
}

func (t *Tree) route(n *node, id model.ObjectID) *node {
	if t.dist.Distance(n.pivot, id) <= n.radius {
		return n.inside
	}
	return n.outside
}

// split turns an overflowing leaf into an inner node. The first ID is
// tried as pivot, then the member farthest from it. When both leave the
// outside empty (e.g. duplicates) the leaf stays a leaf and is not split
// again before it has doubled.
func (t *Tree) split(n *node) {
	dists := t.distances(n.ids[0], n.ids)
	if inner, ok := t.partition(n.ids, n.ids[0], dists); ok {
		*n = inner
		return
	}

	far := n.ids[0]
	if i := farthest(dists); dists[i] > 0 {
		far = n.ids[i]
		if inner, ok := t.partition(n.ids, far, t.distances(far, n.ids)); ok {
			*n = inner
			return
		}
	}
	n.retryAt = 2 * len(n.ids)
}

func (t *Tree) distances(pivot model.ObjectID, ids []model.ObjectID) []float64 {
	dists := make([]float64, len(ids))
	for i, id := range ids {
		dists[i] = float64(t.dist.Distance(pivot, id))
	}
	return dists
}

func farthest(dists []float64) int {
	best := 0
	for i, d := range dists {
		if d > dists[best] {
			best = i
		}
	}
	return best
}

// partition splits ids at the median distance to pivot. It fails when no
// member lies beyond the median.
func (t *Tree) partition(ids []model.ObjectID, pivot model.ObjectID, dists []float64) (node, bool) {
	sorted := slices.Clone(dists)
	slices.Sort(sorted)
	median := float32(stat.Quantile(0.5, stat.Empirical, sorted, nil))

	var inside, outside []model.ObjectID
	for i, id := range ids {
		if float32(dists[i]) <= median {
			inside = append(inside, id)
		} else {
			outside = append(outside, id)
		}
	}
	if len(outside) == 0 {
		return node{}, false
	}
	return node{
		pivot:   pivot,
		radius:  median,
		inside:  &node{leaf: true, ids: inside},
		outside: &node{leaf: true, ids: outside},
	}, true
}

// Remove deletes id from the tree. It reports whether id was found.
// Pivots stay in place as routing points.
func (t *Tree) Remove(id model.ObjectID) bool {
	if t.root == nil {
		return false
	}
	n := t.root
	for !n.leaf {
		n = t.route(n, id)
	}
	if removeFrom(n, id) || t.removeAnywhere(t.root, id) {
		t.size--
		return true
	}
	return false
}

func removeFrom(n *node, id model.ObjectID) bool {
	i := slices.Index(n.ids, id)
	if i < 0 {
		return false
	}
	n.ids = slices.Delete(n.ids, i, i+1)
	return true
}

func (t *Tree) removeAnywhere(n *node, id model.ObjectID) bool {
	if n.leaf {
		return removeFrom(n, id)
	}
	return t.removeAnywhere(n.inside, id) || t.removeAnywhere(n.outside, id)
}

// Locate returns up to count seed IDs near the query. The leaf the query
// routes to is visited first, closest members first; sibling subtrees
// fill the remaining slots.
func (t *Tree) Locate(dist func(model.ObjectID) float32, count int) []model.ObjectID {
	if t.root == nil || count <= 0 {
		return nil
	}
	seeds := make([]model.ObjectID, 0, count)

	var walk func(n *node)
	walk = func(n *node) {
		if len(seeds) >= count {
			return
		}
		if n.leaf {
			need := count - len(seeds)
			if len(n.ids) <= need {
				seeds = append(seeds, n.ids...)
				return
			}
			type cand struct {
				id model.ObjectID
				d  float32
			}
			members := sample(n.ids, max(scanFactor*t.leafSize, need))
			cands := make([]cand, len(members))
			for i, id := range members {
				cands[i] = cand{id: id, d: dist(id)}
			}
			slices.SortFunc(cands, func(a, b cand) int {
				return model.CompareEdges(model.Edge{ID: a.id, Distance: a.d}, model.Edge{ID: b.id, Distance: b.d})
			})
			for _, c := range cands[:need] {
				seeds = append(seeds, c.id)
			}
			return
		}
		if dist(n.pivot) <= n.radius {
			walk(n.inside)
			walk(n.outside)
		} else {
			walk(n.outside)
			walk(n.inside)
		}
	}
	walk(t.root)
	return seeds
}

// scanFactor bounds the members of an unsplittable leaf scanned by Locate
// to this multiple of the leaf size.
const scanFactor = 4

// sample returns limit evenly strided members of ids, or ids itself when
// it is short enough.
func sample(ids []model.ObjectID, limit int) []model.ObjectID {
	if len(ids) <= limit {
		return ids
	}
	out := make([]model.ObjectID, limit)
	for i := range out {
		out[i] = ids[i*len(ids)/limit]
	}
	return out
}

// Rebuild replaces the content of the tree with ids, inserted in order.
func (t *Tree) Rebuild(ids []model.ObjectID) {
	t.root = nil
	t.size = 0
	for _, id := range ids {
		t.Insert(id)
	}
}

// IDs returns every ID held by the tree in ascending order.
func (t *Tree) IDs() []model.ObjectID {
	ids := make([]model.ObjectID, 0, t.size)
	var walk func(n *node)
	walk = func(n *node) {
		if n == nil {
			return
		}
		if n.leaf {
			ids = append(ids, n.ids...)
			return
		}
		walk(n.inside)
		walk(n.outside)
	}
	walk(t.root)
	slices.Sort(ids)
	return ids
}
