package graph

import (
	"errors"
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ngtgo/model"
)

var (
	// ErrNodeNotFound is returned for IDs without a live node.
	ErrNodeNotFound = errors.New("graph node not found")
	// ErrNodeExists is returned when linking an ID twice.
	ErrNodeExists = errors.New("graph node already exists")
)

// Config bounds the edge lists of a graph.
type Config struct {
	// EdgeSizeForCreation is the number of edges given to a new node.
	EdgeSizeForCreation int
	// EdgeSizeLimit bounds every stored edge list.
	EdgeSizeLimit int
	// ReciprocalEdges adds a back edge to every neighbor of a new node.
	ReciprocalEdges bool
}

// Distancer computes distances between stored objects.
type Distancer interface {
	Distance(a, b model.ObjectID) float32
}

type node struct {
	edges   []model.Edge
	present bool
}

// Graph is a neighborhood graph keyed by ObjectID.
type Graph struct {
	cfg        Config
	nodes      []node
	tombstones *roaring.Bitmap
	count      int // present nodes, tombstoned included
}

// NodeEdges is the portable edge list of one node.
type NodeEdges struct {
	ID    model.ObjectID
	Edges []model.Edge
}

// New creates an empty graph.
func New(cfg Config) *Graph {
	return &Graph{
		cfg:        cfg,
		nodes:      make([]node, 1, 1024),
		tombstones: roaring.New(),
	}
}

// Config returns the edge bounds of the graph.
func (g *Graph) Config() Config { return g.cfg }

// Has reports whether id is a node of the graph, tombstoned or not.
func (g *Graph) Has(id model.ObjectID) bool {
	return int(id) < len(g.nodes) && g.nodes[id].present
}

// IsTombstoned reports whether id was removed but not yet compacted.
func (g *Graph) IsTombstoned(id model.ObjectID) bool {
	return g.tombstones.Contains(uint32(id))
}

func (g *Graph) isLive(id model.ObjectID) bool {
	return g.Has(id) && !g.tombstones.Contains(uint32(id))
}

// Len returns the number of live nodes.
func (g *Graph) Len() int {
	return g.count - int(g.tombstones.GetCardinality())
}

// Capacity returns one past the largest node ID.
func (g *Graph) Capacity() int {
	return len(g.nodes)
}

// Link adds id as a new node with the given edges. Edges are sorted and
// truncated to EdgeSizeForCreation.
func (g *Graph) Link(id model.ObjectID, edges []model.Edge) error {
	if id == model.InvalidID {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	if g.Has(id) {
		return fmt.Errorf("%w: %d", ErrNodeExists, id)
	}
	for int(id) >= len(g.nodes) {
		g.nodes = append(g.nodes, node{})
	}

	own := normalize(edges, id, g.cfg.EdgeSizeForCreation)
	g.nodes[id] = node{edges: own, present: true}
	g.count++

	if !g.cfg.ReciprocalEdges {
		return nil
	}
	for _, e := range own {
		if !g.isLive(e.ID) {
			continue
		}
		g.addEdge(e.ID, model.Edge{ID: id, Distance: e.Distance})
	}
	return nil
}

// addEdge inserts e into the sorted edge list of from, dropping the
// farthest edge when the list exceeds EdgeSizeLimit.
func (g *Graph) addEdge(from model.ObjectID, e model.Edge) {
	n := &g.nodes[from]
	pos, found := slices.BinarySearchFunc(n.edges, e, model.CompareEdges)
	if found || slices.ContainsFunc(n.edges, func(x model.Edge) bool { return x.ID == e.ID }) {
		return
	}
	if g.cfg.EdgeSizeLimit > 0 && len(n.edges) >= g.cfg.EdgeSizeLimit {
		if pos >= len(n.edges) {
			return
		}
		n.edges = n.edges[:len(n.edges)-1]
	}
	n.edges = slices.Insert(n.edges, pos, e)
}

// Remove tombstones a live node.
func (g *Graph) Remove(id model.ObjectID) error {
	if !g.isLive(id) {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	g.tombstones.Add(uint32(id))
	return nil
}

// Edges returns a copy of the edge list of a live node.
func (g *Graph) Edges(id model.ObjectID) ([]model.Edge, error) {
	if !g.isLive(id) {
		return nil, fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	return slices.Clone(g.nodes[id].edges), nil
}

// Replace overwrites the edge list of a live node. Edges are sorted,
// deduplicated and truncated to EdgeSizeLimit.
func (g *Graph) Replace(id model.ObjectID, edges []model.Edge) error {
	if !g.isLive(id) {
		return fmt.Errorf("%w: %d", ErrNodeNotFound, id)
	}
	for _, e := range edges {
		if !g.Has(e.ID) {
			return fmt.Errorf("%w: edge %d -> %d", ErrNodeNotFound, id, e.ID)
		}
	}
	g.nodes[id].edges = normalize(edges, id, g.cfg.EdgeSizeLimit)
	return nil
}

// Nodes returns the IDs of all live nodes in ascending order.
func (g *Graph) Nodes() []model.ObjectID {
	ids := make([]model.ObjectID, 0, g.Len())
	for i := range g.nodes {
		if id := model.ObjectID(i); g.isLive(id) {
			ids = append(ids, id)
		}
	}
	return ids
}

// Extract returns the edge lists of all live nodes in ID order. Edges to
// tombstoned nodes are left out.
func (g *Graph) Extract() []NodeEdges {
	out := make([]NodeEdges, 0, g.Len())
	for _, id := range g.Nodes() {
		edges := make([]model.Edge, 0, len(g.nodes[id].edges))
		for _, e := range g.nodes[id].edges {
			if g.isLive(e.ID) {
				edges = append(edges, e)
			}
		}
		out = append(out, NodeEdges{ID: id, Edges: edges})
	}
	return out
}

// Compact repairs every live node that links to a tombstoned node and
// deletes all tombstoned nodes. A repaired node keeps its live edges and
// refills the freed slots from the live neighbors of the tombstoned nodes
// it pointed to. It returns the deleted IDs.
func (g *Graph) Compact(d Distancer) []model.ObjectID {
	if g.tombstones.IsEmpty() {
		return nil
	}

	type update struct {
		id    model.ObjectID
		edges []model.Edge
	}
	var updates []update

	for i := range g.nodes {
		u := model.ObjectID(i)
		if !g.isLive(u) {
			continue
		}
		edges := g.nodes[u].edges
		if !slices.ContainsFunc(edges, func(e model.Edge) bool { return g.IsTombstoned(e.ID) }) {
			continue
		}

		seen := map[model.ObjectID]struct{}{u: {}}
		merged := make([]model.Edge, 0, len(edges)*2)
		for _, e := range edges {
			if !g.IsTombstoned(e.ID) {
				seen[e.ID] = struct{}{}
				merged = append(merged, e)
			}
		}
		for _, e := range edges {
			if !g.IsTombstoned(e.ID) {
				continue
			}
			for _, f := range g.nodes[e.ID].edges {
				if _, ok := seen[f.ID]; ok || !g.isLive(f.ID) {
					continue
				}
				seen[f.ID] = struct{}{}
				merged = append(merged, model.Edge{ID: f.ID, Distance: d.Distance(u, f.ID)})
			}
		}
		limit := len(edges)
		if g.cfg.EdgeSizeLimit > 0 {
			limit = min(limit, g.cfg.EdgeSizeLimit)
		}
		updates = append(updates, update{id: u, edges: normalize(merged, u, limit)})
	}

	for _, up := range updates {
		g.nodes[up.id].edges = up.edges
	}

	removed := make([]model.ObjectID, 0, g.tombstones.GetCardinality())
	it := g.tombstones.Iterator()
	for it.HasNext() {
		id := model.ObjectID(it.Next())
		g.nodes[id] = node{}
		g.count--
		removed = append(removed, id)
	}
	g.tombstones.Clear()
	return removed
}

// normalize sorts edges, drops self loops and duplicate targets and
// truncates to limit (0 means unlimited).
func normalize(edges []model.Edge, self model.ObjectID, limit int) []model.Edge {
	out := slices.Clone(edges)
	slices.SortFunc(out, model.CompareEdges)

	seen := make(map[model.ObjectID]struct{}, len(out))
	n := 0
	for _, e := range out {
		if e.ID == self || e.ID == model.InvalidID {
			continue
		}
		if _, ok := seen[e.ID]; ok {
			continue
		}
		seen[e.ID] = struct{}{}
		out[n] = e
		n++
	}
	out = out[:n]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return slices.Clip(out)
}
