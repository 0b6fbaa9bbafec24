package graph

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ngtgo/model"
	"github.com/hupe1980/ngtgo/persistence"
)

// MarshalBinary encodes the graph as
// [capacity u32][present bitmap][tombstone bitmap] followed by
// [count u32][(id u32, distance f32) x count] per present node in ID order.
func (g *Graph) MarshalBinary() ([]byte, error) {
	present := roaring.New()
	edges := 0
	for i := range g.nodes {
		if g.nodes[i].present {
			present.Add(uint32(i))
			edges += len(g.nodes[i].edges)
		}
	}

	e := persistence.NewEncoder(64 + 4*g.count + 8*edges)
	e.PutLen(len(g.nodes))
	e.PutBitmap(present)
	e.PutBitmap(g.tombstones)

	it := present.Iterator()
	for it.HasNext() {
		n := &g.nodes[it.Next()]
		e.PutLen(len(n.edges))
		for _, edge := range n.edges {
			e.PutUint32(uint32(edge.ID))
			e.PutFloat32(edge.Distance)
		}
	}
	return e.Bytes(), e.Err()
}

// Decode restores a graph encoded by MarshalBinary.
func Decode(cfg Config, data []byte) (*Graph, error) {
	d := persistence.NewDecoder(data)
	capacity := d.Len()
	present := d.Bitmap()
	tombstones := d.Bitmap()
	if err := d.Err(); err != nil {
		return nil, err
	}

	if capacity < 1 || (!present.IsEmpty() && int(present.Maximum()) >= capacity) || present.Contains(0) {
		return nil, fmt.Errorf("%w: graph nodes exceed capacity %d", persistence.ErrCorrupt, capacity)
	}
	if !roaring.AndNot(tombstones, present).IsEmpty() {
		return nil, fmt.Errorf("%w: tombstone without node", persistence.ErrCorrupt)
	}
	if int(present.GetCardinality()) > d.Remaining()/4 {
		return nil, fmt.Errorf("%w: graph of %d nodes in %d bytes", persistence.ErrCorrupt, present.GetCardinality(), d.Remaining())
	}

	g := New(cfg)
	g.nodes = make([]node, capacity)
	g.tombstones = tombstones

	it := present.Iterator()
	for it.HasNext() {
		id := it.Next()
		count := d.Len()
		if d.Err() == nil && (count > d.Remaining()/8 || (cfg.EdgeSizeLimit > 0 && count > cfg.EdgeSizeLimit)) {
			return nil, fmt.Errorf("%w: node %d has %d edges", persistence.ErrCorrupt, id, count)
		}
		edges := make([]model.Edge, count)
		for i := range edges {
			edges[i] = model.Edge{ID: model.ObjectID(d.Uint32()), Distance: d.Float32()}
			if d.Err() == nil && !present.Contains(uint32(edges[i].ID)) {
				return nil, fmt.Errorf("%w: edge %d -> %d to a missing node", persistence.ErrCorrupt, id, edges[i].ID)
			}
		}
		g.nodes[id] = node{edges: edges, present: true}
		g.count++
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after graph", persistence.ErrCorrupt, d.Remaining())
	}
	return g, nil
}
