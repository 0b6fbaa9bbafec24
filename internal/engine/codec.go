package engine

import (
	"fmt"

	"github.com/hupe1980/ngtgo/internal/graph"
	"github.com/hupe1980/ngtgo/internal/objectspace"
	"github.com/hupe1980/ngtgo/internal/tree"
	"github.com/hupe1980/ngtgo/model"
	"github.com/hupe1980/ngtgo/persistence"
)

// Sections is the encoded engine state, one payload per persisted section.
type Sections struct {
	Objects []byte
	Graph   []byte
	Tree    []byte
}

// Encode serializes the engine.
func (e *Engine) Encode() (Sections, error) {
	objects, err := e.space.MarshalBinary()
	if err != nil {
		return Sections{}, err
	}
	g, err := e.graph.MarshalBinary()
	if err != nil {
		return Sections{}, err
	}
	enc := persistence.NewEncoder(len(g) + 64)
	enc.PutBitmap(e.pending)
	enc.PutBytes(g)
	if err := enc.Err(); err != nil {
		return Sections{}, err
	}
	t, err := e.tree.MarshalBinary()
	if err != nil {
		return Sections{}, err
	}
	return Sections{Objects: objects, Graph: enc.Bytes(), Tree: t}, nil
}

// Decode restores an engine from its sections and cross-checks them: every
// graph node must be stored, live objects are either pending or linked, and
// the tree only references linked live nodes.
func Decode(cfg Config, s Sections) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	space, err := objectspace.Decode(cfg.Space, s.Objects)
	if err != nil {
		return nil, err
	}

	d := persistence.NewDecoder(s.Graph)
	pending := d.Bitmap()
	graphData := d.Bytes()
	if err := d.Err(); err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after graph", persistence.ErrCorrupt, d.Remaining())
	}
	g, err := graph.Decode(cfg.Graph, graphData)
	if err != nil {
		return nil, err
	}
	t, err := tree.Decode(space, s.Tree)
	if err != nil {
		return nil, err
	}

	for id := model.ObjectID(1); int(id) < g.Capacity(); id++ {
		if !g.Has(id) {
			continue
		}
		if !space.Has(id) || space.IsLive(id) == g.IsTombstoned(id) {
			return nil, fmt.Errorf("%w: graph node %d disagrees with object space", persistence.ErrCorrupt, id)
		}
	}
	for _, id := range space.LiveIDs() {
		linked := g.Has(id) && !g.IsTombstoned(id)
		if linked == pending.Contains(uint32(id)) {
			return nil, fmt.Errorf("%w: object %d is neither linked nor pending", persistence.ErrCorrupt, id)
		}
	}
	if int(pending.GetCardinality())+g.Len() != space.Len() {
		return nil, fmt.Errorf("%w: pending set references missing objects", persistence.ErrCorrupt)
	}
	for _, id := range t.IDs() {
		if !g.Has(id) || g.IsTombstoned(id) {
			return nil, fmt.Errorf("%w: tree references unlinked node %d", persistence.ErrCorrupt, id)
		}
	}

	return &Engine{cfg: cfg, space: space, graph: g, tree: t, pending: pending}, nil
}
