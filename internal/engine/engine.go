package engine

import (
	"errors"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ngtgo/internal/graph"
	"github.com/hupe1980/ngtgo/internal/objectspace"
	"github.com/hupe1980/ngtgo/internal/searcher"
	"github.com/hupe1980/ngtgo/internal/tree"
	"github.com/hupe1980/ngtgo/model"
)

// ErrInvalidConfig is returned for inconsistent engine configurations.
var ErrInvalidConfig = errors.New("invalid engine config")

// Config holds the parameters of an Engine.
type Config struct {
	Space objectspace.Config
	Graph graph.Config

	// BuildEpsilon is the epsilon of the neighbor search run for new nodes.
	BuildEpsilon float32
	// SeedSize is the number of seeds taken from the tree per traversal.
	SeedSize int
	// TreeLeafSize bounds the number of IDs per tree leaf.
	TreeLeafSize int
}

func (c Config) validate() error {
	if c.Graph.EdgeSizeForCreation <= 0 {
		return fmt.Errorf("%w: edge size for creation %d", ErrInvalidConfig, c.Graph.EdgeSizeForCreation)
	}
	if c.Graph.EdgeSizeLimit > 0 && c.Graph.EdgeSizeLimit < c.Graph.EdgeSizeForCreation {
		return fmt.Errorf("%w: edge size limit %d below creation size %d", ErrInvalidConfig, c.Graph.EdgeSizeLimit, c.Graph.EdgeSizeForCreation)
	}
	if c.SeedSize <= 0 {
		return fmt.Errorf("%w: seed size %d", ErrInvalidConfig, c.SeedSize)
	}
	if c.BuildEpsilon < 0 {
		return fmt.Errorf("%w: build epsilon %v", ErrInvalidConfig, c.BuildEpsilon)
	}
	return nil
}

// Engine is the mutable state of one index.
type Engine struct {
	cfg     Config
	space   *objectspace.Space
	graph   *graph.Graph
	tree    *tree.Tree
	pending *roaring.Bitmap // stored but not yet linked
}

// New creates an empty engine.
func New(cfg Config) (*Engine, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	space, err := objectspace.New(cfg.Space)
	if err != nil {
		return nil, err
	}
	return &Engine{
		cfg:     cfg,
		space:   space,
		graph:   graph.New(cfg.Graph),
		tree:    tree.New(cfg.TreeLeafSize, space),
		pending: roaring.New(),
	}, nil
}

// Config returns the engine configuration.
func (e *Engine) Config() Config { return e.cfg }

// Len returns the number of live objects, pending ones included.
func (e *Engine) Len() int { return e.space.Len() }

// PendingLen returns the number of appended objects not yet linked.
func (e *Engine) PendingLen() int { return int(e.pending.GetCardinality()) }

// Insert stores vec and links it into the graph.
func (e *Engine) Insert(vec []float32) (model.ObjectID, error) {
	id, err := e.space.Insert(vec)
	if err != nil {
		return model.InvalidID, err
	}
	if err := e.link(id, e.discover(id, nil)); err != nil {
		return model.InvalidID, err
	}
	return id, nil
}

// Append stores vec without linking it. The object is found by Search
// only after Build.
func (e *Engine) Append(vec []float32) (model.ObjectID, error) {
	id, err := e.space.Insert(vec)
	if err != nil {
		return model.InvalidID, err
	}
	e.pending.Add(uint32(id))
	return id, nil
}

// BatchInsert stores every vector first and then links the stored ones in
// order. Failed items get InvalidID and their error at the same index.
func (e *Engine) BatchInsert(vecs [][]float32) ([]model.ObjectID, []error) {
	ids, errs := e.store(vecs)
	for i, id := range ids {
		if id == model.InvalidID {
			continue
		}
		if err := e.link(id, e.discover(id, nil)); err != nil {
			ids[i], errs[i] = model.InvalidID, err
		}
	}
	return ids, errs
}

// BatchAppend is the appending counterpart of BatchInsert.
func (e *Engine) BatchAppend(vecs [][]float32) ([]model.ObjectID, []error) {
	ids, errs := e.store(vecs)
	for _, id := range ids {
		if id != model.InvalidID {
			e.pending.Add(uint32(id))
		}
	}
	return ids, errs
}

func (e *Engine) store(vecs [][]float32) ([]model.ObjectID, []error) {
	ids := make([]model.ObjectID, len(vecs))
	errs := make([]error, len(vecs))
	for i, v := range vecs {
		ids[i], errs[i] = e.space.Insert(v)
	}
	return ids, errs
}

// discover finds the creation neighbors of a stored object among the
// linked nodes and the given unlinked peers.
func (e *Engine) discover(id model.ObjectID, peers []model.ObjectID) []model.Edge {
	dist := func(n model.ObjectID) float32 { return e.space.Distance(id, n) }

	var edges []model.Edge
	if e.graph.Len() > 0 {
		s := searcher.Get()
		edges = e.graph.Search(dist, e.tree.Locate(dist, e.cfg.SeedSize), graph.SearchParams{
			Size:    e.cfg.Graph.EdgeSizeForCreation,
			Epsilon: e.cfg.BuildEpsilon,
			Radius:  -1,
		}, s)
		searcher.Put(s)
	}
	for _, p := range peers {
		edges = append(edges, model.Edge{ID: p, Distance: dist(p)})
	}
	return edges
}

func (e *Engine) link(id model.ObjectID, edges []model.Edge) error {
	if err := e.graph.Link(id, edges); err != nil {
		return err
	}
	e.tree.Insert(id)
	return nil
}

// Remove deletes a live object. Linked objects are tombstoned in the graph
// and stay traversable until Rebuild; pending objects are simply dropped.
func (e *Engine) Remove(id model.ObjectID) error {
	if err := e.space.Remove(id); err != nil {
		return err
	}
	if e.pending.CheckedRemove(uint32(id)) {
		return nil
	}
	if err := e.graph.Remove(id); err != nil {
		return err
	}
	e.tree.Remove(id)
	return nil
}

// Object returns a copy of a live object.
func (e *Engine) Object(id model.ObjectID) (model.Vector, error) {
	return e.space.Get(id)
}

// Search runs an approximate graph search for query.
func (e *Engine) Search(query []float32, p graph.SearchParams) ([]model.Edge, error) {
	q, err := e.space.Allocate(query)
	if err != nil {
		return nil, err
	}
	defer e.space.Release(q)

	dist := func(id model.ObjectID) float32 { return e.space.DistanceTo(q, id) }
	seeds := e.tree.Locate(dist, e.cfg.SeedSize)

	s := searcher.Get()
	defer searcher.Put(s)
	return e.graph.Search(dist, seeds, p, s), nil
}

// LinearSearch scans every linked live object. Pending objects are not
// considered.
func (e *Engine) LinearSearch(query []float32, size int, radius float32) ([]model.Edge, error) {
	q, err := e.space.Allocate(query)
	if err != nil {
		return nil, err
	}
	defer e.space.Release(q)

	return e.graph.SearchAll(func(id model.ObjectID) float32 { return e.space.DistanceTo(q, id) }, size, radius), nil
}

// Extract returns the live graph as portable edge lists.
func (e *Engine) Extract() []graph.NodeEdges {
	return e.graph.Extract()
}

// Rebuild compacts the graph around tombstones, recycles the IDs of all
// removed objects and rebuilds the tree from the live nodes. It returns
// the number of recycled IDs.
func (e *Engine) Rebuild() (int, error) {
	e.graph.Compact(e.space)
	e.tree.Rebuild(e.graph.Nodes())

	removed := e.space.RemovedIDs()
	for _, id := range removed {
		if err := e.space.Purge(id); err != nil {
			return 0, err
		}
	}
	return len(removed), nil
}

// Close releases the resources held by the engine.
func (e *Engine) Close() {
	e.space.Close()
}
