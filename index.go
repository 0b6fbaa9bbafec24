package ngtgo

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/hupe1980/ngtgo/internal/engine"
	"github.com/hupe1980/ngtgo/internal/graph"
	"github.com/hupe1980/ngtgo/internal/resource"
	"github.com/hupe1980/ngtgo/model"
)

// Result is one search hit.
type Result struct {
	ID       model.ObjectID
	Distance float32
}

// GraphNode is the edge list of one linked object.
type GraphNode struct {
	ID    model.ObjectID
	Edges []model.Edge
}

// Graph is a portable copy of the neighborhood graph. Nodes are sorted by
// ID, their edges ascending by distance. Removed objects appear neither as
// nodes nor as edge targets.
type Graph struct {
	Nodes []GraphNode
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.Nodes) }

// Index is a graph and tree based approximate nearest neighbor index.
//
// Searches may run concurrently; mutations are serialized.
type Index struct {
	mu     sync.RWMutex
	engine *engine.Engine
	prop   *Property
	meta   metadata
	opts   options
	res    *resource.Controller
	closed bool
}

// CreateGraphAndTreeInMemory creates an empty index that lives in memory
// only. It can still be saved with Save or SaveTo.
func CreateGraphAndTreeInMemory(prop *Property, opts ...Option) (*Index, error) {
	if prop == nil {
		return nil, fmt.Errorf("%w: nil property", ErrInvalidArgument)
	}
	return newIndex(prop.clone(), newMetadata(), applyOptions(opts), nil)
}

// newIndex wires an index around the engine returned by dec, or around an
// empty engine when dec is nil.
func newIndex(prop *Property, meta metadata, o options, dec func(engine.Config) (*engine.Engine, error)) (*Index, error) {
	if err := prop.Validate(); err != nil {
		return nil, err
	}
	res := resource.NewController(resource.Config{
		MemoryLimitBytes:   o.memoryLimit,
		IOLimitBytesPerSec: o.ioLimit,
	})
	if dec == nil {
		dec = engine.New
	}
	o.logger = o.logger.WithIndex(meta.uuid.String())
	e, err := dec(prop.engineConfig(res))
	if err != nil {
		return nil, err
	}
	return &Index{
		engine: e,
		prop:   prop,
		meta:   meta,
		opts:   o,
		res:    res,
	}, nil
}

// Property returns a copy of the index configuration.
func (idx *Index) Property() *Property {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.prop.clone()
}

// UUID returns the identity assigned to the index on creation.
func (idx *Index) UUID() string {
	return idx.meta.uuid.String()
}

// Len returns the number of live objects, appended ones included.
// It returns 0 once the index is closed.
func (idx *Index) Len() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return 0
	}
	return idx.engine.Len()
}

// PendingLen returns the number of appended objects waiting for CreateIndex.
// It returns 0 once the index is closed.
func (idx *Index) PendingLen() int {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return 0
	}
	return idx.engine.PendingLen()
}

// Insert stores vec and links it into the graph. The object is searchable
// as soon as Insert returns.
func (idx *Index) Insert(vec []float32) (model.ObjectID, error) {
	return idx.insert("insert", vec, (*engine.Engine).Insert)
}

// InsertFloat64 is Insert for float64 input.
func (idx *Index) InsertFloat64(vec []float64) (model.ObjectID, error) {
	return idx.Insert(toFloat32(vec))
}

// Append stores vec without linking it. The object becomes searchable
// after the next CreateIndex.
func (idx *Index) Append(vec []float32) (model.ObjectID, error) {
	return idx.insert("append", vec, (*engine.Engine).Append)
}

// AppendFloat64 is Append for float64 input.
func (idx *Index) AppendFloat64(vec []float64) (model.ObjectID, error) {
	return idx.Append(toFloat32(vec))
}

func (idx *Index) insert(op string, vec []float32, fn func(*engine.Engine, []float32) (model.ObjectID, error)) (model.ObjectID, error) {
	start := time.Now()
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var (
		id  model.ObjectID
		err error
	)
	if idx.closed {
		err = ErrClosed
	} else {
		id, err = fn(idx.engine, vec)
		err = translateError(err)
	}
	idx.opts.metricsCollector.RecordInsert(time.Since(start), err)
	idx.opts.logger.LogInsert(op, id, err)
	return id, err
}

// BatchInsert inserts every vector. Items fail independently: a failed
// item gets ID 0 in the returned slice and a *BatchItemError in the joined
// error, while the other items are stored and linked.
func (idx *Index) BatchInsert(vectors [][]float32) ([]model.ObjectID, error) {
	return idx.batch("batch insert", vectors, (*engine.Engine).BatchInsert)
}

// BatchAppend appends every vector with the same per-item isolation as
// BatchInsert.
func (idx *Index) BatchAppend(vectors [][]float32) ([]model.ObjectID, error) {
	return idx.batch("batch append", vectors, (*engine.Engine).BatchAppend)
}

func (idx *Index) batch(op string, vectors [][]float32, fn func(*engine.Engine, [][]float32) ([]model.ObjectID, []error)) ([]model.ObjectID, error) {
	start := time.Now()
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return nil, ErrClosed
	}

	ids, errs := fn(idx.engine, vectors)
	failed, err := joinBatchErrors(errs)
	idx.opts.metricsCollector.RecordBatchInsert(len(vectors), failed, time.Since(start))
	idx.opts.logger.LogBatchInsert(op, len(vectors), failed)
	return ids, err
}

// CreateIndex links every appended object into the graph using up to
// poolSize workers. poolSize <= 0 uses one worker per CPU. The resulting
// graph depends on the pool size but not on scheduling.
func (idx *Index) CreateIndex(ctx context.Context, poolSize int) error {
	start := time.Now()
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}

	linked, err := idx.engine.Build(ctx, poolSize)
	err = translateError(err)
	idx.opts.metricsCollector.RecordBuild(linked, time.Since(start), err)
	idx.opts.logger.LogBuild(ctx, linked, poolSize, time.Since(start), err)
	return err
}

// Remove deletes an object. Its node stays in the graph as a traversable
// tombstone until Rebuild; it is never returned by a search again.
func (idx *Index) Remove(id model.ObjectID) error {
	start := time.Now()
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var err error
	if idx.closed {
		err = ErrClosed
	} else {
		err = translateError(idx.engine.Remove(id))
	}
	idx.opts.metricsCollector.RecordRemove(time.Since(start), err)
	idx.opts.logger.LogRemove(id, err)
	return err
}

// Search returns up to size approximate nearest neighbors of query sorted
// by ascending distance, ties by ID. epsilon widens the exploration and
// trades speed for recall. A negative radius is unbounded; otherwise every
// result lies within radius.
func (idx *Index) Search(query []float32, size int, epsilon, radius float32) ([]Result, error) {
	start := time.Now()
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	res, err := idx.search(query, size, epsilon, radius)
	idx.opts.metricsCollector.RecordSearch(size, time.Since(start), err)
	idx.opts.logger.LogSearch(size, len(res), epsilon, radius, err)
	return res, err
}

// SearchFloat64 is Search for a float64 query.
func (idx *Index) SearchFloat64(query []float64, size int, epsilon, radius float32) ([]Result, error) {
	return idx.Search(toFloat32(query), size, epsilon, radius)
}

func (idx *Index) search(query []float32, size int, epsilon, radius float32) ([]Result, error) {
	if idx.closed {
		return nil, ErrClosed
	}
	if size <= 0 {
		return nil, fmt.Errorf("%w: size %d", ErrInvalidArgument, size)
	}
	if epsilon < -1 || isNaN(epsilon) || isNaN(radius) {
		return nil, fmt.Errorf("%w: epsilon %v, radius %v", ErrInvalidArgument, epsilon, radius)
	}

	edges, err := idx.engine.Search(query, graph.SearchParams{
		Size:     size,
		Epsilon:  epsilon,
		Radius:   radius,
		EdgeSize: idx.prop.EdgeSizeForSearch(),
	})
	if err != nil {
		return nil, translateError(err)
	}
	return toResults(edges), nil
}

// LinearSearch returns the exact nearest neighbors of query among the
// linked objects by scanning all of them.
func (idx *Index) LinearSearch(query []float32, size int, radius float32) ([]Result, error) {
	start := time.Now()
	idx.mu.RLock()
	defer idx.mu.RUnlock()

	var (
		res []Result
		err error
	)
	switch {
	case idx.closed:
		err = ErrClosed
	case size <= 0 || isNaN(radius):
		err = fmt.Errorf("%w: size %d, radius %v", ErrInvalidArgument, size, radius)
	default:
		var edges []model.Edge
		if edges, err = idx.engine.LinearSearch(query, size, radius); err != nil {
			err = translateError(err)
		} else {
			res = toResults(edges)
		}
	}
	idx.opts.metricsCollector.RecordSearch(size, time.Since(start), err)
	idx.opts.logger.LogSearch(size, len(res), 0, radius, err)
	if err != nil {
		return nil, err
	}
	return res, nil
}

// Object returns a copy of a live object.
func (idx *Index) Object(id model.ObjectID) (model.Vector, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return model.Vector{}, ErrClosed
	}
	v, err := idx.engine.Object(id)
	return v, translateError(err)
}

// ExtractGraph returns a copy of the neighborhood graph.
func (idx *Index) ExtractGraph() (*Graph, error) {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	if idx.closed {
		return nil, ErrClosed
	}
	nodes := idx.engine.Extract()
	g := &Graph{Nodes: make([]GraphNode, len(nodes))}
	for i, n := range nodes {
		g.Nodes[i] = GraphNode{ID: n.ID, Edges: n.Edges}
	}
	return g, nil
}

// Rebuild repairs the edges around removed objects, drops their nodes and
// rebuilds the tree. The IDs of removed objects are released and reused by
// later inserts. It returns the number of released IDs.
func (idx *Index) Rebuild() (int, error) {
	start := time.Now()
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return 0, ErrClosed
	}

	n, err := idx.engine.Rebuild()
	err = translateError(err)
	idx.opts.logger.LogRebuild(n, time.Since(start), err)
	return n, err
}

// ReconstructGraph rewrites every edge list keeping the outgoing closest
// edges of each node and mirroring its first incoming edges as reverse
// edges.
func (idx *Index) ReconstructGraph(outgoing, incoming int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}
	return translateError(idx.engine.Reshape(outgoing, incoming))
}

// SetEdgeSizeForSearch changes the number of edges expanded per node by
// later searches. It is the only property that can change after creation.
func (idx *Index) SetEdgeSizeForSearch(n int) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}
	return idx.prop.SetEdgeSizeForSearch(n)
}

func (idx *Index) isClosed() bool {
	idx.mu.RLock()
	defer idx.mu.RUnlock()
	return idx.closed
}

// Close releases the index. Every later call, Close included, fails with
// ErrClosed.
func (idx *Index) Close() error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	if idx.closed {
		return ErrClosed
	}
	idx.engine.Close()
	idx.engine = nil
	idx.closed = true
	return nil
}

func toResults(edges []model.Edge) []Result {
	out := make([]Result, len(edges))
	for i, e := range edges {
		out[i] = Result{ID: e.ID, Distance: e.Distance}
	}
	return out
}

func toFloat32(vec []float64) []float32 {
	out := make([]float32, len(vec))
	for i, v := range vec {
		out[i] = float32(v)
	}
	return out
}

func isNaN(f float32) bool { return math.IsNaN(float64(f)) }
