package objectspace

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ngtgo/distance"
	"github.com/hupe1980/ngtgo/internal/resource"
	"github.com/hupe1980/ngtgo/model"
	"github.com/tidwall/btree"
)

// Config describes the objects held by a Space.
type Config struct {
	Dimension  int
	ObjectType model.ObjectType
	Metric     distance.Metric

	// Resources accounts for the memory of stored objects. May be nil.
	Resources *resource.Controller
}

// Space owns every object of an index.
type Space struct {
	cfg        Config
	normalize  bool
	objectSize int64

	objects []Object // indexed by ObjectID, slot 0 unused
	live    *roaring.Bitmap
	removed *roaring.Bitmap
	free    *btree.BTreeG[model.ObjectID]
	next    model.ObjectID

	f32Func distance.Func
	u8Func  distance.FuncUint8
	f16Func distance.FuncFloat16

	queries     sync.Pool
	outstanding atomic.Int64
}

// New creates an empty Space.
func New(cfg Config) (*Space, error) {
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("invalid dimension %d", cfg.Dimension)
	}
	if err := distance.Validate(cfg.Metric, cfg.ObjectType); err != nil {
		return nil, err
	}

	s := &Space{
		cfg:        cfg,
		normalize:  cfg.Metric.Normalized(),
		objectSize: int64(cfg.Dimension * cfg.ObjectType.ElementSize()),
		objects:    make([]Object, 1, 1024),
		live:       roaring.New(),
		removed:    roaring.New(),
		free:       btree.NewBTreeG(func(a, b model.ObjectID) bool { return a < b }),
		next:       1,
	}

	var err error
	switch cfg.ObjectType {
	case model.ObjectTypeUint8:
		s.u8Func, err = distance.ProviderUint8(cfg.Metric)
	case model.ObjectTypeFloat16:
		s.f16Func, err = distance.ProviderFloat16(cfg.Metric)
	default:
		s.f32Func, err = distance.Provider(cfg.Metric)
	}
	if err != nil {
		return nil, err
	}

	s.queries.New = func() any { return &Object{} }
	return s, nil
}

// Config returns the configuration of the space.
func (s *Space) Config() Config { return s.cfg }

// Dimension returns the number of elements per object.
func (s *Space) Dimension() int { return s.cfg.Dimension }

// Insert stores vec permanently and returns its ID.
func (s *Space) Insert(vec []float32) (model.ObjectID, error) {
	var obj Object
	if err := s.encode(&obj, vec); err != nil {
		return model.InvalidID, err
	}
	if err := s.cfg.Resources.AcquireMemory(s.objectSize); err != nil {
		return model.InvalidID, fmt.Errorf("%w: %w", ErrAllocation, err)
	}

	id, err := s.allocateID()
	if err != nil {
		s.cfg.Resources.ReleaseMemory(s.objectSize)
		return model.InvalidID, err
	}

	for int(id) >= len(s.objects) {
		s.objects = append(s.objects, Object{})
	}
	s.objects[id] = obj
	s.live.Add(uint32(id))
	return id, nil
}

func (s *Space) allocateID() (model.ObjectID, error) {
	if id, ok := s.free.PopMin(); ok {
		return id, nil
	}
	if s.next == 0 {
		return model.InvalidID, fmt.Errorf("%w: object ID space exhausted", ErrAllocation)
	}
	id := s.next
	s.next++
	return id, nil
}

// Allocate returns a transient query object for vec. It must be handed
// back with Release.
func (s *Space) Allocate(vec []float32) (*Object, error) {
	obj := s.queries.Get().(*Object)
	s.outstanding.Add(1)
	if err := s.encode(obj, vec); err != nil {
		s.Release(obj)
		return nil, err
	}
	return obj, nil
}

// Release returns a query object obtained from Allocate.
func (s *Space) Release(obj *Object) {
	if obj == nil {
		return
	}
	s.outstanding.Add(-1)
	s.queries.Put(obj)
}

// Outstanding returns the number of query objects not yet released.
func (s *Space) Outstanding() int64 {
	return s.outstanding.Load()
}

// Remove marks a live object as removed. Its data stays available to
// Distance until Purge.
func (s *Space) Remove(id model.ObjectID) error {
	if !s.IsLive(id) {
		return fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	s.live.Remove(uint32(id))
	s.removed.Add(uint32(id))
	return nil
}

// Purge drops the data of a removed object and frees its ID.
func (s *Space) Purge(id model.ObjectID) error {
	if !s.removed.Contains(uint32(id)) {
		return fmt.Errorf("%w: %d is not removed", ErrNotFound, id)
	}
	s.objects[id] = Object{}
	s.removed.Remove(uint32(id))
	s.free.Set(id)
	s.cfg.Resources.ReleaseMemory(s.objectSize)
	return nil
}

// IsLive reports whether id refers to a stored, not removed object.
func (s *Space) IsLive(id model.ObjectID) bool {
	return id != model.InvalidID && s.live.Contains(uint32(id))
}

// Has reports whether data exists for id, removed or not.
func (s *Space) Has(id model.ObjectID) bool {
	return int(id) < len(s.objects) && id != model.InvalidID && !s.objects[id].empty()
}

// Get returns a copy of a live object.
func (s *Space) Get(id model.ObjectID) (model.Vector, error) {
	if !s.IsLive(id) {
		return model.Vector{}, fmt.Errorf("%w: %d", ErrNotFound, id)
	}
	return s.decode(&s.objects[id]), nil
}

// Distance returns the distance between two stored objects.
func (s *Space) Distance(a, b model.ObjectID) float32 {
	return s.distance(&s.objects[a], &s.objects[b])
}

// DistanceTo returns the distance between a query object and a stored object.
func (s *Space) DistanceTo(q *Object, id model.ObjectID) float32 {
	return s.distance(q, &s.objects[id])
}

// Len returns the number of live objects.
func (s *Space) Len() int {
	return int(s.live.GetCardinality())
}

// Capacity returns one past the largest ID ever assigned.
func (s *Space) Capacity() int {
	return int(s.next)
}

// LiveIDs returns all live IDs in ascending order.
func (s *Space) LiveIDs() []model.ObjectID {
	return toIDs(s.live)
}

// RemovedIDs returns the removed but not yet purged IDs in ascending order.
func (s *Space) RemovedIDs() []model.ObjectID {
	return toIDs(s.removed)
}

// FreeIDs returns the IDs waiting for reuse in ascending order.
func (s *Space) FreeIDs() []model.ObjectID {
	ids := make([]model.ObjectID, 0, s.free.Len())
	s.free.Scan(func(id model.ObjectID) bool {
		ids = append(ids, id)
		return true
	})
	return ids
}

// Close releases the memory accounted for stored objects.
func (s *Space) Close() {
	n := s.live.GetCardinality() + s.removed.GetCardinality()
	s.cfg.Resources.ReleaseMemory(int64(n) * s.objectSize)
}

func toIDs(b *roaring.Bitmap) []model.ObjectID {
	ids := make([]model.ObjectID, 0, b.GetCardinality())
	it := b.Iterator()
	for it.HasNext() {
		ids = append(ids, model.ObjectID(it.Next()))
	}
	return ids
}
