package objectspace

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ngtgo/distance"
	"github.com/hupe1980/ngtgo/model"
	"github.com/hupe1980/ngtgo/persistence"
)

// MarshalBinary encodes the space. Encoding the same state always yields
// the same bytes.
func (s *Space) MarshalBinary() ([]byte, error) {
	stored := roaring.Or(s.live, s.removed)

	e := persistence.NewEncoder(64 + int(stored.GetCardinality())*int(s.objectSize))
	e.PutLen(s.cfg.Dimension)
	e.PutUint8(uint8(s.cfg.ObjectType))
	e.PutUint8(uint8(s.cfg.Metric))
	e.PutUint32(uint32(s.next))
	e.PutBitmap(s.live)
	e.PutBitmap(s.removed)

	free := s.FreeIDs()
	e.PutLen(len(free))
	for _, id := range free {
		e.PutUint32(uint32(id))
	}

	it := stored.Iterator()
	for it.HasNext() {
		o := &s.objects[it.Next()]
		switch s.cfg.ObjectType {
		case model.ObjectTypeUint8:
			e.PutRaw(o.u8)
		case model.ObjectTypeFloat16:
			e.PutUint16s(o.f16)
		default:
			e.PutFloat32s(o.f32)
		}
	}
	return e.Bytes(), e.Err()
}

// Decode restores a space encoded by MarshalBinary. The encoded dimension,
// object type and metric must match cfg.
func Decode(cfg Config, data []byte) (*Space, error) {
	d := persistence.NewDecoder(data)
	dim := d.Len()
	objType := model.ObjectType(d.Uint8())
	metric := distance.Metric(d.Uint8())
	next := model.ObjectID(d.Uint32())
	live := d.Bitmap()
	removed := d.Bitmap()
	nfree := d.Len()
	if err := d.Err(); err != nil {
		return nil, err
	}

	if dim != cfg.Dimension || objType != cfg.ObjectType || metric != cfg.Metric {
		return nil, fmt.Errorf("%w: objects are %d x %v with %v, property says %d x %v with %v",
			persistence.ErrCorrupt, dim, objType, metric, cfg.Dimension, cfg.ObjectType, cfg.Metric)
	}
	if next == 0 || live.Intersects(removed) || live.Contains(0) || removed.Contains(0) {
		return nil, fmt.Errorf("%w: inconsistent object bookkeeping", persistence.ErrCorrupt)
	}
	stored := roaring.Or(live, removed)
	if !stored.IsEmpty() && stored.Maximum() >= uint32(next) {
		return nil, fmt.Errorf("%w: object ID %d beyond counter %d", persistence.ErrCorrupt, stored.Maximum(), next)
	}

	s, err := New(cfg)
	if err != nil {
		return nil, err
	}
	s.next = next
	s.live = live
	s.removed = removed

	if nfree > d.Remaining()/4 {
		return nil, fmt.Errorf("%w: free list of %d entries", persistence.ErrCorrupt, nfree)
	}
	for range nfree {
		id := model.ObjectID(d.Uint32())
		if id == 0 || id >= next || stored.Contains(uint32(id)) {
			return nil, fmt.Errorf("%w: invalid free ID %d", persistence.ErrCorrupt, id)
		}
		s.free.Set(id)
	}

	count := int64(stored.GetCardinality())
	if int64(d.Remaining()) != count*s.objectSize {
		return nil, fmt.Errorf("%w: %d bytes of object data for %d objects", persistence.ErrCorrupt, d.Remaining(), count)
	}
	if err := cfg.Resources.AcquireMemory(count * s.objectSize); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrAllocation, err)
	}

	s.objects = make([]Object, int(next))
	it := stored.Iterator()
	for it.HasNext() {
		o := &s.objects[it.Next()]
		switch cfg.ObjectType {
		case model.ObjectTypeUint8:
			o.u8 = d.Raw(dim)
		case model.ObjectTypeFloat16:
			o.f16 = d.Uint16s(dim)
		default:
			o.f32 = d.Float32s(dim)
		}
	}
	if err := d.Err(); err != nil {
		cfg.Resources.ReleaseMemory(count * s.objectSize)
		return nil, err
	}
	return s, nil
}
