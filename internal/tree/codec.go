package tree

import (
	"fmt"

	"github.com/hupe1980/ngtgo/model"
	"github.com/hupe1980/ngtgo/persistence"
)

const (
	tagLeaf  = 0
	tagInner = 1
	tagEmpty = 2
)

// MarshalBinary encodes the tree in pre-order so that a decoded tree
// routes and locates exactly like the original.
func (t *Tree) MarshalBinary() ([]byte, error) {
	e := persistence.NewEncoder(16 + 4*t.size)
	e.PutLen(t.leafSize)
	if t.root == nil {
		e.PutUint8(tagEmpty)
		return e.Bytes(), e.Err()
	}

	var walk func(n *node)
	walk = func(n *node) {
		if n.leaf {
			e.PutUint8(tagLeaf)
			e.PutLen(len(n.ids))
			for _, id := range n.ids {
				e.PutUint32(uint32(id))
			}
			return
		}
		e.PutUint8(tagInner)
		e.PutUint32(uint32(n.pivot))
		e.PutFloat32(n.radius)
		walk(n.inside)
		walk(n.outside)
	}
	walk(t.root)
	return e.Bytes(), e.Err()
}

// Decode restores a tree encoded by MarshalBinary.
func Decode(dist Distancer, data []byte) (*Tree, error) {
	d := persistence.NewDecoder(data)
	t := New(d.Len(), dist)

	var read func(tag uint8, depth int) *node
	read = func(tag uint8, depth int) *node {
		if depth > 1<<16 {
			d.Fail(fmt.Errorf("tree deeper than %d", depth))
			return nil
		}
		switch tag {
		case tagLeaf:
			count := d.Len()
			if count > d.Remaining()/4 {
				d.Fail(fmt.Errorf("leaf of %d IDs in %d bytes", count, d.Remaining()))
				return nil
			}
			n := &node{leaf: true, ids: make([]model.ObjectID, count)}
			for i := range n.ids {
				n.ids[i] = model.ObjectID(d.Uint32())
			}
			t.size += count
			return n
		case tagInner:
			n := &node{pivot: model.ObjectID(d.Uint32()), radius: d.Float32()}
			n.inside = read(d.Uint8(), depth+1)
			n.outside = read(d.Uint8(), depth+1)
			if n.inside == nil || n.outside == nil {
				return nil
			}
			return n
		default:
			d.Fail(fmt.Errorf("unknown tree node tag %d", tag))
			return nil
		}
	}

	if tag := d.Uint8(); tag != tagEmpty {
		t.root = read(tag, 0)
	}
	if err := d.Err(); err != nil {
		return nil, err
	}
	if d.Remaining() != 0 {
		return nil, fmt.Errorf("%w: %d trailing bytes after tree", persistence.ErrCorrupt, d.Remaining())
	}
	return t, nil
}
