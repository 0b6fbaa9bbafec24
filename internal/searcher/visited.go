package searcher

import "github.com/hupe1980/ngtgo/model"

// VisitedSet tracks visited nodes using a bitset and a dirty list for fast reset.
type VisitedSet struct {
	bits  []uint64
	dirty []model.ObjectID
}

// NewVisitedSet creates a new visited set sized for capacity nodes.
func NewVisitedSet(capacity int) *VisitedSet {
	return &VisitedSet{
		bits:  make([]uint64, (capacity+63)/64),
		dirty: make([]model.ObjectID, 0, 128),
	}
}

// Visit marks a node as visited and reports whether it was new.
func (v *VisitedSet) Visit(id model.ObjectID) bool {
	wordIdx := int(id >> 6)
	bitMask := uint64(1) << (id & 63)

	if wordIdx >= len(v.bits) {
		v.grow(wordIdx + 1)
	}

	if v.bits[wordIdx]&bitMask != 0 {
		return false
	}
	v.bits[wordIdx] |= bitMask
	v.dirty = append(v.dirty, id)
	return true
}

// Visited returns true if the node has been visited.
func (v *VisitedSet) Visited(id model.ObjectID) bool {
	wordIdx := int(id >> 6)
	if wordIdx >= len(v.bits) {
		return false
	}
	return v.bits[wordIdx]&(uint64(1)<<(id&63)) != 0
}

// Reset clears the visited status for all nodes visited in the current session.
func (v *VisitedSet) Reset() {
	for _, id := range v.dirty {
		v.bits[int(id>>6)] &^= uint64(1) << (id & 63)
	}
	v.dirty = v.dirty[:0]
}

// Count returns the number of nodes visited since the last reset.
func (v *VisitedSet) Count() int {
	return len(v.dirty)
}

// EnsureCapacity ensures the visited set can hold at least the given number of nodes.
func (v *VisitedSet) EnsureCapacity(capacity int) {
	words := (capacity + 63) / 64
	if words > len(v.bits) {
		v.grow(words)
	}
}

func (v *VisitedSet) grow(newLen int) {
	newBits := make([]uint64, max(len(v.bits)*2, newLen))
	copy(newBits, v.bits)
	v.bits = newBits
}
