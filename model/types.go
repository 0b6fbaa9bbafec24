package model

import (
	"fmt"
	"strings"
)

// ObjectID identifies an object for its whole lifetime in an index.
type ObjectID uint32

// InvalidID is never assigned to an object.
const InvalidID ObjectID = 0

// ObjectType is the element type used to store objects.
type ObjectType uint8

const (
	// ObjectTypeFloat stores 32-bit floats.
	ObjectTypeFloat ObjectType = iota
	// ObjectTypeUint8 stores unsigned bytes (values are rounded and clamped).
	ObjectTypeUint8
	// ObjectTypeFloat16 stores IEEE 754 half precision floats.
	ObjectTypeFloat16
)

// ElementSize returns the number of bytes per dimension.
func (t ObjectType) ElementSize() int {
	switch t {
	case ObjectTypeUint8:
		return 1
	case ObjectTypeFloat16:
		return 2
	default:
		return 4
	}
}

// IsFloat reports whether the type holds floating point values.
func (t ObjectType) IsFloat() bool {
	return t == ObjectTypeFloat || t == ObjectTypeFloat16
}

// Valid reports whether t is a known object type.
func (t ObjectType) Valid() bool {
	return t <= ObjectTypeFloat16
}

func (t ObjectType) String() string {
	switch t {
	case ObjectTypeFloat:
		return "Float"
	case ObjectTypeUint8:
		return "Uint8"
	case ObjectTypeFloat16:
		return "Float16"
	default:
		return fmt.Sprintf("Unknown(%d)", t)
	}
}

// ParseObjectType parses the case-insensitive name of an object type.
func ParseObjectType(s string) (ObjectType, error) {
	switch strings.ToLower(s) {
	case "float", "float32":
		return ObjectTypeFloat, nil
	case "uint8", "byte":
		return ObjectTypeUint8, nil
	case "float16", "half":
		return ObjectTypeFloat16, nil
	default:
		return 0, fmt.Errorf("unknown object type %q", s)
	}
}

// MarshalText implements encoding.TextMarshaler.
func (t ObjectType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("unknown object type %d", t)
	}
	return []byte(strings.ToLower(t.String())), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (t *ObjectType) UnmarshalText(text []byte) error {
	v, err := ParseObjectType(string(text))
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// Edge links a graph node to a neighbor at the given distance.
type Edge struct {
	ID       ObjectID
	Distance float32
}

// Less orders edges by distance, breaking ties by ID.
func (e Edge) Less(o Edge) bool {
	if e.Distance != o.Distance {
		return e.Distance < o.Distance
	}
	return e.ID < o.ID
}

// CompareEdges is a three-way comparison suitable for slices.SortFunc.
func CompareEdges(a, b Edge) int {
	switch {
	case a.Less(b):
		return -1
	case b.Less(a):
		return 1
	default:
		return 0
	}
}

// Vector is a copy of a stored object.
//
// Float and Float16 objects are exposed through Float32, Uint8 objects
// through Uint8.
type Vector struct {
	Type    ObjectType
	Float32 []float32
	Uint8   []uint8
}

// Dim returns the dimensionality of the vector.
func (v Vector) Dim() int {
	if v.Type == ObjectTypeUint8 {
		return len(v.Uint8)
	}
	return len(v.Float32)
}

// AsFloat32 returns the vector as float32 values, converting integers.
func (v Vector) AsFloat32() []float32 {
	if v.Type != ObjectTypeUint8 {
		out := make([]float32, len(v.Float32))
		copy(out, v.Float32)
		return out
	}
	out := make([]float32, len(v.Uint8))
	for i, b := range v.Uint8 {
		out[i] = float32(b)
	}
	return out
}

// AsFloat64 returns the vector as float64 values.
func (v Vector) AsFloat64() []float64 {
	f := v.AsFloat32()
	out := make([]float64, len(f))
	for i, x := range f {
		out[i] = float64(x)
	}
	return out
}
