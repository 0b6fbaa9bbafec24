package objectspace

import (
	"fmt"
	"math"

	"github.com/hupe1980/ngtgo/distance"
	"github.com/hupe1980/ngtgo/model"
	"github.com/x448/float16"
)

// Object is a vector encoded in the element type of its space. Exactly one
// of the slices is set.
type Object struct {
	f32 []float32
	f16 []uint16
	u8  []uint8
}

func (o *Object) empty() bool {
	return o.f32 == nil && o.f16 == nil && o.u8 == nil
}

// Quantize converts x to a byte by rounding half away from zero and
// clamping to [0, 255]. NaN maps to 0.
func Quantize(x float32) uint8 {
	if math.IsNaN(float64(x)) {
		return 0
	}
	r := math.Round(float64(x))
	switch {
	case r <= 0:
		return 0
	case r >= 255:
		return 255
	default:
		return uint8(r)
	}
}

func firstNonFinite(vec []float32) (int, bool) {
	for i, x := range vec {
		if math.IsNaN(float64(x)) || math.IsInf(float64(x), 0) {
			return i, true
		}
	}
	return 0, false
}

// encode converts vec into dst, reusing dst's buffers when possible.
func (s *Space) encode(dst *Object, vec []float32) error {
	if len(vec) != s.cfg.Dimension {
		return &DimensionError{Expected: s.cfg.Dimension, Actual: len(vec)}
	}

	if s.cfg.ObjectType != model.ObjectTypeUint8 {
		if i, ok := firstNonFinite(vec); ok {
			return fmt.Errorf("%w: element %d is %v", ErrNonFinite, i, vec[i])
		}
	}

	switch s.cfg.ObjectType {
	case model.ObjectTypeUint8:
		dst.u8 = resize(dst.u8, len(vec))
		for i, x := range vec {
			dst.u8[i] = Quantize(x)
		}
	case model.ObjectTypeFloat16:
		src := vec
		if s.normalize {
			src = append([]float32(nil), vec...)
			if !distance.Normalize(src) {
				return ErrZeroVector
			}
		}
		dst.f16 = resize(dst.f16, len(src))
		for i, x := range src {
			h := float16.Fromfloat32(x)
			if h.IsInf(0) {
				return fmt.Errorf("%w: element %d (%v) overflows float16", ErrNonFinite, i, x)
			}
			dst.f16[i] = h.Bits()
		}
	default:
		dst.f32 = resize(dst.f32, len(vec))
		copy(dst.f32, vec)
		if s.normalize && !distance.Normalize(dst.f32) {
			return ErrZeroVector
		}
	}
	return nil
}

func (s *Space) decode(o *Object) model.Vector {
	v := model.Vector{Type: s.cfg.ObjectType}
	switch s.cfg.ObjectType {
	case model.ObjectTypeUint8:
		v.Uint8 = append([]uint8(nil), o.u8...)
	case model.ObjectTypeFloat16:
		v.Float32 = make([]float32, len(o.f16))
		for i, h := range o.f16 {
			v.Float32[i] = float16.Frombits(h).Float32()
		}
	default:
		v.Float32 = append([]float32(nil), o.f32...)
	}
	return v
}

func (s *Space) distance(a, b *Object) float32 {
	switch s.cfg.ObjectType {
	case model.ObjectTypeUint8:
		return s.u8Func(a.u8, b.u8)
	case model.ObjectTypeFloat16:
		return s.f16Func(a.f16, b.f16)
	default:
		return s.f32Func(a.f32, b.f32)
	}
}

func resize[T any](buf []T, n int) []T {
	if cap(buf) >= n {
		return buf[:n]
	}
	return make([]T, n)
}
