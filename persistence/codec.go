package persistence

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/ngtgo/internal/conv"
)

// Encoder appends little-endian values to a byte slice.
type Encoder struct {
	buf []byte
	err error
}

// NewEncoder creates an encoder with the given initial capacity.
func NewEncoder(capacity int) *Encoder {
	return &Encoder{buf: make([]byte, 0, capacity)}
}

// Bytes returns the encoded data.
func (e *Encoder) Bytes() []byte { return e.buf }

// Err returns the first error met while encoding.
func (e *Encoder) Err() error { return e.err }

func (e *Encoder) PutUint8(v uint8) { e.buf = append(e.buf, v) }

func (e *Encoder) PutUint16(v uint16) { e.buf = binary.LittleEndian.AppendUint16(e.buf, v) }

func (e *Encoder) PutUint32(v uint32) { e.buf = binary.LittleEndian.AppendUint32(e.buf, v) }

func (e *Encoder) PutUint64(v uint64) { e.buf = binary.LittleEndian.AppendUint64(e.buf, v) }

func (e *Encoder) PutFloat32(v float32) { e.PutUint32(math.Float32bits(v)) }

func (e *Encoder) PutBool(v bool) {
	if v {
		e.PutUint8(1)
		return
	}
	e.PutUint8(0)
}

// PutLen writes a length or count as u32. Values that do not fit fail the
// encoder.
func (e *Encoder) PutLen(n int) {
	v, err := conv.IntToUint32(n)
	if err != nil && e.err == nil {
		e.err = err
	}
	e.PutUint32(v)
}

// PutFloat32s writes values without a length prefix.
func (e *Encoder) PutFloat32s(v []float32) {
	for _, x := range v {
		e.PutFloat32(x)
	}
}

// PutUint16s writes values without a length prefix.
func (e *Encoder) PutUint16s(v []uint16) {
	for _, x := range v {
		e.PutUint16(x)
	}
}

// PutRaw writes bytes without a length prefix.
func (e *Encoder) PutRaw(v []byte) { e.buf = append(e.buf, v...) }

// PutBytes writes a u32 length prefix followed by v.
func (e *Encoder) PutBytes(v []byte) {
	e.PutLen(len(v))
	e.PutRaw(v)
}

// PutBitmap writes a run-optimized portable roaring bitmap with a length prefix.
func (e *Encoder) PutBitmap(b *roaring.Bitmap) {
	if e.err != nil {
		return
	}
	c := b.Clone()
	c.RunOptimize()
	data, err := c.ToBytes()
	if err != nil {
		e.err = err
		return
	}
	e.PutBytes(data)
}

// Decoder reads little-endian values. After the first failure every
// read returns a zero value and Err reports the failure.
type Decoder struct {
	data []byte
	off  int
	err  error
}

// NewDecoder creates a decoder over data.
func NewDecoder(data []byte) *Decoder {
	return &Decoder{data: data}
}

// Err returns the first decoding error wrapped in ErrCorrupt.
func (d *Decoder) Err() error {
	if d.err == nil {
		return nil
	}
	return corrupt(d.err)
}

// Remaining returns the number of unread bytes.
func (d *Decoder) Remaining() int { return len(d.data) - d.off }

// Fail records err unless an earlier error exists.
func (d *Decoder) Fail(err error) {
	if d.err == nil {
		d.err = err
	}
}

func (d *Decoder) take(n int) []byte {
	if d.err != nil {
		return nil
	}
	if n < 0 || d.off+n > len(d.data) {
		d.err = fmt.Errorf("%w: need %d bytes at offset %d, have %d", ErrTruncated, n, d.off, len(d.data)-d.off)
		return nil
	}
	b := d.data[d.off : d.off+n]
	d.off += n
	return b
}

func (d *Decoder) Uint8() uint8 {
	if b := d.take(1); b != nil {
		return b[0]
	}
	return 0
}

func (d *Decoder) Uint16() uint16 {
	if b := d.take(2); b != nil {
		return binary.LittleEndian.Uint16(b)
	}
	return 0
}

func (d *Decoder) Uint32() uint32 {
	if b := d.take(4); b != nil {
		return binary.LittleEndian.Uint32(b)
	}
	return 0
}

func (d *Decoder) Uint64() uint64 {
	if b := d.take(8); b != nil {
		return binary.LittleEndian.Uint64(b)
	}
	return 0
}

// Len reads a u32 length or count written by PutLen.
func (d *Decoder) Len() int {
	n, err := conv.Uint32ToInt(d.Uint32())
	if err != nil {
		d.Fail(err)
	}
	return n
}

func (d *Decoder) Float32() float32 { return math.Float32frombits(d.Uint32()) }

func (d *Decoder) Bool() bool { return d.Uint8() != 0 }

// Float32s reads n values.
func (d *Decoder) Float32s(n int) []float32 {
	b := d.take(4 * n)
	if b == nil {
		return nil
	}
	out := make([]float32, n)
	for i := range out {
		out[i] = math.Float32frombits(binary.LittleEndian.Uint32(b[4*i:]))
	}
	return out
}

// Uint16s reads n values.
func (d *Decoder) Uint16s(n int) []uint16 {
	b := d.take(2 * n)
	if b == nil {
		return nil
	}
	out := make([]uint16, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint16(b[2*i:])
	}
	return out
}

// Raw reads n bytes into a new slice.
func (d *Decoder) Raw(n int) []byte {
	b := d.take(n)
	if b == nil {
		return nil
	}
	out := make([]byte, n)
	copy(out, b)
	return out
}

// Bytes reads a u32 length-prefixed byte slice.
func (d *Decoder) Bytes() []byte {
	return d.Raw(d.Len())
}

// Bitmap reads a length-prefixed roaring bitmap.
func (d *Decoder) Bitmap() *roaring.Bitmap {
	data := d.Bytes()
	b := roaring.New()
	if d.err != nil {
		return b
	}
	if err := b.UnmarshalBinary(data); err != nil {
		d.Fail(err)
	}
	return b
}
