package persistence

import (
	"errors"
	"fmt"
)

const (
	// MagicNumber identifies section files (ASCII: "NGT1").
	MagicNumber = 0x4E475431
	// Version is the current section format version.
	Version = 1

	// HeaderSize is the encoded size of a Header.
	HeaderSize = 32
)

// SectionKind identifies the content of a section.
type SectionKind uint8

const (
	SectionObjects SectionKind = 1
	SectionGraph   SectionKind = 2
	SectionTree    SectionKind = 3
)

func (k SectionKind) String() string {
	switch k {
	case SectionObjects:
		return "objects"
	case SectionGraph:
		return "graph"
	case SectionTree:
		return "tree"
	default:
		return fmt.Sprintf("unknown(%d)", k)
	}
}

var (
	// ErrCorrupt is wrapped by every error caused by unreadable data.
	ErrCorrupt = errors.New("corrupt data")

	ErrInvalidMagic   = errors.New("invalid magic number")
	ErrInvalidVersion = errors.New("unsupported version")
	ErrKindMismatch   = errors.New("unexpected section kind")
	ErrTruncated      = errors.New("truncated data")
)

func corrupt(err error) error {
	return fmt.Errorf("%w: %w", ErrCorrupt, err)
}

// Header is the fixed-size header at the start of every section.
type Header struct {
	Magic       uint32
	Version     uint16
	Kind        SectionKind
	Compression Compression
	RawLen      uint64
	DataLen     uint64
	Checksum    uint32
	Reserved    uint32
}

func (h *Header) encode(e *Encoder) {
	e.PutUint32(h.Magic)
	e.PutUint16(h.Version)
	e.PutUint8(uint8(h.Kind))
	e.PutUint8(uint8(h.Compression))
	e.PutUint64(h.RawLen)
	e.PutUint64(h.DataLen)
	e.PutUint32(h.Checksum)
	e.PutUint32(h.Reserved)
}

func decodeHeader(data []byte) (Header, error) {
	d := NewDecoder(data)
	h := Header{
		Magic:       d.Uint32(),
		Version:     d.Uint16(),
		Kind:        SectionKind(d.Uint8()),
		Compression: Compression(d.Uint8()),
		RawLen:      d.Uint64(),
		DataLen:     d.Uint64(),
		Checksum:    d.Uint32(),
		Reserved:    d.Uint32(),
	}
	if err := d.Err(); err != nil {
		return h, err
	}
	if h.Magic != MagicNumber {
		return h, corrupt(fmt.Errorf("%w: got 0x%08x", ErrInvalidMagic, h.Magic))
	}
	if h.Version != Version {
		return h, corrupt(fmt.Errorf("%w: got %d", ErrInvalidVersion, h.Version))
	}
	return h, nil
}
