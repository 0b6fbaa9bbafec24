package persistence

import (
	"fmt"
)

// EncodeSection frames payload as a section of the given kind.
func EncodeSection(kind SectionKind, c Compression, payload []byte) ([]byte, error) {
	data, err := compressBlocks(payload, c, DefaultBlockSize)
	if err != nil {
		return nil, fmt.Errorf("compress %v section: %w", kind, err)
	}

	h := Header{
		Magic:       MagicNumber,
		Version:     Version,
		Kind:        kind,
		Compression: c,
		RawLen:      uint64(len(payload)),
		DataLen:     uint64(len(data)),
		Checksum:    CalculateChecksum(data),
	}

	e := NewEncoder(HeaderSize + len(data))
	h.encode(e)
	e.PutRaw(data)
	return e.Bytes(), e.Err()
}

// DecodeSection validates a section of the given kind and returns its
// decoded payload. Every failure wraps ErrCorrupt.
func DecodeSection(kind SectionKind, data []byte) ([]byte, error) {
	if len(data) < HeaderSize {
		return nil, corrupt(fmt.Errorf("%w: section of %d bytes", ErrTruncated, len(data)))
	}

	h, err := decodeHeader(data[:HeaderSize])
	if err != nil {
		return nil, err
	}
	if h.Kind != kind {
		return nil, corrupt(fmt.Errorf("%w: got %v, want %v", ErrKindMismatch, h.Kind, kind))
	}

	body := data[HeaderSize:]
	if uint64(len(body)) != h.DataLen {
		return nil, corrupt(fmt.Errorf("%w: %v payload has %d bytes, header says %d", ErrTruncated, kind, len(body), h.DataLen))
	}
	if err := VerifyChecksum(body, h.Checksum); err != nil {
		return nil, fmt.Errorf("%v section: %w", kind, err)
	}

	payload, err := decompressBlocks(body, h.Compression, h.RawLen)
	if err != nil {
		return nil, corrupt(fmt.Errorf("%v section: %w", kind, err))
	}
	return payload, nil
}
