package persistence

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression defines the block compression algorithm of a section.
type Compression uint8

const (
	// CompressionNone stores blocks raw.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast).
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses ZSTD block compression (better ratio).
	CompressionZSTD Compression = 2
)

// DefaultBlockSize is the uncompressed size of a payload block.
const DefaultBlockSize = 1 << 20

const blockHeaderSize = 8

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("unknown(%d)", c)
	}
}

// ParseCompression parses "none", "lz4" or "zstd".
func ParseCompression(s string) (Compression, error) {
	switch strings.ToLower(s) {
	case "", "none":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZSTD, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", s)
	}
}

// ZSTD encoder/decoder pools
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() *zstd.Encoder {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder)
	}
	enc, _ := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
	return enc
}

func getZstdDecoder() *zstd.Decoder {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder)
	}
	dec, _ := zstd.NewReader(nil)
	return dec
}

// compressBlocks splits data into blocks and compresses each. A block
// that does not shrink below 90% of its size is stored raw.
func compressBlocks(data []byte, c Compression, blockSize int) ([]byte, error) {
	if blockSize <= 0 {
		blockSize = DefaultBlockSize
	}
	var out bytes.Buffer
	hdr := make([]byte, blockHeaderSize)

	for start := 0; start < len(data); start += blockSize {
		block := data[start:min(start+blockSize, len(data))]

		compressed, err := compressBlock(block, c)
		if err != nil {
			return nil, err
		}

		binary.LittleEndian.PutUint32(hdr[0:], uint32(len(block)))
		if compressed == nil || float64(len(compressed)) > float64(len(block))*0.9 {
			binary.LittleEndian.PutUint32(hdr[4:], 0)
			out.Write(hdr)
			out.Write(block)
			continue
		}
		binary.LittleEndian.PutUint32(hdr[4:], uint32(len(compressed)))
		out.Write(hdr)
		out.Write(compressed)
	}
	return out.Bytes(), nil
}

func compressBlock(block []byte, c Compression) ([]byte, error) {
	switch c {
	case CompressionNone:
		return nil, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(block)))
		n, err := lz4.CompressBlock(block, buf, nil)
		if err != nil {
			return nil, err
		}
		if n == 0 {
			return nil, nil // incompressible
		}
		return buf[:n], nil
	case CompressionZSTD:
		enc := getZstdEncoder()
		defer zstdEncoderPool.Put(enc)
		return enc.EncodeAll(block, nil), nil
	default:
		return nil, fmt.Errorf("unknown compression %d", c)
	}
}

// decompressBlocks reverses compressBlocks. rawLen is the expected
// decoded length.
func decompressBlocks(data []byte, c Compression, rawLen uint64) ([]byte, error) {
	out := make([]byte, 0, min(rawLen, uint64(len(data))*4))
	for off := 0; off < len(data); {
		if off+blockHeaderSize > len(data) {
			return nil, ErrTruncated
		}
		uncompressedSize := int(binary.LittleEndian.Uint32(data[off:]))
		compressedSize := int(binary.LittleEndian.Uint32(data[off+4:]))
		off += blockHeaderSize

		if compressedSize == 0 {
			if off+uncompressedSize > len(data) {
				return nil, ErrTruncated
			}
			out = append(out, data[off:off+uncompressedSize]...)
			off += uncompressedSize
			continue
		}

		if off+compressedSize > len(data) {
			return nil, ErrTruncated
		}
		block, err := decompressBlock(data[off:off+compressedSize], c, uncompressedSize)
		if err != nil {
			return nil, err
		}
		out = append(out, block...)
		off += compressedSize
	}
	if uint64(len(out)) != rawLen {
		return nil, fmt.Errorf("decoded %d bytes, expected %d", len(out), rawLen)
	}
	return out, nil
}

func decompressBlock(block []byte, c Compression, size int) ([]byte, error) {
	result := make([]byte, size)

	switch c {
	case CompressionLZ4:
		n, err := lz4.UncompressBlock(block, result)
		if err != nil {
			return nil, err
		}
		if n != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return result, nil
	case CompressionZSTD:
		dec := getZstdDecoder()
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(block, result[:0])
		if err != nil {
			return nil, err
		}
		if len(decoded) != size {
			return nil, errors.New("decompressed size mismatch")
		}
		return decoded, nil
	default:
		return nil, fmt.Errorf("compressed block in section with compression %v", c)
	}
}
