package hash

import (
	"encoding/binary"
	"hash"
	"hash/crc32"
)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// CRC32C returns the CRC32-Castagnoli checksum of data.
func CRC32C(data []byte) uint32 {
	return crc32.Checksum(data, castagnoli)
}

// AppendCRC32C appends the big-endian checksum of data to dst, the byte
// order object stores expect in checksum headers.
func AppendCRC32C(dst, data []byte) []byte {
	return binary.BigEndian.AppendUint32(dst, CRC32C(data))
}

// NewCRC32C returns a streaming CRC32-Castagnoli hash.
func NewCRC32C() hash.Hash32 {
	return crc32.New(castagnoli)
}
