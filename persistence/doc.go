// Package persistence implements the on-disk section format of an index.
//
// An index is stored as independent sections (objects, graph, tree), each
// with a fixed header:
//
//	magic    u32  "NGT1"
//	version  u16
//	kind     u8   section kind
//	codec    u8   block compression (none, lz4, zstd)
//	rawLen   u64  decoded payload length
//	dataLen  u64  stored payload length
//	checksum u32  CRC32C of the stored payload
//	reserved u32
//
// followed by the payload split into blocks of
// [uncompressed u32][compressed u32, 0 = stored raw][data].
//
// Every decoding failure wraps ErrCorrupt. All integers are little-endian.
package persistence
