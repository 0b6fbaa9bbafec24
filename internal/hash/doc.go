// Package hash holds the checksum shared by persisted sections and object
// store uploads.
//
// Both use CRC32-Castagnoli. hash/crc32 switches to the SSE4.2 or ARM CRC
// instructions when the CPU has them.
package hash
