package persistence

import (
	"fmt"

	"github.com/hupe1980/ngtgo/internal/hash"
)

// CalculateChecksum returns the CRC32C checksum of a section payload. It
// detects accidental corruption, not tampering.
func CalculateChecksum(data []byte) uint32 {
	return hash.CRC32C(data)
}

// ChecksumMismatchError is returned when checksum verification fails.
type ChecksumMismatchError struct {
	Expected uint32
	Actual   uint32
}

func (e *ChecksumMismatchError) Error() string {
	return fmt.Sprintf("checksum mismatch: expected 0x%08x, got 0x%08x", e.Expected, e.Actual)
}

// Is makes every checksum mismatch match ErrCorrupt.
func (e *ChecksumMismatchError) Is(target error) bool {
	return target == ErrCorrupt
}

// VerifyChecksum returns a *ChecksumMismatchError when data does not hash
// to expected.
func VerifyChecksum(data []byte, expected uint32) error {
	if actual := CalculateChecksum(data); actual != expected {
		return &ChecksumMismatchError{Expected: expected, Actual: actual}
	}
	return nil
}
