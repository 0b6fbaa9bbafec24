package persistence

import (
	"bytes"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testPayloads() map[string][]byte {
	r := rand.New(rand.NewSource(7))
	random := make([]byte, 3*DefaultBlockSize/2)
	r.Read(random)

	return map[string][]byte{
		"Empty":        {},
		"Small":        []byte("hello"),
		"Compressible": bytes.Repeat([]byte("graph-and-tree "), 200000),
		"Random":       random,
	}
}

func TestSectionRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		for name, payload := range testPayloads() {
			t.Run(c.String()+"/"+name, func(t *testing.T) {
				data, err := EncodeSection(SectionGraph, c, payload)
				require.NoError(t, err)

				got, err := DecodeSection(SectionGraph, data)
				require.NoError(t, err)
				assert.True(t, bytes.Equal(payload, got))

				again, err := EncodeSection(SectionGraph, c, got)
				require.NoError(t, err)
				assert.Equal(t, data, again, "encoding must be deterministic")
			})
		}
	}
}

func TestSectionCompressionShrinks(t *testing.T) {
	payload := testPayloads()["Compressible"]

	raw, err := EncodeSection(SectionObjects, CompressionNone, payload)
	require.NoError(t, err)
	lz, err := EncodeSection(SectionObjects, CompressionLZ4, payload)
	require.NoError(t, err)
	zs, err := EncodeSection(SectionObjects, CompressionZSTD, payload)
	require.NoError(t, err)

	assert.Less(t, len(lz), len(raw))
	assert.Less(t, len(zs), len(raw))
}

func TestDecodeSectionCorruption(t *testing.T) {
	payload := []byte("some tree nodes")
	data, err := EncodeSection(SectionTree, CompressionNone, payload)
	require.NoError(t, err)

	t.Run("FlippedPayloadBit", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[len(bad)-1] ^= 0x01
		_, err := DecodeSection(SectionTree, bad)
		assert.ErrorIs(t, err, ErrCorrupt)
		var mismatch *ChecksumMismatchError
		assert.ErrorAs(t, err, &mismatch)
	})

	t.Run("WrongKind", func(t *testing.T) {
		_, err := DecodeSection(SectionGraph, data)
		assert.ErrorIs(t, err, ErrCorrupt)
		assert.ErrorIs(t, err, ErrKindMismatch)
	})

	t.Run("BadMagic", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[0] ^= 0xFF
		_, err := DecodeSection(SectionTree, bad)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("BadVersion", func(t *testing.T) {
		bad := bytes.Clone(data)
		bad[4] = 0x7F
		_, err := DecodeSection(SectionTree, bad)
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("Truncated", func(t *testing.T) {
		_, err := DecodeSection(SectionTree, data[:len(data)-3])
		assert.ErrorIs(t, err, ErrCorrupt)
		_, err = DecodeSection(SectionTree, data[:10])
		assert.ErrorIs(t, err, ErrTruncated)
	})
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("brotli")
	assert.Error(t, err)
}
