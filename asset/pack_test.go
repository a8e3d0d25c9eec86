package asset

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/hupe1980/triton/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func compressible(n int) []byte {
	return bytes.Repeat([]byte("triton asset payload "), n/21+1)[:n]
}

func TestPack_RoundTrip(t *testing.T) {
	data := compressible(64 * 1024)

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		t.Run(c.String(), func(t *testing.T) {
			packed, err := Pack(data, c)
			require.NoError(t, err)
			require.True(t, IsPacked(packed))

			h, err := ParseHeader(packed)
			require.NoError(t, err)
			assert.Equal(t, c, h.Compression)
			assert.Equal(t, uint64(len(data)), h.RawSize)
			assert.Equal(t, uint64(len(packed)-HeaderSize), h.PayloadSize)
			if c != CompressionNone {
				assert.Less(t, len(packed), len(data)/2)
			}

			out, err := Unpack(packed)
			require.NoError(t, err)
			assert.Equal(t, data, out)
		})
	}
}

func TestPack_IncompressibleFallsBackToNone(t *testing.T) {
	data := testutil.NewRNG(7).Bytes(4096)

	for _, c := range []Compression{CompressionLZ4, CompressionZstd} {
		packed, err := Pack(data, c)
		require.NoError(t, err)

		h, err := ParseHeader(packed)
		require.NoError(t, err)
		assert.Equal(t, CompressionNone, h.Compression, c.String())

		out, err := Unpack(packed)
		require.NoError(t, err)
		assert.Equal(t, data, out)
	}
}

func TestPack_Empty(t *testing.T) {
	packed, err := Pack(nil, CompressionZstd)
	require.NoError(t, err)
	assert.Len(t, packed, HeaderSize)

	out, err := Unpack(packed)
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestUnpack_Corrupt(t *testing.T) {
	packed, err := Pack(compressible(8192), CompressionLZ4)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func([]byte) []byte
	}{
		{"payload bit flip", func(b []byte) []byte { b[HeaderSize+10] ^= 0xff; return b }},
		{"truncated", func(b []byte) []byte { return b[:len(b)-1] }},
		{"version", func(b []byte) []byte { b[4] = 9; return b }},
		{"compression", func(b []byte) []byte { b[5] = 42; return b }},
		{"short header", func(b []byte) []byte { return b[:HeaderSize-1] }},
		{"huge raw size", func(b []byte) []byte {
			binary.LittleEndian.PutUint64(b[8:], 1<<62)
			return b
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			blob := tt.mutate(bytes.Clone(packed))
			_, err := Unpack(blob)
			assert.ErrorIs(t, err, ErrCorrupt)
		})
	}
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZstd} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}

	_, err := ParseCompression("brotli")
	assert.Error(t, err)
	assert.Equal(t, "compression(9)", Compression(9).String())
}
