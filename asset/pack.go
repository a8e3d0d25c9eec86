package asset

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/hupe1980/triton/internal/conv"
	"github.com/hupe1980/triton/internal/hash"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// ErrCorrupt is returned when a packed blob fails validation.
var ErrCorrupt = errors.New("asset: corrupt pack")

// Compression selects the payload codec of a packed blob.
type Compression uint8

const (
	// CompressionNone stores the payload verbatim.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression (fast decode).
	CompressionLZ4 Compression = 1
	// CompressionZstd uses Zstandard (better ratio).
	CompressionZstd Compression = 2
)

// String returns the codec name.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZstd:
		return "zstd"
	default:
		return fmt.Sprintf("compression(%d)", uint8(c))
	}
}

// ParseCompression maps a codec name to its Compression.
func ParseCompression(s string) (Compression, error) {
	switch s {
	case "none", "":
		return CompressionNone, nil
	case "lz4":
		return CompressionLZ4, nil
	case "zstd":
		return CompressionZstd, nil
	default:
		return 0, fmt.Errorf("asset: unknown compression %q", s)
	}
}

const (
	// HeaderSize is the size of the pack header in bytes.
	HeaderSize = 32
	// MaxRawSize bounds the decoded size a compressed header may claim.
	MaxRawSize = 1<<32 - 1

	packVersion = 1
)

var packMagic = [4]byte{'T', 'P', 'A', 'K'}

// Header describes a packed blob.
type Header struct {
	Compression Compression
	RawSize     uint64
	PayloadSize uint64
	Checksum    uint32
}

func (h Header) encode(dst []byte) {
	copy(dst[0:4], packMagic[:])
	dst[4] = packVersion
	dst[5] = byte(h.Compression)
	binary.LittleEndian.PutUint16(dst[6:], 0)
	binary.LittleEndian.PutUint64(dst[8:], h.RawSize)
	binary.LittleEndian.PutUint64(dst[16:], h.PayloadSize)
	binary.LittleEndian.PutUint32(dst[24:], h.Checksum)
	binary.LittleEndian.PutUint32(dst[28:], 0)
}

// IsPacked reports whether b starts with the pack magic.
func IsPacked(b []byte) bool {
	return len(b) >= len(packMagic) && [4]byte(b[:4]) == packMagic
}

// ParseHeader decodes the header at the start of b.
func ParseHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize || !IsPacked(b) {
		return Header{}, fmt.Errorf("%w: missing header", ErrCorrupt)
	}
	if b[4] != packVersion {
		return Header{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, b[4])
	}

	h := Header{
		Compression: Compression(b[5]),
		RawSize:     binary.LittleEndian.Uint64(b[8:]),
		PayloadSize: binary.LittleEndian.Uint64(b[16:]),
		Checksum:    binary.LittleEndian.Uint32(b[24:]),
	}
	switch h.Compression {
	case CompressionNone:
		if h.RawSize != h.PayloadSize {
			return Header{}, fmt.Errorf("%w: stored size %d != raw size %d", ErrCorrupt, h.PayloadSize, h.RawSize)
		}
	case CompressionLZ4, CompressionZstd:
		if h.RawSize > MaxRawSize {
			return Header{}, fmt.Errorf("%w: raw size %d exceeds %d", ErrCorrupt, h.RawSize, uint64(MaxRawSize))
		}
	default:
		return Header{}, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, b[5])
	}
	return h, nil
}

// ZSTD encoder/decoder pools
var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedBetterCompression))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

// Pack wraps data in a pack header, compressing it with c. When compression
// saves less than 10% the payload is stored uncompressed.
func Pack(data []byte, c Compression) ([]byte, error) {
	var payload []byte

	switch c {
	case CompressionNone:
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(data)))
		n, err := lz4.CompressBlock(data, buf, nil)
		if err != nil {
			return nil, fmt.Errorf("asset: lz4: %w", err)
		}
		payload = buf[:n]
	case CompressionZstd:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, fmt.Errorf("asset: zstd: %w", err)
		}
		payload = enc.EncodeAll(data, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, fmt.Errorf("asset: unknown compression %d", uint8(c))
	}

	// n == 0 from lz4 means incompressible.
	if c == CompressionNone || len(payload) == 0 || float64(len(payload)) > float64(len(data))*0.9 {
		c = CompressionNone
		payload = data
	}

	h := Header{
		Compression: c,
		RawSize:     uint64(len(data)),
		PayloadSize: uint64(len(payload)),
		Checksum:    hash.CRC32C(payload),
	}

	out := make([]byte, HeaderSize+len(payload))
	h.encode(out)
	copy(out[HeaderSize:], payload)
	return out, nil
}

// Unpack decodes a packed blob into a new heap buffer.
func Unpack(blob []byte) ([]byte, error) {
	h, err := ParseHeader(blob)
	if err != nil {
		return nil, err
	}
	if uint64(len(blob)-HeaderSize) != h.PayloadSize {
		return nil, fmt.Errorf("%w: payload is %d bytes, header says %d", ErrCorrupt, len(blob)-HeaderSize, h.PayloadSize)
	}
	n, err := conv.Uint64ToInt(h.RawSize)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	dst := make([]byte, n)
	if err := decodeInto(h, blob[HeaderSize:], dst); err != nil {
		return nil, err
	}
	return dst, nil
}

// decodeInto verifies payload and decodes it into dst, which must be exactly
// h.RawSize bytes.
func decodeInto(h Header, payload, dst []byte) error {
	if uint64(len(payload)) != h.PayloadSize || uint64(len(dst)) != h.RawSize {
		return fmt.Errorf("%w: size mismatch", ErrCorrupt)
	}
	if sum := hash.CRC32C(payload); sum != h.Checksum {
		return fmt.Errorf("%w: checksum %08x, want %08x", ErrCorrupt, sum, h.Checksum)
	}

	switch h.Compression {
	case CompressionNone:
		copy(dst, payload)
		return nil

	case CompressionLZ4:
		n, err := lz4.UncompressBlock(payload, dst)
		if err != nil {
			return fmt.Errorf("%w: lz4: %v", ErrCorrupt, err)
		}
		if n != len(dst) {
			return fmt.Errorf("%w: decoded %d bytes, want %d", ErrCorrupt, n, len(dst))
		}
		return nil

	case CompressionZstd:
		dec, err := getZstdDecoder()
		if err != nil {
			return fmt.Errorf("asset: zstd: %w", err)
		}
		defer zstdDecoderPool.Put(dec)

		decoded, err := dec.DecodeAll(payload, dst[:0])
		if err != nil {
			return fmt.Errorf("%w: zstd: %v", ErrCorrupt, err)
		}
		if len(decoded) != len(dst) {
			return fmt.Errorf("%w: decoded %d bytes, want %d", ErrCorrupt, len(decoded), len(dst))
		}
		copy(dst, decoded)
		return nil

	default:
		return fmt.Errorf("%w: unknown compression %d", ErrCorrupt, uint8(h.Compression))
	}
}
