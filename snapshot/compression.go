package snapshot

import (
	"bytes"
	"fmt"
	"io"
	"sync"

	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
)

// Compression selects how the cell body is encoded.
type Compression uint8

const (
	// CompressionNone stores cells as-is.
	CompressionNone Compression = 0
	// CompressionLZ4 uses LZ4 block compression.
	CompressionLZ4 Compression = 1
	// CompressionZSTD uses zstd.
	CompressionZSTD Compression = 2
)

func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZ4:
		return "lz4"
	case CompressionZSTD:
		return "zstd"
	default:
		return fmt.Sprintf("Compression(%d)", uint8(c))
	}
}

func (c Compression) valid() bool {
	return c <= CompressionZSTD
}

var (
	zstdEncoderPool sync.Pool
	zstdDecoderPool sync.Pool
)

func getZstdEncoder() (*zstd.Encoder, error) {
	if v := zstdEncoderPool.Get(); v != nil {
		return v.(*zstd.Encoder), nil
	}
	return zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.SpeedDefault))
}

func getZstdDecoder() (*zstd.Decoder, error) {
	if v := zstdDecoderPool.Get(); v != nil {
		return v.(*zstd.Decoder), nil
	}
	return zstd.NewReader(nil, zstd.WithDecoderConcurrency(1))
}

// compress encodes raw with c. It falls back to CompressionNone, returning
// raw itself, when the encoded form would not be smaller.
func compress(raw []byte, c Compression) ([]byte, Compression, error) {
	if len(raw) == 0 {
		return raw, CompressionNone, nil
	}

	var out []byte
	switch c {
	case CompressionNone:
		return raw, CompressionNone, nil
	case CompressionLZ4:
		buf := make([]byte, lz4.CompressBlockBound(len(raw)))
		n, err := lz4.CompressBlock(raw, buf, nil)
		if err != nil {
			return nil, 0, fmt.Errorf("snapshot: lz4 compress: %w", err)
		}
		out = buf[:n]
	case CompressionZSTD:
		enc, err := getZstdEncoder()
		if err != nil {
			return nil, 0, fmt.Errorf("snapshot: zstd encoder: %w", err)
		}
		out = enc.EncodeAll(raw, nil)
		zstdEncoderPool.Put(enc)
	default:
		return nil, 0, fmt.Errorf("snapshot: unknown compression %d", c)
	}

	// lz4 reports incompressible input as n == 0.
	if len(out) == 0 || len(out) >= len(raw) {
		return raw, CompressionNone, nil
	}
	return out, c, nil
}

// lz4MaxRatio is the largest expansion an LZ4 block can encode: each
// length-extension byte adds at most 255 bytes of output.
const lz4MaxRatio = 255

// decompress decodes body, which must expand to exactly rawSize bytes.
// Allocation tracks the data actually present in body, never rawSize alone.
func decompress(body []byte, c Compression, rawSize int) ([]byte, error) {
	if rawSize == 0 {
		if len(body) != 0 {
			return nil, fmt.Errorf("%w: body for zero cells", ErrCorrupt)
		}
		return nil, nil
	}

	switch c {
	case CompressionNone:
		if len(body) != rawSize {
			return nil, fmt.Errorf("%w: body is %d bytes, want %d", ErrCorrupt, len(body), rawSize)
		}
		return body, nil
	case CompressionLZ4:
		if rawSize/lz4MaxRatio > len(body) {
			return nil, fmt.Errorf("%w: lz4 body of %d bytes cannot expand to %d", ErrCorrupt, len(body), rawSize)
		}
		raw := make([]byte, rawSize)
		n, err := lz4.UncompressBlock(body, raw)
		if err != nil {
			return nil, fmt.Errorf("%w: lz4: %w", ErrCorrupt, err)
		}
		if n != rawSize {
			return nil, fmt.Errorf("%w: lz4 decoded %d bytes, want %d", ErrCorrupt, n, rawSize)
		}
		return raw, nil
	case CompressionZSTD:
		dec, err := getZstdDecoder()
		if err != nil {
			return nil, fmt.Errorf("snapshot: zstd decoder: %w", err)
		}
		defer func() {
			_ = dec.Reset(nil)
			zstdDecoderPool.Put(dec)
		}()

		if err := dec.Reset(bytes.NewReader(body)); err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		// One byte past rawSize exposes an oversized frame.
		raw, err := io.ReadAll(io.LimitReader(dec, int64(rawSize)+1))
		if err != nil {
			return nil, fmt.Errorf("%w: zstd: %w", ErrCorrupt, err)
		}
		if len(raw) != rawSize {
			return nil, fmt.Errorf("%w: zstd decoded %d bytes, want %d", ErrCorrupt, len(raw), rawSize)
		}
		return raw, nil
	default:
		return nil, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, c)
	}
}
