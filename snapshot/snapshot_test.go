package snapshot

import (
	"bytes"
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"strings"
	"testing"

	"github.com/hupe1980/cellheap/heap"
	"github.com/hupe1980/cellheap/inline"
	"github.com/hupe1980/cellheap/resource"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeap(t *testing.T) *heap.Heap {
	t.Helper()

	h, err := heap.New(heap.WithInitialCells(16))
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func populate(t *testing.T, reg *inline.Registry, n int) map[heap.Addr]string {
	t.Helper()

	want := make(map[heap.Addr]string, n)
	for i := 0; i < n; i++ {
		s := fmt.Sprintf("run %d: %s", i, strings.Repeat("ab", i%7))
		addr, err := reg.WriteString(s)
		require.NoError(t, err)
		want[addr] = s
	}
	return want
}

func encode(t *testing.T, h *heap.Heap, reg *inline.Registry, opts ...Option) []byte {
	t.Helper()

	var buf bytes.Buffer
	n, err := Write(context.Background(), &buf, h, reg, opts...)
	require.NoError(t, err)
	require.Equal(t, int64(buf.Len()), n)
	return buf.Bytes()
}

func TestRoundTrip(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			src := inline.NewRegistry(newHeap(t))
			want := populate(t, src, 500)

			image := encode(t, src.Heap(), src, WithCompression(c))

			hdr, err := ReadHeader(bytes.NewReader(image))
			require.NoError(t, err)
			assert.Equal(t, c, hdr.Compression)
			assert.Equal(t, uint64(src.Heap().Len()), hdr.Cells)
			assert.Less(t, hdr.BodySize, uint64(src.Heap().Len()*heap.Width)+1)

			dst := inline.NewRegistry(newHeap(t))
			require.NoError(t, Read(context.Background(), bytes.NewReader(image), dst.Heap(), dst))

			assert.Equal(t, src.Heap().Bytes(), dst.Heap().Bytes())
			assert.Equal(t, src.Addrs(), dst.Addrs())
			for addr, s := range want {
				v, err := dst.View(addr)
				require.NoError(t, err)
				got, err := v.Text()
				require.NoError(t, err)
				assert.Equal(t, s, got)
			}
		})
	}
}

func TestRoundTrip_EmptyHeap(t *testing.T) {
	src := inline.NewRegistry(newHeap(t))
	image := encode(t, src.Heap(), src, WithCompression(CompressionZSTD))
	hdr, err := ReadHeader(bytes.NewReader(image))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), hdr.Cells)
	assert.Equal(t, uint64(len(image)-headerSize), hdr.IndexSize)

	dst := inline.NewRegistry(newHeap(t))
	require.NoError(t, Read(context.Background(), bytes.NewReader(image), dst.Heap(), dst))
	assert.Equal(t, 0, dst.Heap().Len())
	assert.Equal(t, uint64(0), dst.Count())
}

func TestRoundTrip_WithoutRegistry(t *testing.T) {
	h := newHeap(t)
	addr, err := inline.WriteString(h, "no index")
	require.NoError(t, err)

	image := encode(t, h, nil)

	hdr, err := ReadHeader(bytes.NewReader(image))
	require.NoError(t, err)
	assert.Equal(t, uint64(0), hdr.IndexSize)

	dst := newHeap(t)
	require.NoError(t, Read(context.Background(), bytes.NewReader(image), dst, nil))
	assert.Equal(t, "no index", inline.FromAddr(dst, addr).TextUnchecked())
}

func TestIncompressibleFallsBackToNone(t *testing.T) {
	h := newHeap(t)
	// A single short run does not compress.
	_, err := inline.WriteString(h, "x")
	require.NoError(t, err)

	image := encode(t, h, nil, WithCompression(CompressionLZ4))
	hdr, err := ReadHeader(bytes.NewReader(image))
	require.NoError(t, err)
	assert.Equal(t, CompressionNone, hdr.Compression)
}

func TestWithController(t *testing.T) {
	rc := resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30})
	src := inline.NewRegistry(newHeap(t))
	populate(t, src, 50)

	image := encode(t, src.Heap(), src, WithController(rc), WithCompression(CompressionLZ4))

	dst := inline.NewRegistry(newHeap(t))
	require.NoError(t, Read(context.Background(), bytes.NewReader(image), dst.Heap(), dst, WithController(rc)))
	assert.Equal(t, src.Heap().Bytes(), dst.Heap().Bytes())
}

func TestRead_Errors(t *testing.T) {
	src := inline.NewRegistry(newHeap(t))
	populate(t, src, 20)
	image := encode(t, src.Heap(), src)

	corrupt := func(mut func(b []byte)) []byte {
		b := append([]byte(nil), image...)
		mut(b)
		return b
	}

	tests := []struct {
		name  string
		image []byte
		want  error
	}{
		{"bad magic", corrupt(func(b []byte) { b[0] = 'X' }), ErrBadMagic},
		{"version", corrupt(func(b []byte) { binary.LittleEndian.PutUint16(b[4:], 99) }), ErrVersion},
		{"compression", corrupt(func(b []byte) { b[6] = 9 }), ErrCorrupt},
		{"byte order", corrupt(func(b []byte) { b[7] ^= flagBigEndian }), ErrEndianness},
		{"cell count", corrupt(func(b []byte) { binary.LittleEndian.PutUint64(b[8:], 1<<62) }), ErrCorrupt},
		{"body size", corrupt(func(b []byte) { binary.LittleEndian.PutUint64(b[16:], 8) }), ErrCorrupt},
		{"checksum", corrupt(func(b []byte) { b[headerSize] ^= 0xff }), ErrChecksum},
		{"truncated header", image[:10], ErrCorrupt},
		{"truncated body", image[:headerSize+16], ErrCorrupt},
		{"truncated index", image[:len(image)-2], ErrCorrupt},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dst := inline.NewRegistry(newHeap(t))
			err := Read(context.Background(), bytes.NewReader(tt.image), dst.Heap(), dst)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestRead_CorruptCompressedBody(t *testing.T) {
	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			src := inline.NewRegistry(newHeap(t))
			populate(t, src, 200)
			image := encode(t, src.Heap(), nil, WithCompression(c))

			hdr, err := ReadHeader(bytes.NewReader(image))
			require.NoError(t, err)
			require.Equal(t, c, hdr.Compression)

			// Flip bytes through the middle of the body.
			mid := headerSize + int(hdr.BodySize)/2
			for i := mid; i < mid+8; i++ {
				image[i] ^= 0x5a
			}

			dst := newHeap(t)
			err = Read(context.Background(), bytes.NewReader(image), dst, nil)
			require.Error(t, err)
			assert.True(t, errorsIsAny(err, ErrCorrupt, ErrChecksum), "got %v", err)
			assert.Equal(t, 0, dst.Len())
		})
	}
}

func TestRead_HugeCellCount(t *testing.T) {
	bodies := map[Compression][]byte{
		CompressionLZ4:  {0xf0, 0x00, 0x00, 0x00},
		CompressionZSTD: {0x28, 0xb5, 0x2f, 0xfd}, // frame magic, nothing after
	}

	for _, c := range []Compression{CompressionLZ4, CompressionZSTD} {
		for _, cells := range []uint64{1 << 40, 1 << 46} {
			t.Run(fmt.Sprintf("%s/%d", c, cells), func(t *testing.T) {
				body := bodies[c]
				hdr := Header{
					Version:     Version,
					Compression: c,
					Flags:       hostFlags(),
					Cells:       cells,
					BodySize:    uint64(len(body)),
				}
				buf := hdr.encode()
				image := append(buf[:], body...)

				dst := newHeap(t)
				assert.NotPanics(t, func() {
					err := Read(context.Background(), bytes.NewReader(image), dst, nil)
					assert.ErrorIs(t, err, ErrCorrupt)
				})
				assert.Equal(t, 0, dst.Len())
				assert.Zero(t, dst.Stats().Grows)
			})
		}
	}
}

func TestRead_HeapNotEmpty(t *testing.T) {
	src := newHeap(t)
	_, err := inline.WriteString(src, "a")
	require.NoError(t, err)
	image := encode(t, src, nil)

	err = Read(context.Background(), bytes.NewReader(image), src, nil)
	assert.ErrorIs(t, err, ErrHeapNotEmpty)
}

func TestCanceledContext(t *testing.T) {
	h := newHeap(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := Write(ctx, &bytes.Buffer{}, h, nil)
	assert.ErrorIs(t, err, context.Canceled)

	err = Read(ctx, bytes.NewReader(nil), h, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCompressionString(t *testing.T) {
	assert.Equal(t, "none", CompressionNone.String())
	assert.Equal(t, "lz4", CompressionLZ4.String())
	assert.Equal(t, "zstd", CompressionZSTD.String())
	assert.Equal(t, "Compression(7)", Compression(7).String())
}

func errorsIsAny(err error, targets ...error) bool {
	for _, target := range targets {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func BenchmarkWrite(b *testing.B) {
	h, err := heap.New()
	if err != nil {
		b.Fatal(err)
	}
	defer h.Close()

	for i := 0; i < 10000; i++ {
		if _, err := inline.WriteString(h, fmt.Sprintf("benchmark run %d", i)); err != nil {
			b.Fatal(err)
		}
	}

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		b.Run(c.String(), func(b *testing.B) {
			b.SetBytes(int64(h.Len() * heap.Width))
			for i := 0; i < b.N; i++ {
				if _, err := Write(context.Background(), io.Discard, h, nil, WithCompression(c)); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
