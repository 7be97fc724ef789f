package inline

import (
	"bytes"
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/hupe1980/cellheap/heap"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newHeap(t *testing.T, opts ...heap.Option) *heap.Heap {
	t.Helper()

	h, err := heap.New(opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })
	return h
}

func randomPayload(rng *rand.Rand, n int) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = byte(1 + rng.IntN(255))
	}
	return p
}

func TestCellsFor(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{0, 1},
		{1, 1},
		{4, 1},
		{7, 1},
		{8, 2},
		{9, 2},
		{10, 2},
		{15, 2},
		{16, 3},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CellsFor(tt.n), "n=%d", tt.n)
	}
}

func TestWrite_CellCounts(t *testing.T) {
	h := newHeap(t)

	tests := []struct {
		n       int
		wantLen int // heap length after the write
	}{
		{0, 1},
		{4, 2},
		{8, 4},
		{9, 6},
		{10, 8},
	}
	for _, tt := range tests {
		before := h.Len()
		addr, err := Write(h, bytes.Repeat([]byte{'x'}, tt.n))
		require.NoError(t, err)

		assert.Equal(t, heap.Addr(before), addr, "n=%d", tt.n)
		assert.Equal(t, tt.wantLen, h.Len(), "n=%d", tt.n)
	}
}

func TestWrite_Empty(t *testing.T) {
	h := newHeap(t)

	addr, err := Write(h, nil)
	require.NoError(t, err)
	assert.Equal(t, heap.Addr(0), addr)
	assert.Equal(t, 1, h.Len())

	v := FromAddr(h, addr)
	assert.Empty(t, v.Bytes())
	assert.Equal(t, 0, v.Len())

	s, err := v.Text()
	require.NoError(t, err)
	assert.Equal(t, "", s)
}

func TestWrite_EightBytes(t *testing.T) {
	h := newHeap(t)
	payload := []byte{1, 2, 3, 4, 5, 6, 7, 8}

	addr, err := Write(h, payload)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Len())
	assert.Equal(t, payload, FromAddr(h, addr).Bytes())
}

func TestWrite_RoundTrip(t *testing.T) {
	rng := rand.New(rand.NewPCG(1, 2))
	h := newHeap(t, heap.WithInitialCells(1))

	payloads := make([][]byte, 0, 200)
	addrs := make([]heap.Addr, 0, 200)
	for i := 0; i < 200; i++ {
		p := randomPayload(rng, rng.IntN(64))
		addr, err := Write(h, p)
		require.NoError(t, err)
		payloads = append(payloads, p)
		addrs = append(addrs, addr)
	}

	for i, addr := range addrs {
		got := FromAddr(h, addr).Bytes()
		assert.True(t, bytes.Equal(payloads[i], got), "run %d", i)
	}
}

func TestWrite_TerminatorAndZeroTail(t *testing.T) {
	rng := rand.New(rand.NewPCG(3, 4))
	h := newHeap(t)

	for n := 0; n < 40; n++ {
		p := randomPayload(rng, n)
		addr, err := Write(h, p)
		require.NoError(t, err)

		b := h.Bytes()
		start := addr.ByteOffset()
		end := start + CellsFor(n)*heap.Width
		require.LessOrEqual(t, end, len(b))

		assert.Equal(t, p, b[start:start+n])
		assert.Equal(t, byte(0), b[start+n], "terminator n=%d", n)
		for i := start + n; i < end; i++ {
			assert.Equal(t, byte(0), b[i], "tail byte %d n=%d", i-start, n)
		}
	}
}

func TestWrite_OverwritesStaleTailAfterReset(t *testing.T) {
	h := newHeap(t)

	_, err := Write(h, bytes.Repeat([]byte{0xff}, 15))
	require.NoError(t, err)
	h.Reset()

	addr, err := Write(h, []byte("ab"))
	require.NoError(t, err)
	assert.Equal(t, heap.Addr(0), addr)
	assert.Equal(t, []byte("ab"), FromAddr(h, addr).Bytes())
	assert.Equal(t, make([]byte, heap.Width-2), h.Bytes()[2:heap.Width])
}

func TestWrite_EmbeddedZeroTruncates(t *testing.T) {
	h := newHeap(t)

	addr, err := Write(h, []byte{'a', 0, 'b'})
	require.NoError(t, err)
	assert.Equal(t, []byte("a"), FromAddr(h, addr).Bytes())
}

func TestWriteChecked(t *testing.T) {
	h := newHeap(t)

	addr, err := WriteChecked(h, []byte("ok"))
	require.NoError(t, err)
	assert.Equal(t, "ok", FromAddr(h, addr).TextUnchecked())

	lenBefore := h.Len()
	_, err = WriteChecked(h, []byte{1, 0, 2})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrEmbeddedZero)

	var ez *EmbeddedZeroError
	require.ErrorAs(t, err, &ez)
	assert.Equal(t, 1, ez.Offset)
	assert.Equal(t, lenBefore, h.Len())
}

func TestWriteString(t *testing.T) {
	h := newHeap(t)

	addr, err := WriteString(h, "漢字")
	require.NoError(t, err)

	s, err := FromAddr(h, addr).Text()
	require.NoError(t, err)
	assert.Equal(t, "漢字", s)

	_, err = WriteString(h, "a\x00")
	assert.ErrorIs(t, err, ErrEmbeddedZero)
}

func TestWrite_ReservationFailure(t *testing.T) {
	t.Run("max cells", func(t *testing.T) {
		h := newHeap(t, heap.WithInitialCells(1), heap.WithMaxCells(2))

		_, err := Write(h, []byte("1234567"))
		require.NoError(t, err)

		_, err = Write(h, []byte("12345678"))
		assert.ErrorIs(t, err, heap.ErrMaxCellsExceeded)
		assert.Equal(t, 1, h.Len())
	})

	t.Run("closed", func(t *testing.T) {
		h, err := heap.New()
		require.NoError(t, err)
		require.NoError(t, h.Close())

		_, err = Write(h, []byte("x"))
		assert.ErrorIs(t, err, heap.ErrClosed)
	})
}

func BenchmarkWrite(b *testing.B) {
	for _, n := range []int{0, 8, 64, 1024} {
		payload := bytes.Repeat([]byte{'a'}, n)
		b.Run(fmt.Sprintf("bytes=%d", n), func(b *testing.B) {
			h, err := heap.New()
			if err != nil {
				b.Fatal(err)
			}
			defer h.Close()

			b.SetBytes(int64(n))
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				if i%4096 == 0 {
					h.Reset()
				}
				if _, err := Write(h, payload); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}
