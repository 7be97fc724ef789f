package snapshot

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/cellheap/heap"
	"github.com/hupe1980/cellheap/inline"
	"github.com/hupe1980/cellheap/internal/conv"
	"github.com/hupe1980/cellheap/internal/hash"
	"github.com/hupe1980/cellheap/resource"
)

// Write stores the committed cells of h, and the run index of reg when reg
// is not nil, as one image on w. It returns the number of bytes written.
//
// Writers may keep appending to h meanwhile; the image holds the cells
// committed when Write looked. A concurrent Reset fails the write.
func Write(ctx context.Context, w io.Writer, h *heap.Heap, reg *inline.Registry, opts ...Option) (int64, error) {
	o := applyOptions(opts)
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	gen := h.Generation()

	// Index before cells: every recorded start is then below the cell count.
	var index bytes.Buffer
	if reg != nil {
		if _, err := reg.WriteTo(&index); err != nil {
			return 0, fmt.Errorf("snapshot: encode registry: %w", err)
		}
	}

	raw, rawGen := h.Committed()
	if rawGen != gen || h.Closed() {
		return 0, ErrConcurrentReset
	}

	body, used, err := compress(raw, o.compression)
	if err != nil {
		return 0, err
	}

	hdr := Header{
		Version:     Version,
		Compression: used,
		Flags:       hostFlags(),
		Cells:       uint64(len(raw) / heap.Width), //nolint:gosec // lengths are non-negative
		BodySize:    uint64(len(body)),             //nolint:gosec // lengths are non-negative
		IndexSize:   uint64(index.Len()),           //nolint:gosec // lengths are non-negative
		Checksum:    hash.CRC32C(raw),
	}
	buf := hdr.encode()

	cw := &countingWriter{w: w}
	var out io.Writer = cw
	if o.controller != nil {
		out = resource.NewRateLimitedWriter(ctx, cw, o.controller)
	}

	for _, section := range [][]byte{buf[:], body, index.Bytes()} {
		if len(section) == 0 {
			continue
		}
		if _, err := out.Write(section); err != nil {
			return cw.n, fmt.Errorf("snapshot: write: %w", err)
		}
	}
	return cw.n, nil
}

// Read restores an image written by Write into h, which must be empty. When
// reg is not nil it receives the image's run index.
//
// h must not be written to concurrently with Read.
func Read(ctx context.Context, r io.Reader, h *heap.Heap, reg *inline.Registry, opts ...Option) error {
	o := applyOptions(opts)
	if err := ctx.Err(); err != nil {
		return err
	}
	if h.Len() != 0 {
		return ErrHeapNotEmpty
	}

	if o.controller != nil {
		r = resource.NewRateLimitedReader(ctx, r, o.controller)
	}

	hdr, err := ReadHeader(r)
	if err != nil {
		return err
	}
	if hdr.Flags&flagBigEndian != hostFlags() {
		return ErrEndianness
	}

	cells, rawSize, err := sectionSizes(hdr)
	if err != nil {
		return err
	}

	// Grow with the data actually present rather than trusting BodySize.
	body, err := io.ReadAll(io.LimitReader(r, int64(hdr.BodySize))) //nolint:gosec // BodySize <= rawSize
	if err != nil {
		return fmt.Errorf("snapshot: read body: %w", err)
	}
	if uint64(len(body)) != hdr.BodySize {
		return fmt.Errorf("%w: body truncated at %d of %d bytes", ErrCorrupt, len(body), hdr.BodySize)
	}

	raw, err := decompress(body, hdr.Compression, rawSize)
	if err != nil {
		return err
	}
	if err := hash.Verify(raw, hdr.Checksum); err != nil {
		return fmt.Errorf("%w: %w", ErrChecksum, err)
	}

	err = h.Update(func(t *heap.Tail) error {
		if t.Len() != 0 {
			return ErrHeapNotEmpty
		}
		if err := t.Reserve(cells); err != nil {
			return err
		}
		copy(heap.AsBytes(t.Spare()[:cells]), raw)
		t.Commit(cells)
		return nil
	})
	if err != nil {
		return err
	}

	if reg == nil || hdr.IndexSize == 0 {
		return nil
	}

	indexSize, err := conv.Uint64ToInt64(hdr.IndexSize)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	n, err := reg.ReadFrom(io.LimitReader(r, indexSize))
	if err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if n != indexSize {
		return fmt.Errorf("%w: index is %d bytes, header says %d", ErrCorrupt, n, hdr.IndexSize)
	}
	if err := reg.Check(); err != nil {
		return fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return nil
}

// sectionSizes checks the header sizes against each other and returns the
// cell count and uncompressed body size.
func sectionSizes(hdr Header) (cells, rawSize int, err error) {
	cells, err = conv.Uint64ToInt(hdr.Cells)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	rawSize, err = conv.MulInt(cells, heap.Width)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}

	switch {
	case hdr.Compression == CompressionNone && hdr.BodySize != uint64(rawSize): //nolint:gosec // non-negative
		return 0, 0, fmt.Errorf("%w: body is %d bytes for %d cells", ErrCorrupt, hdr.BodySize, hdr.Cells)
	case hdr.BodySize > uint64(rawSize): //nolint:gosec // non-negative
		return 0, 0, fmt.Errorf("%w: compressed body larger than cells", ErrCorrupt)
	}
	return cells, rawSize, nil
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
