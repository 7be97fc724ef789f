package blobstore

import (
	"context"
	"io"
)

// Reader reads a Blob sequentially.
type Reader struct {
	ctx  context.Context
	blob Blob
	off  int64
}

// NewReader returns a reader over the whole blob.
func NewReader(ctx context.Context, blob Blob) *Reader {
	return &Reader{ctx: ctx, blob: blob}
}

func (r *Reader) Read(p []byte) (int, error) {
	if r.off >= r.blob.Size() {
		return 0, io.EOF
	}
	if remaining := r.blob.Size() - r.off; int64(len(p)) > remaining {
		p = p[:remaining]
	}

	n, err := r.blob.ReadAt(r.ctx, p, r.off)
	r.off += int64(n)
	if err == io.EOF && n > 0 {
		err = nil
	}
	return n, err
}

// ReadAll reads a whole blob into memory.
func ReadAll(ctx context.Context, blob Blob) ([]byte, error) {
	if m, ok := blob.(Mappable); ok {
		b, err := m.Bytes()
		if err != nil {
			return nil, err
		}
		return append([]byte(nil), b...), nil
	}

	buf := make([]byte, blob.Size())
	n, err := blob.ReadAt(ctx, buf, 0)
	if err != nil && err != io.EOF {
		return nil, err
	}
	return buf[:n], nil
}
