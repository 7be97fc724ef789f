package inline

import (
	"bytes"
	"io"
	"unicode/utf8"
	"unsafe"

	"github.com/hupe1980/cellheap/heap"
)

// View is a read-only handle on an encoded run, or on a suffix of one.
//
// The zero View is stale. Views are plain values and may be copied and read
// from any goroutine.
type View struct {
	h     *heap.Heap
	start int    // byte offset in the heap
	gen   uint64 // heap generation at construction
}

// FromAddr returns a view of the run that starts at addr. It does not scan
// and cannot fail; addr must be a value returned by Write.
func FromAddr(h *heap.Heap, addr heap.Addr) View {
	return FromAddrOffset(h, addr, 0)
}

// FromAddrOffset returns a view starting offset bytes into the run at addr.
// offset must be less than the run's size in bytes; this is not checked.
func FromAddrOffset(h *heap.Heap, addr heap.Addr, offset int) View {
	return View{
		h:     h,
		start: addr.ByteOffset() + offset,
		gen:   h.Generation(),
	}
}

// FromAddrOffsetChecked is FromAddrOffset with the bounds verified against
// the run actually stored at addr. It fails with ErrAddrOutOfRange,
// ErrUnterminated or an *OffsetError.
func FromAddrOffsetChecked(h *heap.Heap, addr heap.Addr, offset int) (View, error) {
	b, gen := h.Committed()
	if addr >= heap.Addr(len(b)/heap.Width) { //nolint:gosec // len is non-negative
		return View{}, ErrAddrOutOfRange
	}

	base := addr.ByteOffset()
	n := findTerminator(b, base)
	if n < 0 {
		return View{}, ErrUnterminated
	}

	runBytes := (n/heap.Width + 1) * heap.Width
	if offset < 0 || offset >= runBytes {
		return View{}, &OffsetError{Offset: offset, RunBytes: runBytes}
	}
	return View{h: h, start: base + offset, gen: gen}, nil
}

// findTerminator returns the distance from start to the first zero byte in b,
// or -1 if there is none.
func findTerminator(b []byte, start int) int {
	return bytes.IndexByte(b[start:], 0)
}

// Start returns the byte offset of the view in its heap.
func (v View) Start() int {
	return v.start
}

// Valid reports whether the view still refers to the contents it was made
// for. It returns ErrStaleView after the heap is reset or closed.
func (v View) Valid() error {
	if v.h == nil || v.h.Generation() != v.gen {
		return ErrStaleView
	}
	return nil
}

// content locates [start, terminator) in the current heap bytes.
func (v View) content() ([]byte, error) {
	if v.h == nil {
		return nil, ErrStaleView
	}
	b, gen := v.h.Committed()
	if gen != v.gen {
		return nil, ErrStaleView
	}
	if v.start < 0 || v.start >= len(b) {
		return nil, ErrAddrOutOfRange
	}
	n := findTerminator(b, v.start)
	if n < 0 {
		return nil, ErrUnterminated
	}
	end := v.start + n
	return b[v.start:end:end], nil
}

func (v View) mustContent() []byte {
	b, err := v.content()
	if err != nil {
		panic(err)
	}
	return b
}

// Len returns the number of bytes before the terminator. The run is scanned
// on every call.
//
// Len, Bytes and TextUnchecked panic on a view that Valid rejects or that
// does not point into a run.
func (v View) Len() int {
	return len(v.mustContent())
}

// Bytes returns the bytes before the terminator. The slice aliases heap
// memory and must not be modified.
func (v View) Bytes() []byte {
	return v.mustContent()
}

// Text returns the view's bytes as a string, without copying, after checking
// that they are valid UTF-8. Invalid input yields an *InvalidTextError.
//
// The string shares heap memory: after a heap Reset its contents change with
// the next write. Clone it with strings.Clone to keep it.
func (v View) Text() (string, error) {
	b, err := v.content()
	if err != nil {
		return "", err
	}
	if err := validateText(b); err != nil {
		return "", err
	}
	return unsafeString(b), nil
}

// TextUnchecked returns the view's bytes as a string without validating
// them. The caller must know they are valid UTF-8. Like Text, the string
// shares heap memory and changes after a Reset.
func (v View) TextUnchecked() string {
	return unsafeString(v.mustContent())
}

// Advance returns the view n bytes further into the run. n may equal Len,
// which yields an empty view.
func (v View) Advance(n int) (View, error) {
	b, err := v.content()
	if err != nil {
		return View{}, err
	}
	if n < 0 || n > len(b) {
		return View{}, &OffsetError{Offset: n, RunBytes: len(b)}
	}
	return View{h: v.h, start: v.start + n, gen: v.gen}, nil
}

// Next decodes the first character of the view and returns it with the view
// of the remaining text. It returns io.EOF on an empty view.
func (v View) Next() (rune, View, error) {
	b, err := v.content()
	if err != nil {
		return 0, View{}, err
	}
	if len(b) == 0 {
		return 0, v, io.EOF
	}

	r, size := utf8.DecodeRune(b)
	if r == utf8.RuneError && size <= 1 {
		return 0, View{}, &InvalidTextError{Incomplete: !utf8.FullRune(b)}
	}
	return r, View{h: v.h, start: v.start + size, gen: v.gen}, nil
}

func validateText(b []byte) error {
	if utf8.Valid(b) {
		return nil
	}
	for i := 0; i < len(b); {
		if b[i] < utf8.RuneSelf {
			i++
			continue
		}
		r, size := utf8.DecodeRune(b[i:])
		if r == utf8.RuneError && size == 1 {
			return &InvalidTextError{Offset: i, Incomplete: !utf8.FullRune(b[i:])}
		}
		i += size
	}
	return nil
}

func unsafeString(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	return unsafe.String(unsafe.SliceData(b), len(b))
}
