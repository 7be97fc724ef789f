package inline

import (
	"bytes"
	"unsafe"

	"github.com/hupe1980/cellheap/heap"
)

// CellsFor returns the number of cells a payload of n bytes occupies.
// There is always room for at least one terminator byte.
func CellsFor(n int) int {
	return n/heap.Width + 1
}

// Write appends payload to h as a zero-terminated run and returns the address
// of its first cell.
//
// payload must not contain 0x00. This is not checked: an embedded zero
// truncates what views read back. Use WriteChecked when the payload is not
// trusted.
func Write(h *heap.Heap, payload []byte) (heap.Addr, error) {
	var start int
	err := h.Update(func(t *heap.Tail) error {
		start = t.Len()
		k := CellsFor(len(payload))
		if err := t.Reserve(k); err != nil {
			return err
		}

		spare := t.Spare()[:k]
		spare[k-1] = heap.FromRaw(0)
		copy(heap.AsBytes(spare), payload)

		t.Commit(start + k)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return heap.Addr(start), nil //nolint:gosec // heap lengths are non-negative
}

// WriteChecked is Write for untrusted payloads. It returns an
// *EmbeddedZeroError, without touching h, if payload contains 0x00.
func WriteChecked(h *heap.Heap, payload []byte) (heap.Addr, error) {
	if i := bytes.IndexByte(payload, 0); i >= 0 {
		return 0, &EmbeddedZeroError{Offset: i}
	}
	return Write(h, payload)
}

// WriteString is WriteChecked for a string.
func WriteString(h *heap.Heap, s string) (heap.Addr, error) {
	return WriteChecked(h, unsafe.Slice(unsafe.StringData(s), len(s)))
}
