package heap

import "unsafe"

// Cell is one fixed-width heap slot. Its interpretation (tags, payloads) is up
// to the engine; the heap only moves words around.
type Cell uint64

// Width is the size of a Cell in bytes.
const Width = int(unsafe.Sizeof(Cell(0)))

// FromRaw builds a cell from its raw word.
func FromRaw(v uint64) Cell {
	return Cell(v)
}

// Raw returns the raw word of c.
func (c Cell) Raw() uint64 {
	return uint64(c)
}

// Addr is the index of a cell in a heap.
type Addr uint64

// ByteOffset returns the byte address of the cell.
func (a Addr) ByteOffset() int {
	return int(a) * Width //nolint:gosec // addresses come from heap lengths
}

// AsBytes reinterprets cells as their underlying bytes, in memory order.
func AsBytes(cells []Cell) []byte {
	if len(cells) == 0 {
		return nil
	}
	return unsafe.Slice((*byte)(unsafe.Pointer(unsafe.SliceData(cells))), len(cells)*Width) //nolint:gosec // cells are plain words
}
