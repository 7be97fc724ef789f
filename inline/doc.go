// Package inline stores byte strings directly inside a heap.Heap.
//
// A string of n bytes occupies n/heap.Width+1 whole cells: the payload, then
// zero bytes up to the end of the last cell. There is no length field; the
// first zero byte after the start marks the end. Payloads therefore must not
// contain 0x00. Write trusts the caller on that point, WriteChecked does not.
//
// A View addresses a run (or a suffix of one) by heap, byte offset and heap
// generation. Views do not hold the heap lock between calls; every read
// fetches the current committed bytes, so a view stays usable across growth
// and only becomes stale when the heap is Reset or closed.
//
// Unchecked constructors and accessors (FromAddrOffset, TextUnchecked) mirror
// the raw encoding and leave validation to the caller. Their checked
// counterparts return typed errors instead.
package inline
