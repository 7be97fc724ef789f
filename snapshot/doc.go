// Package snapshot writes a heap and its run registry to a single image and
// reads it back.
//
// Image layout (integers little-endian):
//
//	offset size field
//	0      4    magic "CHIM"
//	4      2    format version
//	6      1    body compression (0 none, 1 lz4, 2 zstd)
//	7      1    flags (bit 0: cells were written on a big-endian host)
//	8      8    cell count
//	16     8    body size in bytes
//	24     8    registry index size in bytes (0 when absent)
//	32     4    CRC32C of the uncompressed cell bytes
//	36     4    reserved
//	40     ...  body, then registry index
//
// Cells are stored in host byte order, which is what the flags byte records.
// Images are not portable between hosts of different endianness.
package snapshot
