// Package hash provides the CRC32-Castagnoli checksum used by heap images.
//
// The checksum covers the raw cell bytes of an image, before compression, so
// a restore detects both transport corruption and codec bugs.
//
//	sum := hash.CRC32C(cells)
//	if err := hash.Verify(cells, header.Checksum); err != nil { ... }
package hash
