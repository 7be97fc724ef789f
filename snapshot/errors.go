package snapshot

import "errors"

var (
	// ErrBadMagic is returned when the input is not a heap image.
	ErrBadMagic = errors.New("snapshot: bad magic")
	// ErrVersion is returned for images written by an unknown format version.
	ErrVersion = errors.New("snapshot: unsupported version")
	// ErrEndianness is returned when the image was written on a host of the other byte order.
	ErrEndianness = errors.New("snapshot: byte order mismatch")
	// ErrChecksum is returned when the decoded cells do not match the stored checksum.
	ErrChecksum = errors.New("snapshot: checksum mismatch")
	// ErrCorrupt is returned for inconsistent header fields or truncated sections.
	ErrCorrupt = errors.New("snapshot: corrupt image")
	// ErrHeapNotEmpty is returned when restoring into a heap that already holds cells.
	ErrHeapNotEmpty = errors.New("snapshot: target heap is not empty")
	// ErrConcurrentReset is returned when the heap is reset while an image is being taken.
	ErrConcurrentReset = errors.New("snapshot: heap reset during write")
)
