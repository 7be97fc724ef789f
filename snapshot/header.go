package snapshot

import (
	"encoding/binary"
	"fmt"
	"io"
)

const (
	// Version is the image format version written by this package.
	Version uint16 = 1

	headerSize = 40

	flagBigEndian uint8 = 1 << 0
)

var magic = [4]byte{'C', 'H', 'I', 'M'}

// Header describes an image.
type Header struct {
	Version     uint16
	Compression Compression
	Flags       uint8
	Cells       uint64
	BodySize    uint64
	IndexSize   uint64
	Checksum    uint32
}

// BigEndian reports whether the image was written on a big-endian host.
func (h Header) BigEndian() bool {
	return h.Flags&flagBigEndian != 0
}

func (h Header) encode() [headerSize]byte {
	var buf [headerSize]byte
	copy(buf[0:4], magic[:])
	binary.LittleEndian.PutUint16(buf[4:], h.Version)
	buf[6] = uint8(h.Compression)
	buf[7] = h.Flags
	binary.LittleEndian.PutUint64(buf[8:], h.Cells)
	binary.LittleEndian.PutUint64(buf[16:], h.BodySize)
	binary.LittleEndian.PutUint64(buf[24:], h.IndexSize)
	binary.LittleEndian.PutUint32(buf[32:], h.Checksum)
	return buf
}

func decodeHeader(buf []byte) (Header, error) {
	if len(buf) < headerSize {
		return Header{}, fmt.Errorf("%w: short header", ErrCorrupt)
	}
	if [4]byte(buf[0:4]) != magic {
		return Header{}, ErrBadMagic
	}

	h := Header{
		Version:     binary.LittleEndian.Uint16(buf[4:]),
		Compression: Compression(buf[6]),
		Flags:       buf[7],
		Cells:       binary.LittleEndian.Uint64(buf[8:]),
		BodySize:    binary.LittleEndian.Uint64(buf[16:]),
		IndexSize:   binary.LittleEndian.Uint64(buf[24:]),
		Checksum:    binary.LittleEndian.Uint32(buf[32:]),
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrVersion, h.Version)
	}
	if !h.Compression.valid() {
		return Header{}, fmt.Errorf("%w: unknown compression %d", ErrCorrupt, h.Compression)
	}
	return h, nil
}

// ReadHeader reads and validates the header at the start of r.
func ReadHeader(r io.Reader) (Header, error) {
	var buf [headerSize]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		return Header{}, fmt.Errorf("%w: read header: %w", ErrCorrupt, err)
	}
	return decodeHeader(buf[:])
}

func hostFlags() uint8 {
	if binary.NativeEndian.Uint16([]byte{0, 1}) == 1 {
		return flagBigEndian
	}
	return 0
}
