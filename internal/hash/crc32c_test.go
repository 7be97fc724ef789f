package hash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCRC32C_KnownValue(t *testing.T) {
	// RFC 3720 test vector: 32 bytes of zeros.
	assert.Equal(t, uint32(0x8a9136aa), CRC32C(make([]byte, 32)))
}

func TestCRC32C_Streaming(t *testing.T) {
	data := []byte("hello inline bytes")

	h := NewCRC32C()
	_, _ = h.Write(data[:5])
	_, _ = h.Write(data[5:])

	assert.Equal(t, CRC32C(data), h.Sum32())
}

func TestVerify(t *testing.T) {
	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	sum := CRC32C(data)

	assert.NoError(t, Verify(data, sum))

	data[3] ^= 0xff
	assert.ErrorIs(t, Verify(data, sum), ErrChecksumMismatch)
}
