package inline

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidText is matched by every *InvalidTextError.
	ErrInvalidText = errors.New("inline: invalid utf-8 text")
	// ErrEmbeddedZero is matched by every *EmbeddedZeroError.
	ErrEmbeddedZero = errors.New("inline: payload contains a zero byte")
	// ErrOffsetOutOfRange is matched by every *OffsetError.
	ErrOffsetOutOfRange = errors.New("inline: offset out of range")
	// ErrAddrOutOfRange is returned when a view starts at or past the committed end of the heap.
	ErrAddrOutOfRange = errors.New("inline: address out of range")
	// ErrUnterminated is returned when no zero byte follows a view's start.
	ErrUnterminated = errors.New("inline: run is not terminated")
	// ErrStaleView is returned when the heap was reset or closed after the view was made.
	ErrStaleView = errors.New("inline: stale view")
	// ErrNotARun is returned by Registry lookups for addresses it never wrote.
	ErrNotARun = errors.New("inline: address does not start a run")
)

// InvalidTextError reports the first byte, relative to the view start, that
// is not part of a valid UTF-8 sequence.
type InvalidTextError struct {
	Offset int
	// Incomplete is set when the text ends inside a multi-byte sequence.
	Incomplete bool
}

func (e *InvalidTextError) Error() string {
	if e.Incomplete {
		return fmt.Sprintf("inline: incomplete utf-8 sequence at byte %d", e.Offset)
	}
	return fmt.Sprintf("inline: invalid utf-8 sequence at byte %d", e.Offset)
}

func (e *InvalidTextError) Unwrap() error { return ErrInvalidText }

// EmbeddedZeroError is returned by checked writers for payloads containing 0x00.
type EmbeddedZeroError struct {
	Offset int
}

func (e *EmbeddedZeroError) Error() string {
	return fmt.Sprintf("inline: zero byte at payload offset %d", e.Offset)
}

func (e *EmbeddedZeroError) Unwrap() error { return ErrEmbeddedZero }

// OffsetError is returned when a sub-view offset falls outside its run.
type OffsetError struct {
	Offset   int
	RunBytes int
}

func (e *OffsetError) Error() string {
	return fmt.Sprintf("inline: offset %d outside run of %d bytes", e.Offset, e.RunBytes)
}

func (e *OffsetError) Unwrap() error { return ErrOffsetOutOfRange }
