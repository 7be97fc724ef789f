package heap

import "errors"

var (
	// ErrClosed is returned when mutating a closed heap.
	ErrClosed = errors.New("heap: closed")
	// ErrMaxCellsExceeded is returned when a reservation would exceed the configured cap.
	ErrMaxCellsExceeded = errors.New("heap: max cells exceeded")
	// ErrInvalidReserve is returned for negative or overflowing reservations.
	ErrInvalidReserve = errors.New("heap: invalid reservation")
)
