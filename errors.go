package cellheap

import (
	"errors"
	"fmt"

	"github.com/hupe1980/cellheap/blobstore"
	"github.com/hupe1980/cellheap/heap"
)

var (
	// ErrClosed is returned by every Engine method after Close.
	ErrClosed = errors.New("cellheap: engine closed")

	// ErrNoBlobStore is returned by Snapshot and Restore when no BlobStore
	// was configured.
	ErrNoBlobStore = errors.New("cellheap: no blob store configured")

	// ErrNotFound is returned when a named heap image does not exist.
	ErrNotFound = errors.New("cellheap: not found")
)

// translateError maps errors from the lower layers onto the root sentinels.
// The original error stays reachable through errors.Unwrap.
func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, heap.ErrClosed) && !errors.Is(err, ErrClosed) {
		return fmt.Errorf("%w: %w", ErrClosed, err)
	}
	if errors.Is(err, blobstore.ErrNotFound) && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}

	return err
}
