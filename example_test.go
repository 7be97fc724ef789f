package cellheap_test

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hupe1980/cellheap"
	"github.com/hupe1980/cellheap/blobstore"
	"github.com/hupe1980/cellheap/inline"
)

// Example shows writing a string inline and reading it back.
func Example() {
	eng, err := cellheap.New()
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	addr, err := eng.InlineString("hello, heap")
	if err != nil {
		log.Fatal(err)
	}

	s, err := eng.Text(addr)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Println(addr, s)
	// Output: 0 hello, heap
}

// ExampleEngine_ViewAt walks a run from an offset.
func ExampleEngine_ViewAt() {
	eng, err := cellheap.New()
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	addr, _ := eng.InlineString("añb")

	v, err := eng.ViewAt(addr, 1)
	if err != nil {
		log.Fatal(err)
	}
	for {
		r, next, err := v.Next()
		if err != nil {
			break
		}
		fmt.Printf("%c ", r)
		v = next
	}
	fmt.Println()
	// Output: ñ b
}

// ExampleEngine_InlineBytes shows the embedded-zero check.
func ExampleEngine_InlineBytes() {
	eng, err := cellheap.New()
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	_, err = eng.InlineBytes([]byte("ab\x00cd"))

	var ez *inline.EmbeddedZeroError
	if errors.As(err, &ez) {
		fmt.Println("zero at", ez.Offset)
	}
	// Output: zero at 2
}

// ExampleEngine_Snapshot saves a heap and restores it.
func ExampleEngine_Snapshot() {
	ctx := context.Background()

	eng, err := cellheap.New(cellheap.WithBlobStore(blobstore.NewMemoryStore()))
	if err != nil {
		log.Fatal(err)
	}
	defer eng.Close()

	addr, _ := eng.InlineString("persisted")
	if _, err := eng.Snapshot(ctx, "heap-0001"); err != nil {
		log.Fatal(err)
	}
	if err := eng.Reset(); err != nil {
		log.Fatal(err)
	}
	if err := eng.Restore(ctx, "heap-0001"); err != nil {
		log.Fatal(err)
	}

	s, _ := eng.Text(addr)
	fmt.Println(s)
	// Output: persisted
}
