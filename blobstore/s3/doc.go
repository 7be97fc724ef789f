// Package s3 stores heap images in Amazon S3 or an S3-compatible endpoint.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("heaps/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	eng, err := cellheap.New(cellheap.WithBlobStore(store))
//
// Blobs are read with ranged GETs. Put sends a single request carrying a
// CRC32C checksum; Create streams through a multipart uploader so snapshots
// never need a local staging copy.
package s3
