// Package minio stores heap images on MinIO or any other S3-compatible server
// through the MinIO Go client.
//
//	client, err := minio.New("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	store := minioblob.NewStore(client, "heaps", "prod/")
//	eng, err := cellheap.New(cellheap.WithBlobStore(store))
//
// Streaming writes (Create) upload while the snapshot is being encoded, with
// no local staging file.
package minio
