package minio

import (
	"context"
	"io"
	"os"
	"testing"
	"time"

	"github.com/hupe1980/cellheap/blobstore"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_Key(t *testing.T) {
	s := NewStore(nil, "bucket", "heaps/")
	assert.Equal(t, "heaps/a.chim", s.key("a.chim"))
	assert.Equal(t, "a.chim", NewStore(nil, "bucket", "").key("a.chim"))
}

// newIntegrationStore connects to MinIO at MINIO_ENDPOINT (default
// localhost:9000) and skips the test when no server answers.
func newIntegrationStore(t *testing.T) *Store {
	t.Helper()

	endpoint := os.Getenv("MINIO_ENDPOINT")
	if endpoint == "" {
		endpoint = "localhost:9000"
	}
	const bucket = "test-cellheap"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
		Secure: false,
	})
	if err != nil {
		t.Skipf("MinIO client creation failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if _, err := client.ListBuckets(ctx); err != nil {
		t.Skipf("MinIO not available: %v", err)
	}

	exists, err := client.BucketExists(ctx, bucket)
	require.NoError(t, err)
	if !exists {
		require.NoError(t, client.MakeBucket(ctx, bucket, minio.MakeBucketOptions{}))
	}

	return NewStore(client, bucket, "it-"+time.Now().Format("20060102150405.000")+"/")
}

func TestStore_Integration(t *testing.T) {
	store := newIntegrationStore(t)
	ctx := context.Background()

	data := []byte("CHIM image stored in minio")
	require.NoError(t, store.Put(ctx, "put.chim", data))

	blob, err := store.Open(ctx, "put.chim")
	require.NoError(t, err)
	require.Equal(t, int64(len(data)), blob.Size())

	buf := make([]byte, len(data))
	n, err := blob.ReadAt(ctx, buf, 0)
	require.NoError(t, err)
	require.Equal(t, len(data), n)
	require.Equal(t, data, buf)

	rc, err := blob.ReadRange(ctx, 5, 5)
	require.NoError(t, err)
	part, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "image", string(part))

	all, err := io.ReadAll(blobstore.NewReader(ctx, blob))
	require.NoError(t, err)
	assert.Equal(t, data, all)
	require.NoError(t, blob.Close())

	w, err := store.Create(ctx, "stream.chim")
	require.NoError(t, err)
	_, err = w.Write([]byte("streamed data"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	blob, err = store.Open(ctx, "stream.chim")
	require.NoError(t, err)
	assert.Equal(t, int64(13), blob.Size())
	require.NoError(t, blob.Close())

	names, err := store.List(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"put.chim", "stream.chim"}, names)

	require.NoError(t, store.Delete(ctx, "put.chim"))
	require.NoError(t, store.Delete(ctx, "stream.chim"))

	_, err = store.Open(ctx, "put.chim")
	assert.ErrorIs(t, err, blobstore.ErrNotFound)
}
