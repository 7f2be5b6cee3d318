package storage

import (
	"bytes"
	"context"
	"io"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBucket struct {
	mu      sync.Mutex
	objects map[string][]byte
	gets    atomic.Int32
}

func newFakeBucket() *fakeBucket {
	return &fakeBucket{objects: map[string][]byte{}}
}

func (f *fakeBucket) GetObject(ctx context.Context, in *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	f.gets.Add(1)
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.objects[aws.ToString(in.Key)]
	if !ok {
		return nil, &types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(b))}, nil
}

func (f *fakeBucket) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.objects[aws.ToString(in.Key)] = b
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeBucket) DeleteObject(ctx context.Context, in *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
	f.mu.Lock()
	delete(f.objects, aws.ToString(in.Key))
	f.mu.Unlock()
	return &s3.DeleteObjectOutput{}, nil
}

func (f *fakeBucket) ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var keys []string
	for k := range f.objects {
		if strings.HasPrefix(k, aws.ToString(in.Prefix)) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	out := &s3.ListObjectsV2Output{IsTruncated: aws.Bool(false)}
	for _, k := range keys {
		out.Contents = append(out.Contents, types.Object{Key: aws.String(k)})
	}
	return out, nil
}

func TestS3AlbumCache(t *testing.T) {
	bucket := newFakeBucket()
	cache := NewS3AlbumCache(bucket, "photos")
	ctx := t.Context()

	_, err := cache.Load(ctx, "missing")
	require.ErrorIs(t, err, album.ErrNotFound)
	assert.Equal(t, int32(1), bucket.gets.Load(), "not found must not be retried")

	in := &common.Album{ID: "a1", Title: "Trip of 2025-07-24"}
	require.NoError(t, cache.Save(ctx, "lib-0", in))
	assert.Contains(t, bucket.objects, "albums/lib-0.json")

	out, err := cache.Load(ctx, "lib-0")
	require.NoError(t, err)
	assert.Equal(t, in.Title, out.Title)

	keys, err := cache.Keys(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"lib-0"}, keys)

	require.NoError(t, cache.Delete(ctx, "lib-0"))
	_, err = cache.Load(ctx, "lib-0")
	assert.ErrorIs(t, err, album.ErrNotFound)
}

func TestS3AlbumCache_WithHelpers(t *testing.T) {
	cache := NewS3AlbumCache(newFakeBucket(), "photos")
	ctx := t.Context()

	require.NoError(t, album.SaveAll(ctx, cache, "k", []common.Album{{ID: "x"}, {ID: "y"}}))
	got, err := album.LoadAll(ctx, cache, "k")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestS3ImageSource(t *testing.T) {
	bucket := newFakeBucket()
	bucket.objects["photos/a.jpg"] = []byte("a")
	bucket.objects["photos/b.jpg"] = []byte("b")

	src := NewS3ImageSource(bucket, "photos", 1)
	ctx := t.Context()

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b, err := src.LoadImage(ctx, "photos/a.jpg")
			assert.NoError(t, err)
			assert.Equal(t, []byte("a"), b)
		}()
	}
	wg.Wait()
	assert.LessOrEqual(t, bucket.gets.Load(), int32(8))

	before := bucket.gets.Load()
	_, err := src.LoadImage(ctx, "photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, before, bucket.gets.Load(), "cached image must not be fetched again")

	_, err = src.LoadImage(ctx, "photos/b.jpg")
	require.NoError(t, err)
	// a was evicted by b
	_, err = src.LoadImage(ctx, "photos/a.jpg")
	require.NoError(t, err)
	assert.Equal(t, before+2, bucket.gets.Load())

	_, err = src.LoadImage(ctx, "photos/none.jpg")
	assert.ErrorIs(t, err, ErrObjectNotFound)
}
