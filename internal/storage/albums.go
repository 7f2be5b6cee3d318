package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
)

const defaultAlbumPrefix = "albums"

// S3AlbumCache stores albums as JSON objects under {prefix}/{key}.json.
type S3AlbumCache struct {
	client   ObjectAPI
	bucket   string
	prefix   string
	maxTries int
}

func NewS3AlbumCache(client ObjectAPI, bucket string) *S3AlbumCache {
	return &S3AlbumCache{
		client:   client,
		bucket:   bucket,
		prefix:   defaultAlbumPrefix,
		maxTries: 3,
	}
}

func (c *S3AlbumCache) objectKey(key string) string {
	return path.Join(c.prefix, key+".json")
}

func (c *S3AlbumCache) Load(ctx context.Context, key string) (*common.Album, error) {
	body, err := util.RetryWithContext(ctx, c.maxTries, func(ctx context.Context) ([]byte, error) {
		b, err := GetFile(ctx, c.client, c.bucket, c.objectKey(key))
		if errors.Is(err, ErrObjectNotFound) {
			return nil, util.Permanent(err)
		}
		return b, err
	})
	if errors.Is(err, ErrObjectNotFound) {
		return nil, album.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var a common.Album
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("decode album %s: %w", key, err)
	}
	return &a, nil
}

func (c *S3AlbumCache) Save(ctx context.Context, key string, a *common.Album) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode album %s: %w", key, err)
	}
	return util.RetryErrWithContext(ctx, c.maxTries, func(ctx context.Context) error {
		return PutFile(ctx, c.client, c.bucket, c.objectKey(key), body, "application/json")
	})
}

func (c *S3AlbumCache) Delete(ctx context.Context, key string) error {
	return DeleteFile(ctx, c.client, c.bucket, c.objectKey(key))
}

// Keys lists the album keys stored in the bucket.
func (c *S3AlbumCache) Keys(ctx context.Context) ([]string, error) {
	objects, err := ListFilesWithPrefix(ctx, c.client, c.bucket, c.prefix+"/")
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(objects))
	for _, o := range objects {
		name := path.Base(o)
		if path.Ext(name) != ".json" {
			continue
		}
		keys = append(keys, name[:len(name)-len(".json")])
	}
	return keys, nil
}
