package storage

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"
)

// S3ImageSource loads photo bytes from the bucket. Concurrent requests for
// the same key share one download and results are kept in memory up to
// maxEntries images.
type S3ImageSource struct {
	client ObjectAPI
	bucket string

	maxEntries int
	cache      map[string][]byte
	order      []string
	cacheMu    sync.RWMutex
	group      singleflight.Group
}

func NewS3ImageSource(client ObjectAPI, bucket string, maxEntries int) *S3ImageSource {
	if maxEntries <= 0 {
		maxEntries = 64
	}
	return &S3ImageSource{
		client:     client,
		bucket:     bucket,
		maxEntries: maxEntries,
		cache:      make(map[string][]byte),
	}
}

func (s *S3ImageSource) cached(key string) ([]byte, bool) {
	s.cacheMu.RLock()
	defer s.cacheMu.RUnlock()
	b, ok := s.cache[key]
	return b, ok
}

func (s *S3ImageSource) LoadImage(ctx context.Context, key string) ([]byte, error) {
	if b, ok := s.cached(key); ok {
		return b, nil
	}

	result, err, _ := s.group.Do(key, func() (any, error) {
		if b, ok := s.cached(key); ok {
			return b, nil
		}
		b, err := GetFile(ctx, s.client, s.bucket, key)
		if err != nil {
			return nil, err
		}

		s.cacheMu.Lock()
		if _, ok := s.cache[key]; !ok {
			s.order = append(s.order, key)
			if len(s.order) > s.maxEntries {
				delete(s.cache, s.order[0])
				s.order = s.order[1:]
			}
		}
		s.cache[key] = b
		s.cacheMu.Unlock()
		return b, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]byte), nil
}
