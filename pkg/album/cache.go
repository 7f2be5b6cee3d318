package album

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
)

// ErrNotFound is returned by a Cache when no album is stored under a key.
var ErrNotFound = errors.New("album not found")

// Cache persists generated albums by key. Delete of a missing key is not an
// error.
type Cache interface {
	Load(ctx context.Context, key string) (*common.Album, error)
	Save(ctx context.Context, key string, album *common.Album) error
	Delete(ctx context.Context, key string) error
}

// ImageSource returns the raw bytes of a photo by its image key.
type ImageSource interface {
	LoadImage(ctx context.Context, key string) ([]byte, error)
}

// EntryKey is the cache key of the n-th album generated under key.
func EntryKey(key string, n int) string {
	return fmt.Sprintf("%s-%d", key, n)
}

// SaveAll stores albums under EntryKey(key, 0..n-1).
func SaveAll(ctx context.Context, cache Cache, key string, albums []common.Album) error {
	for i := range albums {
		if err := cache.Save(ctx, EntryKey(key, i), &albums[i]); err != nil {
			return fmt.Errorf("save album %d: %w", i, err)
		}
	}
	return nil
}

// LoadAll returns the albums stored by SaveAll, stopping at the first gap.
// A key without any album yields ErrNotFound.
func LoadAll(ctx context.Context, cache Cache, key string) ([]common.Album, error) {
	var out []common.Album
	for i := 0; ; i++ {
		a, err := cache.Load(ctx, EntryKey(key, i))
		if errors.Is(err, ErrNotFound) {
			break
		}
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// DeleteAll removes every album stored by SaveAll and returns how many were
// removed.
func DeleteAll(ctx context.Context, cache Cache, key string) (int, error) {
	n := 0
	for ; ; n++ {
		k := EntryKey(key, n)
		if _, err := cache.Load(ctx, k); errors.Is(err, ErrNotFound) {
			break
		} else if err != nil {
			return n, err
		}
		if err := cache.Delete(ctx, k); err != nil {
			return n, err
		}
	}
	if n == 0 {
		return 0, ErrNotFound
	}
	return n, nil
}

// MemoryCache is a Cache backed by a map. Albums are stored as JSON so
// callers never share slices with the cache.
type MemoryCache struct {
	mu     sync.RWMutex
	albums map[string][]byte
}

func NewMemoryCache() *MemoryCache {
	return &MemoryCache{albums: map[string][]byte{}}
}

func (m *MemoryCache) Load(ctx context.Context, key string) (*common.Album, error) {
	m.mu.RLock()
	body, ok := m.albums[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	var a common.Album
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, err
	}
	return &a, nil
}

func (m *MemoryCache) Save(ctx context.Context, key string, album *common.Album) error {
	body, err := json.Marshal(album)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.albums[key] = body
	m.mu.Unlock()
	return nil
}

func (m *MemoryCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	delete(m.albums, key)
	m.mu.Unlock()
	return nil
}
