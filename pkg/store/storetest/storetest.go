// Package storetest provides in-memory stores for tests.
package storetest

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"
)

// Photos is an in-memory store.PhotoStore with the same ordering and
// validation as the database implementation.
type Photos struct {
	mu        sync.Mutex
	libraries map[string]map[string]common.PhotoRecord
}

var _ store.PhotoStore = (*Photos)(nil)

func NewPhotos() *Photos {
	return &Photos{libraries: map[string]map[string]common.PhotoRecord{}}
}

func (m *Photos) UpsertPhotos(ctx context.Context, libraryID string, photos []common.PhotoRecord) (int, error) {
	for _, p := range photos {
		if err := store.ValidatePhoto(p); err != nil {
			return 0, err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	lib, ok := m.libraries[libraryID]
	if !ok {
		lib = map[string]common.PhotoRecord{}
		m.libraries[libraryID] = lib
	}
	for _, p := range photos {
		lib[p.ID] = p
	}
	return len(photos), nil
}

func (m *Photos) ListPhotos(ctx context.Context, libraryID string) ([]common.PhotoRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lib := m.libraries[libraryID]
	if len(lib) == 0 {
		return nil, store.ErrEmptyLibrary
	}
	out := make([]common.PhotoRecord, 0, len(lib))
	for _, p := range lib {
		out = append(out, p)
	}
	slices.SortFunc(out, byCreation)
	return out, nil
}

// SearchPhotos ranks by ai.CosineDistance. Embeddings whose dimension differs
// from query are skipped.
func (m *Photos) SearchPhotos(ctx context.Context, libraryID string, query []float32, limit int) ([]common.PhotoRecord, error) {
	if len(query) == 0 || limit <= 0 {
		return nil, nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	type hit struct {
		photo    common.PhotoRecord
		distance float64
	}
	var hits []hit
	for _, p := range m.libraries[libraryID] {
		if len(p.Embedding) != len(query) {
			continue
		}
		hits = append(hits, hit{p, ai.CosineDistance(p.Embedding, query)})
	}
	slices.SortFunc(hits, func(a, b hit) int {
		if a.distance < b.distance {
			return -1
		}
		if a.distance > b.distance {
			return 1
		}
		return byCreation(a.photo, b.photo)
	})

	out := make([]common.PhotoRecord, 0, min(limit, len(hits)))
	for _, h := range hits[:min(limit, len(hits))] {
		out = append(out, h.photo)
	}
	return out, nil
}

func byCreation(a, b common.PhotoRecord) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	if a.ID < b.ID {
		return -1
	}
	if a.ID > b.ID {
		return 1
	}
	return 0
}

func (m *Photos) DeletePhotos(ctx context.Context, libraryID string, ids []string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lib := m.libraries[libraryID]
	if len(ids) == 0 {
		delete(m.libraries, libraryID)
		return len(lib), nil
	}
	n := 0
	for _, id := range store.DedupeStrings(ids) {
		if _, ok := lib[id]; ok {
			delete(lib, id)
			n++
		}
	}
	return n, nil
}

// Jobs is an in-memory store.JobStore.
type Jobs struct {
	mu   sync.Mutex
	jobs map[string]store.Job
}

var _ store.JobStore = (*Jobs)(nil)

func NewJobs() *Jobs {
	return &Jobs{jobs: map[string]store.Job{}}
}

func (m *Jobs) CreateJob(ctx context.Context, job store.Job) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.jobs[job.CorrelationID]; ok {
		return nil
	}
	if job.Status == "" {
		job.Status = store.JobQueued
	}
	now := time.Now().UTC()
	job.CreatedAt, job.UpdatedAt = now, now
	m.jobs[job.CorrelationID] = job
	return nil
}

func (m *Jobs) UpdateJob(ctx context.Context, id string, status store.JobStatus, albums int, errMsg string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return store.ErrJobNotFound
	}
	job.Status, job.Albums, job.Error = status, albums, errMsg
	job.UpdatedAt = time.Now().UTC()
	m.jobs[id] = job
	return nil
}

func (m *Jobs) GetJob(ctx context.Context, id string) (store.Job, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	job, ok := m.jobs[id]
	if !ok {
		return store.Job{}, store.ErrJobNotFound
	}
	return job, nil
}
