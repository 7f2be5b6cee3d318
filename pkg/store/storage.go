package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
)

// ErrEmptyLibrary is returned when a library holds no photos.
var ErrEmptyLibrary = errors.New("library has no photos")

// ErrInvalidPhoto is returned when a photo can not be stored as given.
var ErrInvalidPhoto = errors.New("invalid photo")

// ValidatePhoto checks the fields every stored photo needs.
func ValidatePhoto(p common.PhotoRecord) error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidPhoto)
	}
	if p.CreatedAt.IsZero() {
		return fmt.Errorf("%w: photo %s has no creation time", ErrInvalidPhoto, p.ID)
	}
	if p.Location.Lat < -90 || p.Location.Lat > 90 || p.Location.Lng < -180 || p.Location.Lng > 180 {
		return fmt.Errorf("%w: photo %s has coordinates out of range", ErrInvalidPhoto, p.ID)
	}
	return nil
}

// PhotoStore persists the photo records of a library. Libraries are the unit
// albums are generated from; a library usually belongs to one user.
type PhotoStore interface {
	// UpsertPhotos inserts or replaces photos by id and returns the number of
	// rows written.
	UpsertPhotos(ctx context.Context, libraryID string, photos []common.PhotoRecord) (int, error)
	// ListPhotos returns every photo of the library ordered by creation time.
	ListPhotos(ctx context.Context, libraryID string) ([]common.PhotoRecord, error)
	// DeletePhotos removes the given photos, or all photos of the library
	// when ids is empty.
	DeletePhotos(ctx context.Context, libraryID string, ids []string) (int, error)
	// SearchPhotos returns up to limit photos of the library ordered by cosine
	// distance between their embedding and query, nearest first. Photos
	// without an embedding are never returned.
	SearchPhotos(ctx context.Context, libraryID string, query []float32, limit int) ([]common.PhotoRecord, error)
}

// ErrJobNotFound is returned when no job matches a correlation id.
var ErrJobNotFound = errors.New("album job not found")

// JobStatus is the lifecycle state of an asynchronous album generation.
type JobStatus string

const (
	JobQueued     JobStatus = "queued"
	JobProcessing JobStatus = "processing"
	JobCompleted  JobStatus = "completed"
	JobFailed     JobStatus = "failed"
)

// Job tracks one queued album generation.
type Job struct {
	CorrelationID string    `json:"correlation_id"`
	LibraryID     string    `json:"library_id"`
	AlbumKey      string    `json:"album_key"`
	Status        JobStatus `json:"status"`
	Albums        int       `json:"albums"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// JobStore records the progress of queued album generations.
type JobStore interface {
	CreateJob(ctx context.Context, job Job) error
	UpdateJob(ctx context.Context, correlationID string, status JobStatus, albums int, errMsg string) error
	GetJob(ctx context.Context, correlationID string) (Job, error)
}
