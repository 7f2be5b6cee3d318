package pgx

import (
	"context"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/store"

	pgxv5 "github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"
)

const upsertChunkSize = 500

// PhotoDBStorage implements store.PhotoStore on PostgreSQL. Embeddings are
// kept in a pgvector column; the pool must have the vector types registered.
type PhotoDBStorage struct {
	conn pgxIConn
}

var _ store.PhotoStore = (*PhotoDBStorage)(nil)

// NewPhotoDBStorage wraps an existing connection or pool.
func NewPhotoDBStorage(conn pgxIConn) *PhotoDBStorage {
	return &PhotoDBStorage{conn: conn}
}

func toVector(embedding []float32) *pgvector.Vector {
	if len(embedding) == 0 {
		return nil
	}
	v := pgvector.NewVector(embedding)
	return &v
}

// UpsertPhotos writes photos in chunks, one transaction per chunk.
func (s *PhotoDBStorage) UpsertPhotos(ctx context.Context, libraryID string, photos []common.PhotoRecord) (int, error) {
	if libraryID == "" {
		return 0, fmt.Errorf("%w: empty library id", store.ErrInvalidPhoto)
	}
	for _, p := range photos {
		if err := store.ValidatePhoto(p); err != nil {
			return 0, err
		}
	}
	if len(photos) == 0 {
		return 0, nil
	}

	logger.Debug("[Photos][Upsert] Upserting photos", "library", libraryID, "photos", len(photos))

	written := 0
	err := store.ChunkRange(len(photos), upsertChunkSize, func(start, end int) error {
		tx, err := s.conn.Begin(ctx)
		if err != nil {
			return err
		}
		defer tx.Rollback(ctx)

		batch := &pgxv5.Batch{}
		for _, p := range photos[start:end] {
			batch.Queue(upsertPhotoSQL,
				libraryID,
				p.ID,
				p.Location.Lat,
				p.Location.Lng,
				p.CreatedAt.UTC(),
				toVector(p.Embedding),
				p.ImageKey,
			)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return err
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
		written += end - start
		return nil
	})
	if err != nil {
		return written, fmt.Errorf("upsert photos: %w", err)
	}
	return written, nil
}

// ListPhotos returns the photos of a library ordered by creation time, ties
// broken by id. An unknown library yields store.ErrEmptyLibrary.
func (s *PhotoDBStorage) ListPhotos(ctx context.Context, libraryID string) ([]common.PhotoRecord, error) {
	rows, err := s.conn.Query(ctx, listPhotosSQL, libraryID)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	photos, err := scanPhotos(rows)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	if len(photos) == 0 {
		return nil, store.ErrEmptyLibrary
	}
	return photos, nil
}

// SearchPhotos ranks the embedded photos of a library by cosine distance to
// query using the pgvector <=> operator.
func (s *PhotoDBStorage) SearchPhotos(ctx context.Context, libraryID string, query []float32, limit int) ([]common.PhotoRecord, error) {
	if len(query) == 0 || limit <= 0 {
		return nil, nil
	}
	rows, err := s.conn.Query(ctx, searchPhotosSQL, libraryID, pgvector.NewVector(query), limit)
	if err != nil {
		return nil, fmt.Errorf("search photos: %w", err)
	}
	photos, err := scanPhotos(rows)
	if err != nil {
		return nil, fmt.Errorf("search photos: %w", err)
	}
	logger.Debug("[Photos][Search] Searched photos", "library", libraryID, "results", len(photos))
	return photos, nil
}

func scanPhotos(rows pgxv5.Rows) ([]common.PhotoRecord, error) {
	defer rows.Close()

	var photos []common.PhotoRecord
	for rows.Next() {
		var (
			p         common.PhotoRecord
			createdAt time.Time
			embedding *pgvector.Vector
		)
		if err := rows.Scan(&p.ID, &p.Location.Lat, &p.Location.Lng, &createdAt, &embedding, &p.ImageKey); err != nil {
			return nil, fmt.Errorf("scan photo: %w", err)
		}
		p.CreatedAt = createdAt.UTC()
		if embedding != nil {
			p.Embedding = embedding.Slice()
		}
		photos = append(photos, p)
	}
	return photos, rows.Err()
}

// DeletePhotos removes ids from the library, or the whole library when ids
// is empty.
func (s *PhotoDBStorage) DeletePhotos(ctx context.Context, libraryID string, ids []string) (int, error) {
	var (
		tag pgconn.CommandTag
		err error
	)
	ids = store.DedupeStrings(ids)
	if len(ids) == 0 {
		tag, err = s.conn.Exec(ctx, deleteLibrarySQL, libraryID)
	} else {
		tag, err = s.conn.Exec(ctx, deletePhotosSQL, libraryID, ids)
	}
	if err != nil {
		return 0, fmt.Errorf("delete photos: %w", err)
	}
	n := int(tag.RowsAffected())
	logger.Debug("[Photos][Delete] Deleted photos", "library", libraryID, "deleted", n)
	return n, nil
}

const upsertPhotoSQL = `
INSERT INTO photos (library_id, id, lat, lng, created_at, embedding, image_key, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, now())
ON CONFLICT (library_id, id) DO UPDATE
SET lat        = EXCLUDED.lat,
    lng        = EXCLUDED.lng,
    created_at = EXCLUDED.created_at,
    embedding  = EXCLUDED.embedding,
    image_key  = EXCLUDED.image_key,
    updated_at = now();
`

const listPhotosSQL = `
SELECT id, lat, lng, created_at, embedding, image_key
FROM photos
WHERE library_id = $1
ORDER BY created_at, id;
`

const searchPhotosSQL = `
SELECT id, lat, lng, created_at, embedding, image_key
FROM photos
WHERE library_id = $1 AND embedding IS NOT NULL
ORDER BY embedding <=> $2, created_at, id
LIMIT $3;
`

const deleteLibrarySQL = `
DELETE FROM photos WHERE library_id = $1;
`

const deletePhotosSQL = `
DELETE FROM photos WHERE library_id = $1 AND id = ANY($2);
`
