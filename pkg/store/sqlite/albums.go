// Package sqlite keeps generated albums in a local SQLite file. It backs the
// album cache of the command line tool, where no object store is available.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"

	_ "github.com/mattn/go-sqlite3"
)

// AlbumCache implements album.Cache on a single SQLite table.
type AlbumCache struct {
	db *sql.DB
}

var _ album.Cache = (*AlbumCache)(nil)

// Open opens or creates the database at path and ensures the schema exists.
func Open(ctx context.Context, path string) (*AlbumCache, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open album cache: %w", err)
	}
	db.SetMaxOpenConns(1)

	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create album cache schema: %w", err)
	}
	return &AlbumCache{db: db}, nil
}

func (c *AlbumCache) Close() error {
	return c.db.Close()
}

func (c *AlbumCache) Load(ctx context.Context, key string) (*common.Album, error) {
	var body []byte
	err := c.db.QueryRowContext(ctx, `SELECT body FROM albums WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, album.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load album %s: %w", key, err)
	}

	var a common.Album
	if err := json.Unmarshal(body, &a); err != nil {
		return nil, fmt.Errorf("decode album %s: %w", key, err)
	}
	return &a, nil
}

func (c *AlbumCache) Save(ctx context.Context, key string, a *common.Album) error {
	body, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("encode album %s: %w", key, err)
	}
	_, err = c.db.ExecContext(ctx, upsertSQL, key, body, time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save album %s: %w", key, err)
	}
	return nil
}

func (c *AlbumCache) Delete(ctx context.Context, key string) error {
	if _, err := c.db.ExecContext(ctx, `DELETE FROM albums WHERE key = ?`, key); err != nil {
		return fmt.Errorf("delete album %s: %w", key, err)
	}
	return nil
}

// Keys lists stored entry keys, most recently written first.
func (c *AlbumCache) Keys(ctx context.Context) ([]string, error) {
	rows, err := c.db.QueryContext(ctx, `SELECT key FROM albums ORDER BY updated_at DESC, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

const schemaSQL = `
CREATE TABLE IF NOT EXISTS albums (
    key TEXT PRIMARY KEY,
    body BLOB NOT NULL,
    updated_at TEXT NOT NULL
);
`

const upsertSQL = `
INSERT INTO albums (key, body, updated_at) VALUES (?, ?, ?)
ON CONFLICT(key) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at;
`
