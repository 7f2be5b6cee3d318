package sqlite

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/album"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *AlbumCache {
	t.Helper()
	c, err := Open(context.Background(), filepath.Join(t.TempDir(), "albums.db"))
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })
	return c
}

func sampleAlbum(title string) common.Album {
	return common.Album{
		ID:    "a-" + title,
		Title: title,
		Days: []common.Day{{
			ID:   "d1",
			Date: "2024-05-01",
			Moments: []common.Moment{{
				ID:               "m1",
				Name:             "Louvre",
				OptionalAssetIDs: []string{"p1"},
				Status:           common.MomentIdentified,
			}},
		}},
		CreatedAt: time.Date(2024, 5, 2, 0, 0, 0, 0, time.UTC),
	}
}

func TestAlbumCacheRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	_, err := c.Load(ctx, "missing")
	assert.ErrorIs(t, err, album.ErrNotFound)

	a := sampleAlbum("Paris")
	require.NoError(t, c.Save(ctx, "k", &a))

	got, err := c.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, a, *got)

	a.Title = "Paris again"
	require.NoError(t, c.Save(ctx, "k", &a))
	got, err = c.Load(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "Paris again", got.Title)

	require.NoError(t, c.Delete(ctx, "k"))
	require.NoError(t, c.Delete(ctx, "k"))
	_, err = c.Load(ctx, "k")
	assert.ErrorIs(t, err, album.ErrNotFound)
}

func TestAlbumCacheSaveAll(t *testing.T) {
	ctx := context.Background()
	c := openTemp(t)

	albums := []common.Album{sampleAlbum("One"), sampleAlbum("Two")}
	require.NoError(t, album.SaveAll(ctx, c, "trip", albums))

	keys, err := c.Keys(ctx)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"trip-0", "trip-1"}, keys)

	loaded, err := album.LoadAll(ctx, c, "trip")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "One", loaded[0].Title)
	assert.Equal(t, "Two", loaded[1].Title)

	n, err := album.DeleteAll(ctx, c, "trip")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestAlbumCachePersistsAcrossOpen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "albums.db")

	c, err := Open(ctx, path)
	require.NoError(t, err)
	a := sampleAlbum("Rome")
	require.NoError(t, c.Save(ctx, "rome-0", &a))
	require.NoError(t, c.Close())

	c, err = Open(ctx, path)
	require.NoError(t, err)
	defer c.Close()
	got, err := c.Load(ctx, "rome-0")
	require.NoError(t, err)
	assert.Equal(t, "Rome", got.Title)
}
