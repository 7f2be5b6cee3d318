package pgx

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToVector(t *testing.T) {
	assert.Nil(t, toVector(nil))
	assert.Nil(t, toVector([]float32{}))

	v := toVector([]float32{0.5, 1})
	require.NotNil(t, v)
	assert.Equal(t, []float32{0.5, 1}, v.Slice())
}

func TestSearchPhotos_EmptyQuery(t *testing.T) {
	s := NewPhotoDBStorage(nil)

	got, err := s.SearchPhotos(context.Background(), "lib", nil, 10)
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = s.SearchPhotos(context.Background(), "lib", []float32{1}, 0)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchPhotosSQL(t *testing.T) {
	assert.Contains(t, searchPhotosSQL, "embedding IS NOT NULL")
	assert.Contains(t, searchPhotosSQL, "ORDER BY embedding <=> $2")
	assert.Contains(t, searchPhotosSQL, "LIMIT $3")
}
