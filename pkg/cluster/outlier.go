package cluster

import (
	"math"
	"slices"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"

	"gonum.org/v1/gonum/floats"
)

// DefaultOutlierThreshold is the robust z-score at which a photo is dropped.
const DefaultOutlierThreshold = 2.5

// RemoveOutliers drops photos that look unlike the rest of their cluster.
//
// The centroid is the per-dimension median of the member embeddings. Each
// member is scored by |d - median(d)| / MAD over the cosine distances d to the
// centroid, and members scoring at or above threshold are removed. Clusters of
// two or fewer photos, clusters without embeddings and clusters whose MAD is
// zero are returned unchanged. Photos without an embedding are always kept.
func RemoveOutliers(photos []common.PhotoRecord, threshold float64) []common.PhotoRecord {
	if len(photos) <= 2 {
		return photos
	}
	if threshold <= 0 {
		threshold = DefaultOutlierThreshold
	}

	members := make([]int, 0, len(photos))
	vectors := make([][]float64, 0, len(photos))
	dim := 0
	for i, p := range photos {
		if !p.HasEmbedding() {
			continue
		}
		if dim == 0 {
			dim = len(p.Embedding)
		}
		if len(p.Embedding) != dim {
			continue
		}
		members = append(members, i)
		vectors = append(vectors, toFloat64(p.Embedding))
	}
	if len(vectors) == 0 {
		return photos
	}

	centroid := toFloat32(medianVector(vectors, dim))
	distances := make([]float64, len(members))
	for k, i := range members {
		distances[k] = ai.CosineDistance(photos[i].Embedding, centroid)
	}

	deviations := slices.Clone(distances)
	floats.AddConst(-median(distances), deviations)
	for i, d := range deviations {
		deviations[i] = math.Abs(d)
	}
	mad := median(deviations)
	if mad == 0 {
		return photos
	}

	drop := make(map[int]bool)
	for k, i := range members {
		if deviations[k]/mad >= threshold {
			drop[i] = true
			logger.Debug("[Cluster] Outlier removed", "photo_id", photos[i].ID, "score", deviations[k]/mad)
		}
	}
	if len(drop) == 0 {
		return photos
	}

	out := make([]common.PhotoRecord, 0, len(photos)-len(drop))
	for i, p := range photos {
		if !drop[i] {
			out = append(out, p)
		}
	}
	return out
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func toFloat32(v []float64) []float32 {
	out := make([]float32, len(v))
	for i, x := range v {
		out[i] = float32(x)
	}
	return out
}

func medianVector(vectors [][]float64, dim int) []float64 {
	out := make([]float64, dim)
	column := make([]float64, len(vectors))
	for d := 0; d < dim; d++ {
		for i, v := range vectors {
			column[i] = v[d]
		}
		out[d] = median(column)
	}
	return out
}

// median of xs; even lengths average the two middle values. xs is not modified.
func median(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	sorted := slices.Clone(xs)
	slices.Sort(sorted)
	mid := len(sorted) / 2
	if len(sorted)%2 == 0 {
		return (sorted[mid-1] + sorted[mid]) / 2
	}
	return sorted[mid]
}
