package cluster

import (
	"math"
	"slices"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/geo"
)

// missingEmbeddingDistance is the cosine distance assumed when either photo
// has no embedding.
const missingEmbeddingDistance = 2.0

// DensityOptions configures ClusterByDensity.
type DensityOptions struct {
	Eps            float64
	MinPts         int
	VisualWeight   float64
	GeoWeight      float64
	MaxGeoDistance float64 // meters, geo distance saturates here
}

// DefaultDensityOptions returns the stock density parameters.
func DefaultDensityOptions() DensityOptions {
	return DensityOptions{
		Eps:            0.3,
		MinPts:         3,
		VisualWeight:   0.7,
		GeoWeight:      0.3,
		MaxGeoDistance: 200,
	}
}

// VisualGeoDistance returns a photo distance mixing half the cosine distance
// of the embeddings with the capped, normalized geographic distance.
func VisualGeoDistance(opts DensityOptions) func(a, b common.PhotoRecord) float64 {
	return func(a, b common.PhotoRecord) float64 {
		visual := missingEmbeddingDistance
		if a.HasEmbedding() && b.HasEmbedding() {
			visual = ai.CosineDistance(a.Embedding, b.Embedding)
		}
		visual /= 2

		spatial := 1.0
		if opts.MaxGeoDistance > 0 {
			spatial = math.Min(1, geo.Distance(a.Location, b.Location)/opts.MaxGeoDistance)
		}
		return opts.VisualWeight*visual + opts.GeoWeight*spatial
	}
}

// ClusterByDensity groups photos regardless of their order using DBSCAN over
// VisualGeoDistance. Noise photos are dropped. Every returned group is sorted
// by creation time.
func ClusterByDensity(photos []common.PhotoRecord, opts DensityOptions) [][]common.PhotoRecord {
	if opts.MinPts <= 0 {
		opts.MinPts = DefaultDensityOptions().MinPts
	}
	if len(photos) < opts.MinPts {
		return nil
	}

	d := DBSCAN[common.PhotoRecord]{
		Eps:      opts.Eps,
		MinPts:   opts.MinPts,
		Distance: VisualGeoDistance(opts),
	}
	groups := d.Groups(photos)
	for _, g := range groups {
		slices.SortStableFunc(g, func(a, b common.PhotoRecord) int {
			return a.CreatedAt.Compare(b.CreatedAt)
		})
	}
	return groups
}
