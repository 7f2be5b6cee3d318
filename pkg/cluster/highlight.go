package cluster

import (
	"slices"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"

	"github.com/google/uuid"
)

// DefaultHighlightThreshold is the similarity a photo needs to the first
// member of a group to join it.
const DefaultHighlightThreshold = 0.85

// BuildHighlights splits the photos of one moment into highlights (groups of
// at least two near-identical photos) and optional photos.
//
// Each photo is compared against the first member of every open group and
// joins the most similar group above threshold; the earliest group wins ties.
// Otherwise it opens a new group. Singletons and photos without an embedding
// are returned as optionals, sorted by creation time. Every input photo ends
// up in exactly one of the two results.
func BuildHighlights(photos []common.PhotoRecord, threshold float64) ([]common.Highlight, []common.PhotoRecord) {
	if len(photos) == 0 {
		return nil, nil
	}

	var groups [][]common.PhotoRecord
	var optionals []common.PhotoRecord

	for _, p := range photos {
		if !p.HasEmbedding() {
			optionals = append(optionals, p)
			continue
		}

		best, bestSim := -1, 0.0
		for i, g := range groups {
			sim := ai.CosineSimilarity(p.Embedding, g[0].Embedding)
			if sim > threshold && (best < 0 || sim > bestSim) {
				best, bestSim = i, sim
			}
		}

		if best >= 0 {
			groups[best] = append(groups[best], p)
		} else {
			groups = append(groups, []common.PhotoRecord{p})
		}
	}

	highlights := make([]common.Highlight, 0, len(groups))
	for _, g := range groups {
		if len(g) == 1 {
			optionals = append(optionals, g[0])
			continue
		}
		ids := make([]string, len(g))
		for i, p := range g {
			ids[i] = p.ID
		}
		highlights = append(highlights, common.Highlight{
			ID:                    uuid.NewString(),
			RepresentativeAssetID: g[0].ID,
			AssetIDs:              ids,
		})
	}

	slices.SortStableFunc(optionals, func(a, b common.PhotoRecord) int {
		return a.CreatedAt.Compare(b.CreatedAt)
	})
	return highlights, optionals
}
