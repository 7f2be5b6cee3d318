// Package poi ranks nearby places against the photo that was taken there.
package poi

import (
	"context"
	"slices"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/geo"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/places"

	"golang.org/x/sync/errgroup"
)

const (
	DefaultTagConcurrency = 4
	DefaultTagBatchSize   = 16
)

// Ranker scores place candidates by how well their category tags describe
// the photo and how close they are to where it was taken.
type Ranker struct {
	Embedder ai.EmbeddingClient

	TagConcurrency int
	TagBatchSize   int
}

func NewRanker(embedder ai.EmbeddingClient) *Ranker {
	return &Ranker{
		Embedder:       embedder,
		TagConcurrency: DefaultTagConcurrency,
		TagBatchSize:   DefaultTagBatchSize,
	}
}

// RankImage embeds image and ranks candidates against it. An image that
// cannot be embedded yields an empty result.
func (r *Ranker) RankImage(
	ctx context.Context,
	image []byte,
	at common.Coordinate,
	candidates []common.PlaceCandidate,
) []common.RankedCandidate {
	if len(candidates) == 0 {
		return nil
	}
	emb, err := r.Embedder.GenerateImageEmbedding(ctx, image)
	if err != nil {
		logger.Warn("[POI] Image embedding failed", "err", err)
		return nil
	}
	return r.Rank(ctx, emb, at, candidates)
}

// Rank returns candidates sorted by descending fused score. Ties keep their
// input order. An empty embedding or candidate list yields nil.
func (r *Ranker) Rank(
	ctx context.Context,
	embedding []float32,
	at common.Coordinate,
	candidates []common.PlaceCandidate,
) []common.RankedCandidate {
	if len(embedding) == 0 || len(candidates) == 0 {
		return nil
	}

	tagsPer := make([][]string, len(candidates))
	var distinct []string
	seen := make(map[string]struct{})
	for i, c := range candidates {
		tagsPer[i] = HighQualityTags(c.Types)
		for _, t := range tagsPer[i] {
			if _, ok := seen[t]; ok {
				continue
			}
			seen[t] = struct{}{}
			distinct = append(distinct, t)
		}
	}

	tagEmb := r.embedTags(ctx, distinct)

	ranked := make([]common.RankedCandidate, len(candidates))
	for i, c := range candidates {
		d := geo.Distance(at, c.Location)

		// Similarity is floored at 0 so unrelated tags never penalize.
		sim := 0.0
		for _, t := range tagsPer[i] {
			if v, ok := tagEmb[t]; ok {
				sim = max(sim, ai.CosineSimilarity(embedding, v))
			}
		}

		ranked[i] = common.RankedCandidate{
			Place:           c,
			Distance:        d,
			SimilarityScore: sim,
			FinalScore:      FusedScore(sim, d, PriorityBonus(c.Types), ProximityBonus(d, c.Types)),
			Categories:      places.MapCategories(c.Types),
		}
	}

	slices.SortStableFunc(ranked, func(a, b common.RankedCandidate) int {
		switch {
		case a.FinalScore > b.FinalScore:
			return -1
		case a.FinalScore < b.FinalScore:
			return 1
		}
		return 0
	})

	logger.Debug("[POI] Ranked candidates", "candidates", len(ranked), "tags", len(distinct), "embedded", len(tagEmb))
	return ranked
}

// embedTags embeds tags in batches spread over a bounded number of
// goroutines. Tags of a failed batch are missing from the result.
func (r *Ranker) embedTags(ctx context.Context, tags []string) map[string][]float32 {
	if len(tags) == 0 {
		return nil
	}
	batchSize := r.TagBatchSize
	if batchSize <= 0 {
		batchSize = DefaultTagBatchSize
	}
	concurrency := r.TagConcurrency
	if concurrency <= 0 {
		concurrency = DefaultTagConcurrency
	}

	var batches [][]string
	for start := 0; start < len(tags); start += batchSize {
		batches = append(batches, tags[start:min(start+batchSize, len(tags))])
	}
	results := make([][][]float32, len(batches))

	// Batch failures degrade to missing tags, so no goroutine returns an error.
	var eg errgroup.Group
	eg.SetLimit(concurrency)
	for i, batch := range batches {
		eg.Go(func() error {
			vecs, err := r.Embedder.GenerateTextEmbeddings(ctx, batch)
			if err != nil {
				logger.Warn("[POI] Tag embedding failed", "tags", len(batch), "err", err)
				return nil
			}
			if len(vecs) != len(batch) {
				logger.Warn("[POI] Tag embedding size mismatch", "got", len(vecs), "want", len(batch))
				return nil
			}
			results[i] = vecs
			return nil
		})
	}
	_ = eg.Wait()

	out := make(map[string][]float32, len(tags))
	for i, batch := range batches {
		for j, tag := range batch {
			if results[i] == nil || len(results[i][j]) == 0 {
				continue
			}
			out[tag] = results[i][j]
		}
	}
	return out
}
