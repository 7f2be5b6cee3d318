package album

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/cluster"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/poi"
)

// Names used when no place could be picked for a moment.
const (
	NameUnknownPlace      = "Unknown Place"
	NameNoNearbyPlaces    = "No Nearby Places"
	NamePlaceSearchFailed = "Place Search Failed"
	NameRecommendedPlace  = "Recommended Place"
)

type identification struct {
	name           string
	status         common.MomentStatus
	representative common.PhotoRecord
	candidates     []common.POICandidate
}

// identify names the moment after the best ranked place around its earliest
// photo. Missing data and place search failures degrade to a fallback name.
// The returned error is only ever a context error.
func (a *Assembler) identify(ctx context.Context, cfg Config, c *cluster.MomentCluster) (identification, error) {
	rep, _ := c.Cover()
	id := identification{representative: rep}

	emb := a.representativeEmbedding(ctx, rep)
	if len(emb) == 0 {
		id.name, id.status = NameUnknownPlace, common.MomentUnknownPlace
		return id, ctx.Err()
	}

	if a.Places == nil {
		id.name, id.status = NameNoNearbyPlaces, common.MomentNoNearbyPlaces
		return id, nil
	}
	found, err := a.Places.FindNearby(ctx, rep.Location)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return id, ctxErr
		}
		logger.Warn("[Album] Place search failed", "photo", rep.ID, "err", err)
		id.name, id.status = NamePlaceSearchFailed, common.MomentPlaceSearchFailed
		return id, nil
	}
	if len(found) == 0 {
		id.name, id.status = NameNoNearbyPlaces, common.MomentNoNearbyPlaces
		return id, nil
	}

	ranker := a.Ranker
	if ranker == nil {
		ranker = poi.NewRanker(a.Embedder)
	}
	ranked := ranker.Rank(ctx, emb, rep.Location, found)
	id.status = common.MomentIdentified
	if len(ranked) == 0 {
		id.name = NameRecommendedPlace
		return id, nil
	}
	id.name = ranked[0].Place.Name

	limit := len(ranked)
	if cfg.MaxCandidates > 0 {
		limit = min(limit, cfg.MaxCandidates)
	}
	id.candidates = make([]common.POICandidate, 0, limit)
	for _, r := range ranked[:limit] {
		id.candidates = append(id.candidates, common.POICandidate{
			ID:        r.Place.PlaceID,
			Name:      r.Place.Name,
			Score:     r.FinalScore,
			Latitude:  r.Place.Location.Lat,
			Longitude: r.Place.Location.Lng,
		})
	}
	return id, nil
}

// representativeEmbedding returns the stored embedding of rep, or embeds its
// image when none is stored. Failures yield nil.
func (a *Assembler) representativeEmbedding(ctx context.Context, rep common.PhotoRecord) []float32 {
	if rep.HasEmbedding() {
		return rep.Embedding
	}
	if a.Images == nil || rep.ImageKey == "" {
		return nil
	}

	img, err := a.Images.LoadImage(ctx, rep.ImageKey)
	if err != nil {
		logger.Warn("[Album] Loading representative image failed", "photo", rep.ID, "key", rep.ImageKey, "err", err)
		return nil
	}
	emb, err := a.Embedder.GenerateImageEmbedding(ctx, img)
	if err != nil {
		if !errors.Is(err, context.Canceled) {
			logger.Warn("[Album] Embedding representative image failed", "photo", rep.ID, "err", err)
		}
		return nil
	}
	return emb
}
