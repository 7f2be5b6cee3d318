// Package album turns a photo library into trip albums: trips are split by
// time gaps, trips into place visits, and each visit is named after the best
// matching nearby place.
package album

import (
	"cmp"
	"context"
	"slices"
	"sync"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/cluster"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/places"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/poi"

	"golang.org/x/sync/errgroup"
)

// Progress step names.
const (
	StepTrips      = "finding trips"
	StepMoments    = "finding moments"
	StepPlaces     = "analyzing places"
	StepHighlights = "creating highlights"
	StepDone       = "done"
)

// Assembler builds albums. Embedder and Ranker are required; Places and
// Images are optional and their absence degrades naming only.
type Assembler struct {
	Embedder ai.EmbeddingClient
	Places   places.Finder
	Images   ImageSource
	Ranker   *poi.Ranker
	Config   Config

	// Progress, when set, receives step transitions. Calls are serialized.
	Progress func(util.Progress)

	progressMu sync.Mutex
}

// NewAssembler wires an Assembler with a default ranker.
func NewAssembler(embedder ai.EmbeddingClient, finder places.Finder, cfg Config) *Assembler {
	return &Assembler{
		Embedder: embedder,
		Places:   finder,
		Ranker:   poi.NewRanker(embedder),
		Config:   cfg,
	}
}

// Derive returns a new Assembler sharing the backends of a with its own
// configuration and no progress callback. Use one per concurrent job.
func (a *Assembler) Derive(cfg Config) *Assembler {
	return &Assembler{
		Embedder: a.Embedder,
		Places:   a.Places,
		Images:   a.Images,
		Ranker:   a.Ranker,
		Config:   cfg,
	}
}

func (a *Assembler) report(step string, current, total int) {
	if a.Progress == nil {
		return
	}
	a.progressMu.Lock()
	defer a.progressMu.Unlock()
	a.Progress(util.Progress{Step: step, Current: current, Total: total})
}

// Assemble sorts photos by creation time, splits them into trips and builds
// one album per trip, in trip order. Only invalid configuration and context
// cancellation are reported as errors.
func (a *Assembler) Assemble(ctx context.Context, photos []common.PhotoRecord) ([]common.Album, error) {
	cfg := a.Config
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sorted := slices.Clone(photos)
	slices.SortStableFunc(sorted, func(x, y common.PhotoRecord) int {
		return x.CreatedAt.Compare(y.CreatedAt)
	})

	a.report(StepTrips, 0, 1)
	trips, err := cluster.SegmentTrips(sorted, cfg.TripSeparation)
	if err != nil {
		return nil, err
	}
	a.report(StepTrips, 1, 1)
	if len(trips) > 0 {
		logger.Info("[Album] Trips detected", "photos", len(sorted), "trips", len(trips),
			"from", trips[0].Start().In(cfg.Location).Format(time.DateOnly),
			"to", trips[len(trips)-1].End().In(cfg.Location).Format(time.DateOnly))
	}

	albums := make([]common.Album, len(trips))
	eg, ectx := errgroup.WithContext(ctx)
	eg.SetLimit(cfg.TripConcurrency)
	for i, trip := range trips {
		eg.Go(func() error {
			album, err := a.assembleTrip(ectx, cfg, trip)
			if err != nil {
				return err
			}
			albums[i] = album
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	a.report(StepDone, len(albums), len(albums))
	return albums, nil
}

// assembleTrip builds the album of a single time ordered trip. cfg has been
// validated by the caller.
func (a *Assembler) assembleTrip(ctx context.Context, cfg Config, trip common.Trip) (common.Album, error) {
	a.report(StepMoments, 0, 1)
	clusters := clusterMoments(cfg, trip.Photos)
	a.report(StepMoments, 1, 1)

	moments := make([]draftMoment, 0, len(clusters))
	for i, c := range clusters {
		if err := ctx.Err(); err != nil {
			return common.Album{}, err
		}
		a.report(StepPlaces, i, len(clusters))

		id, err := a.identify(ctx, cfg, c)
		if err != nil {
			return common.Album{}, err
		}

		highlights, optionals := cluster.BuildHighlights(c.Photos, cfg.HighlightThreshold)
		if len(highlights) == 0 && len(optionals) == 0 {
			continue
		}
		moments = append(moments, draftMoment{
			cluster:    c,
			ident:      id,
			highlights: highlights,
			optionals:  optionals,
		})
	}
	a.report(StepPlaces, len(clusters), len(clusters))
	a.report(StepHighlights, 1, 1)

	album := buildAlbum(moments, cfg.Location)
	logger.Debug("[Album] Trip assembled", "title", album.Title, "days", len(album.Days), "moments", len(moments))
	return album, nil
}

func clusterMoments(cfg Config, photos []common.PhotoRecord) []*cluster.MomentCluster {
	if cfg.Strategy != StrategyDensity {
		return cluster.ClusterMoments(photos, cfg.momentOptions())
	}

	groups := cluster.ClusterByDensity(photos, cfg.densityOptions())
	out := make([]*cluster.MomentCluster, 0, len(groups))
	for _, g := range groups {
		kept := cluster.RemoveOutliers(g, cfg.OutlierThreshold)
		if len(kept) == 0 {
			continue
		}
		out = append(out, cluster.NewMomentClusterFrom(kept))
	}
	slices.SortStableFunc(out, func(x, y *cluster.MomentCluster) int {
		return cmp.Compare(x.StartTime.UnixNano(), y.StartTime.UnixNano())
	})
	return out
}
