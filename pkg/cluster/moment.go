package cluster

import (
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/geo"
)

const (
	DefaultSpatialThreshold  = 175.0 // meters
	DefaultTemporalThreshold = 3 * time.Hour
)

// MomentOptions configures ClusterMoments.
type MomentOptions struct {
	SpatialThreshold  float64
	TemporalThreshold time.Duration
}

// DefaultMomentOptions returns the stock moment thresholds.
func DefaultMomentOptions() MomentOptions {
	return MomentOptions{
		SpatialThreshold:  DefaultSpatialThreshold,
		TemporalThreshold: DefaultTemporalThreshold,
	}
}

// MomentCluster accumulates the photos of one place visit.
// RepresentativeLocation is the location of the seed photo and never moves.
type MomentCluster struct {
	Photos                 []common.PhotoRecord
	RepresentativeLocation common.Coordinate
	StartTime              time.Time
	EndTime                time.Time
}

// NewMomentCluster seeds a cluster with a single photo.
func NewMomentCluster(seed common.PhotoRecord) *MomentCluster {
	return &MomentCluster{
		Photos:                 []common.PhotoRecord{seed},
		RepresentativeLocation: seed.Location,
		StartTime:              seed.CreatedAt,
		EndTime:                seed.CreatedAt,
	}
}

// NewMomentClusterFrom builds a cluster from an already grouped, non-empty
// set of photos. The first photo is the seed.
func NewMomentClusterFrom(photos []common.PhotoRecord) *MomentCluster {
	c := NewMomentCluster(photos[0])
	for _, p := range photos[1:] {
		c.Add(p)
	}
	return c
}

// Add appends a photo and widens the time span.
func (c *MomentCluster) Add(p common.PhotoRecord) {
	c.Photos = append(c.Photos, p)
	if p.CreatedAt.Before(c.StartTime) {
		c.StartTime = p.CreatedAt
	}
	if p.CreatedAt.After(c.EndTime) {
		c.EndTime = p.CreatedAt
	}
}

// Cover returns the earliest photo of the cluster.
func (c *MomentCluster) Cover() (common.PhotoRecord, bool) {
	if len(c.Photos) == 0 {
		return common.PhotoRecord{}, false
	}
	cover := c.Photos[0]
	for _, p := range c.Photos[1:] {
		if p.CreatedAt.Before(cover.CreatedAt) {
			cover = p
		}
	}
	return cover, true
}

// accepts reports whether p belongs to the visit described by c.
func (c *MomentCluster) accepts(p common.PhotoRecord, opts MomentOptions) bool {
	d := geo.Distance(p.Location, c.RepresentativeLocation)
	dt := p.CreatedAt.Sub(c.EndTime)
	return d < opts.SpatialThreshold && dt < opts.TemporalThreshold
}

// ClusterMoments groups the time ordered photos of a trip into place visits.
//
// Each photo is only compared against the most recently opened cluster. A
// photo that fails the spatial or temporal test opens a new cluster, even if
// it would fit an older one. This keeps the pass linear on time ordered input.
func ClusterMoments(photos []common.PhotoRecord, opts MomentOptions) []*MomentCluster {
	if opts.SpatialThreshold <= 0 {
		opts.SpatialThreshold = DefaultSpatialThreshold
	}
	if opts.TemporalThreshold <= 0 {
		opts.TemporalThreshold = DefaultTemporalThreshold
	}

	arena := make([]MomentCluster, 0)
	for _, p := range photos {
		last := len(arena) - 1
		if last >= 0 && arena[last].accepts(p, opts) {
			arena[last].Add(p)
			continue
		}
		arena = append(arena, *NewMomentCluster(p))
	}

	out := make([]*MomentCluster, 0, len(arena))
	for i := range arena {
		if len(arena[i].Photos) > 0 {
			out = append(out, &arena[i])
		}
	}
	return out
}
