package cluster

import (
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/geo/geotest"
)

var (
	epoch  = time.Date(2025, 7, 24, 9, 0, 0, 0, time.UTC)
	placeA = common.Coordinate{Lat: 37.5796, Lng: 126.9770}
	placeB = common.Coordinate{Lat: 37.5512, Lng: 126.9882}
)

func photoAt(id string, offset time.Duration, loc common.Coordinate, emb ...float32) common.PhotoRecord {
	p := common.PhotoRecord{
		ID:        id,
		Location:  loc,
		CreatedAt: epoch.Add(offset),
	}
	if len(emb) > 0 {
		p.Embedding = emb
	}
	return p
}

func near(loc common.Coordinate, meters float64) common.Coordinate {
	return geotest.Offset(loc, meters, 0)
}

func ids(photos []common.PhotoRecord) []string {
	out := make([]string, len(photos))
	for i, p := range photos {
		out[i] = p.ID
	}
	return out
}
