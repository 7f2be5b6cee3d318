// Package geotest builds coordinates for test fixtures.
package geotest

import (
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/geo"

	orbgeo "github.com/paulmach/orb/geo"
)

// Offset returns the coordinate reached by moving north and east by the given
// number of meters.
func Offset(c common.Coordinate, north, east float64) common.Coordinate {
	p := orbgeo.PointAtBearingAndDistance(geo.Point(c), 0, north)
	p = orbgeo.PointAtBearingAndDistance(p, 90, east)
	return common.Coordinate{Lat: p.Lat(), Lng: p.Lon()}
}
