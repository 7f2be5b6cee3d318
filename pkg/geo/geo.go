package geo

import (
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"

	"github.com/paulmach/orb"
	orbgeo "github.com/paulmach/orb/geo"
)

// Point converts a coordinate into an orb point (longitude first).
func Point(c common.Coordinate) orb.Point {
	return orb.Point{c.Lng, c.Lat}
}

// Distance returns the great-circle distance in meters between a and b.
func Distance(a, b common.Coordinate) float64 {
	return orbgeo.DistanceHaversine(Point(a), Point(b))
}
