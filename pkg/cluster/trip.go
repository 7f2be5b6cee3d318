package cluster

import (
	"errors"
	"fmt"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
)

// DefaultTripSeparation is the gap between two photos that starts a new trip.
const DefaultTripSeparation = 48 * time.Hour

// ErrInvalidOrder is returned when photos are not sorted by creation time.
var ErrInvalidOrder = errors.New("photos are not sorted by creation time")

// SegmentTrips splits a time ordered photo sequence into trips. A new trip
// starts whenever the gap to the previous photo is at least threshold, so
// gaps inside a trip are always shorter than threshold and gaps between trips
// never are. Concatenating the trips reproduces the input.
func SegmentTrips(photos []common.PhotoRecord, threshold time.Duration) ([]common.Trip, error) {
	if len(photos) == 0 {
		return nil, nil
	}
	if threshold <= 0 {
		threshold = DefaultTripSeparation
	}

	trips := make([]common.Trip, 0, 1)
	current := []common.PhotoRecord{photos[0]}

	for i := 1; i < len(photos); i++ {
		prev, cur := photos[i-1], photos[i]
		if cur.CreatedAt.Before(prev.CreatedAt) {
			return nil, fmt.Errorf("%w: photo %q at index %d precedes %q", ErrInvalidOrder, cur.ID, i, prev.ID)
		}
		if cur.CreatedAt.Sub(prev.CreatedAt) >= threshold {
			trips = append(trips, common.Trip{Photos: current})
			current = nil
		}
		current = append(current, cur)
	}

	return append(trips, common.Trip{Photos: current}), nil
}
