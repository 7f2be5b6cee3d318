// Package places looks up named places around a coordinate.
package places

import (
	"context"
	"errors"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
)

// ErrTransport wraps every failure to reach or understand the place search
// backend. An empty result is not an error.
var ErrTransport = errors.New("place search transport error")

// Finder returns candidate places around a coordinate.
type Finder interface {
	FindNearby(ctx context.Context, at common.Coordinate) ([]common.PlaceCandidate, error)
}

// FinderFunc adapts a plain function to Finder.
type FinderFunc func(ctx context.Context, at common.Coordinate) ([]common.PlaceCandidate, error)

func (f FinderFunc) FindNearby(ctx context.Context, at common.Coordinate) ([]common.PlaceCandidate, error) {
	return f(ctx, at)
}

// Static is a Finder that always returns the same places. Used for offline
// runs and tests.
type Static []common.PlaceCandidate

func (s Static) FindNearby(context.Context, common.Coordinate) ([]common.PlaceCandidate, error) {
	out := make([]common.PlaceCandidate, len(s))
	copy(out, s)
	return out, nil
}
