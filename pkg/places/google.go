package places

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/logger"

	"github.com/go-resty/resty/v2"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultGoogleBaseURL   = "https://maps.googleapis.com/maps/api/place"
	DefaultLandmarkRadius  = 1200
	DefaultProximityRadius = 75
)

// GoogleClient searches the Google Places Nearby Search API. Every lookup
// runs a wide landmark search and a narrow proximity search in parallel and
// merges both result lists.
type GoogleClient struct {
	client          *resty.Client
	apiKey          string
	landmarkRadius  int
	proximityRadius int
	maxTries        int
	backoff         util.Backoff
}

type GoogleClientParams struct {
	APIKey          string
	BaseURL         string
	LandmarkRadius  int
	ProximityRadius int
	Timeout         time.Duration
	MaxTries        int
}

type nearbyResponse struct {
	Status       string         `json:"status"`
	ErrorMessage string         `json:"error_message"`
	Results      []nearbyResult `json:"results"`
}

type nearbyResult struct {
	PlaceID  string   `json:"place_id"`
	Name     string   `json:"name"`
	Types    []string `json:"types"`
	Geometry struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location"`
	} `json:"geometry"`
}

func NewGoogleClient(params GoogleClientParams) *GoogleClient {
	baseURL := params.BaseURL
	if baseURL == "" {
		baseURL = DefaultGoogleBaseURL
	}
	timeout := params.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	landmark := params.LandmarkRadius
	if landmark <= 0 {
		landmark = DefaultLandmarkRadius
	}
	proximity := params.ProximityRadius
	if proximity <= 0 {
		proximity = DefaultProximityRadius
	}
	maxTries := params.MaxTries
	if maxTries <= 0 {
		maxTries = 3
	}

	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Accept", "application/json").
		SetTimeout(timeout)

	return &GoogleClient{
		client:          c,
		apiKey:          params.APIKey,
		landmarkRadius:  landmark,
		proximityRadius: proximity,
		maxTries:        maxTries,
		backoff:         util.Backoff{Initial: 200 * time.Millisecond, Max: 2 * time.Second},
	}
}

// FindNearby returns the de-duplicated union of both searches, landmark
// results first. Any failure of either search fails the whole lookup.
func (g *GoogleClient) FindNearby(ctx context.Context, at common.Coordinate) ([]common.PlaceCandidate, error) {
	var landmark, proximity []common.PlaceCandidate

	eg, ectx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		res, err := g.search(ectx, at, g.landmarkRadius)
		landmark = res
		return err
	})
	eg.Go(func() error {
		res, err := g.search(ectx, at, g.proximityRadius)
		proximity = res
		return err
	})
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	return mergeUnique(landmark, proximity), nil
}

func mergeUnique(lists ...[]common.PlaceCandidate) []common.PlaceCandidate {
	seen := make(map[string]struct{})
	var out []common.PlaceCandidate
	for _, list := range lists {
		for _, p := range list {
			if _, ok := seen[p.PlaceID]; ok {
				continue
			}
			seen[p.PlaceID] = struct{}{}
			out = append(out, p)
		}
	}
	return out
}

func (g *GoogleClient) search(ctx context.Context, at common.Coordinate, radius int) ([]common.PlaceCandidate, error) {
	body, err := util.RetryWithBackoff(ctx, g.maxTries, g.backoff, func(ctx context.Context) (*nearbyResponse, error) {
		var out nearbyResponse
		resp, err := g.client.R().
			SetContext(ctx).
			SetQueryParams(map[string]string{
				"location": fmt.Sprintf("%f,%f", at.Lat, at.Lng),
				"radius":   strconv.Itoa(radius),
				"key":      g.apiKey,
			}).
			SetResult(&out).
			Get("/nearbysearch/json")
		if err != nil {
			return nil, err
		}
		status := resp.StatusCode()
		if status >= http.StatusInternalServerError || status == http.StatusTooManyRequests {
			return nil, fmt.Errorf("status %d", status)
		}
		if status != http.StatusOK {
			return nil, util.Permanent(fmt.Errorf("status %d", status))
		}
		switch out.Status {
		case "", "OK", "ZERO_RESULTS":
			return &out, nil
		case "OVER_QUERY_LIMIT", "UNKNOWN_ERROR":
			return nil, fmt.Errorf("api status %s", out.Status)
		default:
			return nil, util.Permanent(fmt.Errorf("api status %s: %s", out.Status, out.ErrorMessage))
		}
	})
	if err != nil {
		logger.Warn("[Places] Nearby search failed", "radius", radius, "err", err)
		return nil, fmt.Errorf("%w: nearby search radius %d: %w", ErrTransport, radius, err)
	}

	out := make([]common.PlaceCandidate, 0, len(body.Results))
	for _, r := range body.Results {
		out = append(out, common.PlaceCandidate{
			PlaceID: r.PlaceID,
			Name:    r.Name,
			Types:   r.Types,
			Location: common.Coordinate{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
		})
	}
	return out, nil
}
