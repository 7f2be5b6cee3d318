package album

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
	_ "time/tzdata"

	"github.com/OFFIS-RIT/tripalbum/backend/internal/util"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/ai/aitest"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/geo"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/geo/geotest"
	"github.com/OFFIS-RIT/tripalbum/backend/pkg/places"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	epoch   = time.Date(2025, 7, 24, 9, 0, 0, 0, time.UTC)
	palace  = common.Coordinate{Lat: 37.5796, Lng: 126.9770}
	tower   = common.Coordinate{Lat: 37.5512, Lng: 126.9882}
	embA    = []float32{1, 0, 0}
	embB    = []float32{0, 1, 0}
	embCafe = []float32{0, 0, 1}
)

func photo(id string, offset time.Duration, loc common.Coordinate, emb []float32) common.PhotoRecord {
	return common.PhotoRecord{ID: id, Location: loc, CreatedAt: epoch.Add(offset), Embedding: emb}
}

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Location = time.UTC
	cfg.TimeZone = "UTC"
	return cfg
}

// seoulFinder returns a landmark and a cafe around whichever site is asked for.
func seoulFinder() places.Finder {
	return places.FinderFunc(func(ctx context.Context, at common.Coordinate) ([]common.PlaceCandidate, error) {
		if geo.Distance(at, palace) < 500 {
			return []common.PlaceCandidate{
				{PlaceID: "gbg", Name: "Gyeongbokgung Palace", Types: []string{"tourist_attraction", "point_of_interest"}, Location: geotest.Offset(palace, 20, 0)},
				{PlaceID: "cafe1", Name: "Palace Cafe", Types: []string{"cafe"}, Location: geotest.Offset(palace, 0, 60)},
			}, nil
		}
		return []common.PlaceCandidate{
			{PlaceID: "nst", Name: "N Seoul Tower", Types: []string{"observation_deck", "tourist_attraction"}, Location: geotest.Offset(tower, 15, 0)},
			{PlaceID: "cafe2", Name: "Tower Cafe", Types: []string{"cafe"}, Location: geotest.Offset(tower, 0, 90)},
		}, nil
	})
}

func seoulEmbedder() *aitest.FakeClient {
	fake := aitest.NewFakeClient()
	fake.Labels["tourist attraction"] = []float32{0.7, 0.7, 0}
	fake.Labels["observation deck"] = embB
	fake.Labels["cafe"] = embCafe
	return fake
}

func TestAssemble_TwoMomentsWithHighlights(t *testing.T) {
	photos := []common.PhotoRecord{
		// input order is shuffled on purpose
		photo("b2", 3*time.Hour+10*time.Minute, geotest.Offset(tower, 5, 5), embB),
		photo("a1", 0, palace, embA),
		photo("b1", 3*time.Hour+5*time.Minute, tower, embB),
		photo("a2", 5*time.Minute, geotest.Offset(palace, 10, 0), embA),
	}

	a := NewAssembler(seoulEmbedder(), seoulFinder(), testConfig())
	albums, err := a.Assemble(t.Context(), photos)
	require.NoError(t, err)
	require.Len(t, albums, 1)

	album := albums[0]
	assert.Equal(t, "Trip of 2025-07-24", album.Title)
	require.Len(t, album.Days, 1)
	day := album.Days[0]
	assert.Equal(t, "2025-07-24", day.Date)
	assert.Equal(t, "a1", day.CoverImage)
	assert.Equal(t, "Gyeongbokgung Palace, N Seoul Tower & more", day.Summary)

	require.Len(t, day.Moments, 2)
	first, second := day.Moments[0], day.Moments[1]

	assert.Equal(t, "Gyeongbokgung Palace", first.Name)
	assert.Equal(t, common.MomentIdentified, first.Status)
	assert.Equal(t, "09:00", first.Time)
	assert.Equal(t, "a1", first.RepresentativeAssetID)
	require.Len(t, first.Highlights, 1)
	assert.Equal(t, []string{"a1", "a2"}, first.Highlights[0].AssetIDs)
	assert.Empty(t, first.OptionalAssetIDs)
	require.Len(t, first.POICandidates, 2)
	assert.Equal(t, "gbg", first.POICandidates[0].ID)
	assert.GreaterOrEqual(t, first.POICandidates[0].Score, first.POICandidates[1].Score)

	assert.Equal(t, "N Seoul Tower", second.Name)
	assert.Equal(t, "12:05", second.Time)
	require.Len(t, second.Highlights, 1)
	assert.Equal(t, []string{"b1", "b2"}, second.Highlights[0].AssetIDs)
	assert.Empty(t, second.OptionalAssetIDs)

	assert.NotEqual(t, first.ID, second.ID)
	assert.NotEmpty(t, album.ID)
}

func TestAssemble_SplitsTripsAndDays(t *testing.T) {
	photos := []common.PhotoRecord{
		photo("d1", 0, palace, embA),
		photo("d2", 16*time.Hour, tower, embB), // next day 01:00
		photo("x1", 5*24*time.Hour, palace, embA),
	}

	a := NewAssembler(seoulEmbedder(), seoulFinder(), testConfig())
	albums, err := a.Assemble(t.Context(), photos)
	require.NoError(t, err)
	require.Len(t, albums, 2)

	assert.Equal(t, "Trip: 2025-07-24 - 2025-07-25", albums[0].Title)
	require.Len(t, albums[0].Days, 2)
	assert.Equal(t, "2025-07-25", albums[0].Days[1].Date)
	assert.Equal(t, []string{"d2"}, albums[0].Days[1].Moments[0].OptionalAssetIDs)

	assert.Equal(t, "Trip of 2025-07-29", albums[1].Title)
}

func TestAssemble_TimeZoneShiftsDates(t *testing.T) {
	cfg := testConfig()
	loc, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)
	cfg.Location = loc

	// 20:00 UTC is 05:00 the next morning in Seoul.
	photos := []common.PhotoRecord{photo("late", 11*time.Hour, palace, embA)}
	albums, err := NewAssembler(seoulEmbedder(), seoulFinder(), cfg).Assemble(t.Context(), photos)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	assert.Equal(t, "2025-07-25", albums[0].Days[0].Date)
	assert.Equal(t, "05:00", albums[0].Days[0].Moments[0].Time)
}

func TestAssemble_Degradations(t *testing.T) {
	photos := []common.PhotoRecord{
		photo("noemb", 0, palace, nil),
		photo("fail", 4*time.Hour, tower, embB),
		photo("empty", 8*time.Hour, geotest.Offset(tower, 3000, 0), embB),
	}
	finder := places.FinderFunc(func(ctx context.Context, at common.Coordinate) ([]common.PlaceCandidate, error) {
		if geo.Distance(at, tower) < 500 {
			return nil, errors.Join(places.ErrTransport, errors.New("boom"))
		}
		return nil, nil
	})

	albums, err := NewAssembler(seoulEmbedder(), finder, testConfig()).Assemble(t.Context(), photos)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	moments := albums[0].Days[0].Moments
	require.Len(t, moments, 3)

	assert.Equal(t, NameUnknownPlace, moments[0].Name)
	assert.Equal(t, common.MomentUnknownPlace, moments[0].Status)
	assert.Equal(t, []string{"noemb"}, moments[0].OptionalAssetIDs)

	assert.Equal(t, NamePlaceSearchFailed, moments[1].Name)
	assert.Equal(t, common.MomentPlaceSearchFailed, moments[1].Status)

	assert.Equal(t, NameNoNearbyPlaces, moments[2].Name)
	assert.Equal(t, common.MomentNoNearbyPlaces, moments[2].Status)
	assert.Empty(t, moments[2].POICandidates)
}

type imageMap map[string][]byte

func (m imageMap) LoadImage(ctx context.Context, key string) ([]byte, error) {
	b, ok := m[key]
	if !ok {
		return nil, errors.New("missing image")
	}
	return b, nil
}

func TestAssemble_EmbedsRepresentativeFromImage(t *testing.T) {
	fake := seoulEmbedder()
	fake.Images["palace-jpeg"] = embA

	p := photo("img", 0, palace, nil)
	p.ImageKey = "photos/img.jpg"

	a := NewAssembler(fake, seoulFinder(), testConfig())
	a.Images = imageMap{"photos/img.jpg": []byte("palace-jpeg")}

	albums, err := a.Assemble(t.Context(), []common.PhotoRecord{p})
	require.NoError(t, err)
	assert.Equal(t, "Gyeongbokgung Palace", albums[0].Days[0].Moments[0].Name)
	assert.Equal(t, 1, fake.ImageCalls)
}

func TestAssemble_MaxCandidates(t *testing.T) {
	cfg := testConfig()
	cfg.MaxCandidates = 1
	albums, err := NewAssembler(seoulEmbedder(), seoulFinder(), cfg).Assemble(t.Context(), []common.PhotoRecord{photo("a", 0, palace, embA)})
	require.NoError(t, err)
	assert.Len(t, albums[0].Days[0].Moments[0].POICandidates, 1)
}

func TestAssemble_Partition(t *testing.T) {
	var photos []common.PhotoRecord
	for i := range 12 {
		emb := embA
		if i%3 == 0 {
			emb = embCafe
		}
		loc := palace
		if i >= 6 {
			loc = tower
		}
		photos = append(photos, photo(string(rune('a'+i)), time.Duration(i)*20*time.Minute, loc, emb))
	}

	albums, err := NewAssembler(seoulEmbedder(), seoulFinder(), testConfig()).Assemble(t.Context(), photos)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, album := range albums {
		for _, day := range album.Days {
			for _, m := range day.Moments {
				for _, h := range m.Highlights {
					assert.GreaterOrEqual(t, len(h.AssetIDs), 2)
					assert.Equal(t, h.AssetIDs[0], h.RepresentativeAssetID)
				}
				for _, id := range m.AllAssetIDs() {
					seen[id]++
				}
			}
		}
	}
	assert.Len(t, seen, len(photos))
	for id, n := range seen {
		assert.Equal(t, 1, n, "photo %s", id)
	}
}

func TestAssemble_DensityStrategy(t *testing.T) {
	cfg := testConfig()
	cfg.Strategy = StrategyDensity

	var photos []common.PhotoRecord
	for i := range 4 {
		photos = append(photos, photo("a"+string(rune('0'+i)), time.Duration(i)*time.Minute, geotest.Offset(palace, float64(i*5), 0), embA))
		photos = append(photos, photo("b"+string(rune('0'+i)), time.Hour+time.Duration(i)*time.Minute, geotest.Offset(tower, float64(i*5), 0), embB))
	}

	albums, err := NewAssembler(seoulEmbedder(), seoulFinder(), cfg).Assemble(t.Context(), photos)
	require.NoError(t, err)
	require.Len(t, albums, 1)
	moments := albums[0].Days[0].Moments
	require.Len(t, moments, 2)
	assert.Equal(t, "Gyeongbokgung Palace", moments[0].Name)
	assert.Equal(t, "N Seoul Tower", moments[1].Name)
	assert.Len(t, moments[0].Highlights[0].AssetIDs, 4)
}

func TestAssemble_ProgressAndCancel(t *testing.T) {
	var mu sync.Mutex
	var steps []string
	a := NewAssembler(seoulEmbedder(), seoulFinder(), testConfig())
	a.Progress = func(p util.Progress) {
		mu.Lock()
		steps = append(steps, p.Step)
		mu.Unlock()
	}

	_, err := a.Assemble(t.Context(), []common.PhotoRecord{photo("a", 0, palace, embA)})
	require.NoError(t, err)
	assert.Contains(t, steps, StepMoments)
	assert.Contains(t, steps, StepPlaces)
	assert.Equal(t, StepDone, steps[len(steps)-1])

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = a.Assemble(ctx, []common.PhotoRecord{photo("a", 0, palace, embA)})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestAssemble_Empty(t *testing.T) {
	albums, err := NewAssembler(seoulEmbedder(), seoulFinder(), testConfig()).Assemble(t.Context(), nil)
	require.NoError(t, err)
	assert.Empty(t, albums)
}

func TestAssemble_ConcurrentCallsShareAssembler(t *testing.T) {
	cfg := DefaultConfig()
	cfg.TimeZone = "UTC"
	cfg.Location = nil
	cfg.TripConcurrency = 0
	a := NewAssembler(seoulEmbedder(), seoulFinder(), cfg)

	photos := []common.PhotoRecord{
		photo("a1", 0, palace, embA),
		photo("a2", 5*time.Minute, geotest.Offset(palace, 10, 0), embA),
	}

	var wg sync.WaitGroup
	errs := make([]error, 4)
	for i := range errs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			albums, err := a.Assemble(t.Context(), photos)
			if err == nil && len(albums) != 1 {
				err = errors.New("expected one album")
			}
			errs[i] = err
		}()
	}
	wg.Wait()

	for _, err := range errs {
		require.NoError(t, err)
	}
	// validation works on a copy, the shared config is never written
	assert.Nil(t, a.Config.Location)
	assert.Equal(t, 0, a.Config.TripConcurrency)
}

func TestAssemble_InvalidConfig(t *testing.T) {
	bad := testConfig()
	bad.Strategy = "random"
	_, err := NewAssembler(seoulEmbedder(), seoulFinder(), bad).Assemble(t.Context(), []common.PhotoRecord{photo("a", 0, palace, embA)})
	assert.Error(t, err)
}

func TestTitleAndSummary(t *testing.T) {
	assert.Equal(t, "A Trip Album", Title(nil))
	ms := []common.Moment{{Name: "A"}, {Name: "B"}, {Name: "C"}, {Name: "D"}}
	assert.Equal(t, "A, B, C & more", Summary(ms))
	assert.Equal(t, "A & more", Summary(ms[:1]))
}
