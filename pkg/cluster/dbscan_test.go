package cluster

import (
	"fmt"
	"math"
	"slices"
	"sort"
	"testing"
	"time"

	"github.com/OFFIS-RIT/tripalbum/backend/pkg/common"
)

func absDistance(a, b float64) float64 { return math.Abs(a - b) }

func partition(groups [][]float64) []string {
	out := make([]string, 0, len(groups))
	for _, g := range groups {
		s := slices.Clone(g)
		sort.Float64s(s)
		out = append(out, fmt.Sprint(s))
	}
	sort.Strings(out)
	return out
}

func TestDBSCAN_Cluster(t *testing.T) {
	points := []float64{0, 0.3, 0.6, 5, 5.2, 5.4, 5.6, 10}
	d := DBSCAN[float64]{Eps: 0.5, MinPts: 3, Distance: absDistance}

	res := d.Cluster(points)
	if len(res.Labels) != len(points) {
		t.Fatalf("expected %d labels, got %d", len(points), len(res.Labels))
	}
	for i, l := range res.Labels {
		if l < Noise {
			t.Fatalf("point %v left unlabeled", points[i])
		}
	}
	if res.Labels[7] != Noise {
		t.Fatalf("expected 10 to be noise, got label %d", res.Labels[7])
	}
	// 0 is not a core point and is seen first, so it starts as noise and is
	// absorbed once 0.3 expands.
	if res.Labels[0] == Noise || res.Labels[0] != res.Labels[1] {
		t.Fatalf("expected 0 to join the cluster of 0.3, labels %v", res.Labels)
	}
	if len(res.Clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d", len(res.Clusters))
	}
	if !slices.Equal(res.Clusters[0], []int{0, 1, 2}) {
		t.Fatalf("unexpected first cluster %v", res.Clusters[0])
	}
	if !slices.Equal(res.Clusters[1], []int{3, 4, 5, 6}) {
		t.Fatalf("unexpected second cluster %v", res.Clusters[1])
	}
}

func TestDBSCAN_OrderInvariantPartition(t *testing.T) {
	d := DBSCAN[float64]{Eps: 0.5, MinPts: 3, Distance: absDistance}
	orders := [][]float64{
		{0, 0.3, 0.6, 5, 5.2, 5.4, 5.6, 10},
		{10, 5.6, 5.4, 5.2, 5, 0.6, 0.3, 0},
		{5.2, 0.6, 10, 0, 5.6, 0.3, 5, 5.4},
	}

	want := partition(d.Groups(orders[0]))
	for i, o := range orders[1:] {
		if got := partition(d.Groups(o)); !slices.Equal(got, want) {
			t.Fatalf("order %d produced %v, want %v", i+1, got, want)
		}
	}
}

func TestDBSCAN_CoreNeighborsAreClustered(t *testing.T) {
	// Every point has MinPts-1 core neighbours besides itself.
	points := []float64{1, 1.1, 1.2, 1.3}
	d := DBSCAN[float64]{Eps: 0.25, MinPts: 3, Distance: absDistance}
	for i, l := range d.Cluster(points).Labels {
		if l == Noise {
			t.Fatalf("point %v ended as noise", points[i])
		}
	}
}

func TestDBSCAN_Empty(t *testing.T) {
	d := DBSCAN[float64]{Eps: 1, MinPts: 1, Distance: absDistance}
	res := d.Cluster(nil)
	if len(res.Labels) != 0 || len(res.Clusters) != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestDBSCAN_MinPtsOneMakesEveryPointCore(t *testing.T) {
	d := DBSCAN[float64]{Eps: 0.1, MinPts: 1, Distance: absDistance}
	res := d.Cluster([]float64{0, 1, 2})
	if len(res.Clusters) != 3 {
		t.Fatalf("expected 3 singleton clusters, got %d", len(res.Clusters))
	}
}

func TestVisualGeoDistance(t *testing.T) {
	opts := DefaultDensityOptions()
	dist := VisualGeoDistance(opts)

	a := photoAt("a", 0, placeA, 1, 0)
	b := photoAt("b", 0, near(placeA, 100), 1, 0)
	if got := dist(a, b); math.Abs(got-0.15) > 1e-3 {
		t.Fatalf("expected 0.15 for same embedding 100m apart, got %v", got)
	}

	c := photoAt("c", 0, placeB, 0, 1)
	if got := dist(a, c); math.Abs(got-0.65) > 1e-3 {
		t.Fatalf("expected 0.65 for orthogonal embeddings far apart, got %v", got)
	}

	noEmb := photoAt("n", 0, placeA)
	if got := dist(a, noEmb); math.Abs(got-0.7) > 1e-9 {
		t.Fatalf("expected 0.7 for a missing embedding at the same spot, got %v", got)
	}
}

func TestClusterByDensity(t *testing.T) {
	photos := []common.PhotoRecord{
		photoAt("b2", 4*time.Hour, placeB, 0, 1),
		photoAt("a1", 0, placeA, 1, 0),
		photoAt("a3", 2*time.Minute, near(placeA, 20), 1, 0),
		photoAt("b1", 3*time.Hour, placeB, 0, 1),
		photoAt("a2", time.Minute, near(placeA, 10), 1, 0),
		photoAt("b3", 5*time.Hour, near(placeB, 30), 0, 1),
		photoAt("lost", 6*time.Hour, placeA),
	}

	groups := ClusterByDensity(photos, DefaultDensityOptions())
	if len(groups) != 2 {
		t.Fatalf("expected 2 groups, got %d", len(groups))
	}
	if got := ids(groups[0]); !slices.Equal(got, []string{"b1", "b2", "b3"}) {
		t.Fatalf("unexpected first group %v", got)
	}
	if got := ids(groups[1]); !slices.Equal(got, []string{"a1", "a2", "a3"}) {
		t.Fatalf("unexpected second group %v", got)
	}
}

func TestClusterByDensity_TooFewPhotos(t *testing.T) {
	photos := []common.PhotoRecord{
		photoAt("a1", 0, placeA, 1, 0),
		photoAt("a2", time.Minute, placeA, 1, 0),
	}
	if groups := ClusterByDensity(photos, DefaultDensityOptions()); groups != nil {
		t.Fatalf("expected no groups, got %v", groups)
	}
}
