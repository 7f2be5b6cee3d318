package poi

import (
	"math"
	"slices"
	"strings"
)

// Weights of the fused score.
const (
	SimilarityWeight = 0.3
	DistanceWeight   = 0.7
	// DistanceScale is the e-folding distance of the distance term, in meters.
	DistanceScale = 100.0
)

var genericTags = []string{"point_of_interest", "establishment", "store"}

var priorityTiers = []struct {
	bonus float64
	types []string
}{
	{0.12, []string{"airport", "university", "stadium", "amusement_park", "national_park", "train_station", "subway_station", "transit_station"}},
	{0.09, []string{"tourist_attraction", "historical_landmark", "resort", "golf_course", "shopping_mall", "museum", "art_gallery", "zoo", "aquarium"}},
	{0.06, []string{"restaurant", "park", "hotel", "market", "cafe", "bar"}},
	{0.03, []string{"bakery", "ice_cream_shop", "department_store", "clothing_store", "book_store", "car_rental", "movie_theater", "spa"}},
}

// FusedScore combines tag similarity and distance with the category bonuses.
func FusedScore(similarity, distance, priority, proximity float64) float64 {
	return SimilarityWeight*similarity +
		DistanceWeight*math.Exp(-distance/DistanceScale) +
		priority + proximity
}

// PriorityBonus returns the bonus of the highest tier any of types belongs to.
func PriorityBonus(types []string) float64 {
	for _, tier := range priorityTiers {
		for _, t := range types {
			if slices.Contains(tier.types, t) {
				return tier.bonus
			}
		}
	}
	return 0
}

// ProximityBonus rewards hotels the photo was taken in front of, and any
// place the photographer was practically standing at.
func ProximityBonus(distance float64, types []string) float64 {
	if (slices.Contains(types, "hotel") || slices.Contains(types, "resort")) && distance < 80 {
		return 0.25
	}
	if distance < 40 {
		return 0.20
	}
	return 0
}

// HighQualityTags drops generic place types and turns the rest into
// readable labels ("tourist_attraction" becomes "tourist attraction").
func HighQualityTags(types []string) []string {
	out := make([]string, 0, len(types))
	for _, t := range types {
		if slices.Contains(genericTags, t) {
			continue
		}
		out = append(out, strings.ReplaceAll(t, "_", " "))
	}
	return out
}
