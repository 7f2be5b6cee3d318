package places

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMapCategories(t *testing.T) {
	tests := []struct {
		name  string
		types []string
		want  []string
	}{
		{"cafe", []string{"cafe", "food", "establishment"}, []string{CategoryFoods, CategoryCoffee}},
		{"hotel", []string{"lodging", "hotel"}, []string{CategoryHotelsResort, CategoryLodging}},
		{"museum", []string{"museum", "point_of_interest"}, []string{CategoryAttractions, CategorySightseeing, CategoryActivity}},
		{"establishment only", []string{"establishment"}, []string{CategoryAttractions}},
		{"unknown", []string{"cemetery"}, []string{CategoryAttractions}},
		{"empty", nil, []string{CategoryAttractions}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, MapCategories(tt.types))
		})
	}
}

func TestMapCategoriesDeterministic(t *testing.T) {
	types := []string{"park", "zoo", "restaurant", "airport"}
	first := MapCategories(types)
	for range 20 {
		assert.Equal(t, first, MapCategories(types))
	}
}
