package places

// App level categories, in display order.
const (
	CategoryFoods          = "Foods"
	CategoryRestaurants    = "Restaurants"
	CategoryCoffee         = "Coffee"
	CategoryBakery         = "Bakery"
	CategoryBar            = "Bar"
	CategoryHotelsResort   = "Hotels/Resort"
	CategoryLodging        = "Lodging"
	CategoryShopping       = "Shopping"
	CategoryAttractions    = "Attractions"
	CategorySightseeing    = "Sightseeing"
	CategoryActivity       = "Activity"
	CategoryGolf           = "Golf"
	CategoryAirport        = "Airport"
	CategoryGrocery        = "Grocery"
	CategoryTransportation = "Transportation"
	CategoryPark           = "Park"
)

// Categories lists every app category in display order.
var Categories = []string{
	CategoryFoods,
	CategoryRestaurants,
	CategoryCoffee,
	CategoryBakery,
	CategoryBar,
	CategoryHotelsResort,
	CategoryLodging,
	CategoryShopping,
	CategoryAttractions,
	CategorySightseeing,
	CategoryActivity,
	CategoryGolf,
	CategoryAirport,
	CategoryGrocery,
	CategoryTransportation,
	CategoryPark,
}

var typeCategories = map[string][]string{
	// food and drink
	"restaurant":    {CategoryRestaurants, CategoryFoods},
	"meal_delivery": {CategoryRestaurants, CategoryFoods},
	"meal_takeaway": {CategoryRestaurants, CategoryFoods},
	"food":          {CategoryFoods},
	"cafe":          {CategoryCoffee, CategoryFoods},
	"coffee_shop":   {CategoryCoffee, CategoryFoods},
	"bakery":        {CategoryBakery, CategoryFoods, CategoryShopping},
	"bar":           {CategoryBar},
	"night_club":    {CategoryBar},
	"liquor_store":  {CategoryShopping},

	// lodging
	"lodging": {CategoryLodging},
	"hotel":   {CategoryLodging, CategoryHotelsResort},
	"motel":   {CategoryLodging},
	"resort":  {CategoryLodging, CategoryHotelsResort},
	"spa":     {CategoryActivity, CategoryHotelsResort},

	// shopping
	"store":                  {CategoryShopping},
	"shopping_mall":          {CategoryShopping},
	"department_store":       {CategoryShopping},
	"clothing_store":         {CategoryShopping},
	"shoe_store":             {CategoryShopping},
	"jewelry_store":          {CategoryShopping},
	"electronics_store":      {CategoryShopping},
	"book_store":             {CategoryShopping},
	"convenience_store":      {CategoryShopping, CategoryGrocery},
	"home_goods_store":       {CategoryShopping},
	"furniture_store":        {CategoryShopping},
	"hardware_store":         {CategoryShopping},
	"pet_store":              {CategoryShopping},
	"florist":                {CategoryShopping},
	"grocery_or_supermarket": {CategoryGrocery, CategoryShopping},

	// sights and activities
	"tourist_attraction": {CategoryAttractions, CategorySightseeing},
	"point_of_interest":  {CategoryAttractions, CategorySightseeing},
	"landmark":           {CategoryAttractions, CategorySightseeing},
	"museum":             {CategoryAttractions, CategorySightseeing, CategoryActivity},
	"art_gallery":        {CategoryAttractions, CategorySightseeing, CategoryActivity},
	"church":             {CategoryAttractions, CategorySightseeing},
	"hindu_temple":       {CategoryAttractions, CategorySightseeing},
	"mosque":             {CategoryAttractions, CategorySightseeing},
	"synagogue":          {CategoryAttractions, CategorySightseeing},
	"amusement_park":     {CategoryAttractions, CategoryActivity},
	"aquarium":           {CategoryAttractions, CategoryActivity},
	"zoo":                {CategoryAttractions, CategoryActivity},
	"park":               {CategoryPark, CategorySightseeing, CategoryActivity},
	"national_park":      {CategoryPark, CategorySightseeing},
	"stadium":            {CategoryAttractions, CategoryActivity},
	"movie_theater":      {CategoryActivity},
	"bowling_alley":      {CategoryActivity},
	"casino":             {CategoryActivity, CategoryAttractions},
	"gym":                {CategoryActivity},
	"golf_course":        {CategoryGolf, CategoryActivity},

	// transport
	"airport":            {CategoryAirport, CategoryTransportation},
	"train_station":      {CategoryTransportation},
	"subway_station":     {CategoryTransportation},
	"bus_station":        {CategoryTransportation},
	"light_rail_station": {CategoryTransportation},
	"transit_station":    {CategoryTransportation},
	"gas_station":        {CategoryTransportation},
	"car_rental":         {CategoryTransportation},
	"parking":            {CategoryTransportation},

	// other
	"bank":        {CategoryAttractions},
	"atm":         {CategoryAttractions},
	"hospital":    {CategoryAttractions},
	"doctor":      {CategoryAttractions},
	"pharmacy":    {CategoryShopping},
	"post_office": {CategoryAttractions},
	"library":     {CategorySightseeing, CategoryAttractions},
	"university":  {CategorySightseeing, CategoryAttractions},
	"school":      {CategorySightseeing},
	"city_hall":   {CategorySightseeing, CategoryAttractions},
}

// MapCategories converts backend place types to app categories. The result
// is never empty and follows the order of Categories.
func MapCategories(types []string) []string {
	set := make(map[string]struct{})
	generic := false
	for _, t := range types {
		for _, c := range typeCategories[t] {
			set[c] = struct{}{}
		}
		if t == "point_of_interest" || t == "establishment" {
			generic = true
		}
	}
	if len(set) == 0 && generic {
		set[CategoryAttractions] = struct{}{}
	}
	if len(set) == 0 {
		return []string{CategoryAttractions}
	}

	out := make([]string, 0, len(set))
	for _, c := range Categories {
		if _, ok := set[c]; ok {
			out = append(out, c)
		}
	}
	return out
}
