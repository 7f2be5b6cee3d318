package common

import "time"

// Coordinate is a WGS84 position in decimal degrees.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// PhotoRecord is a single geo-tagged photo as produced by the ingestion
// layer. Records are immutable once produced.
//
// Embedding is nil when the embedding model failed for this photo. ImageKey
// points at the image bytes in object storage and may be empty when the
// caller only has embeddings.
type PhotoRecord struct {
	ID        string     `json:"id"`
	Location  Coordinate `json:"location"`
	CreatedAt time.Time  `json:"created_at"`
	Embedding []float32  `json:"embedding,omitempty"`
	ImageKey  string     `json:"image_key,omitempty"`
}

// HasEmbedding reports whether the photo carries a usable embedding.
func (p PhotoRecord) HasEmbedding() bool {
	return len(p.Embedding) > 0
}

// Trip is a non-empty, time ordered run of photos separated from the
// neighbouring trips by at least the trip separation threshold.
type Trip struct {
	Photos []PhotoRecord `json:"photos"`
}

// Start returns the timestamp of the first photo of the trip.
func (t Trip) Start() time.Time {
	if len(t.Photos) == 0 {
		return time.Time{}
	}
	return t.Photos[0].CreatedAt
}

// End returns the timestamp of the last photo of the trip.
func (t Trip) End() time.Time {
	if len(t.Photos) == 0 {
		return time.Time{}
	}
	return t.Photos[len(t.Photos)-1].CreatedAt
}

// PlaceCandidate is a named place returned by the place search backend.
// Types holds the raw category tags of the backend (e.g. "tourist_attraction").
type PlaceCandidate struct {
	PlaceID  string     `json:"place_id"`
	Name     string     `json:"name"`
	Types    []string   `json:"types"`
	Location Coordinate `json:"location"`
}

// RankedCandidate is a PlaceCandidate scored against a photo.
type RankedCandidate struct {
	Place           PlaceCandidate `json:"place"`
	Distance        float64        `json:"distance"`
	SimilarityScore float64        `json:"similarity_score"`
	FinalScore      float64        `json:"final_score"`
	Categories      []string       `json:"categories,omitempty"`
}

// POICandidate is the slim form of a RankedCandidate kept on a Moment so the
// user can re-select the place name later.
type POICandidate struct {
	ID        string  `json:"id"`
	Name      string  `json:"name"`
	Score     float64 `json:"score"`
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Highlight groups visually near-identical photos of a moment.
// AssetIDs always has at least two members and includes the representative.
type Highlight struct {
	ID                    string   `json:"id"`
	RepresentativeAssetID string   `json:"representative_asset_id"`
	AssetIDs              []string `json:"asset_ids"`
}

// MomentStatus records how the name of a moment was derived.
type MomentStatus string

const (
	MomentIdentified        MomentStatus = "identified"
	MomentUnknownPlace      MomentStatus = "unknown_place"
	MomentNoNearbyPlaces    MomentStatus = "no_nearby_places"
	MomentPlaceSearchFailed MomentStatus = "place_search_failed"
)

// Moment is a single place visit inside a day.
//
// Every photo of the originating cluster appears exactly once, either as a
// member of one of the Highlights or in OptionalAssetIDs.
type Moment struct {
	ID                    string         `json:"id"`
	Name                  string         `json:"name"`
	Time                  string         `json:"time"`
	RepresentativeAssetID string         `json:"representative_asset_id"`
	Highlights            []Highlight    `json:"highlights"`
	OptionalAssetIDs      []string       `json:"optional_asset_ids"`
	POICandidates         []POICandidate `json:"poi_candidates"`
	Status                MomentStatus   `json:"status"`
	VoiceMemoPath         string         `json:"voice_memo_path,omitempty"`
	Caption               string         `json:"caption,omitempty"`
}

// AllAssetIDs returns every photo id of the moment, highlight members first.
func (m Moment) AllAssetIDs() []string {
	ids := make([]string, 0, len(m.OptionalAssetIDs))
	for _, h := range m.Highlights {
		ids = append(ids, h.AssetIDs...)
	}
	return append(ids, m.OptionalAssetIDs...)
}

// Day groups the moments that started on the same calendar date.
type Day struct {
	ID         string   `json:"id"`
	Date       string   `json:"date"`
	CoverImage string   `json:"cover_image"`
	Summary    string   `json:"summary"`
	Moments    []Moment `json:"moments"`
}

// Album is the generated tree for one trip. Days are sorted by date.
type Album struct {
	ID        string    `json:"id"`
	Title     string    `json:"album_title"`
	Days      []Day     `json:"days"`
	CreatedAt time.Time `json:"created_at"`
}

// FindMoment returns a pointer to the moment with the given id, or nil.
func (a *Album) FindMoment(id string) *Moment {
	for d := range a.Days {
		for m := range a.Days[d].Moments {
			if a.Days[d].Moments[m].ID == id {
				return &a.Days[d].Moments[m]
			}
		}
	}
	return nil
}
