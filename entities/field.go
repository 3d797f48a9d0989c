package entities

import "time"

type CropType string

const (
	CropWheat     CropType = "wheat"
	CropRice      CropType = "rice"
	CropCorn      CropType = "corn"
	CropSugarcane CropType = "sugarcane"
	CropCotton    CropType = "cotton"
	CropSoybean   CropType = "soybean"
)

// Crops lists the recognized crop set in display order.
var Crops = []CropType{CropWheat, CropRice, CropCorn, CropSugarcane, CropCotton, CropSoybean}

func (c CropType) Valid() bool {
	for _, k := range Crops {
		if k == c {
			return true
		}
	}
	return false
}

type FieldStatus string

const (
	FieldActive   FieldStatus = "active"
	FieldInactive FieldStatus = "inactive"
)

// RecommendationRef points at the cached recommendation and the snapshot
// version it was computed from.
type RecommendationRef struct {
	RecommendationID string `json:"recommendation_id"`
	SnapshotVersion  uint   `json:"snapshot_version"`
}

type Field struct {
	FieldID            uint               `json:"field_id"`
	Name               string             `json:"name"`
	Location           string             `json:"location"`
	CropType           CropType           `json:"crop_type"`
	AreaHa             float64            `json:"area_ha"`
	SowingDate         time.Time          `json:"sowing_date"`
	Snapshot           *SoilSnapshot      `json:"snapshot,omitempty"`
	LastRecommendation *RecommendationRef `json:"last_recommendation,omitempty"`
	Status             FieldStatus        `json:"status"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// FieldSpec is the input to field creation.
type FieldSpec struct {
	Name       string
	Location   string
	CropType   string
	AreaHa     float64
	SowingDate string // YYYY-MM-DD
}
