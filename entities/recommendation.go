package entities

import "time"

type PestAlert struct {
	Probability float64 `json:"probability"`
	Notes       string  `json:"notes"`
}

type Recommendation struct {
	ID                string    `json:"id"`
	FieldID           uint      `json:"field_id"`
	SnapshotVersion   uint      `json:"snapshot_version"`
	PredictedYieldQHa float64   `json:"predicted_yield_q_per_hectare"`
	Confidence        float64   `json:"confidence"`
	IrrigationAdvice  string    `json:"irrigation_recommendation"`
	FertilizerAdvice  string    `json:"fertilizer_recommendation"`
	PestAlert         PestAlert `json:"pest_alert"`
	YieldSource       string    `json:"yield_source"` // table|remote
	GeneratedAt       time.Time `json:"generated_at"`
}
