package entities

import "time"

type EventKind string

const (
	EventFieldAdded          EventKind = "field_added"
	EventAlertCreated        EventKind = "alert_created"
	EventAlertUpdated        EventKind = "alert_updated"
	EventAlertAcknowledged   EventKind = "alert_acknowledged"
	EventRecommendationReady EventKind = "recommendation_ready"
)

// Event is structured notification data. The UI decides how to render it.
type Event struct {
	ID               string    `json:"id"`
	Seq              uint64    `json:"seq"`
	Kind             EventKind `json:"kind"`
	FieldID          uint      `json:"field_id"`
	FieldName        string    `json:"field_name,omitempty"`
	AlertID          string    `json:"alert_id,omitempty"`
	AlertType        AlertType `json:"alert_type,omitempty"`
	RecommendationID string    `json:"recommendation_id,omitempty"`
	At               time.Time `json:"at"`
}
