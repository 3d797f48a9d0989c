package service

import (
	"context"

	"agriadvisor/entities"
	"agriadvisor/pkg/intake"
)

// AlertView is an alert as the UI lists it.
type AlertView struct {
	entities.Alert
	FieldName string `json:"field_name"`
}

// IngestResult lists the alerts an ingest created or changed and the events
// it emitted. Alerts left untouched by the evaluation are not repeated.
type IngestResult struct {
	Field    entities.Field         `json:"field"`
	Snapshot *entities.SoilSnapshot `json:"snapshot,omitempty"`
	Alerts   []AlertView            `json:"alerts"`
	Events   []entities.Event       `json:"events"`
}

type AlertService interface {
	Ingest(ctx context.Context, fieldID uint, raw intake.Raw) (*IngestResult, error)
	IngestSnapshot(ctx context.Context, fieldID uint, s entities.SoilSnapshot) (*IngestResult, error)
	IngestWeather(ctx context.Context, fieldID uint, warnings []entities.WeatherWarning) (*IngestResult, error)
	ViewRecommendation(ctx context.Context, alertID string) (*entities.Recommendation, error)
	Acknowledge(ctx context.Context, alertID string) (*AlertView, entities.Event, error)
	GetAlert(alertID string) (*AlertView, error)
	ListActive(fieldID *uint) ([]AlertView, error)
	Counts() (active, acknowledged int)
}
