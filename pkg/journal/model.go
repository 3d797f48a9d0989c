package journal

import (
	"time"

	"agriadvisor/entities"
)

// Row models for the SQLite journal. Domain timestamps are copied as they
// are, so gorm's automatic time tracking is switched off.

type FieldRow struct {
	FieldID        uint   `gorm:"primaryKey;autoIncrement:false"`
	Name           string `gorm:"not null"`
	Location       string
	CropType       string `gorm:"index;not null"`
	AreaHa         float64
	SowingDate     time.Time
	Status         string `gorm:"index"`
	LastRecID      string
	LastRecVersion uint
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
}

func (FieldRow) TableName() string { return "journal_fields" }

type SnapshotRow struct {
	ID              uint `gorm:"primaryKey"`
	FieldID         uint `gorm:"uniqueIndex:idx_snapshot_field_version;not null"`
	Version         uint `gorm:"uniqueIndex:idx_snapshot_field_version;not null"`
	PH              float64
	Nitrogen        float64
	Phosphorus      float64
	Potassium       float64
	CapturedAt      time.Time
	SoilMoisturePct *float64
	RainfallMM      *float64
	HumidityPct     *float64
	TemperatureC    *float64
	Warnings        []entities.WeatherWarning `gorm:"serializer:json"`
}

func (SnapshotRow) TableName() string { return "journal_snapshots" }

type AlertRow struct {
	ID             string `gorm:"primaryKey"`
	FieldID        uint   `gorm:"index;not null"`
	Type           string `gorm:"index"`
	Priority       string
	Title          string
	Message        string
	Acknowledged   bool `gorm:"index"`
	AcknowledgedAt *time.Time
	CreatedAt      time.Time `gorm:"autoCreateTime:false"`
	UpdatedAt      time.Time `gorm:"autoUpdateTime:false"`
}

func (AlertRow) TableName() string { return "journal_alerts" }

// RecommendationRow keeps only the latest recommendation per field.
type RecommendationRow struct {
	FieldID           uint   `gorm:"primaryKey;autoIncrement:false"`
	ID                string `gorm:"index"`
	SnapshotVersion   uint
	PredictedYieldQHa float64
	Confidence        float64
	IrrigationAdvice  string
	FertilizerAdvice  string
	PestProbability   float64
	PestNotes         string
	YieldSource       string
	GeneratedAt       time.Time
}

func (RecommendationRow) TableName() string { return "journal_recommendations" }

// Models lists every journal table for migration.
func Models() []any {
	return []any{&FieldRow{}, &SnapshotRow{}, &AlertRow{}, &RecommendationRow{}}
}

func FieldToRow(f entities.Field) FieldRow {
	row := FieldRow{
		FieldID:    f.FieldID,
		Name:       f.Name,
		Location:   f.Location,
		CropType:   string(f.CropType),
		AreaHa:     f.AreaHa,
		SowingDate: f.SowingDate,
		Status:     string(f.Status),
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.UpdatedAt,
	}
	if f.LastRecommendation != nil {
		row.LastRecID = f.LastRecommendation.RecommendationID
		row.LastRecVersion = f.LastRecommendation.SnapshotVersion
	}
	return row
}

func (r FieldRow) Entity() entities.Field {
	f := entities.Field{
		FieldID:    r.FieldID,
		Name:       r.Name,
		Location:   r.Location,
		CropType:   entities.CropType(r.CropType),
		AreaHa:     r.AreaHa,
		SowingDate: r.SowingDate,
		Status:     entities.FieldStatus(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
	if r.LastRecID != "" {
		f.LastRecommendation = &entities.RecommendationRef{RecommendationID: r.LastRecID, SnapshotVersion: r.LastRecVersion}
	}
	return f
}

func SnapshotToRow(fieldID uint, s entities.SoilSnapshot) SnapshotRow {
	return SnapshotRow{
		FieldID:         fieldID,
		Version:         s.Version,
		PH:              s.PH,
		Nitrogen:        s.Nitrogen,
		Phosphorus:      s.Phosphorus,
		Potassium:       s.Potassium,
		CapturedAt:      s.CapturedAt,
		SoilMoisturePct: s.SoilMoisturePct,
		RainfallMM:      s.RainfallMM,
		HumidityPct:     s.HumidityPct,
		TemperatureC:    s.TemperatureC,
		Warnings:        s.Warnings,
	}
}

func (r SnapshotRow) Entity() entities.SoilSnapshot {
	return entities.SoilSnapshot{
		Version:         r.Version,
		PH:              r.PH,
		Nitrogen:        r.Nitrogen,
		Phosphorus:      r.Phosphorus,
		Potassium:       r.Potassium,
		CapturedAt:      r.CapturedAt,
		SoilMoisturePct: r.SoilMoisturePct,
		RainfallMM:      r.RainfallMM,
		HumidityPct:     r.HumidityPct,
		TemperatureC:    r.TemperatureC,
		Warnings:        r.Warnings,
	}
}

func AlertToRow(a entities.Alert) AlertRow {
	return AlertRow{
		ID:             a.ID,
		FieldID:        a.FieldID,
		Type:           string(a.Type),
		Priority:       string(a.Priority),
		Title:          a.Title,
		Message:        a.Message,
		Acknowledged:   a.Acknowledged,
		AcknowledgedAt: a.AcknowledgedAt,
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}

func (r AlertRow) Entity() entities.Alert {
	return entities.Alert{
		ID:             r.ID,
		FieldID:        r.FieldID,
		Type:           entities.AlertType(r.Type),
		Priority:       entities.Severity(r.Priority),
		Title:          r.Title,
		Message:        r.Message,
		Acknowledged:   r.Acknowledged,
		AcknowledgedAt: r.AcknowledgedAt,
		CreatedAt:      r.CreatedAt,
		UpdatedAt:      r.UpdatedAt,
	}
}

func RecommendationToRow(r entities.Recommendation) RecommendationRow {
	return RecommendationRow{
		FieldID:           r.FieldID,
		ID:                r.ID,
		SnapshotVersion:   r.SnapshotVersion,
		PredictedYieldQHa: r.PredictedYieldQHa,
		Confidence:        r.Confidence,
		IrrigationAdvice:  r.IrrigationAdvice,
		FertilizerAdvice:  r.FertilizerAdvice,
		PestProbability:   r.PestAlert.Probability,
		PestNotes:         r.PestAlert.Notes,
		YieldSource:       r.YieldSource,
		GeneratedAt:       r.GeneratedAt,
	}
}

func (r RecommendationRow) Entity() entities.Recommendation {
	return entities.Recommendation{
		ID:                r.ID,
		FieldID:           r.FieldID,
		SnapshotVersion:   r.SnapshotVersion,
		PredictedYieldQHa: r.PredictedYieldQHa,
		Confidence:        r.Confidence,
		IrrigationAdvice:  r.IrrigationAdvice,
		FertilizerAdvice:  r.FertilizerAdvice,
		PestAlert:         entities.PestAlert{Probability: r.PestProbability, Notes: r.PestNotes},
		YieldSource:       r.YieldSource,
		GeneratedAt:       r.GeneratedAt,
	}
}
