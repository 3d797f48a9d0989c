package entities

import "time"

type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

func (s Severity) Rank() int {
	switch s {
	case SeverityHigh:
		return 3
	case SeverityMedium:
		return 2
	case SeverityLow:
		return 1
	}
	return 0
}

// WeatherWarning is an externally supplied severe-weather signal.
type WeatherWarning struct {
	Kind     string   `json:"kind"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
}

// SoilSnapshot is immutable once stored. Newer versions supersede it.
type SoilSnapshot struct {
	Version    uint      `json:"version"`
	PH         float64   `json:"ph"`
	Nitrogen   float64   `json:"nitrogen"`
	Phosphorus float64   `json:"phosphorus"`
	Potassium  float64   `json:"potassium"`
	CapturedAt time.Time `json:"captured_at"`

	SoilMoisturePct *float64         `json:"soil_moisture_pct,omitempty"`
	RainfallMM      *float64         `json:"rainfall_mm,omitempty"`
	HumidityPct     *float64         `json:"humidity_pct,omitempty"`
	TemperatureC    *float64         `json:"temperature_c,omitempty"`
	Warnings        []WeatherWarning `json:"warnings,omitempty"`
}

// Clone returns a deep copy so callers never share pointer fields with a
// stored snapshot.
func (s SoilSnapshot) Clone() SoilSnapshot {
	out := s
	out.SoilMoisturePct = cloneFloat(s.SoilMoisturePct)
	out.RainfallMM = cloneFloat(s.RainfallMM)
	out.HumidityPct = cloneFloat(s.HumidityPct)
	out.TemperatureC = cloneFloat(s.TemperatureC)
	if s.Warnings != nil {
		out.Warnings = append([]WeatherWarning(nil), s.Warnings...)
	}
	return out
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
