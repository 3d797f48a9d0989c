// Package intake turns raw form or API input into a validated soil snapshot.
// Nothing here touches the clock or any store.
package intake

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"agriadvisor/entities"
	"agriadvisor/pkg/apperr"
)

// Value is a raw numeric reading that may arrive as a JSON number or as a
// numeric string. The zero value means "not supplied".
type Value string

func (v *Value) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*v = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*v = Value(s)
		return nil
	}
	*v = Value(b)
	return nil
}

// Num is a convenience for building Raw values in code.
func Num(f float64) Value { return Value(strconv.FormatFloat(f, 'f', -1, 64)) }

type RawWarning struct {
	Kind     string `json:"kind"`
	Severity string `json:"severity"`
	Message  string `json:"message"`
}

type Raw struct {
	PH           Value        `json:"ph"`
	Nitrogen     Value        `json:"nitrogen"`
	Phosphorus   Value        `json:"phosphorus"`
	Potassium    Value        `json:"potassium"`
	SoilMoisture Value        `json:"soil_moisture_pct"`
	Rainfall     Value        `json:"rainfall_mm"`
	Humidity     Value        `json:"humidity_pct"`
	Temperature  Value        `json:"temperature_c"`
	CapturedAt   string       `json:"captured_at"`
	Warnings     []RawWarning `json:"warnings"`
}

// Empty reports whether no soil reading was supplied at all.
func (r Raw) Empty() bool {
	return r.PH == "" && r.Nitrogen == "" && r.Phosphorus == "" && r.Potassium == ""
}

type bound struct{ lo, hi float64 }

var (
	phRange       = bound{0, 14}
	nutrientRange = bound{0, math.Inf(1)}
	pctRange      = bound{0, 100}
	tempRange     = bound{-50, 60}
)

// Normalize validates raw input. The first offending field is named in the
// returned validation error. CapturedAt stays zero when not supplied.
func Normalize(raw Raw) (entities.SoilSnapshot, error) {
	var s entities.SoilSnapshot
	var err error
	if s.PH, err = required("ph", raw.PH, phRange); err != nil {
		return entities.SoilSnapshot{}, err
	}
	if s.Nitrogen, err = required("nitrogen", raw.Nitrogen, nutrientRange); err != nil {
		return entities.SoilSnapshot{}, err
	}
	if s.Phosphorus, err = required("phosphorus", raw.Phosphorus, nutrientRange); err != nil {
		return entities.SoilSnapshot{}, err
	}
	if s.Potassium, err = required("potassium", raw.Potassium, nutrientRange); err != nil {
		return entities.SoilSnapshot{}, err
	}
	if s.SoilMoisturePct, err = optional("soil_moisture_pct", raw.SoilMoisture, pctRange); err != nil {
		return entities.SoilSnapshot{}, err
	}
	if s.RainfallMM, err = optional("rainfall_mm", raw.Rainfall, nutrientRange); err != nil {
		return entities.SoilSnapshot{}, err
	}
	if s.HumidityPct, err = optional("humidity_pct", raw.Humidity, pctRange); err != nil {
		return entities.SoilSnapshot{}, err
	}
	if s.TemperatureC, err = optional("temperature_c", raw.Temperature, tempRange); err != nil {
		return entities.SoilSnapshot{}, err
	}
	if s.CapturedAt, err = parseTime(raw.CapturedAt); err != nil {
		return entities.SoilSnapshot{}, err
	}
	if s.Warnings, err = NormalizeWarnings(raw.Warnings); err != nil {
		return entities.SoilSnapshot{}, err
	}
	return s, nil
}

// NormalizeWarnings validates externally supplied weather warnings. A blank
// severity defaults to medium.
func NormalizeWarnings(in []RawWarning) ([]entities.WeatherWarning, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]entities.WeatherWarning, 0, len(in))
	for _, w := range in {
		kind := strings.TrimSpace(w.Kind)
		msg := strings.TrimSpace(w.Message)
		if kind == "" && msg == "" {
			return nil, apperr.Validation("warnings", "each warning needs a kind or a message")
		}
		sev := entities.Severity(strings.ToLower(strings.TrimSpace(w.Severity)))
		if sev == "" {
			sev = entities.SeverityMedium
		}
		if sev.Rank() == 0 {
			return nil, apperr.Validation("warnings", "unknown severity %q", w.Severity)
		}
		out = append(out, entities.WeatherWarning{Kind: kind, Severity: sev, Message: msg})
	}
	return out, nil
}

func required(name string, v Value, b bound) (float64, error) {
	if strings.TrimSpace(string(v)) == "" {
		return 0, apperr.Validation(name, "is required")
	}
	return parse(name, v, b)
}

func optional(name string, v Value, b bound) (*float64, error) {
	if strings.TrimSpace(string(v)) == "" {
		return nil, nil
	}
	f, err := parse(name, v, b)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parse(name string, v Value, b bound) (float64, error) {
	f, err := strconv.ParseFloat(strings.TrimSpace(string(v)), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperr.Validation(name, "%q is not a number", string(v))
	}
	if f < b.lo || f > b.hi {
		if b.lo == 0 && math.IsInf(b.hi, 1) {
			return 0, apperr.Validation(name, "must not be negative, got %v", f)
		}
		return 0, apperr.Validation(name, "must be between %v and %v, got %v", b.lo, b.hi, f)
	}
	return f, nil
}

func parseTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", s); err == nil {
		return t, nil
	}
	return time.Time{}, apperr.Validation("captured_at", "%q is neither RFC3339 nor YYYY-MM-DD", s)
}
