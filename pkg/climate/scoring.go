package climate

import (
	"math"

	"agriadvisor/entities"
)

// HeavyRainMM is the 7-day rainfall above which a favorable pest climate
// counts as compounding risk.
const HeavyRainMM = 50.0

// Thresholds are the tunable trigger points of the alert rules.
type Thresholds struct {
	LowMoisture float64 // moisture index, 0-100
	PestRisk    float64 // probability, 0-1
}

func DefaultThresholds() Thresholds {
	return Thresholds{LowMoisture: 35, PestRisk: 0.3}
}

// MoistureIndex returns the 0-100 moisture proxy for a snapshot. A measured
// soil moisture wins; otherwise rainfall relative to the crop's weekly need
// and relative humidity are blended 60/40. ok is false when the snapshot
// carries no moisture signal at all.
func MoistureIndex(rule CropRule, s entities.SoilSnapshot) (float64, bool) {
	if s.SoilMoisturePct != nil {
		return clamp(*s.SoilMoisturePct, 0, 100), true
	}
	var rain, hum float64
	haveRain, haveHum := s.RainfallMM != nil, s.HumidityPct != nil
	if haveRain {
		rain = math.Min(100, *s.RainfallMM/rule.WeeklyWaterMM*100)
	}
	if haveHum {
		hum = clamp(*s.HumidityPct, 0, 100)
	}
	switch {
	case haveRain && haveHum:
		return 0.6*rain + 0.4*hum, true
	case haveRain:
		return rain, true
	case haveHum:
		return hum, true
	}
	return 0, false
}

// Favorability scores how well current weather suits pest development,
// in [0,1]. Humid and warm (around 25°C) is worst. Missing humidity or
// temperature gives 0.
func Favorability(s entities.SoilSnapshot) float64 {
	if s.HumidityPct == nil || s.TemperatureC == nil {
		return 0
	}
	hf := clamp((*s.HumidityPct-50)/40, 0, 1)
	tf := clamp(1-math.Abs(*s.TemperatureC-25)/15, 0, 1)
	return hf * tf
}

// PestRisk is the pest probability used both by the alert rule and by the
// recommendation, so the two always agree for the same inputs.
func PestRisk(rule CropRule, s entities.SoilSnapshot) float64 {
	return clamp(Favorability(s)*rule.PestBaseRate, 0, 1)
}

// CompoundingWeather reports whether a favorable pest climate is made worse
// by heavy rain or a severe-weather warning.
func CompoundingWeather(s entities.SoilSnapshot) bool {
	if Favorability(s) < 0.8 {
		return false
	}
	if s.RainfallMM != nil && *s.RainfallMM >= HeavyRainMM {
		return true
	}
	return len(s.Warnings) > 0
}

// NutrientDeficits lists N, P and K readings under the crop minimums, in
// that order.
func NutrientDeficits(rule CropRule, s entities.SoilSnapshot) []Deficit {
	var out []Deficit
	if s.Nitrogen < rule.MinN {
		out = append(out, Deficit{Nutrient: "nitrogen", Have: s.Nitrogen, Min: rule.MinN, Opt: rule.OptN})
	}
	if s.Phosphorus < rule.MinP {
		out = append(out, Deficit{Nutrient: "phosphorus", Have: s.Phosphorus, Min: rule.MinP, Opt: rule.OptP})
	}
	if s.Potassium < rule.MinK {
		out = append(out, Deficit{Nutrient: "potassium", Have: s.Potassium, Min: rule.MinK, Opt: rule.OptK})
	}
	return out
}

type Deficit struct {
	Nutrient string
	Have     float64
	Min      float64
	Opt      float64
}

func clamp(v, lo, hi float64) float64 {
	if math.IsNaN(v) {
		return lo
	}
	return math.Max(lo, math.Min(hi, v))
}

// Clamp01 bounds a score to the closed unit interval.
func Clamp01(v float64) float64 { return clamp(v, 0, 1) }
