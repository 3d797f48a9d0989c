package serviceImp

import (
	"time"

	"agriadvisor/entities"
	"agriadvisor/pkg/climate"
)

// FallbackPenalty scales confidence when a configured remote yield model
// could not answer.
const FallbackPenalty = 0.9

// Confidence is 0.4 for bare soil chemistry, up to 0.35 more for weather
// readings and up to 0.25 more for a fresh snapshot.
func Confidence(s entities.SoilSnapshot, now time.Time, staleAfter time.Duration, fallback bool) float64 {
	c := 0.4 + 0.35*WeatherCompleteness(s) + 0.25*Freshness(s.CapturedAt, now, staleAfter)
	if fallback {
		c *= FallbackPenalty
	}
	return climate.Clamp01(c)
}

// WeatherCompleteness is the share of the four optional readings present.
func WeatherCompleteness(s entities.SoilSnapshot) float64 {
	n := 0
	for _, p := range []*float64{s.SoilMoisturePct, s.RainfallMM, s.HumidityPct, s.TemperatureC} {
		if p != nil {
			n++
		}
	}
	return float64(n) / 4
}

// Freshness is 1 up to staleAfter, then falls linearly to 0 at four times
// staleAfter. An unknown capture time counts as stale.
func Freshness(capturedAt, now time.Time, staleAfter time.Duration) float64 {
	if capturedAt.IsZero() || staleAfter <= 0 {
		return 0
	}
	age := now.Sub(capturedAt)
	if age <= staleAfter {
		return 1
	}
	return climate.Clamp01(1 - float64(age-staleAfter)/float64(3*staleAfter))
}
