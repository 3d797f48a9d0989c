package serviceImp

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"agriadvisor/entities"
)

func TestFreshness(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	week := 7 * 24 * time.Hour
	assert.Equal(t, 1.0, Freshness(now.Add(-time.Hour), now, week))
	assert.Equal(t, 1.0, Freshness(now.Add(-week), now, week))
	assert.InDelta(t, 0.5, Freshness(now.Add(-week-week*3/2), now, week), 1e-9)
	assert.Equal(t, 0.0, Freshness(now.Add(-4*week), now, week))
	assert.Equal(t, 0.0, Freshness(now.Add(-40*week), now, week))
	assert.Equal(t, 0.0, Freshness(time.Time{}, now, week))
	assert.Equal(t, 1.0, Freshness(now.Add(time.Hour), now, week), "future capture counts as fresh")
}

func TestConfidence(t *testing.T) {
	now := time.Now()
	bare := entities.SoilSnapshot{PH: 6.5, CapturedAt: now}
	assert.InDelta(t, 0.65, Confidence(bare, now, 7*24*time.Hour, false), 1e-9)

	full := bare
	full.SoilMoisturePct, full.RainfallMM, full.HumidityPct, full.TemperatureC = f64(40), f64(10), f64(60), f64(25)
	assert.InDelta(t, 1.0, Confidence(full, now, 7*24*time.Hour, false), 1e-9)
	assert.InDelta(t, 0.9, Confidence(full, now, 7*24*time.Hour, true), 1e-9)

	stale := entities.SoilSnapshot{PH: 6.5}
	assert.InDelta(t, 0.4, Confidence(stale, now, 7*24*time.Hour, false), 1e-9)
}
