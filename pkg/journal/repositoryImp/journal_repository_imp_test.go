package repositoryImp

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriadvisor/database"
	"agriadvisor/entities"
	"agriadvisor/pkg/journal/repository"
)

func newJournal(t *testing.T) repository.Recorder {
	t.Helper()
	db, err := database.OpenSQLite(filepath.Join(t.TempDir(), "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close(db) })
	return New(db)
}

func f64(v float64) *float64 { return &v }

func TestJournal_RoundTrip(t *testing.T) {
	ctx := context.Background()
	j := newJournal(t)
	at := time.Date(2024, 1, 15, 9, 30, 0, 0, time.UTC)

	field := entities.Field{
		FieldID:    3,
		Name:       "North Plot",
		Location:   "Nashik",
		CropType:   entities.CropWheat,
		AreaHa:     2,
		SowingDate: time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
		Status:     entities.FieldActive,
		CreatedAt:  at,
		UpdatedAt:  at,
	}
	require.NoError(t, j.SaveField(ctx, field))
	field.Status = entities.FieldInactive
	field.LastRecommendation = &entities.RecommendationRef{RecommendationID: "r1", SnapshotVersion: 2}
	require.NoError(t, j.SaveField(ctx, field), "second save updates in place")

	s1 := entities.SoilSnapshot{Version: 1, PH: 5, Nitrogen: 40, Phosphorus: 60, Potassium: 40, CapturedAt: at}
	s2 := entities.SoilSnapshot{
		Version:     2,
		PH:          6,
		Nitrogen:    80,
		CapturedAt:  at.Add(time.Hour),
		HumidityPct: f64(88),
		Warnings:    []entities.WeatherWarning{{Kind: "storm", Severity: entities.SeverityHigh, Message: "gale"}},
	}
	require.NoError(t, j.SaveSnapshot(ctx, 3, s2))
	require.NoError(t, j.SaveSnapshot(ctx, 3, s1))
	changed := s1
	changed.PH = 9
	require.NoError(t, j.SaveSnapshot(ctx, 3, changed), "versioned snapshots are never rewritten")

	ackAt := at.Add(2 * time.Hour)
	alert := entities.Alert{ID: "a1", FieldID: 3, Type: entities.AlertFertilizer, Priority: entities.SeverityMedium,
		Title: "Fertilizer Required", Message: "m", CreatedAt: at, UpdatedAt: at}
	require.NoError(t, j.SaveAlert(ctx, alert))
	alert.Acknowledged, alert.AcknowledgedAt, alert.UpdatedAt = true, &ackAt, ackAt
	require.NoError(t, j.SaveAlert(ctx, alert))

	rec := entities.Recommendation{ID: "r1", FieldID: 3, SnapshotVersion: 2, PredictedYieldQHa: 41.25, Confidence: 0.8,
		PestAlert: entities.PestAlert{Probability: 0.12, Notes: "low"}, YieldSource: "table", GeneratedAt: at}
	require.NoError(t, j.SaveRecommendation(ctx, rec))

	st, err := j.Load(ctx)
	require.NoError(t, err)

	require.Len(t, st.Fields, 1)
	got := st.Fields[0]
	assert.Equal(t, entities.FieldInactive, got.Status)
	assert.Equal(t, "r1", got.LastRecommendation.RecommendationID)
	assert.True(t, at.Equal(got.CreatedAt), "domain timestamps are kept")

	hist := st.Snapshots[3]
	require.Len(t, hist, 2)
	assert.Equal(t, uint(1), hist[0].Version)
	assert.Equal(t, 5.0, hist[0].PH)
	require.NotNil(t, hist[1].HumidityPct)
	assert.Equal(t, 88.0, *hist[1].HumidityPct)
	assert.Equal(t, s2.Warnings, hist[1].Warnings)
	assert.Nil(t, hist[0].HumidityPct)

	require.Len(t, st.Alerts, 1)
	assert.True(t, st.Alerts[0].Acknowledged)
	assert.True(t, ackAt.Equal(*st.Alerts[0].AcknowledgedAt))

	require.Len(t, st.Recommendations, 1)
	assert.Equal(t, 41.25, st.Recommendations[0].PredictedYieldQHa)
	assert.Equal(t, 0.12, st.Recommendations[0].PestAlert.Probability)
}

func TestJournal_LoadEmpty(t *testing.T) {
	st, err := newJournal(t).Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, st.Fields)
	assert.Empty(t, st.Alerts)
}
