package serviceImp

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriadvisor/entities"
	alertRepoImp "agriadvisor/pkg/alert/repositoryImp"
	"agriadvisor/pkg/alert/service"
	"agriadvisor/pkg/apperr"
	"agriadvisor/pkg/climate"
	fieldrepo "agriadvisor/pkg/field/repository"
	fieldRepoImp "agriadvisor/pkg/field/repositoryImp"
	"agriadvisor/pkg/intake"
	"agriadvisor/pkg/notify"
	recRepoImp "agriadvisor/pkg/recommend/repositoryImp"
	recSvcImp "agriadvisor/pkg/recommend/serviceImp"
)

type fixture struct {
	fields fieldrepo.FieldRepository
	hub    *notify.Hub
	svc    service.AlertService
}

func newFixture() fixture {
	fields := fieldRepoImp.New()
	hub := notify.NewHub(0, nil)
	gen := climate.NewGenerator(climate.Default(), climate.DefaultThresholds())
	recs := recSvcImp.NewRecommendationService(fields, recRepoImp.New(), gen, nil, hub, nil, nil, recSvcImp.Options{})
	return fixture{fields: fields, hub: hub, svc: NewAlertService(fields, alertRepoImp.New(), recs, gen, hub, nil, nil)}
}

func (fx fixture) northPlot(t *testing.T) uint {
	t.Helper()
	f := &entities.Field{Name: "North Plot", CropType: entities.CropWheat, AreaHa: 2}
	require.NoError(t, fx.fields.Create(f))
	return f.FieldID
}

func lowNitrogen() intake.Raw {
	return intake.Raw{PH: intake.Num(5.0), Nitrogen: intake.Num(40), Phosphorus: intake.Num(60), Potassium: intake.Num(40)}
}

func TestIngest_NitrogenBelowWheatMinimum(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)

	res, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)
	require.Len(t, res.Alerts, 1)
	a := res.Alerts[0]
	assert.Equal(t, entities.AlertFertilizer, a.Type)
	assert.Equal(t, entities.SeverityMedium, a.Priority)
	assert.Equal(t, "North Plot", a.FieldName)
	assert.False(t, a.Acknowledged)

	require.NotNil(t, res.Snapshot)
	assert.Equal(t, uint(1), res.Snapshot.Version)
	assert.False(t, res.Snapshot.CapturedAt.IsZero(), "ingest stamps the capture time")

	require.Len(t, res.Events, 1)
	assert.Equal(t, entities.EventAlertCreated, res.Events[0].Kind)
	assert.Equal(t, a.ID, res.Events[0].AlertID)
}

func TestIngest_TwiceDoesNotDuplicate(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)

	first, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)
	second, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)
	assert.Empty(t, second.Alerts, "identical evaluation leaves the alert untouched")
	assert.Equal(t, uint(2), second.Snapshot.Version)

	active, err := fx.svc.ListActive(&id)
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, first.Alerts[0].ID, active[0].ID)
}

func TestIngest_ChangedDraftUpdatesInPlace(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)

	first, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)
	raw := lowNitrogen()
	raw.Nitrogen = intake.Num(20)
	second, err := fx.svc.Ingest(context.Background(), id, raw)
	require.NoError(t, err)

	require.Len(t, second.Alerts, 1)
	up := second.Alerts[0]
	assert.Equal(t, first.Alerts[0].ID, up.ID)
	assert.Equal(t, first.Alerts[0].CreatedAt, up.CreatedAt, "recency is not reset")
	assert.Contains(t, up.Message, "20.0 kg/ha")
	assert.Equal(t, entities.EventAlertUpdated, second.Events[0].Kind)
}

func TestIngest_StampsAlertsWithServiceClock(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)
	clock := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	fx.svc.(*alertSvc).now = func() time.Time { return clock }

	created, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)
	require.Len(t, created.Alerts, 1)
	assert.Equal(t, clock, created.Alerts[0].CreatedAt)
	assert.Equal(t, clock, created.Alerts[0].UpdatedAt)
	assert.Equal(t, clock, created.Snapshot.CapturedAt)

	clock = clock.Add(time.Hour)
	raw := lowNitrogen()
	raw.Nitrogen = intake.Num(20)
	updated, err := fx.svc.Ingest(context.Background(), id, raw)
	require.NoError(t, err)
	require.Len(t, updated.Alerts, 1)
	assert.Equal(t, clock.Add(-time.Hour), updated.Alerts[0].CreatedAt)
	assert.Equal(t, clock, updated.Alerts[0].UpdatedAt)
}

func TestIngest_RejectsBeforeMutating(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)

	raw := lowNitrogen()
	raw.PH = intake.Num(15)
	_, err := fx.svc.Ingest(context.Background(), id, raw)
	require.ErrorIs(t, err, apperr.ErrValidation)
	f, _ := fx.fields.FindByID(id)
	assert.Nil(t, f.Snapshot)
	assert.Empty(t, fx.hub.Since(0, 0))

	_, err = fx.svc.Ingest(context.Background(), 999, lowNitrogen())
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = fx.fields.SetStatus(id, entities.FieldInactive)
	require.NoError(t, err)
	_, err = fx.svc.Ingest(context.Background(), id, lowNitrogen())
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestIngest_ConcurrentNeverDuplicates(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)

	var wg sync.WaitGroup
	for i := 0; i < 30; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			raw := lowNitrogen()
			raw.Nitrogen = intake.Num(float64(10 + i))
			_, err := fx.svc.Ingest(context.Background(), id, raw)
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()

	active, err := fx.svc.ListActive(&id)
	require.NoError(t, err)
	assert.Len(t, active, 1)
	hist, _ := fx.fields.Snapshots(id)
	assert.Len(t, hist, 30)
}

func TestAcknowledge_SecondCallReportsAlreadyAcknowledged(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)
	res, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)
	alertID := res.Alerts[0].ID

	view, ev, err := fx.svc.Acknowledge(context.Background(), alertID)
	require.NoError(t, err)
	assert.True(t, view.Acknowledged)
	assert.Equal(t, entities.EventAlertAcknowledged, ev.Kind)
	assert.Equal(t, "North Plot", ev.FieldName)

	_, _, err = fx.svc.Acknowledge(context.Background(), alertID)
	require.ErrorIs(t, err, apperr.ErrAlreadyAcknowledged)

	got, err := fx.svc.GetAlert(alertID)
	require.NoError(t, err)
	assert.True(t, got.Acknowledged)
	assert.Equal(t, view.AcknowledgedAt, got.AcknowledgedAt)

	active, _ := fx.svc.ListActive(nil)
	assert.Empty(t, active)

	_, _, err = fx.svc.Acknowledge(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestAcknowledge_ConcurrentSucceedsOnce(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)
	res, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)

	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		wins int
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, _, err := fx.svc.Acknowledge(context.Background(), res.Alerts[0].ID); err == nil {
				mu.Lock()
				wins++
				mu.Unlock()
			} else {
				assert.ErrorIs(t, err, apperr.ErrAlreadyAcknowledged)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, wins)
}

func TestAcknowledgedTypeCanBeRaisedAgain(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)
	res, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)
	_, _, err = fx.svc.Acknowledge(context.Background(), res.Alerts[0].ID)
	require.NoError(t, err)

	again, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)
	require.Len(t, again.Alerts, 1)
	assert.NotEqual(t, res.Alerts[0].ID, again.Alerts[0].ID)
	acked, _ := fx.svc.GetAlert(res.Alerts[0].ID)
	assert.True(t, acked.Acknowledged, "acknowledged alert never re-surfaces")
}

func TestViewRecommendation(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)
	res, err := fx.svc.Ingest(context.Background(), id, lowNitrogen())
	require.NoError(t, err)

	rec, err := fx.svc.ViewRecommendation(context.Background(), res.Alerts[0].ID)
	require.NoError(t, err)
	assert.Equal(t, id, rec.FieldID)
	assert.Contains(t, rec.FertilizerAdvice, "Urea")

	f, _ := fx.fields.FindByID(id)
	require.NotNil(t, f.LastRecommendation)
	assert.Equal(t, rec.ID, f.LastRecommendation.RecommendationID)

	_, err = fx.svc.ViewRecommendation(context.Background(), "missing")
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestViewRecommendation_FieldWithoutSnapshot(t *testing.T) {
	fx := newFixture()
	fx.northPlot(t)
	south := &entities.Field{Name: "South Plot", CropType: entities.CropRice, AreaHa: 1}
	require.NoError(t, fx.fields.Create(south))

	res, err := fx.svc.IngestWeather(context.Background(), south.FieldID, []entities.WeatherWarning{
		{Kind: "cyclone", Severity: entities.SeverityHigh, Message: "Cyclone landfall expected."},
	})
	require.NoError(t, err)
	require.Len(t, res.Alerts, 1)
	assert.Equal(t, entities.AlertWeather, res.Alerts[0].Type)
	assert.Equal(t, entities.SeverityHigh, res.Alerts[0].Priority)
	assert.Nil(t, res.Snapshot)

	_, err = fx.svc.ViewRecommendation(context.Background(), res.Alerts[0].ID)
	assert.ErrorIs(t, err, apperr.ErrIncompleteData)
}

func TestIngestWeather_NoWarningsIsNoop(t *testing.T) {
	fx := newFixture()
	id := fx.northPlot(t)
	res, err := fx.svc.IngestWeather(context.Background(), id, nil)
	require.NoError(t, err)
	assert.Empty(t, res.Alerts)
	assert.Empty(t, res.Events)
}

func TestListActive_UnknownFieldFilter(t *testing.T) {
	fx := newFixture()
	missing := uint(77)
	_, err := fx.svc.ListActive(&missing)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	k := newKeyedMutex()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			unlock := k.Lock(uint(i % 3))
			unlock()
		}(i)
	}
	wg.Wait()
	assert.Zero(t, k.size())
}
