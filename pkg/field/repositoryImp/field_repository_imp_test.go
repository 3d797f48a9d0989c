package repositoryImp

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agriadvisor/entities"
	"agriadvisor/pkg/apperr"
)

func newField(name string) *entities.Field {
	return &entities.Field{Name: name, CropType: entities.CropWheat, AreaHa: 1}
}

func TestCreate_AssignsMonotonicIDs(t *testing.T) {
	r := New()
	a, b := newField("a"), newField("b")
	require.NoError(t, r.Create(a))
	require.NoError(t, r.Create(b))
	assert.Equal(t, uint(1), a.FieldID)
	assert.Equal(t, uint(2), b.FieldID)
	assert.Equal(t, entities.FieldActive, a.Status)
}

func TestCreate_ConcurrentIDsNeverCollide(t *testing.T) {
	r := New()
	const n = 100
	ids := make(chan uint, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f := newField("x")
			_ = r.Create(f)
			ids <- f.FieldID
		}()
	}
	wg.Wait()
	close(ids)
	seen := map[uint]bool{}
	for id := range ids {
		assert.False(t, seen[id])
		seen[id] = true
	}
	assert.Len(t, r.ListActive(), n)
}

func TestFindByID_NotFound(t *testing.T) {
	_, err := New().FindByID(42)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestFindByID_ReturnsCopy(t *testing.T) {
	r := New()
	f := newField("a")
	require.NoError(t, r.Create(f))
	_, err := r.UpdateSnapshot(f.FieldID, entities.SoilSnapshot{PH: 6})
	require.NoError(t, err)

	got, err := r.FindByID(f.FieldID)
	require.NoError(t, err)
	got.Name = "mutated"
	got.Snapshot.PH = 1

	again, _ := r.FindByID(f.FieldID)
	assert.Equal(t, "a", again.Name)
	assert.Equal(t, 6.0, again.Snapshot.PH)
}

func TestUpdateSnapshot_VersionsAndHistory(t *testing.T) {
	r := New()
	f := newField("a")
	require.NoError(t, r.Create(f))

	_, err := r.UpdateSnapshot(99, entities.SoilSnapshot{})
	assert.ErrorIs(t, err, apperr.ErrNotFound)

	f1, err := r.UpdateSnapshot(f.FieldID, entities.SoilSnapshot{PH: 6, Nitrogen: 10})
	require.NoError(t, err)
	assert.Equal(t, uint(1), f1.Snapshot.Version)
	f2, err := r.UpdateSnapshot(f.FieldID, entities.SoilSnapshot{PH: 7, Nitrogen: 20})
	require.NoError(t, err)
	assert.Equal(t, uint(2), f2.Snapshot.Version)

	hist, err := r.Snapshots(f.FieldID)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, 10.0, hist[0].Nitrogen, "older snapshot kept")

	v1, err := r.SnapshotAt(f.FieldID, 1)
	require.NoError(t, err)
	assert.Equal(t, 6.0, v1.PH)
	_, err = r.SnapshotAt(f.FieldID, 3)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestListActive_InsertionOrderAndSoftStatus(t *testing.T) {
	r := New()
	for _, n := range []string{"a", "b", "c"} {
		require.NoError(t, r.Create(newField(n)))
	}
	_, err := r.SetStatus(2, entities.FieldInactive)
	require.NoError(t, err)

	active := r.ListActive()
	require.Len(t, active, 2)
	assert.Equal(t, "a", active[0].Name)
	assert.Equal(t, "c", active[1].Name)

	f, err := r.FindByID(2)
	require.NoError(t, err, "inactive fields stay addressable")
	assert.Equal(t, entities.FieldInactive, f.Status)
}

func TestSetLastRecommendation_NeverRegresses(t *testing.T) {
	r := New()
	f := newField("a")
	require.NoError(t, r.Create(f))
	require.NoError(t, r.SetLastRecommendation(f.FieldID, entities.RecommendationRef{RecommendationID: "new", SnapshotVersion: 2}))
	require.NoError(t, r.SetLastRecommendation(f.FieldID, entities.RecommendationRef{RecommendationID: "old", SnapshotVersion: 1}))

	got, _ := r.FindByID(f.FieldID)
	assert.Equal(t, "new", got.LastRecommendation.RecommendationID)
}

func TestRestore_KeepsIDsAndAdvancesCounter(t *testing.T) {
	r := New()
	restored := entities.Field{FieldID: 7, Name: "old", CropType: entities.CropRice, AreaHa: 3, Status: entities.FieldActive}
	require.NoError(t, r.Restore(restored, []entities.SoilSnapshot{{PH: 6}, {PH: 6.5}}))
	assert.Error(t, r.Restore(restored, nil), "duplicate id")

	got, err := r.FindByID(7)
	require.NoError(t, err)
	require.NotNil(t, got.Snapshot)
	assert.Equal(t, uint(2), got.Snapshot.Version)

	next := newField("new")
	require.NoError(t, r.Create(next))
	assert.Equal(t, uint(8), next.FieldID)
}
