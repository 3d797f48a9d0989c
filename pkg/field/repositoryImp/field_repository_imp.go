package repositoryImp

import (
	"sync"
	"time"

	"agriadvisor/entities"
	"agriadvisor/pkg/apperr"
	"agriadvisor/pkg/field/repository"
)

// fieldRecord owns one field and its snapshot history. Its mutex serializes
// writes to that field only.
type fieldRecord struct {
	mu      sync.RWMutex
	field   entities.Field
	history []entities.SoilSnapshot
}

type memRepo struct {
	mu     sync.RWMutex
	byID   map[uint]*fieldRecord
	order  []uint
	nextID uint
	now    func() time.Time
}

func New() repository.FieldRepository {
	return &memRepo{byID: map[uint]*fieldRecord{}, now: time.Now}
}

func (r *memRepo) Create(f *entities.Field) error {
	now := r.now().UTC()
	r.mu.Lock()
	r.nextID++
	f.FieldID = r.nextID
	f.Status = entities.FieldActive
	f.CreatedAt, f.UpdatedAt = now, now
	f.Snapshot, f.LastRecommendation = nil, nil
	r.byID[f.FieldID] = &fieldRecord{field: copyField(*f)}
	r.order = append(r.order, f.FieldID)
	r.mu.Unlock()
	return nil
}

func (r *memRepo) record(id uint) (*fieldRecord, error) {
	r.mu.RLock()
	rec, ok := r.byID[id]
	r.mu.RUnlock()
	if !ok {
		return nil, apperr.NotFound("field %d not found", id)
	}
	return rec, nil
}

func (r *memRepo) FindByID(id uint) (*entities.Field, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	f := copyField(rec.field)
	return &f, nil
}

// UpdateSnapshot stores s as the next version and makes it current. Earlier
// versions stay in the history.
func (r *memRepo) UpdateSnapshot(id uint, s entities.SoilSnapshot) (*entities.Field, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	s = s.Clone()
	s.Version = uint(len(rec.history)) + 1
	rec.history = append(rec.history, s)
	cur := s.Clone()
	rec.field.Snapshot = &cur
	rec.field.UpdatedAt = r.now().UTC()
	f := copyField(rec.field)
	return &f, nil
}

func (r *memRepo) Snapshots(id uint) ([]entities.SoilSnapshot, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	out := make([]entities.SoilSnapshot, len(rec.history))
	for i, s := range rec.history {
		out[i] = s.Clone()
	}
	return out, nil
}

func (r *memRepo) SnapshotAt(id uint, version uint) (*entities.SoilSnapshot, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.RLock()
	defer rec.mu.RUnlock()
	if version == 0 || int(version) > len(rec.history) {
		return nil, apperr.NotFound("field %d has no snapshot version %d", id, version)
	}
	s := rec.history[version-1].Clone()
	return &s, nil
}

func (r *memRepo) SetStatus(id uint, status entities.FieldStatus) (*entities.Field, error) {
	rec, err := r.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if rec.field.Status != status {
		rec.field.Status = status
		rec.field.UpdatedAt = r.now().UTC()
	}
	f := copyField(rec.field)
	return &f, nil
}

// SetLastRecommendation never moves the reference back to an older snapshot
// version, so a slow computation cannot overwrite a newer result.
func (r *memRepo) SetLastRecommendation(id uint, ref entities.RecommendationRef) error {
	rec, err := r.record(id)
	if err != nil {
		return err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if cur := rec.field.LastRecommendation; cur != nil && cur.SnapshotVersion > ref.SnapshotVersion {
		return nil
	}
	rec.field.LastRecommendation = &ref
	return nil
}

func (r *memRepo) ListActive() []entities.Field {
	r.mu.RLock()
	ids := append([]uint(nil), r.order...)
	r.mu.RUnlock()

	out := make([]entities.Field, 0, len(ids))
	for _, id := range ids {
		rec, err := r.record(id)
		if err != nil {
			continue
		}
		rec.mu.RLock()
		if rec.field.Status == entities.FieldActive {
			out = append(out, copyField(rec.field))
		}
		rec.mu.RUnlock()
	}
	return out
}

// Restore re-inserts a journaled field with its history. Ids are kept and
// the id counter moves past them.
func (r *memRepo) Restore(f entities.Field, history []entities.SoilSnapshot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if f.FieldID == 0 {
		return apperr.Validation("field_id", "restored field needs an id")
	}
	if _, dup := r.byID[f.FieldID]; dup {
		return apperr.Validation("field_id", "field %d already present", f.FieldID)
	}
	rec := &fieldRecord{field: copyField(f)}
	for i, s := range history {
		s = s.Clone()
		s.Version = uint(i) + 1
		rec.history = append(rec.history, s)
	}
	rec.field.Snapshot = nil
	if n := len(rec.history); n > 0 {
		cur := rec.history[n-1].Clone()
		rec.field.Snapshot = &cur
	}
	r.byID[f.FieldID] = rec
	r.order = append(r.order, f.FieldID)
	if f.FieldID > r.nextID {
		r.nextID = f.FieldID
	}
	return nil
}

func copyField(f entities.Field) entities.Field {
	out := f
	if f.Snapshot != nil {
		s := f.Snapshot.Clone()
		out.Snapshot = &s
	}
	if f.LastRecommendation != nil {
		ref := *f.LastRecommendation
		out.LastRecommendation = &ref
	}
	return out
}
