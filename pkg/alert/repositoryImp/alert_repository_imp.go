package repositoryImp

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"

	"agriadvisor/entities"
	"agriadvisor/pkg/alert/repository"
	"agriadvisor/pkg/apperr"
)

type activeKey struct {
	field uint
	typ   entities.AlertType
}

type stored struct {
	alert entities.Alert
	seq   uint64
}

type memRepo struct {
	mu     sync.RWMutex
	byID   map[string]*stored
	active map[activeKey]string
	seq    uint64
	now    func() time.Time
}

func New() repository.AlertRepository {
	return &memRepo{byID: map[string]*stored{}, active: map[activeKey]string{}, now: time.Now}
}

func (r *memRepo) FindActive(fieldID uint, t entities.AlertType) (*entities.Alert, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.active[activeKey{fieldID, t}]
	if !ok {
		return nil, false
	}
	a := copyAlert(r.byID[id].alert)
	return &a, true
}

func (r *memRepo) Create(a *entities.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	key := activeKey{a.FieldID, a.Type}
	if id, dup := r.active[key]; dup {
		return eris.Errorf("field %d already has active %s alert %s", a.FieldID, a.Type, id)
	}
	now := r.now().UTC()
	a.ID = uuid.NewString()
	a.Acknowledged, a.AcknowledgedAt = false, nil
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = a.CreatedAt
	r.insert(*a)
	return nil
}

func (r *memRepo) insert(a entities.Alert) {
	r.seq++
	r.byID[a.ID] = &stored{alert: copyAlert(a), seq: r.seq}
	if !a.Acknowledged {
		r.active[activeKey{a.FieldID, a.Type}] = a.ID
	}
}

func (r *memRepo) UpdateContent(id string, d entities.AlertDraft, at time.Time) (*entities.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("alert %s not found", id)
	}
	if s.alert.Acknowledged {
		return nil, apperr.AlreadyAcknowledged(id)
	}
	s.alert.Title, s.alert.Message, s.alert.Priority = d.Title, d.Message, d.Priority
	s.alert.UpdatedAt = at.UTC()
	a := copyAlert(s.alert)
	return &a, nil
}

func (r *memRepo) Get(id string) (*entities.Alert, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("alert %s not found", id)
	}
	a := copyAlert(s.alert)
	return &a, nil
}

func (r *memRepo) Acknowledge(id string, at time.Time) (*entities.Alert, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.byID[id]
	if !ok {
		return nil, apperr.NotFound("alert %s not found", id)
	}
	if s.alert.Acknowledged {
		return nil, apperr.AlreadyAcknowledged(id)
	}
	at = at.UTC()
	s.alert.Acknowledged = true
	s.alert.AcknowledgedAt = &at
	s.alert.UpdatedAt = at
	delete(r.active, activeKey{s.alert.FieldID, s.alert.Type})
	a := copyAlert(s.alert)
	return &a, nil
}

func (r *memRepo) ListActive(fieldID *uint) []entities.Alert {
	r.mu.RLock()
	list := make([]*stored, 0, len(r.active))
	for key, id := range r.active {
		if fieldID != nil && key.field != *fieldID {
			continue
		}
		list = append(list, r.byID[id])
	}
	out := make([]entities.Alert, len(list))
	sort.Slice(list, func(i, j int) bool {
		a, b := list[i], list[j]
		if !a.alert.CreatedAt.Equal(b.alert.CreatedAt) {
			return a.alert.CreatedAt.After(b.alert.CreatedAt)
		}
		return a.seq > b.seq
	})
	for i, s := range list {
		out[i] = copyAlert(s.alert)
	}
	r.mu.RUnlock()
	return out
}

// Restore re-inserts a journaled alert as it was, acknowledged or not.
func (r *memRepo) Restore(a entities.Alert) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if a.ID == "" {
		return apperr.Validation("id", "restored alert needs an id")
	}
	if _, dup := r.byID[a.ID]; dup {
		return apperr.Validation("id", "alert %s already present", a.ID)
	}
	if !a.Acknowledged {
		if id, dup := r.active[activeKey{a.FieldID, a.Type}]; dup {
			return eris.Errorf("field %d already has active %s alert %s", a.FieldID, a.Type, id)
		}
	}
	r.insert(a)
	return nil
}

func (r *memRepo) Counts() (active, acknowledged int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	active = len(r.active)
	return active, len(r.byID) - active
}

func copyAlert(a entities.Alert) entities.Alert {
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		a.AcknowledgedAt = &t
	}
	return a
}
