package serviceImp

import (
	"context"
	"time"

	"agriadvisor/entities"
	"agriadvisor/pkg/alert/repository"
	"agriadvisor/pkg/alert/service"
	"agriadvisor/pkg/apperr"
	"agriadvisor/pkg/climate"
	fieldrepo "agriadvisor/pkg/field/repository"
	"agriadvisor/pkg/intake"
	journal "agriadvisor/pkg/journal/repository"
	"agriadvisor/pkg/logger"
	"agriadvisor/pkg/notify"
	recsvc "agriadvisor/pkg/recommend/service"
)

type alertSvc struct {
	fields  fieldrepo.FieldRepository
	alerts  repository.AlertRepository
	recs    recsvc.RecommendationService
	gen     *climate.Generator
	events  notify.Emitter
	journal journal.Recorder
	log     *logger.Logger
	locks   *keyedMutex
	now     func() time.Time
}

func NewAlertService(
	fields fieldrepo.FieldRepository,
	alerts repository.AlertRepository,
	recs recsvc.RecommendationService,
	gen *climate.Generator,
	events notify.Emitter,
	j journal.Recorder,
	log *logger.Logger,
) service.AlertService {
	if j == nil {
		j = journal.Nop()
	}
	return &alertSvc{
		fields:  fields,
		alerts:  alerts,
		recs:    recs,
		gen:     gen,
		events:  events,
		journal: j,
		log:     logger.OrNop(log).With("service", "AlertService"),
		locks:   newKeyedMutex(),
		now:     time.Now,
	}
}

// Ingest validates raw readings before anything is stored, so a rejected
// submission leaves the field and its alerts untouched.
func (s *alertSvc) Ingest(ctx context.Context, fieldID uint, raw intake.Raw) (*service.IngestResult, error) {
	snap, err := intake.Normalize(raw)
	if err != nil {
		return nil, err
	}
	return s.IngestSnapshot(ctx, fieldID, snap)
}

func (s *alertSvc) IngestSnapshot(ctx context.Context, fieldID uint, snap entities.SoilSnapshot) (*service.IngestResult, error) {
	unlock := s.locks.Lock(fieldID)
	defer unlock()

	f, err := s.activeField(fieldID)
	if err != nil {
		return nil, err
	}
	if snap.CapturedAt.IsZero() {
		snap.CapturedAt = s.now().UTC()
	}
	drafts, err := s.gen.Evaluate(*f, snap)
	if err != nil {
		return nil, err
	}
	updated, err := s.fields.UpdateSnapshot(fieldID, snap)
	if err != nil {
		return nil, err
	}
	if err := s.journal.SaveSnapshot(ctx, fieldID, *updated.Snapshot); err != nil {
		s.log.Warn("journal snapshot failed", "field_id", fieldID, "error", err)
	}
	if err := s.journal.SaveField(ctx, *updated); err != nil {
		s.log.Warn("journal field failed", "field_id", fieldID, "error", err)
	}

	res := &service.IngestResult{Field: *updated, Snapshot: updated.Snapshot}
	s.apply(ctx, *updated, drafts, res)
	s.log.Info("snapshot ingested", "field_id", fieldID, "version", updated.Snapshot.Version,
		"drafts", len(drafts), "changed_alerts", len(res.Alerts))
	return res, nil
}

// IngestWeather runs only the weather rule, for bulletins that arrive
// without soil readings. The field's snapshot is not touched.
func (s *alertSvc) IngestWeather(ctx context.Context, fieldID uint, warnings []entities.WeatherWarning) (*service.IngestResult, error) {
	unlock := s.locks.Lock(fieldID)
	defer unlock()

	f, err := s.activeField(fieldID)
	if err != nil {
		return nil, err
	}
	res := &service.IngestResult{Field: *f}
	if d, ok := climate.EvaluateWeather(warnings); ok {
		s.apply(ctx, *f, []entities.AlertDraft{d}, res)
	}
	return res, nil
}

func (s *alertSvc) activeField(fieldID uint) (*entities.Field, error) {
	f, err := s.fields.FindByID(fieldID)
	if err != nil {
		return nil, err
	}
	if f.Status != entities.FieldActive {
		return nil, apperr.Validation("field_id", "field %d is inactive", fieldID)
	}
	return f, nil
}

// apply dedups drafts against the active alerts of f. Callers hold the
// field lock.
func (s *alertSvc) apply(ctx context.Context, f entities.Field, drafts []entities.AlertDraft, res *service.IngestResult) {
	res.Alerts = []service.AlertView{}
	res.Events = []entities.Event{}
	for _, d := range drafts {
		var (
			a    *entities.Alert
			kind entities.EventKind
			err  error
		)
		if cur, ok := s.alerts.FindActive(f.FieldID, d.Type); ok {
			if cur.Title == d.Title && cur.Message == d.Message && cur.Priority == d.Priority {
				continue
			}
			a, err = s.alerts.UpdateContent(cur.ID, d, s.now())
			kind = entities.EventAlertUpdated
		} else {
			a = &entities.Alert{
				FieldID:   f.FieldID,
				Type:      d.Type,
				Priority:  d.Priority,
				Title:     d.Title,
				Message:   d.Message,
				CreatedAt: s.now().UTC(),
			}
			err = s.alerts.Create(a)
			kind = entities.EventAlertCreated
		}
		if err != nil {
			s.log.Error("store alert failed", "field_id", f.FieldID, "type", d.Type, "error", err)
			continue
		}
		if err := s.journal.SaveAlert(ctx, *a); err != nil {
			s.log.Warn("journal alert failed", "alert_id", a.ID, "error", err)
		}
		res.Alerts = append(res.Alerts, service.AlertView{Alert: *a, FieldName: f.Name})
		res.Events = append(res.Events, s.emit(ctx, entities.Event{
			Kind:      kind,
			FieldID:   f.FieldID,
			FieldName: f.Name,
			AlertID:   a.ID,
			AlertType: a.Type,
		}))
	}
}

func (s *alertSvc) emit(ctx context.Context, ev entities.Event) entities.Event {
	if s.events == nil {
		return ev
	}
	return s.events.Emit(ctx, ev)
}

func (s *alertSvc) ViewRecommendation(ctx context.Context, alertID string) (*entities.Recommendation, error) {
	a, err := s.alerts.Get(alertID)
	if err != nil {
		return nil, err
	}
	return s.recs.GetOrCompute(ctx, a.FieldID)
}

func (s *alertSvc) Acknowledge(ctx context.Context, alertID string) (*service.AlertView, entities.Event, error) {
	a, err := s.alerts.Get(alertID)
	if err != nil {
		return nil, entities.Event{}, err
	}
	unlock := s.locks.Lock(a.FieldID)
	defer unlock()

	acked, err := s.alerts.Acknowledge(alertID, s.now())
	if err != nil {
		return nil, entities.Event{}, err
	}
	if err := s.journal.SaveAlert(ctx, *acked); err != nil {
		s.log.Warn("journal alert failed", "alert_id", acked.ID, "error", err)
	}
	view := s.view(*acked)
	ev := s.emit(ctx, entities.Event{
		Kind:      entities.EventAlertAcknowledged,
		FieldID:   acked.FieldID,
		FieldName: view.FieldName,
		AlertID:   acked.ID,
		AlertType: acked.Type,
	})
	s.log.Info("alert acknowledged", "alert_id", acked.ID, "field_id", acked.FieldID, "type", acked.Type)
	return &view, ev, nil
}

func (s *alertSvc) GetAlert(alertID string) (*service.AlertView, error) {
	a, err := s.alerts.Get(alertID)
	if err != nil {
		return nil, err
	}
	v := s.view(*a)
	return &v, nil
}

func (s *alertSvc) ListActive(fieldID *uint) ([]service.AlertView, error) {
	if fieldID != nil {
		if _, err := s.fields.FindByID(*fieldID); err != nil {
			return nil, err
		}
	}
	list := s.alerts.ListActive(fieldID)
	names := map[uint]string{}
	out := make([]service.AlertView, 0, len(list))
	for _, a := range list {
		name, ok := names[a.FieldID]
		if !ok {
			name = s.fieldName(a.FieldID)
			names[a.FieldID] = name
		}
		out = append(out, service.AlertView{Alert: a, FieldName: name})
	}
	return out, nil
}

func (s *alertSvc) Counts() (active, acknowledged int) { return s.alerts.Counts() }

func (s *alertSvc) view(a entities.Alert) service.AlertView {
	return service.AlertView{Alert: a, FieldName: s.fieldName(a.FieldID)}
}

func (s *alertSvc) fieldName(id uint) string {
	f, err := s.fields.FindByID(id)
	if err != nil {
		return ""
	}
	return f.Name
}
