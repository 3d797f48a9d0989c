package serviceImp

import (
	"context"
	"math"
	"strings"
	"time"

	"agriadvisor/entities"
	"agriadvisor/pkg/apperr"
	repo "agriadvisor/pkg/field/repository"
	"agriadvisor/pkg/field/service"
	journal "agriadvisor/pkg/journal/repository"
	"agriadvisor/pkg/logger"
	"agriadvisor/pkg/notify"
)

type fieldSvc struct {
	r       repo.FieldRepository
	events  notify.Emitter
	journal journal.Recorder
	log     *logger.Logger
}

func NewFieldService(r repo.FieldRepository, events notify.Emitter, j journal.Recorder, log *logger.Logger) service.FieldService {
	if j == nil {
		j = journal.Nop()
	}
	return &fieldSvc{r: r, events: events, journal: j, log: logger.OrNop(log).With("service", "FieldService")}
}

func (s *fieldSvc) AddField(ctx context.Context, spec entities.FieldSpec) (*entities.Field, entities.Event, error) {
	f, err := validateSpec(spec)
	if err != nil {
		return nil, entities.Event{}, err
	}
	if err := s.r.Create(f); err != nil {
		return nil, entities.Event{}, err
	}
	if err := s.journal.SaveField(ctx, *f); err != nil {
		s.log.Warn("journal field failed", "field_id", f.FieldID, "error", err)
	}
	ev := entities.Event{Kind: entities.EventFieldAdded, FieldID: f.FieldID, FieldName: f.Name}
	if s.events != nil {
		ev = s.events.Emit(ctx, ev)
	}
	s.log.Info("field added", "field_id", f.FieldID, "crop", f.CropType, "area_ha", f.AreaHa)
	return f, ev, nil
}

func (s *fieldSvc) GetField(id uint) (*entities.Field, error) { return s.r.FindByID(id) }

func (s *fieldSvc) ListActive() []entities.Field { return s.r.ListActive() }

func (s *fieldSvc) Snapshots(id uint) ([]entities.SoilSnapshot, error) { return s.r.Snapshots(id) }

func (s *fieldSvc) SetStatus(ctx context.Context, id uint, status string) (*entities.Field, error) {
	st := entities.FieldStatus(strings.ToLower(strings.TrimSpace(status)))
	if st != entities.FieldActive && st != entities.FieldInactive {
		return nil, apperr.Validation("status", "must be active or inactive, got %q", status)
	}
	f, err := s.r.SetStatus(id, st)
	if err != nil {
		return nil, err
	}
	if err := s.journal.SaveField(ctx, *f); err != nil {
		s.log.Warn("journal field failed", "field_id", f.FieldID, "error", err)
	}
	return f, nil
}

func validateSpec(spec entities.FieldSpec) (*entities.Field, error) {
	name := strings.TrimSpace(spec.Name)
	if name == "" {
		return nil, apperr.Validation("name", "is required")
	}
	crop := entities.CropType(strings.ToLower(strings.TrimSpace(spec.CropType)))
	if !crop.Valid() {
		return nil, apperr.Validation("crop_type", "%q is not a recognized crop", spec.CropType)
	}
	if math.IsNaN(spec.AreaHa) || math.IsInf(spec.AreaHa, 0) || spec.AreaHa <= 0 {
		return nil, apperr.Validation("area_ha", "must be greater than 0")
	}
	sd, err := time.Parse("2006-01-02", strings.TrimSpace(spec.SowingDate))
	if err != nil {
		return nil, apperr.Validation("sowing_date", "%q is not a valid YYYY-MM-DD date", spec.SowingDate)
	}
	return &entities.Field{
		Name:       name,
		Location:   strings.TrimSpace(spec.Location),
		CropType:   crop,
		AreaHa:     spec.AreaHa,
		SowingDate: sd,
	}, nil
}
