package serviceImp

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"golang.org/x/sync/singleflight"

	"agriadvisor/entities"
	"agriadvisor/pkg/ai"
	"agriadvisor/pkg/apperr"
	"agriadvisor/pkg/climate"
	fieldrepo "agriadvisor/pkg/field/repository"
	journal "agriadvisor/pkg/journal/repository"
	"agriadvisor/pkg/logger"
	"agriadvisor/pkg/notify"
	"agriadvisor/pkg/recommend/repository"
	"agriadvisor/pkg/recommend/service"
)

const (
	DefaultTimeout    = 10 * time.Second
	DefaultStaleAfter = 7 * 24 * time.Hour
)

type Options struct {
	Timeout    time.Duration
	StaleAfter time.Duration
}

type recommendSvc struct {
	fields  fieldrepo.FieldRepository
	cache   repository.RecommendationRepository
	gen     *climate.Generator
	model   ai.YieldModel
	events  notify.Emitter
	journal journal.Recorder
	log     *logger.Logger
	opts    Options
	now     func() time.Time

	flights      singleflight.Group
	computations atomic.Int64
}

func NewRecommendationService(
	fields fieldrepo.FieldRepository,
	cache repository.RecommendationRepository,
	gen *climate.Generator,
	model ai.YieldModel,
	events notify.Emitter,
	j journal.Recorder,
	log *logger.Logger,
	opts Options,
) service.RecommendationService {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = DefaultStaleAfter
	}
	if model == nil {
		model = ai.NewTable()
	}
	if j == nil {
		j = journal.Nop()
	}
	return &recommendSvc{
		fields:  fields,
		cache:   cache,
		gen:     gen,
		model:   model,
		events:  events,
		journal: j,
		log:     logger.OrNop(log).With("service", "RecommendationService"),
		opts:    opts,
		now:     time.Now,
	}
}

func (s *recommendSvc) Cached(fieldID uint) (*entities.Recommendation, bool) {
	return s.cache.Get(fieldID)
}

func (s *recommendSvc) Computations() int64 { return s.computations.Load() }

func (s *recommendSvc) GetOrCompute(ctx context.Context, fieldID uint) (*entities.Recommendation, error) {
	f, err := s.fields.FindByID(fieldID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.UnknownField(fieldID)
		}
		return nil, err
	}
	if f.Snapshot == nil {
		return nil, apperr.IncompleteData(fieldID)
	}
	if r, ok := s.fresh(fieldID, f.Snapshot.Version); ok {
		return r, nil
	}

	key := fmt.Sprintf("%d@%d", fieldID, f.Snapshot.Version)
	ch := s.flights.DoChan(key, func() (any, error) { return s.compute(*f) })
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		r := res.Val.(entities.Recommendation)
		return &r, nil
	case <-ctx.Done():
		// The flight keeps running and fills the cache for the next caller.
		s.log.Debug("caller left before recommendation finished", "field_id", fieldID, "error", ctx.Err())
		return nil, ctx.Err()
	}
}

func (s *recommendSvc) fresh(fieldID, version uint) (*entities.Recommendation, bool) {
	r, ok := s.cache.Get(fieldID)
	if !ok || r.SnapshotVersion != version {
		return nil, false
	}
	return r, true
}

// compute runs detached from any caller and is bounded by the configured
// timeout. f carries the snapshot the flight was keyed on.
func (s *recommendSvc) compute(f entities.Field) (entities.Recommendation, error) {
	if r, ok := s.fresh(f.FieldID, f.Snapshot.Version); ok {
		return *r, nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.opts.Timeout)
	defer cancel()

	type result struct {
		rec entities.Recommendation
		err error
	}
	done := make(chan result, 1)
	go func() {
		rec, err := s.build(ctx, f)
		done <- result{rec, err}
	}()

	var rec entities.Recommendation
	select {
	case res := <-done:
		if res.err != nil {
			if ctx.Err() != nil {
				return rec, s.timedOut(f.FieldID)
			}
			s.log.Error("recommendation failed", "field_id", f.FieldID, "error", res.err)
			return rec, res.err
		}
		rec = res.rec
	case <-ctx.Done():
		return rec, s.timedOut(f.FieldID)
	}

	if !s.cache.Put(rec) {
		// A newer snapshot finished first. Answer with what this flight
		// was asked for without touching the cache.
		return rec, nil
	}
	if err := s.fields.SetLastRecommendation(f.FieldID, entities.RecommendationRef{
		RecommendationID: rec.ID,
		SnapshotVersion:  rec.SnapshotVersion,
	}); err != nil {
		s.log.Warn("set last recommendation failed", "field_id", f.FieldID, "error", err)
	} else if cur, err := s.fields.FindByID(f.FieldID); err == nil {
		if err := s.journal.SaveField(ctx, *cur); err != nil {
			s.log.Warn("journal field failed", "field_id", f.FieldID, "error", err)
		}
	}
	if err := s.journal.SaveRecommendation(ctx, rec); err != nil {
		s.log.Warn("journal recommendation failed", "field_id", f.FieldID, "error", err)
	}
	if s.events != nil {
		s.events.Emit(ctx, entities.Event{
			Kind:             entities.EventRecommendationReady,
			FieldID:          f.FieldID,
			FieldName:        f.Name,
			RecommendationID: rec.ID,
		})
	}
	s.log.Info("recommendation ready", "field_id", f.FieldID, "snapshot_version", rec.SnapshotVersion,
		"yield_q_ha", rec.PredictedYieldQHa, "confidence", rec.Confidence, "source", rec.YieldSource)
	return rec, nil
}

func (s *recommendSvc) timedOut(fieldID uint) error {
	s.log.Warn("recommendation timed out", "field_id", fieldID, "timeout", s.opts.Timeout)
	return apperr.RecommendationTimeout(fieldID)
}

func (s *recommendSvc) build(ctx context.Context, f entities.Field) (entities.Recommendation, error) {
	s.computations.Add(1)
	rule, ok := s.gen.Rules().Rule(f.CropType)
	if !ok {
		return entities.Recommendation{}, eris.Errorf("no crop rule for %q", f.CropType)
	}
	snap := *f.Snapshot
	est, err := s.model.Predict(ctx, ai.YieldInput{Rule: rule, Field: f, Snapshot: snap})
	if err != nil {
		return entities.Recommendation{}, eris.Wrapf(err, "predict yield for field %d", f.FieldID)
	}
	now := s.now().UTC()
	risk := climate.PestRisk(rule, snap)
	return entities.Recommendation{
		ID:                uuid.NewString(),
		FieldID:           f.FieldID,
		SnapshotVersion:   snap.Version,
		PredictedYieldQHa: est.QHa,
		Confidence:        Confidence(snap, now, s.opts.StaleAfter, est.Fallback),
		IrrigationAdvice:  s.gen.IrrigationAdvice(rule, snap),
		FertilizerAdvice:  s.gen.FertilizerAdvice(rule, snap),
		PestAlert:         entities.PestAlert{Probability: risk, Notes: s.gen.PestNotes(risk, snap)},
		YieldSource:       est.Source,
		GeneratedAt:       now,
	}, nil
}
