package repository

import (
	"context"

	"agriadvisor/entities"
)

// State is everything needed to rebuild the in-memory stores.
type State struct {
	Fields          []entities.Field
	Snapshots       map[uint][]entities.SoilSnapshot // field id -> versions, oldest first
	Alerts          []entities.Alert
	Recommendations []entities.Recommendation
}

// Recorder is the durable write-through journal. The in-memory stores stay
// the source of truth while the process runs.
type Recorder interface {
	SaveField(ctx context.Context, f entities.Field) error
	SaveSnapshot(ctx context.Context, fieldID uint, s entities.SoilSnapshot) error
	SaveAlert(ctx context.Context, a entities.Alert) error
	SaveRecommendation(ctx context.Context, r entities.Recommendation) error
	Load(ctx context.Context) (State, error)
}

type nop struct{}

// Nop discards every write and loads an empty state.
func Nop() Recorder { return nop{} }

func (nop) SaveField(context.Context, entities.Field) error                   { return nil }
func (nop) SaveSnapshot(context.Context, uint, entities.SoilSnapshot) error   { return nil }
func (nop) SaveAlert(context.Context, entities.Alert) error                   { return nil }
func (nop) SaveRecommendation(context.Context, entities.Recommendation) error { return nil }
func (nop) Load(context.Context) (State, error)                               { return State{}, nil }
