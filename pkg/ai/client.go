// Package ai holds the yield models used by the recommendation service: a
// deterministic table model and a remote HTTP model that falls back to it.
package ai

import (
	"context"

	"agriadvisor/entities"
	"agriadvisor/pkg/climate"
)

const (
	SourceTable  = "table"
	SourceRemote = "remote"
)

type YieldInput struct {
	Rule     climate.CropRule
	Field    entities.Field
	Snapshot entities.SoilSnapshot
}

// YieldEstimate is a predicted yield in quintals per hectare. Fallback is
// set when a remote model was configured but the table answered.
type YieldEstimate struct {
	QHa      float64
	Source   string
	Fallback bool
}

type YieldModel interface {
	Predict(ctx context.Context, in YieldInput) (YieldEstimate, error)
}
