package ai

import (
	"context"
	"math"
)

type tableModel struct{}

// NewTable returns the local estimator: crop base yield scaled by nutrient
// sufficiency and a pH factor. Same input, same output.
func NewTable() YieldModel { return &tableModel{} }

func (m *tableModel) Predict(_ context.Context, in YieldInput) (YieldEstimate, error) {
	return YieldEstimate{QHa: TableYield(in), Source: SourceTable}, nil
}

// TableYield is exported so callers and tests can reason about the fallback.
func TableYield(in YieldInput) float64 {
	r, s := in.Rule, in.Snapshot
	q := r.BaseYieldQHa *
		sufficiency(s.Nitrogen, r.OptN) *
		sufficiency(s.Phosphorus, r.OptP) *
		sufficiency(s.Potassium, r.OptK) *
		phFactor(s.PH, r.PHMin, r.PHMax)
	if q < 0 || math.IsNaN(q) {
		return 0
	}
	return q
}

// sufficiency is 0.6 with no nutrient and 1.0 at or above the optimum.
func sufficiency(have, opt float64) float64 {
	if opt <= 0 {
		return 1
	}
	return 0.6 + 0.4*math.Min(1, math.Max(0, have)/opt)
}

// phFactor loses 15% per pH unit outside the crop range, floored at 0.5.
func phFactor(ph, lo, hi float64) float64 {
	var off float64
	switch {
	case ph < lo:
		off = lo - ph
	case ph > hi:
		off = ph - hi
	}
	return math.Max(0.5, 1-0.15*off)
}
