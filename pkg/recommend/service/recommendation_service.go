package service

import (
	"context"

	"agriadvisor/entities"
)

type RecommendationService interface {
	// GetOrCompute returns the cached recommendation when it was computed
	// from the field's current snapshot, and computes a new one otherwise.
	// Concurrent calls for the same snapshot share one computation.
	GetOrCompute(ctx context.Context, fieldID uint) (*entities.Recommendation, error)
	Cached(fieldID uint) (*entities.Recommendation, bool)
	Computations() int64
}
