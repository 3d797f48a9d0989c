package repository

import "agriadvisor/entities"

// RecommendationRepository caches the latest recommendation per field.
type RecommendationRepository interface {
	Get(fieldID uint) (*entities.Recommendation, bool)
	// Put stores r unless the cached entry was computed from a newer
	// snapshot version. It reports whether r was stored.
	Put(r entities.Recommendation) bool
	Len() int
}
