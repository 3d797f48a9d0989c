package repository

import "agriadvisor/entities"

// FieldRepository is the field registry. Returned fields are copies; the
// only way to change a field is through these methods.
type FieldRepository interface {
	Create(f *entities.Field) error
	FindByID(id uint) (*entities.Field, error)
	UpdateSnapshot(id uint, s entities.SoilSnapshot) (*entities.Field, error)
	Snapshots(id uint) ([]entities.SoilSnapshot, error)
	SnapshotAt(id uint, version uint) (*entities.SoilSnapshot, error)
	SetStatus(id uint, status entities.FieldStatus) (*entities.Field, error)
	SetLastRecommendation(id uint, ref entities.RecommendationRef) error
	ListActive() []entities.Field
	Restore(f entities.Field, history []entities.SoilSnapshot) error
}
