package service

import (
	"context"

	"agriadvisor/entities"
)

type FieldService interface {
	AddField(ctx context.Context, spec entities.FieldSpec) (*entities.Field, entities.Event, error)
	GetField(id uint) (*entities.Field, error)
	ListActive() []entities.Field
	Snapshots(id uint) ([]entities.SoilSnapshot, error)
	SetStatus(ctx context.Context, id uint, status string) (*entities.Field, error)
}
