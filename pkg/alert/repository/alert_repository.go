package repository

import (
	"time"

	"agriadvisor/entities"
)

type AlertRepository interface {
	// FindActive returns the unacknowledged alert of type t on a field.
	FindActive(fieldID uint, t entities.AlertType) (*entities.Alert, bool)
	// Create assigns an id and timestamps. It refuses a second active alert
	// for the same field and type.
	Create(a *entities.Alert) error
	// UpdateContent rewrites title, message and priority of an active alert.
	// The id and creation time are kept.
	UpdateContent(id string, d entities.AlertDraft, at time.Time) (*entities.Alert, error)
	Get(id string) (*entities.Alert, error)
	// Acknowledge flips the flag exactly once. Later calls report
	// AlreadyAcknowledged and change nothing.
	Acknowledge(id string, at time.Time) (*entities.Alert, error)
	// ListActive is newest first. A nil fieldID lists every field.
	ListActive(fieldID *uint) []entities.Alert
	Restore(a entities.Alert) error
	Counts() (active, acknowledged int)
}
