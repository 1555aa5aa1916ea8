package treatment

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, item *Item) error
	GetByID(ctx context.Context, id uuid.UUID) (*Item, error)
	// UpdateStatus moves an item from one status to another and fails
	// with ErrInvalidTransition when the item is no longer in from.
	UpdateStatus(ctx context.Context, id uuid.UUID, from, to string) error
	Delete(ctx context.Context, id uuid.UUID) error
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Item, int, error)
	ListByPatientAndStatus(ctx context.Context, patientID uuid.UUID, status string) ([]*Item, error)
}
