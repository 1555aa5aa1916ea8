package chart

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Upsert(ctx context.Context, e *ToothEntry) error
	// Get returns ErrEntryNotFound when the tooth has no entry.
	Get(ctx context.Context, patientID uuid.UUID, toothID int) (*ToothEntry, error)
	Delete(ctx context.Context, patientID uuid.UUID, toothID int) error
	ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ToothEntry, error)
}
