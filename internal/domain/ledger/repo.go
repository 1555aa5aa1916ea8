package ledger

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Repository is intentionally append-only: there is no update or
// delete for posted entries.
type Repository interface {
	Append(ctx context.Context, e *Entry) error
	GetByID(ctx context.Context, id uuid.UUID) (*Entry, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error)
	AllByPatient(ctx context.Context, patientID uuid.UUID) ([]*Entry, error)
	Balance(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error)
}
