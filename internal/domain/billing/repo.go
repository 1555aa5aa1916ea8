package billing

import (
	"context"

	"github.com/google/uuid"
)

type Repository interface {
	Create(ctx context.Context, inv *Invoice) error
	GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error)
	ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error)
	AddItem(ctx context.Context, item *InvoiceItem) error
	GetItems(ctx context.Context, invoiceID uuid.UUID) ([]*InvoiceItem, error)
}
