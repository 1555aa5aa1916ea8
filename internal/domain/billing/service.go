package billing

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentio/dentio/internal/domain/ledger"
	"github.com/dentio/dentio/internal/domain/treatment"
	"github.com/dentio/dentio/internal/platform/db"
	"github.com/dentio/dentio/internal/platform/patientlock"
)

var (
	ErrNotFound        = errors.New("invoice not found")
	ErrNoItems         = errors.New("invoice needs at least one item")
	ErrItemNotBillable = errors.New("item is not billable")
	ErrInvalidDiscount = errors.New("discount cannot be negative")
)

// CreateInvoiceInput carries everything needed to issue an invoice.
type CreateInvoiceInput struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	ItemIDs   []uuid.UUID
	Discount  decimal.Decimal
	Notes     *string
	DueDate   *time.Time
}

type Service struct {
	invoices Repository
	items    treatment.Repository
	ledgers  *ledger.Service
	locks    *patientlock.Registry
	tx       db.TxRunner
}

func NewService(invoices Repository, items treatment.Repository, ledgers *ledger.Service, locks *patientlock.Registry, tx db.TxRunner) *Service {
	return &Service{invoices: invoices, items: items, ledgers: ledgers, locks: locks, tx: tx}
}

// CreateInvoice bills a set of completed treatment items. The approval
// charges for the billed work are reversed with one CREDIT and the
// final invoice total is posted as one DEBIT, so the statement shows
// the discount without rewriting history. Items move to Billed and
// cannot appear on another invoice.
func (s *Service) CreateInvoice(ctx context.Context, in CreateInvoiceInput) (*Invoice, error) {
	if len(in.ItemIDs) == 0 {
		return nil, ErrNoItems
	}
	if in.Discount.IsNegative() {
		return nil, ErrInvalidDiscount
	}

	unlock := s.locks.Lock(in.PatientID)
	defer unlock()

	var inv *Invoice
	err := s.tx(ctx, func(ctx context.Context) error {
		seen := make(map[uuid.UUID]bool, len(in.ItemIDs))
		var billable []*treatment.Item
		subtotal := decimal.Zero

		for _, id := range in.ItemIDs {
			if seen[id] {
				return fmt.Errorf("%w: %s listed twice", ErrItemNotBillable, id)
			}
			seen[id] = true

			item, err := s.items.GetByID(ctx, id)
			if errors.Is(err, treatment.ErrItemNotFound) {
				return fmt.Errorf("%w: %s not found", ErrItemNotBillable, id)
			}
			if err != nil {
				return err
			}
			if item.PatientID != in.PatientID {
				return fmt.Errorf("%w: %s belongs to another patient", ErrItemNotBillable, id)
			}
			if item.Status != treatment.StatusCompleted {
				return fmt.Errorf("%w: %s is %s, only Completed items can be billed", ErrItemNotBillable, id, item.Status)
			}
			billable = append(billable, item)
			subtotal = subtotal.Add(item.Cost)
		}

		// A discount larger than the subtotal zeroes the invoice
		// rather than producing a negative total.
		total := decimal.Max(decimal.Zero, subtotal.Sub(in.Discount))

		inv = &Invoice{
			PatientID: in.PatientID,
			DoctorID:  in.DoctorID,
			Subtotal:  subtotal,
			Discount:  in.Discount,
			Total:     total,
			Notes:     in.Notes,
			DueDate:   in.DueDate,
		}
		if err := s.invoices.Create(ctx, inv); err != nil {
			return err
		}

		for _, item := range billable {
			ii := &InvoiceItem{
				InvoiceID:       inv.ID,
				TreatmentItemID: item.ID,
				ToothID:         item.ToothID,
				Procedure:       item.Procedure,
				Cost:            item.Cost,
			}
			if err := s.invoices.AddItem(ctx, ii); err != nil {
				return err
			}
			inv.Items = append(inv.Items, ii)

			if err := s.items.UpdateStatus(ctx, item.ID, treatment.StatusCompleted, treatment.StatusBilled); err != nil {
				return err
			}
		}

		if err := s.ledgers.Append(ctx, &ledger.Entry{
			PatientID:   in.PatientID,
			Type:        ledger.TypeCredit,
			Amount:      subtotal,
			Description: fmt.Sprintf("provisional charge reversal (%d items)", len(billable)),
			InvoiceID:   &inv.ID,
		}); err != nil {
			return err
		}
		if total.IsPositive() {
			if err := s.ledgers.Append(ctx, &ledger.Entry{
				PatientID:   in.PatientID,
				Type:        ledger.TypeDebit,
				Amount:      total,
				Description: fmt.Sprintf("invoice %s", inv.ID),
				InvoiceID:   &inv.ID,
			}); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func (s *Service) GetInvoice(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := s.invoices.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	items, err := s.invoices.GetItems(ctx, id)
	if err != nil {
		return nil, err
	}
	inv.Items = items
	return inv, nil
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	return s.invoices.ListByPatient(ctx, patientID, limit, offset)
}
