package treatment

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentio/dentio/internal/domain/chart"
	"github.com/dentio/dentio/internal/domain/ledger"
	"github.com/dentio/dentio/internal/platform/db"
	"github.com/dentio/dentio/internal/platform/patientlock"
)

var (
	ErrItemNotFound      = errors.New("treatment item not found")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrNothingToApprove  = errors.New("no proposed items to approve")
	ErrInvalidCost       = errors.New("cost must be greater than zero")
)

type Service struct {
	items   Repository
	charts  *chart.Service
	ledgers *ledger.Service
	locks   *patientlock.Registry
	tx      db.TxRunner
}

func NewService(items Repository, charts *chart.Service, ledgers *ledger.Service, locks *patientlock.Registry, tx db.TxRunner) *Service {
	return &Service{items: items, charts: charts, ledgers: ledgers, locks: locks, tx: tx}
}

// AddItem proposes a procedure for a tooth and marks the tooth planned
// unless a clinical finding already covers it.
func (s *Service) AddItem(ctx context.Context, patientID uuid.UUID, toothID int, procedure string, cost decimal.Decimal) (*Item, error) {
	if !chart.ValidToothID(toothID) {
		return nil, fmt.Errorf("%w: %d", chart.ErrInvalidToothID, toothID)
	}
	if procedure == "" {
		return nil, fmt.Errorf("procedure is required")
	}
	if !cost.IsPositive() {
		return nil, ErrInvalidCost
	}

	unlock := s.locks.Lock(patientID)
	defer unlock()

	item := &Item{
		PatientID: patientID,
		ToothID:   toothID,
		Procedure: procedure,
		Cost:      cost,
		Status:    StatusProposed,
	}
	err := s.tx(ctx, func(ctx context.Context) error {
		if err := s.items.Create(ctx, item); err != nil {
			return err
		}
		return s.charts.MarkPlanned(ctx, patientID, toothID, item.ID)
	})
	if err != nil {
		return nil, err
	}
	return item, nil
}

// ApproveAndStart moves every Proposed item for the patient to
// InProgress and posts a single DEBIT for the plan total. The whole
// batch commits or none of it does.
func (s *Service) ApproveAndStart(ctx context.Context, patientID uuid.UUID) ([]*Item, error) {
	unlock := s.locks.Lock(patientID)
	defer unlock()

	var approved []*Item
	err := s.tx(ctx, func(ctx context.Context) error {
		proposed, err := s.items.ListByPatientAndStatus(ctx, patientID, StatusProposed)
		if err != nil {
			return err
		}
		if len(proposed) == 0 {
			return ErrNothingToApprove
		}

		total := decimal.Zero
		for _, it := range proposed {
			if err := s.items.UpdateStatus(ctx, it.ID, StatusProposed, StatusInProgress); err != nil {
				return err
			}
			it.Status = StatusInProgress
			total = total.Add(it.Cost)
		}

		if err := s.ledgers.Append(ctx, &ledger.Entry{
			PatientID:   patientID,
			Type:        ledger.TypeDebit,
			Amount:      total,
			Description: fmt.Sprintf("treatment plan approval (%d items)", len(proposed)),
		}); err != nil {
			return err
		}

		approved = proposed
		return nil
	})
	if err != nil {
		return nil, err
	}
	return approved, nil
}

// CompleteItem finishes an InProgress item and marks its tooth
// completed. No ledger movement: the charge was posted at approval.
func (s *Service) CompleteItem(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(item.PatientID)
	defer unlock()

	err = s.tx(ctx, func(ctx context.Context) error {
		// Re-read under the lock: the status may have moved while we
		// waited for it.
		item, err = s.items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Status != StatusInProgress {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, StatusCompleted)
		}
		if err := s.items.UpdateStatus(ctx, item.ID, StatusInProgress, StatusCompleted); err != nil {
			return err
		}
		return s.charts.MarkCompleted(ctx, item.PatientID, item.ToothID, item.ID)
	})
	if err != nil {
		return nil, err
	}
	item.Status = StatusCompleted
	return item, nil
}

// RevertItem undoes an approval for one InProgress item: the item
// returns to Proposed and a CREDIT for exactly its cost compensates the
// approval DEBIT. Completed and Billed items cannot be reverted.
func (s *Service) RevertItem(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, err
	}

	unlock := s.locks.Lock(item.PatientID)
	defer unlock()

	err = s.tx(ctx, func(ctx context.Context) error {
		item, err = s.items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Status != StatusInProgress {
			return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, item.Status, StatusProposed)
		}
		if err := s.items.UpdateStatus(ctx, item.ID, StatusInProgress, StatusProposed); err != nil {
			return err
		}
		if err := s.ledgers.Append(ctx, &ledger.Entry{
			PatientID:   item.PatientID,
			Type:        ledger.TypeCredit,
			Amount:      item.Cost,
			Description: fmt.Sprintf("reverted %s on tooth %d", item.Procedure, item.ToothID),
		}); err != nil {
			return err
		}
		return s.charts.MarkPlanned(ctx, item.PatientID, item.ToothID, item.ID)
	})
	if err != nil {
		return nil, err
	}
	item.Status = StatusProposed
	return item, nil
}

// DeleteItem removes a Proposed item and releases its planned marker
// on the tooth if the item still owns it.
func (s *Service) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return err
	}

	unlock := s.locks.Lock(item.PatientID)
	defer unlock()

	return s.tx(ctx, func(ctx context.Context) error {
		item, err = s.items.GetByID(ctx, itemID)
		if err != nil {
			return err
		}
		if item.Status != StatusProposed {
			return fmt.Errorf("%w: only Proposed items can be deleted, item is %s", ErrInvalidTransition, item.Status)
		}
		if err := s.items.Delete(ctx, item.ID); err != nil {
			return err
		}
		return s.charts.ClearIfHeldBy(ctx, item.PatientID, item.ToothID, item.ID)
	})
}

func (s *Service) GetItem(ctx context.Context, itemID uuid.UUID) (*Item, error) {
	return s.items.GetByID(ctx, itemID)
}

func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Item, int, error) {
	return s.items.ListByPatient(ctx, patientID, limit, offset)
}
