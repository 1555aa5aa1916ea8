package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentio/dentio/internal/platform/patientlock"
)

var (
	ErrInvalidAmount    = errors.New("amount must be greater than zero")
	ErrInvalidEntryType = errors.New("invalid entry type")
	ErrInvalidMethod    = errors.New("invalid payment method")
)

var validEntryTypes = map[string]bool{
	TypeDebit: true, TypeCredit: true,
}

var validMethods = map[string]bool{
	MethodCash: true, MethodUPI: true, MethodCard: true, MethodInsurance: true,
}

type Service struct {
	entries Repository
	locks   *patientlock.Registry
}

func NewService(entries Repository, locks *patientlock.Registry) *Service {
	return &Service{entries: entries, locks: locks}
}

// Append posts an entry to the patient's ledger. Amounts are always
// positive; the entry type carries the sign.
func (s *Service) Append(ctx context.Context, e *Entry) error {
	if e.PatientID == uuid.Nil {
		return fmt.Errorf("patient_id is required")
	}
	if !validEntryTypes[e.Type] {
		return fmt.Errorf("%w: %s", ErrInvalidEntryType, e.Type)
	}
	if !e.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	if e.Description == "" {
		return fmt.Errorf("description is required")
	}
	return s.entries.Append(ctx, e)
}

// RecordPayment posts a CREDIT for a received payment, serialized with
// approval and invoicing through the per-patient lock. Overpayment is
// allowed and shows up as a negative balance (credit in the patient's
// favor).
func (s *Service) RecordPayment(ctx context.Context, patientID uuid.UUID, amount decimal.Decimal, method string, notes *string) (*Entry, error) {
	if !amount.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !validMethods[method] {
		return nil, fmt.Errorf("%w: %s", ErrInvalidMethod, method)
	}

	unlock := s.locks.Lock(patientID)
	defer unlock()

	e := &Entry{
		PatientID:   patientID,
		Type:        TypeCredit,
		Amount:      amount,
		Description: fmt.Sprintf("payment received (%s)", method),
		Method:      &method,
		Notes:       notes,
	}
	if err := s.entries.Append(ctx, e); err != nil {
		return nil, err
	}
	return e, nil
}

// BalanceOf derives the patient's balance from the entries: the sum of
// debits minus the sum of credits. Positive means the patient owes the
// practice.
func (s *Service) BalanceOf(ctx context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	return s.entries.Balance(ctx, patientID)
}

// StatementOf returns all entries in chronological order with a
// running balance after each line.
func (s *Service) StatementOf(ctx context.Context, patientID uuid.UUID) (*Statement, error) {
	entries, err := s.entries.AllByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	st := &Statement{PatientID: patientID, Balance: decimal.Zero}
	running := decimal.Zero
	for _, e := range entries {
		if e.Type == TypeDebit {
			running = running.Add(e.Amount)
		} else {
			running = running.Sub(e.Amount)
		}
		st.Lines = append(st.Lines, StatementLine{Entry: *e, RunningBalance: running})
	}
	st.Balance = running
	return st, nil
}

// ListByPatient returns a page of entries for display.
func (s *Service) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	return s.entries.ListByPatient(ctx, patientID, limit, offset)
}
