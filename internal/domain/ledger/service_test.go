package ledger

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentio/dentio/internal/platform/patientlock"
)

// -- Mock Repository --

type mockRepo struct {
	mu      sync.Mutex
	entries []*Entry
}

func newMockRepo() *mockRepo {
	return &mockRepo{}
}

func (m *mockRepo) Append(_ context.Context, e *Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockRepo) count(patientID uuid.UUID) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, e := range m.entries {
		if e.PatientID == patientID {
			n++
		}
	}
	return n
}

func (m *mockRepo) GetByID(_ context.Context, id uuid.UUID) (*Entry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Entry, int, error) {
	all, _ := m.AllByPatient(context.Background(), patientID)
	return all, len(all), nil
}

func (m *mockRepo) AllByPatient(_ context.Context, patientID uuid.UUID) ([]*Entry, error) {
	var out []*Entry
	for _, e := range m.entries {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockRepo) Balance(_ context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.PatientID != patientID {
			continue
		}
		if e.Type == TypeDebit {
			sum = sum.Add(e.Amount)
		} else {
			sum = sum.Sub(e.Amount)
		}
	}
	return sum, nil
}

// -- Tests --

func TestAppend_Valid(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, patientlock.NewRegistry())
	patientID := uuid.New()

	err := svc.Append(context.Background(), &Entry{
		PatientID:   patientID,
		Type:        TypeDebit,
		Amount:      decimal.NewFromInt(4500),
		Description: "treatment plan approval (1 items)",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
}

func TestAppend_RejectsZeroAmount(t *testing.T) {
	svc := NewService(newMockRepo(), patientlock.NewRegistry())

	err := svc.Append(context.Background(), &Entry{
		PatientID:   uuid.New(),
		Type:        TypeDebit,
		Amount:      decimal.Zero,
		Description: "zero",
	})
	if err != ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAppend_RejectsNegativeAmount(t *testing.T) {
	svc := NewService(newMockRepo(), patientlock.NewRegistry())

	err := svc.Append(context.Background(), &Entry{
		PatientID:   uuid.New(),
		Type:        TypeCredit,
		Amount:      decimal.NewFromInt(-100),
		Description: "negative",
	})
	if err != ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestAppend_RejectsUnknownType(t *testing.T) {
	svc := NewService(newMockRepo(), patientlock.NewRegistry())

	err := svc.Append(context.Background(), &Entry{
		PatientID:   uuid.New(),
		Type:        "TRANSFER",
		Amount:      decimal.NewFromInt(100),
		Description: "bad type",
	})
	if err == nil {
		t.Fatal("expected error for unknown entry type")
	}
}

func TestRecordPayment_AppendsCredit(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, patientlock.NewRegistry())
	patientID := uuid.New()

	entry, err := svc.RecordPayment(context.Background(), patientID, decimal.NewFromInt(2000), MethodUPI, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.Type != TypeCredit {
		t.Errorf("expected CREDIT entry, got %s", entry.Type)
	}
	if entry.Description != "payment received (UPI)" {
		t.Errorf("unexpected description: %q", entry.Description)
	}
	if entry.Method == nil || *entry.Method != MethodUPI {
		t.Errorf("expected method UPI, got %v", entry.Method)
	}
}

func TestRecordPayment_RejectsInvalidMethod(t *testing.T) {
	svc := NewService(newMockRepo(), patientlock.NewRegistry())

	_, err := svc.RecordPayment(context.Background(), uuid.New(), decimal.NewFromInt(100), "Cheque", nil)
	if err == nil {
		t.Fatal("expected error for invalid method")
	}
}

func TestRecordPayment_RejectsZeroAmount(t *testing.T) {
	svc := NewService(newMockRepo(), patientlock.NewRegistry())

	_, err := svc.RecordPayment(context.Background(), uuid.New(), decimal.Zero, MethodCash, nil)
	if err != ErrInvalidAmount {
		t.Errorf("expected ErrInvalidAmount, got %v", err)
	}
}

func TestBalanceOf_DerivedFromEntries(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, patientlock.NewRegistry())
	patientID := uuid.New()

	charges := []int64{4500, 8000}
	for _, amt := range charges {
		if err := svc.Append(context.Background(), &Entry{
			PatientID:   patientID,
			Type:        TypeDebit,
			Amount:      decimal.NewFromInt(amt),
			Description: "charge",
		}); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if _, err := svc.RecordPayment(context.Background(), patientID, decimal.NewFromInt(5000), MethodCard, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, err := svc.BalanceOf(context.Background(), patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(7500)) {
		t.Errorf("expected balance 7500, got %s", balance)
	}
}

func TestBalanceOf_OverpaymentGoesNegative(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, patientlock.NewRegistry())
	patientID := uuid.New()

	if err := svc.Append(context.Background(), &Entry{
		PatientID:   patientID,
		Type:        TypeDebit,
		Amount:      decimal.NewFromInt(1000),
		Description: "charge",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RecordPayment(context.Background(), patientID, decimal.NewFromInt(1500), MethodCash, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, err := svc.BalanceOf(context.Background(), patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !balance.Equal(decimal.NewFromInt(-500)) {
		t.Errorf("expected balance -500, got %s", balance)
	}
}

func TestStatementOf_RunningBalance(t *testing.T) {
	repo := newMockRepo()
	svc := NewService(repo, patientlock.NewRegistry())
	patientID := uuid.New()

	if err := svc.Append(context.Background(), &Entry{
		PatientID: patientID, Type: TypeDebit,
		Amount: decimal.NewFromInt(4500), Description: "charge",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := svc.RecordPayment(context.Background(), patientID, decimal.NewFromInt(2000), MethodCash, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	st, err := svc.StatementOf(context.Background(), patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(st.Lines))
	}
	if !st.Lines[0].RunningBalance.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("line 1: expected running balance 4500, got %s", st.Lines[0].RunningBalance)
	}
	if !st.Lines[1].RunningBalance.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("line 2: expected running balance 2500, got %s", st.Lines[1].RunningBalance)
	}
	if !st.Balance.Equal(decimal.NewFromInt(2500)) {
		t.Errorf("expected final balance 2500, got %s", st.Balance)
	}
}

func TestStatementOf_EmptyLedger(t *testing.T) {
	svc := NewService(newMockRepo(), patientlock.NewRegistry())

	st, err := svc.StatementOf(context.Background(), uuid.New())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.Lines) != 0 {
		t.Errorf("expected no lines, got %d", len(st.Lines))
	}
	if !st.Balance.IsZero() {
		t.Errorf("expected zero balance, got %s", st.Balance)
	}
}

// A payment arriving while another flow holds the patient's lock must
// not post until that flow releases it.
func TestRecordPayment_WaitsForPatientLock(t *testing.T) {
	repo := newMockRepo()
	locks := patientlock.NewRegistry()
	svc := NewService(repo, locks)
	patientID := uuid.New()

	release := locks.Lock(patientID)

	done := make(chan error, 1)
	go func() {
		_, err := svc.RecordPayment(context.Background(), patientID, decimal.NewFromInt(1000), MethodCash, nil)
		done <- err
	}()

	select {
	case <-done:
		t.Fatal("payment posted while the patient lock was held")
	case <-time.After(20 * time.Millisecond):
	}

	release()
	if err := <-done; err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n := repo.count(patientID); n != 1 {
		t.Errorf("expected 1 entry, got %d", n)
	}
}
