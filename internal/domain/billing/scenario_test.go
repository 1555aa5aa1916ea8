package billing

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentio/dentio/internal/domain/chart"
	"github.com/dentio/dentio/internal/domain/ledger"
	"github.com/dentio/dentio/internal/domain/treatment"
	"github.com/dentio/dentio/internal/platform/patientlock"
)

type chartKey struct {
	patientID uuid.UUID
	toothID   int
}

type scenarioChartRepo struct {
	items map[chartKey]*chart.ToothEntry
}

func (m *scenarioChartRepo) Upsert(_ context.Context, e *chart.ToothEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	m.items[chartKey{e.PatientID, e.ToothID}] = e
	return nil
}

func (m *scenarioChartRepo) Get(_ context.Context, patientID uuid.UUID, toothID int) (*chart.ToothEntry, error) {
	e, ok := m.items[chartKey{patientID, toothID}]
	if !ok {
		return nil, chart.ErrEntryNotFound
	}
	return e, nil
}

func (m *scenarioChartRepo) Delete(_ context.Context, patientID uuid.UUID, toothID int) error {
	delete(m.items, chartKey{patientID, toothID})
	return nil
}

func (m *scenarioChartRepo) ListByPatient(_ context.Context, patientID uuid.UUID) ([]*chart.ToothEntry, error) {
	var out []*chart.ToothEntry
	for _, e := range m.items {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	return out, nil
}

// A patient's full visit: findings are charted, work is proposed and
// approved, completed, invoiced with a discount, and paid off.
func TestScenario_ChartToSettledInvoice(t *testing.T) {
	ctx := context.Background()
	patientID := uuid.New()

	items := newMockItemRepo()
	ledRepo := &mockLedgerRepo{}
	locks := patientlock.NewRegistry()
	ledgers := ledger.NewService(ledRepo, locks)
	charts := chart.NewService(&scenarioChartRepo{items: make(map[chartKey]*chart.ToothEntry)})

	treatments := treatment.NewService(items, charts, ledgers, locks, passthroughTx)
	invoices := NewService(newMockInvoiceRepo(), items, ledgers, locks, passthroughTx)

	// Dentist charts a finding, then proposes work.
	if err := charts.SetStatus(ctx, patientID, 16, chart.StatusDecayed); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	rootCanal, err := treatments.AddItem(ctx, patientID, 16, "root canal", decimal.NewFromInt(4500))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	crown, err := treatments.AddItem(ctx, patientID, 24, "crown", decimal.NewFromInt(8000))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Patient approves: one provisional DEBIT for the whole plan.
	if _, err := treatments.ApproveAndStart(ctx, patientID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	balance, _ := ledgers.BalanceOf(ctx, patientID)
	if !balance.Equal(decimal.NewFromInt(12500)) {
		t.Fatalf("expected balance 12500 after approval, got %s", balance)
	}

	// Both procedures finish.
	for _, id := range []uuid.UUID{rootCanal.ID, crown.ID} {
		if _, err := treatments.CompleteItem(ctx, id); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	// Front desk invoices both with a 500 discount.
	inv, err := invoices.CreateInvoice(ctx, CreateInvoiceInput{
		PatientID: patientID,
		DoctorID:  uuid.New(),
		ItemIDs:   []uuid.UUID{rootCanal.ID, crown.ID},
		Discount:  decimal.NewFromInt(500),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.Total.Equal(decimal.NewFromInt(12000)) {
		t.Fatalf("expected invoice total 12000, got %s", inv.Total)
	}

	balance, _ = ledgers.BalanceOf(ctx, patientID)
	if !balance.Equal(decimal.NewFromInt(12000)) {
		t.Fatalf("expected balance 12000 after invoicing, got %s", balance)
	}

	// Patient pays in two installments.
	if _, err := ledgers.RecordPayment(ctx, patientID, decimal.NewFromInt(5000), ledger.MethodUPI, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := ledgers.RecordPayment(ctx, patientID, decimal.NewFromInt(7000), ledger.MethodCard, nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	balance, _ = ledgers.BalanceOf(ctx, patientID)
	if !balance.IsZero() {
		t.Fatalf("expected settled balance, got %s", balance)
	}

	// The statement tells the whole story without rewriting history.
	st, err := ledgers.StatementOf(ctx, patientID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(st.Lines) != 5 {
		t.Fatalf("expected 5 statement lines, got %d", len(st.Lines))
	}
	if !st.Lines[len(st.Lines)-1].RunningBalance.IsZero() {
		t.Errorf("expected final running balance zero")
	}

	// Teeth reflect the finished work, including the one that was
	// decayed before treatment.
	for _, toothID := range []int{16, 24} {
		if status, _ := charts.GetStatus(ctx, patientID, toothID); status != chart.StatusCompleted {
			t.Errorf("expected tooth %d completed, got %s", toothID, status)
		}
	}
}
