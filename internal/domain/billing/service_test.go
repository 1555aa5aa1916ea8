package billing

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/dentio/dentio/internal/domain/ledger"
	"github.com/dentio/dentio/internal/domain/treatment"
	"github.com/dentio/dentio/internal/platform/patientlock"
)

// -- Mock Repositories --

type mockInvoiceRepo struct {
	invoices map[uuid.UUID]*Invoice
	items    map[uuid.UUID][]*InvoiceItem
}

func newMockInvoiceRepo() *mockInvoiceRepo {
	return &mockInvoiceRepo{
		invoices: make(map[uuid.UUID]*Invoice),
		items:    make(map[uuid.UUID][]*InvoiceItem),
	}
}

func (m *mockInvoiceRepo) Create(_ context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	inv.CreatedAt = time.Now()
	cp := *inv
	m.invoices[inv.ID] = &cp
	return nil
}

func (m *mockInvoiceRepo) GetByID(_ context.Context, id uuid.UUID) (*Invoice, error) {
	inv, ok := m.invoices[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (m *mockInvoiceRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var out []*Invoice
	for _, inv := range m.invoices {
		if inv.PatientID == patientID {
			out = append(out, inv)
		}
	}
	return out, len(out), nil
}

func (m *mockInvoiceRepo) AddItem(_ context.Context, item *InvoiceItem) error {
	item.ID = uuid.New()
	m.items[item.InvoiceID] = append(m.items[item.InvoiceID], item)
	return nil
}

func (m *mockInvoiceRepo) GetItems(_ context.Context, invoiceID uuid.UUID) ([]*InvoiceItem, error) {
	return m.items[invoiceID], nil
}

type mockItemRepo struct {
	items map[uuid.UUID]*treatment.Item
}

func newMockItemRepo() *mockItemRepo {
	return &mockItemRepo{items: make(map[uuid.UUID]*treatment.Item)}
}

func (m *mockItemRepo) add(patientID uuid.UUID, toothID int, cost int64, status string) *treatment.Item {
	it := &treatment.Item{
		ID:        uuid.New(),
		PatientID: patientID,
		ToothID:   toothID,
		Procedure: "procedure",
		Cost:      decimal.NewFromInt(cost),
		Status:    status,
	}
	m.items[it.ID] = it
	return it
}

func (m *mockItemRepo) Create(_ context.Context, item *treatment.Item) error {
	item.ID = uuid.New()
	m.items[item.ID] = item
	return nil
}

func (m *mockItemRepo) GetByID(_ context.Context, id uuid.UUID) (*treatment.Item, error) {
	it, ok := m.items[id]
	if !ok {
		return nil, treatment.ErrItemNotFound
	}
	cp := *it
	return &cp, nil
}

func (m *mockItemRepo) UpdateStatus(_ context.Context, id uuid.UUID, from, to string) error {
	it, ok := m.items[id]
	if !ok {
		return treatment.ErrItemNotFound
	}
	if it.Status != from {
		return fmt.Errorf("%w: item %s is no longer %s", treatment.ErrInvalidTransition, id, from)
	}
	it.Status = to
	return nil
}

func (m *mockItemRepo) Delete(_ context.Context, id uuid.UUID) error {
	delete(m.items, id)
	return nil
}

func (m *mockItemRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*treatment.Item, int, error) {
	var out []*treatment.Item
	for _, it := range m.items {
		if it.PatientID == patientID {
			out = append(out, it)
		}
	}
	return out, len(out), nil
}

func (m *mockItemRepo) ListByPatientAndStatus(_ context.Context, patientID uuid.UUID, status string) ([]*treatment.Item, error) {
	var out []*treatment.Item
	for _, it := range m.items {
		if it.PatientID == patientID && it.Status == status {
			out = append(out, it)
		}
	}
	return out, nil
}

type mockLedgerRepo struct {
	entries []*ledger.Entry
}

func (m *mockLedgerRepo) Append(_ context.Context, e *ledger.Entry) error {
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	m.entries = append(m.entries, e)
	return nil
}

func (m *mockLedgerRepo) GetByID(_ context.Context, id uuid.UUID) (*ledger.Entry, error) {
	for _, e := range m.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return nil, fmt.Errorf("not found")
}

func (m *mockLedgerRepo) ListByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]*ledger.Entry, int, error) {
	all, _ := m.AllByPatient(context.Background(), patientID)
	return all, len(all), nil
}

func (m *mockLedgerRepo) AllByPatient(_ context.Context, patientID uuid.UUID) ([]*ledger.Entry, error) {
	var out []*ledger.Entry
	for _, e := range m.entries {
		if e.PatientID == patientID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *mockLedgerRepo) Balance(_ context.Context, patientID uuid.UUID) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, e := range m.entries {
		if e.PatientID != patientID {
			continue
		}
		if e.Type == ledger.TypeDebit {
			sum = sum.Add(e.Amount)
		} else {
			sum = sum.Sub(e.Amount)
		}
	}
	return sum, nil
}

func passthroughTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type fixture struct {
	svc     *Service
	items   *mockItemRepo
	ledRepo *mockLedgerRepo
	ledgers *ledger.Service
}

func newFixture() *fixture {
	items := newMockItemRepo()
	ledRepo := &mockLedgerRepo{}
	locks := patientlock.NewRegistry()
	ledgers := ledger.NewService(ledRepo, locks)
	svc := NewService(newMockInvoiceRepo(), items, ledgers, locks, passthroughTx)
	return &fixture{svc: svc, items: items, ledRepo: ledRepo, ledgers: ledgers}
}

func invoiceInput(patientID uuid.UUID, itemIDs []uuid.UUID, discount decimal.Decimal) CreateInvoiceInput {
	return CreateInvoiceInput{PatientID: patientID, DoctorID: uuid.New(), ItemIDs: itemIDs, Discount: discount}
}

// -- Tests --

func TestCreateInvoice_TotalsAndLedger(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	// Work was approved earlier: a provisional DEBIT covers both items.
	if err := f.ledgers.Append(context.Background(), &ledger.Entry{
		PatientID:   patientID,
		Type:        ledger.TypeDebit,
		Amount:      decimal.NewFromInt(12500),
		Description: "treatment plan approval (2 items)",
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	a := f.items.add(patientID, 16, 4500, treatment.StatusCompleted)
	b := f.items.add(patientID, 24, 8000, treatment.StatusCompleted)

	inv, err := f.svc.CreateInvoice(context.Background(),
		invoiceInput(patientID, []uuid.UUID{a.ID, b.ID}, decimal.NewFromInt(500)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !inv.Subtotal.Equal(decimal.NewFromInt(12500)) {
		t.Errorf("expected subtotal 12500, got %s", inv.Subtotal)
	}
	if !inv.Total.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("expected total 12000, got %s", inv.Total)
	}
	if len(inv.Items) != 2 {
		t.Errorf("expected 2 invoice items, got %d", len(inv.Items))
	}

	// Items are now billed
	for _, id := range []uuid.UUID{a.ID, b.ID} {
		it, _ := f.items.GetByID(context.Background(), id)
		if it.Status != treatment.StatusBilled {
			t.Errorf("expected item %s Billed, got %s", id, it.Status)
		}
	}

	// Approval debit reversed, invoice total posted: balance reflects
	// the discounted amount.
	balance, _ := f.ledgers.BalanceOf(context.Background(), patientID)
	if !balance.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("expected balance 12000, got %s", balance)
	}

	// Exactly one reversal CREDIT and one invoice DEBIT were appended.
	if len(f.ledRepo.entries) != 3 {
		t.Fatalf("expected 3 ledger entries, got %d", len(f.ledRepo.entries))
	}
	reversal := f.ledRepo.entries[1]
	if reversal.Type != ledger.TypeCredit || !reversal.Amount.Equal(decimal.NewFromInt(12500)) {
		t.Errorf("unexpected reversal entry: %s %s", reversal.Type, reversal.Amount)
	}
	final := f.ledRepo.entries[2]
	if final.Type != ledger.TypeDebit || !final.Amount.Equal(decimal.NewFromInt(12000)) {
		t.Errorf("unexpected invoice entry: %s %s", final.Type, final.Amount)
	}
	if final.InvoiceID == nil || *final.InvoiceID != inv.ID {
		t.Error("expected invoice entry to reference the invoice")
	}
}

func TestCreateInvoice_RejectsUncompletedItem(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	it := f.items.add(patientID, 16, 4500, treatment.StatusInProgress)

	_, err := f.svc.CreateInvoice(context.Background(), invoiceInput(patientID, []uuid.UUID{it.ID}, decimal.Zero))
	if !errors.Is(err, ErrItemNotBillable) {
		t.Errorf("expected ErrItemNotBillable, got %v", err)
	}
	if len(f.ledRepo.entries) != 0 {
		t.Errorf("expected no ledger entries, got %d", len(f.ledRepo.entries))
	}
}

func TestCreateInvoice_RejectsDoubleBilling(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	it := f.items.add(patientID, 16, 4500, treatment.StatusCompleted)

	if _, err := f.svc.CreateInvoice(context.Background(), invoiceInput(patientID, []uuid.UUID{it.ID}, decimal.Zero)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err := f.svc.CreateInvoice(context.Background(), invoiceInput(patientID, []uuid.UUID{it.ID}, decimal.Zero))
	if !errors.Is(err, ErrItemNotBillable) {
		t.Errorf("expected ErrItemNotBillable on re-invoice, got %v", err)
	}
}

func TestCreateInvoice_RejectsForeignItem(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	other := f.items.add(uuid.New(), 16, 4500, treatment.StatusCompleted)

	_, err := f.svc.CreateInvoice(context.Background(), invoiceInput(patientID, []uuid.UUID{other.ID}, decimal.Zero))
	if !errors.Is(err, ErrItemNotBillable) {
		t.Errorf("expected ErrItemNotBillable, got %v", err)
	}
}

func TestCreateInvoice_RejectsDuplicateItemIDs(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	it := f.items.add(patientID, 16, 4500, treatment.StatusCompleted)

	_, err := f.svc.CreateInvoice(context.Background(), invoiceInput(patientID, []uuid.UUID{it.ID, it.ID}, decimal.Zero))
	if !errors.Is(err, ErrItemNotBillable) {
		t.Errorf("expected ErrItemNotBillable, got %v", err)
	}
}

func TestCreateInvoice_RejectsNegativeDiscount(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	it := f.items.add(patientID, 16, 4500, treatment.StatusCompleted)

	if _, err := f.svc.CreateInvoice(context.Background(),
		invoiceInput(patientID, []uuid.UUID{it.ID}, decimal.NewFromInt(-100))); !errors.Is(err, ErrInvalidDiscount) {
		t.Errorf("expected ErrInvalidDiscount for negative, got %v", err)
	}
}

func TestCreateInvoice_DiscountAboveSubtotalClampsToZero(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	it := f.items.add(patientID, 16, 4500, treatment.StatusCompleted)

	inv, err := f.svc.CreateInvoice(context.Background(),
		invoiceInput(patientID, []uuid.UUID{it.ID}, decimal.NewFromInt(5000)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.Total.IsZero() {
		t.Errorf("expected zero total, got %s", inv.Total)
	}
}

func TestCreateInvoice_FullDiscountSkipsDebit(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	it := f.items.add(patientID, 16, 4500, treatment.StatusCompleted)

	inv, err := f.svc.CreateInvoice(context.Background(),
		invoiceInput(patientID, []uuid.UUID{it.ID}, decimal.NewFromInt(4500)))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !inv.Total.IsZero() {
		t.Errorf("expected zero total, got %s", inv.Total)
	}
	// Only the reversal CREDIT was posted
	if len(f.ledRepo.entries) != 1 {
		t.Errorf("expected 1 ledger entry, got %d", len(f.ledRepo.entries))
	}
}

func TestCreateInvoice_RejectsEmptyItemList(t *testing.T) {
	f := newFixture()

	_, err := f.svc.CreateInvoice(context.Background(), invoiceInput(uuid.New(), nil, decimal.Zero))
	if !errors.Is(err, ErrNoItems) {
		t.Errorf("expected ErrNoItems, got %v", err)
	}
}

func TestGetInvoice_IncludesItems(t *testing.T) {
	f := newFixture()
	patientID := uuid.New()

	it := f.items.add(patientID, 16, 4500, treatment.StatusCompleted)
	inv, err := f.svc.CreateInvoice(context.Background(), invoiceInput(patientID, []uuid.UUID{it.ID}, decimal.Zero))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got, err := f.svc.GetInvoice(context.Background(), inv.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(got.Items))
	}
	if got.Items[0].TreatmentItemID != it.ID {
		t.Errorf("expected snapshot of item %s", it.ID)
	}
	if !got.Items[0].Cost.Equal(decimal.NewFromInt(4500)) {
		t.Errorf("expected snapshot cost 4500, got %s", got.Items[0].Cost)
	}
}

func TestGetInvoice_NotFound(t *testing.T) {
	f := newFixture()

	_, err := f.svc.GetInvoice(context.Background(), uuid.New())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
