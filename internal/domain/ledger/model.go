package ledger

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Entry types. The ledger is append-only: a posted entry is never
// updated or deleted, corrections happen through compensating entries.
const (
	TypeDebit  = "DEBIT"
	TypeCredit = "CREDIT"
)

// Payment methods accepted by RecordPayment.
const (
	MethodCash      = "Cash"
	MethodUPI       = "UPI"
	MethodCard      = "Card"
	MethodInsurance = "Insurance"
)

// Entry maps to the ledger_entries table.
type Entry struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	PatientID   uuid.UUID       `db:"patient_id" json:"patient_id"`
	Type        string          `db:"entry_type" json:"type"`
	Amount      decimal.Decimal `db:"amount" json:"amount"`
	Description string          `db:"description" json:"description"`
	Method      *string         `db:"method" json:"method,omitempty"`
	Notes       *string         `db:"notes" json:"notes,omitempty"`
	InvoiceID   *uuid.UUID      `db:"invoice_id" json:"invoice_id,omitempty"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
}

// StatementLine is an entry plus the running balance after it posted.
type StatementLine struct {
	Entry
	RunningBalance decimal.Decimal `json:"running_balance"`
}

// Statement is the chronological view of a patient's account.
type Statement struct {
	PatientID uuid.UUID       `json:"patient_id"`
	Lines     []StatementLine `json:"lines"`
	Balance   decimal.Decimal `json:"balance"`
}
