package billing

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Invoice maps to the invoices table. Totals are frozen at issue time.
type Invoice struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	PatientID uuid.UUID       `db:"patient_id" json:"patient_id"`
	DoctorID  uuid.UUID       `db:"doctor_id" json:"doctor_id"`
	Subtotal  decimal.Decimal `db:"subtotal" json:"subtotal"`
	Discount  decimal.Decimal `db:"discount" json:"discount"`
	Total     decimal.Decimal `db:"total" json:"total"`
	Notes     *string         `db:"notes" json:"notes,omitempty"`
	DueDate   *time.Time      `db:"due_date" json:"due_date,omitempty"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`

	Items []*InvoiceItem `db:"-" json:"items,omitempty"`
}

// InvoiceItem snapshots a billed treatment item. The cost is copied so
// later plan edits cannot change an issued invoice.
type InvoiceItem struct {
	ID              uuid.UUID       `db:"id" json:"id"`
	InvoiceID       uuid.UUID       `db:"invoice_id" json:"invoice_id"`
	TreatmentItemID uuid.UUID       `db:"treatment_item_id" json:"treatment_item_id"`
	ToothID         int             `db:"tooth_id" json:"tooth_id"`
	Procedure       string          `db:"procedure" json:"procedure"`
	Cost            decimal.Decimal `db:"cost" json:"cost"`
}
