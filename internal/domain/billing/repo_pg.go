package billing

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/dentio/dentio/internal/platform/db"
)

type queryable interface {
	Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...interface{}) pgx.Row
	Exec(ctx context.Context, sql string, args ...interface{}) (pgconn.CommandTag, error)
}

type repoPG struct{ pool *pgxpool.Pool }

func NewRepoPG(pool *pgxpool.Pool) Repository { return &repoPG{pool: pool} }

func (r *repoPG) conn(ctx context.Context) queryable {
	if tx := db.TxFromContext(ctx); tx != nil {
		return tx
	}
	return r.pool
}

const invoiceCols = `id, patient_id, doctor_id, subtotal::text, discount::text, total::text, notes, due_date, created_at`

func (r *repoPG) scanInvoice(row pgx.Row) (*Invoice, error) {
	var inv Invoice
	var subtotal, discount, total string
	err := row.Scan(&inv.ID, &inv.PatientID, &inv.DoctorID, &subtotal, &discount, &total, &inv.Notes, &inv.DueDate, &inv.CreatedAt)
	if err != nil {
		return nil, err
	}
	if inv.Subtotal, err = decimal.NewFromString(subtotal); err != nil {
		return nil, err
	}
	if inv.Discount, err = decimal.NewFromString(discount); err != nil {
		return nil, err
	}
	inv.Total, err = decimal.NewFromString(total)
	return &inv, err
}

func (r *repoPG) Create(ctx context.Context, inv *Invoice) error {
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoices (id, patient_id, doctor_id, subtotal, discount, total, notes, due_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)`,
		inv.ID, inv.PatientID, inv.DoctorID, inv.Subtotal.String(), inv.Discount.String(), inv.Total.String(), inv.Notes, inv.DueDate)
	return err
}

func (r *repoPG) GetByID(ctx context.Context, id uuid.UUID) (*Invoice, error) {
	inv, err := r.scanInvoice(r.conn(ctx).QueryRow(ctx, `SELECT `+invoiceCols+` FROM invoices WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	return inv, err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID, limit, offset int) ([]*Invoice, int, error) {
	var total int
	if err := r.conn(ctx).QueryRow(ctx, `SELECT COUNT(*) FROM invoices WHERE patient_id = $1`, patientID).Scan(&total); err != nil {
		return nil, 0, err
	}

	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+invoiceCols+` FROM invoices WHERE patient_id = $1
		ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []*Invoice
	for rows.Next() {
		inv, err := r.scanInvoice(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, inv)
	}
	return out, total, rows.Err()
}

func (r *repoPG) AddItem(ctx context.Context, item *InvoiceItem) error {
	item.ID = uuid.New()
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO invoice_items (id, invoice_id, treatment_item_id, tooth_id, procedure, cost)
		VALUES ($1,$2,$3,$4,$5,$6)`,
		item.ID, item.InvoiceID, item.TreatmentItemID, item.ToothID, item.Procedure, item.Cost.String())
	return err
}

func (r *repoPG) GetItems(ctx context.Context, invoiceID uuid.UUID) ([]*InvoiceItem, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT id, invoice_id, treatment_item_id, tooth_id, procedure, cost::text
		FROM invoice_items WHERE invoice_id = $1 ORDER BY tooth_id, id`, invoiceID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*InvoiceItem
	for rows.Next() {
		var it InvoiceItem
		var cost string
		if err := rows.Scan(&it.ID, &it.InvoiceID, &it.TreatmentItemID, &it.ToothID, &it.Procedure, &cost); err != nil {
			return nil, err
		}
		if it.Cost, err = decimal.NewFromString(cost); err != nil {
			return nil, err
		}
		out = append(out, &it)
	}
	return out, rows.Err()
}
