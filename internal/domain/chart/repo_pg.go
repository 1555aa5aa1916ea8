package chart

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

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

const toothCols = `id, patient_id, tooth_id, status, plan_item_id, updated_at`

func (r *repoPG) scanEntry(row pgx.Row) (*ToothEntry, error) {
	var e ToothEntry
	err := row.Scan(&e.ID, &e.PatientID, &e.ToothID, &e.Status, &e.PlanItemID, &e.UpdatedAt)
	return &e, err
}

func (r *repoPG) Upsert(ctx context.Context, e *ToothEntry) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	_, err := r.conn(ctx).Exec(ctx, `
		INSERT INTO tooth_entries (id, patient_id, tooth_id, status, plan_item_id)
		VALUES ($1,$2,$3,$4,$5)
		ON CONFLICT (patient_id, tooth_id)
		DO UPDATE SET status = EXCLUDED.status, plan_item_id = EXCLUDED.plan_item_id, updated_at = NOW()`,
		e.ID, e.PatientID, e.ToothID, e.Status, e.PlanItemID)
	return err
}

func (r *repoPG) Get(ctx context.Context, patientID uuid.UUID, toothID int) (*ToothEntry, error) {
	e, err := r.scanEntry(r.conn(ctx).QueryRow(ctx, `
		SELECT `+toothCols+` FROM tooth_entries WHERE patient_id = $1 AND tooth_id = $2`,
		patientID, toothID))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrEntryNotFound
	}
	return e, err
}

func (r *repoPG) Delete(ctx context.Context, patientID uuid.UUID, toothID int) error {
	_, err := r.conn(ctx).Exec(ctx, `
		DELETE FROM tooth_entries WHERE patient_id = $1 AND tooth_id = $2`, patientID, toothID)
	return err
}

func (r *repoPG) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*ToothEntry, error) {
	rows, err := r.conn(ctx).Query(ctx, `
		SELECT `+toothCols+` FROM tooth_entries WHERE patient_id = $1 ORDER BY tooth_id`, patientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*ToothEntry
	for rows.Next() {
		e, err := r.scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
