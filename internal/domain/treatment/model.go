package treatment

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Item statuses. Proposed items form the open plan; approval moves the
// whole open plan to InProgress at once.
const (
	StatusProposed   = "Proposed"
	StatusInProgress = "InProgress"
	StatusCompleted  = "Completed"
	StatusBilled     = "Billed"
)

// Item maps to the treatment_items table. Cost is captured when the
// item is proposed and never changes after approval.
type Item struct {
	ID        uuid.UUID       `db:"id" json:"id"`
	PatientID uuid.UUID       `db:"patient_id" json:"patient_id"`
	ToothID   int             `db:"tooth_id" json:"tooth_id"`
	Procedure string          `db:"procedure" json:"procedure"`
	Cost      decimal.Decimal `db:"cost" json:"cost"`
	Status    string          `db:"status" json:"status"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt time.Time       `db:"updated_at" json:"updated_at"`
}
