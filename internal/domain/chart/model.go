package chart

import (
	"time"

	"github.com/google/uuid"
)

// Tooth statuses. A tooth with no recorded entry is healthy.
const (
	StatusHealthy   = "healthy"
	StatusDecayed   = "decayed"
	StatusPlanned   = "planned"
	StatusCompleted = "completed"
	StatusMissing   = "missing"
)

// ToothEntry maps to the tooth_entries table. One row per
// (patient, tooth); healthy teeth have no row.
type ToothEntry struct {
	ID         uuid.UUID  `db:"id" json:"id"`
	PatientID  uuid.UUID  `db:"patient_id" json:"patient_id"`
	ToothID    int        `db:"tooth_id" json:"tooth_id"`
	Status     string     `db:"status" json:"status"`
	PlanItemID *uuid.UUID `db:"plan_item_id" json:"plan_item_id,omitempty"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updated_at"`
}

// Tooth is one position in the rendered chart.
type Tooth struct {
	ToothID int    `json:"tooth_id"`
	Status  string `json:"status"`
}

// ValidToothID reports whether id is a valid FDI two-digit tooth
// number for a permanent dentition: quadrants 1-4, positions 1-8.
func ValidToothID(id int) bool {
	q := id / 10
	p := id % 10
	return q >= 1 && q <= 4 && p >= 1 && p <= 8
}

// AllToothIDs lists the 32 FDI tooth numbers in quadrant order.
func AllToothIDs() []int {
	ids := make([]int, 0, 32)
	for q := 1; q <= 4; q++ {
		for p := 1; p <= 8; p++ {
			ids = append(ids, q*10+p)
		}
	}
	return ids
}
