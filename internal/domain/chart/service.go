package chart

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
)

var (
	ErrInvalidToothID = errors.New("invalid tooth id")
	ErrInvalidStatus  = errors.New("invalid tooth status")

	// ErrEntryNotFound is returned by Repository.Get when a tooth has
	// no recorded entry. An absent entry means the tooth is healthy;
	// any other repository error is a real failure and must surface.
	ErrEntryNotFound = errors.New("tooth entry not found")
)

var validStatuses = map[string]bool{
	StatusHealthy: true, StatusDecayed: true, StatusPlanned: true,
	StatusCompleted: true, StatusMissing: true,
}

type Service struct {
	teeth Repository
}

func NewService(teeth Repository) *Service {
	return &Service{teeth: teeth}
}

// SetStatus records a clinical finding for a tooth. Healthy is the
// default, so setting a tooth healthy removes its entry.
func (s *Service) SetStatus(ctx context.Context, patientID uuid.UUID, toothID int, status string) error {
	if !ValidToothID(toothID) {
		return fmt.Errorf("%w: %d", ErrInvalidToothID, toothID)
	}
	if !validStatuses[status] {
		return fmt.Errorf("%w: %s", ErrInvalidStatus, status)
	}

	if status == StatusHealthy {
		return s.teeth.Delete(ctx, patientID, toothID)
	}
	return s.teeth.Upsert(ctx, &ToothEntry{
		PatientID: patientID,
		ToothID:   toothID,
		Status:    status,
	})
}

// GetStatus returns the current status of a tooth; healthy when no
// entry exists.
func (s *Service) GetStatus(ctx context.Context, patientID uuid.UUID, toothID int) (string, error) {
	if !ValidToothID(toothID) {
		return "", fmt.Errorf("%w: %d", ErrInvalidToothID, toothID)
	}
	e, err := s.teeth.Get(ctx, patientID, toothID)
	if errors.Is(err, ErrEntryNotFound) {
		return StatusHealthy, nil
	}
	if err != nil {
		return "", err
	}
	return e.Status, nil
}

// GetChart renders all 32 teeth, filling healthy for unrecorded ones.
func (s *Service) GetChart(ctx context.Context, patientID uuid.UUID) ([]Tooth, error) {
	entries, err := s.teeth.ListByPatient(ctx, patientID)
	if err != nil {
		return nil, err
	}

	byTooth := make(map[int]string, len(entries))
	for _, e := range entries {
		byTooth[e.ToothID] = e.Status
	}

	teeth := make([]Tooth, 0, 32)
	for _, id := range AllToothIDs() {
		status, ok := byTooth[id]
		if !ok {
			status = StatusHealthy
		}
		teeth = append(teeth, Tooth{ToothID: id, Status: status})
	}
	return teeth, nil
}

// MarkPlanned ties a tooth to a treatment plan item. Existing clinical
// findings take precedence: a decayed, completed or missing tooth is
// left untouched unless the marker already belongs to this item, in
// which case the owner may re-plan it.
func (s *Service) MarkPlanned(ctx context.Context, patientID uuid.UUID, toothID int, itemID uuid.UUID) error {
	if !ValidToothID(toothID) {
		return fmt.Errorf("%w: %d", ErrInvalidToothID, toothID)
	}

	e, err := s.teeth.Get(ctx, patientID, toothID)
	if err != nil && !errors.Is(err, ErrEntryNotFound) {
		return err
	}
	if err == nil && e.Status != StatusPlanned {
		owned := e.PlanItemID != nil && *e.PlanItemID == itemID
		if !owned {
			return nil
		}
	}
	return s.teeth.Upsert(ctx, &ToothEntry{
		PatientID:  patientID,
		ToothID:    toothID,
		Status:     StatusPlanned,
		PlanItemID: &itemID,
	})
}

// MarkCompleted records that the planned work on a tooth finished.
func (s *Service) MarkCompleted(ctx context.Context, patientID uuid.UUID, toothID int, itemID uuid.UUID) error {
	if !ValidToothID(toothID) {
		return fmt.Errorf("%w: %d", ErrInvalidToothID, toothID)
	}
	return s.teeth.Upsert(ctx, &ToothEntry{
		PatientID:  patientID,
		ToothID:    toothID,
		Status:     StatusCompleted,
		PlanItemID: &itemID,
	})
}

// ClearIfHeldBy resets a tooth to healthy only when the given plan
// item still owns its planned marker. Another item or a later clinical
// finding keeps the tooth as-is.
func (s *Service) ClearIfHeldBy(ctx context.Context, patientID uuid.UUID, toothID int, itemID uuid.UUID) error {
	e, err := s.teeth.Get(ctx, patientID, toothID)
	if errors.Is(err, ErrEntryNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if e.Status != StatusPlanned || e.PlanItemID == nil || *e.PlanItemID != itemID {
		return nil
	}
	return s.teeth.Delete(ctx, patientID, toothID)
}
