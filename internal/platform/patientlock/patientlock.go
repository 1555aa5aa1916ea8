// Package patientlock serializes mutating operations per patient.
// Approval, invoicing and payment flows read balances and append
// ledger entries in multiple steps; holding the patient's lock keeps
// concurrent requests from interleaving those steps.
package patientlock

import (
	"sync"

	"github.com/google/uuid"
)

// Registry hands out one mutex per patient ID.
type Registry struct {
	locks sync.Map // uuid.UUID -> *sync.Mutex
}

func NewRegistry() *Registry {
	return &Registry{}
}

// Lock acquires the mutex for the given patient, creating it on first use.
// The returned function releases the lock.
func (r *Registry) Lock(patientID uuid.UUID) func() {
	v, _ := r.locks.LoadOrStore(patientID, &sync.Mutex{})
	mu := v.(*sync.Mutex)
	mu.Lock()
	return mu.Unlock
}
