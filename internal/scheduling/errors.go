package scheduling

import (
	"errors"
	"fmt"
)

var (
	ErrAvailabilityNotFound = errors.New("availability not found")
	ErrAppointmentNotFound  = errors.New("appointment not found")
	ErrSlotNotAvailable     = errors.New("availability is not available for booking")
	ErrOverlap              = errors.New("time slot overlaps an existing availability")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrInvalidTimeSlot      = errors.New("invalid time slot")

	// ErrStatusConflict is returned by a store when a conditional status
	// write matched no row: the record is gone or its status changed under
	// a concurrent writer.
	ErrStatusConflict = errors.New("availability status changed concurrently")

	// ErrProviderBusy means the per-provider write lock could not be
	// acquired; the caller may retry.
	ErrProviderBusy = errors.New("provider schedule is being modified, please retry")
)

// InvalidTransitionError names the entity and the rejected lifecycle move.
type InvalidTransitionError struct {
	Entity string
	From   string
	To     string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s cannot transition from %s to %s", e.Entity, e.From, e.To)
}

func (e *InvalidTransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}

// OverlapError carries the provider and the requested range that collided.
type OverlapError struct {
	ProviderID string
	Slot       TimeSlot
}

func (e *OverlapError) Error() string {
	return fmt.Sprintf("provider %s already has an availability overlapping %s", e.ProviderID, e.Slot)
}

func (e *OverlapError) Is(target error) bool {
	return target == ErrOverlap
}
