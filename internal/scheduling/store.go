package scheduling

import (
	"context"

	"github.com/google/uuid"
)

type SlotFilters struct {
	ProviderID    *string
	FacilityID    *string
	ServiceTypeID *string
	Status        *SlotStatus
}

type AppointmentFilters struct {
	PatientID  *string
	ProviderID *string
	Status     *AppointmentStatus
}

// SlotStore is the durable home of Availability records.
//
// TransitionStatus is the concurrency linchpin: it must be an atomic
// conditional write ("set status=to where id=? and status=from") that
// succeeds for exactly one caller, returning ErrStatusConflict when the
// precondition no longer holds.
type SlotStore interface {
	Save(ctx context.Context, a *Availability) error
	FindByID(ctx context.Context, id uuid.UUID) (*Availability, error)
	FindByFilters(ctx context.Context, f SlotFilters) ([]Availability, error)
	Update(ctx context.Context, a *Availability) error
	CheckOverlap(ctx context.Context, providerID string, slot TimeSlot, excludeID *uuid.UUID) (bool, error)
	TransitionStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*Availability, error)
}

// BookingStore is the durable home of Appointment records.
type BookingStore interface {
	Save(ctx context.Context, a *Appointment) error
	FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	FindByFilters(ctx context.Context, f AppointmentFilters) ([]Appointment, error)
	Update(ctx context.Context, a *Appointment) error

	// FindActiveBySlot returns the SCHEDULED appointment referencing the
	// given availability, or ErrAppointmentNotFound.
	FindActiveBySlot(ctx context.Context, availabilityID uuid.UUID) (*Appointment, error)
}
