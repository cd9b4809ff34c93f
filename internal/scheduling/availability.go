package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type SlotStatus string

const (
	SlotAvailable SlotStatus = "AVAILABLE"
	SlotBooked    SlotStatus = "BOOKED"
	SlotCancelled SlotStatus = "CANCELLED"
)

func (s SlotStatus) IsValid() bool {
	switch s {
	case SlotAvailable, SlotBooked, SlotCancelled:
		return true
	}
	return false
}

// Availability is a provider-offered bookable time slot. It is the sole
// source of truth for slot occupancy; appointments reference it by ID only.
type Availability struct {
	ID            uuid.UUID
	ProviderID    string
	FacilityID    string
	ServiceTypeID string
	TimeSlot      TimeSlot
	Status        SlotStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewAvailability creates a slot in AVAILABLE. Overlap against the
// provider's other slots is the caller's concern: the aggregate has no view
// of sibling records.
func NewAvailability(providerID, facilityID, serviceTypeID string, slot TimeSlot) *Availability {
	now := time.Now().UTC()
	return &Availability{
		ID:            uuid.New(),
		ProviderID:    providerID,
		FacilityID:    facilityID,
		ServiceTypeID: serviceTypeID,
		TimeSlot:      slot,
		Status:        SlotAvailable,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// Book moves AVAILABLE -> BOOKED.
func (a *Availability) Book() error {
	if a.Status != SlotAvailable {
		return &InvalidTransitionError{Entity: "availability", From: string(a.Status), To: string(SlotBooked)}
	}
	a.Status = SlotBooked
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// MakeAvailable frees a BOOKED slot when its appointment is cancelled or
// rescheduled away.
func (a *Availability) MakeAvailable() error {
	if a.Status != SlotBooked {
		return &InvalidTransitionError{Entity: "availability", From: string(a.Status), To: string(SlotAvailable)}
	}
	a.Status = SlotAvailable
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// Cancel moves the slot to its terminal CANCELLED state. Cancelling an
// already-cancelled slot is a no-op. Cancelling a BOOKED slot does not
// touch the dependent appointment; that is the coordinator's job.
func (a *Availability) Cancel() error {
	if a.Status == SlotCancelled {
		return nil
	}
	a.Status = SlotCancelled
	a.UpdatedAt = time.Now().UTC()
	return nil
}

// AvailabilityUpdate carries the optional fields of an update request.
type AvailabilityUpdate struct {
	FacilityID    *string
	ServiceTypeID *string
	TimeSlot      *TimeSlot
}

// Apply mutates the descriptive fields. Only an AVAILABLE slot may change:
// a BOOKED slot's denormalized copy already lives on an appointment and a
// CANCELLED slot is history.
func (a *Availability) Apply(upd AvailabilityUpdate) error {
	if a.Status != SlotAvailable {
		return &InvalidTransitionError{Entity: "availability", From: string(a.Status), To: "updated"}
	}
	if upd.FacilityID != nil {
		a.FacilityID = *upd.FacilityID
	}
	if upd.ServiceTypeID != nil {
		a.ServiceTypeID = *upd.ServiceTypeID
	}
	if upd.TimeSlot != nil {
		a.TimeSlot = *upd.TimeSlot
	}
	a.UpdatedAt = time.Now().UTC()
	return nil
}
