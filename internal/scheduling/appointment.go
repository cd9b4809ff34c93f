package scheduling

import (
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "SCHEDULED"
	StatusCompleted AppointmentStatus = "COMPLETED"
	StatusCancelled AppointmentStatus = "CANCELLED"
	StatusNoShow    AppointmentStatus = "NO_SHOW"
)

func (s AppointmentStatus) IsValid() bool {
	switch s {
	case StatusScheduled, StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// CanTransitionTo: SCHEDULED is the only state that allows any move;
// COMPLETED, CANCELLED and NO_SHOW are terminal.
func (s AppointmentStatus) CanTransitionTo(next AppointmentStatus) bool {
	if s != StatusScheduled {
		return false
	}
	switch next {
	case StatusCompleted, StatusCancelled, StatusNoShow:
		return true
	}
	return false
}

// Appointment is a patient's booking against an Availability. The slot's
// descriptive fields are denormalized at booking time; after that the two
// records evolve independently and the coordinator keeps them in sync.
type Appointment struct {
	ID             uuid.UUID
	PatientID      string
	AvailabilityID uuid.UUID
	ProviderID     string
	FacilityID     string
	ServiceTypeID  string
	TimeSlot       TimeSlot
	Status         AppointmentStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// ScheduleAppointment books the given slot for a patient, copying the
// slot's descriptive fields onto the new SCHEDULED appointment.
func ScheduleAppointment(patientID string, slot *Availability) *Appointment {
	now := time.Now().UTC()
	return &Appointment{
		ID:             uuid.New(),
		PatientID:      patientID,
		AvailabilityID: slot.ID,
		ProviderID:     slot.ProviderID,
		FacilityID:     slot.FacilityID,
		ServiceTypeID:  slot.ServiceTypeID,
		TimeSlot:       slot.TimeSlot,
		Status:         StatusScheduled,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

func (a *Appointment) transition(to AppointmentStatus) error {
	if !a.Status.CanTransitionTo(to) {
		return &InvalidTransitionError{Entity: "appointment", From: string(a.Status), To: string(to)}
	}
	a.Status = to
	a.UpdatedAt = time.Now().UTC()
	return nil
}

func (a *Appointment) Complete() error {
	return a.transition(StatusCompleted)
}

func (a *Appointment) Cancel() error {
	return a.transition(StatusCancelled)
}

func (a *Appointment) MarkNoShow() error {
	return a.transition(StatusNoShow)
}

// Reschedule repoints the appointment at a new slot and refreshes the
// denormalized copy. The status stays SCHEDULED.
func (a *Appointment) Reschedule(newSlot *Availability) error {
	if a.Status != StatusScheduled {
		return &InvalidTransitionError{Entity: "appointment", From: string(a.Status), To: "rescheduled"}
	}
	a.AvailabilityID = newSlot.ID
	a.ProviderID = newSlot.ProviderID
	a.FacilityID = newSlot.FacilityID
	a.ServiceTypeID = newSlot.ServiceTypeID
	a.TimeSlot = newSlot.TimeSlot
	a.UpdatedAt = time.Now().UTC()
	return nil
}
