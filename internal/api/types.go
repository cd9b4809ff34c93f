package api

import (
	"time"

	"github.com/nucleo-health/appointments-service/internal/scheduling"
)

type TimeSlotPayload struct {
	StartDateTime   time.Time `json:"startDateTime"`
	DurationMinutes int       `json:"durationMinutes"`
}

type CreateAvailabilityRequest struct {
	ProviderID    string           `json:"providerId"`
	FacilityID    string           `json:"facilityId"`
	ServiceTypeID string           `json:"serviceTypeId"`
	TimeSlot      *TimeSlotPayload `json:"timeSlot"`
}

type UpdateAvailabilityRequest struct {
	FacilityID    *string          `json:"facilityId"`
	ServiceTypeID *string          `json:"serviceTypeId"`
	TimeSlot      *TimeSlotPayload `json:"timeSlot"`
}

type AvailabilityResponse struct {
	AvailabilityID string          `json:"availabilityId"`
	ProviderID     string          `json:"providerId"`
	FacilityID     string          `json:"facilityId"`
	ServiceTypeID  string          `json:"serviceTypeId"`
	TimeSlot       TimeSlotPayload `json:"timeSlot"`
	Status         string          `json:"status"`
}

type CreateAppointmentRequest struct {
	PatientID      string `json:"patientId"`
	AvailabilityID string `json:"availabilityId"`
}

// UpdateAppointmentRequest carries either a status change or a reschedule
// target, never both.
type UpdateAppointmentRequest struct {
	Status         *string `json:"status"`
	AvailabilityID *string `json:"availabilityId"`
}

type AppointmentResponse struct {
	AppointmentID  string          `json:"appointmentId"`
	PatientID      string          `json:"patientId"`
	AvailabilityID string          `json:"availabilityId"`
	ProviderID     string          `json:"providerId"`
	FacilityID     string          `json:"facilityId"`
	ServiceTypeID  string          `json:"serviceTypeId"`
	TimeSlot       TimeSlotPayload `json:"timeSlot"`
	Status         string          `json:"status"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

func toTimeSlotPayload(s scheduling.TimeSlot) TimeSlotPayload {
	return TimeSlotPayload{
		StartDateTime:   s.Start,
		DurationMinutes: s.DurationMinutes,
	}
}

func toAvailabilityResponse(a *scheduling.Availability) AvailabilityResponse {
	return AvailabilityResponse{
		AvailabilityID: a.ID.String(),
		ProviderID:     a.ProviderID,
		FacilityID:     a.FacilityID,
		ServiceTypeID:  a.ServiceTypeID,
		TimeSlot:       toTimeSlotPayload(a.TimeSlot),
		Status:         string(a.Status),
	}
}

func toAppointmentResponse(a *scheduling.Appointment) AppointmentResponse {
	return AppointmentResponse{
		AppointmentID:  a.ID.String(),
		PatientID:      a.PatientID,
		AvailabilityID: a.AvailabilityID.String(),
		ProviderID:     a.ProviderID,
		FacilityID:     a.FacilityID,
		ServiceTypeID:  a.ServiceTypeID,
		TimeSlot:       toTimeSlotPayload(a.TimeSlot),
		Status:         string(a.Status),
		CreatedAt:      a.CreatedAt,
		UpdatedAt:      a.UpdatedAt,
	}
}
