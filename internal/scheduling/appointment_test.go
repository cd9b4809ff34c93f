package scheduling_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleo-health/appointments-service/internal/scheduling"
)

func TestScheduleAppointmentDenormalizesSlot(t *testing.T) {
	slot := newTestAvailability(t)
	appt := scheduling.ScheduleAppointment("pat-1", slot)

	assert.Equal(t, scheduling.StatusScheduled, appt.Status)
	assert.Equal(t, "pat-1", appt.PatientID)
	assert.Equal(t, slot.ID, appt.AvailabilityID)
	assert.Equal(t, slot.ProviderID, appt.ProviderID)
	assert.Equal(t, slot.FacilityID, appt.FacilityID)
	assert.Equal(t, slot.ServiceTypeID, appt.ServiceTypeID)
	assert.Equal(t, slot.TimeSlot, appt.TimeSlot)
}

func TestAppointmentTransitions(t *testing.T) {
	tests := []struct {
		name string
		move func(*scheduling.Appointment) error
		want scheduling.AppointmentStatus
	}{
		{"complete", (*scheduling.Appointment).Complete, scheduling.StatusCompleted},
		{"cancel", (*scheduling.Appointment).Cancel, scheduling.StatusCancelled},
		{"no-show", (*scheduling.Appointment).MarkNoShow, scheduling.StatusNoShow},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appt := scheduling.ScheduleAppointment("pat-1", newTestAvailability(t))
			require.NoError(t, tt.move(appt))
			assert.Equal(t, tt.want, appt.Status)

			// every terminal state is immutable history
			assert.ErrorIs(t, appt.Complete(), scheduling.ErrInvalidTransition)
			assert.ErrorIs(t, appt.Cancel(), scheduling.ErrInvalidTransition)
			assert.ErrorIs(t, appt.MarkNoShow(), scheduling.ErrInvalidTransition)
		})
	}
}

func TestAppointmentReschedule(t *testing.T) {
	oldSlot := newTestAvailability(t)
	appt := scheduling.ScheduleAppointment("pat-1", oldSlot)

	newSlot := scheduling.NewAvailability("prov-2", "fac-2", "svc-2",
		mustSlot(t, time.Date(2026, 2, 3, 14, 0, 0, 0, time.UTC), 60))

	require.NoError(t, appt.Reschedule(newSlot))
	assert.Equal(t, scheduling.StatusScheduled, appt.Status)
	assert.Equal(t, newSlot.ID, appt.AvailabilityID)
	assert.Equal(t, "prov-2", appt.ProviderID)
	assert.Equal(t, "fac-2", appt.FacilityID)
	assert.Equal(t, "svc-2", appt.ServiceTypeID)
	assert.Equal(t, newSlot.TimeSlot, appt.TimeSlot)
}

func TestAppointmentRescheduleRejectedWhenTerminal(t *testing.T) {
	appt := scheduling.ScheduleAppointment("pat-1", newTestAvailability(t))
	require.NoError(t, appt.Complete())

	err := appt.Reschedule(newTestAvailability(t))
	assert.ErrorIs(t, err, scheduling.ErrInvalidTransition)
}

func TestInvalidTransitionErrorNamesStates(t *testing.T) {
	appt := scheduling.ScheduleAppointment("pat-1", newTestAvailability(t))
	require.NoError(t, appt.Cancel())

	err := appt.Complete()
	var transErr *scheduling.InvalidTransitionError
	require.ErrorAs(t, err, &transErr)
	assert.Equal(t, "CANCELLED", transErr.From)
	assert.Equal(t, "COMPLETED", transErr.To)
	assert.Contains(t, err.Error(), "CANCELLED")
	assert.Contains(t, err.Error(), "COMPLETED")
}
