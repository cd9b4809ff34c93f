package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nucleo-health/appointments-service/internal/metrics"
	redisclient "github.com/nucleo-health/appointments-service/internal/redis"
)

// Coordinator runs the multi-step operations that keep Availability and
// Appointment records mutually consistent. There is no transaction spanning
// the two stores: each operation is an ordered sequence of single-record
// writes, with the slot's conditional status transition as the atomic
// linchpin and explicit compensations when a later step fails.
type Coordinator struct {
	slots    SlotStore
	bookings BookingStore
	locker   redisclient.Locker
	logger   zerolog.Logger
	metrics  *metrics.Collector
}

func NewCoordinator(slots SlotStore, bookings BookingStore, locker redisclient.Locker, logger zerolog.Logger, collector *metrics.Collector) *Coordinator {
	return &Coordinator{
		slots:    slots,
		bookings: bookings,
		locker:   locker,
		logger:   logger.With().Str("component", "coordinator").Logger(),
		metrics:  collector,
	}
}

// CreateAppointment books the given availability for a patient.
//
// The appointment row is written first and is the non-authoritative side:
// if the slot's AVAILABLE->BOOKED swap then fails because a concurrent
// caller won the slot, the appointment is cancelled again and the caller
// sees ErrSlotNotAvailable.
func (c *Coordinator) CreateAppointment(ctx context.Context, patientID string, availabilityID uuid.UUID) (*Appointment, error) {
	slot, err := c.slots.FindByID(ctx, availabilityID)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}
	if slot.Status != SlotAvailable {
		c.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeConflict).Inc()
		return nil, ErrSlotNotAvailable
	}

	appt := ScheduleAppointment(patientID, slot)
	if err := c.bookings.Save(ctx, appt); err != nil {
		c.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("save appointment: %w", err)
	}

	if _, err := c.slots.TransitionStatus(ctx, slot.ID, SlotAvailable, SlotBooked); err != nil {
		c.rollbackAppointment(ctx, appt)
		if errors.Is(err, ErrStatusConflict) {
			// Another caller booked or cancelled the slot between the read
			// and the conditional write.
			c.logger.Warn().
				Stringer("availability_id", slot.ID).
				Msg("lost booking race, appointment rolled back")
			c.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeConflict).Inc()
			return nil, ErrSlotNotAvailable
		}
		c.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeError).Inc()
		return nil, fmt.Errorf("book availability: %w", err)
	}

	c.logger.Info().
		Stringer("appointment_id", appt.ID).
		Stringer("availability_id", slot.ID).
		Str("patient_id", patientID).
		Msg("appointment scheduled")
	c.metrics.BookingsTotal.WithLabelValues(metrics.OutcomeScheduled).Inc()

	return appt, nil
}

// rollbackAppointment compensates a booking whose slot swap failed. The
// cancellation is best-effort: if it fails the record stays SCHEDULED
// against a slot it never owned, which must be surfaced loudly.
func (c *Coordinator) rollbackAppointment(ctx context.Context, appt *Appointment) {
	if err := appt.Cancel(); err != nil {
		c.logger.Error().Err(err).
			Stringer("appointment_id", appt.ID).
			Msg("rollback: appointment no longer cancellable")
		return
	}
	if err := c.bookings.Update(ctx, appt); err != nil {
		c.logger.Error().Err(err).
			Stringer("appointment_id", appt.ID).
			Msg("rollback failed, appointment orphaned")
	}
}

// CancelAppointment cancels a booking and frees its slot. The appointment's
// cancellation is the authoritative outcome; a slot that cannot be freed
// (missing, already cancelled) is logged and tolerated.
func (c *Coordinator) CancelAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	appt, err := c.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}

	if err := appt.Cancel(); err != nil {
		return nil, err
	}
	if err := c.bookings.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	c.freeSlot(ctx, appt.AvailabilityID)

	c.logger.Info().Stringer("appointment_id", appt.ID).Msg("appointment cancelled")
	c.metrics.CancellationsTotal.WithLabelValues("appointment").Inc()

	return appt, nil
}

// CompleteAppointment marks a kept appointment as COMPLETED.
func (c *Coordinator) CompleteAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return c.closeAppointment(ctx, id, (*Appointment).Complete)
}

// MarkAppointmentNoShow marks a missed appointment as NO_SHOW.
func (c *Coordinator) MarkAppointmentNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return c.closeAppointment(ctx, id, (*Appointment).MarkNoShow)
}

func (c *Coordinator) closeAppointment(ctx context.Context, id uuid.UUID, move func(*Appointment) error) (*Appointment, error) {
	appt, err := c.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if err := move(appt); err != nil {
		return nil, err
	}
	if err := c.bookings.Update(ctx, appt); err != nil {
		return nil, fmt.Errorf("update appointment: %w", err)
	}
	return appt, nil
}

// RescheduleAppointment moves a SCHEDULED appointment onto a new slot.
//
// The new slot is booked before the old one is freed: the reverse order
// opens a window where a concurrent reschedule sees the old slot free
// while the move can still fail.
func (c *Coordinator) RescheduleAppointment(ctx context.Context, id, newAvailabilityID uuid.UUID) (*Appointment, error) {
	appt, err := c.bookings.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load appointment: %w", err)
	}
	if appt.Status != StatusScheduled {
		return nil, &InvalidTransitionError{Entity: "appointment", From: string(appt.Status), To: "rescheduled"}
	}

	newSlot, err := c.slots.FindByID(ctx, newAvailabilityID)
	if err != nil {
		return nil, fmt.Errorf("load new availability: %w", err)
	}
	if newSlot.Status != SlotAvailable {
		return nil, ErrSlotNotAvailable
	}

	oldSlotID := appt.AvailabilityID

	if _, err := c.slots.TransitionStatus(ctx, newSlot.ID, SlotAvailable, SlotBooked); err != nil {
		if errors.Is(err, ErrStatusConflict) {
			return nil, ErrSlotNotAvailable
		}
		return nil, fmt.Errorf("book new availability: %w", err)
	}

	if err := appt.Reschedule(newSlot); err != nil {
		c.freeSlot(ctx, newSlot.ID)
		return nil, err
	}
	if err := c.bookings.Update(ctx, appt); err != nil {
		c.freeSlot(ctx, newSlot.ID)
		return nil, fmt.Errorf("update appointment: %w", err)
	}

	c.freeSlot(ctx, oldSlotID)

	c.logger.Info().
		Stringer("appointment_id", appt.ID).
		Stringer("old_availability_id", oldSlotID).
		Stringer("new_availability_id", newSlot.ID).
		Msg("appointment rescheduled")

	return appt, nil
}

// freeSlot returns a BOOKED slot to AVAILABLE, best-effort.
func (c *Coordinator) freeSlot(ctx context.Context, slotID uuid.UUID) {
	if _, err := c.slots.TransitionStatus(ctx, slotID, SlotBooked, SlotAvailable); err != nil {
		c.logger.Warn().Err(err).
			Stringer("availability_id", slotID).
			Msg("could not free availability")
	}
}

// CreateAvailability offers a new slot for a provider. The overlap check
// and the insert run under the per-provider write lock so that two
// near-simultaneous creations for the same provider cannot both pass the
// check.
func (c *Coordinator) CreateAvailability(ctx context.Context, providerID, facilityID, serviceTypeID string, slot TimeSlot) (*Availability, error) {
	avail := NewAvailability(providerID, facilityID, serviceTypeID, slot)

	err := c.locker.WithProviderLock(ctx, providerID, func(ctx context.Context) error {
		overlap, err := c.slots.CheckOverlap(ctx, providerID, slot, nil)
		if err != nil {
			return fmt.Errorf("check overlap: %w", err)
		}
		if overlap {
			return &OverlapError{ProviderID: providerID, Slot: slot}
		}
		if err := c.slots.Save(ctx, avail); err != nil {
			return fmt.Errorf("save availability: %w", err)
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrProviderBusy
		}
		if errors.Is(err, ErrOverlap) {
			c.logger.Warn().
				Str("provider_id", providerID).
				Str("time_slot", slot.String()).
				Msg("availability rejected for overlap")
			c.metrics.OverlapConflictsTotal.Inc()
		}
		return nil, err
	}

	c.logger.Info().
		Stringer("availability_id", avail.ID).
		Str("provider_id", providerID).
		Msg("availability created")
	c.metrics.SlotsCreatedTotal.Inc()

	return avail, nil
}

// UpdateAvailability changes a slot's descriptive fields. A time-range
// change re-runs the overlap check, excluding the slot itself, under the
// provider lock.
func (c *Coordinator) UpdateAvailability(ctx context.Context, id uuid.UUID, upd AvailabilityUpdate) (*Availability, error) {
	avail, err := c.slots.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	apply := func(ctx context.Context) error {
		if upd.TimeSlot != nil {
			overlap, err := c.slots.CheckOverlap(ctx, avail.ProviderID, *upd.TimeSlot, &avail.ID)
			if err != nil {
				return fmt.Errorf("check overlap: %w", err)
			}
			if overlap {
				return &OverlapError{ProviderID: avail.ProviderID, Slot: *upd.TimeSlot}
			}
		}
		if err := avail.Apply(upd); err != nil {
			return err
		}
		if err := c.slots.Update(ctx, avail); err != nil {
			return fmt.Errorf("update availability: %w", err)
		}
		return nil
	}

	if upd.TimeSlot == nil {
		err = apply(ctx)
	} else {
		err = c.locker.WithProviderLock(ctx, avail.ProviderID, apply)
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			err = ErrProviderBusy
		}
	}
	if err != nil {
		if errors.Is(err, ErrOverlap) {
			c.metrics.OverlapConflictsTotal.Inc()
		}
		return nil, err
	}

	c.logger.Info().Stringer("availability_id", avail.ID).Msg("availability updated")
	return avail, nil
}

// CancelAvailability retires a slot. If the slot was BOOKED, the dependent
// appointment is cascade-cancelled so the patient-facing record does not
// point at a dead slot; a missing dependent is logged and tolerated.
func (c *Coordinator) CancelAvailability(ctx context.Context, id uuid.UUID) (*Availability, error) {
	avail, err := c.slots.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load availability: %w", err)
	}

	wasBooked := avail.Status == SlotBooked

	if err := avail.Cancel(); err != nil {
		return nil, err
	}
	if err := c.slots.Update(ctx, avail); err != nil {
		return nil, fmt.Errorf("update availability: %w", err)
	}

	if wasBooked {
		c.cancelDependentAppointment(ctx, avail.ID)
	}

	c.logger.Info().Stringer("availability_id", avail.ID).Msg("availability cancelled")
	c.metrics.CancellationsTotal.WithLabelValues("availability").Inc()

	return avail, nil
}

func (c *Coordinator) cancelDependentAppointment(ctx context.Context, slotID uuid.UUID) {
	appt, err := c.bookings.FindActiveBySlot(ctx, slotID)
	if err != nil {
		c.logger.Warn().Err(err).
			Stringer("availability_id", slotID).
			Msg("no active appointment to cascade-cancel")
		return
	}
	if err := appt.Cancel(); err != nil {
		c.logger.Error().Err(err).
			Stringer("appointment_id", appt.ID).
			Msg("cascade-cancel: appointment not cancellable")
		return
	}
	if err := c.bookings.Update(ctx, appt); err != nil {
		c.logger.Error().Err(err).
			Stringer("appointment_id", appt.ID).
			Msg("cascade-cancel failed, appointment references cancelled slot")
		return
	}
	c.metrics.CancellationsTotal.WithLabelValues("appointment").Inc()
}

// Read paths.

func (c *Coordinator) GetAvailability(ctx context.Context, id uuid.UUID) (*Availability, error) {
	return c.slots.FindByID(ctx, id)
}

func (c *Coordinator) ListAvailabilities(ctx context.Context, f SlotFilters) ([]Availability, error) {
	return c.slots.FindByFilters(ctx, f)
}

func (c *Coordinator) GetAppointment(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return c.bookings.FindByID(ctx, id)
}

func (c *Coordinator) ListAppointments(ctx context.Context, f AppointmentFilters) ([]Appointment, error) {
	return c.bookings.FindByFilters(ctx, f)
}
