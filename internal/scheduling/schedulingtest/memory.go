// Package schedulingtest provides in-memory store and locker
// implementations for exercising the coordinator and the API layer
// without Postgres or Redis.
package schedulingtest

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/nucleo-health/appointments-service/internal/scheduling"
)

type MemorySlotStore struct {
	mu    sync.Mutex
	slots map[uuid.UUID]scheduling.Availability
}

func NewMemorySlotStore() *MemorySlotStore {
	return &MemorySlotStore{slots: make(map[uuid.UUID]scheduling.Availability)}
}

func (s *MemorySlotStore) Save(_ context.Context, a *scheduling.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.slots[a.ID] = *a
	return nil
}

func (s *MemorySlotStore) FindByID(_ context.Context, id uuid.UUID) (*scheduling.Availability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.slots[id]
	if !ok {
		return nil, scheduling.ErrAvailabilityNotFound
	}
	copied := a
	return &copied, nil
}

func (s *MemorySlotStore) FindByFilters(_ context.Context, f scheduling.SlotFilters) ([]scheduling.Availability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []scheduling.Availability
	for _, a := range s.slots {
		if f.ProviderID != nil && a.ProviderID != *f.ProviderID {
			continue
		}
		if f.FacilityID != nil && a.FacilityID != *f.FacilityID {
			continue
		}
		if f.ServiceTypeID != nil && a.ServiceTypeID != *f.ServiceTypeID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (s *MemorySlotStore) Update(_ context.Context, a *scheduling.Availability) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.slots[a.ID]; !ok {
		return scheduling.ErrAvailabilityNotFound
	}
	s.slots[a.ID] = *a
	return nil
}

func (s *MemorySlotStore) CheckOverlap(_ context.Context, providerID string, slot scheduling.TimeSlot, excludeID *uuid.UUID) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.slots {
		if a.ProviderID != providerID || a.Status == scheduling.SlotCancelled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		if a.TimeSlot.Overlaps(slot) {
			return true, nil
		}
	}
	return false, nil
}

// TransitionStatus performs the conditional write under the store mutex,
// matching the exactly-one-winner guarantee of the Postgres implementation.
func (s *MemorySlotStore) TransitionStatus(_ context.Context, id uuid.UUID, from, to scheduling.SlotStatus) (*scheduling.Availability, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.slots[id]
	if !ok || a.Status != from {
		return nil, scheduling.ErrStatusConflict
	}
	a.Status = to
	s.slots[id] = a
	copied := a
	return &copied, nil
}

type MemoryBookingStore struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]scheduling.Appointment
}

func NewMemoryBookingStore() *MemoryBookingStore {
	return &MemoryBookingStore{appointments: make(map[uuid.UUID]scheduling.Appointment)}
}

func (s *MemoryBookingStore) Save(_ context.Context, a *scheduling.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.appointments[a.ID] = *a
	return nil
}

func (s *MemoryBookingStore) FindByID(_ context.Context, id uuid.UUID) (*scheduling.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.appointments[id]
	if !ok {
		return nil, scheduling.ErrAppointmentNotFound
	}
	copied := a
	return &copied, nil
}

func (s *MemoryBookingStore) FindByFilters(_ context.Context, f scheduling.AppointmentFilters) ([]scheduling.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var result []scheduling.Appointment
	for _, a := range s.appointments {
		if f.PatientID != nil && a.PatientID != *f.PatientID {
			continue
		}
		if f.ProviderID != nil && a.ProviderID != *f.ProviderID {
			continue
		}
		if f.Status != nil && a.Status != *f.Status {
			continue
		}
		result = append(result, a)
	}
	return result, nil
}

func (s *MemoryBookingStore) Update(_ context.Context, a *scheduling.Appointment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.appointments[a.ID]; !ok {
		return scheduling.ErrAppointmentNotFound
	}
	s.appointments[a.ID] = *a
	return nil
}

func (s *MemoryBookingStore) FindActiveBySlot(_ context.Context, availabilityID uuid.UUID) (*scheduling.Appointment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, a := range s.appointments {
		if a.AvailabilityID == availabilityID && a.Status == scheduling.StatusScheduled {
			copied := a
			return &copied, nil
		}
	}
	return nil, scheduling.ErrAppointmentNotFound
}

// LocalLocker serializes provider sections with an in-process mutex.
type LocalLocker struct {
	mu sync.Mutex
}

func NewLocalLocker() *LocalLocker {
	return &LocalLocker{}
}

func (l *LocalLocker) WithProviderLock(ctx context.Context, _ string, fn func(ctx context.Context) error) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return fn(ctx)
}
