package scheduling

import (
	"fmt"
	"time"
)

const maxSlotMinutes = 1440

// TimeSlot is a half-open interval [Start, Start+Duration).
type TimeSlot struct {
	Start           time.Time
	DurationMinutes int
}

func NewTimeSlot(start time.Time, durationMinutes int) (TimeSlot, error) {
	if start.IsZero() {
		return TimeSlot{}, fmt.Errorf("%w: start time is required", ErrInvalidTimeSlot)
	}
	if durationMinutes <= 0 {
		return TimeSlot{}, fmt.Errorf("%w: duration must be positive", ErrInvalidTimeSlot)
	}
	if durationMinutes > maxSlotMinutes {
		return TimeSlot{}, fmt.Errorf("%w: duration cannot exceed %d minutes", ErrInvalidTimeSlot, maxSlotMinutes)
	}
	return TimeSlot{Start: start, DurationMinutes: durationMinutes}, nil
}

func (s TimeSlot) End() time.Time {
	return s.Start.Add(time.Duration(s.DurationMinutes) * time.Minute)
}

// Overlaps reports whether two slots share any instant. Slots that merely
// touch (one ends exactly when the other starts) do not overlap.
func (s TimeSlot) Overlaps(other TimeSlot) bool {
	return s.Start.Before(other.End()) && other.Start.Before(s.End())
}

func (s TimeSlot) String() string {
	return fmt.Sprintf("[%s, %s)", s.Start.Format(time.RFC3339), s.End().Format(time.RFC3339))
}
