package scheduling_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleo-health/appointments-service/internal/scheduling"
)

func mustSlot(t *testing.T, start time.Time, minutes int) scheduling.TimeSlot {
	t.Helper()
	slot, err := scheduling.NewTimeSlot(start, minutes)
	require.NoError(t, err)
	return slot
}

func TestNewTimeSlotValidation(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	_, err := scheduling.NewTimeSlot(time.Time{}, 30)
	assert.ErrorIs(t, err, scheduling.ErrInvalidTimeSlot)

	_, err = scheduling.NewTimeSlot(base, 0)
	assert.ErrorIs(t, err, scheduling.ErrInvalidTimeSlot)

	_, err = scheduling.NewTimeSlot(base, -15)
	assert.ErrorIs(t, err, scheduling.ErrInvalidTimeSlot)

	_, err = scheduling.NewTimeSlot(base, 1441)
	assert.ErrorIs(t, err, scheduling.ErrInvalidTimeSlot)

	slot, err := scheduling.NewTimeSlot(base, 1440)
	require.NoError(t, err)
	assert.Equal(t, base.AddDate(0, 0, 1), slot.End())
}

func TestOverlaps(t *testing.T) {
	base := time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		a    scheduling.TimeSlot
		b    scheduling.TimeSlot
		want bool
	}{
		{
			name: "identical slots overlap",
			a:    mustSlot(t, base, 30),
			b:    mustSlot(t, base, 30),
			want: true,
		},
		{
			name: "partial overlap",
			a:    mustSlot(t, base, 30),
			b:    mustSlot(t, base.Add(15*time.Minute), 30),
			want: true,
		},
		{
			name: "containment",
			a:    mustSlot(t, base, 60),
			b:    mustSlot(t, base.Add(15*time.Minute), 15),
			want: true,
		},
		{
			name: "adjacent slots do not overlap",
			a:    mustSlot(t, base, 30),
			b:    mustSlot(t, base.Add(30*time.Minute), 30),
			want: false,
		},
		{
			name: "disjoint slots",
			a:    mustSlot(t, base, 30),
			b:    mustSlot(t, base.Add(2*time.Hour), 30),
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.a.Overlaps(tt.b))
			// symmetry
			assert.Equal(t, tt.want, tt.b.Overlaps(tt.a))
		})
	}
}
