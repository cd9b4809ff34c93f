package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const appointmentColumns = `id, patient_id, availability_id, provider_id, facility_id, service_type_id, start_time, duration_minutes, status, created_at, updated_at`

type PgBookingStore struct {
	pool *pgxpool.Pool
}

func NewPgBookingStore(pool *pgxpool.Pool) *PgBookingStore {
	return &PgBookingStore{pool: pool}
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var status string

	err := row.Scan(
		&a.ID,
		&a.PatientID,
		&a.AvailabilityID,
		&a.ProviderID,
		&a.FacilityID,
		&a.ServiceTypeID,
		&a.TimeSlot.Start,
		&a.TimeSlot.DurationMinutes,
		&status,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}

	a.Status = AppointmentStatus(status)
	return &a, nil
}

func (s *PgBookingStore) Save(ctx context.Context, a *Appointment) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO appointments (id, patient_id, availability_id, provider_id, facility_id, service_type_id, start_time, duration_minutes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`, a.ID, a.PatientID, a.AvailabilityID, a.ProviderID, a.FacilityID, a.ServiceTypeID, a.TimeSlot.Start, a.TimeSlot.DurationMinutes, string(a.Status), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (s *PgBookingStore) FindByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE id = $1
	`, id)
	return scanAppointment(row)
}

func (s *PgBookingStore) FindByFilters(ctx context.Context, f AppointmentFilters) ([]Appointment, error) {
	query := `SELECT ` + appointmentColumns + ` FROM appointments WHERE 1=1`
	args := []any{}

	if f.PatientID != nil {
		args = append(args, *f.PatientID)
		query += fmt.Sprintf(" AND patient_id = $%d", len(args))
	}
	if f.ProviderID != nil {
		args = append(args, *f.ProviderID)
		query += fmt.Sprintf(" AND provider_id = $%d", len(args))
	}
	if f.Status != nil {
		args = append(args, string(*f.Status))
		query += fmt.Sprintf(" AND status = $%d", len(args))
	}
	query += " ORDER BY start_time"

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return result, nil
}

func (s *PgBookingStore) Update(ctx context.Context, a *Appointment) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE appointments
		SET availability_id = $2,
		    provider_id = $3,
		    facility_id = $4,
		    service_type_id = $5,
		    start_time = $6,
		    duration_minutes = $7,
		    status = $8,
		    updated_at = $9
		WHERE id = $1
	`, a.ID, a.AvailabilityID, a.ProviderID, a.FacilityID, a.ServiceTypeID, a.TimeSlot.Start, a.TimeSlot.DurationMinutes, string(a.Status), a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update appointment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAppointmentNotFound
	}
	return nil
}

func (s *PgBookingStore) FindActiveBySlot(ctx context.Context, availabilityID uuid.UUID) (*Appointment, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+appointmentColumns+`
		FROM appointments
		WHERE availability_id = $1
		  AND status = 'SCHEDULED'
	`, availabilityID)
	return scanAppointment(row)
}
