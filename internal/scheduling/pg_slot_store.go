package scheduling

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const availabilityColumns = `id, provider_id, facility_id, service_type_id, start_time, duration_minutes, status, created_at, updated_at`

type PgSlotStore struct {
	pool *pgxpool.Pool
}

func NewPgSlotStore(pool *pgxpool.Pool) *PgSlotStore {
	return &PgSlotStore{pool: pool}
}

func scanAvailability(row pgx.Row) (*Availability, error) {
	var a Availability
	var status string

	err := row.Scan(
		&a.ID,
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
			return nil, ErrAvailabilityNotFound
		}
		return nil, err
	}

	a.Status = SlotStatus(status)
	return &a, nil
}

func (s *PgSlotStore) Save(ctx context.Context, a *Availability) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO availabilities (id, provider_id, facility_id, service_type_id, start_time, duration_minutes, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, a.ID, a.ProviderID, a.FacilityID, a.ServiceTypeID, a.TimeSlot.Start, a.TimeSlot.DurationMinutes, string(a.Status), a.CreatedAt, a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert availability: %w", err)
	}
	return nil
}

func (s *PgSlotStore) FindByID(ctx context.Context, id uuid.UUID) (*Availability, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+availabilityColumns+`
		FROM availabilities
		WHERE id = $1
	`, id)
	return scanAvailability(row)
}

func (s *PgSlotStore) FindByFilters(ctx context.Context, f SlotFilters) ([]Availability, error) {
	query := `SELECT ` + availabilityColumns + ` FROM availabilities WHERE 1=1`
	args := []any{}

	if f.ProviderID != nil {
		args = append(args, *f.ProviderID)
		query += fmt.Sprintf(" AND provider_id = $%d", len(args))
	}
	if f.FacilityID != nil {
		args = append(args, *f.FacilityID)
		query += fmt.Sprintf(" AND facility_id = $%d", len(args))
	}
	if f.ServiceTypeID != nil {
		args = append(args, *f.ServiceTypeID)
		query += fmt.Sprintf(" AND service_type_id = $%d", len(args))
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

	var result []Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
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

func (s *PgSlotStore) Update(ctx context.Context, a *Availability) error {
	tag, err := s.pool.Exec(ctx, `
		UPDATE availabilities
		SET facility_id = $2,
		    service_type_id = $3,
		    start_time = $4,
		    duration_minutes = $5,
		    status = $6,
		    updated_at = $7
		WHERE id = $1
	`, a.ID, a.FacilityID, a.ServiceTypeID, a.TimeSlot.Start, a.TimeSlot.DurationMinutes, string(a.Status), a.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update availability: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrAvailabilityNotFound
	}
	return nil
}

// CheckOverlap tests the candidate range against the provider's
// non-cancelled slots using half-open interval semantics; touching ranges
// do not count.
func (s *PgSlotStore) CheckOverlap(ctx context.Context, providerID string, slot TimeSlot, excludeID *uuid.UUID) (bool, error) {
	var exists bool

	err := s.pool.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1
			FROM availabilities
			WHERE provider_id = $1
			  AND status <> 'CANCELLED'
			  AND start_time < $3
			  AND start_time + make_interval(mins => duration_minutes) > $2
			  AND ($4::uuid IS NULL OR id <> $4)
		)
	`, providerID, slot.Start, slot.End(), excludeID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check overlap: %w", err)
	}

	return exists, nil
}

// TransitionStatus is the compare-and-swap on slot status: the write only
// lands if the stored status still equals from, and exactly one concurrent
// caller can win it.
func (s *PgSlotStore) TransitionStatus(ctx context.Context, id uuid.UUID, from, to SlotStatus) (*Availability, error) {
	row := s.pool.QueryRow(ctx, `
		UPDATE availabilities
		SET status = $2,
		    updated_at = now()
		WHERE id = $1
		  AND status = $3
		RETURNING `+availabilityColumns+`
	`, id, string(to), string(from))

	a, err := scanAvailability(row)
	if err != nil {
		if errors.Is(err, ErrAvailabilityNotFound) {
			return nil, ErrStatusConflict
		}
		return nil, err
	}
	return a, nil
}
