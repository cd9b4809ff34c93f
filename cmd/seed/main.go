package main

import (
	"context"
	"log"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nucleo-health/appointments-service/internal/db"
	"github.com/nucleo-health/appointments-service/internal/scheduling"
)

const schema = `
CREATE TABLE IF NOT EXISTS availabilities (
	id uuid PRIMARY KEY,
	provider_id text NOT NULL,
	facility_id text NOT NULL,
	service_type_id text NOT NULL,
	start_time timestamptz NOT NULL,
	duration_minutes int NOT NULL,
	status text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_availabilities_provider ON availabilities (provider_id, start_time);
CREATE INDEX IF NOT EXISTS idx_availabilities_status ON availabilities (status);

CREATE TABLE IF NOT EXISTS appointments (
	id uuid PRIMARY KEY,
	patient_id text NOT NULL,
	availability_id uuid NOT NULL,
	provider_id text NOT NULL,
	facility_id text NOT NULL,
	service_type_id text NOT NULL,
	start_time timestamptz NOT NULL,
	duration_minutes int NOT NULL,
	status text NOT NULL,
	created_at timestamptz NOT NULL DEFAULT now(),
	updated_at timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS idx_appointments_patient ON appointments (patient_id);
CREATE INDEX IF NOT EXISTS idx_appointments_availability ON appointments (availability_id, status);
`

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	log.Println("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, dsn)
	if err != nil {
		log.Fatalf("connect postgres: %v", err)
	}
	defer pool.Close()

	if _, err := pool.Exec(context.Background(), schema); err != nil {
		log.Fatalf("create schema: %v", err)
	}
	log.Println("schema ready")

	gofakeit.Seed(time.Now().UnixNano())

	if err := seedAvailabilities(context.Background(), pool, 50, 14); err != nil {
		log.Fatalf("seed availabilities: %v", err)
	}

	log.Println("seed complete")
}

// seedAvailabilities offers sequential half-hour slots per provider, so
// nothing seeded can violate the overlap invariant.
func seedAvailabilities(ctx context.Context, pool *pgxpool.Pool, providers, days int) error {
	log.Printf("seeding availabilities for %d providers over %d days", providers, days)

	facilities := make([]string, 5)
	for i := range facilities {
		facilities[i] = "fac-" + gofakeit.LetterN(8)
	}
	serviceTypes := []string{"svc-consultation", "svc-follow-up", "svc-checkup", "svc-vaccination"}

	start := time.Now().UTC().Truncate(24 * time.Hour).Add(24 * time.Hour)
	total := 0

	for p := 0; p < providers; p++ {
		providerID := "prov-" + gofakeit.LetterN(8)
		facilityID := facilities[gofakeit.Number(0, len(facilities)-1)]

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for d := 0; d < days; d++ {
			day := start.AddDate(0, 0, d)
			// 09:00 to 17:00, 30 minute slots
			for h := 0; h < 16; h++ {
				slotStart := day.Add(9*time.Hour + time.Duration(h)*30*time.Minute)
				slot, err := scheduling.NewTimeSlot(slotStart, 30)
				if err != nil {
					_ = tx.Rollback(ctx)
					return err
				}

				avail := scheduling.NewAvailability(
					providerID,
					facilityID,
					serviceTypes[gofakeit.Number(0, len(serviceTypes)-1)],
					slot,
				)

				_, err = tx.Exec(ctx, `
					INSERT INTO availabilities (id, provider_id, facility_id, service_type_id, start_time, duration_minutes, status, created_at, updated_at)
					VALUES ($1, $2, $3, $4, $5, $6, $7, now(), now())
				`, avail.ID, avail.ProviderID, avail.FacilityID, avail.ServiceTypeID, avail.TimeSlot.Start, avail.TimeSlot.DurationMinutes, string(avail.Status))
				if err != nil {
					_ = tx.Rollback(ctx)
					return err
				}
				total++
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}

	log.Printf("availabilities seeded: %d", total)
	return nil
}
