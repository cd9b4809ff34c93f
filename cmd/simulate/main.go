package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/nucleo-health/appointments-service/internal/db"
)

// simulate fires concurrent booking attempts at AVAILABLE slots and checks
// the exactly-once property: for every slot, one 201 and the rest 400.
type simConfig struct {
	APIBaseURL  string
	PostgresDSN string
	Workers     int
	SlotLimit   int
}

type results struct {
	scheduled int64
	conflicts int64
	errors    int64
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := simConfig{
		APIBaseURL:  getEnv("API_BASE_URL", "http://127.0.0.1:8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),
		Workers:     getEnvInt("SIM_WORKERS", 8),
		SlotLimit:   getEnvInt("SIM_SLOT_LIMIT", 50),
	}
	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	slots, err := loadOpenSlots(ctx, cfg)
	if err != nil {
		log.Fatalf("load slots: %v", err)
	}
	if len(slots) == 0 {
		log.Fatal("no AVAILABLE slots found, run cmd/seed first")
	}
	log.Printf("racing %d workers over %d slots", cfg.Workers, len(slots))

	client := &http.Client{Timeout: 10 * time.Second}
	var res results
	badSlots := 0

	for _, slotID := range slots {
		var wg sync.WaitGroup
		var wins int64

		for w := 0; w < cfg.Workers; w++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				status, err := bookSlot(ctx, client, cfg.APIBaseURL, slotID, fmt.Sprintf("sim-patient-%d", worker))
				switch {
				case err != nil:
					atomic.AddInt64(&res.errors, 1)
				case status == http.StatusCreated:
					atomic.AddInt64(&wins, 1)
					atomic.AddInt64(&res.scheduled, 1)
				case status == http.StatusBadRequest:
					atomic.AddInt64(&res.conflicts, 1)
				default:
					atomic.AddInt64(&res.errors, 1)
				}
			}(w)
		}
		wg.Wait()

		if wins != 1 {
			badSlots++
			log.Printf("INVARIANT VIOLATION: slot %s booked %d times", slotID, wins)
		}
	}

	log.Printf("done: scheduled=%d conflicts=%d errors=%d", res.scheduled, res.conflicts, res.errors)
	if badSlots > 0 {
		log.Fatalf("%d slots violated the exactly-once booking property", badSlots)
	}
	log.Println("exactly-once booking property held for every slot")
}

func loadOpenSlots(ctx context.Context, cfg simConfig) ([]uuid.UUID, error) {
	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	defer pool.Close()

	rows, err := pool.Query(ctx, `
		SELECT id FROM availabilities
		WHERE status = 'AVAILABLE'
		ORDER BY start_time
		LIMIT $1
	`, cfg.SlotLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func bookSlot(ctx context.Context, client *http.Client, baseURL string, slotID uuid.UUID, patientID string) (int, error) {
	body, err := json.Marshal(map[string]string{
		"patientId":      patientID,
		"availabilityId": slotID.String(),
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/appointments", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	return resp.StatusCode, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
