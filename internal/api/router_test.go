package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nucleo-health/appointments-service/internal/api"
	"github.com/nucleo-health/appointments-service/internal/metrics"
	"github.com/nucleo-health/appointments-service/internal/scheduling"
	"github.com/nucleo-health/appointments-service/internal/scheduling/schedulingtest"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	coord := scheduling.NewCoordinator(
		schedulingtest.NewMemorySlotStore(),
		schedulingtest.NewMemoryBookingStore(),
		schedulingtest.NewLocalLocker(),
		zerolog.Nop(),
		metrics.NewCollector(prometheus.NewRegistry()),
	)
	srv := httptest.NewServer(api.NewRouter(api.RouterConfig{
		Coordinator: coord,
		Logger:      zerolog.Nop(),
		Metrics:     metrics.NewCollector(prometheus.NewRegistry()),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func doJSON(t *testing.T, method, url string, body any) (*http.Response, map[string]any) {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	if resp.StatusCode == http.StatusNoContent {
		return resp, nil
	}
	var decoded map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func availabilityPayload(providerID string, start time.Time, minutes int) map[string]any {
	return map[string]any{
		"providerId":    providerID,
		"facilityId":    "fac-1",
		"serviceTypeId": "svc-consult",
		"timeSlot": map[string]any{
			"startDateTime":   start.Format(time.RFC3339),
			"durationMinutes": minutes,
		},
	}
}

func createAvailability(t *testing.T, srv *httptest.Server, providerID string, start time.Time, minutes int) string {
	t.Helper()
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/availabilities", availabilityPayload(providerID, start, minutes))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id, _ := body["availabilityId"].(string)
	require.NotEmpty(t, id)
	return id
}

var slotStart = time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)

func TestCreateAvailabilityEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/availabilities", availabilityPayload("prov-1", slotStart, 30))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "prov-1", body["providerId"])
	assert.Equal(t, "AVAILABLE", body["status"])

	slot, ok := body["timeSlot"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(30), slot["durationMinutes"])
}

func TestCreateAvailabilityOverlapEndpoint(t *testing.T) {
	srv := newTestServer(t)
	createAvailability(t, srv, "prov-1", slotStart, 30)

	// [09:15, 09:45) collides with [09:00, 09:30)
	resp, body := doJSON(t, http.MethodPost, srv.URL+"/availabilities",
		availabilityPayload("prov-1", slotStart.Add(15*time.Minute), 30))
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "OVERLAP_ERROR", body["code"])

	// [09:30, 10:00) only touches
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/availabilities",
		availabilityPayload("prov-1", slotStart.Add(30*time.Minute), 30))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)

	// other providers are unaffected
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/availabilities",
		availabilityPayload("prov-2", slotStart, 30))
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCreateAvailabilityValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/availabilities", map[string]any{
		"providerId": "prov-1",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	resp, body = doJSON(t, http.MethodPost, srv.URL+"/availabilities",
		availabilityPayload("prov-1", slotStart, 0))
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestListAvailabilitiesByProvider(t *testing.T) {
	srv := newTestServer(t)
	createAvailability(t, srv, "prov-1", slotStart, 30)
	createAvailability(t, srv, "prov-1", slotStart.Add(time.Hour), 30)
	createAvailability(t, srv, "prov-2", slotStart, 30)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/availabilities?providerId=prov-1", nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var listed []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&listed))
	assert.Len(t, listed, 2)
}

func TestUpdateAvailabilityEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createAvailability(t, srv, "prov-1", slotStart, 30)
	createAvailability(t, srv, "prov-1", slotStart.Add(time.Hour), 30)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/availabilities/"+id, map[string]any{
		"facilityId": "fac-2",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "fac-2", body["facilityId"])

	// moving onto the sibling slot is rejected
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/availabilities/"+id, map[string]any{
		"timeSlot": map[string]any{
			"startDateTime":   slotStart.Add(time.Hour).Format(time.RFC3339),
			"durationMinutes": 30,
		},
	})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	assert.Equal(t, "OVERLAP_ERROR", body["code"])

	// re-asserting its own range succeeds
	resp, _ = doJSON(t, http.MethodPut, srv.URL+"/availabilities/"+id, map[string]any{
		"timeSlot": map[string]any{
			"startDateTime":   slotStart.Format(time.RFC3339),
			"durationMinutes": 45,
		},
	})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestCancelAvailabilityEndpoint(t *testing.T) {
	srv := newTestServer(t)
	id := createAvailability(t, srv, "prov-1", slotStart, 30)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/availabilities/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/availabilities/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "CANCELLED", body["status"])
}

func TestAvailabilityNotFound(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodGet, srv.URL+"/availabilities/6e2b1a90-7c3f-4a8e-9b21-3f5d8c1e0a42", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "NOT_FOUND", body["code"])

	resp, body = doJSON(t, http.MethodGet, srv.URL+"/availabilities/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestCreateAppointmentEndpoint(t *testing.T) {
	srv := newTestServer(t)
	slotID := createAvailability(t, srv, "prov-1", slotStart, 30)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
		"patientId":      "pat-1",
		"availabilityId": slotID,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "SCHEDULED", body["status"])
	assert.Equal(t, "pat-1", body["patientId"])
	assert.Equal(t, slotID, body["availabilityId"])
	assert.Equal(t, "prov-1", body["providerId"])

	// the slot is taken now
	resp, body = doJSON(t, http.MethodGet, srv.URL+"/availabilities/"+slotID, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "BOOKED", body["status"])

	// second booking attempt loses
	resp, body = doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
		"patientId":      "pat-2",
		"availabilityId": slotID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "AVAILABILITY_NOT_AVAILABLE", body["code"])
}

func TestCreateAppointmentUnknownSlot(t *testing.T) {
	srv := newTestServer(t)

	resp, body := doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
		"patientId":      "pat-1",
		"availabilityId": "6e2b1a90-7c3f-4a8e-9b21-3f5d8c1e0a42",
	})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, "AVAILABILITY_NOT_FOUND", body["code"])
}

func TestUpdateAppointmentStatusEndpoint(t *testing.T) {
	srv := newTestServer(t)
	slotID := createAvailability(t, srv, "prov-1", slotStart, 30)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
		"patientId":      "pat-1",
		"availabilityId": slotID,
	})
	apptID, _ := created["appointmentId"].(string)
	require.NotEmpty(t, apptID)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/appointments/"+apptID, map[string]any{
		"status": "COMPLETED",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "COMPLETED", body["status"])

	// completed visits stay completed
	resp, body = doJSON(t, http.MethodPut, srv.URL+"/appointments/"+apptID, map[string]any{
		"status": "CANCELLED",
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_STATUS_TRANSITION", body["code"])
}

func TestUpdateAppointmentRequiresExactlyOneField(t *testing.T) {
	srv := newTestServer(t)
	slotID := createAvailability(t, srv, "prov-1", slotStart, 30)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
		"patientId":      "pat-1",
		"availabilityId": slotID,
	})
	apptID, _ := created["appointmentId"].(string)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/appointments/"+apptID, map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", body["code"])

	resp, body = doJSON(t, http.MethodPut, srv.URL+"/appointments/"+apptID, map[string]any{
		"status":         "CANCELLED",
		"availabilityId": slotID,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "INVALID_REQUEST", body["code"])
}

func TestRescheduleAppointmentEndpoint(t *testing.T) {
	srv := newTestServer(t)
	oldSlot := createAvailability(t, srv, "prov-1", slotStart, 30)
	newSlot := createAvailability(t, srv, "prov-2", slotStart.Add(2*time.Hour), 60)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
		"patientId":      "pat-1",
		"availabilityId": oldSlot,
	})
	apptID, _ := created["appointmentId"].(string)

	resp, body := doJSON(t, http.MethodPut, srv.URL+"/appointments/"+apptID, map[string]any{
		"availabilityId": newSlot,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "SCHEDULED", body["status"])
	assert.Equal(t, newSlot, body["availabilityId"])
	assert.Equal(t, "prov-2", body["providerId"])

	_, body = doJSON(t, http.MethodGet, srv.URL+"/availabilities/"+oldSlot, nil)
	assert.Equal(t, "AVAILABLE", body["status"])
	_, body = doJSON(t, http.MethodGet, srv.URL+"/availabilities/"+newSlot, nil)
	assert.Equal(t, "BOOKED", body["status"])
}

func TestCancelAppointmentFreesSlotEndpoint(t *testing.T) {
	srv := newTestServer(t)
	slotID := createAvailability(t, srv, "prov-1", slotStart, 30)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
		"patientId":      "pat-1",
		"availabilityId": slotID,
	})
	apptID, _ := created["appointmentId"].(string)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/appointments/"+apptID, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body := doJSON(t, http.MethodGet, srv.URL+"/availabilities/"+slotID, nil)
	assert.Equal(t, "AVAILABLE", body["status"])

	// the freed slot can be rebooked
	resp, _ = doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
		"patientId":      "pat-2",
		"availabilityId": slotID,
	})
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestCancelAvailabilityCascadesOverHTTP(t *testing.T) {
	srv := newTestServer(t)
	slotID := createAvailability(t, srv, "prov-1", slotStart, 30)

	_, created := doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
		"patientId":      "pat-1",
		"availabilityId": slotID,
	})
	apptID, _ := created["appointmentId"].(string)

	resp, _ := doJSON(t, http.MethodDelete, srv.URL+"/availabilities/"+slotID, nil)
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	_, body := doJSON(t, http.MethodGet, srv.URL+"/appointments/"+apptID, nil)
	assert.Equal(t, "CANCELLED", body["status"])
}

func TestListAppointmentsByStatus(t *testing.T) {
	srv := newTestServer(t)

	var apptIDs []string
	for i := 0; i < 3; i++ {
		slotID := createAvailability(t, srv, "prov-1", slotStart.Add(time.Duration(i)*time.Hour), 30)
		_, created := doJSON(t, http.MethodPost, srv.URL+"/appointments", map[string]any{
			"patientId":      fmt.Sprintf("pat-%d", i),
			"availabilityId": slotID,
		})
		apptIDs = append(apptIDs, created["appointmentId"].(string))
	}

	resp, _ := doJSON(t, http.MethodPut, srv.URL+"/appointments/"+apptIDs[0], map[string]any{
		"status": "COMPLETED",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/appointments?status=SCHEDULED", nil)
	require.NoError(t, err)
	listResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer listResp.Body.Close()
	require.Equal(t, http.StatusOK, listResp.StatusCode)

	var listed []map[string]any
	require.NoError(t, json.NewDecoder(listResp.Body).Decode(&listed))
	assert.Len(t, listed, 2)
}
