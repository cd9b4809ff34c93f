package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/nucleo-health/appointments-service/internal/scheduling"
)

func createAppointmentHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "could not parse JSON")
			return
		}

		if req.PatientID == "" {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "patientId is required")
			return
		}

		availabilityID, err := uuid.Parse(req.AvailabilityID)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "availabilityId must be a valid UUID")
			return
		}

		appt, err := coord.CreateAppointment(r.Context(), req.PatientID, availabilityID)
		if err != nil {
			handleCreateAppointmentError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
	}
}

func getAppointmentHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be a valid UUID")
			return
		}

		appt, err := coord.GetAppointment(r.Context(), id)
		if err != nil {
			handleAppointmentError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func listAppointmentsHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters scheduling.AppointmentFilters

		if v := r.URL.Query().Get("patientId"); v != "" {
			filters.PatientID = &v
		}
		if v := r.URL.Query().Get("providerId"); v != "" {
			filters.ProviderID = &v
		}
		if v := r.URL.Query().Get("status"); v != "" {
			status := scheduling.AppointmentStatus(v)
			if !status.IsValid() {
				writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown appointment status")
				return
			}
			filters.Status = &status
		}

		appts, err := coord.ListAppointments(r.Context(), filters)
		if err != nil {
			handleAppointmentError(w, logger, err)
			return
		}

		resp := make([]AppointmentResponse, 0, len(appts))
		for i := range appts {
			resp = append(resp, toAppointmentResponse(&appts[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

// updateAppointmentHandler serves both status changes and reschedules; the
// request must carry exactly one of status or availabilityId.
func updateAppointmentHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be a valid UUID")
			return
		}

		var req UpdateAppointmentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "could not parse JSON")
			return
		}

		if (req.Status == nil) == (req.AvailabilityID == nil) {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "provide either status or availabilityId")
			return
		}

		var appt *scheduling.Appointment
		if req.Status != nil {
			switch scheduling.AppointmentStatus(*req.Status) {
			case scheduling.StatusCompleted:
				appt, err = coord.CompleteAppointment(r.Context(), id)
			case scheduling.StatusCancelled:
				appt, err = coord.CancelAppointment(r.Context(), id)
			case scheduling.StatusNoShow:
				appt, err = coord.MarkAppointmentNoShow(r.Context(), id)
			default:
				writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "status must be COMPLETED, CANCELLED or NO_SHOW")
				return
			}
		} else {
			newID, parseErr := uuid.Parse(*req.AvailabilityID)
			if parseErr != nil {
				writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "availabilityId must be a valid UUID")
				return
			}
			appt, err = coord.RescheduleAppointment(r.Context(), id, newID)
		}

		if err != nil {
			handleAppointmentError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
	}
}

func cancelAppointmentHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be a valid UUID")
			return
		}

		if _, err := coord.CancelAppointment(r.Context(), id); err != nil {
			handleAppointmentError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleCreateAppointmentError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, scheduling.ErrAvailabilityNotFound):
		writeError(w, http.StatusNotFound, "AVAILABILITY_NOT_FOUND", "availability not found")
	case errors.Is(err, scheduling.ErrSlotNotAvailable):
		writeError(w, http.StatusBadRequest, "AVAILABILITY_NOT_AVAILABLE", err.Error())
	default:
		logger.Error().Err(err).Msg("create appointment failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}

func handleAppointmentError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, scheduling.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "appointment not found")
	case errors.Is(err, scheduling.ErrAvailabilityNotFound):
		writeError(w, http.StatusNotFound, "AVAILABILITY_NOT_FOUND", "availability not found")
	case errors.Is(err, scheduling.ErrSlotNotAvailable):
		writeError(w, http.StatusBadRequest, "AVAILABILITY_NOT_AVAILABLE", err.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", err.Error())
	default:
		logger.Error().Err(err).Msg("appointment request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
