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

func createAvailabilityHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CreateAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "could not parse JSON")
			return
		}

		if req.ProviderID == "" || req.FacilityID == "" || req.ServiceTypeID == "" || req.TimeSlot == nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "providerId, facilityId, serviceTypeId and timeSlot are required")
			return
		}

		slot, err := scheduling.NewTimeSlot(req.TimeSlot.StartDateTime, req.TimeSlot.DurationMinutes)
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
			return
		}

		avail, err := coord.CreateAvailability(r.Context(), req.ProviderID, req.FacilityID, req.ServiceTypeID, slot)
		if err != nil {
			handleAvailabilityError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusCreated, toAvailabilityResponse(avail))
	}
}

func getAvailabilityHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be a valid UUID")
			return
		}

		avail, err := coord.GetAvailability(r.Context(), id)
		if err != nil {
			handleAvailabilityError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponse(avail))
	}
}

func listAvailabilitiesHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var filters scheduling.SlotFilters

		if v := r.URL.Query().Get("providerId"); v != "" {
			filters.ProviderID = &v
		}
		if v := r.URL.Query().Get("facilityId"); v != "" {
			filters.FacilityID = &v
		}
		if v := r.URL.Query().Get("serviceTypeId"); v != "" {
			filters.ServiceTypeID = &v
		}
		if v := r.URL.Query().Get("status"); v != "" {
			status := scheduling.SlotStatus(v)
			if !status.IsValid() {
				writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "unknown availability status")
				return
			}
			filters.Status = &status
		}

		avails, err := coord.ListAvailabilities(r.Context(), filters)
		if err != nil {
			handleAvailabilityError(w, logger, err)
			return
		}

		resp := make([]AvailabilityResponse, 0, len(avails))
		for i := range avails {
			resp = append(resp, toAvailabilityResponse(&avails[i]))
		}
		writeJSON(w, http.StatusOK, resp)
	}
}

func updateAvailabilityHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be a valid UUID")
			return
		}

		var req UpdateAvailabilityRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "could not parse JSON")
			return
		}

		upd := scheduling.AvailabilityUpdate{
			FacilityID:    req.FacilityID,
			ServiceTypeID: req.ServiceTypeID,
		}
		if req.TimeSlot != nil {
			slot, err := scheduling.NewTimeSlot(req.TimeSlot.StartDateTime, req.TimeSlot.DurationMinutes)
			if err != nil {
				writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
				return
			}
			upd.TimeSlot = &slot
		}

		avail, err := coord.UpdateAvailability(r.Context(), id, upd)
		if err != nil {
			handleAvailabilityError(w, logger, err)
			return
		}

		writeJSON(w, http.StatusOK, toAvailabilityResponse(avail))
	}
}

func cancelAvailabilityHandler(coord *scheduling.Coordinator, logger zerolog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := uuid.Parse(chi.URLParam(r, "id"))
		if err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST", "id must be a valid UUID")
			return
		}

		if _, err := coord.CancelAvailability(r.Context(), id); err != nil {
			handleAvailabilityError(w, logger, err)
			return
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

func handleAvailabilityError(w http.ResponseWriter, logger zerolog.Logger, err error) {
	switch {
	case errors.Is(err, scheduling.ErrAvailabilityNotFound):
		writeError(w, http.StatusNotFound, "NOT_FOUND", "availability not found")
	case errors.Is(err, scheduling.ErrOverlap):
		writeError(w, http.StatusConflict, "OVERLAP_ERROR", err.Error())
	case errors.Is(err, scheduling.ErrProviderBusy):
		writeError(w, http.StatusConflict, "PROVIDER_BUSY", err.Error())
	case errors.Is(err, scheduling.ErrInvalidTransition):
		writeError(w, http.StatusBadRequest, "INVALID_STATUS_TRANSITION", err.Error())
	case errors.Is(err, scheduling.ErrInvalidTimeSlot):
		writeError(w, http.StatusBadRequest, "INVALID_REQUEST", err.Error())
	default:
		logger.Error().Err(err).Msg("availability request failed")
		writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
	}
}
