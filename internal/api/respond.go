package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/clinicdesk/clinic-queue-engine/internal/auth"
	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// handleDomainError maps engine errors onto HTTP responses. Every typed
// condition the engine can raise has exactly one mapping here.
func handleDomainError(w http.ResponseWriter, err error) {
	var validation *clinic.ValidationError
	var transition *clinic.InvalidTransitionError
	var denied *auth.UnauthorizedError

	switch {
	case errors.As(err, &denied):
		status := http.StatusForbidden
		if denied.Role == "" {
			status = http.StatusUnauthorized
		}
		writeError(w, status, "unauthorized", denied.Error())
	case errors.As(err, &validation):
		writeError(w, http.StatusBadRequest, "validation_error", validation.Error())
	case errors.As(err, &transition):
		writeError(w, http.StatusConflict, "invalid_transition", transition.Error())
	case errors.Is(err, clinic.ErrQueueEmpty):
		writeError(w, http.StatusNotFound, "queue_empty", err.Error())
	case errors.Is(err, clinic.ErrRecordRequired):
		writeError(w, http.StatusBadRequest, "record_required", err.Error())
	case errors.Is(err, clinic.ErrAppointmentNotInProgress):
		writeError(w, http.StatusConflict, "appointment_not_in_progress", err.Error())
	case errors.Is(err, clinic.ErrShiftFull):
		writeError(w, http.StatusConflict, "shift_full", err.Error())
	case errors.Is(err, clinic.ErrPartitionBusy), errors.Is(err, clinic.ErrLockNotAcquired):
		writeError(w, http.StatusConflict, "queue_busy", "queue partition is busy, please retry shortly")
	case errors.Is(err, clinic.ErrPatientNotFound):
		writeError(w, http.StatusNotFound, "patient_not_found", err.Error())
	case errors.Is(err, clinic.ErrDepartmentNotFound):
		writeError(w, http.StatusNotFound, "department_not_found", err.Error())
	case errors.Is(err, clinic.ErrClinicNotFound):
		writeError(w, http.StatusNotFound, "clinic_not_found", err.Error())
	case errors.Is(err, clinic.ErrShiftNotFound):
		writeError(w, http.StatusNotFound, "shift_not_found", err.Error())
	case errors.Is(err, clinic.ErrDoctorNotFound):
		writeError(w, http.StatusNotFound, "doctor_not_found", err.Error())
	case errors.Is(err, clinic.ErrAppointmentNotFound):
		writeError(w, http.StatusNotFound, "appointment_not_found", err.Error())
	case errors.Is(err, clinic.ErrDoctorShiftNotFound):
		writeError(w, http.StatusNotFound, "doctor_shift_not_found", err.Error())
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeError(w, http.StatusUnauthorized, "invalid_credentials", err.Error())
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
	}
}
