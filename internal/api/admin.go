package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/clinicdesk/clinic-queue-engine/internal/auth"
	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

// AdminHandlers expose the reference-table management operations:
// creating departments, doctors, shifts, and shift assignments, and
// toggling their active flags. All of them require OpManageDirectory.
type AdminHandlers struct {
	engine *clinic.Service
}

func NewAdminHandlers(engine *clinic.Service) *AdminHandlers {
	return &AdminHandlers{engine: engine}
}

type CreateDepartmentRequest struct {
	Name     string `json:"name"`
	Location string `json:"location,omitempty"`
}

type CreateDoctorRequest struct {
	FullName      string `json:"full_name"`
	SpecialtyID   string `json:"specialty_id"`
	LicenseNumber string `json:"license_number,omitempty"`
}

type SetDoctorStatusRequest struct {
	Status clinic.DoctorStatus `json:"status"`
}

type CreateShiftRequest struct {
	ClinicID    string           `json:"clinic_id"`
	Type        clinic.ShiftType `json:"type"`
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	DayOfWeek   clinic.DayOfWeek `json:"day_of_week"`
	MaxPatients int              `json:"max_patients"`
}

type AssignDoctorShiftRequest struct {
	DoctorID string `json:"doctor_id"`
	ShiftID  string `json:"shift_id"`
}

type ToggleRequest struct {
	IsActive bool `json:"is_active"`
}

func (a *AdminHandlers) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := authorize(r, auth.OpManageDirectory, nil); err != nil {
		handleDomainError(w, err)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return false
	}
	return true
}

func (a *AdminHandlers) createDepartment(w http.ResponseWriter, r *http.Request) {
	var req CreateDepartmentRequest
	if !a.decode(w, r, &req) {
		return
	}
	dept, err := a.engine.CreateDepartment(r.Context(), clinic.DepartmentInput{
		Name:     req.Name,
		Location: req.Location,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DepartmentResponse{
		ID: dept.ID, Name: dept.Name, Location: dept.Location, IsActive: dept.IsActive,
	})
}

func (a *AdminHandlers) toggleDepartment(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !a.decode(w, r, &req) {
		return
	}
	id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	dept, err := a.engine.SetDepartmentActive(r.Context(), id, req.IsActive)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DepartmentResponse{
		ID: dept.ID, Name: dept.Name, Location: dept.Location, IsActive: dept.IsActive,
	})
}

func (a *AdminHandlers) createDoctor(w http.ResponseWriter, r *http.Request) {
	var req CreateDoctorRequest
	if !a.decode(w, r, &req) {
		return
	}
	specialtyID, err := optionalUUIDParam(req.SpecialtyID, "specialty_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	doc, err := a.engine.CreateDoctor(r.Context(), clinic.DoctorInput{
		FullName:      req.FullName,
		SpecialtyID:   specialtyID,
		LicenseNumber: req.LicenseNumber,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DoctorResponse{
		ID: doc.ID, FullName: doc.FullName, SpecialtyID: doc.SpecialtyID, Status: doc.Status,
	})
}

func (a *AdminHandlers) setDoctorStatus(w http.ResponseWriter, r *http.Request) {
	var req SetDoctorStatusRequest
	if !a.decode(w, r, &req) {
		return
	}
	id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	doc, err := a.engine.SetDoctorStatus(r.Context(), id, req.Status)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DoctorResponse{
		ID: doc.ID, FullName: doc.FullName, SpecialtyID: doc.SpecialtyID, Status: doc.Status,
	})
}

func (a *AdminHandlers) createShift(w http.ResponseWriter, r *http.Request) {
	var req CreateShiftRequest
	if !a.decode(w, r, &req) {
		return
	}
	clinicID, err := optionalUUIDParam(req.ClinicID, "clinic_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	shift, err := a.engine.CreateShift(r.Context(), clinic.ShiftInput{
		ClinicID:    clinicID,
		Type:        req.Type,
		StartTime:   req.StartTime,
		EndTime:     req.EndTime,
		DayOfWeek:   req.DayOfWeek,
		MaxPatients: req.MaxPatients,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toShiftResponse(shift))
}

func (a *AdminHandlers) toggleShift(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !a.decode(w, r, &req) {
		return
	}
	id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	shift, err := a.engine.SetShiftActive(r.Context(), id, req.IsActive)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toShiftResponse(shift))
}

func toShiftResponse(s *clinic.Shift) ShiftResponse {
	return ShiftResponse{
		ID:          s.ID,
		ClinicID:    s.ClinicID,
		Type:        s.Type,
		StartTime:   s.StartTime,
		EndTime:     s.EndTime,
		DayOfWeek:   s.DayOfWeek,
		MaxPatients: s.MaxPatients,
		IsActive:    s.IsActive,
	}
}

func (a *AdminHandlers) assignDoctorShift(w http.ResponseWriter, r *http.Request) {
	var req AssignDoctorShiftRequest
	if !a.decode(w, r, &req) {
		return
	}
	doctorID, err := optionalUUIDParam(req.DoctorID, "doctor_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	shiftID, err := optionalUUIDParam(req.ShiftID, "shift_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	ds, err := a.engine.AssignDoctorShift(r.Context(), doctorID, shiftID)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, DoctorShiftResponse{
		ID: ds.ID, DoctorID: ds.DoctorID, ShiftID: ds.ShiftID, IsActive: ds.IsActive,
	})
}

func (a *AdminHandlers) toggleDoctorShift(w http.ResponseWriter, r *http.Request) {
	var req ToggleRequest
	if !a.decode(w, r, &req) {
		return
	}
	id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	ds, err := a.engine.SetDoctorShiftActive(r.Context(), id, req.IsActive)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DoctorShiftResponse{
		ID: ds.ID, DoctorID: ds.DoctorID, ShiftID: ds.ShiftID, IsActive: ds.IsActive,
	})
}
