package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-queue-engine/internal/auth"
	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

// DirectoryHandlers serve the joined reference tables: departments,
// clinics, shifts, doctors, and shift assignments, with their FK
// filters.
type DirectoryHandlers struct {
	engine *clinic.Service
}

func NewDirectoryHandlers(engine *clinic.Service) *DirectoryHandlers {
	return &DirectoryHandlers{engine: engine}
}

func (d *DirectoryHandlers) snapshot(w http.ResponseWriter, r *http.Request) *clinic.Snapshot {
	if err := authorize(r, auth.OpViewDirectory, nil); err != nil {
		handleDomainError(w, err)
		return nil
	}
	snap, err := d.engine.Directory(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return nil
	}
	return snap
}

type DepartmentResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Location string    `json:"location,omitempty"`
	IsActive bool      `json:"is_active"`
}

func (d *DirectoryHandlers) listDepartments(w http.ResponseWriter, r *http.Request) {
	snap := d.snapshot(w, r)
	if snap == nil {
		return
	}
	resp := []DepartmentResponse{}
	for _, dept := range snap.ListDepartments() {
		resp = append(resp, DepartmentResponse{ID: dept.ID, Name: dept.Name, Location: dept.Location, IsActive: dept.IsActive})
	}
	writeJSON(w, http.StatusOK, resp)
}

type ClinicResponse struct {
	ID             uuid.UUID          `json:"id"`
	Name           string             `json:"name"`
	DepartmentID   uuid.UUID          `json:"department_id"`
	DepartmentName string             `json:"department_name,omitempty"`
	OperatingDays  []clinic.DayOfWeek `json:"operating_days,omitempty"`
	IsActive       bool               `json:"is_active"`
}

func (d *DirectoryHandlers) listClinics(w http.ResponseWriter, r *http.Request) {
	snap := d.snapshot(w, r)
	if snap == nil {
		return
	}
	departmentID, err := optionalUUIDParam(r.URL.Query().Get("department_id"), "department_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}

	clinics := snap.ListClinics()
	if departmentID != uuid.Nil {
		clinics = snap.ClinicsByDepartment(departmentID)
	}
	resp := []ClinicResponse{}
	for _, c := range clinics {
		item := ClinicResponse{
			ID:            c.ID,
			Name:          c.Name,
			DepartmentID:  c.DepartmentID,
			OperatingDays: c.OperatingDays,
			IsActive:      c.IsActive,
		}
		if c.Department != nil {
			item.DepartmentName = c.Department.Name
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

type ShiftResponse struct {
	ID          uuid.UUID        `json:"id"`
	ClinicID    uuid.UUID        `json:"clinic_id"`
	ClinicName  string           `json:"clinic_name,omitempty"`
	Type        clinic.ShiftType `json:"type"`
	StartTime   string           `json:"start_time"`
	EndTime     string           `json:"end_time"`
	DayOfWeek   clinic.DayOfWeek `json:"day_of_week"`
	MaxPatients int              `json:"max_patients"`
	IsActive    bool             `json:"is_active"`
}

func (d *DirectoryHandlers) listShifts(w http.ResponseWriter, r *http.Request) {
	snap := d.snapshot(w, r)
	if snap == nil {
		return
	}
	clinicID, err := optionalUUIDParam(r.URL.Query().Get("clinic_id"), "clinic_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}

	shifts := snap.ListShifts()
	if clinicID != uuid.Nil {
		shifts = snap.ShiftsByClinic(clinicID)
	}
	resp := []ShiftResponse{}
	for _, s := range shifts {
		item := ShiftResponse{
			ID:          s.ID,
			ClinicID:    s.ClinicID,
			Type:        s.Type,
			StartTime:   s.StartTime,
			EndTime:     s.EndTime,
			DayOfWeek:   s.DayOfWeek,
			MaxPatients: s.MaxPatients,
			IsActive:    s.IsActive,
		}
		if s.Clinic != nil {
			item.ClinicName = s.Clinic.Name
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

type DoctorResponse struct {
	ID            uuid.UUID           `json:"id"`
	FullName      string              `json:"full_name"`
	SpecialtyID   uuid.UUID           `json:"specialty_id"`
	SpecialtyName string              `json:"specialty_name,omitempty"`
	Status        clinic.DoctorStatus `json:"status"`
}

func (d *DirectoryHandlers) listDoctors(w http.ResponseWriter, r *http.Request) {
	snap := d.snapshot(w, r)
	if snap == nil {
		return
	}
	departmentID, err := optionalUUIDParam(r.URL.Query().Get("department_id"), "department_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	shiftID, err := optionalUUIDParam(r.URL.Query().Get("shift_id"), "shift_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}

	resp := []DoctorResponse{}
	if shiftID != uuid.Nil {
		// "who covers this shift" honours only active assignments
		for _, doc := range snap.DoctorsByShift(shiftID) {
			resp = append(resp, DoctorResponse{ID: doc.ID, FullName: doc.FullName, SpecialtyID: doc.SpecialtyID, Status: doc.Status})
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	doctors := snap.ListDoctors()
	if departmentID != uuid.Nil {
		doctors = snap.DoctorsByDepartment(departmentID)
	}
	for _, doc := range doctors {
		item := DoctorResponse{ID: doc.ID, FullName: doc.FullName, SpecialtyID: doc.SpecialtyID, Status: doc.Status}
		if doc.Specialty != nil {
			item.SpecialtyName = doc.Specialty.Name
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}

type DoctorShiftResponse struct {
	ID         uuid.UUID `json:"id"`
	DoctorID   uuid.UUID `json:"doctor_id"`
	DoctorName string    `json:"doctor_name,omitempty"`
	ShiftID    uuid.UUID `json:"shift_id"`
	ClinicName string    `json:"clinic_name,omitempty"`
	IsActive   bool      `json:"is_active"`
}

func (d *DirectoryHandlers) listDoctorShifts(w http.ResponseWriter, r *http.Request) {
	snap := d.snapshot(w, r)
	if snap == nil {
		return
	}
	doctorID, err := optionalUUIDParam(r.URL.Query().Get("doctor_id"), "doctor_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}

	resp := []DoctorShiftResponse{}
	for _, ds := range snap.ListDoctorShifts(doctorID) {
		item := DoctorShiftResponse{ID: ds.ID, DoctorID: ds.DoctorID, ShiftID: ds.ShiftID, IsActive: ds.IsActive}
		if ds.Doctor != nil {
			item.DoctorName = ds.Doctor.FullName
		}
		if ds.Shift != nil && ds.Shift.Clinic != nil {
			item.ClinicName = ds.Shift.Clinic.Name
		}
		resp = append(resp, item)
	}
	writeJSON(w, http.StatusOK, resp)
}
