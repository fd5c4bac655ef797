package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-queue-engine/internal/auth"
	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

// Handlers wires the engine and the guard to the HTTP boundary. The
// engine never reads the clock; this layer supplies "today" when the
// caller leaves the reference date out.
type Handlers struct {
	engine *clinic.Service
	auth   *auth.Service

	// Now provides the boundary's reference date; tests pin it.
	Now func() time.Time
}

func NewHandlers(engine *clinic.Service, authSvc *auth.Service) *Handlers {
	return &Handlers{engine: engine, auth: authSvc, Now: time.Now}
}

func (h *Handlers) today() clinic.VisitDate {
	return clinic.VisitDateOf(h.Now())
}

// visitDateParam resolves an optional yyyy-mm-dd value, defaulting to
// today at the boundary.
func (h *Handlers) visitDateParam(raw string) (clinic.VisitDate, error) {
	if raw == "" {
		return h.today(), nil
	}
	return clinic.ParseVisitDate(raw)
}

func parseUUIDParam(raw, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &clinic.ValidationError{Field: name, Reason: "must be a valid UUID"}
	}
	return id, nil
}

func optionalUUIDParam(raw, name string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.Nil, nil
	}
	return parseUUIDParam(raw, name)
}

// authorize runs the guard for the request's actor. Role gate first;
// the ownership gate is applied by callers that have loaded a resource.
func authorize(r *http.Request, op auth.Operation, own *auth.Ownership) error {
	return auth.Authorize(auth.ActorFromContext(r.Context()), op, own)
}

func (h *Handlers) login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	token, user, err := h.auth.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, LoginResponse{
		Token: token,
		User: UserResponse{
			ID:           user.ID,
			Username:     user.Username,
			FullName:     user.FullName,
			Role:         user.Role,
			DoctorID:     user.DoctorID,
			DepartmentID: user.DepartmentID,
		},
	})
}

func (h *Handlers) bookAppointment(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpBookAppointment, nil); err != nil {
		handleDomainError(w, err)
		return
	}

	var req BookAppointmentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	booking := clinic.BookingRequest{Notes: req.Notes}
	var err error
	if booking.PatientID, err = optionalUUIDParam(req.PatientID, "patient_id"); err != nil {
		handleDomainError(w, err)
		return
	}
	if booking.DepartmentID, err = optionalUUIDParam(req.DepartmentID, "department_id"); err != nil {
		handleDomainError(w, err)
		return
	}
	if booking.ClinicID, err = optionalUUIDParam(req.ClinicID, "clinic_id"); err != nil {
		handleDomainError(w, err)
		return
	}
	if booking.DoctorID, err = optionalUUIDParam(req.DoctorID, "doctor_id"); err != nil {
		handleDomainError(w, err)
		return
	}
	if booking.ShiftID, err = optionalUUIDParam(req.ShiftID, "shift_id"); err != nil {
		handleDomainError(w, err)
		return
	}
	if req.VisitDate != "" {
		if booking.VisitDate, err = clinic.ParseVisitDate(req.VisitDate); err != nil {
			handleDomainError(w, &clinic.ValidationError{Field: "visit_date", Reason: "must be yyyy-mm-dd"})
			return
		}
	}

	appt, err := h.engine.BookAppointment(r.Context(), booking)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toAppointmentResponse(appt))
}

func (h *Handlers) getAppointment(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpViewAppointment, nil); err != nil {
		handleDomainError(w, err)
		return
	}
	id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	detail, err := h.engine.GetAppointment(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if err := authorize(r, auth.OpViewAppointment, &auth.Ownership{
		DoctorID:     detail.DoctorID,
		DepartmentID: detail.DepartmentID,
	}); err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentDetailResponse(*detail))
}

func (h *Handlers) checkIn(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, auth.OpCheckIn, h.engine.CheckIn)
}

func (h *Handlers) cancelAppointment(w http.ResponseWriter, r *http.Request) {
	h.simpleTransition(w, r, auth.OpCancelAppointment, h.engine.Cancel)
}

func (h *Handlers) simpleTransition(w http.ResponseWriter, r *http.Request, op auth.Operation,
	fn func(ctx context.Context, id uuid.UUID) (*clinic.Appointment, error)) {
	if err := authorize(r, op, nil); err != nil {
		handleDomainError(w, err)
		return
	}
	id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	appt, err := fn(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *Handlers) markNoShow(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpMarkNoShow, nil); err != nil {
		handleDomainError(w, err)
		return
	}
	id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	// Doctors may only no-show their own appointments.
	current, err := h.engine.GetAppointment(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if err := authorize(r, auth.OpMarkNoShow, &auth.Ownership{
		DoctorID:     current.DoctorID,
		DepartmentID: current.DepartmentID,
	}); err != nil {
		handleDomainError(w, err)
		return
	}
	appt, err := h.engine.MarkNoShow(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *Handlers) callNext(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpCallNext, nil); err != nil {
		handleDomainError(w, err)
		return
	}

	var req CallNextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}
	clinicID, err := parseUUIDParam(req.ClinicID, "clinic_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	shiftID, err := parseUUIDParam(req.ShiftID, "shift_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	date, err := h.visitDateParam(req.VisitDate)
	if err != nil {
		handleDomainError(w, &clinic.ValidationError{Field: "visit_date", Reason: "must be yyyy-mm-dd"})
		return
	}

	appt, err := h.engine.CallNext(r.Context(), clinicID, shiftID, date)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toAppointmentResponse(appt))
}

func (h *Handlers) finalizeVisit(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpFinalizeVisit, nil); err != nil {
		handleDomainError(w, err)
		return
	}
	id, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}

	current, err := h.engine.GetAppointment(r.Context(), id)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	if err := authorize(r, auth.OpFinalizeVisit, &auth.Ownership{
		DoctorID:     current.DoctorID,
		DepartmentID: current.DepartmentID,
	}); err != nil {
		handleDomainError(w, err)
		return
	}

	var req FinalizeVisitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	in := clinic.RecordInput{
		Diagnosis: req.Diagnosis,
		Symptoms:  req.Symptoms,
		Notes:     req.Notes,
	}
	for _, p := range req.Prescriptions {
		in.Prescriptions = append(in.Prescriptions, clinic.Prescription{
			Medication: p.Medication,
			Dosage:     p.Dosage,
			Frequency:  p.Frequency,
			Duration:   p.Duration,
			Notes:      p.Notes,
		})
	}
	if req.Vitals != nil {
		in.Vitals = &clinic.VitalSigns{
			BloodPressure:    req.Vitals.BloodPressure,
			HeartRate:        req.Vitals.HeartRate,
			Temperature:      req.Vitals.Temperature,
			Weight:           req.Vitals.Weight,
			Height:           req.Vitals.Height,
			OxygenSaturation: req.Vitals.OxygenSaturation,
		}
	}

	rec, err := h.engine.FinalizeVisit(r.Context(), id, in)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toMedicalRecordResponse(rec))
}

func (h *Handlers) queue(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpViewQueue, nil); err != nil {
		handleDomainError(w, err)
		return
	}

	clinicID, err := optionalUUIDParam(r.URL.Query().Get("clinic_id"), "clinic_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	shiftID, err := optionalUUIDParam(r.URL.Query().Get("shift_id"), "shift_id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	date, err := h.visitDateParam(r.URL.Query().Get("date"))
	if err != nil {
		handleDomainError(w, &clinic.ValidationError{Field: "date", Reason: "must be yyyy-mm-dd"})
		return
	}

	snap, err := h.engine.Queue(r.Context(), date, clinicID, shiftID)
	if err != nil {
		handleDomainError(w, err)
		return
	}

	resp := QueueResponse{CompletedCount: snap.CompletedCount}
	for _, a := range snap.Waiting {
		resp.Waiting = append(resp.Waiting, toAppointmentDetailResponse(a))
	}
	for _, a := range snap.InProgress {
		resp.InProgress = append(resp.InProgress, toAppointmentDetailResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) registerPatient(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpRegisterPatient, nil); err != nil {
		handleDomainError(w, err)
		return
	}

	var req RegisterPatientRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
		return
	}

	p, err := h.engine.RegisterPatient(r.Context(), clinic.PatientInput{
		FullName:          req.FullName,
		Age:               req.Age,
		Gender:            req.Gender,
		Phone:             req.Phone,
		Email:             req.Email,
		Address:           req.Address,
		NationalID:        req.NationalID,
		ChronicConditions: req.ChronicConditions,
		Allergies:         req.Allergies,
	})
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, toPatientResponse(*p))
}

func (h *Handlers) listPatients(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpViewPatients, nil); err != nil {
		handleDomainError(w, err)
		return
	}
	snap, err := h.engine.Directory(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}

	patients := snap.ListPatients()
	if q := r.URL.Query().Get("q"); q != "" {
		patients = snap.SearchPatients(q)
	}
	resp := make([]PatientResponse, 0, len(patients))
	for _, p := range patients {
		resp = append(resp, toPatientResponse(p))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) patientAppointments(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpViewAppointment, nil); err != nil {
		handleDomainError(w, err)
		return
	}
	patientID, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	snap, err := h.engine.Directory(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	resp := []AppointmentDetailResponse{}
	for _, a := range scopeAppointments(auth.ActorFromContext(r.Context()), snap.AppointmentsByPatient(patientID)) {
		resp = append(resp, toAppointmentDetailResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

// scopeAppointments narrows a history listing to what the actor may
// see: a doctor their own appointments, a department head their
// department's. Admins and reception see everything.
func scopeAppointments(actor *auth.Actor, rows []clinic.AppointmentDetail) []clinic.AppointmentDetail {
	if actor == nil {
		return nil
	}
	switch actor.Role {
	case clinic.RoleDoctor:
		if actor.DoctorID == nil {
			return nil
		}
		out := rows[:0:0]
		for _, a := range rows {
			if a.DoctorID == *actor.DoctorID {
				out = append(out, a)
			}
		}
		return out
	case clinic.RoleDepartmentHead:
		if actor.DepartmentID == nil {
			return nil
		}
		out := rows[:0:0]
		for _, a := range rows {
			if a.DepartmentID == *actor.DepartmentID {
				out = append(out, a)
			}
		}
		return out
	}
	return rows
}

// scopeMedicalRecords applies the same visibility rule to records,
// using the authoring doctor and that doctor's department.
func scopeMedicalRecords(actor *auth.Actor, rows []clinic.MedicalRecordDetail) []clinic.MedicalRecordDetail {
	if actor == nil {
		return nil
	}
	switch actor.Role {
	case clinic.RoleDoctor:
		if actor.DoctorID == nil {
			return nil
		}
		out := rows[:0:0]
		for _, rec := range rows {
			if rec.DoctorID == *actor.DoctorID {
				out = append(out, rec)
			}
		}
		return out
	case clinic.RoleDepartmentHead:
		if actor.DepartmentID == nil {
			return nil
		}
		out := rows[:0:0]
		for _, rec := range rows {
			if rec.Doctor != nil && rec.Doctor.SpecialtyID == *actor.DepartmentID {
				out = append(out, rec)
			}
		}
		return out
	}
	return rows
}

func (h *Handlers) doctorAppointments(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpViewAppointment, nil); err != nil {
		handleDomainError(w, err)
		return
	}
	doctorID, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	snap, err := h.engine.Directory(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	// A doctor sees only their own list; a head only their department's.
	for _, d := range snap.Doctors {
		if d.ID == doctorID {
			if err := authorize(r, auth.OpViewAppointment, &auth.Ownership{
				DoctorID:     d.ID,
				DepartmentID: d.SpecialtyID,
			}); err != nil {
				handleDomainError(w, err)
				return
			}
			break
		}
	}
	resp := []AppointmentDetailResponse{}
	for _, a := range snap.AppointmentsByDoctor(doctorID) {
		resp = append(resp, toAppointmentDetailResponse(a))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) patientMedicalRecords(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpViewMedicalRecords, nil); err != nil {
		handleDomainError(w, err)
		return
	}
	patientID, err := parseUUIDParam(chi.URLParam(r, "id"), "id")
	if err != nil {
		handleDomainError(w, err)
		return
	}
	snap, err := h.engine.Directory(r.Context())
	if err != nil {
		handleDomainError(w, err)
		return
	}
	resp := []MedicalRecordResponse{}
	for _, rec := range scopeMedicalRecords(auth.ActorFromContext(r.Context()), snap.MedicalRecordsByPatient(patientID)) {
		resp = append(resp, toMedicalRecordResponse(&rec.MedicalRecord))
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handlers) dashboard(w http.ResponseWriter, r *http.Request) {
	if err := authorize(r, auth.OpViewDashboard, nil); err != nil {
		handleDomainError(w, err)
		return
	}
	date, err := h.visitDateParam(r.URL.Query().Get("date"))
	if err != nil {
		handleDomainError(w, &clinic.ValidationError{Field: "date", Reason: "must be yyyy-mm-dd"})
		return
	}
	stats, err := h.engine.Dashboard(r.Context(), date)
	if err != nil {
		handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, DashboardResponse{
		TotalPatients:     stats.TotalPatients,
		TodayAppointments: stats.TodayAppointments,
		ActiveDoctors:     stats.ActiveDoctors,
		WaitingPatients:   stats.WaitingPatients,
		CompletedToday:    stats.CompletedToday,
		Departments:       stats.Departments,
	})
}
