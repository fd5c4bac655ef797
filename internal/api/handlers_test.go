package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-queue-engine/internal/auth"
	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

type apiFixture struct {
	Router http.Handler
	Store  *clinic.MemStore

	Dept   clinic.Department
	Clinic clinic.Clinic
	Shift  clinic.Shift
	Doc1   clinic.Doctor
	Doc2   clinic.Doctor
	P1, P2 clinic.Patient
	Date   string

	ReceptionToken string
	Doctor1Token   string
	Doctor2Token   string
	AdminToken     string
	HeadToken      string
}

func newAPIFixture(t *testing.T) *apiFixture {
	t.Helper()

	f := &apiFixture{Date: "2025-03-10"}
	f.Dept = clinic.Department{ID: uuid.New(), Name: "Cardiology", IsActive: true}
	f.Clinic = clinic.Clinic{ID: uuid.New(), Name: "Clinic A", DepartmentID: f.Dept.ID, IsActive: true}
	f.Shift = clinic.Shift{
		ID: uuid.New(), ClinicID: f.Clinic.ID, Type: clinic.ShiftAM,
		StartTime: "08:00", EndTime: "12:00", DayOfWeek: clinic.Monday,
		MaxPatients: 20, IsActive: true,
	}
	f.Doc1 = clinic.Doctor{ID: uuid.New(), FullName: "Dr. One", SpecialtyID: f.Dept.ID, Status: clinic.DoctorActive}
	f.Doc2 = clinic.Doctor{ID: uuid.New(), FullName: "Dr. Two", SpecialtyID: f.Dept.ID, Status: clinic.DoctorActive}
	f.P1 = clinic.Patient{ID: uuid.New(), FullName: "Alice Adams", Phone: "0100000001", NationalID: "A-1"}
	f.P2 = clinic.Patient{ID: uuid.New(), FullName: "Bilal Baker", Phone: "0100000002", NationalID: "B-2"}

	hash, err := auth.HashPassword("pass")
	if err != nil {
		t.Fatalf("hash: %v", err)
	}
	users := []clinic.User{
		{ID: uuid.New(), Username: "admin", PasswordHash: hash, Role: clinic.RoleAdmin, IsActive: true},
		{ID: uuid.New(), Username: "reception", PasswordHash: hash, Role: clinic.RoleReceptionist, IsActive: true},
		{ID: uuid.New(), Username: "doc1", PasswordHash: hash, Role: clinic.RoleDoctor, DoctorID: &f.Doc1.ID, IsActive: true},
		{ID: uuid.New(), Username: "doc2", PasswordHash: hash, Role: clinic.RoleDoctor, DoctorID: &f.Doc2.ID, IsActive: true},
		{ID: uuid.New(), Username: "head", PasswordHash: hash, Role: clinic.RoleDepartmentHead, DepartmentID: &f.Dept.ID, IsActive: true},
	}

	f.Store = clinic.NewMemStore(&clinic.Snapshot{
		Departments: []clinic.Department{f.Dept},
		Clinics:     []clinic.Clinic{f.Clinic},
		Shifts:      []clinic.Shift{f.Shift},
		Doctors:     []clinic.Doctor{f.Doc1, f.Doc2},
		Patients:    []clinic.Patient{f.P1, f.P2},
		Users:       users,
	})

	engine := clinic.NewService(f.Store, clinic.NewMutexLocker())
	authSvc := auth.NewService(f.Store, "test-secret", time.Hour)

	f.Router = NewRouter(RouterConfig{
		Engine:  engine,
		Auth:    authSvc,
		Logger:  zerolog.Nop(),
		Env:     "test",
		Version: "test",
	})

	f.AdminToken = f.login(t, "admin")
	f.ReceptionToken = f.login(t, "reception")
	f.Doctor1Token = f.login(t, "doc1")
	f.Doctor2Token = f.login(t, "doc2")
	f.HeadToken = f.login(t, "head")
	return f
}

func (f *apiFixture) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.Router.ServeHTTP(rec, req)
	return rec
}

func (f *apiFixture) login(t *testing.T, username string) string {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: username, Password: "pass"})
	if rec.Code != http.StatusOK {
		t.Fatalf("login %s: status %d: %s", username, rec.Code, rec.Body)
	}
	var resp LoginResponse
	decodeBody(t, rec, &resp)
	return resp.Token
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(v); err != nil {
		t.Fatalf("decode response: %v", err)
	}
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d: %s", rec.Code, status, rec.Body)
	}
	var resp ErrorResponse
	decodeBody(t, rec, &resp)
	if resp.Error != code {
		t.Fatalf("error code = %q, want %q", resp.Error, code)
	}
}

func (f *apiFixture) bookingBody(patientID uuid.UUID, doctorID uuid.UUID) BookAppointmentRequest {
	return BookAppointmentRequest{
		PatientID:    patientID.String(),
		DepartmentID: f.Dept.ID.String(),
		ClinicID:     f.Clinic.ID.String(),
		DoctorID:     doctorID.String(),
		ShiftID:      f.Shift.ID.String(),
		VisitDate:    f.Date,
	}
}

func (f *apiFixture) mustBook(t *testing.T, patientID, doctorID uuid.UUID) AppointmentResponse {
	t.Helper()
	rec := f.do(t, http.MethodPost, "/appointments", f.ReceptionToken, f.bookingBody(patientID, doctorID))
	if rec.Code != http.StatusCreated {
		t.Fatalf("book: status %d: %s", rec.Code, rec.Body)
	}
	var resp AppointmentResponse
	decodeBody(t, rec, &resp)
	return resp
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/auth/login", "", LoginRequest{Username: "reception", Password: "nope"})
	expectError(t, rec, http.StatusUnauthorized, "invalid_credentials")
}

func TestUnauthenticatedRequestsAreRejected(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/appointments", "", f.bookingBody(f.P1.ID, f.Doc1.ID))
	expectError(t, rec, http.StatusUnauthorized, "unauthorized")

	rec = f.do(t, http.MethodGet, "/queue?date="+f.Date, "garbage-token", nil)
	expectError(t, rec, http.StatusUnauthorized, "unauthorized")
}

func TestFrontDeskFlowOverHTTP(t *testing.T) {
	f := newAPIFixture(t)

	appt := f.mustBook(t, f.P1.ID, f.Doc1.ID)
	if appt.QueueNumber != 1 || appt.Status != clinic.StatusScheduled {
		t.Fatalf("booked appointment = %+v", appt)
	}

	rec := f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/check-in", f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check-in: status %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodPost, "/queue/call-next", f.ReceptionToken, CallNextRequest{
		ClinicID:  f.Clinic.ID.String(),
		ShiftID:   f.Shift.ID.String(),
		VisitDate: f.Date,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("call-next: status %d: %s", rec.Code, rec.Body)
	}
	var called AppointmentResponse
	decodeBody(t, rec, &called)
	if called.ID != appt.ID || called.Status != clinic.StatusInProgress {
		t.Fatalf("called = %+v, want appointment #1 IN_PROGRESS", called)
	}

	rec = f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/finalize", f.Doctor1Token,
		FinalizeVisitRequest{Diagnosis: "flu"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("finalize: status %d: %s", rec.Code, rec.Body)
	}
	var record MedicalRecordResponse
	decodeBody(t, rec, &record)
	if record.AppointmentID != appt.ID || record.Diagnosis != "flu" {
		t.Fatalf("record = %+v", record)
	}

	rec = f.do(t, http.MethodGet, fmt.Sprintf("/queue?date=%s&clinic_id=%s&shift_id=%s",
		f.Date, f.Clinic.ID, f.Shift.ID), f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("queue: status %d: %s", rec.Code, rec.Body)
	}
	var q QueueResponse
	decodeBody(t, rec, &q)
	if len(q.Waiting) != 0 || len(q.InProgress) != 0 || q.CompletedCount != 1 {
		t.Fatalf("queue = %+v, want one completed visit", q)
	}
}

func TestReceptionistCannotFinalize(t *testing.T) {
	f := newAPIFixture(t)
	appt := f.mustBook(t, f.P1.ID, f.Doc1.ID)

	rec := f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/finalize", f.ReceptionToken,
		FinalizeVisitRequest{Diagnosis: "flu"})
	expectError(t, rec, http.StatusForbidden, "unauthorized")
}

func TestDoctorCannotFinalizeAnotherDoctorsVisit(t *testing.T) {
	f := newAPIFixture(t)
	appt := f.mustBook(t, f.P1.ID, f.Doc1.ID)

	rec := f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/finalize", f.Doctor2Token,
		FinalizeVisitRequest{Diagnosis: "flu"})
	expectError(t, rec, http.StatusForbidden, "unauthorized")
}

func TestDoctorCannotBook(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/appointments", f.Doctor1Token, f.bookingBody(f.P1.ID, f.Doc1.ID))
	expectError(t, rec, http.StatusForbidden, "unauthorized")
}

func TestCallNextOnEmptyQueue(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodPost, "/queue/call-next", f.ReceptionToken, CallNextRequest{
		ClinicID:  f.Clinic.ID.String(),
		ShiftID:   f.Shift.ID.String(),
		VisitDate: f.Date,
	})
	expectError(t, rec, http.StatusNotFound, "queue_empty")
}

func TestCheckInAfterCancelConflicts(t *testing.T) {
	f := newAPIFixture(t)
	appt := f.mustBook(t, f.P1.ID, f.Doc1.ID)

	rec := f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/cancel", f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("cancel: status %d: %s", rec.Code, rec.Body)
	}
	rec = f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/check-in", f.ReceptionToken, nil)
	expectError(t, rec, http.StatusConflict, "invalid_transition")
}

func TestGetAppointmentErrors(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/appointments/not-a-uuid", f.ReceptionToken, nil)
	expectError(t, rec, http.StatusBadRequest, "validation_error")

	rec = f.do(t, http.MethodGet, "/appointments/"+uuid.NewString(), f.ReceptionToken, nil)
	expectError(t, rec, http.StatusNotFound, "appointment_not_found")
}

func TestBookingUnknownPatient(t *testing.T) {
	f := newAPIFixture(t)
	body := f.bookingBody(uuid.New(), f.Doc1.ID)
	rec := f.do(t, http.MethodPost, "/appointments", f.ReceptionToken, body)
	expectError(t, rec, http.StatusNotFound, "patient_not_found")
}

func TestRegisterAndSearchPatients(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/patients", f.ReceptionToken, RegisterPatientRequest{
		FullName:   "Carmen Diaz",
		Age:        41,
		Gender:     "F",
		Phone:      "0105554443",
		NationalID: "C-3",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: status %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/patients?q=carmen", f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("search: status %d: %s", rec.Code, rec.Body)
	}
	var patients []PatientResponse
	decodeBody(t, rec, &patients)
	if len(patients) != 1 || patients[0].FullName != "Carmen Diaz" {
		t.Fatalf("search result = %+v", patients)
	}

	rec = f.do(t, http.MethodPost, "/patients", f.ReceptionToken, RegisterPatientRequest{FullName: "No Phone"})
	expectError(t, rec, http.StatusBadRequest, "validation_error")
}

func TestDoctorAppointmentsAreOwnershipScoped(t *testing.T) {
	f := newAPIFixture(t)
	appt := f.mustBook(t, f.P1.ID, f.Doc1.ID)

	rec := f.do(t, http.MethodGet, "/doctors/"+f.Doc1.ID.String()+"/appointments", f.Doctor1Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("own list: status %d: %s", rec.Code, rec.Body)
	}
	var list []AppointmentDetailResponse
	decodeBody(t, rec, &list)
	if len(list) != 1 || list[0].ID != appt.ID {
		t.Fatalf("own list = %+v", list)
	}

	rec = f.do(t, http.MethodGet, "/doctors/"+f.Doc1.ID.String()+"/appointments", f.Doctor2Token, nil)
	expectError(t, rec, http.StatusForbidden, "unauthorized")

	rec = f.do(t, http.MethodGet, "/doctors/"+f.Doc1.ID.String()+"/appointments", f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reception view: status %d: %s", rec.Code, rec.Body)
	}
}

func TestPatientHistoryIsScopedToTheRequestingDoctor(t *testing.T) {
	f := newAPIFixture(t)
	appt := f.mustBook(t, f.P1.ID, f.Doc1.ID)

	rec := f.do(t, http.MethodGet, "/patients/"+f.P1.ID.String()+"/appointments", f.Doctor1Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("own history: status %d: %s", rec.Code, rec.Body)
	}
	var list []AppointmentDetailResponse
	decodeBody(t, rec, &list)
	if len(list) != 1 || list[0].ID != appt.ID {
		t.Fatalf("own history = %+v", list)
	}

	// Another doctor gets an empty list, not a colleague's bookings.
	rec = f.do(t, http.MethodGet, "/patients/"+f.P1.ID.String()+"/appointments", f.Doctor2Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("other doctor history: status %d: %s", rec.Code, rec.Body)
	}
	list = nil
	decodeBody(t, rec, &list)
	if len(list) != 0 {
		t.Fatalf("other doctor sees %d appointments, want 0", len(list))
	}

	// Reception keeps the full view.
	rec = f.do(t, http.MethodGet, "/patients/"+f.P1.ID.String()+"/appointments", f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("reception history: status %d: %s", rec.Code, rec.Body)
	}
	list = nil
	decodeBody(t, rec, &list)
	if len(list) != 1 {
		t.Fatalf("reception sees %d appointments, want 1", len(list))
	}
}

func TestPatientRecordsAreScopedToTheAuthoringDoctor(t *testing.T) {
	f := newAPIFixture(t)
	appt := f.mustBook(t, f.P1.ID, f.Doc1.ID)

	rec := f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/check-in", f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check-in: status %d: %s", rec.Code, rec.Body)
	}
	rec = f.do(t, http.MethodPost, "/queue/call-next", f.ReceptionToken, CallNextRequest{
		ClinicID:  f.Clinic.ID.String(),
		ShiftID:   f.Shift.ID.String(),
		VisitDate: f.Date,
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("call-next: status %d: %s", rec.Code, rec.Body)
	}
	rec = f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/finalize", f.Doctor1Token,
		FinalizeVisitRequest{Diagnosis: "flu"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("finalize: status %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/patients/"+f.P1.ID.String()+"/medical-records", f.Doctor1Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("author records: status %d: %s", rec.Code, rec.Body)
	}
	var records []MedicalRecordResponse
	decodeBody(t, rec, &records)
	if len(records) != 1 || records[0].AppointmentID != appt.ID {
		t.Fatalf("author records = %+v", records)
	}

	rec = f.do(t, http.MethodGet, "/patients/"+f.P1.ID.String()+"/medical-records", f.Doctor2Token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("other doctor records: status %d: %s", rec.Code, rec.Body)
	}
	records = nil
	decodeBody(t, rec, &records)
	if len(records) != 0 {
		t.Fatalf("other doctor sees %d records, want 0", len(records))
	}

	rec = f.do(t, http.MethodGet, "/patients/"+f.P1.ID.String()+"/medical-records", f.AdminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin records: status %d: %s", rec.Code, rec.Body)
	}
	records = nil
	decodeBody(t, rec, &records)
	if len(records) != 1 {
		t.Fatalf("admin sees %d records, want 1", len(records))
	}
}

func TestDashboardCounts(t *testing.T) {
	f := newAPIFixture(t)

	appt := f.mustBook(t, f.P1.ID, f.Doc1.ID)
	f.mustBook(t, f.P2.ID, f.Doc1.ID)
	rec := f.do(t, http.MethodPost, "/appointments/"+appt.ID.String()+"/check-in", f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("check-in: status %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/dashboard?date="+f.Date, f.HeadToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("dashboard: status %d: %s", rec.Code, rec.Body)
	}
	var stats DashboardResponse
	decodeBody(t, rec, &stats)
	if stats.TotalPatients != 2 || stats.TodayAppointments != 2 || stats.WaitingPatients != 1 {
		t.Fatalf("dashboard = %+v", stats)
	}
	if stats.ActiveDoctors != 2 || stats.Departments != 1 {
		t.Fatalf("dashboard directory counts = %+v", stats)
	}
}

func TestDirectoryEndpoints(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodGet, "/departments", f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("departments: status %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/clinics?department_id="+f.Dept.ID.String(), f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("clinics: status %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/shifts?clinic_id="+f.Clinic.ID.String(), f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("shifts: status %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/doctors", f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("doctors: status %d: %s", rec.Code, rec.Body)
	}

	rec = f.do(t, http.MethodGet, "/departments", "", nil)
	expectError(t, rec, http.StatusUnauthorized, "unauthorized")
}

func TestAdminManagesDirectory(t *testing.T) {
	f := newAPIFixture(t)

	rec := f.do(t, http.MethodPost, "/departments", f.AdminToken,
		CreateDepartmentRequest{Name: "Dermatology", Location: "Building B"})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create department: status %d: %s", rec.Code, rec.Body)
	}
	var dept DepartmentResponse
	decodeBody(t, rec, &dept)
	if dept.Name != "Dermatology" || !dept.IsActive {
		t.Fatalf("department = %+v", dept)
	}

	rec = f.do(t, http.MethodPost, "/doctors", f.AdminToken,
		CreateDoctorRequest{FullName: "Dr. Three", SpecialtyID: dept.ID.String()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create doctor: status %d: %s", rec.Code, rec.Body)
	}
	var doc DoctorResponse
	decodeBody(t, rec, &doc)
	if doc.Status != clinic.DoctorActive || doc.SpecialtyID != dept.ID {
		t.Fatalf("doctor = %+v", doc)
	}

	rec = f.do(t, http.MethodPost, "/doctors/"+doc.ID.String()+"/status", f.AdminToken,
		SetDoctorStatusRequest{Status: clinic.DoctorOnLeave})
	if rec.Code != http.StatusOK {
		t.Fatalf("set doctor status: status %d: %s", rec.Code, rec.Body)
	}
	decodeBody(t, rec, &doc)
	if doc.Status != clinic.DoctorOnLeave {
		t.Fatalf("doctor status = %q, want ON_LEAVE", doc.Status)
	}

	rec = f.do(t, http.MethodPost, "/shifts", f.AdminToken, CreateShiftRequest{
		ClinicID: f.Clinic.ID.String(), Type: clinic.ShiftPM,
		StartTime: "13:00", EndTime: "17:00", DayOfWeek: clinic.Monday, MaxPatients: 10,
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("create shift: status %d: %s", rec.Code, rec.Body)
	}
	var shift ShiftResponse
	decodeBody(t, rec, &shift)
	if shift.Type != clinic.ShiftPM || !shift.IsActive {
		t.Fatalf("shift = %+v", shift)
	}

	rec = f.do(t, http.MethodPost, "/doctor-shifts", f.AdminToken,
		AssignDoctorShiftRequest{DoctorID: doc.ID.String(), ShiftID: shift.ID.String()})
	if rec.Code != http.StatusCreated {
		t.Fatalf("assign shift: status %d: %s", rec.Code, rec.Body)
	}
	var ds DoctorShiftResponse
	decodeBody(t, rec, &ds)
	if ds.DoctorID != doc.ID || ds.ShiftID != shift.ID || !ds.IsActive {
		t.Fatalf("assignment = %+v", ds)
	}

	rec = f.do(t, http.MethodPost, "/doctor-shifts/"+ds.ID.String()+"/toggle", f.AdminToken,
		ToggleRequest{IsActive: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle assignment: status %d: %s", rec.Code, rec.Body)
	}
	decodeBody(t, rec, &ds)
	if ds.IsActive {
		t.Fatalf("assignment still active after toggle")
	}
}

func TestDirectoryManagementRequiresAdmin(t *testing.T) {
	f := newAPIFixture(t)
	body := CreateDepartmentRequest{Name: "Ophthalmology"}

	for _, token := range []string{f.ReceptionToken, f.Doctor1Token, f.HeadToken} {
		rec := f.do(t, http.MethodPost, "/departments", token, body)
		expectError(t, rec, http.StatusForbidden, "unauthorized")
	}

	rec := f.do(t, http.MethodPost, "/departments", "", body)
	expectError(t, rec, http.StatusUnauthorized, "unauthorized")

	rec = f.do(t, http.MethodPost, "/departments/"+uuid.NewString()+"/toggle", f.AdminToken,
		ToggleRequest{IsActive: false})
	expectError(t, rec, http.StatusNotFound, "department_not_found")
}

func TestShiftDeactivationKeepsBookedAppointments(t *testing.T) {
	f := newAPIFixture(t)
	appt := f.mustBook(t, f.P1.ID, f.Doc1.ID)

	rec := f.do(t, http.MethodPost, "/shifts/"+f.Shift.ID.String()+"/toggle", f.AdminToken,
		ToggleRequest{IsActive: false})
	if rec.Code != http.StatusOK {
		t.Fatalf("toggle shift: status %d: %s", rec.Code, rec.Body)
	}

	// The existing booking survives the deactivation.
	rec = f.do(t, http.MethodGet, "/appointments/"+appt.ID.String(), f.ReceptionToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("existing appointment: status %d: %s", rec.Code, rec.Body)
	}

	// New bookings against the inactive shift are refused.
	rec = f.do(t, http.MethodPost, "/appointments", f.ReceptionToken, f.bookingBody(f.P2.ID, f.Doc1.ID))
	expectError(t, rec, http.StatusBadRequest, "validation_error")
}

func TestHealthLiveness(t *testing.T) {
	f := newAPIFixture(t)
	rec := f.do(t, http.MethodGet, "/health/live", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("liveness: status %d: %s", rec.Code, rec.Body)
	}
}
