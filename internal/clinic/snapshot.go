package clinic

import (
	"sort"
	"strings"

	"github.com/google/uuid"
)

// Snapshot is one consistent view of the flat relational tables. It is
// immutable once handed out: joins are recomputed per call against the
// same slices, so concurrent readers never need locks. Fetch the
// snapshot once, join as many times as needed.
type Snapshot struct {
	Departments    []Department
	Clinics        []Clinic
	Shifts         []Shift
	Doctors        []Doctor
	DoctorShifts   []DoctorShift
	Patients       []Patient
	Appointments   []Appointment
	MedicalRecords []MedicalRecord
	Users          []User
}

func (s *Snapshot) departmentsByID() map[uuid.UUID]*Department {
	m := make(map[uuid.UUID]*Department, len(s.Departments))
	for i := range s.Departments {
		m[s.Departments[i].ID] = &s.Departments[i]
	}
	return m
}

func (s *Snapshot) clinicsByID() map[uuid.UUID]*Clinic {
	m := make(map[uuid.UUID]*Clinic, len(s.Clinics))
	for i := range s.Clinics {
		m[s.Clinics[i].ID] = &s.Clinics[i]
	}
	return m
}

func (s *Snapshot) shiftsByID() map[uuid.UUID]*Shift {
	m := make(map[uuid.UUID]*Shift, len(s.Shifts))
	for i := range s.Shifts {
		m[s.Shifts[i].ID] = &s.Shifts[i]
	}
	return m
}

func (s *Snapshot) doctorsByID() map[uuid.UUID]*Doctor {
	m := make(map[uuid.UUID]*Doctor, len(s.Doctors))
	for i := range s.Doctors {
		m[s.Doctors[i].ID] = &s.Doctors[i]
	}
	return m
}

func (s *Snapshot) patientsByID() map[uuid.UUID]*Patient {
	m := make(map[uuid.UUID]*Patient, len(s.Patients))
	for i := range s.Patients {
		m[s.Patients[i].ID] = &s.Patients[i]
	}
	return m
}

func (s *Snapshot) appointmentsByID() map[uuid.UUID]*Appointment {
	m := make(map[uuid.UUID]*Appointment, len(s.Appointments))
	for i := range s.Appointments {
		m[s.Appointments[i].ID] = &s.Appointments[i]
	}
	return m
}

func (s *Snapshot) ListDepartments() []Department {
	out := make([]Department, len(s.Departments))
	copy(out, s.Departments)
	return out
}

// ListClinics embeds each clinic's department. A missing department
// leaves the pointer nil.
func (s *Snapshot) ListClinics() []ClinicDetail {
	depts := s.departmentsByID()
	out := make([]ClinicDetail, 0, len(s.Clinics))
	for _, c := range s.Clinics {
		out = append(out, ClinicDetail{Clinic: c, Department: depts[c.DepartmentID]})
	}
	return out
}

func (s *Snapshot) ListShifts() []ShiftDetail {
	clinics := s.clinicsByID()
	out := make([]ShiftDetail, 0, len(s.Shifts))
	for _, sh := range s.Shifts {
		out = append(out, ShiftDetail{Shift: sh, Clinic: clinics[sh.ClinicID]})
	}
	return out
}

func (s *Snapshot) ListDoctors() []DoctorDetail {
	depts := s.departmentsByID()
	out := make([]DoctorDetail, 0, len(s.Doctors))
	for _, d := range s.Doctors {
		out = append(out, DoctorDetail{Doctor: d, Specialty: depts[d.SpecialtyID]})
	}
	return out
}

// ListDoctorShifts embeds the shift and that shift's clinic. Pass
// uuid.Nil to skip the doctor filter.
func (s *Snapshot) ListDoctorShifts(doctorID uuid.UUID) []DoctorShiftDetail {
	doctors := s.doctorsByID()
	shifts := s.shiftsByID()
	clinics := s.clinicsByID()
	out := make([]DoctorShiftDetail, 0, len(s.DoctorShifts))
	for _, ds := range s.DoctorShifts {
		if doctorID != uuid.Nil && ds.DoctorID != doctorID {
			continue
		}
		var shift *ShiftDetail
		if sh := shifts[ds.ShiftID]; sh != nil {
			shift = &ShiftDetail{Shift: *sh, Clinic: clinics[sh.ClinicID]}
		}
		out = append(out, DoctorShiftDetail{DoctorShift: ds, Doctor: doctors[ds.DoctorID], Shift: shift})
	}
	return out
}

func (s *Snapshot) ListAppointments() []AppointmentDetail {
	patients := s.patientsByID()
	depts := s.departmentsByID()
	clinics := s.clinicsByID()
	doctors := s.doctorsByID()
	shifts := s.shiftsByID()
	out := make([]AppointmentDetail, 0, len(s.Appointments))
	for _, a := range s.Appointments {
		out = append(out, AppointmentDetail{
			Appointment: a,
			Patient:     patients[a.PatientID],
			Department:  depts[a.DepartmentID],
			Clinic:      clinics[a.ClinicID],
			Doctor:      doctors[a.DoctorID],
			Shift:       shifts[a.ShiftID],
		})
	}
	return out
}

func (s *Snapshot) ListMedicalRecords() []MedicalRecordDetail {
	patients := s.patientsByID()
	doctors := s.doctorsByID()
	appts := s.appointmentsByID()
	out := make([]MedicalRecordDetail, 0, len(s.MedicalRecords))
	for _, r := range s.MedicalRecords {
		out = append(out, MedicalRecordDetail{
			MedicalRecord: r,
			Patient:       patients[r.PatientID],
			Doctor:        doctors[r.DoctorID],
			Appointment:   appts[r.AppointmentID],
		})
	}
	return out
}

// Foreign-key filters are plain predicates over the joined result.

func (s *Snapshot) ClinicsByDepartment(departmentID uuid.UUID) []ClinicDetail {
	var out []ClinicDetail
	for _, c := range s.ListClinics() {
		if c.DepartmentID == departmentID {
			out = append(out, c)
		}
	}
	return out
}

func (s *Snapshot) ShiftsByClinic(clinicID uuid.UUID) []ShiftDetail {
	var out []ShiftDetail
	for _, sh := range s.ListShifts() {
		if sh.ClinicID == clinicID {
			out = append(out, sh)
		}
	}
	return out
}

func (s *Snapshot) DoctorsByDepartment(departmentID uuid.UUID) []DoctorDetail {
	var out []DoctorDetail
	for _, d := range s.ListDoctors() {
		if d.SpecialtyID == departmentID {
			out = append(out, d)
		}
	}
	return out
}

func (s *Snapshot) ActiveDoctors() []DoctorDetail {
	var out []DoctorDetail
	for _, d := range s.ListDoctors() {
		if d.Status == DoctorActive {
			out = append(out, d)
		}
	}
	return out
}

// DoctorsByShift resolves who currently covers a shift. Inactive
// assignments never surface here.
func (s *Snapshot) DoctorsByShift(shiftID uuid.UUID) []Doctor {
	assigned := make(map[uuid.UUID]bool)
	for _, ds := range s.DoctorShifts {
		if ds.ShiftID == shiftID && ds.IsActive {
			assigned[ds.DoctorID] = true
		}
	}
	var out []Doctor
	for _, d := range s.Doctors {
		if assigned[d.ID] {
			out = append(out, d)
		}
	}
	return out
}

func (s *Snapshot) AppointmentsByPatient(patientID uuid.UUID) []AppointmentDetail {
	var out []AppointmentDetail
	for _, a := range s.ListAppointments() {
		if a.PatientID == patientID {
			out = append(out, a)
		}
	}
	return out
}

func (s *Snapshot) AppointmentsByDoctor(doctorID uuid.UUID) []AppointmentDetail {
	var out []AppointmentDetail
	for _, a := range s.ListAppointments() {
		if a.DoctorID == doctorID {
			out = append(out, a)
		}
	}
	return out
}

func (s *Snapshot) AppointmentsOn(date VisitDate) []AppointmentDetail {
	var out []AppointmentDetail
	for _, a := range s.ListAppointments() {
		if a.VisitDate == date {
			out = append(out, a)
		}
	}
	return out
}

func (s *Snapshot) AppointmentByID(id uuid.UUID) *AppointmentDetail {
	for _, a := range s.ListAppointments() {
		if a.ID == id {
			return &a
		}
	}
	return nil
}

func (s *Snapshot) MedicalRecordsByPatient(patientID uuid.UUID) []MedicalRecordDetail {
	var out []MedicalRecordDetail
	for _, r := range s.ListMedicalRecords() {
		if r.PatientID == patientID {
			out = append(out, r)
		}
	}
	return out
}

func (s *Snapshot) ListPatients() []Patient {
	out := make([]Patient, len(s.Patients))
	copy(out, s.Patients)
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out
}

// SearchPatients matches on name, phone, or national id substring,
// case-insensitively for text fields.
func (s *Snapshot) SearchPatients(query string) []Patient {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}
	var out []Patient
	for _, p := range s.Patients {
		if strings.Contains(strings.ToLower(p.FullName), q) ||
			strings.Contains(p.Phone, query) ||
			strings.Contains(strings.ToLower(p.NationalID), q) {
			out = append(out, p)
		}
	}
	return out
}
