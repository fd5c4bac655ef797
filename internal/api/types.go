package api

import (
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string       `json:"token"`
	User  UserResponse `json:"user"`
}

type UserResponse struct {
	ID           uuid.UUID   `json:"id"`
	Username     string      `json:"username"`
	FullName     string      `json:"full_name"`
	Role         clinic.Role `json:"role"`
	DoctorID     *uuid.UUID  `json:"doctor_id,omitempty"`
	DepartmentID *uuid.UUID  `json:"department_id,omitempty"`
}

type BookAppointmentRequest struct {
	PatientID    string `json:"patient_id"`
	DepartmentID string `json:"department_id"`
	ClinicID     string `json:"clinic_id"`
	DoctorID     string `json:"doctor_id"`
	ShiftID      string `json:"shift_id"`
	VisitDate    string `json:"visit_date"` // yyyy-mm-dd
	Notes        string `json:"notes,omitempty"`
}

type AppointmentResponse struct {
	ID           uuid.UUID                `json:"id"`
	PatientID    uuid.UUID                `json:"patient_id"`
	DepartmentID uuid.UUID                `json:"department_id"`
	ClinicID     uuid.UUID                `json:"clinic_id"`
	DoctorID     uuid.UUID                `json:"doctor_id"`
	ShiftID      uuid.UUID                `json:"shift_id"`
	QueueNumber  int                      `json:"queue_number"`
	VisitDate    string                   `json:"visit_date"`
	Status       clinic.AppointmentStatus `json:"status"`
	Notes        string                   `json:"notes,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

func toAppointmentResponse(a *clinic.Appointment) AppointmentResponse {
	return AppointmentResponse{
		ID:           a.ID,
		PatientID:    a.PatientID,
		DepartmentID: a.DepartmentID,
		ClinicID:     a.ClinicID,
		DoctorID:     a.DoctorID,
		ShiftID:      a.ShiftID,
		QueueNumber:  a.QueueNumber,
		VisitDate:    a.VisitDate.String(),
		Status:       a.Status,
		Notes:        a.Notes,
		CreatedAt:    a.CreatedAt,
	}
}

type AppointmentDetailResponse struct {
	AppointmentResponse
	PatientName string `json:"patient_name,omitempty"`
	ClinicName  string `json:"clinic_name,omitempty"`
	DoctorName  string `json:"doctor_name,omitempty"`
}

func toAppointmentDetailResponse(a clinic.AppointmentDetail) AppointmentDetailResponse {
	resp := AppointmentDetailResponse{AppointmentResponse: toAppointmentResponse(&a.Appointment)}
	if a.Patient != nil {
		resp.PatientName = a.Patient.FullName
	}
	if a.Clinic != nil {
		resp.ClinicName = a.Clinic.Name
	}
	if a.Doctor != nil {
		resp.DoctorName = a.Doctor.FullName
	}
	return resp
}

type CallNextRequest struct {
	ClinicID  string `json:"clinic_id"`
	ShiftID   string `json:"shift_id"`
	VisitDate string `json:"visit_date,omitempty"` // defaults to today
}

type QueueResponse struct {
	Waiting        []AppointmentDetailResponse `json:"waiting"`
	InProgress     []AppointmentDetailResponse `json:"in_progress"`
	CompletedCount int                         `json:"completed_count"`
}

type FinalizeVisitRequest struct {
	Diagnosis     string                `json:"diagnosis"`
	Symptoms      []string              `json:"symptoms,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	Prescriptions []PrescriptionPayload `json:"prescriptions,omitempty"`
	Vitals        *VitalsPayload        `json:"vitals,omitempty"`
}

type PrescriptionPayload struct {
	Medication string `json:"medication"`
	Dosage     string `json:"dosage"`
	Frequency  string `json:"frequency"`
	Duration   string `json:"duration"`
	Notes      string `json:"notes,omitempty"`
}

type VitalsPayload struct {
	BloodPressure    string   `json:"blood_pressure,omitempty"`
	HeartRate        *int     `json:"heart_rate,omitempty"`
	Temperature      *float64 `json:"temperature,omitempty"`
	Weight           *float64 `json:"weight,omitempty"`
	Height           *float64 `json:"height,omitempty"`
	OxygenSaturation *int     `json:"oxygen_saturation,omitempty"`
}

type MedicalRecordResponse struct {
	ID            uuid.UUID             `json:"id"`
	PatientID     uuid.UUID             `json:"patient_id"`
	AppointmentID uuid.UUID             `json:"appointment_id"`
	DoctorID      uuid.UUID             `json:"doctor_id"`
	Diagnosis     string                `json:"diagnosis"`
	Symptoms      []string              `json:"symptoms,omitempty"`
	Notes         string                `json:"notes,omitempty"`
	Prescriptions []PrescriptionPayload `json:"prescriptions,omitempty"`
	VisitDate     string                `json:"visit_date"`
	CreatedAt     time.Time             `json:"created_at"`
}

func toMedicalRecordResponse(r *clinic.MedicalRecord) MedicalRecordResponse {
	resp := MedicalRecordResponse{
		ID:            r.ID,
		PatientID:     r.PatientID,
		AppointmentID: r.AppointmentID,
		DoctorID:      r.DoctorID,
		Diagnosis:     r.Diagnosis,
		Symptoms:      r.Symptoms,
		Notes:         r.Notes,
		VisitDate:     r.VisitDate.String(),
		CreatedAt:     r.CreatedAt,
	}
	for _, p := range r.Prescriptions {
		resp.Prescriptions = append(resp.Prescriptions, PrescriptionPayload{
			Medication: p.Medication,
			Dosage:     p.Dosage,
			Frequency:  p.Frequency,
			Duration:   p.Duration,
			Notes:      p.Notes,
		})
	}
	return resp
}

type RegisterPatientRequest struct {
	FullName          string   `json:"full_name"`
	Age               int      `json:"age"`
	Gender            string   `json:"gender"`
	Phone             string   `json:"phone"`
	Email             *string  `json:"email,omitempty"`
	Address           string   `json:"address"`
	NationalID        string   `json:"national_id"`
	ChronicConditions []string `json:"chronic_conditions,omitempty"`
	Allergies         []string `json:"allergies,omitempty"`
}

type PatientResponse struct {
	ID         uuid.UUID `json:"id"`
	FullName   string    `json:"full_name"`
	Age        int       `json:"age"`
	Gender     string    `json:"gender"`
	Phone      string    `json:"phone"`
	NationalID string    `json:"national_id"`
	CreatedAt  time.Time `json:"created_at"`
}

func toPatientResponse(p clinic.Patient) PatientResponse {
	return PatientResponse{
		ID:         p.ID,
		FullName:   p.FullName,
		Age:        p.Age,
		Gender:     p.Gender,
		Phone:      p.Phone,
		NationalID: p.NationalID,
		CreatedAt:  p.CreatedAt,
	}
}

type DashboardResponse struct {
	TotalPatients     int `json:"total_patients"`
	TodayAppointments int `json:"today_appointments"`
	ActiveDoctors     int `json:"active_doctors"`
	WaitingPatients   int `json:"waiting_patients"`
	CompletedToday    int `json:"completed_today"`
	Departments       int `json:"departments"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}
