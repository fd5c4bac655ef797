package clinic

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

var (
	ErrDepartmentNotFound  = errors.New("department not found")
	ErrClinicNotFound      = errors.New("clinic not found")
	ErrShiftNotFound       = errors.New("shift not found")
	ErrDoctorNotFound      = errors.New("doctor not found")
	ErrPatientNotFound     = errors.New("patient not found")
	ErrAppointmentNotFound = errors.New("appointment not found")
	ErrDoctorShiftNotFound = errors.New("doctor shift assignment not found")
	ErrUserNotFound        = errors.New("user not found")
)

// Repository contains all store interactions needed by the service.
// The store is the single shared appointment set; implementations must
// make UpdateAppointmentStatus a compare-and-set on the from-status and
// CompleteAppointment an atomic record-insert-plus-transition.
type Repository interface {
	// Snapshot returns one consistent view of every flat table.
	Snapshot(ctx context.Context) (*Snapshot, error)

	GetDepartmentByID(ctx context.Context, id uuid.UUID) (*Department, error)
	GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error)
	GetShiftByID(ctx context.Context, id uuid.UUID) (*Shift, error)
	GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error)
	GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error)
	GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	GetUserByUsername(ctx context.Context, username string) (*User, error)

	// Queue numbering. Both are only meaningful inside the partition lock.
	CountPartition(ctx context.Context, key PartitionKey) (int, error)
	WaitingInPartition(ctx context.Context, key PartitionKey) ([]Appointment, error)

	CreatePatient(ctx context.Context, p Patient) (*Patient, error)
	CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error)

	// UpdateAppointmentStatus transitions id from one status to another.
	// It fails with ErrAppointmentNotFound when the appointment is absent
	// or no longer in the from status.
	UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error)

	// CompleteAppointment inserts the medical record and moves the
	// appointment from IN_PROGRESS to COMPLETED as one unit. Neither
	// half may be visible without the other.
	CompleteAppointment(ctx context.Context, id uuid.UUID, rec MedicalRecord) (*Appointment, *MedicalRecord, error)

	// FindStaleOpen returns SCHEDULED and WAITING appointments whose
	// visit date is before the given date, for the no-show sweep.
	FindStaleOpen(ctx context.Context, before VisitDate) ([]Appointment, error)

	// Reference-table management. SetX operations fail with the matching
	// NotFound sentinel when the row is absent.
	CreateDepartment(ctx context.Context, d Department) (*Department, error)
	SetDepartmentActive(ctx context.Context, id uuid.UUID, active bool) (*Department, error)
	CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error)
	SetDoctorStatus(ctx context.Context, id uuid.UUID, status DoctorStatus) (*Doctor, error)
	CreateShift(ctx context.Context, s Shift) (*Shift, error)
	SetShiftActive(ctx context.Context, id uuid.UUID, active bool) (*Shift, error)
	CreateDoctorShift(ctx context.Context, ds DoctorShift) (*DoctorShift, error)
	SetDoctorShiftActive(ctx context.Context, id uuid.UUID, active bool) (*DoctorShift, error)
}
