package clinic

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type AppointmentStatus string

const (
	StatusScheduled  AppointmentStatus = "SCHEDULED"
	StatusWaiting    AppointmentStatus = "WAITING"
	StatusInProgress AppointmentStatus = "IN_PROGRESS"
	StatusCompleted  AppointmentStatus = "COMPLETED"
	StatusCancelled  AppointmentStatus = "CANCELLED"
	StatusNoShow     AppointmentStatus = "NO_SHOW"
)

type ShiftType string

const (
	ShiftAM      ShiftType = "AM"
	ShiftPM      ShiftType = "PM"
	ShiftFullDay ShiftType = "FULL_DAY"
)

type DoctorStatus string

const (
	DoctorActive   DoctorStatus = "ACTIVE"
	DoctorOnLeave  DoctorStatus = "ON_LEAVE"
	DoctorInactive DoctorStatus = "INACTIVE"
)

type DayOfWeek string

const (
	Sunday    DayOfWeek = "SUNDAY"
	Monday    DayOfWeek = "MONDAY"
	Tuesday   DayOfWeek = "TUESDAY"
	Wednesday DayOfWeek = "WEDNESDAY"
	Thursday  DayOfWeek = "THURSDAY"
	Friday    DayOfWeek = "FRIDAY"
	Saturday  DayOfWeek = "SATURDAY"
)

type Role string

const (
	RoleAdmin          Role = "ADMIN"
	RoleDepartmentHead Role = "DEPARTMENT_HEAD"
	RoleDoctor         Role = "DOCTOR"
	RoleReceptionist   Role = "RECEPTIONIST"
)

// VisitDate is a civil date (yyyy-mm-dd). It is part of the queue
// partition key, so it must compare and hash by value, never carry a
// time zone, and never be derived from the wall clock inside the engine.
type VisitDate string

const visitDateLayout = "2006-01-02"

func VisitDateOf(t time.Time) VisitDate {
	return VisitDate(t.Format(visitDateLayout))
}

func ParseVisitDate(s string) (VisitDate, error) {
	t, err := time.Parse(visitDateLayout, s)
	if err != nil {
		return "", fmt.Errorf("parse visit date %q: %w", s, err)
	}
	return VisitDateOf(t), nil
}

// Before reports whether d falls strictly before other. ISO dates order
// lexically, so plain string comparison is correct.
func (d VisitDate) Before(other VisitDate) bool { return d < other }

func (d VisitDate) String() string { return string(d) }

type Department struct {
	ID        uuid.UUID
	Name      string
	Location  string
	IsActive  bool
	CreatedAt time.Time
}

type Clinic struct {
	ID            uuid.UUID
	Name          string
	DepartmentID  uuid.UUID
	Location      string
	OperatingDays []DayOfWeek
	IsActive      bool
	CreatedAt     time.Time
}

type Shift struct {
	ID          uuid.UUID
	ClinicID    uuid.UUID
	Type        ShiftType
	StartTime   string // "08:00"
	EndTime     string // "12:00"
	DayOfWeek   DayOfWeek
	MaxPatients int
	IsActive    bool
}

type Doctor struct {
	ID            uuid.UUID
	FullName      string
	SpecialtyID   uuid.UUID // department the doctor belongs to
	Status        DoctorStatus
	LicenseNumber string
	CreatedAt     time.Time
}

// DoctorShift assigns a doctor to a clinic shift. Only rows with
// IsActive set count as coverage.
type DoctorShift struct {
	ID         uuid.UUID
	DoctorID   uuid.UUID
	ShiftID    uuid.UUID
	AssignedAt time.Time
	IsActive   bool
}

type Patient struct {
	ID                uuid.UUID
	FullName          string
	Age               int
	Gender            string
	Phone             string
	Email             *string
	Address           string
	NationalID        string
	ChronicConditions []string
	Allergies         []string
	CreatedAt         time.Time
}

type Appointment struct {
	ID           uuid.UUID
	PatientID    uuid.UUID
	DepartmentID uuid.UUID
	ClinicID     uuid.UUID
	DoctorID     uuid.UUID
	ShiftID      uuid.UUID
	QueueNumber  int
	VisitDate    VisitDate
	Status       AppointmentStatus
	Notes        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Prescription struct {
	Medication string
	Dosage     string
	Frequency  string
	Duration   string
	Notes      string
}

type VitalSigns struct {
	BloodPressure    string
	HeartRate        *int
	Temperature      *float64
	Weight           *float64
	Height           *float64
	OxygenSaturation *int
}

// MedicalRecord is written exactly once, when its appointment is
// finalized, and is read-only afterwards.
type MedicalRecord struct {
	ID            uuid.UUID
	PatientID     uuid.UUID
	AppointmentID uuid.UUID
	DoctorID      uuid.UUID
	Diagnosis     string
	Symptoms      []string
	Notes         string
	Prescriptions []Prescription
	Vitals        *VitalSigns
	VisitDate     VisitDate
	CreatedAt     time.Time
}

type User struct {
	ID           uuid.UUID
	Username     string
	FullName     string
	PasswordHash string
	Role         Role
	DoctorID     *uuid.UUID // set for DOCTOR users
	DepartmentID *uuid.UUID // set for DEPARTMENT_HEAD users
	IsActive     bool
	CreatedAt    time.Time
}

// Composite views. Embedded relations are resolved one level deep by
// foreign key; a nil pointer means the referenced row was absent from
// the snapshot, which callers must treat as unknown rather than an error.

type ClinicDetail struct {
	Clinic
	Department *Department
}

type ShiftDetail struct {
	Shift
	Clinic *Clinic
}

type DoctorDetail struct {
	Doctor
	Specialty *Department
}

type DoctorShiftDetail struct {
	DoctorShift
	Doctor *Doctor
	Shift  *ShiftDetail
}

type AppointmentDetail struct {
	Appointment
	Patient    *Patient
	Department *Department
	Clinic     *Clinic
	Doctor     *Doctor
	Shift      *Shift
}

type MedicalRecordDetail struct {
	MedicalRecord
	Patient     *Patient
	Doctor      *Doctor
	Appointment *Appointment
}

// PartitionKey scopes queue numbering and waiting-queue order.
type PartitionKey struct {
	ClinicID uuid.UUID
	ShiftID  uuid.UUID
	Date     VisitDate
}

func (k PartitionKey) String() string {
	return fmt.Sprintf("%s:%s:%s", k.ClinicID, k.ShiftID, k.Date)
}
