package clinic

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// Reference-table management. These back the administration screens:
// they validate input and relationships, then delegate to the store.
// Deactivation is always a flag toggle, never a delete, so existing
// appointments keep their foreign keys.

type DepartmentInput struct {
	Name     string
	Location string
}

func (s *Service) CreateDepartment(ctx context.Context, in DepartmentInput) (*Department, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, &ValidationError{Field: "name", Reason: "department name is required"}
	}
	return s.repo.CreateDepartment(ctx, Department{
		ID:       uuid.New(),
		Name:     in.Name,
		Location: in.Location,
		IsActive: true,
	})
}

func (s *Service) SetDepartmentActive(ctx context.Context, id uuid.UUID, active bool) (*Department, error) {
	return s.repo.SetDepartmentActive(ctx, id, active)
}

type DoctorInput struct {
	FullName      string
	SpecialtyID   uuid.UUID
	LicenseNumber string
}

func (s *Service) CreateDoctor(ctx context.Context, in DoctorInput) (*Doctor, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return nil, &ValidationError{Field: "fullName", Reason: "doctor name is required"}
	}
	if in.SpecialtyID == uuid.Nil {
		return nil, &ValidationError{Field: "specialtyId", Reason: "a department must be selected"}
	}
	if _, err := s.repo.GetDepartmentByID(ctx, in.SpecialtyID); err != nil {
		return nil, err
	}
	return s.repo.CreateDoctor(ctx, Doctor{
		ID:            uuid.New(),
		FullName:      in.FullName,
		SpecialtyID:   in.SpecialtyID,
		Status:        DoctorActive,
		LicenseNumber: in.LicenseNumber,
	})
}

func (s *Service) SetDoctorStatus(ctx context.Context, id uuid.UUID, status DoctorStatus) (*Doctor, error) {
	switch status {
	case DoctorActive, DoctorOnLeave, DoctorInactive:
	default:
		return nil, &ValidationError{Field: "status", Reason: "unknown doctor status"}
	}
	return s.repo.SetDoctorStatus(ctx, id, status)
}

type ShiftInput struct {
	ClinicID    uuid.UUID
	Type        ShiftType
	StartTime   string
	EndTime     string
	DayOfWeek   DayOfWeek
	MaxPatients int
}

func (s *Service) CreateShift(ctx context.Context, in ShiftInput) (*Shift, error) {
	if in.ClinicID == uuid.Nil {
		return nil, &ValidationError{Field: "clinicId", Reason: "a clinic must be selected"}
	}
	if _, err := s.repo.GetClinicByID(ctx, in.ClinicID); err != nil {
		return nil, err
	}
	switch in.Type {
	case ShiftAM, ShiftPM, ShiftFullDay:
	default:
		return nil, &ValidationError{Field: "type", Reason: "unknown shift type"}
	}
	if in.MaxPatients < 0 {
		return nil, &ValidationError{Field: "maxPatients", Reason: "capacity cannot be negative"}
	}
	return s.repo.CreateShift(ctx, Shift{
		ID:          uuid.New(),
		ClinicID:    in.ClinicID,
		Type:        in.Type,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		DayOfWeek:   in.DayOfWeek,
		MaxPatients: in.MaxPatients,
		IsActive:    true,
	})
}

// SetShiftActive retires or restores a shift. Deactivating keeps the
// shift's booked partitions intact; new bookings are rejected by the
// booking validation.
func (s *Service) SetShiftActive(ctx context.Context, id uuid.UUID, active bool) (*Shift, error) {
	return s.repo.SetShiftActive(ctx, id, active)
}

func (s *Service) AssignDoctorShift(ctx context.Context, doctorID, shiftID uuid.UUID) (*DoctorShift, error) {
	if doctorID == uuid.Nil {
		return nil, &ValidationError{Field: "doctorId", Reason: "a doctor must be selected"}
	}
	if shiftID == uuid.Nil {
		return nil, &ValidationError{Field: "shiftId", Reason: "a shift must be selected"}
	}
	if _, err := s.repo.GetDoctorByID(ctx, doctorID); err != nil {
		return nil, err
	}
	if _, err := s.repo.GetShiftByID(ctx, shiftID); err != nil {
		return nil, err
	}
	return s.repo.CreateDoctorShift(ctx, DoctorShift{
		ID:       uuid.New(),
		DoctorID: doctorID,
		ShiftID:  shiftID,
		IsActive: true,
	})
}

func (s *Service) SetDoctorShiftActive(ctx context.Context, id uuid.UUID, active bool) (*DoctorShift, error) {
	return s.repo.SetDoctorShiftActive(ctx, id, active)
}
