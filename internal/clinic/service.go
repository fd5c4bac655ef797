package clinic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

var (
	ErrQueueEmpty               = errors.New("no waiting appointment in queue")
	ErrRecordRequired           = errors.New("a medical record with a diagnosis is required to finalize a visit")
	ErrAppointmentNotInProgress = errors.New("appointment is not in progress")
	ErrShiftFull                = errors.New("shift has reached its patient capacity")
	ErrPartitionBusy            = errors.New("queue partition is busy, please retry")
)

// ValidationError reports a rejected booking or registration field. It
// is surfaced to the caller verbatim for correction.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Service is the scheduling and queue orchestration engine. It never
// reads the wall clock (callers pass reference dates), never logs, and
// fails without partial mutation.
type Service struct {
	repo   Repository
	locker Locker
}

func NewService(repo Repository, locker Locker) *Service {
	return &Service{repo: repo, locker: locker}
}

type BookingRequest struct {
	PatientID    uuid.UUID
	DepartmentID uuid.UUID
	ClinicID     uuid.UUID
	DoctorID     uuid.UUID
	ShiftID      uuid.UUID
	VisitDate    VisitDate
	Notes        string
}

// BookAppointment validates the booking, then allocates the next queue
// number and inserts the appointment inside the partition lock so two
// concurrent bookings never observe the same count.
func (s *Service) BookAppointment(ctx context.Context, req BookingRequest) (*Appointment, error) {
	if err := s.validateBooking(ctx, &req); err != nil {
		return nil, err
	}

	shift, err := s.repo.GetShiftByID(ctx, req.ShiftID)
	if err != nil {
		return nil, fmt.Errorf("load shift: %w", err)
	}

	key := PartitionKey{ClinicID: req.ClinicID, ShiftID: req.ShiftID, Date: req.VisitDate}

	var created *Appointment
	err = s.locker.WithPartitionLock(ctx, key, func(lockCtx context.Context) error {
		count, err := s.repo.CountPartition(lockCtx, key)
		if err != nil {
			return fmt.Errorf("count partition: %w", err)
		}
		if shift.MaxPatients > 0 && count >= shift.MaxPatients {
			return ErrShiftFull
		}

		appt, err := s.repo.CreateAppointment(lockCtx, Appointment{
			ID:           uuid.New(),
			PatientID:    req.PatientID,
			DepartmentID: req.DepartmentID,
			ClinicID:     req.ClinicID,
			DoctorID:     req.DoctorID,
			ShiftID:      req.ShiftID,
			QueueNumber:  count + 1,
			VisitDate:    req.VisitDate,
			Status:       StatusScheduled,
			Notes:        req.Notes,
		})
		if err != nil {
			return fmt.Errorf("create appointment: %w", err)
		}
		created = appt
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			return nil, ErrPartitionBusy
		}
		return nil, err
	}
	return created, nil
}

func (s *Service) validateBooking(ctx context.Context, req *BookingRequest) error {
	switch {
	case req.PatientID == uuid.Nil:
		return &ValidationError{Field: "patient", Reason: "a patient must be selected"}
	case req.DepartmentID == uuid.Nil:
		return &ValidationError{Field: "department", Reason: "a department must be selected"}
	case req.ClinicID == uuid.Nil:
		return &ValidationError{Field: "clinic", Reason: "a clinic must be selected"}
	case req.DoctorID == uuid.Nil:
		return &ValidationError{Field: "doctor", Reason: "a doctor must be selected"}
	case req.ShiftID == uuid.Nil:
		return &ValidationError{Field: "shift", Reason: "a shift must be selected"}
	case req.VisitDate == "":
		return &ValidationError{Field: "visitDate", Reason: "a visit date must be selected"}
	}

	if _, err := s.repo.GetPatientByID(ctx, req.PatientID); err != nil {
		return err
	}
	dept, err := s.repo.GetDepartmentByID(ctx, req.DepartmentID)
	if err != nil {
		return err
	}
	if !dept.IsActive {
		return &ValidationError{Field: "department", Reason: "department is not active"}
	}
	cl, err := s.repo.GetClinicByID(ctx, req.ClinicID)
	if err != nil {
		return err
	}
	if cl.DepartmentID != req.DepartmentID {
		return &ValidationError{Field: "clinic", Reason: "clinic does not belong to the selected department"}
	}
	if !cl.IsActive {
		return &ValidationError{Field: "clinic", Reason: "clinic is not active"}
	}
	doc, err := s.repo.GetDoctorByID(ctx, req.DoctorID)
	if err != nil {
		return err
	}
	if doc.Status != DoctorActive {
		return &ValidationError{Field: "doctor", Reason: "doctor is not active"}
	}
	if doc.SpecialtyID != req.DepartmentID {
		return &ValidationError{Field: "doctor", Reason: "doctor does not belong to the selected department"}
	}
	shift, err := s.repo.GetShiftByID(ctx, req.ShiftID)
	if err != nil {
		return err
	}
	if shift.ClinicID != req.ClinicID {
		return &ValidationError{Field: "shift", Reason: "shift does not belong to the selected clinic"}
	}
	if !shift.IsActive {
		return &ValidationError{Field: "shift", Reason: "shift is not active"}
	}
	return nil
}

// CheckIn marks an arrived patient WAITING.
func (s *Service) CheckIn(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, EventCheckIn)
}

// Cancel abandons a SCHEDULED or WAITING appointment. The queue number
// is not reclaimed.
func (s *Service) Cancel(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, EventCancel)
}

// MarkNoShow records a patient absence without a medical record.
func (s *Service) MarkNoShow(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return s.transition(ctx, id, EventNoShow)
}

func (s *Service) transition(ctx context.Context, id uuid.UUID, ev Event) (*Appointment, error) {
	appt, err := s.repo.GetAppointmentByID(ctx, id)
	if err != nil {
		return nil, err
	}
	to, err := NextStatus(appt.Status, ev)
	if err != nil {
		return nil, err
	}
	updated, err := s.repo.UpdateAppointmentStatus(ctx, id, appt.Status, to)
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			// Lost a race: the status changed between read and update.
			// Report the current status, not the stale pre-read one.
			from := appt.Status
			if cur, rerr := s.repo.GetAppointmentByID(ctx, id); rerr == nil {
				from = cur.Status
			}
			return nil, &InvalidTransitionError{From: from, Event: ev}
		}
		return nil, fmt.Errorf("%s appointment: %w", ev, err)
	}
	return updated, nil
}

// CallNext selects the lowest-queue-number WAITING appointment in the
// partition and moves it to IN_PROGRESS. Selection and transition run
// inside the partition lock so two terminals never call the same
// patient.
func (s *Service) CallNext(ctx context.Context, clinicID, shiftID uuid.UUID, date VisitDate) (*Appointment, error) {
	key := PartitionKey{ClinicID: clinicID, ShiftID: shiftID, Date: date}

	var called *Appointment
	err := s.locker.WithPartitionLock(ctx, key, func(lockCtx context.Context) error {
		waiting, err := s.repo.WaitingInPartition(lockCtx, key)
		if err != nil {
			return fmt.Errorf("list waiting: %w", err)
		}
		if len(waiting) == 0 {
			return ErrQueueEmpty
		}
		head := waiting[0]
		updated, err := s.repo.UpdateAppointmentStatus(lockCtx, head.ID, StatusWaiting, StatusInProgress)
		if err != nil {
			return fmt.Errorf("call next: %w", err)
		}
		called = updated
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrLockNotAcquired) {
			return nil, ErrPartitionBusy
		}
		return nil, err
	}
	return called, nil
}

type RecordInput struct {
	Diagnosis     string
	Symptoms      []string
	Notes         string
	Prescriptions []Prescription
	Vitals        *VitalSigns
}

// FinalizeVisit creates the medical record and completes the
// appointment as one atomic unit. The appointment must be IN_PROGRESS
// and the record must carry a diagnosis.
func (s *Service) FinalizeVisit(ctx context.Context, appointmentID uuid.UUID, in RecordInput) (*MedicalRecord, error) {
	if strings.TrimSpace(in.Diagnosis) == "" {
		return nil, ErrRecordRequired
	}

	appt, err := s.repo.GetAppointmentByID(ctx, appointmentID)
	if err != nil {
		return nil, err
	}
	if appt.Status != StatusInProgress {
		return nil, ErrAppointmentNotInProgress
	}

	_, rec, err := s.repo.CompleteAppointment(ctx, appointmentID, MedicalRecord{
		ID:            uuid.New(),
		PatientID:     appt.PatientID,
		AppointmentID: appt.ID,
		DoctorID:      appt.DoctorID,
		Diagnosis:     in.Diagnosis,
		Symptoms:      in.Symptoms,
		Notes:         in.Notes,
		Prescriptions: in.Prescriptions,
		Vitals:        in.Vitals,
		VisitDate:     appt.VisitDate,
	})
	if err != nil {
		if errors.Is(err, ErrAppointmentNotFound) {
			return nil, ErrAppointmentNotInProgress
		}
		return nil, fmt.Errorf("finalize visit: %w", err)
	}
	return rec, nil
}

// QueueSnapshot partitions the reference date's appointments into the
// live queue view. Pure projection: safe to call on every refresh tick.
type QueueSnapshot struct {
	Waiting        []AppointmentDetail
	InProgress     []AppointmentDetail
	CompletedCount int
}

// Queue derives the queue view for a reference date, optionally scoped
// to one clinic and shift (uuid.Nil skips the filter).
func (s *Service) Queue(ctx context.Context, date VisitDate, clinicID, shiftID uuid.UUID) (*QueueSnapshot, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}

	q := &QueueSnapshot{}
	for _, a := range snap.AppointmentsOn(date) {
		if clinicID != uuid.Nil && a.ClinicID != clinicID {
			continue
		}
		if shiftID != uuid.Nil && a.ShiftID != shiftID {
			continue
		}
		switch a.Status {
		case StatusWaiting:
			q.Waiting = append(q.Waiting, a)
		case StatusInProgress:
			q.InProgress = append(q.InProgress, a)
		case StatusCompleted:
			q.CompletedCount++
		}
	}
	sort.Slice(q.Waiting, func(i, j int) bool {
		return q.Waiting[i].QueueNumber < q.Waiting[j].QueueNumber
	})
	return q, nil
}

// GetAppointment returns the composite view of one appointment.
func (s *Service) GetAppointment(ctx context.Context, id uuid.UUID) (*AppointmentDetail, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	detail := snap.AppointmentByID(id)
	if detail == nil {
		return nil, ErrAppointmentNotFound
	}
	return detail, nil
}

type PatientInput struct {
	FullName          string
	Age               int
	Gender            string
	Phone             string
	Email             *string
	Address           string
	NationalID        string
	ChronicConditions []string
	Allergies         []string
}

// RegisterPatient adds a patient to the registry.
func (s *Service) RegisterPatient(ctx context.Context, in PatientInput) (*Patient, error) {
	if strings.TrimSpace(in.FullName) == "" {
		return nil, &ValidationError{Field: "fullName", Reason: "full name is required"}
	}
	if strings.TrimSpace(in.NationalID) == "" {
		return nil, &ValidationError{Field: "nationalId", Reason: "national id is required"}
	}
	if strings.TrimSpace(in.Phone) == "" {
		return nil, &ValidationError{Field: "phone", Reason: "phone is required"}
	}

	return s.repo.CreatePatient(ctx, Patient{
		ID:                uuid.New(),
		FullName:          in.FullName,
		Age:               in.Age,
		Gender:            in.Gender,
		Phone:             in.Phone,
		Email:             in.Email,
		Address:           in.Address,
		NationalID:        in.NationalID,
		ChronicConditions: in.ChronicConditions,
		Allergies:         in.Allergies,
	})
}

// Directory exposes the current joined view of the reference tables.
func (s *Service) Directory(ctx context.Context) (*Snapshot, error) {
	return s.repo.Snapshot(ctx)
}

// DashboardStats summarizes the floor for a reference date.
type DashboardStats struct {
	TotalPatients     int
	TodayAppointments int
	ActiveDoctors     int
	WaitingPatients   int
	CompletedToday    int
	Departments       int
}

func (s *Service) Dashboard(ctx context.Context, today VisitDate) (*DashboardStats, error) {
	snap, err := s.repo.Snapshot(ctx)
	if err != nil {
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	stats := &DashboardStats{
		TotalPatients: len(snap.Patients),
		ActiveDoctors: len(snap.ActiveDoctors()),
		Departments:   len(snap.Departments),
	}
	for _, a := range snap.Appointments {
		if a.VisitDate != today {
			continue
		}
		stats.TodayAppointments++
		switch a.Status {
		case StatusWaiting:
			stats.WaitingPatients++
		case StatusCompleted:
			stats.CompletedToday++
		}
	}
	return stats, nil
}

// SweepNoShows closes out appointments left open from days before the
// reference date: WAITING ones become NO_SHOW, SCHEDULED ones that were
// never checked in are cancelled. Returns how many were closed.
func (s *Service) SweepNoShows(ctx context.Context, before VisitDate) (int, error) {
	stale, err := s.repo.FindStaleOpen(ctx, before)
	if err != nil {
		return 0, fmt.Errorf("find stale appointments: %w", err)
	}

	var closed int
	for _, appt := range stale {
		var to AppointmentStatus
		switch appt.Status {
		case StatusWaiting:
			to = StatusNoShow
		case StatusScheduled:
			to = StatusCancelled
		default:
			continue
		}
		if _, err := s.repo.UpdateAppointmentStatus(ctx, appt.ID, appt.Status, to); err != nil {
			if errors.Is(err, ErrAppointmentNotFound) {
				continue
			}
			return closed, fmt.Errorf("sweep appointment %s: %w", appt.ID, err)
		}
		closed++
	}
	return closed, nil
}
