package clinic_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

type testEnv struct {
	Svc   *clinic.Service
	Store *clinic.MemStore
	Ctx   context.Context

	Dept    clinic.Department
	Clinic  clinic.Clinic
	Shift   clinic.Shift
	Doctor  clinic.Doctor
	Doctor2 clinic.Doctor
	P1, P2  clinic.Patient
	Date    clinic.VisitDate
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	env := &testEnv{
		Ctx:  context.Background(),
		Date: clinic.VisitDate("2025-03-10"),
	}

	env.Dept = clinic.Department{ID: uuid.New(), Name: "Cardiology", IsActive: true}
	env.Clinic = clinic.Clinic{ID: uuid.New(), Name: "Cardiology Clinic A", DepartmentID: env.Dept.ID, IsActive: true}
	env.Shift = clinic.Shift{
		ID: uuid.New(), ClinicID: env.Clinic.ID, Type: clinic.ShiftAM,
		StartTime: "08:00", EndTime: "12:00", DayOfWeek: clinic.Monday,
		MaxPatients: 20, IsActive: true,
	}
	env.Doctor = clinic.Doctor{ID: uuid.New(), FullName: "Dr. Ayad", SpecialtyID: env.Dept.ID, Status: clinic.DoctorActive}
	env.Doctor2 = clinic.Doctor{ID: uuid.New(), FullName: "Dr. Basel", SpecialtyID: env.Dept.ID, Status: clinic.DoctorActive}
	env.P1 = clinic.Patient{ID: uuid.New(), FullName: "Alice Adams", Phone: "0100000001", NationalID: "A-1"}
	env.P2 = clinic.Patient{ID: uuid.New(), FullName: "Bilal Baker", Phone: "0100000002", NationalID: "B-2"}

	env.Store = clinic.NewMemStore(&clinic.Snapshot{
		Departments: []clinic.Department{env.Dept},
		Clinics:     []clinic.Clinic{env.Clinic},
		Shifts:      []clinic.Shift{env.Shift},
		Doctors:     []clinic.Doctor{env.Doctor, env.Doctor2},
		Patients:    []clinic.Patient{env.P1, env.P2},
	})
	env.Store.Now = func() time.Time { return time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC) }

	env.Svc = clinic.NewService(env.Store, clinic.NewMutexLocker())
	return env
}

func (env *testEnv) booking(patientID uuid.UUID) clinic.BookingRequest {
	return clinic.BookingRequest{
		PatientID:    patientID,
		DepartmentID: env.Dept.ID,
		ClinicID:     env.Clinic.ID,
		DoctorID:     env.Doctor.ID,
		ShiftID:      env.Shift.ID,
		VisitDate:    env.Date,
	}
}

func (env *testEnv) mustBook(t *testing.T, patientID uuid.UUID) *clinic.Appointment {
	t.Helper()
	appt, err := env.Svc.BookAppointment(env.Ctx, env.booking(patientID))
	if err != nil {
		t.Fatalf("book: %v", err)
	}
	return appt
}

func (env *testEnv) mustCheckIn(t *testing.T, id uuid.UUID) {
	t.Helper()
	if _, err := env.Svc.CheckIn(env.Ctx, id); err != nil {
		t.Fatalf("check in: %v", err)
	}
}

// The end-to-end front-desk scenario: book two patients, call them in
// queue order, finalize the first.
func TestBookingAndQueueFlow(t *testing.T) {
	env := newTestEnv(t)

	a1 := env.mustBook(t, env.P1.ID)
	if a1.QueueNumber != 1 {
		t.Fatalf("first booking queue number = %d, want 1", a1.QueueNumber)
	}
	if a1.Status != clinic.StatusScheduled {
		t.Fatalf("new appointment status = %s, want SCHEDULED", a1.Status)
	}

	env.mustCheckIn(t, a1.ID)

	a2 := env.mustBook(t, env.P2.ID)
	if a2.QueueNumber != 2 {
		t.Fatalf("second booking queue number = %d, want 2", a2.QueueNumber)
	}

	called, err := env.Svc.CallNext(env.Ctx, env.Clinic.ID, env.Shift.ID, env.Date)
	if err != nil {
		t.Fatalf("call next: %v", err)
	}
	if called.ID != a1.ID {
		t.Fatalf("call next returned queue #%d, want #1", called.QueueNumber)
	}
	if called.Status != clinic.StatusInProgress {
		t.Fatalf("called appointment status = %s, want IN_PROGRESS", called.Status)
	}

	rec, err := env.Svc.FinalizeVisit(env.Ctx, a1.ID, clinic.RecordInput{Diagnosis: "flu"})
	if err != nil {
		t.Fatalf("finalize: %v", err)
	}
	if rec.AppointmentID != a1.ID {
		t.Fatalf("record references %s, want %s", rec.AppointmentID, a1.ID)
	}

	snap, _ := env.Store.Snapshot(env.Ctx)
	if len(snap.MedicalRecords) != 1 {
		t.Fatalf("expected exactly one medical record, got %d", len(snap.MedicalRecords))
	}
	got, err := env.Store.GetAppointmentByID(env.Ctx, a1.ID)
	if err != nil || got.Status != clinic.StatusCompleted {
		t.Fatalf("finalized appointment status = %v %v, want COMPLETED", got, err)
	}

	// P2 is still SCHEDULED, so the waiting queue is empty.
	if _, err := env.Svc.CallNext(env.Ctx, env.Clinic.ID, env.Shift.ID, env.Date); !errors.Is(err, clinic.ErrQueueEmpty) {
		t.Fatalf("call next with nobody waiting: err = %v, want ErrQueueEmpty", err)
	}

	env.mustCheckIn(t, a2.ID)
	called, err = env.Svc.CallNext(env.Ctx, env.Clinic.ID, env.Shift.ID, env.Date)
	if err != nil || called.ID != a2.ID {
		t.Fatalf("call next = %v %v, want P2's appointment", called, err)
	}
}

func TestCancelPreservesQueueNumberGap(t *testing.T) {
	env := newTestEnv(t)

	env.mustBook(t, env.P1.ID)
	a2 := env.mustBook(t, env.P2.ID)
	env.mustCheckIn(t, a2.ID)

	cancelled, err := env.Svc.Cancel(env.Ctx, a2.ID)
	if err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if cancelled.Status != clinic.StatusCancelled {
		t.Fatalf("status = %s, want CANCELLED", cancelled.Status)
	}

	a3 := env.mustBook(t, env.P1.ID)
	if a3.QueueNumber != 3 {
		t.Fatalf("booking after a cancellation got queue number %d, want 3 (no reuse)", a3.QueueNumber)
	}
}

func TestFinalizeRequiresInProgressAndDiagnosis(t *testing.T) {
	env := newTestEnv(t)
	appt := env.mustBook(t, env.P1.ID)

	if _, err := env.Svc.FinalizeVisit(env.Ctx, appt.ID, clinic.RecordInput{}); !errors.Is(err, clinic.ErrRecordRequired) {
		t.Fatalf("finalize without diagnosis: err = %v, want ErrRecordRequired", err)
	}
	if _, err := env.Svc.FinalizeVisit(env.Ctx, appt.ID, clinic.RecordInput{Diagnosis: "flu"}); !errors.Is(err, clinic.ErrAppointmentNotInProgress) {
		t.Fatalf("finalize a SCHEDULED appointment: err = %v, want ErrAppointmentNotInProgress", err)
	}

	got, _ := env.Store.GetAppointmentByID(env.Ctx, appt.ID)
	if got.Status != clinic.StatusScheduled {
		t.Fatalf("failed finalize mutated status to %s", got.Status)
	}
	snap, _ := env.Store.Snapshot(env.Ctx)
	if len(snap.MedicalRecords) != 0 {
		t.Fatalf("failed finalize left %d medical records behind", len(snap.MedicalRecords))
	}
}

func TestBookingValidation(t *testing.T) {
	env := newTestEnv(t)

	var validation *clinic.ValidationError

	req := env.booking(env.P1.ID)
	req.PatientID = uuid.Nil
	if _, err := env.Svc.BookAppointment(env.Ctx, req); !errors.As(err, &validation) {
		t.Fatalf("missing patient: err = %v, want ValidationError", err)
	}

	req = env.booking(uuid.New())
	if _, err := env.Svc.BookAppointment(env.Ctx, req); !errors.Is(err, clinic.ErrPatientNotFound) {
		t.Fatalf("unknown patient: err = %v, want ErrPatientNotFound", err)
	}

	otherDept := uuid.New()
	req = env.booking(env.P1.ID)
	req.DepartmentID = otherDept
	if _, err := env.Svc.BookAppointment(env.Ctx, req); !errors.Is(err, clinic.ErrDepartmentNotFound) {
		t.Fatalf("unknown department: err = %v, want ErrDepartmentNotFound", err)
	}
}

func TestBookingRejectsFullShift(t *testing.T) {
	env := newTestEnv(t)
	env.Shift.MaxPatients = 2

	// rebuild the store with the tighter capacity
	env.Store = clinic.NewMemStore(&clinic.Snapshot{
		Departments: []clinic.Department{env.Dept},
		Clinics:     []clinic.Clinic{env.Clinic},
		Shifts:      []clinic.Shift{env.Shift},
		Doctors:     []clinic.Doctor{env.Doctor},
		Patients:    []clinic.Patient{env.P1, env.P2},
	})
	env.Svc = clinic.NewService(env.Store, clinic.NewMutexLocker())

	env.mustBook(t, env.P1.ID)
	env.mustBook(t, env.P2.ID)

	if _, err := env.Svc.BookAppointment(env.Ctx, env.booking(env.P1.ID)); !errors.Is(err, clinic.ErrShiftFull) {
		t.Fatalf("booking into a full shift: err = %v, want ErrShiftFull", err)
	}
}

func TestConcurrentBookingsGetUniqueQueueNumbers(t *testing.T) {
	env := newTestEnv(t)
	env.Shift.MaxPatients = 0 // unlimited
	env.Store = clinic.NewMemStore(&clinic.Snapshot{
		Departments: []clinic.Department{env.Dept},
		Clinics:     []clinic.Clinic{env.Clinic},
		Shifts:      []clinic.Shift{env.Shift},
		Doctors:     []clinic.Doctor{env.Doctor},
		Patients:    []clinic.Patient{env.P1},
	})
	env.Svc = clinic.NewService(env.Store, clinic.NewMutexLocker())

	const n = 50
	var wg sync.WaitGroup
	results := make(chan int, n)

	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appt, err := env.Svc.BookAppointment(env.Ctx, env.booking(env.P1.ID))
			if err != nil {
				t.Errorf("concurrent book: %v", err)
				return
			}
			results <- appt.QueueNumber
		}()
	}
	wg.Wait()
	close(results)

	seen := make(map[int]bool)
	max := 0
	count := 0
	for qn := range results {
		if seen[qn] {
			t.Fatalf("queue number %d issued twice", qn)
		}
		seen[qn] = true
		if qn > max {
			max = qn
		}
		count++
	}
	if count != n {
		t.Fatalf("booked %d, want %d", count, n)
	}
	if max != n || !seen[1] {
		t.Fatalf("queue numbers not contiguous from 1: max=%d", max)
	}
}

func TestConcurrentCallNextNeverDoubleCalls(t *testing.T) {
	env := newTestEnv(t)

	const n = 20
	for i := 0; i < n; i++ {
		appt := env.mustBook(t, env.P1.ID)
		env.mustCheckIn(t, appt.ID)
	}

	var wg sync.WaitGroup
	called := make(chan uuid.UUID, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			appt, err := env.Svc.CallNext(env.Ctx, env.Clinic.ID, env.Shift.ID, env.Date)
			if err != nil {
				t.Errorf("concurrent call next: %v", err)
				return
			}
			called <- appt.ID
		}()
	}
	wg.Wait()
	close(called)

	seen := make(map[uuid.UUID]bool)
	for id := range called {
		if seen[id] {
			t.Fatalf("appointment %s called twice", id)
		}
		seen[id] = true
	}
	if len(seen) != n {
		t.Fatalf("called %d distinct appointments, want %d", len(seen), n)
	}
}

func TestCallNextRespectsQueueOrderNotCheckInOrder(t *testing.T) {
	env := newTestEnv(t)

	a1 := env.mustBook(t, env.P1.ID)
	a2 := env.mustBook(t, env.P2.ID)

	// check in out of order: #2 first
	env.mustCheckIn(t, a2.ID)
	env.mustCheckIn(t, a1.ID)

	called, err := env.Svc.CallNext(env.Ctx, env.Clinic.ID, env.Shift.ID, env.Date)
	if err != nil {
		t.Fatalf("call next: %v", err)
	}
	if called.ID != a1.ID {
		t.Fatalf("called queue #%d, want #1 regardless of check-in order", called.QueueNumber)
	}
}

func TestQueueSnapshotPartitions(t *testing.T) {
	env := newTestEnv(t)

	a1 := env.mustBook(t, env.P1.ID)
	a2 := env.mustBook(t, env.P2.ID)
	env.mustCheckIn(t, a1.ID)
	env.mustCheckIn(t, a2.ID)

	if _, err := env.Svc.CallNext(env.Ctx, env.Clinic.ID, env.Shift.ID, env.Date); err != nil {
		t.Fatalf("call next: %v", err)
	}
	if _, err := env.Svc.FinalizeVisit(env.Ctx, a1.ID, clinic.RecordInput{Diagnosis: "flu"}); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	q, err := env.Svc.Queue(env.Ctx, env.Date, env.Clinic.ID, env.Shift.ID)
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	if len(q.Waiting) != 1 || q.Waiting[0].ID != a2.ID {
		t.Fatalf("waiting partition = %d entries, want just P2", len(q.Waiting))
	}
	if len(q.InProgress) != 0 {
		t.Fatalf("in-progress partition = %d entries, want 0", len(q.InProgress))
	}
	if q.CompletedCount != 1 {
		t.Fatalf("completed count = %d, want 1", q.CompletedCount)
	}

	// snapshot is a pure projection; repeated reads agree
	again, err := env.Svc.Queue(env.Ctx, env.Date, env.Clinic.ID, env.Shift.ID)
	if err != nil || len(again.Waiting) != 1 || again.CompletedCount != 1 {
		t.Fatalf("second queue read diverged: %+v %v", again, err)
	}
}

func TestSweepNoShows(t *testing.T) {
	env := newTestEnv(t)

	stale := env.mustBook(t, env.P1.ID)
	env.mustCheckIn(t, stale.ID)
	neverArrived := env.mustBook(t, env.P2.ID)

	closed, err := env.Svc.SweepNoShows(env.Ctx, clinic.VisitDate("2025-03-11"))
	if err != nil {
		t.Fatalf("sweep: %v", err)
	}
	if closed != 2 {
		t.Fatalf("sweep closed %d appointments, want 2", closed)
	}

	got, _ := env.Store.GetAppointmentByID(env.Ctx, stale.ID)
	if got.Status != clinic.StatusNoShow {
		t.Fatalf("waiting appointment swept to %s, want NO_SHOW", got.Status)
	}
	got, _ = env.Store.GetAppointmentByID(env.Ctx, neverArrived.ID)
	if got.Status != clinic.StatusCancelled {
		t.Fatalf("scheduled appointment swept to %s, want CANCELLED", got.Status)
	}

	// same-day appointments are untouched
	closed, err = env.Svc.SweepNoShows(env.Ctx, env.Date)
	if err != nil || closed != 0 {
		t.Fatalf("sweep on the visit date itself closed %d, %v; want 0", closed, err)
	}
}

func TestTransitionsFromTerminalStatesFail(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.P1.ID)
	if _, err := env.Svc.Cancel(env.Ctx, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	var invalid *clinic.InvalidTransitionError
	if _, err := env.Svc.CheckIn(env.Ctx, appt.ID); !errors.As(err, &invalid) {
		t.Fatalf("check-in after cancel: err = %v, want InvalidTransitionError", err)
	}
	if invalid.From != clinic.StatusCancelled {
		t.Fatalf("error names status %s, want CANCELLED", invalid.From)
	}
}

// staleStatusStore serves one outdated status read before delegating,
// reproducing a concurrent transition landing between read and update.
type staleStatusStore struct {
	*clinic.MemStore

	staleID     uuid.UUID
	staleStatus clinic.AppointmentStatus

	mu     sync.Mutex
	served bool
}

func (s *staleStatusStore) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*clinic.Appointment, error) {
	appt, err := s.MemStore.GetAppointmentByID(ctx, id)
	if err != nil || appt.ID != s.staleID {
		return appt, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.served {
		s.served = true
		stale := *appt
		stale.Status = s.staleStatus
		return &stale, nil
	}
	return appt, nil
}

func TestRaceLossReportsCurrentStatus(t *testing.T) {
	env := newTestEnv(t)

	appt := env.mustBook(t, env.P1.ID)
	if _, err := env.Svc.Cancel(env.Ctx, appt.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}

	// The service reads SCHEDULED, loses the compare-and-set against
	// the real CANCELLED row, and must re-read before reporting.
	store := &staleStatusStore{
		MemStore:    env.Store,
		staleID:     appt.ID,
		staleStatus: clinic.StatusScheduled,
	}
	svc := clinic.NewService(store, clinic.NewMutexLocker())

	var invalid *clinic.InvalidTransitionError
	if _, err := svc.CheckIn(env.Ctx, appt.ID); !errors.As(err, &invalid) {
		t.Fatalf("check-in after lost race: err = %v, want InvalidTransitionError", err)
	}
	if invalid.From != clinic.StatusCancelled {
		t.Fatalf("error names status %s, want the current CANCELLED", invalid.From)
	}
}

func TestDirectoryManagement(t *testing.T) {
	env := newTestEnv(t)

	var validation *clinic.ValidationError
	if _, err := env.Svc.CreateDepartment(env.Ctx, clinic.DepartmentInput{}); !errors.As(err, &validation) {
		t.Fatalf("nameless department: err = %v, want ValidationError", err)
	}

	dept, err := env.Svc.CreateDepartment(env.Ctx, clinic.DepartmentInput{Name: "Dermatology"})
	if err != nil {
		t.Fatalf("create department: %v", err)
	}
	if !dept.IsActive {
		t.Fatal("new department is not active")
	}

	doc, err := env.Svc.CreateDoctor(env.Ctx, clinic.DoctorInput{FullName: "Dr. New", SpecialtyID: dept.ID})
	if err != nil {
		t.Fatalf("create doctor: %v", err)
	}
	if doc.Status != clinic.DoctorActive {
		t.Fatalf("new doctor status = %s, want ACTIVE", doc.Status)
	}
	if _, err := env.Svc.CreateDoctor(env.Ctx, clinic.DoctorInput{FullName: "Dr. Lost", SpecialtyID: uuid.New()}); !errors.Is(err, clinic.ErrDepartmentNotFound) {
		t.Fatalf("doctor in unknown department: err = %v, want ErrDepartmentNotFound", err)
	}

	if _, err := env.Svc.SetShiftActive(env.Ctx, uuid.New(), false); !errors.Is(err, clinic.ErrShiftNotFound) {
		t.Fatalf("toggle of unknown shift: err = %v, want ErrShiftNotFound", err)
	}
	if _, err := env.Svc.AssignDoctorShift(env.Ctx, uuid.New(), env.Shift.ID); !errors.Is(err, clinic.ErrDoctorNotFound) {
		t.Fatalf("assignment of unknown doctor: err = %v, want ErrDoctorNotFound", err)
	}

	ds, err := env.Svc.AssignDoctorShift(env.Ctx, doc.ID, env.Shift.ID)
	if err != nil {
		t.Fatalf("assign shift: %v", err)
	}
	toggled, err := env.Svc.SetDoctorShiftActive(env.Ctx, ds.ID, false)
	if err != nil {
		t.Fatalf("toggle assignment: %v", err)
	}
	if toggled.IsActive {
		t.Fatal("assignment still active after toggle")
	}
}
