package clinic

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemStore keeps the flat tables in memory. Mutations are copy-on-write
// behind a single mutex: readers always see a complete snapshot, never
// one observed mid-mutation. It backs single-node deployments fed from
// an external data load, and every engine test.
type MemStore struct {
	mu   sync.RWMutex
	snap *Snapshot

	// Now is the timestamp source for created/updated fields. Tests pin it.
	Now func() time.Time
}

func NewMemStore(snap *Snapshot) *MemStore {
	if snap == nil {
		snap = &Snapshot{}
	}
	return &MemStore{snap: snap, Now: time.Now}
}

func (m *MemStore) now() time.Time {
	if m.Now != nil {
		return m.Now()
	}
	return time.Now()
}

func (m *MemStore) Snapshot(ctx context.Context) (*Snapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.snap, nil
}

func (m *MemStore) GetDepartmentByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.snap.Departments {
		if d.ID == id {
			out := d
			return &out, nil
		}
	}
	return nil, ErrDepartmentNotFound
}

func (m *MemStore) GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, c := range m.snap.Clinics {
		if c.ID == id {
			out := c
			return &out, nil
		}
	}
	return nil, ErrClinicNotFound
}

func (m *MemStore) GetShiftByID(ctx context.Context, id uuid.UUID) (*Shift, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, s := range m.snap.Shifts {
		if s.ID == id {
			out := s
			return &out, nil
		}
	}
	return nil, ErrShiftNotFound
}

func (m *MemStore) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.snap.Doctors {
		if d.ID == id {
			out := d
			return &out, nil
		}
	}
	return nil, ErrDoctorNotFound
}

func (m *MemStore) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, p := range m.snap.Patients {
		if p.ID == id {
			out := p
			return &out, nil
		}
	}
	return nil, ErrPatientNotFound
}

func (m *MemStore) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, a := range m.snap.Appointments {
		if a.ID == id {
			out := a
			return &out, nil
		}
	}
	return nil, ErrAppointmentNotFound
}

func (m *MemStore) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.snap.Users {
		if u.Username == username {
			out := u
			return &out, nil
		}
	}
	return nil, ErrUserNotFound
}

func inPartition(a Appointment, key PartitionKey) bool {
	return a.ClinicID == key.ClinicID && a.ShiftID == key.ShiftID && a.VisitDate == key.Date
}

func (m *MemStore) CountPartition(ctx context.Context, key PartitionKey) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	count := 0
	for _, a := range m.snap.Appointments {
		if inPartition(a, key) {
			count++
		}
	}
	return count, nil
}

func (m *MemStore) WaitingInPartition(ctx context.Context, key PartitionKey) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Appointment
	for _, a := range m.snap.Appointments {
		if inPartition(a, key) && a.Status == StatusWaiting {
			out = append(out, a)
		}
	}
	// insertion order already ascends by queue number within a partition,
	// but sort anyway so the head selection never depends on load order
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].QueueNumber < out[j-1].QueueNumber; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out, nil
}

// replace swaps in a new snapshot built by mutate. mutate receives a
// shallow clone whose appointment/record slices are fresh copies, so
// handed-out snapshots are never written through.
func (m *MemStore) replace(mutate func(next *Snapshot)) {
	m.mu.Lock()
	defer m.mu.Unlock()
	next := *m.snap
	next.Departments = append([]Department(nil), m.snap.Departments...)
	next.Doctors = append([]Doctor(nil), m.snap.Doctors...)
	next.Shifts = append([]Shift(nil), m.snap.Shifts...)
	next.DoctorShifts = append([]DoctorShift(nil), m.snap.DoctorShifts...)
	next.Appointments = append([]Appointment(nil), m.snap.Appointments...)
	next.MedicalRecords = append([]MedicalRecord(nil), m.snap.MedicalRecords...)
	next.Patients = append([]Patient(nil), m.snap.Patients...)
	mutate(&next)
	m.snap = &next
}

func (m *MemStore) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	p.CreatedAt = m.now()
	m.replace(func(next *Snapshot) {
		next.Patients = append(next.Patients, p)
	})
	return &p, nil
}

func (m *MemStore) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	now := m.now()
	a.CreatedAt = now
	a.UpdatedAt = now
	m.replace(func(next *Snapshot) {
		next.Appointments = append(next.Appointments, a)
	})
	return &a, nil
}

func (m *MemStore) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	var updated *Appointment
	m.replace(func(next *Snapshot) {
		for i := range next.Appointments {
			if next.Appointments[i].ID == id && next.Appointments[i].Status == from {
				next.Appointments[i].Status = to
				next.Appointments[i].UpdatedAt = m.now()
				out := next.Appointments[i]
				updated = &out
				return
			}
		}
	})
	if updated == nil {
		return nil, ErrAppointmentNotFound
	}
	return updated, nil
}

func (m *MemStore) CompleteAppointment(ctx context.Context, id uuid.UUID, rec MedicalRecord) (*Appointment, *MedicalRecord, error) {
	var appt *Appointment
	var saved *MedicalRecord
	m.replace(func(next *Snapshot) {
		for i := range next.Appointments {
			if next.Appointments[i].ID == id && next.Appointments[i].Status == StatusInProgress {
				next.Appointments[i].Status = StatusCompleted
				next.Appointments[i].UpdatedAt = m.now()
				a := next.Appointments[i]
				appt = &a

				rec.CreatedAt = m.now()
				next.MedicalRecords = append(next.MedicalRecords, rec)
				r := rec
				saved = &r
				return
			}
		}
	})
	if appt == nil {
		return nil, nil, ErrAppointmentNotFound
	}
	return appt, saved, nil
}

func (m *MemStore) CreateDepartment(ctx context.Context, d Department) (*Department, error) {
	d.CreatedAt = m.now()
	m.replace(func(next *Snapshot) {
		next.Departments = append(next.Departments, d)
	})
	return &d, nil
}

func (m *MemStore) SetDepartmentActive(ctx context.Context, id uuid.UUID, active bool) (*Department, error) {
	var updated *Department
	m.replace(func(next *Snapshot) {
		for i := range next.Departments {
			if next.Departments[i].ID == id {
				next.Departments[i].IsActive = active
				out := next.Departments[i]
				updated = &out
				return
			}
		}
	})
	if updated == nil {
		return nil, ErrDepartmentNotFound
	}
	return updated, nil
}

func (m *MemStore) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	d.CreatedAt = m.now()
	m.replace(func(next *Snapshot) {
		next.Doctors = append(next.Doctors, d)
	})
	return &d, nil
}

func (m *MemStore) SetDoctorStatus(ctx context.Context, id uuid.UUID, status DoctorStatus) (*Doctor, error) {
	var updated *Doctor
	m.replace(func(next *Snapshot) {
		for i := range next.Doctors {
			if next.Doctors[i].ID == id {
				next.Doctors[i].Status = status
				out := next.Doctors[i]
				updated = &out
				return
			}
		}
	})
	if updated == nil {
		return nil, ErrDoctorNotFound
	}
	return updated, nil
}

func (m *MemStore) CreateShift(ctx context.Context, s Shift) (*Shift, error) {
	m.replace(func(next *Snapshot) {
		next.Shifts = append(next.Shifts, s)
	})
	return &s, nil
}

func (m *MemStore) SetShiftActive(ctx context.Context, id uuid.UUID, active bool) (*Shift, error) {
	var updated *Shift
	m.replace(func(next *Snapshot) {
		for i := range next.Shifts {
			if next.Shifts[i].ID == id {
				next.Shifts[i].IsActive = active
				out := next.Shifts[i]
				updated = &out
				return
			}
		}
	})
	if updated == nil {
		return nil, ErrShiftNotFound
	}
	return updated, nil
}

func (m *MemStore) CreateDoctorShift(ctx context.Context, ds DoctorShift) (*DoctorShift, error) {
	ds.AssignedAt = m.now()
	m.replace(func(next *Snapshot) {
		next.DoctorShifts = append(next.DoctorShifts, ds)
	})
	return &ds, nil
}

func (m *MemStore) SetDoctorShiftActive(ctx context.Context, id uuid.UUID, active bool) (*DoctorShift, error) {
	var updated *DoctorShift
	m.replace(func(next *Snapshot) {
		for i := range next.DoctorShifts {
			if next.DoctorShifts[i].ID == id {
				next.DoctorShifts[i].IsActive = active
				out := next.DoctorShifts[i]
				updated = &out
				return
			}
		}
	})
	if updated == nil {
		return nil, ErrDoctorShiftNotFound
	}
	return updated, nil
}

func (m *MemStore) FindStaleOpen(ctx context.Context, before VisitDate) ([]Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	var out []Appointment
	for _, a := range m.snap.Appointments {
		if a.VisitDate.Before(before) && (a.Status == StatusScheduled || a.Status == StatusWaiting) {
			out = append(out, a)
		}
	}
	return out, nil
}
