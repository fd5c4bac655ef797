package clinic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PgRepository stores the clinic tables in Postgres. Status transitions
// rely on conditional updates (WHERE status = from) so concurrent
// writers can never double-apply a transition.
type PgRepository struct {
	pool *pgxpool.Pool
}

func NewPgRepository(pool *pgxpool.Pool) *PgRepository {
	return &PgRepository{pool: pool}
}

// Scan helpers

func scanDepartment(row pgx.Row) (*Department, error) {
	var d Department
	err := row.Scan(&d.ID, &d.Name, &d.Location, &d.IsActive, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDepartmentNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanClinic(row pgx.Row) (*Clinic, error) {
	var c Clinic
	var days []string
	err := row.Scan(&c.ID, &c.Name, &c.DepartmentID, &c.Location, &days, &c.IsActive, &c.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrClinicNotFound
		}
		return nil, err
	}
	c.OperatingDays = make([]DayOfWeek, len(days))
	for i, day := range days {
		c.OperatingDays[i] = DayOfWeek(day)
	}
	return &c, nil
}

func scanShift(row pgx.Row) (*Shift, error) {
	var s Shift
	err := row.Scan(&s.ID, &s.ClinicID, &s.Type, &s.StartTime, &s.EndTime, &s.DayOfWeek, &s.MaxPatients, &s.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrShiftNotFound
		}
		return nil, err
	}
	return &s, nil
}

func scanDoctor(row pgx.Row) (*Doctor, error) {
	var d Doctor
	err := row.Scan(&d.ID, &d.FullName, &d.SpecialtyID, &d.Status, &d.LicenseNumber, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorNotFound
		}
		return nil, err
	}
	return &d, nil
}

func scanPatient(row pgx.Row) (*Patient, error) {
	var p Patient
	err := row.Scan(&p.ID, &p.FullName, &p.Age, &p.Gender, &p.Phone, &p.Email,
		&p.Address, &p.NationalID, &p.ChronicConditions, &p.Allergies, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrPatientNotFound
		}
		return nil, err
	}
	return &p, nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var a Appointment
	var visitDate string
	err := row.Scan(&a.ID, &a.PatientID, &a.DepartmentID, &a.ClinicID, &a.DoctorID, &a.ShiftID,
		&a.QueueNumber, &visitDate, &a.Status, &a.Notes, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrAppointmentNotFound
		}
		return nil, err
	}
	a.VisitDate = VisitDate(visitDate)
	return &a, nil
}

func scanMedicalRecord(row pgx.Row) (*MedicalRecord, error) {
	var r MedicalRecord
	var visitDate string
	var prescriptions, vitals []byte
	err := row.Scan(&r.ID, &r.PatientID, &r.AppointmentID, &r.DoctorID, &r.Diagnosis,
		&r.Symptoms, &r.Notes, &prescriptions, &vitals, &visitDate, &r.CreatedAt)
	if err != nil {
		return nil, err
	}
	r.VisitDate = VisitDate(visitDate)
	if len(prescriptions) > 0 {
		if err := json.Unmarshal(prescriptions, &r.Prescriptions); err != nil {
			return nil, fmt.Errorf("decode prescriptions: %w", err)
		}
	}
	if len(vitals) > 0 {
		if err := json.Unmarshal(vitals, &r.Vitals); err != nil {
			return nil, fmt.Errorf("decode vitals: %w", err)
		}
	}
	return &r, nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.FullName, &u.PasswordHash, &u.Role,
		&u.DoctorID, &u.DepartmentID, &u.IsActive, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return &u, nil
}

const (
	departmentCols    = `id, name, location, is_active, created_at`
	clinicCols        = `id, name, department_id, location, operating_days, is_active, created_at`
	shiftCols         = `id, clinic_id, type, start_time, end_time, day_of_week, max_patients, is_active`
	doctorCols        = `id, full_name, specialty_id, status, license_number, created_at`
	patientCols       = `id, full_name, age, gender, phone, email, address, national_id, chronic_conditions, allergies, created_at`
	appointmentCols   = `id, patient_id, department_id, clinic_id, doctor_id, shift_id, queue_number, to_char(visit_date, 'YYYY-MM-DD'), status, notes, created_at, updated_at`
	medicalRecordCols = `id, patient_id, appointment_id, doctor_id, diagnosis, symptoms, notes, prescriptions, vitals, to_char(visit_date, 'YYYY-MM-DD'), created_at`
	userCols          = `id, username, full_name, password_hash, role, doctor_id, department_id, is_active, created_at`
)

// Interface methods

func (r *PgRepository) GetDepartmentByID(ctx context.Context, id uuid.UUID) (*Department, error) {
	return scanDepartment(r.pool.QueryRow(ctx,
		`SELECT `+departmentCols+` FROM departments WHERE id = $1`, id))
}

func (r *PgRepository) GetClinicByID(ctx context.Context, id uuid.UUID) (*Clinic, error) {
	return scanClinic(r.pool.QueryRow(ctx,
		`SELECT `+clinicCols+` FROM clinics WHERE id = $1`, id))
}

func (r *PgRepository) GetShiftByID(ctx context.Context, id uuid.UUID) (*Shift, error) {
	return scanShift(r.pool.QueryRow(ctx,
		`SELECT `+shiftCols+` FROM shifts WHERE id = $1`, id))
}

func (r *PgRepository) GetDoctorByID(ctx context.Context, id uuid.UUID) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx,
		`SELECT `+doctorCols+` FROM doctors WHERE id = $1`, id))
}

func (r *PgRepository) GetPatientByID(ctx context.Context, id uuid.UUID) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx,
		`SELECT `+patientCols+` FROM patients WHERE id = $1`, id))
}

func (r *PgRepository) GetAppointmentByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx,
		`SELECT `+appointmentCols+` FROM appointments WHERE id = $1`, id))
}

func (r *PgRepository) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx,
		`SELECT `+userCols+` FROM users WHERE username = $1`, username))
}

func (r *PgRepository) CountPartition(ctx context.Context, key PartitionKey) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `
		SELECT count(*)
		FROM appointments
		WHERE clinic_id = $1 AND shift_id = $2 AND visit_date = $3
	`, key.ClinicID, key.ShiftID, key.Date.String()).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (r *PgRepository) WaitingInPartition(ctx context.Context, key PartitionKey) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		WHERE clinic_id = $1 AND shift_id = $2 AND visit_date = $3 AND status = 'WAITING'
		ORDER BY queue_number
	`, key.ClinicID, key.ShiftID, key.Date.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func (r *PgRepository) CreatePatient(ctx context.Context, p Patient) (*Patient, error) {
	return scanPatient(r.pool.QueryRow(ctx, `
		INSERT INTO patients (id, full_name, age, gender, phone, email, address, national_id, chronic_conditions, allergies, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING `+patientCols,
		p.ID, p.FullName, p.Age, p.Gender, p.Phone, p.Email, p.Address, p.NationalID,
		p.ChronicConditions, p.Allergies))
}

func (r *PgRepository) CreateAppointment(ctx context.Context, a Appointment) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		INSERT INTO appointments (id, patient_id, department_id, clinic_id, doctor_id, shift_id, queue_number, visit_date, status, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now(), now())
		RETURNING `+appointmentCols,
		a.ID, a.PatientID, a.DepartmentID, a.ClinicID, a.DoctorID, a.ShiftID,
		a.QueueNumber, a.VisitDate.String(), a.Status, a.Notes))
}

func (r *PgRepository) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, from, to AppointmentStatus) (*Appointment, error) {
	return scanAppointment(r.pool.QueryRow(ctx, `
		UPDATE appointments
		SET status = $2, updated_at = now()
		WHERE id = $1 AND status = $3
		RETURNING `+appointmentCols, id, to, from))
}

func (r *PgRepository) CompleteAppointment(ctx context.Context, id uuid.UUID, rec MedicalRecord) (*Appointment, *MedicalRecord, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, nil, err
	}
	defer tx.Rollback(ctx)

	appt, err := scanAppointment(tx.QueryRow(ctx, `
		UPDATE appointments
		SET status = 'COMPLETED', updated_at = now()
		WHERE id = $1 AND status = 'IN_PROGRESS'
		RETURNING `+appointmentCols, id))
	if err != nil {
		return nil, nil, err
	}

	prescriptions, err := json.Marshal(rec.Prescriptions)
	if err != nil {
		return nil, nil, fmt.Errorf("encode prescriptions: %w", err)
	}
	var vitals []byte
	if rec.Vitals != nil {
		vitals, err = json.Marshal(rec.Vitals)
		if err != nil {
			return nil, nil, fmt.Errorf("encode vitals: %w", err)
		}
	}

	saved, err := scanMedicalRecord(tx.QueryRow(ctx, `
		INSERT INTO medical_records (id, patient_id, appointment_id, doctor_id, diagnosis, symptoms, notes, prescriptions, vitals, visit_date, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
		RETURNING `+medicalRecordCols,
		rec.ID, rec.PatientID, rec.AppointmentID, rec.DoctorID, rec.Diagnosis,
		rec.Symptoms, rec.Notes, prescriptions, vitals, rec.VisitDate.String()))
	if err != nil {
		return nil, nil, fmt.Errorf("insert medical record: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, err
	}
	return appt, saved, nil
}

func (r *PgRepository) CreateDepartment(ctx context.Context, d Department) (*Department, error) {
	return scanDepartment(r.pool.QueryRow(ctx, `
		INSERT INTO departments (id, name, location, is_active, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING `+departmentCols,
		d.ID, d.Name, d.Location, d.IsActive))
}

func (r *PgRepository) SetDepartmentActive(ctx context.Context, id uuid.UUID, active bool) (*Department, error) {
	return scanDepartment(r.pool.QueryRow(ctx, `
		UPDATE departments SET is_active = $2 WHERE id = $1
		RETURNING `+departmentCols, id, active))
}

func (r *PgRepository) CreateDoctor(ctx context.Context, d Doctor) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `
		INSERT INTO doctors (id, full_name, specialty_id, status, license_number, created_at)
		VALUES ($1, $2, $3, $4, $5, now())
		RETURNING `+doctorCols,
		d.ID, d.FullName, d.SpecialtyID, d.Status, d.LicenseNumber))
}

func (r *PgRepository) SetDoctorStatus(ctx context.Context, id uuid.UUID, status DoctorStatus) (*Doctor, error) {
	return scanDoctor(r.pool.QueryRow(ctx, `
		UPDATE doctors SET status = $2 WHERE id = $1
		RETURNING `+doctorCols, id, status))
}

func (r *PgRepository) CreateShift(ctx context.Context, s Shift) (*Shift, error) {
	return scanShift(r.pool.QueryRow(ctx, `
		INSERT INTO shifts (id, clinic_id, type, start_time, end_time, day_of_week, max_patients, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING `+shiftCols,
		s.ID, s.ClinicID, s.Type, s.StartTime, s.EndTime, s.DayOfWeek, s.MaxPatients, s.IsActive))
}

func (r *PgRepository) SetShiftActive(ctx context.Context, id uuid.UUID, active bool) (*Shift, error) {
	return scanShift(r.pool.QueryRow(ctx, `
		UPDATE shifts SET is_active = $2 WHERE id = $1
		RETURNING `+shiftCols, id, active))
}

func (r *PgRepository) CreateDoctorShift(ctx context.Context, ds DoctorShift) (*DoctorShift, error) {
	var out DoctorShift
	err := r.pool.QueryRow(ctx, `
		INSERT INTO doctor_shifts (id, doctor_id, shift_id, assigned_at, is_active)
		VALUES ($1, $2, $3, now(), $4)
		RETURNING id, doctor_id, shift_id, assigned_at, is_active
	`, ds.ID, ds.DoctorID, ds.ShiftID, ds.IsActive).
		Scan(&out.ID, &out.DoctorID, &out.ShiftID, &out.AssignedAt, &out.IsActive)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *PgRepository) SetDoctorShiftActive(ctx context.Context, id uuid.UUID, active bool) (*DoctorShift, error) {
	var out DoctorShift
	err := r.pool.QueryRow(ctx, `
		UPDATE doctor_shifts SET is_active = $2 WHERE id = $1
		RETURNING id, doctor_id, shift_id, assigned_at, is_active
	`, id, active).
		Scan(&out.ID, &out.DoctorID, &out.ShiftID, &out.AssignedAt, &out.IsActive)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrDoctorShiftNotFound
		}
		return nil, err
	}
	return &out, nil
}

func (r *PgRepository) FindStaleOpen(ctx context.Context, before VisitDate) ([]Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+appointmentCols+`
		FROM appointments
		WHERE visit_date < $1 AND status IN ('SCHEDULED', 'WAITING')
	`, before.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectAppointments(rows)
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var result []Appointment
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Snapshot loads every flat table in one read so the join layer works
// against a single consistent view.
func (r *PgRepository) Snapshot(ctx context.Context) (*Snapshot, error) {
	snap := &Snapshot{}

	if err := r.loadTable(ctx, `SELECT `+departmentCols+` FROM departments ORDER BY name`, func(rows pgx.Rows) error {
		d, err := scanDepartment(rows)
		if err != nil {
			return err
		}
		snap.Departments = append(snap.Departments, *d)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load departments: %w", err)
	}

	if err := r.loadTable(ctx, `SELECT `+clinicCols+` FROM clinics ORDER BY name`, func(rows pgx.Rows) error {
		c, err := scanClinic(rows)
		if err != nil {
			return err
		}
		snap.Clinics = append(snap.Clinics, *c)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load clinics: %w", err)
	}

	if err := r.loadTable(ctx, `SELECT `+shiftCols+` FROM shifts ORDER BY day_of_week, start_time`, func(rows pgx.Rows) error {
		s, err := scanShift(rows)
		if err != nil {
			return err
		}
		snap.Shifts = append(snap.Shifts, *s)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load shifts: %w", err)
	}

	if err := r.loadTable(ctx, `SELECT `+doctorCols+` FROM doctors ORDER BY full_name`, func(rows pgx.Rows) error {
		d, err := scanDoctor(rows)
		if err != nil {
			return err
		}
		snap.Doctors = append(snap.Doctors, *d)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load doctors: %w", err)
	}

	if err := r.loadTable(ctx, `SELECT id, doctor_id, shift_id, assigned_at, is_active FROM doctor_shifts`, func(rows pgx.Rows) error {
		var ds DoctorShift
		if err := rows.Scan(&ds.ID, &ds.DoctorID, &ds.ShiftID, &ds.AssignedAt, &ds.IsActive); err != nil {
			return err
		}
		snap.DoctorShifts = append(snap.DoctorShifts, ds)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load doctor shifts: %w", err)
	}

	if err := r.loadTable(ctx, `SELECT `+patientCols+` FROM patients ORDER BY full_name`, func(rows pgx.Rows) error {
		p, err := scanPatient(rows)
		if err != nil {
			return err
		}
		snap.Patients = append(snap.Patients, *p)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load patients: %w", err)
	}

	if err := r.loadTable(ctx, `SELECT `+appointmentCols+` FROM appointments ORDER BY visit_date, queue_number`, func(rows pgx.Rows) error {
		a, err := scanAppointment(rows)
		if err != nil {
			return err
		}
		snap.Appointments = append(snap.Appointments, *a)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}

	if err := r.loadTable(ctx, `SELECT `+medicalRecordCols+` FROM medical_records ORDER BY created_at`, func(rows pgx.Rows) error {
		rec, err := scanMedicalRecord(rows)
		if err != nil {
			return err
		}
		snap.MedicalRecords = append(snap.MedicalRecords, *rec)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load medical records: %w", err)
	}

	if err := r.loadTable(ctx, `SELECT `+userCols+` FROM users ORDER BY username`, func(rows pgx.Rows) error {
		u, err := scanUser(rows)
		if err != nil {
			return err
		}
		snap.Users = append(snap.Users, *u)
		return nil
	}); err != nil {
		return nil, fmt.Errorf("load users: %w", err)
	}

	return snap, nil
}

func (r *PgRepository) loadTable(ctx context.Context, query string, scan func(pgx.Rows) error) error {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// CreateUser is used by the seeder.
func (r *PgRepository) CreateUser(ctx context.Context, u User) (*User, error) {
	return scanUser(r.pool.QueryRow(ctx, `
		INSERT INTO users (id, username, full_name, password_hash, role, doctor_id, department_id, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		RETURNING `+userCols,
		u.ID, u.Username, u.FullName, u.PasswordHash, u.Role, u.DoctorID, u.DepartmentID, u.IsActive))
}
