package main

import (
	"context"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-queue-engine/internal/auth"
	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
	"github.com/clinicdesk/clinic-queue-engine/internal/db"
)

var logger = zerolog.New(os.Stderr).With().Timestamp().Str("service", "seed").Logger()

func main() {
	logger.Info().Msg("seed starting")

	dsn := os.Getenv("POSTGRES_DSN")
	if dsn == "" {
		logger.Fatal().Msg("POSTGRES_DSN is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	pool, err := db.ConnectPostgres(ctx, dsn)
	cancel()
	if err != nil {
		logger.Fatal().Err(err).Msg("connect postgres")
	}
	defer pool.Close()

	rootCtx := context.Background()

	if err := db.Migrate(rootCtx, pool); err != nil {
		logger.Fatal().Err(err).Msg("migrate schema")
	}

	gofakeit.Seed(time.Now().UnixNano())

	departments, err := seedDepartments(rootCtx, pool)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed departments")
	}
	clinics, err := seedClinics(rootCtx, pool, departments)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed clinics")
	}
	shifts, err := seedShifts(rootCtx, pool, clinics)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed shifts")
	}
	doctors, err := seedDoctors(rootCtx, pool, departments, 40)
	if err != nil {
		logger.Fatal().Err(err).Msg("seed doctors")
	}
	if err := seedDoctorShifts(rootCtx, pool, doctors, shifts); err != nil {
		logger.Fatal().Err(err).Msg("seed doctor shifts")
	}
	if err := seedPatients(rootCtx, pool, 2000); err != nil {
		logger.Fatal().Err(err).Msg("seed patients")
	}
	if err := seedUsers(rootCtx, pool, departments, doctors); err != nil {
		logger.Fatal().Err(err).Msg("seed users")
	}

	logger.Info().Msg("seed complete")
}

type seededDepartment struct {
	ID   uuid.UUID
	Name string
}

type seededClinic struct {
	ID           uuid.UUID
	DepartmentID uuid.UUID
}

type seededShift struct {
	ID       uuid.UUID
	ClinicID uuid.UUID
}

func seedDepartments(ctx context.Context, pool *pgxpool.Pool) ([]seededDepartment, error) {
	names := []string{
		"Dermatology",
		"Cardiology",
		"General Practice",
		"Orthopedics",
		"Endocrinology",
		"Neurology",
		"Pediatrics",
		"Psychiatry",
		"Ophthalmology",
		"ENT",
	}

	logger.Info().Int("count", len(names)).Msg("seeding departments")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var out []seededDepartment
	for _, name := range names {
		id := uuid.New()
		_, err := tx.Exec(ctx, `
			INSERT INTO departments (id, name, location, is_active, created_at)
			VALUES ($1, $2, $3, true, now())
		`, id, name, "Building "+gofakeit.RandomString([]string{"A", "B", "C"}))
		if err != nil {
			return nil, err
		}
		out = append(out, seededDepartment{ID: id, Name: name})
	}
	return out, tx.Commit(ctx)
}

func seedClinics(ctx context.Context, pool *pgxpool.Pool, departments []seededDepartment) ([]seededClinic, error) {
	logger.Info().Msg("seeding clinics")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	weekdays := []string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY"}

	var out []seededClinic
	for _, dept := range departments {
		for i := 1; i <= 2; i++ {
			id := uuid.New()
			_, err := tx.Exec(ctx, `
				INSERT INTO clinics (id, name, department_id, location, operating_days, is_active, created_at)
				VALUES ($1, $2, $3, $4, $5, true, now())
			`, id, gofakeit.LetterN(1)+" "+dept.Name+" Clinic", dept.ID, "Room "+gofakeit.DigitN(3), weekdays)
			if err != nil {
				return nil, err
			}
			out = append(out, seededClinic{ID: id, DepartmentID: dept.ID})
		}
	}
	return out, tx.Commit(ctx)
}

func seedShifts(ctx context.Context, pool *pgxpool.Pool, clinics []seededClinic) ([]seededShift, error) {
	logger.Info().Msg("seeding shifts")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	weekdays := []string{"SUNDAY", "MONDAY", "TUESDAY", "WEDNESDAY", "THURSDAY"}

	var out []seededShift
	for _, cl := range clinics {
		for _, day := range weekdays {
			am := uuid.New()
			if _, err := tx.Exec(ctx, `
				INSERT INTO shifts (id, clinic_id, type, start_time, end_time, day_of_week, max_patients, is_active)
				VALUES ($1, $2, 'AM', '08:00', '12:00', $3, 20, true)
			`, am, cl.ID, day); err != nil {
				return nil, err
			}
			pm := uuid.New()
			if _, err := tx.Exec(ctx, `
				INSERT INTO shifts (id, clinic_id, type, start_time, end_time, day_of_week, max_patients, is_active)
				VALUES ($1, $2, 'PM', '13:00', '17:00', $3, 20, true)
			`, pm, cl.ID, day); err != nil {
				return nil, err
			}
			out = append(out, seededShift{ID: am, ClinicID: cl.ID}, seededShift{ID: pm, ClinicID: cl.ID})
		}
	}
	return out, tx.Commit(ctx)
}

func seedDoctors(ctx context.Context, pool *pgxpool.Pool, departments []seededDepartment, count int) ([]uuid.UUID, error) {
	logger.Info().Int("count", count).Msg("seeding doctors")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var out []uuid.UUID
	for i := 0; i < count; i++ {
		id := uuid.New()
		dept := departments[gofakeit.Number(0, len(departments)-1)]
		_, err := tx.Exec(ctx, `
			INSERT INTO doctors (id, full_name, specialty_id, status, license_number, created_at)
			VALUES ($1, $2, $3, 'ACTIVE', $4, now())
		`, id, "Dr. "+gofakeit.Name(), dept.ID, gofakeit.DigitN(8))
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, tx.Commit(ctx)
}

func seedDoctorShifts(ctx context.Context, pool *pgxpool.Pool, doctors []uuid.UUID, shifts []seededShift) error {
	logger.Info().Msg("seeding doctor shift assignments")

	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	for _, shift := range shifts {
		doctor := doctors[gofakeit.Number(0, len(doctors)-1)]
		_, err := tx.Exec(ctx, `
			INSERT INTO doctor_shifts (id, doctor_id, shift_id, assigned_at, is_active)
			VALUES ($1, $2, $3, now(), true)
		`, uuid.New(), doctor, shift.ID)
		if err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

func seedPatients(ctx context.Context, pool *pgxpool.Pool, count int) error {
	logger.Info().Int("count", count).Msg("seeding patients")

	const batchSize = 500

	for offset := 0; offset < count; offset += batchSize {
		end := offset + batchSize
		if end > count {
			end = count
		}

		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}

		for i := offset; i < end; i++ {
			email := gofakeit.Email()
			_, err := tx.Exec(ctx, `
				INSERT INTO patients (id, full_name, age, gender, phone, email, address, national_id, chronic_conditions, allergies, created_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, now())
			`, uuid.New(), gofakeit.Name(), gofakeit.Number(1, 95),
				gofakeit.RandomString([]string{"MALE", "FEMALE"}),
				gofakeit.Phone(), email, gofakeit.Address().Address,
				gofakeit.DigitN(10), []string{}, []string{})
			if err != nil {
				_ = tx.Rollback(ctx)
				return err
			}
		}

		if err := tx.Commit(ctx); err != nil {
			return err
		}
		logger.Info().Int("done", end).Int("total", count).Msg("patients seeded")
	}
	return nil
}

func seedUsers(ctx context.Context, pool *pgxpool.Pool, departments []seededDepartment, doctors []uuid.UUID) error {
	logger.Info().Msg("seeding users")

	repo := clinic.NewPgRepository(pool)
	hash, err := auth.HashPassword(envOr("SEED_PASSWORD", "changeme"))
	if err != nil {
		return err
	}

	if _, err := repo.CreateUser(ctx, clinic.User{
		ID: uuid.New(), Username: "admin", FullName: "Administrator",
		PasswordHash: hash, Role: clinic.RoleAdmin, IsActive: true,
	}); err != nil {
		return err
	}
	if _, err := repo.CreateUser(ctx, clinic.User{
		ID: uuid.New(), Username: "reception1", FullName: gofakeit.Name(),
		PasswordHash: hash, Role: clinic.RoleReceptionist, IsActive: true,
	}); err != nil {
		return err
	}

	headDept := departments[0].ID
	if _, err := repo.CreateUser(ctx, clinic.User{
		ID: uuid.New(), Username: "head1", FullName: gofakeit.Name(),
		PasswordHash: hash, Role: clinic.RoleDepartmentHead, DepartmentID: &headDept, IsActive: true,
	}); err != nil {
		return err
	}

	for i, doctorID := range doctors {
		if i >= 5 {
			break
		}
		docID := doctorID
		if _, err := repo.CreateUser(ctx, clinic.User{
			ID: uuid.New(), Username: gofakeit.Username(), FullName: gofakeit.Name(),
			PasswordHash: hash, Role: clinic.RoleDoctor, DoctorID: &docID, IsActive: true,
		}); err != nil {
			return err
		}
	}
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
