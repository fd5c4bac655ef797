package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS departments (
		id          uuid PRIMARY KEY,
		name        text NOT NULL,
		location    text NOT NULL DEFAULT '',
		is_active   boolean NOT NULL DEFAULT true,
		created_at  timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS clinics (
		id             uuid PRIMARY KEY,
		name           text NOT NULL,
		department_id  uuid NOT NULL REFERENCES departments(id),
		location       text NOT NULL DEFAULT '',
		operating_days text[] NOT NULL DEFAULT '{}',
		is_active      boolean NOT NULL DEFAULT true,
		created_at     timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS shifts (
		id           uuid PRIMARY KEY,
		clinic_id    uuid NOT NULL REFERENCES clinics(id),
		type         text NOT NULL,
		start_time   text NOT NULL,
		end_time     text NOT NULL,
		day_of_week  text NOT NULL,
		max_patients integer NOT NULL DEFAULT 0,
		is_active    boolean NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS doctors (
		id             uuid PRIMARY KEY,
		full_name      text NOT NULL,
		specialty_id   uuid NOT NULL REFERENCES departments(id),
		status         text NOT NULL DEFAULT 'ACTIVE',
		license_number text NOT NULL DEFAULT '',
		created_at     timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS doctor_shifts (
		id          uuid PRIMARY KEY,
		doctor_id   uuid NOT NULL REFERENCES doctors(id),
		shift_id    uuid NOT NULL REFERENCES shifts(id),
		assigned_at timestamptz NOT NULL DEFAULT now(),
		is_active   boolean NOT NULL DEFAULT true
	)`,
	`CREATE TABLE IF NOT EXISTS patients (
		id                 uuid PRIMARY KEY,
		full_name          text NOT NULL,
		age                integer NOT NULL DEFAULT 0,
		gender             text NOT NULL DEFAULT '',
		phone              text NOT NULL DEFAULT '',
		email              text,
		address            text NOT NULL DEFAULT '',
		national_id        text NOT NULL,
		chronic_conditions text[] NOT NULL DEFAULT '{}',
		allergies          text[] NOT NULL DEFAULT '{}',
		created_at         timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS appointments (
		id            uuid PRIMARY KEY,
		patient_id    uuid NOT NULL REFERENCES patients(id),
		department_id uuid NOT NULL REFERENCES departments(id),
		clinic_id     uuid NOT NULL REFERENCES clinics(id),
		doctor_id     uuid NOT NULL REFERENCES doctors(id),
		shift_id      uuid NOT NULL REFERENCES shifts(id),
		queue_number  integer NOT NULL,
		visit_date    date NOT NULL,
		status        text NOT NULL,
		notes         text NOT NULL DEFAULT '',
		created_at    timestamptz NOT NULL DEFAULT now(),
		updated_at    timestamptz NOT NULL DEFAULT now(),
		UNIQUE (clinic_id, shift_id, visit_date, queue_number)
	)`,
	`CREATE TABLE IF NOT EXISTS medical_records (
		id             uuid PRIMARY KEY,
		patient_id     uuid NOT NULL REFERENCES patients(id),
		appointment_id uuid NOT NULL UNIQUE REFERENCES appointments(id),
		doctor_id      uuid NOT NULL REFERENCES doctors(id),
		diagnosis      text NOT NULL,
		symptoms       text[] NOT NULL DEFAULT '{}',
		notes          text NOT NULL DEFAULT '',
		prescriptions  jsonb NOT NULL DEFAULT '[]',
		vitals         jsonb,
		visit_date     date NOT NULL,
		created_at     timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id            uuid PRIMARY KEY,
		username      text NOT NULL UNIQUE,
		full_name     text NOT NULL DEFAULT '',
		password_hash text NOT NULL,
		role          text NOT NULL,
		doctor_id     uuid REFERENCES doctors(id),
		department_id uuid REFERENCES departments(id),
		is_active     boolean NOT NULL DEFAULT true,
		created_at    timestamptz NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_partition
		ON appointments (clinic_id, shift_id, visit_date)`,
	`CREATE INDEX IF NOT EXISTS idx_appointments_visit_date
		ON appointments (visit_date)`,
}

// Migrate creates the clinic tables if they do not exist yet.
func Migrate(ctx context.Context, pool *pgxpool.Pool) error {
	for _, stmt := range schema {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("apply schema: %w", err)
		}
	}
	return nil
}
