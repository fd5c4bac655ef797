package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/clinicdesk/clinic-queue-engine/internal/auth"
	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

type RouterConfig struct {
	Engine  *clinic.Service
	Auth    *auth.Service
	PgPool  *pgxpool.Pool
	Redis   *redis.Client
	Logger  zerolog.Logger
	Env     string
	Version string
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(cfg.Logger))
	r.Use(auth.Middleware(cfg.Auth))

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	h := NewHandlers(cfg.Engine, cfg.Auth)

	r.Post("/auth/login", h.login)

	r.Post("/appointments", h.bookAppointment)
	r.Get("/appointments/{id}", h.getAppointment)
	r.Post("/appointments/{id}/check-in", h.checkIn)
	r.Post("/appointments/{id}/cancel", h.cancelAppointment)
	r.Post("/appointments/{id}/no-show", h.markNoShow)
	r.Post("/appointments/{id}/finalize", h.finalizeVisit)

	r.Get("/queue", h.queue)
	r.Post("/queue/call-next", h.callNext)

	r.Post("/patients", h.registerPatient)
	r.Get("/patients", h.listPatients)
	r.Get("/patients/{id}/appointments", h.patientAppointments)
	r.Get("/doctors/{id}/appointments", h.doctorAppointments)
	r.Get("/patients/{id}/medical-records", h.patientMedicalRecords)

	r.Get("/dashboard", h.dashboard)

	directory := NewDirectoryHandlers(cfg.Engine)
	r.Get("/departments", directory.listDepartments)
	r.Get("/clinics", directory.listClinics)
	r.Get("/shifts", directory.listShifts)
	r.Get("/doctors", directory.listDoctors)
	r.Get("/doctor-shifts", directory.listDoctorShifts)

	admin := NewAdminHandlers(cfg.Engine)
	r.Post("/departments", admin.createDepartment)
	r.Post("/departments/{id}/toggle", admin.toggleDepartment)
	r.Post("/doctors", admin.createDoctor)
	r.Post("/doctors/{id}/status", admin.setDoctorStatus)
	r.Post("/shifts", admin.createShift)
	r.Post("/shifts/{id}/toggle", admin.toggleShift)
	r.Post("/doctor-shifts", admin.assignDoctorShift)
	r.Post("/doctor-shifts/{id}/toggle", admin.toggleDoctorShift)

	return r
}
