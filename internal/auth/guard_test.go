package auth

import (
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

func actorWithRole(role clinic.Role) *Actor {
	return &Actor{UserID: uuid.New(), Username: "u", Role: role}
}

func TestAuthorizeRoleMatrix(t *testing.T) {
	tests := []struct {
		name    string
		role    clinic.Role
		op      Operation
		allowed bool
	}{
		{"receptionist books", clinic.RoleReceptionist, OpBookAppointment, true},
		{"receptionist calls next", clinic.RoleReceptionist, OpCallNext, true},
		{"receptionist cannot finalize", clinic.RoleReceptionist, OpFinalizeVisit, false},
		{"receptionist cannot read records", clinic.RoleReceptionist, OpViewMedicalRecords, false},
		{"doctor finalizes", clinic.RoleDoctor, OpFinalizeVisit, true},
		{"doctor cannot book", clinic.RoleDoctor, OpBookAppointment, false},
		{"doctor cannot call next", clinic.RoleDoctor, OpCallNext, false},
		{"department head views queue", clinic.RoleDepartmentHead, OpViewQueue, true},
		{"department head cannot mutate", clinic.RoleDepartmentHead, OpCancelAppointment, false},
		{"admin bypasses the matrix", clinic.RoleAdmin, OpFinalizeVisit, true},
		{"admin books too", clinic.RoleAdmin, OpBookAppointment, true},
		{"admin manages the directory", clinic.RoleAdmin, OpManageDirectory, true},
		{"receptionist cannot manage directory", clinic.RoleReceptionist, OpManageDirectory, false},
		{"doctor cannot manage directory", clinic.RoleDoctor, OpManageDirectory, false},
		{"department head cannot manage directory", clinic.RoleDepartmentHead, OpManageDirectory, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := Authorize(actorWithRole(tc.role), tc.op, nil)
			if tc.allowed && err != nil {
				t.Fatalf("expected allow, got %v", err)
			}
			if !tc.allowed {
				var denied *UnauthorizedError
				if !errors.As(err, &denied) {
					t.Fatalf("expected UnauthorizedError, got %v", err)
				}
				if denied.Role != tc.role || denied.Operation != tc.op {
					t.Fatalf("denial names %s/%s, want %s/%s", denied.Role, denied.Operation, tc.role, tc.op)
				}
			}
		})
	}
}

func TestAuthorizeNilActorIsDenied(t *testing.T) {
	err := Authorize(nil, OpViewQueue, nil)
	var denied *UnauthorizedError
	if !errors.As(err, &denied) {
		t.Fatalf("expected UnauthorizedError, got %v", err)
	}
	if denied.Role != "" {
		t.Fatalf("unauthenticated denial carries role %q", denied.Role)
	}
}

func TestAuthorizeDoctorOwnershipScope(t *testing.T) {
	mine := uuid.New()
	other := uuid.New()

	doctor := actorWithRole(clinic.RoleDoctor)
	doctor.DoctorID = &mine

	if err := Authorize(doctor, OpFinalizeVisit, &Ownership{DoctorID: mine}); err != nil {
		t.Fatalf("own appointment denied: %v", err)
	}
	if err := Authorize(doctor, OpFinalizeVisit, &Ownership{DoctorID: other}); err == nil {
		t.Fatal("another doctor's appointment was allowed")
	}

	// A doctor account never linked to a doctor record can own nothing.
	unlinked := actorWithRole(clinic.RoleDoctor)
	if err := Authorize(unlinked, OpFinalizeVisit, &Ownership{DoctorID: mine}); err == nil {
		t.Fatal("unlinked doctor account was allowed")
	}
}

func TestAuthorizeDepartmentHeadScope(t *testing.T) {
	dept := uuid.New()
	head := actorWithRole(clinic.RoleDepartmentHead)
	head.DepartmentID = &dept

	if err := Authorize(head, OpViewQueue, &Ownership{DepartmentID: dept}); err != nil {
		t.Fatalf("own department denied: %v", err)
	}
	if err := Authorize(head, OpViewQueue, &Ownership{DepartmentID: uuid.New()}); err == nil {
		t.Fatal("foreign department was allowed")
	}
}

func TestAuthorizeAdminIgnoresOwnership(t *testing.T) {
	admin := actorWithRole(clinic.RoleAdmin)
	if err := Authorize(admin, OpFinalizeVisit, &Ownership{DoctorID: uuid.New()}); err != nil {
		t.Fatalf("admin denied: %v", err)
	}
}
