package auth

import (
	"fmt"

	"github.com/google/uuid"

	"github.com/clinicdesk/clinic-queue-engine/internal/clinic"
)

// Operation names an engine entry point for permission checks.
type Operation string

const (
	OpBookAppointment    Operation = "book-appointment"
	OpCheckIn            Operation = "check-in"
	OpCallNext           Operation = "call-next"
	OpFinalizeVisit      Operation = "finalize-visit"
	OpCancelAppointment  Operation = "cancel-appointment"
	OpMarkNoShow         Operation = "mark-no-show"
	OpViewQueue          Operation = "view-queue"
	OpViewAppointment    Operation = "view-appointment"
	OpRegisterPatient    Operation = "register-patient"
	OpViewPatients       Operation = "view-patients"
	OpViewDirectory      Operation = "view-directory"
	OpManageDirectory    Operation = "manage-directory"
	OpViewDashboard      Operation = "view-dashboard"
	OpViewMedicalRecords Operation = "view-medical-records"
)

// Actor is the authenticated caller, passed explicitly into every
// operation. There is no ambient current-user lookup.
type Actor struct {
	UserID       uuid.UUID
	Username     string
	Role         clinic.Role
	DoctorID     *uuid.UUID
	DepartmentID *uuid.UUID
}

// Ownership carries the resource attributes an operation is scoped to.
// A nil Ownership means the operation has no resource scope.
type Ownership struct {
	DoctorID     uuid.UUID
	DepartmentID uuid.UUID
}

// UnauthorizedError names the failed role/operation pair and nothing
// else; it must not reveal whether the target resource exists.
type UnauthorizedError struct {
	Role      clinic.Role
	Operation Operation
}

func (e *UnauthorizedError) Error() string {
	if e.Role == "" {
		return fmt.Sprintf("unauthenticated actor may not perform %s", e.Operation)
	}
	return fmt.Sprintf("role %s may not perform %s", e.Role, e.Operation)
}

// permissions is the complete role/operation matrix. ADMIN bypasses it
// entirely, which is why OpManageDirectory appears in no row: the
// reference tables are mutated by administrators only. DOCTOR and
// DEPARTMENT_HEAD entries are additionally subject to the ownership
// scope in Authorize.
var permissions = map[clinic.Role]map[Operation]bool{
	clinic.RoleReceptionist: {
		OpBookAppointment:   true,
		OpCheckIn:           true,
		OpCallNext:          true,
		OpCancelAppointment: true,
		OpMarkNoShow:        true,
		OpViewQueue:         true,
		OpViewAppointment:   true,
		OpRegisterPatient:   true,
		OpViewPatients:      true,
		OpViewDirectory:     true,
		OpViewDashboard:     true,
	},
	clinic.RoleDoctor: {
		OpFinalizeVisit:      true,
		OpMarkNoShow:         true,
		OpViewQueue:          true,
		OpViewAppointment:    true,
		OpViewPatients:       true,
		OpViewDirectory:      true,
		OpViewDashboard:      true,
		OpViewMedicalRecords: true,
	},
	clinic.RoleDepartmentHead: {
		OpViewQueue:          true,
		OpViewAppointment:    true,
		OpViewPatients:       true,
		OpViewDirectory:      true,
		OpViewDashboard:      true,
		OpViewMedicalRecords: true,
	},
}

// Authorize decides whether the actor may invoke the operation,
// optionally scoped to a resource. It performs no mutation, so a denial
// can never leave a partial application behind.
func Authorize(actor *Actor, op Operation, own *Ownership) error {
	if actor == nil {
		return &UnauthorizedError{Operation: op}
	}
	if actor.Role == clinic.RoleAdmin {
		return nil
	}
	if !permissions[actor.Role][op] {
		return &UnauthorizedError{Role: actor.Role, Operation: op}
	}

	if own == nil {
		return nil
	}
	switch actor.Role {
	case clinic.RoleDoctor:
		// Doctors act only on their own appointments.
		if actor.DoctorID == nil || *actor.DoctorID != own.DoctorID {
			return &UnauthorizedError{Role: actor.Role, Operation: op}
		}
	case clinic.RoleDepartmentHead:
		if actor.DepartmentID == nil || *actor.DepartmentID != own.DepartmentID {
			return &UnauthorizedError{Role: actor.Role, Operation: op}
		}
	}
	return nil
}
