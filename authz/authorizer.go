// Package authz decides whether one user may act on another. It is the single
// source of truth for the role hierarchy and workspace boundary rules and is
// deliberately storage-free so every rule is unit-testable in isolation.
package authz

import (
	"errors"
	"fmt"

	"github.com/barida/identity-server/users"
)

// Action names an administrative operation on a target user.
type Action string

const (
	ActionCreate            Action = "create"
	ActionUpdateRole        Action = "update_role"
	ActionResetPassword     Action = "reset_password"
	ActionResetVerification Action = "reset_verification"
	ActionDelete            Action = "delete"
)

// SubAdminUserQuota is the hard cap on concurrently existing users in a
// sub_admin's workspace, excluding the sub_admin itself. No queueing, no
// soft limit.
const SubAdminUserQuota = 4

var (
	ErrRoleHierarchy     = errors.New("caller role does not outrank target role")
	ErrTenantBoundary    = errors.New("caller may not act outside their own workspace")
	ErrRoleGrantDenied   = errors.New("caller may not grant this role")
	ErrSelfAction        = errors.New("self role changes and self deletion are forbidden")
	ErrQuotaExceeded     = errors.New("workspace user quota exceeded")
	ErrCallerUnqualified = errors.New("caller role may not administer users")
)

// Principal is the caller/target shape the authorizer decides over: just
// identity, rank and workspace.
type Principal struct {
	ID       string
	Role     users.Role
	TenantID *string
}

// PrincipalOf extracts the decision-relevant fields from a full user record.
func PrincipalOf(u *users.User) Principal {
	return Principal{ID: u.ID, Role: u.Role, TenantID: u.TenantID}
}

func sameTenant(a, b *string) bool {
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// Authorize decides whether caller may perform action on target. The target
// carries the role the user will hold after the action, so role grants and
// role changes are checked against the new role as well as the old one via
// two calls where needed.
//
// Rules, all of which must hold:
//   - strict hierarchy: caller must outrank the target; equal rank, including
//     self, is always denied
//   - self role-change and self-deletion are denied regardless of role
//   - sub_admins act only inside their own workspace and may only place
//     operator or viewer roles
//   - admins are exempt from workspace scoping
func Authorize(caller, target Principal, action Action) error {
	if caller.ID != "" && caller.ID == target.ID {
		return ErrSelfAction
	}

	// Only the two administrative ranks manage users at all.
	if caller.Role != users.RoleAdmin && caller.Role != users.RoleSubAdmin {
		return ErrCallerUnqualified
	}

	if caller.Role.Level() <= target.Role.Level() {
		return ErrRoleHierarchy
	}

	if caller.Role == users.RoleAdmin {
		return nil
	}

	// sub_admin from here on.
	if caller.TenantID == nil {
		// A sub_admin without a workspace is a data integrity fault; deny.
		return ErrTenantBoundary
	}
	if !sameTenant(caller.TenantID, target.TenantID) {
		return ErrTenantBoundary
	}
	if action == ActionCreate || action == ActionUpdateRole {
		if target.Role != users.RoleOperator && target.Role != users.RoleViewer {
			return fmt.Errorf("%w: %s", ErrRoleGrantDenied, target.Role)
		}
	}
	return nil
}

// CheckQuota enforces the sub_admin workspace cap. existingCount is the
// number of users already in the workspace excluding the sub_admin itself.
// Admins are never quota-bound.
func CheckQuota(caller Principal, existingCount int) error {
	if caller.Role == users.RoleAdmin {
		return nil
	}
	if existingCount >= SubAdminUserQuota {
		return ErrQuotaExceeded
	}
	return nil
}
