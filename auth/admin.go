package auth

import (
	"context"

	"github.com/barida/identity-server/authz"
	"github.com/barida/identity-server/tenants"
	"github.com/barida/identity-server/users"
	"github.com/pkg/errors"
)

// NewUser is an administrative user-creation request.
type NewUser struct {
	Username string
	Password string
	Role     users.Role
	TenantID *string
}

// CreateUser creates a user on behalf of caller. Workspace boundary and role
// grant rules are checked before the quota, so a sub_admin reaching into a
// foreign workspace sees the boundary violation even when their own quota is
// already full. Non-admin accounts start unverified and gated on biometric
// verification.
func (s *Service) CreateUser(ctx context.Context, caller authz.Principal, req NewUser) (*users.User, error) {
	if !req.Role.Valid() {
		return nil, errors.Errorf("[Service.CreateUser] invalid role %q", req.Role)
	}
	// Only global admins may be workspace-independent.
	if req.Role != users.RoleAdmin && req.TenantID == nil {
		return nil, ErrTenantRequired
	}

	target := authz.Principal{Role: req.Role, TenantID: req.TenantID}
	if err := authz.Authorize(caller, target, authz.ActionCreate); err != nil {
		return nil, err
	}

	if req.TenantID != nil {
		if _, err := s.repos.Tenants.Get(ctx, *req.TenantID); err != nil {
			if errors.Is(err, tenants.ErrNotFound) {
				return nil, ErrTenantNotFound
			}
			return nil, errors.Wrap(err, "[Service.CreateUser] Tenants.Get")
		}
	}

	if caller.Role == users.RoleSubAdmin {
		count, err := s.repos.Users.CountInTenant(ctx, *caller.TenantID, caller.ID)
		if err != nil {
			return nil, errors.Wrap(err, "[Service.CreateUser] CountInTenant")
		}
		if err := authz.CheckQuota(caller, count); err != nil {
			return nil, err
		}
	}

	if _, err := s.repos.Users.GetByUsername(ctx, req.Username); err == nil {
		return nil, ErrUsernameTaken
	} else if !errors.Is(err, users.ErrNotFound) {
		return nil, errors.Wrap(err, "[Service.CreateUser] GetByUsername")
	}

	hash, err := users.HashPassword(req.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.CreateUser] HashPassword")
	}

	user := &users.User{
		Username:             req.Username,
		PasswordHash:         hash,
		Role:                 req.Role,
		TenantID:             req.TenantID,
		VerificationState:    users.VerificationUnverified,
		RequiresVerification: req.Role != users.RoleAdmin,
		CreatedAt:            s.nowTime(),
	}
	if err := s.repos.Users.Upsert(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[Service.CreateUser] Upsert")
	}
	return user, nil
}

// UpdateRole changes a user's role. The caller must outrank both the current
// and the new role; sub_admins may only place operator or viewer.
func (s *Service) UpdateRole(ctx context.Context, caller authz.Principal, targetID string, newRole users.Role) (*users.User, error) {
	if !newRole.Valid() {
		return nil, errors.Errorf("[Service.UpdateRole] invalid role %q", newRole)
	}
	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return nil, err
	}

	if err := authz.Authorize(caller, authz.PrincipalOf(target), authz.ActionUpdateRole); err != nil {
		return nil, err
	}
	after := authz.Principal{ID: target.ID, Role: newRole, TenantID: target.TenantID}
	if err := authz.Authorize(caller, after, authz.ActionUpdateRole); err != nil {
		return nil, err
	}

	target.Role = newRole
	if err := s.repos.Users.Upsert(ctx, target); err != nil {
		return nil, errors.Wrap(err, "[Service.UpdateRole] Upsert")
	}
	return target, nil
}

// DeleteUser removes a user. Self-deletion is always denied by the
// authorizer.
func (s *Service) DeleteUser(ctx context.Context, caller authz.Principal, targetID string) error {
	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return err
	}
	if err := authz.Authorize(caller, authz.PrincipalOf(target), authz.ActionDelete); err != nil {
		return err
	}
	if err := s.repos.Users.Delete(ctx, targetID); err != nil {
		return errors.Wrap(err, "[Service.DeleteUser] Delete")
	}
	return nil
}

// ResetPassword sets a new password and forces biometric re-verification on
// the target's next login.
func (s *Service) ResetPassword(ctx context.Context, caller authz.Principal, targetID, newPassword string) error {
	target, err := s.getTarget(ctx, targetID)
	if err != nil {
		return err
	}
	if err := authz.Authorize(caller, authz.PrincipalOf(target), authz.ActionResetPassword); err != nil {
		return err
	}

	hash, err := users.HashPassword(newPassword)
	if err != nil {
		return errors.Wrap(err, "[Service.ResetPassword] HashPassword")
	}
	target.PasswordHash = hash
	if target.Role != users.RoleAdmin {
		target.RequiresVerification = true
	}
	if err := s.repos.Users.Upsert(ctx, target); err != nil {
		return errors.Wrap(err, "[Service.ResetPassword] Upsert")
	}
	return nil
}

// ListUsers returns the users the caller may see: their own workspace for
// sub_admins, everything for admins.
func (s *Service) ListUsers(ctx context.Context, caller authz.Principal, offset, limit int) ([]*users.User, error) {
	tenantID := ""
	switch caller.Role {
	case users.RoleAdmin:
	case users.RoleSubAdmin:
		if caller.TenantID == nil {
			return nil, authz.ErrTenantBoundary
		}
		tenantID = *caller.TenantID
	default:
		return nil, authz.ErrCallerUnqualified
	}
	list, err := s.repos.Users.List(ctx, tenantID, offset, limit)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.ListUsers] List")
	}
	return list, nil
}

func (s *Service) getTarget(ctx context.Context, targetID string) (*users.User, error) {
	target, err := s.repos.Users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "[Service.getTarget] GetByID")
	}
	return target, nil
}
