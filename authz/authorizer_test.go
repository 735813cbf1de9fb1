package authz_test

import (
	"testing"

	"github.com/barida/identity-server/authz"
	"github.com/barida/identity-server/internal/utils"
	"github.com/barida/identity-server/users"
	"github.com/stretchr/testify/require"
)

func principal(id string, role users.Role, tenantID string) authz.Principal {
	p := authz.Principal{ID: id, Role: role}
	if tenantID != "" {
		p.TenantID = utils.Ptr(tenantID)
	}
	return p
}

func TestAuthorizeHierarchy(t *testing.T) {
	admin := principal("admin-1", users.RoleAdmin, "")
	subAdmin := principal("sub-1", users.RoleSubAdmin, "tenant-1")
	operator := principal("op-1", users.RoleOperator, "tenant-1")
	viewer := principal("view-1", users.RoleViewer, "tenant-1")

	tests := []struct {
		name    string
		caller  authz.Principal
		target  authz.Principal
		wantErr error
	}{
		{"admin over sub_admin", admin, subAdmin, nil},
		{"admin over operator", admin, operator, nil},
		{"sub_admin over operator", subAdmin, operator, nil},
		{"sub_admin over viewer", subAdmin, viewer, nil},
		{"equal rank denied", admin, principal("admin-2", users.RoleAdmin, ""), authz.ErrRoleHierarchy},
		{"sub_admin over sub_admin denied", subAdmin, principal("sub-2", users.RoleSubAdmin, "tenant-1"), authz.ErrRoleHierarchy},
		{"operator cannot administer", operator, viewer, authz.ErrCallerUnqualified},
		{"viewer cannot administer", viewer, operator, authz.ErrCallerUnqualified},
		{"lower rank cannot act upward", subAdmin, principal("admin-3", users.RoleAdmin, ""), authz.ErrRoleHierarchy},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := authz.Authorize(tc.caller, tc.target, authz.ActionDelete)
			if tc.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestAuthorizeSelfAction(t *testing.T) {
	admin := principal("admin-1", users.RoleAdmin, "")

	err := authz.Authorize(admin, admin, authz.ActionDelete)
	require.ErrorIs(t, err, authz.ErrSelfAction)

	err = authz.Authorize(admin, admin, authz.ActionUpdateRole)
	require.ErrorIs(t, err, authz.ErrSelfAction)
}

func TestAuthorizeTenantBoundary(t *testing.T) {
	subAdmin := principal("sub-1", users.RoleSubAdmin, "tenant-1")
	outsideOperator := principal("op-2", users.RoleOperator, "tenant-2")

	err := authz.Authorize(subAdmin, outsideOperator, authz.ActionDelete)
	require.ErrorIs(t, err, authz.ErrTenantBoundary)

	// Admins are exempt from workspace scoping.
	admin := principal("admin-1", users.RoleAdmin, "")
	require.NoError(t, authz.Authorize(admin, outsideOperator, authz.ActionDelete))
}

func TestAuthorizeSubAdminWithoutWorkspace(t *testing.T) {
	orphan := authz.Principal{ID: "sub-1", Role: users.RoleSubAdmin}
	target := principal("op-1", users.RoleOperator, "tenant-1")

	err := authz.Authorize(orphan, target, authz.ActionDelete)
	require.ErrorIs(t, err, authz.ErrTenantBoundary)
}

func TestAuthorizeRoleGrants(t *testing.T) {
	subAdmin := principal("sub-1", users.RoleSubAdmin, "tenant-1")

	// sub_admins may only place operator or viewer roles.
	for _, role := range []users.Role{users.RoleOperator, users.RoleViewer} {
		target := principal("new-1", role, "tenant-1")
		require.NoError(t, authz.Authorize(subAdmin, target, authz.ActionCreate))
	}

	subAdminTarget := principal("new-2", users.RoleSubAdmin, "tenant-1")
	err := authz.Authorize(subAdmin, subAdminTarget, authz.ActionCreate)
	require.ErrorIs(t, err, authz.ErrRoleHierarchy)

	// Admins may create sub_admins, but never peers.
	admin := principal("admin-1", users.RoleAdmin, "")
	require.NoError(t, authz.Authorize(admin, subAdminTarget, authz.ActionCreate))
	adminTarget := principal("new-3", users.RoleAdmin, "")
	require.ErrorIs(t, authz.Authorize(admin, adminTarget, authz.ActionCreate), authz.ErrRoleHierarchy)
}

func TestAuthorizeNonGrantActionsInsideWorkspace(t *testing.T) {
	subAdmin := principal("sub-1", users.RoleSubAdmin, "tenant-1")
	operator := principal("op-1", users.RoleOperator, "tenant-1")

	for _, action := range []authz.Action{
		authz.ActionResetPassword,
		authz.ActionResetVerification,
		authz.ActionDelete,
	} {
		require.NoError(t, authz.Authorize(subAdmin, operator, action))
	}
}

func TestCheckQuota(t *testing.T) {
	subAdmin := principal("sub-1", users.RoleSubAdmin, "tenant-1")

	require.NoError(t, authz.CheckQuota(subAdmin, authz.SubAdminUserQuota-1))
	require.ErrorIs(t, authz.CheckQuota(subAdmin, authz.SubAdminUserQuota), authz.ErrQuotaExceeded)
	require.ErrorIs(t, authz.CheckQuota(subAdmin, authz.SubAdminUserQuota+3), authz.ErrQuotaExceeded)

	// Admins are never quota-bound.
	admin := principal("admin-1", users.RoleAdmin, "")
	require.NoError(t, authz.CheckQuota(admin, 100))
}
