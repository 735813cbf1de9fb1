package auth_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/barida/identity-server/auth"
	"github.com/barida/identity-server/authz"
	"github.com/barida/identity-server/tenants"
	"github.com/barida/identity-server/users"
	"github.com/stretchr/testify/require"
)

func adminPrincipal() authz.Principal {
	return authz.Principal{ID: "admin-1", Role: users.RoleAdmin}
}

func TestCreateUserByAdmin(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	tenant := f.createTenant(t, "acme", tenants.StatusActive)

	created, err := f.service.CreateUser(ctx, adminPrincipal(), auth.NewUser{
		Username: "sub",
		Password: testPassword,
		Role:     users.RoleSubAdmin,
		TenantID: &tenant.ID,
	})
	require.NoError(t, err)
	require.Equal(t, users.RoleSubAdmin, created.Role)
	require.Equal(t, users.VerificationUnverified, created.VerificationState)
	require.True(t, created.RequiresVerification)

	stored, err := f.userRepo.GetByUsername(ctx, "sub")
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash(testPassword, stored.PasswordHash))
}

func TestCreateUserValidation(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	tenant := f.createTenant(t, "acme", tenants.StatusActive)

	// Unknown role.
	_, err := f.service.CreateUser(ctx, adminPrincipal(), auth.NewUser{
		Username: "x", Password: testPassword, Role: users.Role("superuser"), TenantID: &tenant.ID,
	})
	require.Error(t, err)

	// Non-admin roles must carry a workspace.
	_, err = f.service.CreateUser(ctx, adminPrincipal(), auth.NewUser{
		Username: "x", Password: testPassword, Role: users.RoleOperator,
	})
	require.ErrorIs(t, err, auth.ErrTenantRequired)

	// The workspace must exist.
	ghost := "no-such-tenant"
	_, err = f.service.CreateUser(ctx, adminPrincipal(), auth.NewUser{
		Username: "x", Password: testPassword, Role: users.RoleOperator, TenantID: &ghost,
	})
	require.ErrorIs(t, err, auth.ErrTenantNotFound)

	// Admins cannot create peers; they are seeded, never created over the API.
	_, err = f.service.CreateUser(ctx, adminPrincipal(), auth.NewUser{
		Username: "x", Password: testPassword, Role: users.RoleAdmin,
	})
	require.ErrorIs(t, err, authz.ErrRoleHierarchy)
}

func TestCreateUserUsernameTaken(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	tenant := f.createTenant(t, "acme", tenants.StatusActive)
	f.createUser(t, "jane", users.RoleOperator, &tenant.ID)

	_, err := f.service.CreateUser(ctx, adminPrincipal(), auth.NewUser{
		Username: "jane", Password: testPassword, Role: users.RoleViewer, TenantID: &tenant.ID,
	})
	require.ErrorIs(t, err, auth.ErrUsernameTaken)
}

func TestSubAdminQuota(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	tenant := f.createTenant(t, "acme", tenants.StatusActive)
	subAdmin := f.createUser(t, "sub", users.RoleSubAdmin, &tenant.ID)
	caller := authz.Principal{ID: subAdmin.ID, Role: users.RoleSubAdmin, TenantID: &tenant.ID}

	// The sub_admin itself does not count against the quota.
	for i := 0; i < authz.SubAdminUserQuota; i++ {
		_, err := f.service.CreateUser(ctx, caller, auth.NewUser{
			Username: fmt.Sprintf("op-%d", i), Password: testPassword,
			Role: users.RoleOperator, TenantID: &tenant.ID,
		})
		require.NoError(t, err)
	}

	_, err := f.service.CreateUser(ctx, caller, auth.NewUser{
		Username: "one-too-many", Password: testPassword,
		Role: users.RoleOperator, TenantID: &tenant.ID,
	})
	require.ErrorIs(t, err, authz.ErrQuotaExceeded)

	// Deleting a user frees a slot; the quota counts existing users, not
	// historical creations.
	victim, err := f.userRepo.GetByUsername(ctx, "op-0")
	require.NoError(t, err)
	require.NoError(t, f.service.DeleteUser(ctx, caller, victim.ID))

	_, err = f.service.CreateUser(ctx, caller, auth.NewUser{
		Username: "one-too-many", Password: testPassword,
		Role: users.RoleOperator, TenantID: &tenant.ID,
	})
	require.NoError(t, err)
}

func TestBoundaryCheckedBeforeQuota(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	acme := f.createTenant(t, "acme", tenants.StatusActive)
	globex := f.createTenant(t, "globex", tenants.StatusActive)
	subAdmin := f.createUser(t, "sub", users.RoleSubAdmin, &acme.ID)
	caller := authz.Principal{ID: subAdmin.ID, Role: users.RoleSubAdmin, TenantID: &acme.ID}

	// Fill the quota.
	for i := 0; i < authz.SubAdminUserQuota; i++ {
		f.createUser(t, fmt.Sprintf("op-%d", i), users.RoleOperator, &acme.ID)
	}

	// Creating into a foreign workspace reports the boundary violation, not
	// the full quota.
	_, err := f.service.CreateUser(ctx, caller, auth.NewUser{
		Username: "intruder", Password: testPassword,
		Role: users.RoleOperator, TenantID: &globex.ID,
	})
	require.ErrorIs(t, err, authz.ErrTenantBoundary)
}

func TestSubAdminRoleGrants(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	tenant := f.createTenant(t, "acme", tenants.StatusActive)
	subAdmin := f.createUser(t, "sub", users.RoleSubAdmin, &tenant.ID)
	caller := authz.Principal{ID: subAdmin.ID, Role: users.RoleSubAdmin, TenantID: &tenant.ID}

	_, err := f.service.CreateUser(ctx, caller, auth.NewUser{
		Username: "peer", Password: testPassword,
		Role: users.RoleSubAdmin, TenantID: &tenant.ID,
	})
	require.ErrorIs(t, err, authz.ErrRoleHierarchy)
}

func TestUpdateRole(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	tenant := f.createTenant(t, "acme", tenants.StatusActive)
	operator := f.createUser(t, "op", users.RoleOperator, &tenant.ID)

	updated, err := f.service.UpdateRole(ctx, adminPrincipal(), operator.ID, users.RoleSubAdmin)
	require.NoError(t, err)
	require.Equal(t, users.RoleSubAdmin, updated.Role)

	// A sub_admin cannot promote past their own rank: the check runs against
	// the role after the change too.
	subAdmin := f.createUser(t, "sub", users.RoleSubAdmin, &tenant.ID)
	caller := authz.Principal{ID: subAdmin.ID, Role: users.RoleSubAdmin, TenantID: &tenant.ID}
	viewer := f.createUser(t, "view", users.RoleViewer, &tenant.ID)

	_, err = f.service.UpdateRole(ctx, caller, viewer.ID, users.RoleSubAdmin)
	require.ErrorIs(t, err, authz.ErrRoleHierarchy)

	_, err = f.service.UpdateRole(ctx, caller, viewer.ID, users.RoleOperator)
	require.NoError(t, err)
}

func TestSelfActionsDenied(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	admin := f.createUser(t, "root", users.RoleAdmin, nil)
	caller := authz.Principal{ID: admin.ID, Role: users.RoleAdmin}

	_, err := f.service.UpdateRole(ctx, caller, admin.ID, users.RoleViewer)
	require.ErrorIs(t, err, authz.ErrSelfAction)

	err = f.service.DeleteUser(ctx, caller, admin.ID)
	require.ErrorIs(t, err, authz.ErrSelfAction)
}

func TestResetPassword(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	tenant := f.createTenant(t, "acme", tenants.StatusActive)
	operator := f.createUser(t, "op", users.RoleOperator, &tenant.ID)

	// Mark verified so the reset's re-gating is observable.
	operator.VerificationState = users.VerificationVerified
	operator.RequiresVerification = false
	require.NoError(t, f.userRepo.Upsert(ctx, operator))

	require.NoError(t, f.service.ResetPassword(ctx, adminPrincipal(), operator.ID, "new-password"))

	stored, err := f.userRepo.GetByID(ctx, operator.ID)
	require.NoError(t, err)
	require.True(t, users.CheckPasswordHash("new-password", stored.PasswordHash))
	require.True(t, stored.RequiresVerification)
}

func TestListUsersScoping(t *testing.T) {
	f := setupTestFixture(t)
	ctx := context.Background()
	acme := f.createTenant(t, "acme", tenants.StatusActive)
	globex := f.createTenant(t, "globex", tenants.StatusActive)
	subAdmin := f.createUser(t, "sub", users.RoleSubAdmin, &acme.ID)
	f.createUser(t, "op-a", users.RoleOperator, &acme.ID)
	f.createUser(t, "op-g", users.RoleOperator, &globex.ID)

	all, err := f.service.ListUsers(ctx, adminPrincipal(), 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)

	caller := authz.Principal{ID: subAdmin.ID, Role: users.RoleSubAdmin, TenantID: &acme.ID}
	scoped, err := f.service.ListUsers(ctx, caller, 0, 0)
	require.NoError(t, err)
	require.Len(t, scoped, 2)
	for _, u := range scoped {
		require.Equal(t, acme.ID, *u.TenantID)
	}

	operator := authz.Principal{ID: "op-1", Role: users.RoleOperator, TenantID: &acme.ID}
	_, err = f.service.ListUsers(ctx, operator, 0, 0)
	require.ErrorIs(t, err, authz.ErrCallerUnqualified)
}
