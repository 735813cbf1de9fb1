package token_test

import (
	"testing"
	"time"

	"github.com/barida/identity-server/internal/utils"
	"github.com/barida/identity-server/token"
	"github.com/barida/identity-server/users"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-signing-secret"

func testUser() *users.User {
	return &users.User{
		ID:       "user-1",
		Username: "jane",
		Role:     users.RoleOperator,
		TenantID: utils.Ptr("tenant-1"),
	}
}

func TestIssueAndVerify(t *testing.T) {
	manager, err := token.NewManager(testSecret)
	require.NoError(t, err)

	credential, err := manager.Issue(testUser())
	require.NoError(t, err)
	require.NotEmpty(t, credential)

	claims, err := manager.Verify(credential)
	require.NoError(t, err)
	require.Equal(t, "user-1", claims.Subject)
	require.Equal(t, "jane", claims.Username)
	require.Equal(t, string(users.RoleOperator), claims.Role)
	require.NotNil(t, claims.TenantID)
	require.Equal(t, "tenant-1", *claims.TenantID)
}

func TestNewManagerRequiresSecret(t *testing.T) {
	_, err := token.NewManager("")
	require.Error(t, err)
}

func TestVerifyRejectsWrongSecret(t *testing.T) {
	issuer, err := token.NewManager(testSecret)
	require.NoError(t, err)
	verifier, err := token.NewManager("a-different-secret")
	require.NoError(t, err)

	credential, err := issuer.Issue(testUser())
	require.NoError(t, err)

	_, err = verifier.Verify(credential)
	require.ErrorIs(t, err, token.ErrInvalidCredential)
}

func TestVerifyRejectsGarbage(t *testing.T) {
	manager, err := token.NewManager(testSecret)
	require.NoError(t, err)

	for _, raw := range []string{"", "not-a-token", "a.b.c"} {
		_, err := manager.Verify(raw)
		require.ErrorIs(t, err, token.ErrInvalidCredential)
	}
}

func TestVerifyExpiredCredential(t *testing.T) {
	now := time.Now()
	issuedAt := now.Add(-13 * time.Hour)

	issuer, err := token.NewManager(testSecret, token.WithNowFunc(func() time.Time { return issuedAt }))
	require.NoError(t, err)
	credential, err := issuer.Issue(testUser())
	require.NoError(t, err)

	verifier, err := token.NewManager(testSecret)
	require.NoError(t, err)
	_, err = verifier.Verify(credential)
	require.ErrorIs(t, err, token.ErrExpiredCredential)
}

func TestCustomExpiry(t *testing.T) {
	now := time.Now()
	clock := now

	manager, err := token.NewManager(testSecret,
		token.WithExpiry(time.Minute),
		token.WithNowFunc(func() time.Time { return clock }),
	)
	require.NoError(t, err)

	credential, err := manager.Issue(testUser())
	require.NoError(t, err)

	_, err = manager.Verify(credential)
	require.NoError(t, err)

	clock = now.Add(2 * time.Minute)
	_, err = manager.Verify(credential)
	require.ErrorIs(t, err, token.ErrExpiredCredential)
}

func TestVerifyRejectsUnknownRole(t *testing.T) {
	manager, err := token.NewManager(testSecret)
	require.NoError(t, err)

	user := testUser()
	user.Role = users.Role("superuser")
	credential, err := manager.Issue(user)
	require.NoError(t, err)

	_, err = manager.Verify(credential)
	require.ErrorIs(t, err, token.ErrInvalidCredential)
}
