package users

import (
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// Role represents a user's position in the strict access hierarchy.
type Role string

const (
	RoleAdmin    Role = "admin"     // Global scope, can act in any workspace
	RoleSubAdmin Role = "sub_admin" // Manages operators/viewers within one workspace
	RoleOperator Role = "operator"  // Regular workspace user
	RoleViewer   Role = "viewer"    // Read-only workspace user
)

// roleLevels defines the total order admin > sub_admin > operator > viewer.
var roleLevels = map[Role]int{
	RoleAdmin:    4,
	RoleSubAdmin: 3,
	RoleOperator: 2,
	RoleViewer:   1,
}

// Level returns the hierarchy rank of the role, 0 for unknown roles.
func (r Role) Level() int {
	return roleLevels[r]
}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	_, ok := roleLevels[r]
	return ok
}

// ParseRole validates a raw role string against the closed set.
func ParseRole(raw string) (Role, error) {
	r := Role(raw)
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return r, nil
}

// VerificationState tracks a user's progress through biometric identity proofing.
type VerificationState string

const (
	VerificationUnverified VerificationState = "unverified"
	VerificationPending    VerificationState = "verification_pending"
	VerificationVerified   VerificationState = "verified"
)

type User struct {
	ID                   string            `json:"id,omitempty"`        // Unique identifier for the user
	Username             string            `json:"username,omitempty"`  // Unique username
	PasswordHash         string            `json:"-"`                   // Hashed password - never serialize
	Role                 Role              `json:"role,omitempty"`      // Position in the access hierarchy
	TenantID             *string           `json:"tenant_id,omitempty"` // Workspace the user belongs to, nil for global admins
	VerificationState    VerificationState `json:"verification_state,omitempty"`
	BiometricRecord      string            `json:"-"`                               // Opaque capture blob, present only when verified - never serialize
	RequiresVerification bool              `json:"requires_verification,omitempty"` // Forces biometric verification on next login
	CreatedAt            time.Time         `json:"created_at,omitempty"`
}

// Summary is the safe subset of a user returned to clients. It never carries
// the password hash or the biometric blob.
type Summary struct {
	ID                   string            `json:"id"`
	Username             string            `json:"username"`
	Role                 Role              `json:"role"`
	TenantID             *string           `json:"tenant_id,omitempty"`
	VerificationState    VerificationState `json:"verification_state"`
	RequiresVerification bool              `json:"requires_verification"`
}

func (u *User) Summary() Summary {
	return Summary{
		ID:                   u.ID,
		Username:             u.Username,
		Role:                 u.Role,
		TenantID:             u.TenantID,
		VerificationState:    u.VerificationState,
		RequiresVerification: u.RequiresVerification,
	}
}

// InTenant reports whether the user belongs to the given workspace. Global
// admins belong everywhere.
func (u *User) InTenant(tenantID string) bool {
	if u.Role == RoleAdmin {
		return true
	}
	return u.TenantID != nil && *u.TenantID == tenantID
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash compares a candidate password against a stored bcrypt
// hash. bcrypt's comparison is constant-time over the digest.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
