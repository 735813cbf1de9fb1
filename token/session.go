// Package token issues and verifies the stateless session credential. The
// credential is a signed JWT carrying identity, role and workspace claims;
// validity is decided by signature and expiry alone, nothing is persisted.
package token

import (
	"time"

	"github.com/barida/identity-server/users"
	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/pkg/errors"
)

var (
	ErrInvalidCredential = errors.New("invalid session credential")
	ErrExpiredCredential = errors.New("session credential expired")
)

// SessionClaims are the claims carried by a session credential. Subject is
// the user ID.
type SessionClaims struct {
	Username string  `json:"username"`
	Role     string  `json:"role"`
	TenantID *string `json:"tenant_id,omitempty"`
	jwtlib.RegisteredClaims
}

// Manager signs and verifies session credentials with a shared HMAC secret.
type Manager struct {
	secret  []byte
	expiry  time.Duration
	nowFunc func() time.Time
}

type ManagerOption func(*Manager)

// WithNowFunc overrides the time source (primarily for testing).
func WithNowFunc(now func() time.Time) ManagerOption {
	return func(m *Manager) {
		m.nowFunc = now
	}
}

func WithExpiry(expiry time.Duration) ManagerOption {
	return func(m *Manager) {
		m.expiry = expiry
	}
}

func NewManager(secret string, options ...ManagerOption) (*Manager, error) {
	if secret == "" {
		return nil, errors.New("[NewManager] signing secret is required")
	}
	m := &Manager{
		secret:  []byte(secret),
		expiry:  12 * time.Hour,
		nowFunc: time.Now,
	}
	for _, opt := range options {
		opt(m)
	}
	return m, nil
}

// Issue creates a signed session credential for an authenticated user.
func (m *Manager) Issue(user *users.User) (string, error) {
	now := m.nowFunc()
	claims := SessionClaims{
		Username: user.Username,
		Role:     string(user.Role),
		TenantID: user.TenantID,
		RegisteredClaims: jwtlib.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwtlib.NewNumericDate(now),
			ExpiresAt: jwtlib.NewNumericDate(now.Add(m.expiry)),
		},
	}
	signed, err := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", errors.Wrap(err, "[Manager.Issue] SignedString")
	}
	return signed, nil
}

// Verify parses and validates a raw credential, returning its claims.
// Expired and malformed credentials are reported as distinct errors so the
// HTTP edge can keep its responses uniform while logs stay precise.
func (m *Manager) Verify(raw string) (*SessionClaims, error) {
	claims := &SessionClaims{}
	_, err := jwtlib.ParseWithClaims(raw, claims, func(t *jwtlib.Token) (any, error) {
		if _, ok := t.Method.(*jwtlib.SigningMethodHMAC); !ok {
			return nil, errors.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.secret, nil
	}, jwtlib.WithTimeFunc(m.nowFunc), jwtlib.WithValidMethods([]string{"HS256"}))
	if err != nil {
		if errors.Is(err, jwtlib.ErrTokenExpired) {
			return nil, ErrExpiredCredential
		}
		return nil, ErrInvalidCredential
	}
	if !users.Role(claims.Role).Valid() {
		return nil, ErrInvalidCredential
	}
	return claims, nil
}
