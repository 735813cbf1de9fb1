// Package verification implements the biometric verification handoff: single
// use tokens issued on a workspace origin, completed from the dedicated
// identity origin, with a poll-until-complete status check in between.
package verification

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/pkg/errors"
)

const tokenByteLength = 32

// Token is the ephemeral, single-use secret that authorizes exactly one
// biometric completion callback for one user. It lives in its own store,
// keyed by value, decoupled from the user record.
type Token struct {
	Value     string
	UserID    string
	Username  string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

func (t *Token) Expired(now time.Time) bool {
	return now.After(t.ExpiresAt)
}

// NewValue generates a cryptographically random, unguessable token value.
func NewValue() (string, error) {
	bytes := make([]byte, tokenByteLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", errors.Wrap(err, "[NewValue] rand.Read")
	}
	return hex.EncodeToString(bytes), nil
}
