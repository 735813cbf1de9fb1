package verification

import (
	"context"
	"errors"
)

// Token lifecycle failures. The HTTP edge surfaces all three identically to
// unauthenticated callers; the distinction exists for logs and tests.
var (
	ErrTokenNotFound    = errors.New("verification token not found")
	ErrTokenExpired     = errors.New("verification token expired")
	ErrTokenAlreadyUsed = errors.New("verification token already used")
)

// TokenStore holds outstanding verification tokens. Implementations must
// guarantee at most one unconsumed token per user (Put supersedes) and an
// atomic, exactly-once Consume. Expiry is enforced lazily at lookup time;
// there is no background sweep, so an expired-but-present entry must be
// reported expired by every operation that inspects it.
type TokenStore interface {
	// Put stores a fresh token, invalidating any prior unconsumed token for
	// the same user.
	Put(ctx context.Context, token Token) error
	// Get returns the live token for the value, or ErrTokenNotFound /
	// ErrTokenExpired / ErrTokenAlreadyUsed.
	Get(ctx context.Context, value string) (*Token, error)
	// Consume atomically retires the token and returns it. A second call for
	// the same value fails with ErrTokenAlreadyUsed.
	Consume(ctx context.Context, value string) (*Token, error)
	// DeleteForUser drops any unconsumed token belonging to the user.
	DeleteForUser(ctx context.Context, userID string) error
}
