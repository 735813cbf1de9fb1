package verification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/barida/identity-server/authz"
	"github.com/barida/identity-server/users"
	"github.com/pkg/errors"
)

var (
	ErrAlreadyVerified = errors.New("user already verified")
	ErrPayloadRequired = errors.New("biometric payload required")
)

// DefaultTokenTTL bounds how long a scanned QR payload stays actionable.
const DefaultTokenTTL = 10 * time.Minute

// Issued is what the requesting client receives: the raw token plus the URL
// the identity origin serves it under. The URL is what gets rendered as a QR
// code; image generation is the client's concern.
type Issued struct {
	Token           string `json:"token"`
	VerificationURL string `json:"verificationUrl"`
}

// Status is the poll response for an outstanding token. It carries the
// username and nothing else.
type Status struct {
	Pending  bool   `json:"pending"`
	Username string `json:"username"`
}

// Service runs the verification handoff state machine:
//
//	Unverified -> Pending (token issued, re-issue supersedes) -> Verified
//
// with an authz-gated Verified -> Unverified reset. All user-state
// transitions happen under a per-user mutex so concurrent issues, completes
// and resets resolve deterministically.
type Service struct {
	users          users.UserRepo
	store          TokenStore
	identityOrigin string
	ttl            time.Duration
	nowFunc        func() time.Time
	userLocks      sync.Map // user id -> *sync.Mutex
}

type ServiceOption func(*Service)

func WithTokenTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttl = ttl
	}
}

func WithNowFunc(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowFunc = now
	}
}

func NewService(userRepo users.UserRepo, store TokenStore, identityOrigin string, options ...ServiceOption) (*Service, error) {
	if userRepo == nil {
		return nil, errors.New("[verification.NewService] user repo is required")
	}
	if store == nil {
		return nil, errors.New("[verification.NewService] token store is required")
	}
	if identityOrigin == "" {
		return nil, errors.New("[verification.NewService] identity origin is required")
	}
	s := &Service{
		users:          userRepo,
		store:          store,
		identityOrigin: identityOrigin,
		ttl:            DefaultTokenTTL,
		nowFunc:        time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

func (s *Service) lockUser(userID string) func() {
	mu, _ := s.userLocks.LoadOrStore(userID, &sync.Mutex{})
	mu.(*sync.Mutex).Lock()
	return mu.(*sync.Mutex).Unlock
}

// Issue creates a fresh verification token for the user, superseding any
// outstanding one, and moves an unverified user to pending. The caller must
// be the authenticated user itself; handlers enforce that from the session.
func (s *Service) Issue(ctx context.Context, userID string) (*Issued, error) {
	unlock := s.lockUser(userID)
	defer unlock()

	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Issue] GetByID")
	}
	if user.VerificationState == users.VerificationVerified && !user.RequiresVerification {
		return nil, ErrAlreadyVerified
	}

	value, err := NewValue()
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Issue] NewValue")
	}

	now := s.nowFunc()
	if err := s.store.Put(ctx, Token{
		Value:     value,
		UserID:    user.ID,
		Username:  user.Username,
		IssuedAt:  now,
		ExpiresAt: now.Add(s.ttl),
	}); err != nil {
		return nil, errors.Wrap(err, "[Service.Issue] store.Put")
	}

	if user.VerificationState == users.VerificationUnverified {
		user.VerificationState = users.VerificationPending
		if err := s.users.Upsert(ctx, user); err != nil {
			return nil, errors.Wrap(err, "[Service.Issue] Upsert")
		}
	}

	return &Issued{
		Token:           value,
		VerificationURL: fmt.Sprintf("%s/verify/%s", s.identityOrigin, value),
	}, nil
}

// CheckStatus reports whether the token's verification is still pending. It
// is called unauthenticated from the identity origin, so unknown, expired
// and consumed tokens must stay indistinguishable to the caller; the
// distinct sentinels exist for logging only.
func (s *Service) CheckStatus(ctx context.Context, tokenValue string) (*Status, error) {
	token, err := s.store.Get(ctx, tokenValue)
	if err != nil {
		return nil, err
	}
	return &Status{Pending: true, Username: token.Username}, nil
}

// Complete consumes the token and applies the verified state atomically:
// biometric record stored, state verified, re-verification flag cleared. Of
// two racing calls with the same token exactly one wins; the loser observes
// ErrTokenAlreadyUsed and no state is double-applied.
func (s *Service) Complete(ctx context.Context, tokenValue, biometricPayload string) (string, error) {
	if biometricPayload == "" {
		return "", ErrPayloadRequired
	}

	token, err := s.store.Get(ctx, tokenValue)
	if err != nil {
		return "", err
	}

	unlock := s.lockUser(token.UserID)
	defer unlock()

	// Re-check under the lock; the token may have been consumed or reset
	// away between the lookup and the lock.
	consumed, err := s.store.Consume(ctx, tokenValue)
	if err != nil {
		return "", err
	}

	user, err := s.users.GetByID(ctx, consumed.UserID)
	if err != nil {
		return "", errors.Wrap(err, "[Service.Complete] GetByID")
	}

	user.BiometricRecord = biometricPayload
	user.VerificationState = users.VerificationVerified
	user.RequiresVerification = false
	if err := s.users.Upsert(ctx, user); err != nil {
		return "", errors.Wrap(err, "[Service.Complete] Upsert")
	}
	return user.Username, nil
}

// Reset forces re-verification: state back to unverified, biometric record
// cleared, next login gated again, any outstanding token invalidated. The
// caller must pass the role authorizer for the target.
func (s *Service) Reset(ctx context.Context, caller authz.Principal, targetID string) error {
	user, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return errors.Wrap(err, "[Service.Reset] GetByID")
	}
	if err := authz.Authorize(caller, authz.PrincipalOf(user), authz.ActionResetVerification); err != nil {
		return err
	}

	unlock := s.lockUser(targetID)
	defer unlock()

	// Reload under the lock so a racing Complete cannot be half-undone.
	user, err = s.users.GetByID(ctx, targetID)
	if err != nil {
		return errors.Wrap(err, "[Service.Reset] reload")
	}
	user.VerificationState = users.VerificationUnverified
	user.BiometricRecord = ""
	user.RequiresVerification = true
	if err := s.users.Upsert(ctx, user); err != nil {
		return errors.Wrap(err, "[Service.Reset] Upsert")
	}
	if err := s.store.DeleteForUser(ctx, targetID); err != nil {
		return errors.Wrap(err, "[Service.Reset] DeleteForUser")
	}
	return nil
}
