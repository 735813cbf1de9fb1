package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/barida/identity-server/verification"
	pkgerrors "github.com/pkg/errors"
)

// TokenStore is the Postgres-backed verification.TokenStore. Consumed rows
// are kept until their original expiry so a replayed value is reported as
// already used rather than unknown; expiry itself is enforced at lookup
// time, not by a sweeper.
type TokenStore struct {
	db *sql.DB
}

func NewTokenStore(db *sql.DB) *TokenStore {
	return &TokenStore{db: db}
}

func (s *TokenStore) Put(ctx context.Context, token verification.Token) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return pkgerrors.Wrap(err, "[TokenStore.Put] BeginTx")
	}
	defer func() { _ = tx.Rollback() }()

	// A fresh token supersedes any outstanding one for the same user.
	const deletePrior = `DELETE FROM verification_tokens WHERE user_id = $1 AND consumed_at IS NULL`
	if _, err := tx.ExecContext(ctx, deletePrior, token.UserID); err != nil {
		return pkgerrors.Wrap(err, "[TokenStore.Put] delete prior")
	}

	const insert = `
		INSERT INTO verification_tokens (value, user_id, username, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)`
	if _, err := tx.ExecContext(ctx, insert, token.Value, token.UserID, token.Username, token.IssuedAt, token.ExpiresAt); err != nil {
		return pkgerrors.Wrap(err, "[TokenStore.Put] insert")
	}

	return tx.Commit()
}

func (s *TokenStore) Get(ctx context.Context, value string) (*verification.Token, error) {
	const query = `
		SELECT value, user_id, username, issued_at, expires_at, consumed_at
		FROM verification_tokens
		WHERE value = $1`

	var (
		token      verification.Token
		consumedAt sql.NullTime
	)
	err := s.db.QueryRowContext(ctx, query, value).Scan(
		&token.Value,
		&token.UserID,
		&token.Username,
		&token.IssuedAt,
		&token.ExpiresAt,
		&consumedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, verification.ErrTokenNotFound
		}
		return nil, err
	}

	now := time.Now().UTC()
	switch {
	case consumedAt.Valid && token.Expired(now):
		return nil, verification.ErrTokenNotFound
	case consumedAt.Valid:
		return nil, verification.ErrTokenAlreadyUsed
	case token.Expired(now):
		return nil, verification.ErrTokenExpired
	}
	return &token, nil
}

// Consume retires the token with a single conditional update so concurrent
// callers cannot both succeed.
func (s *TokenStore) Consume(ctx context.Context, value string) (*verification.Token, error) {
	now := time.Now().UTC()

	const query = `
		UPDATE verification_tokens
		SET consumed_at = $2
		WHERE value = $1 AND consumed_at IS NULL AND expires_at > $2
		RETURNING value, user_id, username, issued_at, expires_at`

	var token verification.Token
	err := s.db.QueryRowContext(ctx, query, value, now).Scan(
		&token.Value,
		&token.UserID,
		&token.Username,
		&token.IssuedAt,
		&token.ExpiresAt,
	)
	if err == nil {
		return &token, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	// The update matched nothing; classify why via a plain lookup.
	if _, getErr := s.Get(ctx, value); getErr != nil {
		return nil, getErr
	}
	return nil, verification.ErrTokenAlreadyUsed
}

func (s *TokenStore) DeleteForUser(ctx context.Context, userID string) error {
	const query = `DELETE FROM verification_tokens WHERE user_id = $1 AND consumed_at IS NULL`
	_, err := s.db.ExecContext(ctx, query, userID)
	return err
}
