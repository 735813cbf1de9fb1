package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/barida/identity-server/users"
	"github.com/google/uuid"
)

// UserRepo is the Postgres-backed users.UserRepo.
type UserRepo struct {
	db *sql.DB
}

func NewUserRepo(db *sql.DB) *UserRepo {
	return &UserRepo{db: db}
}

const userColumns = `id, username, password_hash, role, tenant_id, verification_state, biometric_record, requires_verification, created_at`

func (r *UserRepo) Upsert(ctx context.Context, user *users.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	if user.CreatedAt.IsZero() {
		user.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO users (id, username, password_hash, role, tenant_id, verification_state, biometric_record, requires_verification, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			password_hash = EXCLUDED.password_hash,
			role = EXCLUDED.role,
			tenant_id = EXCLUDED.tenant_id,
			verification_state = EXCLUDED.verification_state,
			biometric_record = EXCLUDED.biometric_record,
			requires_verification = EXCLUDED.requires_verification`
	_, err := r.db.ExecContext(
		ctx,
		query,
		user.ID,
		user.Username,
		user.PasswordHash,
		user.Role,
		user.TenantID,
		user.VerificationState,
		user.BiometricRecord,
		user.RequiresVerification,
		user.CreatedAt,
	)
	return err
}

func (r *UserRepo) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM users WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return users.ErrNotFound
	}
	return nil
}

func (r *UserRepo) GetByID(ctx context.Context, id string) (*users.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, id))
}

func (r *UserRepo) GetByUsername(ctx context.Context, username string) (*users.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, username))
}

// List returns users ordered by creation time. An empty tenantID lists every
// user; limit 0 means no limit.
func (r *UserRepo) List(ctx context.Context, tenantID string, offset, limit int) ([]*users.User, error) {
	const query = `
		SELECT ` + userColumns + `
		FROM users
		WHERE ($1 = '' OR tenant_id = $1)
		ORDER BY created_at, id
		OFFSET $2
		LIMIT CASE WHEN $3 > 0 THEN $3 END`
	rows, err := r.db.QueryContext(ctx, query, tenantID, offset, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var list []*users.User
	for rows.Next() {
		user, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, user)
	}
	return list, rows.Err()
}

func (r *UserRepo) CountInTenant(ctx context.Context, tenantID string, excludeID string) (int, error) {
	const query = `SELECT COUNT(*) FROM users WHERE tenant_id = $1 AND id <> $2`
	var count int
	if err := r.db.QueryRowContext(ctx, query, tenantID, excludeID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func (r *UserRepo) scanOne(row rowScanner) (*users.User, error) {
	var user users.User
	err := row.Scan(
		&user.ID,
		&user.Username,
		&user.PasswordHash,
		&user.Role,
		&user.TenantID,
		&user.VerificationState,
		&user.BiometricRecord,
		&user.RequiresVerification,
		&user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, users.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}
