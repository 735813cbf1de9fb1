package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/barida/identity-server/tenants"
	"github.com/google/uuid"
)

// TenantRepo is the Postgres-backed tenants.Repo.
type TenantRepo struct {
	db *sql.DB
}

func NewTenantRepo(db *sql.DB) *TenantRepo {
	return &TenantRepo{db: db}
}

const tenantColumns = `id, name, subdomain, description, company, location, status, created_by, created_at`

func (r *TenantRepo) Upsert(ctx context.Context, tenant *tenants.Tenant) error {
	if tenant.ID == "" {
		tenant.ID = uuid.NewString()
	}
	if tenant.CreatedAt.IsZero() {
		tenant.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO tenants (id, name, subdomain, description, company, location, status, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			description = EXCLUDED.description,
			company = EXCLUDED.company,
			location = EXCLUDED.location,
			status = EXCLUDED.status`
	_, err := r.db.ExecContext(
		ctx,
		query,
		tenant.ID,
		tenant.Name,
		tenant.Subdomain,
		tenant.Description,
		tenant.Company,
		tenant.Location,
		tenant.Status,
		tenant.CreatedBy,
		tenant.CreatedAt,
	)
	return err
}

func (r *TenantRepo) Delete(ctx context.Context, tenantID string) error {
	const query = `DELETE FROM tenants WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, tenantID)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return tenants.ErrNotFound
	}
	return nil
}

func (r *TenantRepo) Get(ctx context.Context, tenantID string) (*tenants.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants WHERE id = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, tenantID))
}

func (r *TenantRepo) GetBySubdomain(ctx context.Context, subdomain string) (*tenants.Tenant, error) {
	const query = `SELECT ` + tenantColumns + ` FROM tenants WHERE subdomain = $1`
	return r.scanOne(r.db.QueryRowContext(ctx, query, subdomain))
}

func (r *TenantRepo) List(ctx context.Context, offset, limit int) ([]*tenants.Tenant, error) {
	const query = `
		SELECT ` + tenantColumns + `
		FROM tenants
		ORDER BY created_at, id
		OFFSET $1
		LIMIT CASE WHEN $2 > 0 THEN $2 END`
	rows, err := r.db.QueryContext(ctx, query, offset, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var list []*tenants.Tenant
	for rows.Next() {
		tenant, err := r.scanOne(rows)
		if err != nil {
			return nil, err
		}
		list = append(list, tenant)
	}
	return list, rows.Err()
}

func (r *TenantRepo) scanOne(row rowScanner) (*tenants.Tenant, error) {
	var tenant tenants.Tenant
	err := row.Scan(
		&tenant.ID,
		&tenant.Name,
		&tenant.Subdomain,
		&tenant.Description,
		&tenant.Company,
		&tenant.Location,
		&tenant.Status,
		&tenant.CreatedBy,
		&tenant.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, tenants.ErrNotFound
		}
		return nil, err
	}
	return &tenant, nil
}
