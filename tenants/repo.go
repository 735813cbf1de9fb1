package tenants

import (
	"context"
	"errors"
)

// ErrNotFound is returned by every Repo implementation when no tenant
// matches the lookup.
var ErrNotFound = errors.New("tenant not found")

type Repo interface {
	Upsert(ctx context.Context, tenant *Tenant) error
	Delete(ctx context.Context, tenantID string) error
	Get(ctx context.Context, tenantID string) (*Tenant, error)
	GetBySubdomain(ctx context.Context, subdomain string) (*Tenant, error)
	List(ctx context.Context, offset, limit int) ([]*Tenant, error)
}
