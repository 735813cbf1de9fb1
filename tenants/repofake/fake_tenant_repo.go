package repofake

import (
	"context"
	"sort"
	"sync"

	"github.com/barida/identity-server/tenants"
	"github.com/google/uuid"
)

var _ tenants.Repo = (*FakeTenantRepo)(nil)

type FakeTenantRepo struct {
	tenants    map[string]*tenants.Tenant
	subdomains map[string]string // subdomain to tenant id
	lock       sync.RWMutex
}

func NewFakeTenantRepo() *FakeTenantRepo {
	return &FakeTenantRepo{
		tenants:    make(map[string]*tenants.Tenant),
		subdomains: make(map[string]string),
	}
}

func (tr *FakeTenantRepo) Upsert(_ context.Context, tenant *tenants.Tenant) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	if tenant.ID == "" {
		tenant.ID = uuid.New().String()
	}
	copied := *tenant
	tr.tenants[tenant.ID] = &copied
	tr.subdomains[tenant.Subdomain] = tenant.ID
	return nil
}

func (tr *FakeTenantRepo) Delete(_ context.Context, tenantID string) error {
	tr.lock.Lock()
	defer tr.lock.Unlock()

	tenant, ok := tr.tenants[tenantID]
	if !ok {
		return tenants.ErrNotFound
	}
	delete(tr.subdomains, tenant.Subdomain)
	delete(tr.tenants, tenantID)
	return nil
}

func (tr *FakeTenantRepo) Get(_ context.Context, tenantID string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	tenant, ok := tr.tenants[tenantID]
	if !ok {
		return nil, tenants.ErrNotFound
	}
	copied := *tenant
	return &copied, nil
}

func (tr *FakeTenantRepo) GetBySubdomain(_ context.Context, subdomain string) (*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	id, ok := tr.subdomains[subdomain]
	if !ok {
		return nil, tenants.ErrNotFound
	}
	copied := *tr.tenants[id]
	return &copied, nil
}

func (tr *FakeTenantRepo) List(_ context.Context, offset, limit int) ([]*tenants.Tenant, error) {
	tr.lock.RLock()
	defer tr.lock.RUnlock()

	all := make([]*tenants.Tenant, 0, len(tr.tenants))
	for _, t := range tr.tenants {
		copied := *t
		all = append(all, &copied)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].Subdomain < all[j].Subdomain })

	if offset >= len(all) {
		return []*tenants.Tenant{}, nil
	}
	all = all[offset:]
	if limit > 0 && limit < len(all) {
		all = all[:limit]
	}
	return all, nil
}
