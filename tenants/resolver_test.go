package tenants_test

import (
	"context"
	"testing"

	"github.com/barida/identity-server/tenants"
	"github.com/barida/identity-server/tenants/repofake"
	"github.com/stretchr/testify/require"
)

const testRootDomain = "barida.xyz"

func setupResolver(t *testing.T) (*tenants.Resolver, tenants.Repo) {
	t.Helper()

	repo := repofake.NewFakeTenantRepo()
	err := repo.Upsert(context.Background(), &tenants.Tenant{
		Name:      "Acme",
		Subdomain: "acme",
		Status:    tenants.StatusActive,
	})
	require.NoError(t, err)

	return tenants.NewResolver(testRootDomain, repo), repo
}

func TestResolveHosts(t *testing.T) {
	resolver, _ := setupResolver(t)
	ctx := context.Background()

	tests := []struct {
		name string
		host string
		want tenants.OriginKind
	}{
		{"apex domain", "barida.xyz", tenants.OriginCentralAdmin},
		{"www prefix", "www.barida.xyz", tenants.OriginCentralAdmin},
		{"admin prefix", "admin.barida.xyz", tenants.OriginCentralAdmin},
		{"localhost", "localhost", tenants.OriginCentralAdmin},
		{"localhost with port", "localhost:8080", tenants.OriginCentralAdmin},
		{"bare IP", "127.0.0.1", tenants.OriginCentralAdmin},
		{"IP with port", "192.168.1.10:3000", tenants.OriginCentralAdmin},
		{"identity origin", "identity.barida.xyz", tenants.OriginIdentity},
		{"known workspace", "acme.barida.xyz", tenants.OriginTenant},
		{"known workspace with port", "acme.barida.xyz:443", tenants.OriginTenant},
		{"unknown workspace", "ghost.barida.xyz", tenants.OriginNotFound},
		{"case insensitive", "ACME.Barida.XYZ", tenants.OriginTenant},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := resolver.Resolve(ctx, tc.host)
			require.NoError(t, err)
			require.Equal(t, tc.want, res.Kind)
			if tc.want == tenants.OriginTenant {
				require.NotNil(t, res.Tenant)
				require.Equal(t, "acme", res.Tenant.Subdomain)
			} else {
				require.Nil(t, res.Tenant)
			}
		})
	}
}

func TestResolveInactiveTenantStillResolves(t *testing.T) {
	resolver, repo := setupResolver(t)
	ctx := context.Background()

	tenant, err := repo.GetBySubdomain(ctx, "acme")
	require.NoError(t, err)
	tenant.Status = tenants.StatusInactive
	require.NoError(t, repo.Upsert(ctx, tenant))

	// Resolution is about existence; serving decisions happen upstream.
	res, err := resolver.Resolve(ctx, "acme.barida.xyz")
	require.NoError(t, err)
	require.Equal(t, tenants.OriginTenant, res.Kind)
	require.False(t, res.Tenant.Active())
}

func TestResolveSubdomain(t *testing.T) {
	resolver, _ := setupResolver(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		subdomain string
		want      tenants.OriginKind
	}{
		{"empty", "", tenants.OriginCentralAdmin},
		{"www", "www", tenants.OriginCentralAdmin},
		{"admin", "admin", tenants.OriginCentralAdmin},
		{"identity", "identity", tenants.OriginIdentity},
		{"known", "acme", tenants.OriginTenant},
		{"known uppercased", " ACME ", tenants.OriginTenant},
		{"unknown", "ghost", tenants.OriginNotFound},
		{"invalid characters", "Bad_Sub!", tenants.OriginNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := resolver.ResolveSubdomain(ctx, tc.subdomain)
			require.NoError(t, err)
			require.Equal(t, tc.want, res.Kind)
		})
	}
}

func TestValidSubdomain(t *testing.T) {
	require.True(t, tenants.ValidSubdomain("acme"))
	require.True(t, tenants.ValidSubdomain("acme-2"))
	require.False(t, tenants.ValidSubdomain(""))
	require.False(t, tenants.ValidSubdomain("Acme"))
	require.False(t, tenants.ValidSubdomain("acme.corp"))
	require.False(t, tenants.ValidSubdomain("acme corp"))
}
