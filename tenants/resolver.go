package tenants

import (
	"context"
	"net"
	"strings"

	"github.com/pkg/errors"
)

// OriginKind classifies the origin an inbound request arrived on.
type OriginKind string

const (
	// OriginCentralAdmin is the apex domain (plus www/admin), where only
	// global admins sign in.
	OriginCentralAdmin OriginKind = "central_admin"
	// OriginIdentity is the dedicated identity domain used for the biometric
	// verification handoff. It never maps to a workspace.
	OriginIdentity OriginKind = "identity"
	// OriginTenant is a workspace subdomain with a matching tenant record.
	OriginTenant OriginKind = "tenant"
	// OriginNotFound is a subdomain with no matching tenant.
	OriginNotFound OriginKind = "not_found"
)

const identityLabel = "identity"

// Resolution is the outcome of classifying a request origin. Tenant is set
// only when Kind is OriginTenant; the tenant may be inactive - resolvable but
// gated - so callers decide whether to serve it.
type Resolution struct {
	Kind   OriginKind
	Tenant *Tenant
}

// Resolver maps inbound hostnames onto workspaces.
type Resolver struct {
	rootDomain string
	repo       Repo
}

func NewResolver(rootDomain string, repo Repo) *Resolver {
	return &Resolver{rootDomain: strings.ToLower(rootDomain), repo: repo}
}

// Resolve classifies a request host. Hosts carrying a port are normalised
// first. Unknown subdomains resolve to OriginNotFound with no detail about
// which subdomains exist.
func (r *Resolver) Resolve(ctx context.Context, host string) (Resolution, error) {
	hostname := normaliseHost(host)

	// localhost and bare IPs are development access to the central origin.
	if hostname == "localhost" || net.ParseIP(hostname) != nil {
		return Resolution{Kind: OriginCentralAdmin}, nil
	}

	label := leadingLabel(hostname, r.rootDomain)
	switch label {
	case "", "www", "admin":
		return Resolution{Kind: OriginCentralAdmin}, nil
	case identityLabel:
		return Resolution{Kind: OriginIdentity}, nil
	}

	if !ValidSubdomain(label) {
		return Resolution{Kind: OriginNotFound}, nil
	}

	tenant, err := r.repo.GetBySubdomain(ctx, label)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Resolution{Kind: OriginNotFound}, nil
		}
		return Resolution{}, errors.Wrap(err, "[Resolver.Resolve] GetBySubdomain")
	}
	return Resolution{Kind: OriginTenant, Tenant: tenant}, nil
}

// ResolveSubdomain classifies a bare subdomain label as submitted by a client
// that already split its own hostname (the login request carries it).
func (r *Resolver) ResolveSubdomain(ctx context.Context, subdomain string) (Resolution, error) {
	subdomain = strings.ToLower(strings.TrimSpace(subdomain))
	if subdomain == "" || subdomain == "www" || subdomain == "admin" {
		return Resolution{Kind: OriginCentralAdmin}, nil
	}
	if subdomain == identityLabel {
		return Resolution{Kind: OriginIdentity}, nil
	}
	if !ValidSubdomain(subdomain) {
		return Resolution{Kind: OriginNotFound}, nil
	}
	tenant, err := r.repo.GetBySubdomain(ctx, subdomain)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Resolution{Kind: OriginNotFound}, nil
		}
		return Resolution{}, errors.Wrap(err, "[Resolver.ResolveSubdomain] GetBySubdomain")
	}
	return Resolution{Kind: OriginTenant, Tenant: tenant}, nil
}

func normaliseHost(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	return strings.ToLower(strings.TrimSuffix(host, "."))
}

// leadingLabel returns the subdomain label in front of the root domain, or
// "" when the hostname is the root domain itself. Hostnames outside the root
// domain fall back to a plain split so tests and alternate deployments work.
func leadingLabel(hostname, rootDomain string) string {
	if hostname == rootDomain {
		return ""
	}
	if strings.HasSuffix(hostname, "."+rootDomain) {
		prefix := strings.TrimSuffix(hostname, "."+rootDomain)
		parts := strings.Split(prefix, ".")
		return parts[len(parts)-1]
	}
	parts := strings.Split(hostname, ".")
	if len(parts) <= 2 {
		return ""
	}
	return parts[0]
}
