package auth

import (
	"context"
	"time"

	"github.com/barida/identity-server/tenants"
	"github.com/barida/identity-server/token"
	"github.com/barida/identity-server/users"
	"github.com/pkg/errors"
	"golang.org/x/crypto/bcrypt"
)

// dummyHash is burned through bcrypt when the username is unknown so the
// unknown-user and wrong-password paths cost the same compare.
const dummyHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// Repos holds the repository dependencies for the Service.
type Repos struct {
	Users   users.UserRepo
	Tenants tenants.Repo
}

// Credentials is a login attempt together with the origin it arrived on.
// Subdomain is what the client observed; Host is the raw request host used
// as a fallback when the client sent none.
type Credentials struct {
	Username  string
	Password  string
	Subdomain string
	Host      string
}

// LoginResult is the successful outcome of a login. Redirect is non-nil when
// the user authenticated on the wrong origin for their workspace and must
// bootstrap their session there instead; the credential is already bound
// into the redirect URL in that case.
type LoginResult struct {
	Credential        string          `json:"token"`
	User              users.Summary   `json:"user"`
	Tenant            *tenants.Tenant `json:"workspace,omitempty"`
	RequiresBiometric bool            `json:"requiresBiometric"`
	Redirect          *Redirect       `json:"redirect,omitempty"`
}

// Service authenticates credentials against the user store and the tenant
// resolver and issues session credentials. It also owns the administrative
// user operations so the role authorizer is consulted in exactly one place.
type Service struct {
	repos      Repos
	resolver   *tenants.Resolver
	sessions   *token.Manager
	rootDomain string
	nowTime    func() time.Time
}

type ServiceOption func(*Service)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) ServiceOption {
	return func(s *Service) {
		s.nowTime = nowFunc
	}
}

func NewService(repos Repos, resolver *tenants.Resolver, sessions *token.Manager, rootDomain string, options ...ServiceOption) (*Service, error) {
	if repos.Users == nil {
		return nil, errors.New("[auth.NewService] Users repo is required")
	}
	if repos.Tenants == nil {
		return nil, errors.New("[auth.NewService] Tenants repo is required")
	}
	if resolver == nil {
		return nil, errors.New("[auth.NewService] resolver is required")
	}
	if sessions == nil {
		return nil, errors.New("[auth.NewService] session manager is required")
	}
	s := &Service{
		repos:      repos,
		resolver:   resolver,
		sessions:   sessions,
		rootDomain: rootDomain,
		nowTime:    time.Now,
	}
	for _, opt := range options {
		opt(s)
	}
	return s, nil
}

// Login runs the credential check and origin gating, then issues a session
// credential. Credential failures collapse to ErrInvalidCredentials so the
// response never distinguishes unknown username from wrong password.
func (s *Service) Login(ctx context.Context, creds Credentials) (*LoginResult, error) {
	user, err := s.repos.Users.GetByUsername(ctx, creds.Username)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			_ = bcrypt.CompareHashAndPassword([]byte(dummyHash), []byte(creds.Password))
			return nil, ErrInvalidCredentials
		}
		return nil, errors.Wrap(err, "[Service.Login] GetByUsername")
	}
	if !users.CheckPasswordHash(creds.Password, user.PasswordHash) {
		return nil, ErrInvalidCredentials
	}

	resolution, err := s.resolveOrigin(ctx, creds)
	if err != nil {
		return nil, err
	}

	var resolvedTenant *tenants.Tenant
	var redirectSubdomain string

	switch resolution.Kind {
	case tenants.OriginNotFound:
		return nil, ErrTenantNotFound

	case tenants.OriginIdentity:
		// The identity origin only serves the handoff endpoints.
		return nil, ErrWorkspaceAccessDenied

	case tenants.OriginTenant:
		resolvedTenant = resolution.Tenant
		if !resolvedTenant.Active() {
			return nil, ErrTenantInactive
		}
		if !user.InTenant(resolvedTenant.ID) {
			return nil, ErrWorkspaceAccessDenied
		}

	case tenants.OriginCentralAdmin:
		if user.Role != users.RoleAdmin {
			// Wrong origin is recoverable: issue the credential and point
			// the client at its home workspace instead of hard-failing.
			redirectSubdomain, err = s.homeSubdomain(ctx, user)
			if err != nil {
				return nil, err
			}
		}
	}

	credential, err := s.sessions.Issue(user)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Login] Issue")
	}

	var redirect *Redirect
	if redirectSubdomain != "" {
		redirect = buildRedirect(redirectSubdomain, s.rootDomain, credential, user.Summary())
	}

	return &LoginResult{
		Credential:        credential,
		User:              user.Summary(),
		Tenant:            resolvedTenant,
		RequiresBiometric: requiresBiometric(user),
		Redirect:          redirect,
	}, nil
}

// Me returns the current user's summary for an authenticated session.
func (s *Service) Me(ctx context.Context, userID string) (*users.Summary, error) {
	user, err := s.repos.Users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "[Service.Me] GetByID")
	}
	summary := user.Summary()
	return &summary, nil
}

func (s *Service) resolveOrigin(ctx context.Context, creds Credentials) (tenants.Resolution, error) {
	if creds.Subdomain != "" {
		return s.resolver.ResolveSubdomain(ctx, creds.Subdomain)
	}
	if creds.Host != "" {
		return s.resolver.Resolve(ctx, creds.Host)
	}
	// No origin information at all behaves like the central origin, which
	// only admits global admins.
	return tenants.Resolution{Kind: tenants.OriginCentralAdmin}, nil
}

// homeSubdomain computes the user's home workspace subdomain from their
// tenant reference. A non-admin with no workspace cannot be redirected
// anywhere.
func (s *Service) homeSubdomain(ctx context.Context, user *users.User) (string, error) {
	if user.TenantID == nil {
		return "", ErrWorkspaceAccessDenied
	}
	tenant, err := s.repos.Tenants.Get(ctx, *user.TenantID)
	if err != nil {
		if errors.Is(err, tenants.ErrNotFound) {
			return "", ErrWorkspaceAccessDenied
		}
		return "", errors.Wrap(err, "[Service.homeSubdomain] Tenants.Get")
	}
	return tenant.Subdomain, nil
}

// requiresBiometric decides whether the login response flags outstanding
// biometric verification. Admins are categorically exempt.
func requiresBiometric(user *users.User) bool {
	return user.RequiresVerification &&
		user.VerificationState != users.VerificationVerified &&
		user.Role != users.RoleAdmin
}
