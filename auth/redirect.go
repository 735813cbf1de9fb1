package auth

import (
	"fmt"
	"net/url"

	"github.com/barida/identity-server/users"
)

// BootstrapPath is where the receiving origin consumes a cross-origin login.
const BootstrapPath = "/auth/bootstrap"

// Redirect is a one-time cross-origin session bootstrap. When a user signs
// in on the wrong origin for their workspace, the freshly issued credential
// and a minimal user summary are carried to the home origin as URL
// parameters. The receiving client must consume them exactly once and scrub
// them from the visible URL; they are a bootstrap value, never a reusable
// token.
type Redirect struct {
	URL       string `json:"url"`
	Subdomain string `json:"subdomain"`
}

// buildRedirect constructs the redirect target for a user's home workspace.
func buildRedirect(subdomain, rootDomain, credential string, user users.Summary) *Redirect {
	params := url.Values{}
	params.Set("token", credential)
	params.Set("user_id", user.ID)
	params.Set("username", user.Username)
	params.Set("role", string(user.Role))
	if user.TenantID != nil {
		params.Set("tenant_id", *user.TenantID)
	}

	return &Redirect{
		URL:       fmt.Sprintf("https://%s.%s%s?%s", subdomain, rootDomain, BootstrapPath, params.Encode()),
		Subdomain: subdomain,
	}
}
