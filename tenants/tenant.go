package tenants

import (
	"regexp"
	"time"
)

// Status gates whether a workspace accepts logins. Inactive and maintenance
// workspaces still resolve so operator-facing errors stay meaningful.
type Status string

const (
	StatusActive      Status = "active"
	StatusInactive    Status = "inactive"
	StatusMaintenance Status = "maintenance"
)

// Tenant represents an isolated workspace identified by a unique subdomain.
// Users and data are partitioned per tenant, except for the global admin role.
type Tenant struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Subdomain   string    `json:"subdomain"` // Unique, lowercase alphanumeric and hyphens
	Description string    `json:"description,omitempty"`
	Company     string    `json:"company,omitempty"`
	Location    string    `json:"location,omitempty"`
	Status      Status    `json:"status"`
	CreatedBy   string    `json:"created_by,omitempty"`
	CreatedAt   time.Time `json:"created_at,omitempty"`
}

var subdomainPattern = regexp.MustCompile(`^[a-z0-9-]+$`)

// ValidSubdomain reports whether s is a well-formed workspace subdomain.
func ValidSubdomain(s string) bool {
	return subdomainPattern.MatchString(s)
}

// Active reports whether the workspace currently accepts logins.
func (t *Tenant) Active() bool {
	return t.Status == StatusActive
}
