package auth

import "errors"

// Authentication and tenant-resolution failures are surfaced to clients with
// a generic message regardless of cause; the sentinels below keep the causes
// explicit internally.
var (
	ErrInvalidCredentials    = errors.New("invalid credentials")
	ErrWorkspaceAccessDenied = errors.New("no access to this workspace")
	ErrTenantNotFound        = errors.New("workspace not found")
	ErrTenantInactive        = errors.New("workspace is not active")
	ErrUsernameTaken         = errors.New("username already exists")
	ErrTenantRequired        = errors.New("non-admin users require a workspace")
	ErrUserNotFound          = errors.New("user not found")
)
