package users

import (
	"context"
	"errors"
)

// ErrNotFound is returned by every UserRepo implementation when no user
// matches the lookup.
var ErrNotFound = errors.New("user not found")

type UserRepo interface {
	Upsert(ctx context.Context, user *User) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByUsername(ctx context.Context, username string) (*User, error)
	List(ctx context.Context, tenantID string, offset, limit int) ([]*User, error)
	// CountInTenant returns the number of users in a workspace, excluding the
	// user identified by excludeID. Used for the sub_admin creation quota.
	CountInTenant(ctx context.Context, tenantID string, excludeID string) (int, error)
}
