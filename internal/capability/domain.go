package capability

import (
	"context"
	"errors"
)

// ErrUnknownRole indicates a role identifier the Role Store does not know.
var ErrUnknownRole = errors.New("capability: unknown role")

// Role is a role as defined by the Role Store.
type Role struct {
	ID   string
	Name string
}

// RoleCapability is one row of the settings page: a role and whether it
// holds the capability the Store manages.
type RoleCapability struct {
	ID            string
	Name          string
	HasCapability bool
}

// Change summarises the outcome of ReplaceAll.
type Change struct {
	// Holders are the roles that hold the capability afterwards.
	Holders []string
	// Revoked are the roles that do not hold it afterwards.
	Revoked []string
	// Ignored are submitted identifiers with no matching role.
	Ignored []string
}

// RoleReader reads roles and their capabilities. RoleCapabilities and
// AnyRoleHasCapability each read from a single snapshot, so a concurrent
// WithTx is seen either entirely or not at all.
type RoleReader interface {
	ListRoles(ctx context.Context) ([]Role, error)
	RoleHasCapability(ctx context.Context, roleID, capability string) (bool, error)
	RoleCapabilities(ctx context.Context, capability string) ([]RoleCapability, error)
	AnyRoleHasCapability(ctx context.Context, roleIDs []string, capability string) (bool, error)
}

// RoleWriter adds or removes one capability on one role. Both operations are
// idempotent.
type RoleWriter interface {
	AddCapability(ctx context.Context, roleID, capability string) error
	RemoveCapability(ctx context.Context, roleID, capability string) error
}

// TxRoleStore is the view of the Role Store available inside WithTx.
type TxRoleStore interface {
	RoleReader
	RoleWriter
}

// RoleStore is the persisted role table shared by every request.
type RoleStore interface {
	TxRoleStore
	// WithTx runs fn so that no other WithTx call interleaves with it and no
	// reader observes its writes before fn returns successfully.
	WithTx(ctx context.Context, fn func(context.Context, TxRoleStore) error) error
}

// DefaultRoles are the roles a fresh installation starts with, in display
// order.
var DefaultRoles = []Role{
	{ID: "administrator", Name: "Administrator"},
	{ID: "editor", Name: "Editor"},
	{ID: "author", Name: "Author"},
	{ID: "contributor", Name: "Contributor"},
	{ID: "subscriber", Name: "Subscriber"},
}
