package domain

import (
	"context"
	"errors"
	"log/slog"
)

var ErrForbidden = errors.New("access denied")

// Role is the caller attribute that gates product operations
type Role int

const (
	RoleUnknown Role = iota
	RoleAdmin
	RoleManager
	RoleUser
)

var roleNames = map[Role]string{
	RoleUnknown: "unknown",
	RoleAdmin:   "admin",
	RoleManager: "manager",
	RoleUser:    "user",
}

// ParseRole maps a role claim to a Role. Matching is exact; anything
// unrecognised is RoleUnknown.
func ParseRole(s string) Role {
	switch s {
	case "admin":
		return RoleAdmin
	case "manager":
		return RoleManager
	case "user":
		return RoleUser
	default:
		return RoleUnknown
	}
}

func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return roleNames[RoleUnknown]
}

// Action is a product operation subject to authorization
type Action string

const (
	ActionCreate Action = "create"
	ActionList   Action = "list"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

var permissions = map[Action][]Role{
	ActionCreate: {RoleAdmin},
	ActionList:   {RoleAdmin, RoleManager},
	ActionUpdate: {RoleAdmin, RoleManager},
	ActionDelete: {RoleAdmin},
}

// Can reports whether the role may perform the action
func (r Role) Can(action Action) bool {
	for _, allowed := range permissions[action] {
		if r == allowed {
			return true
		}
	}
	return false
}

// Caller is the authenticated actor of a request
type Caller struct {
	ID   string
	Role Role
}

func (c Caller) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("id", c.ID),
		slog.String("role", c.Role.String()),
	)
}

// Authorize returns ErrForbidden unless the caller may perform the action
func (c Caller) Authorize(action Action) error {
	if !c.Role.Can(action) {
		return ErrForbidden
	}
	return nil
}

type callerKey struct{}

// WithCaller attaches the caller to the context
func WithCaller(ctx context.Context, caller Caller) context.Context {
	return context.WithValue(ctx, callerKey{}, caller)
}

// CallerFromContext extracts the caller placed by the authentication middleware
func CallerFromContext(ctx context.Context) (Caller, bool) {
	caller, ok := ctx.Value(callerKey{}).(Caller)
	return caller, ok
}
