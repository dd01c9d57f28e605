// Package access decides what a principal may do. The principal is resolved
// once per request and passed explicitly to every service call.
package access

import (
	"errors"
	"strings"
)

var (
	ErrUnauthenticated = errors.New("authentication required")
	ErrForbidden       = errors.New("insufficient permissions")
)

type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
	RoleUser    Role = "user"
)

// ParseRole accepts a role name in any case. ok is false for unknown names.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToLower(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleManager, RoleUser:
		return r, true
	default:
		return "", false
	}
}

type Action string

const (
	ViewAdminEvents    Action = "view_admin_events"
	EditEvents         Action = "edit_events"
	ArchiveEvents      Action = "archive_events"
	PurgeEvents        Action = "purge_events"
	ViewArchivedEvents Action = "view_archived_events"
	ViewCategories     Action = "view_categories"
	EditCategories     Action = "edit_categories"
	DeleteCategories   Action = "delete_categories"
	ViewUsers          Action = "view_users"
	EditUsers          Action = "edit_users"
	DeleteUsers        Action = "delete_users"
	ViewRegistrations  Action = "view_registrations"
	Register           Action = "register"
	ManageProfile      Action = "manage_profile"
)

var selfService = []Action{Register, ManageProfile}

// grants lists what each role adds on top of the others. Admin is handled
// separately and may do everything.
var grants = map[Role][]Action{
	RoleManager: append([]Action{ViewAdminEvents, ViewCategories, ViewUsers, ViewRegistrations}, selfService...),
	RoleUser:    selfService,
}

// Principal is the authenticated actor. The zero value is anonymous.
type Principal struct {
	UserID int64
	Roles  []Role
}

var Anonymous = Principal{}

func NewPrincipal(userID int64, roles []string) Principal {
	p := Principal{UserID: userID}
	for _, name := range roles {
		if r, ok := ParseRole(name); ok {
			p.Roles = append(p.Roles, r)
		}
	}
	return p
}

func (p Principal) Authenticated() bool {
	return p.UserID != 0
}

func (p Principal) HasRole(role Role) bool {
	for _, r := range p.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Allows reports whether p may perform action.
func (p Principal) Allows(action Action) bool {
	if !p.Authenticated() {
		return false
	}
	for _, r := range p.Roles {
		if r == RoleAdmin {
			return true
		}
		for _, a := range grants[r] {
			if a == action {
				return true
			}
		}
	}
	return false
}

// Authorize returns ErrUnauthenticated for anonymous principals and
// ErrForbidden for authenticated ones lacking the action.
func Authorize(p Principal, action Action) error {
	if !p.Authenticated() {
		return ErrUnauthenticated
	}
	if !p.Allows(action) {
		return ErrForbidden
	}
	return nil
}
