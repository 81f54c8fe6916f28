package users

import (
	"fmt"
	"strings"
)

// UserRole grants, in increasing order, authoring, moderation of other
// authors' snippets and user administration.
type UserRole string

const (
	RoleUser      UserRole = "user"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

func (r UserRole) rank() int {
	switch r {
	case RoleUser:
		return 1
	case RoleModerator:
		return 2
	case RoleAdmin:
		return 3
	default:
		return 0
	}
}

func (r UserRole) Valid() bool {
	return r.rank() > 0
}

// CanModerate reports whether r may edit and delete snippets it does not own.
func (r UserRole) CanModerate() bool {
	return r.rank() >= RoleModerator.rank()
}

func (r UserRole) CanAdminister() bool {
	return r == RoleAdmin
}

// ParseUserRole accepts any casing and surrounding blanks.
func ParseUserRole(s string) (UserRole, error) {
	r := UserRole(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("invalid role: %q", s)
	}
	return r, nil
}
