package auth

import (
	"fmt"
	"sort"
	"strings"
)

// Role is a fixed authorization role. The zero value is not a valid role.
type Role int

const (
	RoleUser Role = iota + 1
	RoleAdmin
)

type roleInfo struct {
	name  string
	title string
	value string
}

// roles is the process-wide role table. It is never written after init.
var roles = map[Role]roleInfo{
	RoleUser:  {name: "USER", title: "User", value: "ROLE_USER"},
	RoleAdmin: {name: "ADMIN", title: "Administrator", value: "ROLE_ADMIN"},
}

// AllRoles lists every known role in declaration order.
func AllRoles() []Role {
	return []Role{RoleUser, RoleAdmin}
}

// String returns the role name ("USER", "ADMIN").
func (r Role) String() string {
	if info, ok := roles[r]; ok {
		return info.name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Title returns the human-readable role title.
func (r Role) Title() string {
	return roles[r].title
}

// Value returns the machine-readable value used in access checks ("ROLE_USER").
func (r Role) Value() string {
	return roles[r].value
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	_, ok := roles[r]
	return ok
}

// ParseRole accepts either a role name ("USER") or a role value ("ROLE_USER"),
// case-insensitively.
func ParseRole(s string) (Role, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	for r, info := range roles {
		if s == info.name || s == info.value {
			return r, nil
		}
	}
	return 0, fmt.Errorf("unknown role %q", s)
}

// ParseRoles parses each entry and drops the ones that are not known roles.
// The result is sorted and free of duplicates.
func ParseRoles(values []string) []Role {
	var out []Role
	for _, v := range values {
		if r, err := ParseRole(v); err == nil {
			out = append(out, r)
		}
	}
	return normalizeRoles(out)
}

// RoleNames returns the names of the given roles, in order.
func RoleNames(rs []Role) []string {
	names := make([]string, 0, len(rs))
	for _, r := range rs {
		names = append(names, r.String())
	}
	return names
}

func normalizeRoles(rs []Role) []Role {
	if len(rs) == 0 {
		return nil
	}
	seen := make(map[Role]bool, len(rs))
	out := make([]Role, 0, len(rs))
	for _, r := range rs {
		if !r.Valid() || seen[r] {
			continue
		}
		seen[r] = true
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
