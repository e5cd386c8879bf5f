// Package types provides the shared records exchanged between the app shell and the gateway.
//
//nolint:revive // types is a standard Go package name pattern
package types

import (
	"fmt"
	"strings"
)

// Role is the operating mode a session has selected.
type Role string

const (
	// RoleSeeker is a job seeker browsing and applying to postings
	RoleSeeker Role = "seeker"
	// RoleEmployer is an employer publishing postings and reviewing applicants
	RoleEmployer Role = "employer"
)

// Roles returns every known role.
func Roles() []Role {
	return []Role{RoleSeeker, RoleEmployer}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleSeeker || r == RoleEmployer
}

// String implements fmt.Stringer.
func (r Role) String() string {
	return string(r)
}

// ParseRole converts a string into a Role.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseRole(s string) (Role, error) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q (expected %q or %q)", s, RoleSeeker, RoleEmployer)
	}
	return r, nil
}

// RolePtr returns a pointer to r, for optional role fields.
func RolePtr(r Role) *Role {
	return &r
}
