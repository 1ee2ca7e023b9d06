// Package models defines the identity types shared by the client and the
// identity backend: roles, sessions, profile rows and auth events.
package models

import (
	"errors"
	"fmt"
)

// Role is the closed set of account kinds.
type Role string

const (
	RoleMerchant Role = "merchant"
	RoleDriver   Role = "driver"
	RoleCustomer Role = "customer"
)

// ErrUnknownRole is returned by ParseRole for values outside the enum.
var ErrUnknownRole = errors.New("unknown role")

// Roles lists every valid role.
func Roles() []Role {
	return []Role{RoleMerchant, RoleDriver, RoleCustomer}
}

// ParseRole converts s into a Role.
func ParseRole(s string) (Role, error) {
	switch r := Role(s); r {
	case RoleMerchant, RoleDriver, RoleCustomer:
		return r, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, s)
	}
}

// Valid reports whether r is one of the enum values.
func (r Role) Valid() bool {
	_, err := ParseRole(string(r))
	return err == nil
}

func (r Role) String() string { return string(r) }
