// Package auth holds role permissions, bearer tokens and account management.
package auth

import (
	"errors"

	"civiceye/backend/internal/models"
)

var (
	ErrForbidden              = errors.New("auth: forbidden")
	ErrInvalidToken           = errors.New("auth: invalid token")
	ErrInvalidCredentials     = errors.New("auth: invalid email or password")
	ErrEmailTaken             = errors.New("auth: email already registered")
	ErrInvalidRegistrationKey = errors.New("auth: invalid registration key")
)

type Permission string

const (
	PermViewAllComplaints Permission = "complaints:view_all"
	PermUpdateStatus      Permission = "complaints:update_status"
	PermAssign            Permission = "complaints:assign"
	PermDeleteComplaint   Permission = "complaints:delete"
	PermExport            Permission = "complaints:export"
	PermViewStats         Permission = "stats:view"
	PermManageCategories  Permission = "categories:manage"
	PermManageUsers       Permission = "users:manage"
	PermTrackOwn          Permission = "complaints:track_own"
)

// grants is the full capability set per role. Roles do not inherit.
var grants = map[models.Role]map[Permission]bool{
	models.RoleCitizen: {
		PermTrackOwn: true,
	},
	models.RoleAuthority: {
		PermTrackOwn:          true,
		PermViewAllComplaints: true,
		PermUpdateStatus:      true,
		PermAssign:            true,
		PermExport:            true,
		PermViewStats:         true,
	},
	models.RoleAdmin: {
		PermTrackOwn:          true,
		PermViewAllComplaints: true,
		PermUpdateStatus:      true,
		PermAssign:            true,
		PermExport:            true,
		PermViewStats:         true,
		PermDeleteComplaint:   true,
		PermManageCategories:  true,
		PermManageUsers:       true,
	},
}

// Can reports whether role holds perm. Unknown roles hold nothing.
func Can(role models.Role, perm Permission) bool {
	return grants[role][perm]
}

// Require returns ErrForbidden unless role holds perm.
func Require(role models.Role, perm Permission) error {
	if !Can(role, perm) {
		return ErrForbidden
	}
	return nil
}
