package auth

import (
	"fmt"
	"sort"
)

// Role identifies a principal's permission context in the registry.
type Role string

const (
	RoleViewer   Role = "viewer"
	RoleOperator Role = "operator"
	RoleAdmin    Role = "admin"
)

// Permission represents an action that can be authorized.
type Permission string

const (
	PermissionViewRegistrations Permission = "view_registrations"
	PermissionViewStats         Permission = "view_stats"
	PermissionRegisterNumbers   Permission = "register_numbers"
	PermissionReserveNumbers    Permission = "reserve_numbers"
	PermissionManageStatus      Permission = "manage_registration_status"
	PermissionExportLedger      Permission = "export_ledger"
	PermissionViewAuditLogs     Permission = "view_audit_logs"
)

var permissionMatrix = map[Role]map[Permission]bool{
	RoleViewer: {
		PermissionViewRegistrations: true,
		PermissionViewStats:         true,
	},
	RoleOperator: {
		PermissionViewRegistrations: true,
		PermissionViewStats:         true,
		PermissionRegisterNumbers:   true,
		PermissionReserveNumbers:    true,
		PermissionExportLedger:      true,
	},
	RoleAdmin: {
		PermissionManageStatus:  true,
		PermissionViewAuditLogs: true,
	},
}

func init() {
	for permission := range allPermissionsSet() {
		permissionMatrix[RoleAdmin][permission] = true
	}
}

func allPermissionsSet() map[Permission]struct{} {
	all := make(map[Permission]struct{})
	for _, rolePerms := range permissionMatrix {
		for permission := range rolePerms {
			all[permission] = struct{}{}
		}
	}
	return all
}

// Roles returns the list of known roles in stable order.
func Roles() []Role {
	return []Role{
		RoleViewer,
		RoleOperator,
		RoleAdmin,
	}
}

// Permissions returns all known permissions in stable order.
func Permissions() []Permission {
	all := make([]Permission, 0, len(allPermissionsSet()))
	for permission := range allPermissionsSet() {
		all = append(all, permission)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i] < all[j]
	})
	return all
}

func (r Role) String() string {
	return string(r)
}

func (p Permission) String() string {
	return string(p)
}

// IsAllowed checks a role/permission pair against the canonical RBAC matrix.
func IsAllowed(role Role, permission Permission) bool {
	rolePerms, exists := permissionMatrix[role]
	if !exists {
		return false
	}
	return rolePerms[permission]
}

// MustBeAllowed validates and returns an error useful for API handlers.
func MustBeAllowed(role Role, permission Permission) error {
	if IsAllowed(role, permission) {
		return nil
	}
	return fmt.Errorf("rbac forbidden: role=%s permission=%s", role, permission)
}
