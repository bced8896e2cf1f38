package auth

import "testing"

func TestIsAllowed(t *testing.T) {
	tests := []struct {
		name       string
		role       Role
		permission Permission
		want       bool
	}{
		{name: "viewer can view registrations", role: RoleViewer, permission: PermissionViewRegistrations, want: true},
		{name: "viewer can view stats", role: RoleViewer, permission: PermissionViewStats, want: true},
		{name: "viewer cannot register numbers", role: RoleViewer, permission: PermissionRegisterNumbers, want: false},
		{name: "viewer cannot export ledger", role: RoleViewer, permission: PermissionExportLedger, want: false},
		{name: "operator can register numbers", role: RoleOperator, permission: PermissionRegisterNumbers, want: true},
		{name: "operator can reserve numbers", role: RoleOperator, permission: PermissionReserveNumbers, want: true},
		{name: "operator can export ledger", role: RoleOperator, permission: PermissionExportLedger, want: true},
		{name: "operator cannot manage status", role: RoleOperator, permission: PermissionManageStatus, want: false},
		{name: "operator cannot view audit logs", role: RoleOperator, permission: PermissionViewAuditLogs, want: false},
		{name: "admin can manage status", role: RoleAdmin, permission: PermissionManageStatus, want: true},
		{name: "admin can do everything", role: RoleAdmin, permission: PermissionRegisterNumbers, want: true},
		{name: "unknown role denied", role: Role("intruder"), permission: PermissionViewStats, want: false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := IsAllowed(tc.role, tc.permission)
			if got != tc.want {
				t.Fatalf("IsAllowed(%q, %q)=%v want=%v", tc.role, tc.permission, got, tc.want)
			}
		})
	}
}

func TestMustBeAllowed(t *testing.T) {
	if err := MustBeAllowed(RoleViewer, PermissionManageStatus); err == nil {
		t.Fatal("expected forbidden error")
	}

	if err := MustBeAllowed(RoleAdmin, PermissionManageStatus); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
}

func TestAdminHoldsEveryPermission(t *testing.T) {
	for _, permission := range Permissions() {
		if !IsAllowed(RoleAdmin, permission) {
			t.Fatalf("admin missing permission %q", permission)
		}
	}
}
