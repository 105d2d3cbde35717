package auth

import "testing"

func TestRolePermissionsSubset(t *testing.T) {
	allowed := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		allowed[perm] = struct{}{}
	}

	for role, perms := range RolePermissions {
		if !ValidRole(role) {
			t.Fatalf("permission map has unknown role %s", role)
		}
		if len(perms) == 0 {
			t.Fatalf("role %s has no permissions", role)
		}
		for _, perm := range perms {
			if _, ok := allowed[perm]; !ok {
				t.Fatalf("role %s has unknown permission %s", role, perm)
			}
		}
	}
}

func TestEveryRoleHasPermissions(t *testing.T) {
	for _, role := range Roles {
		if _, ok := RolePermissions[role]; !ok {
			t.Fatalf("role %s missing from RolePermissions", role)
		}
	}
}

func TestDefaultPermissionsUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for _, perm := range DefaultPermissions {
		if _, ok := seen[perm]; ok {
			t.Fatalf("duplicate permission %s", perm)
		}
		seen[perm] = struct{}{}
	}
}

func TestOnlyPayrollManagersApproveCommissions(t *testing.T) {
	for role, perms := range RolePermissions {
		for _, perm := range perms {
			if perm == PermCommissionsApprove && role != RoleAdmin && role != RoleManagement {
				t.Fatalf("role %s must not approve commission payments", role)
			}
		}
	}
}
