package auth

const (
	RoleAdmin        = "admin"
	RoleManagement   = "management"
	RoleFieldTech    = "field_tech"
	RoleSalesRep     = "sales_rep"
	RoleSalesManager = "sales_manager"
	RoleEmployee     = "employee"
)

var Roles = []string{
	RoleAdmin,
	RoleManagement,
	RoleFieldTech,
	RoleSalesRep,
	RoleSalesManager,
	RoleEmployee,
}

const (
	UserStatusActive   = "active"
	UserStatusDisabled = "disabled"
)

// UserContext is the authenticated caller attached to a request.
// Employees and login users share one table, so UserID is also the employee id.
type UserContext struct {
	UserID   string
	RoleID   string
	RoleName string
}

func ValidRole(role string) bool {
	for _, candidate := range Roles {
		if candidate == role {
			return true
		}
	}
	return false
}
