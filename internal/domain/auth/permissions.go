package auth

const (
	PermEmployeesRead      = "employees.read"
	PermEmployeesWrite     = "employees.write"
	PermEmployeesPay       = "employees.pay"
	PermTimeClockUse       = "timeclock.use"
	PermTimeClockManage    = "timeclock.manage"
	PermPayrollRead        = "payroll.read"
	PermPayrollManage      = "payroll.manage"
	PermCommissionsRead    = "commissions.read"
	PermCommissionsWrite   = "commissions.write"
	PermCommissionsApprove = "commissions.approve"
	PermCustomersRead      = "customers.read"
	PermCustomersWrite     = "customers.write"
	PermSchedulingRead     = "scheduling.read"
	PermSchedulingWrite    = "scheduling.write"
	PermSchedulingWork     = "scheduling.work"
	PermSubcontractRead    = "subcontract.read"
	PermSubcontractWrite   = "subcontract.write"
	PermAuditRead          = "audit.read"
	PermSystemAdmin        = "admin.system"
)

var DefaultPermissions = []string{
	PermEmployeesRead,
	PermEmployeesWrite,
	PermEmployeesPay,
	PermTimeClockUse,
	PermTimeClockManage,
	PermPayrollRead,
	PermPayrollManage,
	PermCommissionsRead,
	PermCommissionsWrite,
	PermCommissionsApprove,
	PermCustomersRead,
	PermCustomersWrite,
	PermSchedulingRead,
	PermSchedulingWrite,
	PermSchedulingWork,
	PermSubcontractRead,
	PermSubcontractWrite,
	PermAuditRead,
	PermSystemAdmin,
}

var RolePermissions = map[string][]string{
	RoleEmployee: {
		PermTimeClockUse,
		PermPayrollRead,
	},
	RoleFieldTech: {
		PermTimeClockUse,
		PermPayrollRead,
		PermCustomersRead,
		PermSchedulingRead,
		PermSchedulingWork,
	},
	RoleSalesRep: {
		PermTimeClockUse,
		PermPayrollRead,
		PermCommissionsRead,
		PermCustomersRead,
		PermCustomersWrite,
		PermSchedulingRead,
	},
	RoleSalesManager: {
		PermEmployeesRead,
		PermTimeClockUse,
		PermPayrollRead,
		PermCommissionsRead,
		PermCommissionsWrite,
		PermCustomersRead,
		PermCustomersWrite,
		PermSchedulingRead,
		PermSchedulingWrite,
	},
	RoleManagement: {
		PermEmployeesRead,
		PermEmployeesWrite,
		PermTimeClockUse,
		PermTimeClockManage,
		PermPayrollRead,
		PermPayrollManage,
		PermCommissionsRead,
		PermCommissionsWrite,
		PermCommissionsApprove,
		PermCustomersRead,
		PermCustomersWrite,
		PermSchedulingRead,
		PermSchedulingWrite,
		PermSchedulingWork,
		PermSubcontractRead,
		PermSubcontractWrite,
		PermAuditRead,
	},
	RoleAdmin: DefaultPermissions,
}
