package core

import "solarops/internal/domain/auth"

// FilterEmployeeFields strips pay and bank data the caller may not see.
// Pay managers see everything; employees see their own rates with a masked account.
func FilterEmployeeFields(emp *Employee, user auth.UserContext, canManagePay bool) {
	if canManagePay {
		return
	}

	if user.UserID == emp.ID {
		emp.BankRouting = MaskAccount(emp.BankRouting)
		emp.BankAccount = MaskAccount(emp.BankAccount)
		return
	}

	emp.HourlyRate = nil
	emp.PerWattRate = nil
	emp.BatteryPayRates = nil
	emp.BankRouting = ""
	emp.BankAccount = ""
	if user.RoleName != auth.RoleSalesManager {
		emp.PPWRedline = nil
	}
}
