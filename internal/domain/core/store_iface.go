package core

import "context"

type StoreAPI interface {
	GetEmployee(ctx context.Context, employeeID string) (*Employee, error)
	ListEmployees(ctx context.Context, filter ListFilter) ([]Employee, error)
	CreateEmployee(ctx context.Context, profile Profile, passwordHash string) (string, error)
	UpdateProfile(ctx context.Context, employeeID string, profile Profile) error
	UpdatePay(ctx context.Context, employeeID string, pay PayFields) error
	UpdateBank(ctx context.Context, employeeID string, details BankDetails) error
	DeleteEmployee(ctx context.Context, employeeID string) error
}
