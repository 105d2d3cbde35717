package core

import (
	"time"

	"github.com/shopspring/decimal"
)

type Employee struct {
	ID              string                     `json:"id"`
	Email           string                     `json:"email"`
	FirstName       string                     `json:"firstName"`
	LastName        string                     `json:"lastName"`
	Phone           string                     `json:"phone"`
	Role            string                     `json:"role"`
	RoleID          string                     `json:"-"`
	Status          string                     `json:"status"`
	ManagerID       string                     `json:"managerId,omitempty"`
	HourlyRate      *decimal.Decimal           `json:"hourlyRate,omitempty"`
	IsSalary        bool                       `json:"isSalary"`
	PerWattRate     *decimal.Decimal           `json:"perWattRate,omitempty"`
	BatteryPayRates map[string]decimal.Decimal `json:"batteryPayRates,omitempty"`
	PPWRedline      *decimal.Decimal           `json:"ppwRedline,omitempty"`
	BankRouting     string                     `json:"bankRouting,omitempty"`
	BankAccount     string                     `json:"bankAccount,omitempty"`
	CreatedAt       time.Time                  `json:"createdAt"`
	UpdatedAt       time.Time                  `json:"updatedAt"`
}

func (e Employee) FullName() string {
	if e.LastName == "" {
		return e.FirstName
	}
	return e.FirstName + " " + e.LastName
}

type Profile struct {
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Role      string
	Status    string
	ManagerID string
}

// PayFields are writable only by callers holding the pay permission.
type PayFields struct {
	HourlyRate      *decimal.Decimal           `json:"hourlyRate"`
	IsSalary        bool                       `json:"isSalary"`
	PerWattRate     *decimal.Decimal           `json:"perWattRate"`
	BatteryPayRates map[string]decimal.Decimal `json:"batteryPayRates"`
	PPWRedline      *decimal.Decimal           `json:"ppwRedline"`
}

type BankDetails struct {
	Routing        string `json:"routingNumber"`
	Account        string `json:"accountNumber"`
	ConfirmAccount string `json:"confirmAccountNumber"`
}

type ListFilter struct {
	Role   string
	Status string
}
