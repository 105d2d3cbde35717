package payroll

import (
	"time"

	"github.com/shopspring/decimal"

	"solarops/internal/domain/commission"
	"solarops/internal/domain/payperiod"
	"solarops/internal/domain/timeclock"
)

// InstallTicket is a closed installation ticket joined to its customer's system specs.
type InstallTicket struct {
	TicketID        string          `json:"ticketId"`
	CustomerID      string          `json:"customerId"`
	CustomerName    string          `json:"customerName"`
	ClosedAt        time.Time       `json:"closedAt"`
	SystemSizeKW    decimal.Decimal `json:"systemSizeKw"`
	BatteryQuantity int             `json:"batteryQuantity"`
}

type PieceRates struct {
	PerWattRate     *decimal.Decimal
	BatteryPayRates map[string]decimal.Decimal
}

type PieceLine struct {
	TicketID     string          `json:"ticketId"`
	CustomerName string          `json:"customerName"`
	Basis        string          `json:"basis"`
	Amount       decimal.Decimal `json:"amount"`
}

type PieceRate struct {
	Total decimal.Decimal `json:"total"`
	Lines []PieceLine     `json:"lines"`
}

type EmployeeSummary struct {
	EmployeeID  string              `json:"employeeId"`
	Name        string              `json:"name"`
	Role        string              `json:"role"`
	IsSalary    bool                `json:"isSalary"`
	Period      payperiod.Summary   `json:"period"`
	Hours       timeclock.Tally     `json:"hours"`
	HourlyPay   timeclock.Pay       `json:"hourlyPay"`
	PieceRate   PieceRate           `json:"pieceRate"`
	Commissions commission.Earnings `json:"commissions"`
	Total       decimal.Decimal     `json:"total"`
}

type PeriodSummary struct {
	Period           payperiod.Summary `json:"period"`
	Employees        []EmployeeSummary `json:"employees"`
	TotalHourly      decimal.Decimal   `json:"totalHourly"`
	TotalPieceRate   decimal.Decimal   `json:"totalPieceRate"`
	TotalCommissions decimal.Decimal   `json:"totalCommissions"`
	Total            decimal.Decimal   `json:"total"`
	GeneratedAt      time.Time         `json:"generatedAt"`
}
