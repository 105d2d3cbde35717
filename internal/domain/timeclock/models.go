package timeclock

import (
	"time"

	"github.com/shopspring/decimal"
)

type Entry struct {
	ID         string           `json:"id"`
	EmployeeID string           `json:"employeeId"`
	CustomerID string           `json:"customerId,omitempty"`
	TicketID   string           `json:"ticketId,omitempty"`
	ClockIn    time.Time        `json:"clockIn"`
	ClockOut   *time.Time       `json:"clockOut,omitempty"`
	TotalHours *decimal.Decimal `json:"totalHours,omitempty"`
	Latitude   *float64         `json:"latitude,omitempty"`
	Longitude  *float64         `json:"longitude,omitempty"`
	Notes      string           `json:"notes,omitempty"`
	CreatedAt  time.Time        `json:"createdAt"`
}

func (e Entry) Open() bool {
	return e.ClockOut == nil
}

// Geo is a best-effort position captured at clock-in; nil when unavailable.
type Geo struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type ClockInRequest struct {
	EmployeeID string
	CustomerID string
	TicketID   string
	Location   *Geo
	Notes      string
}

type Week struct {
	Start    time.Time       `json:"start"`
	Hours    decimal.Decimal `json:"hours"`
	Regular  decimal.Decimal `json:"regular"`
	Overtime decimal.Decimal `json:"overtime"`
}

type Tally struct {
	Weeks         []Week          `json:"weeks"`
	TotalHours    decimal.Decimal `json:"totalHours"`
	RegularHours  decimal.Decimal `json:"regularHours"`
	OvertimeHours decimal.Decimal `json:"overtimeHours"`
}

type Pay struct {
	RegularPay  decimal.Decimal `json:"regularPay"`
	OvertimePay decimal.Decimal `json:"overtimePay"`
	Total       decimal.Decimal `json:"total"`
}
