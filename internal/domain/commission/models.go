package commission

import (
	"time"

	"github.com/shopspring/decimal"
)

// Payment is one independently approved slice of a commission: a milestone or an override share.
type Payment struct {
	Amount           decimal.Decimal `json:"amount"`
	Status           string          `json:"status"`
	PayrollPeriodEnd string          `json:"payrollPeriodEnd,omitempty"`
}

type Commission struct {
	ID              string           `json:"id"`
	CustomerID      string           `json:"customerId"`
	CustomerName    string           `json:"customerName,omitempty"`
	SalesRepID      string           `json:"salesRepId"`
	SalesManagerID  string           `json:"salesManagerId,omitempty"`
	SystemSizeKW    decimal.Decimal  `json:"systemSizeKw"`
	TotalCommission decimal.Decimal  `json:"totalCommission"`
	M1              Payment          `json:"m1"`
	M2              Payment          `json:"m2"`
	OverrideAmount  *decimal.Decimal `json:"salesManagerOverrideAmount,omitempty"`
	OverrideM1      Payment          `json:"managerOverrideM1"`
	OverrideM2      Payment          `json:"managerOverrideM2"`
	OverrideFlagged bool             `json:"overrideNegative"`
	Notes           string           `json:"notes,omitempty"`
	CreatedAt       time.Time        `json:"createdAt"`
	UpdatedAt       time.Time        `json:"updatedAt"`
}

// Payment returns a pointer to the slice named by target.
func (c *Commission) Payment(target string) (*Payment, error) {
	switch target {
	case TargetM1:
		return &c.M1, nil
	case TargetM2:
		return &c.M2, nil
	case TargetOverrideM1:
		if c.OverrideAmount == nil {
			return nil, ErrNoOverride
		}
		return &c.OverrideM1, nil
	case TargetOverrideM2:
		if c.OverrideAmount == nil {
			return nil, ErrNoOverride
		}
		return &c.OverrideM2, nil
	default:
		return nil, ErrInvalidTarget
	}
}

// Payee is the employee who is paid for target.
func (c *Commission) Payee(target string) string {
	if target == TargetOverrideM1 || target == TargetOverrideM2 {
		return c.SalesManagerID
	}
	return c.SalesRepID
}

type NewCommission struct {
	CustomerID      string          `json:"customerId"`
	SalesRepID      string          `json:"salesRepId"`
	SalesManagerID  string          `json:"salesManagerId"`
	SystemSizeKW    decimal.Decimal `json:"systemSizeKw"`
	TotalCommission decimal.Decimal `json:"totalCommission"`
	M1Amount        decimal.Decimal `json:"m1PaymentAmount"`
	M2Amount        decimal.Decimal `json:"m2PaymentAmount"`
	Notes           string          `json:"notes"`
}

type ListFilter struct {
	Status         string
	SalesRepID     string
	SalesManagerID string
	Limit          int
	Offset         int
}

type Override struct {
	Amount   decimal.Decimal `json:"amount"`
	M1Share  decimal.Decimal `json:"m1Share"`
	M2Share  decimal.Decimal `json:"m2Share"`
	Negative bool            `json:"negative"`
}

type EarningLine struct {
	CommissionID string          `json:"commissionId"`
	CustomerName string          `json:"customerName,omitempty"`
	Target       string          `json:"target"`
	Amount       decimal.Decimal `json:"amount"`
}

type Earnings struct {
	M1         decimal.Decimal `json:"m1"`
	M2         decimal.Decimal `json:"m2"`
	OverrideM1 decimal.Decimal `json:"overrideM1"`
	OverrideM2 decimal.Decimal `json:"overrideM2"`
	Total      decimal.Decimal `json:"total"`
	Lines      []EarningLine   `json:"lines"`
}
