package commission

import (
	"github.com/shopspring/decimal"

	"solarops/internal/domain/payperiod"
)

var wattsPerKW = decimal.NewFromInt(1000)

func MarkEligible(p *Payment) error {
	switch p.Status {
	case StatusPending, "":
		p.Status = StatusEligible
		return nil
	case StatusPaid:
		return ErrAlreadyPaid
	default:
		return ErrNotPending
	}
}

// MarkPaid approves an eligible payment into the given period.
func MarkPaid(p *Payment, period payperiod.Period) error {
	switch p.Status {
	case StatusEligible:
		p.Status = StatusPaid
		p.PayrollPeriodEnd = period.EndDate()
		return nil
	case StatusPaid:
		return ErrAlreadyPaid
	default:
		return ErrNotEligible
	}
}

// PaidInPeriod is the only rule that decides whether an amount counts toward a period.
func PaidInPeriod(p Payment, period payperiod.Period) bool {
	return p.Status == StatusPaid && p.PayrollPeriodEnd == period.EndDate()
}

// ComputeOverride returns (rep_ppw − manager_ppw) × kW × 1000. A negative result is
// flagged and kept.
func ComputeOverride(repPPW, managerPPW *decimal.Decimal, systemSizeKW decimal.Decimal) (decimal.Decimal, bool, error) {
	if managerPPW == nil {
		return decimal.Zero, false, ErrManagerRedlineMissing
	}
	if repPPW == nil {
		return decimal.Zero, false, ErrRepRedlineMissing
	}
	amount := repPPW.Sub(*managerPPW).Mul(systemSizeKW).Mul(wattsPerKW).Round(2)
	return amount, amount.IsNegative(), nil
}

// SplitOverride divides the override by each milestone's share of the total commission.
// With no total commission the whole override rides on M1.
func SplitOverride(override, m1Amount, m2Amount, total decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	if total.IsZero() {
		return override, decimal.Zero
	}
	m1 := override.Mul(m1Amount).Div(total).Round(2)
	if m1Amount.Add(m2Amount).Equal(total) {
		return m1, override.Sub(m1)
	}
	m2 := override.Mul(m2Amount).Div(total).Round(2)
	return m1, m2
}

func BuildOverride(repPPW, managerPPW *decimal.Decimal, c Commission) (Override, error) {
	amount, negative, err := ComputeOverride(repPPW, managerPPW, c.SystemSizeKW)
	if err != nil {
		return Override{}, err
	}
	m1, m2 := SplitOverride(amount, c.M1.Amount, c.M2.Amount, c.TotalCommission)
	return Override{Amount: amount, M1Share: m1, M2Share: m2, Negative: negative}, nil
}

// EarningsFor sums what employeeID is owed in period: milestones on their own sales
// plus override shares on sales they manage.
func EarningsFor(commissions []Commission, employeeID string, period payperiod.Period) Earnings {
	out := Earnings{Lines: []EarningLine{}}
	add := func(c Commission, target string, p Payment, bucket *decimal.Decimal) {
		if !PaidInPeriod(p, period) {
			return
		}
		*bucket = bucket.Add(p.Amount)
		out.Total = out.Total.Add(p.Amount)
		out.Lines = append(out.Lines, EarningLine{CommissionID: c.ID, CustomerName: c.CustomerName, Target: target, Amount: p.Amount})
	}
	for _, c := range commissions {
		if c.SalesRepID == employeeID {
			add(c, TargetM1, c.M1, &out.M1)
			add(c, TargetM2, c.M2, &out.M2)
		}
		if c.SalesManagerID == employeeID && c.OverrideAmount != nil {
			add(c, TargetOverrideM1, c.OverrideM1, &out.OverrideM1)
			add(c, TargetOverrideM2, c.OverrideM2, &out.OverrideM2)
		}
	}
	return out
}
