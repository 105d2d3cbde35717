package commission

import (
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"solarops/internal/domain/payperiod"
)

func dec(v string) decimal.Decimal {
	return decimal.RequireFromString(v)
}

func decPtr(v string) *decimal.Decimal {
	d := dec(v)
	return &d
}

func testPeriod() payperiod.Period {
	cal := payperiod.NewCalendar(time.Date(2024, time.December, 14, 0, 0, 0, 0, time.UTC))
	return cal.Containing(time.Date(2025, time.January, 10, 0, 0, 0, 0, time.UTC))
}

func TestMilestoneTransitions(t *testing.T) {
	period := testPeriod()
	p := Payment{Amount: dec("500"), Status: StatusPending}

	if err := MarkPaid(&p, period); !errors.Is(err, ErrNotEligible) {
		t.Fatalf("expected pending -> paid to fail with ErrNotEligible, got %v", err)
	}
	if err := MarkEligible(&p); err != nil {
		t.Fatalf("pending -> eligible failed: %v", err)
	}
	if err := MarkEligible(&p); !errors.Is(err, ErrNotPending) {
		t.Fatalf("expected eligible -> eligible to fail, got %v", err)
	}
	if err := MarkPaid(&p, period); err != nil {
		t.Fatalf("eligible -> paid failed: %v", err)
	}
	if p.Status != StatusPaid || p.PayrollPeriodEnd != "2025-01-10" {
		t.Fatalf("expected paid with period end 2025-01-10, got %+v", p)
	}
	if err := MarkPaid(&p, period.Next()); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected paid to be terminal, got %v", err)
	}
	if p.PayrollPeriodEnd != "2025-01-10" {
		t.Fatal("a rejected transition must not restamp the period")
	}
	if err := MarkEligible(&p); !errors.Is(err, ErrAlreadyPaid) {
		t.Fatalf("expected paid -> eligible to fail, got %v", err)
	}
}

func TestPaidInPeriodRequiresBothConditions(t *testing.T) {
	period := testPeriod()
	tests := []struct {
		name    string
		payment Payment
		want    bool
	}{
		{name: "paid in period", payment: Payment{Status: StatusPaid, PayrollPeriodEnd: "2025-01-10"}, want: true},
		{name: "paid other period", payment: Payment{Status: StatusPaid, PayrollPeriodEnd: "2024-12-27"}, want: false},
		{name: "eligible in period", payment: Payment{Status: StatusEligible, PayrollPeriodEnd: "2025-01-10"}, want: false},
		{name: "pending", payment: Payment{Status: StatusPending}, want: false},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := PaidInPeriod(tc.payment, period); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestComputeOverride(t *testing.T) {
	amount, negative, err := ComputeOverride(decPtr("3.10"), decPtr("2.90"), dec("8"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amount.Equal(dec("1600")) || negative {
		t.Fatalf("expected 1600 positive, got %s negative=%v", amount, negative)
	}

	amount, negative, err = ComputeOverride(decPtr("2.80"), decPtr("2.90"), dec("8"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !amount.Equal(dec("-800")) || !negative {
		t.Fatalf("expected -800 flagged negative, got %s negative=%v", amount, negative)
	}
}

func TestComputeOverrideRequiresRedlines(t *testing.T) {
	if _, _, err := ComputeOverride(decPtr("3.10"), nil, dec("8")); !errors.Is(err, ErrManagerRedlineMissing) {
		t.Fatalf("expected ErrManagerRedlineMissing, got %v", err)
	}
	if _, _, err := ComputeOverride(nil, decPtr("2.90"), dec("8")); !errors.Is(err, ErrRepRedlineMissing) {
		t.Fatalf("expected ErrRepRedlineMissing, got %v", err)
	}
}

func TestSplitOverride(t *testing.T) {
	m1, m2 := SplitOverride(dec("1600"), dec("1000"), dec("3000"), dec("4000"))
	if !m1.Equal(dec("400")) || !m2.Equal(dec("1200")) {
		t.Fatalf("expected 400/1200, got %s/%s", m1, m2)
	}

	m1, m2 = SplitOverride(dec("100"), dec("1"), dec("2"), dec("3"))
	if !m1.Add(m2).Equal(dec("100")) {
		t.Fatalf("expected shares to sum to the override, got %s + %s", m1, m2)
	}

	m1, m2 = SplitOverride(dec("250"), decimal.Zero, decimal.Zero, decimal.Zero)
	if !m1.Equal(dec("250")) || !m2.IsZero() {
		t.Fatalf("expected zero total to put everything on M1, got %s/%s", m1, m2)
	}
}

func TestEarningsForRepAndManager(t *testing.T) {
	period := testPeriod()
	override := dec("1600")
	commissions := []Commission{
		{
			ID:             "c1",
			SalesRepID:     "rep",
			SalesManagerID: "mgr",
			M1:             Payment{Amount: dec("1000"), Status: StatusPaid, PayrollPeriodEnd: "2025-01-10"},
			M2:             Payment{Amount: dec("3000"), Status: StatusEligible},
			OverrideAmount: &override,
			OverrideM1:     Payment{Amount: dec("400"), Status: StatusPaid, PayrollPeriodEnd: "2025-01-10"},
			OverrideM2:     Payment{Amount: dec("1200"), Status: StatusPaid, PayrollPeriodEnd: "2024-12-27"},
		},
		{
			ID:         "c2",
			SalesRepID: "rep",
			M1:         Payment{Amount: dec("250"), Status: StatusPaid, PayrollPeriodEnd: "2025-01-10"},
			M2:         Payment{Amount: dec("750"), Status: StatusPaid, PayrollPeriodEnd: "2025-01-10"},
		},
	}

	rep := EarningsFor(commissions, "rep", period)
	if !rep.M1.Equal(dec("1250")) || !rep.M2.Equal(dec("750")) || !rep.Total.Equal(dec("2000")) {
		t.Fatalf("unexpected rep earnings %+v", rep)
	}
	if !rep.OverrideM1.IsZero() {
		t.Fatal("rep must not receive override shares")
	}

	mgr := EarningsFor(commissions, "mgr", period)
	if !mgr.OverrideM1.Equal(dec("400")) || !mgr.OverrideM2.IsZero() || !mgr.Total.Equal(dec("400")) {
		t.Fatalf("unexpected manager earnings %+v", mgr)
	}
	if len(mgr.Lines) != 1 || mgr.Lines[0].Target != TargetOverrideM1 {
		t.Fatalf("expected one override line, got %+v", mgr.Lines)
	}
}

func TestEarningsForZeroesWhenEitherConditionFails(t *testing.T) {
	period := testPeriod()
	base := Commission{ID: "c1", SalesRepID: "rep", M1: Payment{Amount: dec("500"), Status: StatusPaid, PayrollPeriodEnd: "2025-01-10"}}

	if got := EarningsFor([]Commission{base}, "rep", period).Total; !got.Equal(dec("500")) {
		t.Fatalf("expected 500, got %s", got)
	}

	unpaid := base
	unpaid.M1.Status = StatusEligible
	if got := EarningsFor([]Commission{unpaid}, "rep", period).Total; !got.IsZero() {
		t.Fatalf("expected eligible amount to count zero, got %s", got)
	}

	otherPeriod := base
	otherPeriod.M1.PayrollPeriodEnd = period.Next().EndDate()
	if got := EarningsFor([]Commission{otherPeriod}, "rep", period).Total; !got.IsZero() {
		t.Fatalf("expected other-period amount to count zero, got %s", got)
	}
}

func TestCommissionPaymentTargets(t *testing.T) {
	c := Commission{SalesRepID: "rep", SalesManagerID: "mgr"}
	if _, err := c.Payment(TargetOverrideM1); !errors.Is(err, ErrNoOverride) {
		t.Fatalf("expected ErrNoOverride, got %v", err)
	}
	if _, err := c.Payment("m3"); !errors.Is(err, ErrInvalidTarget) {
		t.Fatalf("expected ErrInvalidTarget, got %v", err)
	}
	p, err := c.Payment(TargetM2)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	p.Status = StatusEligible
	if c.M2.Status != StatusEligible {
		t.Fatal("Payment must return a pointer into the commission")
	}
	if c.Payee(TargetOverrideM2) != "mgr" || c.Payee(TargetM1) != "rep" {
		t.Fatal("unexpected payee mapping")
	}
}
