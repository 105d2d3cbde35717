package commission

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"solarops/internal/domain/notifications"
	"solarops/internal/domain/payperiod"
	"solarops/internal/platform/realtime"
)

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

type Service struct {
	store    StoreAPI
	notifier Notifier
	changes  realtime.Publisher
}

func NewService(store StoreAPI, notifier Notifier, changes realtime.Publisher) *Service {
	return &Service{store: store, notifier: notifier, changes: changes}
}

func (s *Service) Create(ctx context.Context, in NewCommission) (string, error) {
	if in.SalesRepID == "" {
		return "", ErrRepRequired
	}
	for _, amount := range []decimal.Decimal{in.SystemSizeKW, in.TotalCommission, in.M1Amount, in.M2Amount} {
		if amount.IsNegative() {
			return "", ErrInvalidAmount
		}
	}
	id, err := s.store.CreateCommission(ctx, in)
	if err != nil {
		return "", err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionInsert, id)
	return id, nil
}

func (s *Service) Get(ctx context.Context, commissionID string) (*Commission, error) {
	return s.store.GetCommission(ctx, commissionID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Commission, int, error) {
	if filter.Status != "" && !ValidStatus(filter.Status) {
		return nil, 0, fmt.Errorf("unknown status %q", filter.Status)
	}
	return s.store.ListCommissions(ctx, filter)
}

func (s *Service) MarkEligible(ctx context.Context, commissionID, target string) (*Commission, error) {
	return s.transition(ctx, commissionID, target, func(p *Payment) error {
		return MarkEligible(p)
	})
}

// MarkPaid approves target into period and notifies the payee.
func (s *Service) MarkPaid(ctx context.Context, commissionID, target string, period payperiod.Period) (*Commission, error) {
	c, err := s.transition(ctx, commissionID, target, func(p *Payment) error {
		return MarkPaid(p, period)
	})
	if err != nil {
		return nil, err
	}
	s.notifyPaid(ctx, c, target, period)
	return c, nil
}

func (s *Service) transition(ctx context.Context, commissionID, target string, apply func(*Payment) error) (*Commission, error) {
	if !ValidTarget(target) {
		return nil, ErrInvalidTarget
	}
	c, err := s.store.GetCommission(ctx, commissionID)
	if err != nil {
		return nil, err
	}
	payment, err := c.Payment(target)
	if err != nil {
		return nil, err
	}
	from := payment.Status
	if from == "" {
		from = StatusPending
	}
	if err := apply(payment); err != nil {
		return nil, err
	}
	if err := s.store.UpdatePayment(ctx, commissionID, target, from, *payment); err != nil {
		return nil, err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionUpdate, commissionID)
	return c, nil
}

func (s *Service) notifyPaid(ctx context.Context, c *Commission, target string, period payperiod.Period) {
	if s.notifier == nil {
		return
	}
	payee := c.Payee(target)
	if payee == "" {
		return
	}
	payment, err := c.Payment(target)
	if err != nil {
		return
	}
	ntype := notifications.TypeCommissionPaid
	title := "Commission paid"
	if target == TargetOverrideM1 || target == TargetOverrideM2 {
		ntype = notifications.TypeOverridePaid
		title = "Manager override paid"
	}
	body := fmt.Sprintf("$%s for %s (%s) is included in the pay period ending %s.",
		payment.Amount.StringFixed(2), customerLabel(c), target, period.EndDate())
	if err := s.notifier.Create(ctx, payee, ntype, title, body); err != nil {
		slog.Warn("commission paid notification failed", "commissionId", c.ID, "target", target, "err", err)
	}
}

// ComputeOverride prices the sales manager override from both redlines and stores
// the milestone split.
func (s *Service) ComputeOverride(ctx context.Context, commissionID string) (*Commission, error) {
	c, err := s.store.GetCommission(ctx, commissionID)
	if err != nil {
		return nil, err
	}
	if c.SalesManagerID == "" {
		return nil, ErrNoManager
	}
	if c.OverrideM1.Status == StatusPaid || c.OverrideM2.Status == StatusPaid {
		return nil, ErrAlreadyPaid
	}
	managerPPW, err := s.store.RedlineFor(ctx, c.SalesManagerID)
	if err != nil {
		return nil, err
	}
	repPPW, err := s.store.RedlineFor(ctx, c.SalesRepID)
	if err != nil {
		return nil, err
	}
	override, err := BuildOverride(repPPW, managerPPW, *c)
	if err != nil {
		return nil, err
	}
	if err := s.store.SetOverride(ctx, commissionID, override); err != nil {
		return nil, err
	}
	if override.Negative {
		slog.Warn("negative manager override", "commissionId", commissionID, "amount", override.Amount.String())
	}

	amount := override.Amount
	c.OverrideAmount = &amount
	c.OverrideM1.Amount = override.M1Share
	c.OverrideM2.Amount = override.M2Share
	c.OverrideFlagged = override.Negative
	realtime.Notify(ctx, s.changes, Table, realtime.ActionUpdate, commissionID)
	return c, nil
}

func (s *Service) EarningsForPeriod(ctx context.Context, employeeID string, period payperiod.Period) (Earnings, error) {
	commissions, err := s.store.ListPaidForEmployee(ctx, employeeID, period.EndDate())
	if err != nil {
		return Earnings{}, err
	}
	return EarningsFor(commissions, employeeID, period), nil
}

// PaidInPeriod returns every commission with at least one slice stamped for period.
func (s *Service) PaidInPeriod(ctx context.Context, period payperiod.Period) ([]Commission, error) {
	return s.store.ListPaidForPeriod(ctx, period.EndDate())
}

func customerLabel(c *Commission) string {
	if c.CustomerName != "" {
		return c.CustomerName
	}
	return "commission " + c.ID
}
