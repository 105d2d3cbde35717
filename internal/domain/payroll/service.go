package payroll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"solarops/internal/domain/auth"
	"solarops/internal/domain/commission"
	"solarops/internal/domain/core"
	"solarops/internal/domain/payperiod"
	"solarops/internal/domain/timeclock"
	"solarops/internal/platform/cache"
)

const summaryConcurrency = 8

type EmployeeSource interface {
	GetEmployee(ctx context.Context, employeeID string) (*core.Employee, error)
	ListEmployees(ctx context.Context, filter core.ListFilter) ([]core.Employee, error)
}

type HoursSource interface {
	TallyForPeriod(ctx context.Context, employeeID string, period payperiod.Period) (timeclock.Tally, []timeclock.Entry, error)
}

type CommissionSource interface {
	EarningsForPeriod(ctx context.Context, employeeID string, period payperiod.Period) (commission.Earnings, error)
}

type Service struct {
	store       StoreAPI
	employees   EmployeeSource
	hours       HoursSource
	commissions CommissionSource
	cache       cache.Cache
	cacheTTL    time.Duration
	now         func() time.Time
}

func NewService(store StoreAPI, employees EmployeeSource, hours HoursSource, commissions CommissionSource, c cache.Cache, cacheTTL time.Duration) *Service {
	if c == nil {
		c = cache.Noop{}
	}
	return &Service{
		store:       store,
		employees:   employees,
		hours:       hours,
		commissions: commissions,
		cache:       c,
		cacheTTL:    cacheTTL,
		now:         time.Now,
	}
}

// EmployeeSummary computes everything employeeID is owed for period.
func (s *Service) EmployeeSummary(ctx context.Context, employeeID string, period payperiod.Period) (EmployeeSummary, error) {
	employee, err := s.employees.GetEmployee(ctx, employeeID)
	if err != nil {
		if errors.Is(err, core.ErrEmployeeNotFound) {
			return EmployeeSummary{}, ErrEmployeeNotFound
		}
		return EmployeeSummary{}, err
	}
	return s.summarize(ctx, *employee, period)
}

func (s *Service) summarize(ctx context.Context, employee core.Employee, period payperiod.Period) (EmployeeSummary, error) {
	tally, _, err := s.hours.TallyForPeriod(ctx, employee.ID, period)
	if err != nil {
		return EmployeeSummary{}, fmt.Errorf("tally hours for %s: %w", employee.ID, err)
	}
	installs, err := s.store.ListCompletedInstalls(ctx, employee.ID, period.Start, period.RangeEnd())
	if err != nil {
		return EmployeeSummary{}, fmt.Errorf("list installs for %s: %w", employee.ID, err)
	}
	earnings, err := s.commissions.EarningsForPeriod(ctx, employee.ID, period)
	if err != nil {
		return EmployeeSummary{}, fmt.Errorf("commission earnings for %s: %w", employee.ID, err)
	}

	summary := EmployeeSummary{
		EmployeeID:  employee.ID,
		Name:        employee.FullName(),
		Role:        employee.Role,
		IsSalary:    employee.IsSalary,
		Period:      period.Summary(),
		Hours:       tally,
		HourlyPay:   ComputeHourly(tally, employee.HourlyRate, employee.IsSalary),
		PieceRate:   ComputePieceRate(installs, PieceRates{PerWattRate: employee.PerWattRate, BatteryPayRates: employee.BatteryPayRates}),
		Commissions: earnings,
	}
	summary.computeTotal()
	return summary, nil
}

// PeriodSummary summarizes every active employee for period, served from cache when warm.
func (s *Service) PeriodSummary(ctx context.Context, period payperiod.Period) (PeriodSummary, error) {
	return cache.Fetch(ctx, s.cache, cacheKey(period), s.cacheTTL, func(ctx context.Context) (PeriodSummary, error) {
		return s.buildPeriodSummary(ctx, period)
	})
}

func (s *Service) buildPeriodSummary(ctx context.Context, period payperiod.Period) (PeriodSummary, error) {
	employees, err := s.employees.ListEmployees(ctx, core.ListFilter{Status: auth.UserStatusActive})
	if err != nil {
		return PeriodSummary{}, err
	}

	summaries := make([]EmployeeSummary, len(employees))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(summaryConcurrency)
	for i, employee := range employees {
		i, employee := i, employee
		g.Go(func() error {
			summary, err := s.summarize(gctx, employee, period)
			if err != nil {
				return err
			}
			summaries[i] = summary
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return PeriodSummary{}, err
	}

	sort.SliceStable(summaries, func(i, j int) bool { return summaries[i].Name < summaries[j].Name })
	out := PeriodSummary{Period: period.Summary(), Employees: make([]EmployeeSummary, 0, len(summaries)), GeneratedAt: s.now().UTC()}
	for _, summary := range summaries {
		out.add(summary)
	}
	return out, nil
}

// Invalidate drops the cached summary for period after a write that changes pay.
func (s *Service) Invalidate(ctx context.Context, period payperiod.Period) {
	if err := s.cache.Delete(ctx, cacheKey(period)); err != nil {
		slog.Warn("payroll cache invalidate failed", "period", period.EndDate(), "err", err)
	}
}

// PeriodInvalidator drops cached summaries by the time of the write rather than by period.
type PeriodInvalidator struct {
	Service  *Service
	Calendar payperiod.Calendar
}

// InvalidateAt drops the summary of each distinct period containing one of times.
func (i PeriodInvalidator) InvalidateAt(ctx context.Context, times ...time.Time) {
	if i.Service == nil {
		return
	}
	seen := map[string]bool{}
	for _, at := range times {
		if at.IsZero() {
			continue
		}
		period := i.Calendar.Containing(at)
		if seen[period.EndDate()] {
			continue
		}
		seen[period.EndDate()] = true
		i.Service.Invalidate(ctx, period)
	}
}

// Warm rebuilds and caches the summary for period.
func (s *Service) Warm(ctx context.Context, period payperiod.Period) error {
	summary, err := s.buildPeriodSummary(ctx, period)
	if err != nil {
		return err
	}
	return s.cache.Set(ctx, cacheKey(period), summary, s.cacheTTL)
}

func cacheKey(period payperiod.Period) string {
	return cacheKeyPrefix + period.EndDate()
}
