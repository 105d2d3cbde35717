package core

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"solarops/internal/domain/auth"
	"solarops/internal/domain/notifications"
	"solarops/internal/domain/payperiod"
	"solarops/internal/platform/realtime"
)

const Table = "app_users"

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

// PayCache is told when rates or the roster change what employees are owed.
type PayCache interface {
	InvalidateAt(ctx context.Context, times ...time.Time)
}

type Service struct {
	store    StoreAPI
	notifier Notifier
	changes  realtime.Publisher
	pay      PayCache
	now      func() time.Time
}

func NewService(store StoreAPI, notifier Notifier, changes realtime.Publisher) *Service {
	return &Service{store: store, notifier: notifier, changes: changes, now: time.Now}
}

func (s *Service) SetPayCache(pay PayCache) {
	s.pay = pay
}

// invalidatePay drops the current and previous period. Rates apply to every
// period, but only recent ones are cached.
func (s *Service) invalidatePay(ctx context.Context) {
	if s.pay == nil {
		return
	}
	now := s.now()
	s.pay.InvalidateAt(ctx, now, now.AddDate(0, 0, -payperiod.LengthDays))
}

func (s *Service) GetEmployee(ctx context.Context, employeeID string) (*Employee, error) {
	return s.store.GetEmployee(ctx, employeeID)
}

func (s *Service) ListEmployees(ctx context.Context, filter ListFilter) ([]Employee, error) {
	return s.store.ListEmployees(ctx, filter)
}

// Invite creates the login user with an initial password and sends a welcome notification.
func (s *Service) Invite(ctx context.Context, profile Profile, initialPassword string) (string, error) {
	profile = normalizeProfile(profile)
	if !auth.ValidRole(profile.Role) {
		return "", ErrInvalidRole
	}
	hash, err := auth.HashPassword(initialPassword)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	id, err := s.store.CreateEmployee(ctx, profile, hash)
	if err != nil {
		return "", err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionInsert, id)

	if s.notifier != nil {
		body := fmt.Sprintf("Welcome aboard, %s. Sign in with %s to view your schedule and pay.", profile.FirstName, profile.Email)
		if err := s.notifier.Create(ctx, id, notifications.TypeWelcome, "Welcome", body); err != nil {
			slog.Warn("welcome notification failed", "userId", id, "err", err)
		}
	}
	return id, nil
}

func (s *Service) UpdateProfile(ctx context.Context, employeeID string, profile Profile) error {
	profile = normalizeProfile(profile)
	if !auth.ValidRole(profile.Role) {
		return ErrInvalidRole
	}
	if err := s.store.UpdateProfile(ctx, employeeID, profile); err != nil {
		return err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionUpdate, employeeID)
	s.invalidatePay(ctx)
	return nil
}

func (s *Service) UpdatePay(ctx context.Context, employeeID string, pay PayFields) error {
	if err := ValidatePayFields(pay); err != nil {
		return err
	}
	if err := s.store.UpdatePay(ctx, employeeID, pay); err != nil {
		return err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionUpdate, employeeID)
	s.invalidatePay(ctx)
	return nil
}

func (s *Service) UpdateBank(ctx context.Context, employeeID string, details BankDetails) error {
	clean, err := ValidateBankDetails(details)
	if err != nil {
		return err
	}
	return s.store.UpdateBank(ctx, employeeID, clean)
}

func (s *Service) Deactivate(ctx context.Context, employeeID string) error {
	if err := s.store.DeleteEmployee(ctx, employeeID); err != nil {
		return err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionDelete, employeeID)
	s.invalidatePay(ctx)
	return nil
}

var batteryBuckets = map[string]struct{}{"1": {}, "2": {}, "3": {}, "4+": {}}

func ValidatePayFields(pay PayFields) error {
	for _, rate := range []*decimal.Decimal{pay.HourlyRate, pay.PerWattRate, pay.PPWRedline} {
		if rate != nil && rate.IsNegative() {
			return ErrNegativeRate
		}
	}
	for key, rate := range pay.BatteryPayRates {
		if _, ok := batteryBuckets[key]; !ok {
			return ErrInvalidBatteryBucket
		}
		if rate.IsNegative() {
			return ErrNegativeRate
		}
	}
	return nil
}

func normalizeProfile(profile Profile) Profile {
	profile.Email = strings.ToLower(strings.TrimSpace(profile.Email))
	profile.FirstName = strings.TrimSpace(profile.FirstName)
	profile.LastName = strings.TrimSpace(profile.LastName)
	profile.Phone = strings.TrimSpace(profile.Phone)
	profile.Role = strings.TrimSpace(profile.Role)
	if profile.Status == "" {
		profile.Status = auth.UserStatusActive
	}
	return profile
}
