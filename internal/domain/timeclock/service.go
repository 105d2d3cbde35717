package timeclock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"solarops/internal/domain/payperiod"
	"solarops/internal/platform/realtime"
)

const Table = "time_clock"

// PayCache is told about writes that change what an employee is owed.
type PayCache interface {
	InvalidateAt(ctx context.Context, times ...time.Time)
}

type Service struct {
	store   StoreAPI
	changes realtime.Publisher
	pay     PayCache
	now     func() time.Time
}

func NewService(store StoreAPI, changes realtime.Publisher) *Service {
	return &Service{store: store, changes: changes, now: time.Now}
}

func (s *Service) SetPayCache(pay PayCache) {
	s.pay = pay
}

func (s *Service) ClockIn(ctx context.Context, req ClockInRequest) (Entry, error) {
	open, err := s.store.OpenEntry(ctx, req.EmployeeID)
	if err != nil {
		return Entry{}, fmt.Errorf("lookup open entry: %w", err)
	}
	if open != nil {
		return Entry{}, ErrAlreadyClockedIn
	}

	entry := Entry{
		EmployeeID: req.EmployeeID,
		CustomerID: req.CustomerID,
		TicketID:   req.TicketID,
		ClockIn:    s.now().UTC(),
		Notes:      req.Notes,
	}
	if req.Location != nil {
		lat, lng := req.Location.Latitude, req.Location.Longitude
		entry.Latitude = &lat
		entry.Longitude = &lng
	}

	created, err := s.store.CreateEntry(ctx, entry)
	if err != nil {
		return Entry{}, fmt.Errorf("create entry: %w", err)
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionInsert, created.ID)
	return created, nil
}

// EnsureClockedIn opens an entry unless one is already open. It reports whether it opened one.
func (s *Service) EnsureClockedIn(ctx context.Context, req ClockInRequest) (bool, error) {
	if _, err := s.ClockIn(ctx, req); err != nil {
		if errors.Is(err, ErrAlreadyClockedIn) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (s *Service) ClockOut(ctx context.Context, employeeID string) (Entry, error) {
	open, err := s.store.OpenEntry(ctx, employeeID)
	if err != nil {
		return Entry{}, fmt.Errorf("lookup open entry: %w", err)
	}
	if open == nil {
		return Entry{}, ErrNotClockedIn
	}
	return s.close(ctx, *open)
}

// CloseOpenForCustomer closes every open entry the employee has against the customer.
func (s *Service) CloseOpenForCustomer(ctx context.Context, employeeID, customerID string) (int, error) {
	entries, err := s.store.ListOpenEntriesForCustomer(ctx, employeeID, customerID)
	if err != nil {
		return 0, fmt.Errorf("list open entries: %w", err)
	}
	closed := 0
	for _, entry := range entries {
		if _, err := s.close(ctx, entry); err != nil {
			slog.Warn("close time clock entry failed", "entryId", entry.ID, "err", err)
			continue
		}
		closed++
	}
	return closed, nil
}

func (s *Service) close(ctx context.Context, entry Entry) (Entry, error) {
	out := s.now().UTC()
	total := HoursBetween(entry.ClockIn, out)
	if err := s.store.CloseEntry(ctx, entry.ID, out, total); err != nil {
		return Entry{}, fmt.Errorf("close entry: %w", err)
	}
	entry.ClockOut = &out
	entry.TotalHours = &total
	realtime.Notify(ctx, s.changes, Table, realtime.ActionUpdate, entry.ID)
	// Hours are bucketed by clock-in.
	if s.pay != nil {
		s.pay.InvalidateAt(ctx, entry.ClockIn)
	}
	return entry, nil
}

func (s *Service) OpenEntry(ctx context.Context, employeeID string) (*Entry, error) {
	return s.store.OpenEntry(ctx, employeeID)
}

func (s *Service) ListForPeriod(ctx context.Context, employeeID string, period payperiod.Period) ([]Entry, error) {
	return s.store.ListEntries(ctx, employeeID, period.Start, period.RangeEnd())
}

// TallyForPeriod buckets weeks in the period's own location.
func (s *Service) TallyForPeriod(ctx context.Context, employeeID string, period payperiod.Period) (Tally, []Entry, error) {
	entries, err := s.ListForPeriod(ctx, employeeID, period)
	if err != nil {
		return Tally{}, nil, err
	}
	return TallyHours(entries, period.Start.Location()), entries, nil
}
