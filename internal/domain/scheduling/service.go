package scheduling

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"solarops/internal/domain/notifications"
	"solarops/internal/domain/timeclock"
	"solarops/internal/platform/realtime"
)

type Notifier interface {
	Create(ctx context.Context, userID, ntype, title, body string) error
}

// PayCache is told when a closed installation changes, since closed installs carry piece-rate pay.
type PayCache interface {
	InvalidateAt(ctx context.Context, times ...time.Time)
}

type Service struct {
	store    StoreAPI
	hooks    HookRunner
	notifier Notifier
	changes  realtime.Publisher
	pay      PayCache
	now      func() time.Time
}

func NewService(store StoreAPI, hooks HookRunner, notifier Notifier, changes realtime.Publisher) *Service {
	return &Service{store: store, hooks: hooks, notifier: notifier, changes: changes, now: time.Now}
}

func (s *Service) SetPayCache(pay PayCache) {
	s.pay = pay
}

func (s *Service) Create(ctx context.Context, in TicketInput) (Ticket, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return Ticket{}, err
	}
	t := Ticket{Status: StatusScheduled}
	in.apply(&t)
	id, err := s.store.CreateTicket(ctx, t)
	if err != nil {
		return Ticket{}, fmt.Errorf("create ticket: %w", err)
	}
	created, err := s.store.GetTicket(ctx, id)
	if err != nil {
		return Ticket{}, err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionInsert, id)
	s.notifyAssigned(ctx, created, assignees(created))
	return created, nil
}

func (s *Service) Get(ctx context.Context, ticketID string) (Ticket, error) {
	return s.store.GetTicket(ctx, ticketID)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Ticket, int, error) {
	if filter.TicketType != "" && !ValidTicketType(filter.TicketType) {
		return nil, 0, ErrInvalidTicketType
	}
	if filter.Limit <= 0 {
		filter.Limit = 50
	}
	return s.store.ListTickets(ctx, filter)
}

// Update replaces the editable fields; newly assigned technicians are notified.
func (s *Service) Update(ctx context.Context, ticketID string, in TicketInput) (Ticket, error) {
	in.normalize()
	if err := in.validate(); err != nil {
		return Ticket{}, err
	}
	current, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return Ticket{}, err
	}
	before := assignees(current)
	next := current
	in.apply(&next)
	if err := s.store.UpdateTicket(ctx, next); err != nil {
		return Ticket{}, err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionUpdate, ticketID)
	s.invalidatePay(ctx, current, next)

	var added []string
	for _, id := range assignees(next) {
		if !contains(before, id) {
			added = append(added, id)
		}
	}
	s.notifyAssigned(ctx, next, added)
	return s.store.GetTicket(ctx, ticketID)
}

func (s *Service) Delete(ctx context.Context, ticketID string) error {
	current, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return err
	}
	if err := s.store.DeleteTicket(ctx, ticketID); err != nil {
		return err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionDelete, ticketID)
	s.invalidatePay(ctx, current, Ticket{})
	return nil
}

// SetWorkPerformed edits the work notes; departing_at is left as it is.
func (s *Service) SetWorkPerformed(ctx context.Context, ticketID, text string) (Ticket, error) {
	t, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return Ticket{}, err
	}
	t = SetWorkPerformed(t, text)
	if err := s.store.UpdateWorkPerformed(ctx, ticketID, t.WorkPerformed); err != nil {
		return Ticket{}, err
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionUpdate, ticketID)
	return t, nil
}

type ToggleRequest struct {
	Step               string
	CloseReason        string
	ChecklistDismissed bool
	ActorID            string
	Location           *timeclock.Geo
}

type ToggleResult struct {
	Outcome
	HookResults []HookResult `json:"hookResults,omitempty"`
}

// Toggle saves the progress change first and then runs its hooks.
func (s *Service) Toggle(ctx context.Context, ticketID string, req ToggleRequest) (ToggleResult, error) {
	t, err := s.store.GetTicket(ctx, ticketID)
	if err != nil {
		return ToggleResult{}, err
	}
	now := s.now()
	out, err := Toggle(t, ToggleInput{
		Step:               req.Step,
		CloseReason:        strings.TrimSpace(req.CloseReason),
		ChecklistDismissed: req.ChecklistDismissed,
		Now:                now,
	})
	if err != nil {
		return ToggleResult{}, err
	}
	if !out.Changed {
		return ToggleResult{Outcome: out}, nil
	}
	if err := s.store.UpdateProgress(ctx, out.Ticket); err != nil {
		return ToggleResult{}, fmt.Errorf("save progress: %w", err)
	}
	realtime.Notify(ctx, s.changes, Table, realtime.ActionUpdate, ticketID)
	s.invalidatePay(ctx, t, out.Ticket)

	results := s.hooks.Run(ctx, out.Ticket, HookContext{ActorID: req.ActorID, Location: req.Location, At: now}, out.Hooks)
	return ToggleResult{Outcome: out, HookResults: results}, nil
}

// invalidatePay drops cached pay for the periods of a closed installation before and after a write.
func (s *Service) invalidatePay(ctx context.Context, before, after Ticket) {
	if s.pay == nil {
		return
	}
	var times []time.Time
	for _, t := range []Ticket{before, after} {
		if t.TicketType == TypeInstallation && t.ClosedAt != nil {
			times = append(times, *t.ClosedAt)
		}
	}
	if len(times) > 0 {
		s.pay.InvalidateAt(ctx, times...)
	}
}

func assignees(t Ticket) []string {
	ids := append([]string{}, t.TechnicianIDs...)
	if t.PVInstallerID != "" && !contains(ids, t.PVInstallerID) {
		ids = append(ids, t.PVInstallerID)
	}
	return ids
}

func (s *Service) notifyAssigned(ctx context.Context, t Ticket, employeeIDs []string) {
	if s.notifier == nil {
		return
	}
	title := "New " + strings.ReplaceAll(t.TicketType, "_", " ") + " ticket"
	body := "You have been assigned to " + t.CustomerName
	if t.ScheduledDate != "" {
		body += " on " + t.ScheduledDate
	}
	for _, id := range employeeIDs {
		if err := s.notifier.Create(ctx, id, notifications.TypeTicketAssigned, title, body); err != nil {
			slog.Warn("ticket assignment notification failed", "ticketId", t.ID, "employeeId", id, "err", err)
		}
	}
}
