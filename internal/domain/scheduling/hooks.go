package scheduling

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"solarops/internal/domain/timeclock"
	"solarops/internal/platform/functions"
	"solarops/internal/platform/jobs"
)

type Clock interface {
	EnsureClockedIn(ctx context.Context, req timeclock.ClockInRequest) (bool, error)
	CloseOpenForCustomer(ctx context.Context, employeeID, customerID string) (int, error)
}

type Timeline interface {
	RecordMilestone(ctx context.Context, customerID, milestone, ticketID string, at time.Time) error
}

type SurveyPDF interface {
	GenerateSiteSurveyPDF(ctx context.Context, customerID, ticketID string) (functions.Result, error)
}

type Queue interface {
	Enqueue(jobType string, run func(context.Context) (any, error))
}

// HookRunner executes post-commit hooks. Nil collaborators turn their hooks into no-ops.
type HookRunner struct {
	Clock     Clock
	Timeline  Timeline
	SurveyPDF SurveyPDF
	// Queue makes the PDF request asynchronous; without one it runs inline.
	Queue Queue
}

// HookContext is what a hook needs beyond the ticket.
type HookContext struct {
	ActorID  string
	Location *timeclock.Geo
	At       time.Time
}

type HookResult struct {
	Kind string `json:"kind"`
	OK   bool   `json:"ok"`
	Err  error  `json:"-"`
}

var errNoActor = errors.New("no acting employee")

// Run executes every hook in order. A failed hook is logged and the rest still run.
func (r HookRunner) Run(ctx context.Context, t Ticket, hc HookContext, hooks []Hook) []HookResult {
	results := make([]HookResult, 0, len(hooks))
	for _, hook := range hooks {
		err := r.run(ctx, t, hc, hook)
		if err != nil {
			slog.Warn("ticket hook failed", "hook", hook.Kind, "ticketId", t.ID, "customerId", t.CustomerID, "err", err)
		}
		results = append(results, HookResult{Kind: hook.Kind, OK: err == nil, Err: err})
	}
	return results
}

func (r HookRunner) run(ctx context.Context, t Ticket, hc HookContext, hook Hook) error {
	switch hook.Kind {
	case HookClockIn:
		if r.Clock == nil {
			return nil
		}
		if hc.ActorID == "" {
			return errNoActor
		}
		_, err := r.Clock.EnsureClockedIn(ctx, timeclock.ClockInRequest{
			EmployeeID: hc.ActorID,
			CustomerID: t.CustomerID,
			TicketID:   t.ID,
			Location:   hc.Location,
		})
		return err
	case HookTimeline:
		if r.Timeline == nil {
			return nil
		}
		return r.Timeline.RecordMilestone(ctx, t.CustomerID, hook.Milestone, t.ID, hc.At)
	case HookSiteSurveyPDF:
		if r.SurveyPDF == nil {
			return nil
		}
		generate := func(ctx context.Context) (any, error) {
			res, err := r.SurveyPDF.GenerateSiteSurveyPDF(ctx, t.CustomerID, t.ID)
			slog.Info("site survey pdf", "ticketId", t.ID, "success", res.Success, "fileName", res.FileName, "error", res.Error)
			return res, err
		}
		if r.Queue != nil {
			r.Queue.Enqueue(jobs.JobTicketHook, generate)
			return nil
		}
		_, err := generate(ctx)
		return err
	case HookCloseTimeClocks:
		if r.Clock == nil || hc.ActorID == "" {
			return nil
		}
		_, err := r.Clock.CloseOpenForCustomer(ctx, hc.ActorID, t.CustomerID)
		return err
	}
	return nil
}
