package scheduling

import (
	"net/url"
	"strings"
	"time"
)

// Post-commit hook kinds. Hooks run after the ticket row is saved; each one
// fails on its own and never undoes the save.
const (
	HookClockIn         = "clock_in"
	HookTimeline        = "timeline"
	HookSiteSurveyPDF   = "site_survey_pdf"
	HookCloseTimeClocks = "close_time_clocks"
)

type Hook struct {
	Kind      string `json:"kind"`
	Milestone string `json:"milestone,omitempty"`
}

type ToggleInput struct {
	Step        string
	CloseReason string
	// ChecklistDismissed is set when the begin step comes back from its photo checklist.
	ChecklistDismissed bool
	Now                time.Time
}

type Outcome struct {
	Ticket Ticket `json:"ticket"`
	// Changed is false when nothing was written, e.g. begin is waiting on a checklist.
	Changed        bool   `json:"changed"`
	Set            bool   `json:"set"`
	ChecklistPhase string `json:"checklistPhase,omitempty"`
	MapsURL        string `json:"mapsUrl,omitempty"`
	Hooks          []Hook `json:"hooks,omitempty"`
}

// Toggle sets the step to now, or clears it when it is already set. Steps
// may be set in any order; only departing and closed have preconditions.
// Clearing never fires hooks.
func Toggle(t Ticket, in ToggleInput) (Outcome, error) {
	ts := t.stamp(in.Step)
	if ts == nil {
		return Outcome{}, ErrUnknownStep
	}

	if *ts != nil {
		*ts = nil
		if in.Step == StepClosed {
			t.CloseReason = ""
		}
		t.deriveStatus()
		return Outcome{Ticket: t, Changed: true}, nil
	}

	out := Outcome{}
	switch in.Step {
	case StepInTransit:
		out.MapsURL = MapsURL(t.CustomerAddress)
	case StepBegin:
		if phase, gated := checklistPhases[t.TicketType]; gated && !in.ChecklistDismissed {
			return Outcome{Ticket: t, ChecklistPhase: phase}, nil
		}
	case StepDeparting:
		if strings.TrimSpace(t.WorkPerformed) == "" {
			return Outcome{}, ErrWorkPerformedRequired
		}
	case StepClosed:
		if !ValidCloseReason(in.CloseReason) {
			return Outcome{}, ErrCloseReasonRequired
		}
		t.CloseReason = in.CloseReason
	}

	now := in.Now.UTC()
	*ts = &now
	t.deriveStatus()

	out.Ticket = t
	out.Changed = true
	out.Set = true
	out.Hooks = hooksFor(t, in.Step)
	return out, nil
}

func hooksFor(t Ticket, step string) []Hook {
	switch step {
	case StepArrived, StepBegin:
		return []Hook{{Kind: HookClockIn}}
	case StepClosed:
		var hooks []Hook
		if milestone := MilestoneFor(t.TicketType, t.ProblemCode, t.CloseReason); milestone != "" {
			hooks = append(hooks, Hook{Kind: HookTimeline, Milestone: milestone})
		}
		if t.TicketType == TypeSiteSurvey && t.CloseReason == ReasonSiteSurveyComplete {
			hooks = append(hooks, Hook{Kind: HookSiteSurveyPDF})
		}
		return append(hooks, Hook{Kind: HookCloseTimeClocks})
	}
	return nil
}

// MilestoneFor returns the project timeline milestone a close records, or "".
func MilestoneFor(ticketType, problemCode, reason string) string {
	for _, rule := range milestoneRules {
		if rule.ticketType == ticketType && rule.reason == reason && !contains(rule.skipProblems, problemCode) {
			return rule.milestone
		}
	}
	return ""
}

// MapsURL is a directions link to the address; empty when there is no address.
func MapsURL(address string) string {
	address = strings.TrimSpace(address)
	if address == "" {
		return ""
	}
	return "https://www.google.com/maps/dir/?api=1&destination=" + url.QueryEscape(address)
}

// SetWorkPerformed edits the free-text field; it never touches departing_at.
func SetWorkPerformed(t Ticket, text string) Ticket {
	t.WorkPerformed = strings.TrimSpace(text)
	return t
}
