package scheduling

import (
	"strings"
	"time"
)

type Ticket struct {
	ID              string     `json:"id"`
	CustomerID      string     `json:"customerId"`
	CustomerName    string     `json:"customerName,omitempty"`
	CustomerAddress string     `json:"customerAddress,omitempty"`
	TicketType      string     `json:"ticketType"`
	ProblemCode     string     `json:"problemCode,omitempty"`
	Status          string     `json:"ticketStatus"`
	Priority        string     `json:"priority"`
	ScheduledDate   string     `json:"scheduledDate,omitempty"`
	WindowStart     string     `json:"windowStart,omitempty"`
	WindowEnd       string     `json:"windowEnd,omitempty"`
	TechnicianIDs   []string   `json:"technicianIds"`
	PVInstallerID   string     `json:"pvInstallerId,omitempty"`
	InTransitAt     *time.Time `json:"inTransitAt,omitempty"`
	ArrivedAt       *time.Time `json:"arrivedAt,omitempty"`
	BeginTicketAt   *time.Time `json:"beginTicketAt,omitempty"`
	DepartingAt     *time.Time `json:"departingAt,omitempty"`
	ClosedAt        *time.Time `json:"closedAt,omitempty"`
	WorkPerformed   string     `json:"workPerformed,omitempty"`
	CloseReason     string     `json:"closeReason,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func (t *Ticket) stamp(step string) **time.Time {
	switch step {
	case StepInTransit:
		return &t.InTransitAt
	case StepArrived:
		return &t.ArrivedAt
	case StepBegin:
		return &t.BeginTicketAt
	case StepDeparting:
		return &t.DepartingAt
	case StepClosed:
		return &t.ClosedAt
	}
	return nil
}

// deriveStatus keeps ticket_status in line with the timestamps.
func (t *Ticket) deriveStatus() {
	switch {
	case t.ClosedAt != nil:
		t.Status = StatusClosed
	case t.InTransitAt != nil || t.ArrivedAt != nil || t.BeginTicketAt != nil || t.DepartingAt != nil:
		t.Status = StatusInProgress
	default:
		t.Status = StatusScheduled
	}
}

// Assigned reports whether the employee works this ticket.
func (t Ticket) Assigned(employeeID string) bool {
	if employeeID == "" {
		return false
	}
	return t.PVInstallerID == employeeID || contains(t.TechnicianIDs, employeeID)
}

// TicketInput is the editable part of a ticket; progress goes through Toggle.
type TicketInput struct {
	CustomerID    string   `json:"customerId"`
	TicketType    string   `json:"ticketType"`
	ProblemCode   string   `json:"problemCode"`
	Priority      string   `json:"priority"`
	ScheduledDate string   `json:"scheduledDate"`
	WindowStart   string   `json:"windowStart"`
	WindowEnd     string   `json:"windowEnd"`
	TechnicianIDs []string `json:"technicianIds"`
	PVInstallerID string   `json:"pvInstallerId"`
	Notes         string   `json:"notes"`
}

func (in *TicketInput) normalize() {
	in.CustomerID = strings.TrimSpace(in.CustomerID)
	in.TicketType = strings.TrimSpace(in.TicketType)
	in.ProblemCode = strings.TrimSpace(in.ProblemCode)
	in.Priority = strings.TrimSpace(in.Priority)
	if in.Priority == "" {
		in.Priority = PriorityNormal
	}
	seen := map[string]struct{}{}
	ids := in.TechnicianIDs[:0]
	for _, id := range in.TechnicianIDs {
		id = strings.TrimSpace(id)
		if _, dup := seen[id]; id == "" || dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	if ids == nil {
		ids = []string{}
	}
	in.TechnicianIDs = ids
}

func (in TicketInput) validate() error {
	if in.CustomerID == "" {
		return ErrCustomerRequired
	}
	if !ValidTicketType(in.TicketType) {
		return ErrInvalidTicketType
	}
	if !ValidPriority(in.Priority) {
		return ErrInvalidPriority
	}
	if in.ScheduledDate != "" {
		if _, err := time.Parse(time.DateOnly, in.ScheduledDate); err != nil {
			return ErrInvalidSchedule
		}
	}
	var start, end time.Time
	var err error
	if in.WindowStart != "" {
		if start, err = time.Parse("15:04", in.WindowStart); err != nil {
			return ErrInvalidSchedule
		}
	}
	if in.WindowEnd != "" {
		if end, err = time.Parse("15:04", in.WindowEnd); err != nil {
			return ErrInvalidSchedule
		}
	}
	if in.WindowStart != "" && in.WindowEnd != "" && !end.After(start) {
		return ErrInvalidSchedule
	}
	return nil
}

func (in TicketInput) apply(t *Ticket) {
	t.CustomerID = in.CustomerID
	t.TicketType = in.TicketType
	t.ProblemCode = in.ProblemCode
	t.Priority = in.Priority
	t.ScheduledDate = in.ScheduledDate
	t.WindowStart = in.WindowStart
	t.WindowEnd = in.WindowEnd
	t.TechnicianIDs = in.TechnicianIDs
	t.PVInstallerID = in.PVInstallerID
	t.Notes = in.Notes
}

type ListFilter struct {
	CustomerID   string
	TechnicianID string
	TicketType   string
	Status       string
	From         string
	To           string
	Limit        int
	Offset       int
}
