package scheduling

import (
	"solarops/internal/domain/checklist"
	"solarops/internal/domain/customer"
)

const (
	Table            = "scheduling"
	TechniciansTable = "scheduling_technicians"
)

const (
	TypeSiteSurvey   = "site_survey"
	TypeInstallation = "installation"
	TypeInspection   = "inspection"
	TypeService      = "service"
	TypeDetach       = "detach"
	TypeReset        = "reset"
)

var TicketTypes = []string{TypeSiteSurvey, TypeInstallation, TypeInspection, TypeService, TypeDetach, TypeReset}

// Progress steps in their suggested order.
const (
	StepInTransit = "in_transit"
	StepArrived   = "arrived"
	StepBegin     = "begin"
	StepDeparting = "departing"
	StepClosed    = "closed"
)

var Steps = []string{StepInTransit, StepArrived, StepBegin, StepDeparting, StepClosed}

// ticket_status is derived from the progress timestamps.
const (
	StatusScheduled  = "scheduled"
	StatusInProgress = "in_progress"
	StatusClosed     = "closed"
)

const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

const (
	ReasonSiteSurveyComplete = "Site Survey Complete"
	ReasonInstallComplete    = "Install Complete"
	ReasonInspectionPassed   = "Inspection Passed"
	ReasonInspectionFailed   = "Inspection Failed"
	ReasonServiceComplete    = "Service Complete"
	ReasonDetachComplete     = "Detach Complete"
	ReasonResetComplete      = "Reset Complete"
	ReasonWeather            = "Weather Re-Schedule"
	ReasonCustomerReschedule = "Customer Re-Schedule"
	ReasonCustomerNotHome    = "Customer Not Home"
	ReasonPartsNeeded        = "Parts Needed"
	ReasonReturnVisit        = "Return Visit Required"
	ReasonCancelled          = "Cancelled"
)

var CloseReasons = []string{
	ReasonSiteSurveyComplete,
	ReasonInstallComplete,
	ReasonInspectionPassed,
	ReasonInspectionFailed,
	ReasonServiceComplete,
	ReasonDetachComplete,
	ReasonResetComplete,
	ReasonWeather,
	ReasonCustomerReschedule,
	ReasonCustomerNotHome,
	ReasonPartsNeeded,
	ReasonReturnVisit,
	ReasonCancelled,
}

// Problem codes on service tickets that do not count as a completed service visit.
const (
	ProblemWarrantyClaim = "warranty_claim"
	ProblemMonitoring    = "monitoring_only"
)

type milestoneRule struct {
	ticketType string
	reason     string
	milestone  string
	// skipProblems excludes problem codes from the rule.
	skipProblems []string
}

var milestoneRules = []milestoneRule{
	{ticketType: TypeSiteSurvey, reason: ReasonSiteSurveyComplete, milestone: customer.MilestoneSiteSurveyComplete},
	{ticketType: TypeInstallation, reason: ReasonInstallComplete, milestone: customer.MilestoneInstallComplete},
	{ticketType: TypeInspection, reason: ReasonInspectionPassed, milestone: customer.MilestoneInspectionPassed},
	{ticketType: TypeInspection, reason: ReasonInspectionFailed, milestone: customer.MilestoneInspectionFailed},
	{
		ticketType:   TypeService,
		reason:       ReasonServiceComplete,
		milestone:    customer.MilestoneServiceComplete,
		skipProblems: []string{ProblemMonitoring},
	},
}

// checklistPhases gates the begin step behind a photo checklist for these types.
var checklistPhases = map[string]string{
	TypeInstallation: checklist.PhaseInstallation,
	TypeInspection:   checklist.PhaseInspection,
	TypeService:      checklist.PhaseService,
}

func ValidTicketType(t string) bool {
	return contains(TicketTypes, t)
}

func ValidStep(step string) bool {
	return contains(Steps, step)
}

func ValidCloseReason(reason string) bool {
	return contains(CloseReasons, reason)
}

func ValidPriority(p string) bool {
	return p == PriorityLow || p == PriorityNormal || p == PriorityHigh || p == PriorityUrgent
}

func ValidStatus(status string) bool {
	return status == StatusScheduled || status == StatusInProgress || status == StatusClosed
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
