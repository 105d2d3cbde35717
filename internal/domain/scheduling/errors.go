package scheduling

import "errors"

var (
	ErrTicketNotFound        = errors.New("ticket not found")
	ErrUnknownStep           = errors.New("unknown progress step")
	ErrWorkPerformedRequired = errors.New("work performed must be recorded before departing")
	ErrCloseReasonRequired   = errors.New("a valid close reason is required")
	ErrInvalidTicketType     = errors.New("invalid ticket type")
	ErrInvalidPriority       = errors.New("invalid priority")
	ErrInvalidSchedule       = errors.New("invalid scheduled date or time window")
	ErrCustomerRequired      = errors.New("customer is required")
	ErrNotSiteSurvey         = errors.New("ticket is not a site survey")
)
