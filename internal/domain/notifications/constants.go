package notifications

const (
	TypeWelcome          = "welcome"
	TypeCommissionPaid   = "commission_paid"
	TypeOverridePaid     = "override_paid"
	TypeTicketAssigned   = "ticket_assigned"
	TypeSurveyPDFCreated = "survey_pdf_created"
)
