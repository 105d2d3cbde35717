package subcontract

import "solarops/internal/domain/customer"

const (
	StatusPending     = "pending"
	StatusScheduled   = "scheduled"
	StatusInProgress  = "in_progress"
	StatusCompleted   = "completed"
	StatusDetached    = "detached"
	StatusResetReady  = "reset_scheduled"
	StatusResetDone   = "reset_complete"
	StatusInvoiceSent = "invoice_sent"
	StatusPaid        = "paid"

	ContractorsTable = "contractors"

	dateLayout = "2006-01-02"
)

// Statuses lists the selectable statuses per job kind, in their usual order.
var Statuses = map[string][]string{
	customer.KindSubcontractNewInstall: {
		StatusPending, StatusScheduled, StatusInProgress, StatusCompleted, StatusInvoiceSent, StatusPaid,
	},
	customer.KindSubcontractDetachReset: {
		StatusPending, StatusDetached, StatusResetReady, StatusResetDone, StatusInvoiceSent, StatusPaid,
	},
}

func ValidStatus(kind, status string) bool {
	for _, candidate := range Statuses[kind] {
		if candidate == status {
			return true
		}
	}
	return false
}
