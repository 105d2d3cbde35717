package payroll

import (
	"context"
	"time"
)

type StoreAPI interface {
	// ListCompletedInstalls returns installation tickets closed in [from, to] that employeeID worked.
	ListCompletedInstalls(ctx context.Context, employeeID string, from, to time.Time) ([]InstallTicket, error)
}
