package commission

import (
	"context"

	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	CreateCommission(ctx context.Context, in NewCommission) (string, error)
	GetCommission(ctx context.Context, commissionID string) (*Commission, error)
	ListCommissions(ctx context.Context, filter ListFilter) ([]Commission, int, error)
	// UpdatePayment writes target's status and period end only if its status is still fromStatus.
	UpdatePayment(ctx context.Context, commissionID, target, fromStatus string, payment Payment) error
	SetOverride(ctx context.Context, commissionID string, override Override) error
	ListPaidForEmployee(ctx context.Context, employeeID, periodEnd string) ([]Commission, error)
	ListPaidForPeriod(ctx context.Context, periodEnd string) ([]Commission, error)
	RedlineFor(ctx context.Context, employeeID string) (*decimal.Decimal, error)
}
