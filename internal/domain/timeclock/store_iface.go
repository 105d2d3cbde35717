package timeclock

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type StoreAPI interface {
	OpenEntry(ctx context.Context, employeeID string) (*Entry, error)
	ListOpenEntriesForCustomer(ctx context.Context, employeeID, customerID string) ([]Entry, error)
	CreateEntry(ctx context.Context, entry Entry) (Entry, error)
	CloseEntry(ctx context.Context, entryID string, clockOut time.Time, totalHours decimal.Decimal) error
	ListEntries(ctx context.Context, employeeID string, from, to time.Time) ([]Entry, error)
}
