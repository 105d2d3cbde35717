package checklist

import "context"

type StoreAPI interface {
	GetChecklist(ctx context.Context, phase, ticketID string) (Checklist, error)
	UpsertChecklist(ctx context.Context, c Checklist) (Checklist, error)
}
