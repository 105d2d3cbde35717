package subcontract

import "context"

type StoreAPI interface {
	ListContractors(ctx context.Context, activeOnly bool) ([]Contractor, error)
	GetContractor(ctx context.Context, contractorID string) (*Contractor, error)
	CreateContractor(ctx context.Context, c Contractor) (string, error)
	UpdateContractor(ctx context.Context, c Contractor) error
}
