package subcontract

import "errors"

var (
	ErrNotSubcontract     = errors.New("job is not a subcontract job")
	ErrInvalidStatus      = errors.New("status is not valid for this job type")
	ErrContractorNotFound = errors.New("contractor not found")
	ErrContractorName     = errors.New("contractor name is required")
)
