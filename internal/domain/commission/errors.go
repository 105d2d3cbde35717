package commission

import "errors"

var (
	ErrCommissionNotFound    = errors.New("commission not found")
	ErrInvalidTarget         = errors.New("target must be m1, m2, override_m1 or override_m2")
	ErrNotPending            = errors.New("payment is not pending")
	ErrNotEligible           = errors.New("payment must be eligible before it can be paid")
	ErrAlreadyPaid           = errors.New("payment is already paid")
	ErrNoOverride            = errors.New("commission has no manager override")
	ErrNoManager             = errors.New("commission has no sales manager")
	ErrManagerRedlineMissing = errors.New("manager override unavailable: the sales manager has no PPW redline configured")
	ErrRepRedlineMissing     = errors.New("manager override unavailable: the sales rep has no PPW redline configured")
	ErrRepRequired           = errors.New("salesRepId is required")
	ErrInvalidAmount         = errors.New("commission amounts must not be negative")
	ErrConcurrentUpdate      = errors.New("payment status changed by another request")
)
