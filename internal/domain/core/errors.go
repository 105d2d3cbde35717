package core

import "errors"

var (
	ErrEmployeeNotFound     = errors.New("employee not found")
	ErrInvalidRole          = errors.New("invalid role")
	ErrInvalidRouting       = errors.New("routing number must be 9 digits with a valid checksum")
	ErrAccountMismatch      = errors.New("account number confirmation does not match")
	ErrInvalidAccount       = errors.New("account number must be 4 to 17 digits")
	ErrNegativeRate         = errors.New("pay rates must not be negative")
	ErrInvalidBatteryBucket = errors.New("battery pay rate keys must be 1, 2, 3 or 4+")
)
