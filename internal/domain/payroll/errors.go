package payroll

import "errors"

var (
	ErrEmployeeNotFound = errors.New("employee not found")
	ErrInvalidPeriod    = errors.New("period must be a YYYY-MM-DD date")
)
