package timeclock

import "errors"

var (
	ErrAlreadyClockedIn = errors.New("employee already has an open time clock entry")
	ErrNotClockedIn     = errors.New("employee has no open time clock entry")
	ErrEntryNotFound    = errors.New("time clock entry not found")
)
