package shared

import (
	"strings"
	"time"
)

// ParseDate accepts RFC3339 or YYYY-MM-DD.
func ParseDate(value string) (time.Time, error) {
	return ParseDateIn(value, time.UTC)
}

// ParseDateIn reads bare dates as midnight in loc; RFC3339 values keep their offset.
func ParseDateIn(value string, loc *time.Location) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, nil
	}
	if parsed, err := time.Parse(time.RFC3339, value); err == nil {
		return parsed, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	return time.ParseInLocation("2006-01-02", value, loc)
}
