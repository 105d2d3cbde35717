package shared

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"solarops/internal/domain/payperiod"
)

var ErrInvalidPeriod = errors.New("period must be a YYYY-MM-DD date")

// ResolvePeriod maps the ?period= date to its pay period, defaulting to the current one.
func ResolvePeriod(r *http.Request, cal payperiod.Calendar, now time.Time) (payperiod.Period, error) {
	raw := strings.TrimSpace(r.URL.Query().Get("period"))
	if raw == "" {
		return cal.Containing(now), nil
	}
	period, err := cal.ParseStart(raw)
	if err != nil {
		return payperiod.Period{}, ErrInvalidPeriod
	}
	return period, nil
}
