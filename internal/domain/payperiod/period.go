// Package payperiod derives the biweekly pay calendar from a fixed reference date.
//
// All arithmetic is done on civil dates in the reference date's location, so
// periods stay 14 calendar days long across DST changes.
package payperiod

import "time"

const (
	LengthDays = 14

	// PayDateLagDays is the minimum gap between period end and pay date.
	PayDateLagDays = 6
	dateLayout     = "2006-01-02"
)

type Calendar struct {
	reference time.Time
}

// NewCalendar anchors periods at the civil date of reference, in reference's location.
func NewCalendar(reference time.Time) Calendar {
	return Calendar{reference: startOfDay(reference)}
}

func (c Calendar) Location() *time.Location {
	return c.reference.Location()
}

func (c Calendar) Reference() time.Time {
	return c.reference
}

// Containing returns the period that encloses t.
func (c Calendar) Containing(t time.Time) Period {
	day := startOfDay(t.In(c.reference.Location()))
	offset := floorDiv(civilDaysBetween(c.reference, day), LengthDays)
	start := c.reference.AddDate(0, 0, offset*LengthDays)
	return newPeriod(start)
}

// ParseStart resolves a YYYY-MM-DD date to the period containing it.
func (c Calendar) ParseStart(value string) (Period, error) {
	parsed, err := time.ParseInLocation(dateLayout, value, c.reference.Location())
	if err != nil {
		return Period{}, err
	}
	return c.Containing(parsed), nil
}

type Period struct {
	Start time.Time
	End   time.Time
}

func newPeriod(start time.Time) Period {
	return Period{Start: start, End: start.AddDate(0, 0, LengthDays-1)}
}

// RangeEnd is the last instant of End, for inclusive range queries.
func (p Period) RangeEnd() time.Time {
	return time.Date(p.End.Year(), p.End.Month(), p.End.Day(), 23, 59, 59, 999_000_000, p.End.Location())
}

// PayDate is the first Friday on or after End + 6 days.
func (p Period) PayDate() time.Time {
	earliest := p.End.AddDate(0, 0, PayDateLagDays)
	shift := (int(time.Friday) - int(earliest.Weekday()) + 7) % 7
	return earliest.AddDate(0, 0, shift)
}

func (p Period) Previous() Period {
	return newPeriod(p.Start.AddDate(0, 0, -LengthDays))
}

func (p Period) Next() Period {
	return newPeriod(p.Start.AddDate(0, 0, LengthDays))
}

func (p Period) Contains(t time.Time) bool {
	t = t.In(p.Start.Location())
	return !t.Before(p.Start) && !t.After(p.RangeEnd())
}

// EndDate is End formatted as YYYY-MM-DD; payroll_period_end columns store this value.
func (p Period) EndDate() string {
	return p.End.Format(dateLayout)
}

func (p Period) StartDate() string {
	return p.Start.Format(dateLayout)
}

func (p Period) Equal(other Period) bool {
	return p.StartDate() == other.StartDate()
}

type Summary struct {
	Start    string `json:"start"`
	End      string `json:"end"`
	PayDate  string `json:"payDate"`
	Previous string `json:"previousStart"`
	Next     string `json:"nextStart"`
}

func (p Period) Summary() Summary {
	return Summary{
		Start:    p.StartDate(),
		End:      p.EndDate(),
		PayDate:  p.PayDate().Format(dateLayout),
		Previous: p.Previous().StartDate(),
		Next:     p.Next().StartDate(),
	}
}

func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

func civilDaysBetween(from, to time.Time) int {
	a := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)
	return int(b.Sub(a).Hours() / 24)
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}
