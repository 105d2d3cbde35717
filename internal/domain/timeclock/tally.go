package timeclock

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

var (
	RegularHoursPerWeek = decimal.NewFromInt(40)
	OvertimeMultiplier  = decimal.RequireFromString("1.5")
)

// WeekStart returns midnight of the Sunday that begins t's calendar week in loc.
func WeekStart(t time.Time, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	local := t.In(loc)
	day := time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, loc)
	return day.AddDate(0, 0, -int(day.Weekday()))
}

// TallyHours buckets closed entries by Sunday-start week and splits each
// week at 40 hours. Open entries carry no hours and are skipped.
func TallyHours(entries []Entry, loc *time.Location) Tally {
	byWeek := map[time.Time]decimal.Decimal{}
	for _, entry := range entries {
		if entry.TotalHours == nil {
			continue
		}
		start := WeekStart(entry.ClockIn, loc)
		byWeek[start] = byWeek[start].Add(*entry.TotalHours)
	}

	starts := make([]time.Time, 0, len(byWeek))
	for start := range byWeek {
		starts = append(starts, start)
	}
	sort.Slice(starts, func(i, j int) bool { return starts[i].Before(starts[j]) })

	tally := Tally{Weeks: make([]Week, 0, len(starts))}
	for _, start := range starts {
		hours := byWeek[start]
		week := SplitWeek(hours)
		week.Start = start
		tally.Weeks = append(tally.Weeks, week)
		tally.TotalHours = tally.TotalHours.Add(hours)
		tally.RegularHours = tally.RegularHours.Add(week.Regular)
		tally.OvertimeHours = tally.OvertimeHours.Add(week.Overtime)
	}
	return tally
}

func SplitWeek(hours decimal.Decimal) Week {
	regular := decimal.Min(hours, RegularHoursPerWeek)
	overtime := decimal.Max(decimal.Zero, hours.Sub(RegularHoursPerWeek))
	return Week{Hours: hours, Regular: regular, Overtime: overtime}
}

func HourlyPay(tally Tally, rate decimal.Decimal) Pay {
	regular := tally.RegularHours.Mul(rate).Round(2)
	overtime := tally.OvertimeHours.Mul(rate).Mul(OvertimeMultiplier).Round(2)
	return Pay{RegularPay: regular, OvertimePay: overtime, Total: regular.Add(overtime)}
}

// HoursBetween is the wall-clock delta rounded to hundredths of an hour.
func HoursBetween(clockIn, clockOut time.Time) decimal.Decimal {
	elapsed := clockOut.Sub(clockIn)
	if elapsed < 0 {
		elapsed = 0
	}
	seconds := decimal.NewFromInt(int64(elapsed / time.Second))
	return seconds.Div(decimal.NewFromInt(3600)).Round(2)
}
