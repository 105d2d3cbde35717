package payperiod

import (
	"testing"
	"time"
)

func mustLoad(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("timezone %s unavailable: %v", name, err)
	}
	return loc
}

func date(loc *time.Location, y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

func TestContainingExamplePeriod(t *testing.T) {
	cal := NewCalendar(date(time.UTC, 2024, time.December, 14))

	period := cal.Containing(date(time.UTC, 2025, time.January, 10))
	if got := period.StartDate(); got != "2024-12-28" {
		t.Fatalf("expected start 2024-12-28, got %s", got)
	}
	if got := period.EndDate(); got != "2025-01-10" {
		t.Fatalf("expected end 2025-01-10, got %s", got)
	}
	if got := period.PayDate().Format("2006-01-02"); got != "2025-01-17" {
		t.Fatalf("expected pay date 2025-01-17, got %s", got)
	}
}

func TestRangeEndIsLastMillisecond(t *testing.T) {
	cal := NewCalendar(date(time.UTC, 2024, time.December, 14))
	period := cal.Containing(date(time.UTC, 2025, time.January, 10))

	want := time.Date(2025, time.January, 10, 23, 59, 59, 999_000_000, time.UTC)
	if !period.RangeEnd().Equal(want) {
		t.Fatalf("expected range end %v, got %v", want, period.RangeEnd())
	}
	if !period.Contains(want) {
		t.Fatal("expected range end to be inside the period")
	}
	if period.Contains(want.Add(time.Millisecond)) {
		t.Fatal("expected next day to be outside the period")
	}
}

func TestContainingBeforeReference(t *testing.T) {
	cal := NewCalendar(date(time.UTC, 2024, time.December, 14))

	period := cal.Containing(date(time.UTC, 2024, time.December, 13))
	if got := period.StartDate(); got != "2024-11-30" {
		t.Fatalf("expected start 2024-11-30, got %s", got)
	}
	if got := period.EndDate(); got != "2024-12-13" {
		t.Fatalf("expected end 2024-12-13, got %s", got)
	}
}

func TestPeriodsCrossingMonthAndYearBoundaries(t *testing.T) {
	cal := NewCalendar(date(time.UTC, 2024, time.December, 14))

	tests := []struct {
		name      string
		day       time.Time
		wantStart string
		wantEnd   string
		wantPay   string
	}{
		{
			name:      "feb into mar",
			day:       date(time.UTC, 2025, time.March, 1),
			wantStart: "2025-02-22",
			wantEnd:   "2025-03-07",
			wantPay:   "2025-03-14",
		},
		{
			name:      "leap year feb into mar",
			day:       date(time.UTC, 2028, time.February, 29),
			wantStart: "2028-02-19",
			wantEnd:   "2028-03-03",
			wantPay:   "2028-03-10",
		},
		{
			name:      "dec into jan",
			day:       date(time.UTC, 2026, time.January, 2),
			wantStart: "2025-12-27",
			wantEnd:   "2026-01-09",
			wantPay:   "2026-01-16",
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			period := cal.Containing(tc.day)
			if period.StartDate() != tc.wantStart || period.EndDate() != tc.wantEnd {
				t.Fatalf("expected %s..%s, got %s..%s", tc.wantStart, tc.wantEnd, period.StartDate(), period.EndDate())
			}
			if got := period.PayDate().Format("2006-01-02"); got != tc.wantPay {
				t.Fatalf("expected pay date %s, got %s", tc.wantPay, got)
			}
		})
	}
}

func TestPeriodsAcrossDST(t *testing.T) {
	loc := mustLoad(t, "America/Los_Angeles")
	cal := NewCalendar(date(loc, 2024, time.December, 14))

	spring := cal.Containing(time.Date(2025, time.March, 9, 12, 0, 0, 0, loc))
	if spring.StartDate() != "2025-03-08" || spring.EndDate() != "2025-03-21" {
		t.Fatalf("unexpected spring period %s..%s", spring.StartDate(), spring.EndDate())
	}
	if spring.Start.Hour() != 0 || spring.End.Hour() != 0 {
		t.Fatalf("expected midnight boundaries, got %v and %v", spring.Start, spring.End)
	}

	fall := cal.Containing(time.Date(2025, time.November, 2, 1, 30, 0, 0, loc))
	if fall.StartDate() != "2025-11-01" || fall.EndDate() != "2025-11-14" {
		t.Fatalf("unexpected fall period %s..%s", fall.StartDate(), fall.EndDate())
	}
}

func TestContainingConvertsToCalendarLocation(t *testing.T) {
	loc := mustLoad(t, "America/Los_Angeles")
	cal := NewCalendar(date(loc, 2024, time.December, 14))

	// 2025-01-11 03:00 UTC is still 2025-01-10 in Los Angeles.
	period := cal.Containing(time.Date(2025, time.January, 11, 3, 0, 0, 0, time.UTC))
	if period.StartDate() != "2024-12-28" {
		t.Fatalf("expected local-date period 2024-12-28, got %s", period.StartDate())
	}
}

func TestContainingIsIdempotentAndPeriodic(t *testing.T) {
	loc := mustLoad(t, "America/New_York")
	cal := NewCalendar(date(loc, 2024, time.December, 14))

	day := date(loc, 2023, time.January, 1)
	for i := 0; i < 3*366; i++ {
		d := day.AddDate(0, 0, i).Add(13 * time.Hour)
		period := cal.Containing(d)

		if !period.Contains(d) {
			t.Fatalf("period %s does not contain %v", period.StartDate(), d)
		}
		if again := cal.Containing(period.Start); !again.Equal(period) {
			t.Fatalf("not idempotent for %v: %s vs %s", d, period.StartDate(), again.StartDate())
		}
		shifted := cal.Containing(d.AddDate(0, 0, LengthDays))
		if shifted.StartDate() != period.Start.AddDate(0, 0, LengthDays).Format("2006-01-02") {
			t.Fatalf("not periodic for %v: got %s", d, shifted.StartDate())
		}
		if period.PayDate().Weekday() != time.Friday {
			t.Fatalf("pay date %v is not a Friday", period.PayDate())
		}
	}
}

func TestPreviousAndNext(t *testing.T) {
	cal := NewCalendar(date(time.UTC, 2024, time.December, 14))
	period := cal.Containing(date(time.UTC, 2025, time.January, 10))

	if got := period.Previous().StartDate(); got != "2024-12-14" {
		t.Fatalf("expected previous 2024-12-14, got %s", got)
	}
	if got := period.Next().StartDate(); got != "2025-01-11" {
		t.Fatalf("expected next 2025-01-11, got %s", got)
	}
	if !period.Next().Previous().Equal(period) {
		t.Fatal("expected next then previous to round trip")
	}
}

func TestParseStart(t *testing.T) {
	cal := NewCalendar(date(time.UTC, 2024, time.December, 14))

	period, err := cal.ParseStart("2025-01-03")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if period.StartDate() != "2024-12-28" {
		t.Fatalf("expected enclosing period 2024-12-28, got %s", period.StartDate())
	}

	if _, err := cal.ParseStart("01/03/2025"); err == nil {
		t.Fatal("expected error for malformed date")
	}
}
