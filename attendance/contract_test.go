package attendance_test

import (
	"testing"
	"time"

	"github.com/warp/attendance-engine/attendance"
)

func date(y int, m time.Month, d int) attendance.Date {
	return attendance.NewDate(y, m, d)
}

func TestParsePeriod_WellFormed(t *testing.T) {
	p := attendance.ParsePeriod("2026.01.02 ~ 2027.01.01")
	if p == nil {
		t.Fatal("expected parse to succeed")
	}
	if !p.Start.Equal(date(2026, time.January, 2)) {
		t.Errorf("start = %s", p.Start)
	}
	if !p.End.Equal(date(2027, time.January, 1)) {
		t.Errorf("end = %s", p.End)
	}
}

func TestParsePeriod_FailsClosed(t *testing.T) {
	// Malformed input must parse to nil, never panic or error.
	cases := []string{
		"",
		"garbage",
		"2026-01-02 ~ 2027-01-01", // wrong separator style
		"2026.01.02 - 2027.01.01", // wrong range delimiter
		"2026.02.30 ~ 2026.12.31", // impossible date
		"2027.01.01 ~ 2026.01.02", // end before start
		"2026.1.2 ~ 2027.1.1",     // digits not zero-padded
		"2026.01.02 ~",
	}
	for _, text := range cases {
		if p := attendance.ParsePeriod(text); p != nil {
			t.Errorf("ParsePeriod(%q) = %v, want nil", text, p)
		}
	}
}

func TestIsActiveForWeek_UnparsableIsNeverActive(t *testing.T) {
	// GIVEN: an unparsable contract period
	p := attendance.ParsePeriod("not a period")

	// THEN: no week is ever covered
	week := date(2020, time.January, 6)
	for i := 0; i < 520; i++ {
		if p.IsActiveForWeek(week) {
			t.Fatalf("nil period active for week %s", week)
		}
		week = week.AddDays(7)
	}
}

func TestIsActiveForWeek_Overlaps(t *testing.T) {
	p := attendance.ParsePeriod("2026.03.04 ~ 2026.03.17") // Wed..Tue

	cases := []struct {
		name      string
		weekStart attendance.Date
		want      bool
	}{
		{"week before contract", date(2026, time.February, 23), false},
		{"contract starts mid-week", date(2026, time.March, 2), true},
		{"fully covered week", date(2026, time.March, 9), true},
		{"contract ends mid-week", date(2026, time.March, 16), true},
		{"week after contract", date(2026, time.March, 23), false},
	}
	for _, tc := range cases {
		if got := p.IsActiveForWeek(tc.weekStart); got != tc.want {
			t.Errorf("%s: IsActiveForWeek(%s) = %v, want %v", tc.name, tc.weekStart, got, tc.want)
		}
	}
}

func TestIsActiveForWeek_PeriodNestedInsideWeek(t *testing.T) {
	// GIVEN: a two-day contract sitting entirely inside one business week
	p := attendance.ParsePeriod("2026.03.10 ~ 2026.03.11")

	// THEN: that week is covered, its neighbors are not
	if !p.IsActiveForWeek(date(2026, time.March, 9)) {
		t.Error("nested period should cover its week")
	}
	if p.IsActiveForWeek(date(2026, time.March, 2)) {
		t.Error("previous week should not be covered")
	}
	if p.IsActiveForWeek(date(2026, time.March, 16)) {
		t.Error("next week should not be covered")
	}
}

func TestIsBeforeStart(t *testing.T) {
	p := attendance.ParsePeriod("2026.01.02 ~ 2027.01.01")

	if !p.IsBeforeStart(date(2026, time.January, 1)) {
		t.Error("day before start should report true")
	}
	if p.IsBeforeStart(date(2026, time.January, 2)) {
		t.Error("start day itself should report false")
	}

	// Nil period: no start is known, nothing is "before" it.
	var nilPeriod *attendance.ContractPeriod
	if nilPeriod.IsBeforeStart(date(2026, time.January, 1)) {
		t.Error("nil period should report false")
	}
}
