package attendance

import "time"

// =============================================================================
// DATE - Calendar date value type
// =============================================================================

// Date is a timezone-agnostic calendar date. All date comparisons in the
// engine go through this type; the only place a timestamp becomes a Date is
// DateOf, which applies the engine's location policy exactly once.
//
// Date is comparable, so it can key maps directly.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

func NewDate(year int, month time.Month, day int) Date {
	// Normalize through time.Date so Feb 30 etc. roll over consistently.
	t := time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// DateOf extracts the calendar date of t in the given location.
func DateOf(t time.Time, loc *time.Location) Date {
	if loc == nil {
		loc = time.Local
	}
	t = t.In(loc)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// ParseDate parses "2006-01-02". Returns the zero Date and an error on
// malformed input.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		return Date{}, err
	}
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
}

// Time returns midnight of the date in loc.
func (d Date) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.Local
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// Comparison
func (d Date) Before(other Date) bool { return d.ordinal() < other.ordinal() }
func (d Date) After(other Date) bool  { return d.ordinal() > other.ordinal() }
func (d Date) Equal(other Date) bool  { return d == other }
func (d Date) BeforeOrEqual(other Date) bool {
	return !d.After(other)
}
func (d Date) AfterOrEqual(other Date) bool {
	return !d.Before(other)
}

func (d Date) ordinal() int {
	return d.Year*10000 + int(d.Month)*100 + d.Day
}

// Arithmetic
func (d Date) AddDays(n int) Date {
	t := time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).AddDate(0, 0, n)
	return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
}

// Properties
func (d Date) Weekday() time.Weekday {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC).Weekday()
}

func (d Date) IsZero() bool { return d == Date{} }

func (d Date) String() string {
	return d.Time(time.UTC).Format("2006-01-02")
}

// =============================================================================
// WEEK HELPERS
// =============================================================================

// StartOfWeek returns the Monday on or before d.
func StartOfWeek(d Date) Date {
	wd := int(d.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	return d.AddDays(-(wd - 1))
}

// BusinessWeekEnd returns the Friday of the week starting at weekStart.
// The engine's eligibility checks run over the Mon-Fri business week even
// though assignments are issued for all 7 days.
func BusinessWeekEnd(weekStart Date) Date {
	return weekStart.AddDays(4)
}

// WeekDays returns the 7 consecutive dates starting at weekStart.
func WeekDays(weekStart Date) []Date {
	days := make([]Date, 7)
	for i := range days {
		days[i] = weekStart.AddDays(i)
	}
	return days
}
