/*
contract.go - Contract period parsing and eligibility checks

PURPOSE:
  Answers "may this employee work on this day / during this week?" from the
  free-text contract period stored on the employee record.

FAIL-CLOSED PARSING:
  Contract periods arrive as text in a fixed format ("2026.01.02 ~
  2027.01.01"). Anything that does not match parses to nil, and every
  downstream check treats nil as "not eligible". Parsing never returns an
  error; an unparsable contract silently excludes the employee from
  scheduling. Compatibility behavior, kept on purpose.

WEEK COVERAGE:
  A business week (Mon-Fri) is covered by a contract if the week's start
  falls inside the period, or the week's end does, or the whole period is
  nested inside the week. The three-way test handles contracts starting or
  ending mid-week.
*/
package attendance

import (
	"regexp"
	"time"
)

// ContractPeriod is a parsed, inclusive date range.
type ContractPeriod struct {
	Start Date
	End   Date
}

// periodPattern matches the exact textual form contracts are stored in:
// "YYYY.MM.DD ~ YYYY.MM.DD", with optional surrounding whitespace.
var periodPattern = regexp.MustCompile(
	`^\s*(\d{4})\.(\d{2})\.(\d{2})\s*~\s*(\d{4})\.(\d{2})\.(\d{2})\s*$`)

// ParsePeriod parses a contract period string. Returns nil for anything
// malformed: wrong pattern, impossible dates, or end before start. It never
// returns an error; callers must treat nil as "not eligible".
func ParsePeriod(text string) *ContractPeriod {
	m := periodPattern.FindStringSubmatch(text)
	if m == nil {
		return nil
	}

	start, ok := parseYMD(m[1], m[2], m[3])
	if !ok {
		return nil
	}
	end, ok := parseYMD(m[4], m[5], m[6])
	if !ok {
		return nil
	}
	if end.Before(start) {
		return nil
	}
	return &ContractPeriod{Start: start, End: end}
}

// parseYMD rejects dates that do not round-trip (e.g. 2026.02.30).
func parseYMD(y, m, d string) (Date, bool) {
	t, err := time.Parse("2006.01.02", y+"."+m+"."+d)
	if err != nil {
		return Date{}, false
	}
	date := Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}
	if date.String() != t.Format("2006-01-02") {
		return Date{}, false
	}
	return date, true
}

// Contains reports whether d falls within the period [Start, End].
func (p *ContractPeriod) Contains(d Date) bool {
	if p == nil {
		return false
	}
	return d.AfterOrEqual(p.Start) && d.BeforeOrEqual(p.End)
}

// IsActiveForWeek reports whether the business week starting at weekStart
// (Mon-Fri) is covered by the period. A nil period is never active.
func (p *ContractPeriod) IsActiveForWeek(weekStart Date) bool {
	if p == nil {
		return false
	}
	weekEnd := BusinessWeekEnd(weekStart)
	if p.Contains(weekStart) || p.Contains(weekEnd) {
		return true
	}
	// Period fully nested inside the week (short contract).
	return weekStart.BeforeOrEqual(p.Start) && p.End.BeforeOrEqual(weekEnd)
}

// IsBeforeStart reports whether d precedes the contract start. Used to
// suppress false "absent" derivations for pre-hire dates. A nil period
// reports false: with no parsable contract there is no start to be before,
// and eligibility is already denied elsewhere.
func (p *ContractPeriod) IsBeforeStart(d Date) bool {
	if p == nil {
		return false
	}
	return d.Before(p.Start)
}
