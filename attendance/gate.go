/*
gate.go - Notification gate

PURPOSE:
  Time-window policy deciding whether a company may re-trigger weekly
  assignment issuance. Once a week's assignments go out, the gate stays
  closed for that week until a fixed reopen hour on the Monday of the
  following week.
*/
package attendance

import "time"

// DefaultGateReopenHour is the local hour on the following Monday at which
// a closed gate reopens.
const DefaultGateReopenHour = 7

// Gate evaluates the weekly-issuance window.
type Gate struct {
	// ReopenHour defaults to DefaultGateReopenHour when zero or out of range.
	ReopenHour int
	Location   *time.Location
}

func NewGate(loc *time.Location) *Gate {
	return &Gate{ReopenHour: DefaultGateReopenHour, Location: loc}
}

func (g *Gate) reopenHour() int {
	if g.ReopenHour <= 0 || g.ReopenHour > 23 {
		return DefaultGateReopenHour
	}
	return g.ReopenHour
}

func (g *Gate) location() *time.Location {
	if g.Location == nil {
		return time.Local
	}
	return g.Location
}

// Check returns nil when issuance for weekStart is allowed, or a
// *GateClosedError when the same week was already issued and the reopen
// instant has not arrived. A nil lastIssuedAt always passes: a company that
// has never issued is never gated.
func (g *Gate) Check(companyID CompanyID, lastIssuedAt *time.Time, weekStart Date, now time.Time) error {
	if lastIssuedAt == nil {
		return nil
	}

	lastWeek := StartOfWeek(DateOf(*lastIssuedAt, g.location()))
	requestedWeek := StartOfWeek(weekStart)
	if !lastWeek.Equal(requestedWeek) {
		return nil
	}

	opensAt := g.OpensAt(lastWeek)
	if now.Before(opensAt) {
		return &GateClosedError{CompanyID: companyID, WeekStart: requestedWeek, OpensAt: opensAt}
	}
	return nil
}

// OpensAt returns the reopen instant for an issuance in the week starting at
// issuedWeek: the following Monday at the reopen hour, local time.
func (g *Gate) OpensAt(issuedWeek Date) time.Time {
	nextMonday := issuedWeek.AddDays(7)
	loc := g.location()
	return time.Date(nextMonday.Year, nextMonday.Month, nextMonday.Day, g.reopenHour(), 0, 0, 0, loc)
}
