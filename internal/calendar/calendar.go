// Package calendar provides trading-calendar implementations satisfying
// domain.Calendar for order expiration checks.
package calendar

import "time"

// SessionCalendar models a market with a fixed weekday session, e.g. NYSE
// 9:30-16:00 America/New_York. Holidays are not modelled; weekends are
// always closed.
type SessionCalendar struct {
	loc       *time.Location
	openMins  int // minutes since midnight, session open
	closeMins int // minutes since midnight, session close
}

// NewSessionCalendar creates a calendar open Monday-Friday between the
// given local times in the location named by locName (e.g.
// "America/New_York"). An unknown location falls back to UTC.
func NewSessionCalendar(locName string, openHour, openMin, closeHour, closeMin int) *SessionCalendar {
	loc, err := time.LoadLocation(locName)
	if err != nil {
		loc = time.UTC
	}
	return &SessionCalendar{
		loc:       loc,
		openMins:  openHour*60 + openMin,
		closeMins: closeHour*60 + closeMin,
	}
}

// NewNYSECalendar returns the standard US equity session calendar.
func NewNYSECalendar() *SessionCalendar {
	return NewSessionCalendar("America/New_York", 9, 30, 16, 0)
}

// IsOpenAt reports whether the market is open at time t.
func (c *SessionCalendar) IsOpenAt(t time.Time) bool {
	local := t.In(c.loc)
	switch local.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	mins := local.Hour()*60 + local.Minute()
	return mins >= c.openMins && mins < c.closeMins
}

// AlwaysOpen is a calendar for markets that never close (e.g. crypto).
type AlwaysOpen struct{}

// IsOpenAt always reports true.
func (AlwaysOpen) IsOpenAt(time.Time) bool { return true }
