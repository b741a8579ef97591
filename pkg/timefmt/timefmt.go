// Package timefmt renders times according to the user's 12h/24h display
// preference. Formatting is total: an unknown or unset preference falls back
// to the 12-hour default rather than failing.
package timefmt

import "time"

type Clock string

const (
	Clock12 Clock = "12"
	Clock24 Clock = "24"
)

// Default is used whenever a preference is unset or unrecognized.
const Default = Clock12

// Valid reports whether c is a known clock preference.
func (c Clock) Valid() bool {
	return c == Clock12 || c == Clock24
}

// Time renders the time-of-day portion, e.g. "3:04 PM" or "15:04".
func (c Clock) Time(t time.Time) string {
	if c == Clock24 {
		return t.Format("15:04")
	}
	return t.Format("3:04 PM")
}

// DateTime renders a full date plus time-of-day, e.g. "Jan 2, 2006 3:04 PM".
func (c Clock) DateTime(t time.Time) string {
	return t.Format("Jan 2, 2006") + " " + c.Time(t)
}
