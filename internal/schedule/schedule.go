// Package schedule builds the day's RPL (route/plan list) table from the
// SIROS schedule registry and codeshare publications.
//
// The registry is a semicolon-delimited CSV published once per day. Each row
// describes one scheduled flight: validity window, weekly operating mask and
// local departure/arrival clock times. Codeshares come either as a separate
// CSV (inside a ZIP) mapping operating flights to marketing flights, or as
// an inline comma-separated field on the registry row itself.
package schedule

import (
	"time"

	"siros_tracker/internal/callsign"
)

// Entry holds the scheduled UTC departure and arrival instants for one
// flight on the operating day. Entries are created once per callsign per day
// and never mutated; the table is rebuilt, not patched, on the next day.
type Entry struct {
	Departure time.Time
	Arrival   time.Time
}

// Table is the day's RPL table: every callsign expected to operate today,
// keyed by designator. Marketing callsigns of a codeshare resolve to the
// same Entry value as their operating flight.
type Table map[callsign.Callsign]Entry

// entryFor combines the HH:MM departure/arrival clock times with today's
// date in UTC. An arrival clock time numerically before the departure is an
// overnight flight; the arrival rolls to the next calendar day.
func entryFor(today time.Time, dep, arr clockTime) Entry {
	y, m, d := today.Date()
	departure := time.Date(y, m, d, dep.hour, dep.min, 0, 0, time.UTC)
	arrival := time.Date(y, m, d, arr.hour, arr.min, 0, 0, time.UTC)
	if departure.After(arrival) {
		arrival = arrival.AddDate(0, 0, 1)
	}
	return Entry{Departure: departure, Arrival: arrival}
}

// clockTime is a parsed HH:MM field.
type clockTime struct {
	hour, min int
}
